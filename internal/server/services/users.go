// Package services contains the server-side business logic: operator
// accounts and tokens, the attendance roster, and badge publishing.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/dbx"
	"github.com/dmitrijs2005/rollcall/internal/server/auth"
	"github.com/dmitrijs2005/rollcall/internal/server/config"
	"github.com/dmitrijs2005/rollcall/internal/server/models"
	"github.com/dmitrijs2005/rollcall/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// TokenPair bundles a short-lived access token and a long-lived refresh
// token, plus the role the access token grants.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Role         string
}

// loginLimiter throttles login attempts per email address.
type loginLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newLoginLimiter(perMinute, burst int) *loginLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst < 1 {
		burst = 1
	}
	return &loginLimiter{limit: limit, burst: burst, limiters: make(map[string]*rate.Limiter)}
}

func (l *loginLimiter) Allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	limiter                      *loginLimiter
	now                          func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		limiter:                      newLoginLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst),
		now:                          time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureUser creates the account unless one with this email already exists.
// The existing account is returned untouched, password included.
func (s *UserService) EnsureUser(ctx context.Context, email, password, role string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.ErrInvalidArgument
	}
	if role != common.RoleAdmin && role != common.RoleScanner {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrInvalidArgument, role)
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err = repo.Create(ctx, &models.User{Email: email, PasswordHash: hash, Role: role})
	if errors.Is(err, common.ErrAlreadyExists) {
		// created concurrently by another instance
		return repo.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = normalizeEmail(email)

	if !s.limiter.Allow(email) {
		return nil, common.ErrTooManyAttempts
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.generateTokenPair(ctx, s.db, user)
}

// RefreshToken rotates a refresh token: the presented one is deleted and a
// new pair is issued in the same transaction.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {

	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if token.Expires.Before(s.now()) {
		_ = s.repomanager.RefreshTokens(s.db).DeleteByToken(ctx, refreshToken)
		return nil, common.ErrRefreshTokenExpired
	}

	var tokenPair *TokenPair

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).DeleteByToken(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			return fmt.Errorf("error searching user: %w", err)
		}

		tokenPair, err = s.generateTokenPair(ctx, tx, user)
		if err != nil {
			return fmt.Errorf("error generating token pair: %w", err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return tokenPair, nil
}

// Authenticate verifies an access token.
func (s *UserService) Authenticate(accessToken string) (auth.Identity, error) {
	return auth.ParseToken(accessToken, s.jwtSecret)
}

// PurgeExpiredTokens drops refresh tokens that can no longer be used.
func (s *UserService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error purging refresh tokens: %w", err)
	}
	return n, nil
}

func (s *UserService) generateAccessToken(user *models.User) (string, error) {
	return auth.GenerateToken(auth.Identity{UserID: user.ID, Role: user.Role}, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, db dbx.DBTX, user *models.User) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}

	err = s.repomanager.RefreshTokens(db).Create(ctx, user.ID, refreshToken, s.now().Add(s.refreshTokenValidityDuration))
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, Role: user.Role}, nil
}
