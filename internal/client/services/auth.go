// Package services contains application services for the rollcall station.
// This file defines the authentication service: online login, session
// persistence across restarts, logout and the liveness probe.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/rollcall/internal/client/client"
	"github.com/dmitrijs2005/rollcall/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/dmitrijs2005/rollcall/internal/dbx"
)

// Operator describes who is signed in on the station.
type Operator struct {
	Email string
	Role  string
}

func (o Operator) IsAdmin() bool {
	return o.Role == common.RoleAdmin
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server and persist the session.
//   - Restore: load a persisted session into the client after a restart.
//   - SaveSession: persist tokens rotated by the client.
//   - Logout: forget the session locally.
//   - Ping: check server liveness.
//   - Close: release underlying client resources.
type AuthService interface {
	Login(ctx context.Context, email string, password []byte) (Operator, error)
	Restore(ctx context.Context) (Operator, bool, error)
	SaveSession(ctx context.Context, s client.Session) error
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
}

// NewAuthService constructs an AuthService bound to the given API client and DB.
func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

// Login authenticates against the server and stores the token pair, the
// operator email and role in one transaction.
func (a *authService) Login(ctx context.Context, email string, password []byte) (Operator, error) {
	session, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return Operator{}, fmt.Errorf("login error: %w", err)
	}

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		values := map[string]string{
			metadata.KeyAccessToken:  session.AccessToken,
			metadata.KeyRefreshToken: session.RefreshToken,
			metadata.KeyUserEmail:    email,
			metadata.KeyUserRole:     session.Role,
		}
		for k, v := range values {
			if err := repo.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Operator{}, fmt.Errorf("session saving error: %w", err)
	}

	return Operator{Email: email, Role: session.Role}, nil
}

// Restore hands a stored session to the client. It reports false when the
// station has no session.
func (a *authService) Restore(ctx context.Context) (Operator, bool, error) {
	values, err := metadata.NewSQLiteRepository(a.db).List(ctx)
	if err != nil {
		return Operator{}, false, err
	}

	access, refresh := values[metadata.KeyAccessToken], values[metadata.KeyRefreshToken]
	if access == "" && refresh == "" {
		return Operator{}, false, nil
	}

	op := Operator{Email: values[metadata.KeyUserEmail], Role: values[metadata.KeyUserRole]}
	a.client.SetSession(client.Session{AccessToken: access, RefreshToken: refresh, Role: op.Role})
	return op, true, nil
}

func (a *authService) SaveSession(ctx context.Context, s client.Session) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, metadata.KeyAccessToken, s.AccessToken); err != nil {
			return err
		}
		return repo.Set(ctx, metadata.KeyRefreshToken, s.RefreshToken)
	})
}

// Logout drops the session from the client and from disk. The roster and
// pending check-ins stay.
func (a *authService) Logout(ctx context.Context) error {
	a.client.SetSession(client.Session{})
	return metadata.NewSQLiteRepository(a.db).Delete(ctx, metadata.SessionKeys...)
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
