// Package auth issues and verifies the HS256 access tokens handed to
// operators at login.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/rollcall/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the operator id and role.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Role   string `json:"role"`
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID string
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == common.RoleAdmin
}

func GenerateToken(id Identity, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: id.UserID,
		Role:   id.Role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString. An expired token yields
// common.ErrTokenExpired, anything else unverifiable yields
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, common.ErrTokenExpired
		}
		return Identity{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return Identity{}, common.ErrInvalidToken
	}

	return Identity{UserID: claims.UserID, Role: claims.Role}, nil
}
