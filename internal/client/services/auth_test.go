package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/rollcall/internal/client/client"
	"github.com/dmitrijs2005/rollcall/internal/client/repositories/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_LoginStoresSession(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{LoginRet: client.Session{AccessToken: "A", RefreshToken: "R", Role: "admin"}}
	svc := NewAuthService(fc, db)
	ctx := context.Background()

	op, err := svc.Login(ctx, "admin@rlife.com", []byte("admin123"))
	require.NoError(t, err)
	assert.Equal(t, Operator{Email: "admin@rlife.com", Role: "admin"}, op)
	assert.True(t, op.IsAdmin())
	assert.Equal(t, "admin123", fc.LastLoginPassword)

	values, err := metadata.NewSQLiteRepository(db).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", values[metadata.KeyAccessToken])
	assert.Equal(t, "R", values[metadata.KeyRefreshToken])
	assert.Equal(t, "admin@rlife.com", values[metadata.KeyUserEmail])
	assert.Equal(t, "admin", values[metadata.KeyUserRole])
}

func TestAuth_LoginErrorKeepsNothing(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{LoginErr: client.ErrUnauthorized}
	svc := NewAuthService(fc, db)
	ctx := context.Background()

	_, err := svc.Login(ctx, "u", []byte("p"))
	require.ErrorIs(t, err, client.ErrUnauthorized)

	values, err := metadata.NewSQLiteRepository(db).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestAuth_RestoreAndLogout(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{LoginRet: client.Session{AccessToken: "A", RefreshToken: "R", Role: "scanner"}}
	ctx := context.Background()

	_, ok, err := NewAuthService(fc, db).Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewAuthService(fc, db).Login(ctx, "scanner@rlife.com", []byte("scanner123"))
	require.NoError(t, err)

	// a fresh process
	fresh := &fakeClient{}
	svc := NewAuthService(fresh, db)
	op, ok, err := svc.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Operator{Email: "scanner@rlife.com", Role: "scanner"}, op)
	assert.Equal(t, client.Session{AccessToken: "A", RefreshToken: "R", Role: "scanner"}, fresh.Session)

	require.NoError(t, metadata.NewSQLiteRepository(db).Set(ctx, metadata.KeyLastSync, "2026-05-20T09:00:00Z"))
	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, client.Session{}, fresh.Session)

	_, ok, err = svc.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = metadata.NewSQLiteRepository(db).Get(ctx, metadata.KeyLastSync)
	require.NoError(t, err)
	assert.True(t, ok, "logout keeps station state")
}

func TestAuth_SaveSession(t *testing.T) {
	db := setupDB(t)
	svc := NewAuthService(&fakeClient{}, db)
	ctx := context.Background()

	require.NoError(t, svc.SaveSession(ctx, client.Session{AccessToken: "A2", RefreshToken: "R2"}))

	v, ok, err := metadata.NewSQLiteRepository(db).Get(ctx, metadata.KeyRefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "R2", v)
}

func TestAuth_PingAndClose(t *testing.T) {
	fc := &fakeClient{PingErr: errors.New("down")}
	svc := NewAuthService(fc, setupDB(t))

	require.Error(t, svc.Ping(context.Background()))
	require.NoError(t, svc.Close(context.Background()))
	assert.True(t, fc.Closed)
}
