// Package services contains application services for the StudyHub client.
// This file defines the authentication service: register, login, logout,
// liveness probe, and housekeeping of the locally cached account.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studyhub-tz/studyhub/internal/client/localstore"
	"github.com/studyhub-tz/studyhub/internal/client/remote"
	"github.com/studyhub-tz/studyhub/internal/common"
	"github.com/studyhub-tz/studyhub/internal/models"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create a new account on the server.
//   - Login: authenticate against the server and cache the account locally.
//   - CurrentUser: return the locally cached account, common.ErrNotFound
//     when nobody has logged in on this device.
//   - Logout: wipe the locally cached account.
//   - Ping: check server liveness.
//   - Close: release underlying client resources.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, req remote.RegisterRequest) (string, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by the remote store and
// the local cache. One account per device: login replaces whatever
// account was cached before.
type authService struct {
	remote remote.Store
	local  *localstore.Store
}

// NewAuthService constructs an AuthService bound to the given stores.
func NewAuthService(rs remote.Store, local *localstore.Store) AuthService {
	return &authService{remote: rs, local: local}
}

// Register creates a new account on the server. The server assigns the
// user id; nothing is cached until the first login.
func (a *authService) Register(ctx context.Context, req remote.RegisterRequest) (string, error) {
	return a.remote.Register(ctx, req)
}

// Login authenticates against the server and caches the returned account
// document, replacing any previously cached account.
func (a *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	doc, err := a.remote.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	var u models.User
	if err := json.Unmarshal(doc, &u); err != nil {
		return nil, fmt.Errorf("%w: user: %v", common.ErrCorruptDocument, err)
	}
	u.LastLoginAt = time.Now().UnixMilli()

	if err := a.local.Users.DeleteWhere(ctx, "id != ?", u.ID); err != nil {
		return nil, err
	}
	if err := a.local.Users.Upsert(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// CurrentUser returns the account cached by the last login.
func (a *authService) CurrentUser(ctx context.Context) (*models.User, error) {
	users, err := a.local.Users.Query(ctx, "", "updated_at DESC")
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, common.ErrNotFound
	}
	return &users[0], nil
}

// Logout wipes the locally cached account (e.g. on a shared computer).
func (a *authService) Logout(ctx context.Context) error {
	return a.local.Users.DeleteWhere(ctx, "1 = 1")
}

// Ping proxies a liveness check to the underlying remote store.
func (a *authService) Ping(ctx context.Context) error {
	return a.remote.Ping(ctx)
}

// Close releases resources held by the underlying remote store.
func (a *authService) Close(ctx context.Context) error {
	return a.remote.Close()
}
