// Package users implements account management on the server: password
// hashing, login, and the access/refresh token lifecycle.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/studyhub-tz/studyhub/internal/common"
	"github.com/studyhub-tz/studyhub/internal/models"
	"github.com/studyhub-tz/studyhub/internal/server/auth"
	"github.com/studyhub-tz/studyhub/internal/server/config"
	"github.com/studyhub-tz/studyhub/internal/server/store"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	store                        store.DocumentStore
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration

	now func() time.Time
}

func NewService(st store.DocumentStore, cfg *config.Config) *Service {
	return &Service{
		store:                        st,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

func (s *Service) findByEmail(ctx context.Context, email string) (*models.User, error) {
	docs, err := s.store.FetchAll(ctx, models.CollectionUsers, &store.Filter{Field: "email", Value: email})
	if err != nil {
		return nil, common.ErrInternal
	}
	if len(docs) == 0 {
		return nil, common.ErrNotFound
	}
	var u models.User
	if err := json.Unmarshal(docs[0], &u); err != nil {
		return nil, common.ErrInternal
	}
	return &u, nil
}

// Register creates a new account. The email must be unused.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (string, error) {
	if _, err := s.findByEmail(ctx, req.Email); err == nil {
		return "", fmt.Errorf("email: %w", common.ErrAlreadyExists)
	} else if !errors.Is(err, common.ErrNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", common.ErrInternal
	}

	now := s.now().UnixMilli()
	user := models.User{
		ID:                uuid.NewString(),
		Email:             req.Email,
		DisplayName:       req.DisplayName,
		PasswordHash:      string(hash),
		EducationLevel:    models.EducationLevel(req.EducationLevel),
		FormClass:         req.FormClass,
		PreferredLanguage: "sw",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	doc, err := json.Marshal(user)
	if err != nil {
		return "", common.ErrInternal
	}
	if err := s.store.Upsert(ctx, models.CollectionUsers, user.ID, doc); err != nil {
		return "", common.ErrInternal
	}
	return user.ID, nil
}

// Login verifies the password and issues a token pair. The returned
// document is the account without its password hash.
func (s *Service) Login(ctx context.Context, email, password string) (json.RawMessage, *TokenPair, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrUnauthorized
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, common.ErrUnauthorized
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	user.PasswordHash = ""
	doc, err := json.Marshal(user)
	if err != nil {
		return nil, nil, common.ErrInternal
	}
	return doc, pair, nil
}

// Refresh exchanges a refresh token for a fresh pair. Tokens are single
// use: the presented token is invalidated even when it has expired.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	doc, err := s.store.Get(ctx, models.CollectionRefreshTokens, refreshToken)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	var rt RefreshToken
	if err := json.Unmarshal(doc, &rt); err != nil {
		return nil, common.ErrInternal
	}

	if err := s.store.Delete(ctx, models.CollectionRefreshTokens, refreshToken); err != nil {
		return nil, common.ErrInternal
	}

	if s.now().UnixMilli() > rt.ExpiresAt {
		return nil, common.ErrRefreshTokenExpired
	}

	return s.issueTokens(ctx, rt.UserID)
}

// Authenticate validates an access token and returns the user id.
func (s *Service) Authenticate(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

func (s *Service) issueTokens(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrInternal
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrInternal
	}

	rt := RefreshToken{
		Token:     refreshToken,
		UserID:    userID,
		ExpiresAt: s.now().Add(s.refreshTokenValidityDuration).UnixMilli(),
	}
	doc, err := json.Marshal(rt)
	if err != nil {
		return nil, common.ErrInternal
	}
	if err := s.store.Upsert(ctx, models.CollectionRefreshTokens, rt.Token, doc); err != nil {
		return nil, common.ErrInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
