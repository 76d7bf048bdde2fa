package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/studyhub-tz/studyhub/internal/common"
	"github.com/studyhub-tz/studyhub/internal/server/users"
)

type ctxKey int

const userIDKey ctxKey = 0

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// authMiddleware validates the bearer token and stores the user id in
// the request context. An expired token gets a distinct error body so
// clients know to refresh rather than re-login.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AccessTokenHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := s.users.Authenticate(token)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				respondError(w, http.StatusUnauthorized, common.ErrTokenExpired.Error())
			} else {
				respondError(w, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

type registerRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	DisplayName    string `json:"displayName" validate:"required"`
	EducationLevel string `json:"educationLevel" validate:"omitempty,oneof=O_LEVEL A_LEVEL"`
	FormClass      int    `json:"formClass" validate:"omitempty,min=1,max=6"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.users.Register(r.Context(), users.RegisterRequest{
		Email:          req.Email,
		Password:       req.Password,
		DisplayName:    req.DisplayName,
		EducationLevel: req.EducationLevel,
		FormClass:      req.FormClass,
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		s.log.Error(r.Context(), "register failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	userDoc, pair, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.log.Error(r.Context(), "login failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"user":         userDoc,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := s.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidToken):
			respondError(w, http.StatusUnauthorized, "invalid refresh token")
		case errors.Is(err, common.ErrRefreshTokenExpired):
			respondError(w, http.StatusUnauthorized, common.ErrRefreshTokenExpired.Error())
		default:
			s.log.Error(r.Context(), "refresh failed", "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}
