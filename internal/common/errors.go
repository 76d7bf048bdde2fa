// Package common contains shared constants and sentinel errors used across
// client and server layers of StudyHub. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound        = errors.New("not found")
	ErrCorruptDocument = errors.New("corrupt document")

	// Remote store errors. Any network, permission or decoding failure on
	// the remote boundary is wrapped into ErrRemoteFailure.
	ErrRemoteFailure = errors.New("remote store failure")

	// Service-level errors.
	ErrInternal      = errors.New("internal error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyExists = errors.New("already exists")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
