// Package remote talks to the StudyHub backend, the system of record.
// One logical collection per entity type, documents are schema-free JSON
// whose id field matches the entity's primary identifier.
package remote

import (
	"context"
	"encoding/json"
)

// Filter is an optional equality filter on a single document field,
// e.g. {Field: "subjectId", Value: "math_o"}.
type Filter struct {
	Field string
	Value string
}

// TokenPair is the access/refresh token pair returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterRequest carries the fields needed to create an account.
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	DisplayName    string `json:"displayName"`
	EducationLevel string `json:"educationLevel"`
	FormClass      int    `json:"formClass"`
}

// Store is the remote document-store client. All failures are wrapped
// into common.ErrRemoteFailure (or common.ErrUnauthorized /
// common.ErrNotFound where the server is explicit about it).
type Store interface {
	Close() error

	// Register creates an account. The server assigns the user id.
	Register(ctx context.Context, req RegisterRequest) (string, error)
	// Login authenticates and stores the token pair for later calls.
	// Returns the authenticated user's document.
	Login(ctx context.Context, email, password string) (json.RawMessage, error)
	// Ping probes server reachability.
	Ping(ctx context.Context) error

	// FetchAll returns every document in the collection matching the
	// optional equality filter.
	FetchAll(ctx context.Context, collection string, filter *Filter) ([]json.RawMessage, error)
	// UpsertOne fully replaces the document with the given id.
	UpsertOne(ctx context.Context, collection, id string, doc any) error
	// UpdateField patches a single top-level field of a document, used
	// for counters that must stay consistent between the two stores
	// without re-sending the whole document.
	UpdateField(ctx context.Context, collection, id, field string, value any) error

	// PaperDownloadURL resolves a past paper to a short-lived presigned
	// download URL.
	PaperDownloadURL(ctx context.Context, paperID string) (string, error)
}
