// Package store is the server's system of record: named collections of
// schema-free JSON documents keyed by id. Two backends exist, an
// in-memory one for tests and development and a PostgreSQL one for
// production.
package store

import (
	"context"
	"encoding/json"
)

// Filter is an optional equality filter on a single top-level document
// field.
type Filter struct {
	Field string
	Value string
}

// DocumentStore is the storage contract shared by all backends.
// Implementations must be safe for concurrent use.
type DocumentStore interface {
	Close() error

	// FetchAll returns every document in the collection matching the
	// optional filter. Order is unspecified.
	FetchAll(ctx context.Context, collection string, filter *Filter) ([]json.RawMessage, error)
	// Get returns the document with the given id, or common.ErrNotFound.
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	// Upsert fully replaces the document with the given id.
	Upsert(ctx context.Context, collection, id string, doc json.RawMessage) error
	// UpdateField patches a single top-level field of an existing
	// document. Returns common.ErrNotFound for unknown ids.
	UpdateField(ctx context.Context, collection, id, field string, value any) error
	// Delete removes the document. Missing documents are not an error.
	Delete(ctx context.Context, collection, id string) error
}
