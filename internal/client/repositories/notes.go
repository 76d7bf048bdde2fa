package repositories

import (
	"context"
	"fmt"

	"github.com/studyhub-tz/studyhub/internal/client/localstore"
	"github.com/studyhub-tz/studyhub/internal/client/remote"
	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/models"
)

// NoteRepository caches study notes per subject.
type NoteRepository struct {
	local  *localstore.Store
	remote remote.Store
	log    logging.Logger
}

func NewNoteRepository(local *localstore.Store, rs remote.Store, log logging.Logger) *NoteRepository {
	return &NoteRepository{local: local, remote: rs, log: log.With("module", "notes")}
}

// NotesBySubject is a live query over the cache, ordered by note position.
func (r *NoteRepository) NotesBySubject(ctx context.Context, subjectID string) (<-chan []models.Note, error) {
	return r.local.Notes.Watch(ctx, "subject_id = ?", "position ASC", subjectID)
}

// NoteByID returns the cached note, or common.ErrNotFound.
func (r *NoteRepository) NoteByID(ctx context.Context, noteID string) (*models.Note, error) {
	return r.local.Notes.Get(ctx, noteID)
}

// BookmarkedNotes is a live query over all bookmarked notes, most
// recently updated first.
func (r *NoteRepository) BookmarkedNotes(ctx context.Context) (<-chan []models.Note, error) {
	return r.local.Notes.Watch(ctx, "is_bookmarked = 1", "updated_at DESC")
}

// PopularNotes returns the most-read cached notes.
func (r *NoteRepository) PopularNotes(ctx context.Context, limit int) ([]models.Note, error) {
	return r.local.Notes.Query(ctx, "", fmt.Sprintf("read_count DESC LIMIT %d", limit))
}

// Sync fetches all notes for a subject from the remote store and
// replaces them into the cache.
func (r *NoteRepository) Sync(ctx context.Context, subjectID string) error {
	return syncCollection(ctx, r.remote, r.log, models.CollectionNotes,
		&remote.Filter{Field: "subjectId", Value: subjectID}, r.local.Notes)
}

// ToggleBookmark flips the note's bookmark flag. Local-only: bookmarks
// are a device-level preference and are not mirrored to the remote store.
func (r *NoteRepository) ToggleBookmark(ctx context.Context, noteID string) error {
	_, err := r.local.Notes.Mutate(ctx, noteID, func(n *models.Note) {
		n.IsBookmarked = !n.IsBookmarked
	})
	return err
}

// IncrementReadCount bumps the note's read counter locally (atomically)
// and mirrors the new value to the remote document.
func (r *NoteRepository) IncrementReadCount(ctx context.Context, noteID string) error {
	count, err := r.local.Notes.IncrementField(ctx, noteID, "readCount", "read_count")
	if err != nil {
		return err
	}
	if err := r.remote.UpdateField(ctx, models.CollectionNotes, noteID, "readCount", count); err != nil {
		return fmt.Errorf("read count saved locally, remote update failed: %w", err)
	}
	return nil
}
