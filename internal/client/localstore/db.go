// Package localstore is the on-device cache: one SQLite table per entity
// type, each row holding the full entity as a JSON document plus a few
// mirror columns for filtering. It is the source of truth for what the
// client renders at any instant, independent of connectivity.
package localstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/studyhub-tz/studyhub/internal/client/localstore/migrations"
	"github.com/studyhub-tz/studyhub/internal/models"
)

// Store bundles the shared database handle, the change hub and the cache
// table for every entity type. It is constructed once by the composition
// root and passed to repositories by reference.
type Store struct {
	DB  *sql.DB
	Hub *Hub

	Subjects      *Table[models.Subject]
	Notes         *Table[models.Note]
	Quizzes       *Table[models.Quiz]
	PastPapers    *Table[models.PastPaper]
	Progress      *Table[models.UserProgress]
	QuizAttempts  *Table[models.QuizAttempt]
	PaperAttempts *Table[models.PastPaperAttempt]
	Sessions      *Table[models.StudySession]
	Achievements  *Table[models.Achievement]
	Users         *Table[models.User]
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (or creates) the cache database at dsn, migrates the schema
// and wires up all cache tables.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	return NewStore(db), nil
}

// NewStore wires cache tables over an already-migrated database handle.
// Split from Open so tests can use in-memory databases directly.
func NewStore(db *sql.DB) *Store {
	hub := NewHub()

	return &Store{
		DB:  db,
		Hub: hub,

		Subjects: NewTable(db, hub, Schema[models.Subject]{
			Table:   "subjects",
			ID:      func(s *models.Subject) string { return s.ID },
			Columns: []string{"level", "is_popular", "position", "updated_at"},
			Values: func(s *models.Subject) []any {
				return []any{string(s.Level), s.IsPopular, s.Order, s.UpdatedAt}
			},
		}),

		Notes: NewTable(db, hub, Schema[models.Note]{
			Table:   "notes",
			ID:      func(n *models.Note) string { return n.ID },
			Columns: []string{"subject_id", "is_bookmarked", "read_count", "position", "updated_at"},
			Values: func(n *models.Note) []any {
				return []any{n.SubjectID, n.IsBookmarked, n.ReadCount, n.Order, n.UpdatedAt}
			},
		}),

		Quizzes: NewTable(db, hub, Schema[models.Quiz]{
			Table:   "quizzes",
			ID:      func(q *models.Quiz) string { return q.ID },
			Columns: []string{"subject_id", "quiz_type", "attempt_count", "updated_at"},
			Values: func(q *models.Quiz) []any {
				return []any{q.SubjectID, string(q.QuizType), q.AttemptCount, q.UpdatedAt}
			},
		}),

		PastPapers: NewTable(db, hub, Schema[models.PastPaper]{
			Table:   "past_papers",
			ID:      func(p *models.PastPaper) string { return p.ID },
			Columns: []string{"subject_id", "year", "is_bookmarked", "download_count", "updated_at"},
			Values: func(p *models.PastPaper) []any {
				return []any{p.SubjectID, p.Year, p.IsBookmarked, p.DownloadCount, p.UpdatedAt}
			},
		}),

		Progress: NewTable(db, hub, Schema[models.UserProgress]{
			Table:   "user_progress",
			ID:      func(p *models.UserProgress) string { return p.ID },
			Columns: []string{"user_id", "subject_id", "average_score", "updated_at"},
			Values: func(p *models.UserProgress) []any {
				return []any{p.UserID, p.SubjectID, p.AverageScore, p.UpdatedAt}
			},
		}),

		QuizAttempts: NewTable(db, hub, Schema[models.QuizAttempt]{
			Table:   "quiz_attempts",
			ID:      func(a *models.QuizAttempt) string { return a.ID },
			Columns: []string{"user_id", "quiz_id", "subject_id", "score", "completed_at"},
			Values: func(a *models.QuizAttempt) []any {
				return []any{a.UserID, a.QuizID, a.SubjectID, a.Score, a.CompletedAt}
			},
		}),

		PaperAttempts: NewTable(db, hub, Schema[models.PastPaperAttempt]{
			Table:   "past_paper_attempts",
			ID:      func(a *models.PastPaperAttempt) string { return a.ID },
			Columns: []string{"user_id", "paper_id", "subject_id", "score", "completed_at"},
			Values: func(a *models.PastPaperAttempt) []any {
				return []any{a.UserID, a.PaperID, a.SubjectID, a.Score, a.CompletedAt}
			},
		}),

		Sessions: NewTable(db, hub, Schema[models.StudySession]{
			Table:   "study_sessions",
			ID:      func(s *models.StudySession) string { return s.ID },
			Columns: []string{"user_id", "subject_id", "activity_type", "duration", "start_time"},
			Values: func(s *models.StudySession) []any {
				return []any{s.UserID, s.SubjectID, string(s.ActivityType), s.Duration, s.StartTime}
			},
		}),

		Achievements: NewTable(db, hub, Schema[models.Achievement]{
			Table:   "achievements",
			ID:      func(a *models.Achievement) string { return a.ID },
			Columns: []string{"type", "is_unlocked"},
			Values: func(a *models.Achievement) []any {
				return []any{string(a.Type), a.IsUnlocked}
			},
		}),

		Users: NewTable(db, hub, Schema[models.User]{
			Table:   "users",
			ID:      func(u *models.User) string { return u.ID },
			Columns: []string{"email", "updated_at"},
			Values: func(u *models.User) []any {
				return []any{u.Email, u.UpdatedAt}
			},
		}),
	}
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}
