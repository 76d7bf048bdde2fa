package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/studyhub-tz/studyhub/internal/client/localstore"
	"github.com/studyhub-tz/studyhub/internal/client/remote"
	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/models"
)

// SessionRepository tracks spans of study activity.
type SessionRepository struct {
	local  *localstore.Store
	remote remote.Store
	log    logging.Logger

	now func() time.Time
}

func NewSessionRepository(local *localstore.Store, rs remote.Store, log logging.Logger) *SessionRepository {
	return &SessionRepository{
		local:  local,
		remote: rs,
		log:    log.With("module", "sessions"),
		now:    time.Now,
	}
}

// Start opens a new session for the given activity and returns its id.
// The session exists only locally until End pushes the completed span.
func (r *SessionRepository) Start(ctx context.Context, userID, subjectID, contentID string, activity models.StudyActivityType) (string, error) {
	s := &models.StudySession{
		ID:           uuid.NewString(),
		UserID:       userID,
		SubjectID:    subjectID,
		ContentID:    contentID,
		ActivityType: activity,
		StartTime:    r.now().UnixMilli(),
	}
	if err := r.local.Sessions.Upsert(ctx, s); err != nil {
		return "", err
	}
	return s.ID, nil
}

// End closes the session, computes its duration and mirrors the
// completed span to the remote store.
// Returns common.ErrNotFound if the session was never started here.
func (r *SessionRepository) End(ctx context.Context, sessionID string) (*models.StudySession, error) {
	end := r.now().UnixMilli()
	s, err := r.local.Sessions.Mutate(ctx, sessionID, func(s *models.StudySession) {
		s.EndTime = end
		s.Duration = end - s.StartTime
		s.IsCompleted = true
	})
	if err != nil {
		return nil, err
	}
	if err := r.remote.UpsertOne(ctx, models.CollectionStudySessions, s.ID, s); err != nil {
		return s, fmt.Errorf("session saved locally, remote push failed: %w", err)
	}
	return s, nil
}

// SessionsByUser is a live query over the user's sessions, newest first.
func (r *SessionRepository) SessionsByUser(ctx context.Context, userID string) (<-chan []models.StudySession, error) {
	return r.local.Sessions.Watch(ctx, "user_id = ?", "start_time DESC", userID)
}

// StudyTimeBySubject sums the user's completed study time in one
// subject, in milliseconds.
func (r *SessionRepository) StudyTimeBySubject(ctx context.Context, userID, subjectID string) (int64, error) {
	return r.local.Sessions.SumInt(ctx, "duration", "user_id = ? AND subject_id = ?", userID, subjectID)
}

// Sync pulls the user's sessions from the remote store.
func (r *SessionRepository) Sync(ctx context.Context, userID string) error {
	return syncCollection(ctx, r.remote, r.log, models.CollectionStudySessions,
		&remote.Filter{Field: "userId", Value: userID}, r.local.Sessions)
}
