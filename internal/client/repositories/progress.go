package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/studyhub-tz/studyhub/internal/client/localstore"
	"github.com/studyhub-tz/studyhub/internal/client/remote"
	"github.com/studyhub-tz/studyhub/internal/common"
	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/models"
)

// ProgressRepository caches per-subject progress records and keeps the
// study streak up to date.
type ProgressRepository struct {
	local  *localstore.Store
	remote remote.Store
	log    logging.Logger

	// now is swapped out by streak tests.
	now func() time.Time
}

func NewProgressRepository(local *localstore.Store, rs remote.Store, log logging.Logger) *ProgressRepository {
	return &ProgressRepository{
		local:  local,
		remote: rs,
		log:    log.With("module", "progress"),
		now:    time.Now,
	}
}

// ProgressByUser is a live query over all of a user's progress records.
func (r *ProgressRepository) ProgressByUser(ctx context.Context, userID string) (<-chan []models.UserProgress, error) {
	return r.local.Progress.Watch(ctx, "user_id = ?", "updated_at DESC", userID)
}

// ProgressBySubject returns the user's progress in one subject, or
// common.ErrNotFound if no record is cached yet.
func (r *ProgressRepository) ProgressBySubject(ctx context.Context, userID, subjectID string) (*models.UserProgress, error) {
	records, err := r.local.Progress.Query(ctx, "user_id = ? AND subject_id = ?", "", userID, subjectID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("progress for subject %s: %w", subjectID, common.ErrNotFound)
	}
	return &records[0], nil
}

// TopSubjects returns the user's strongest subjects by average score.
func (r *ProgressRepository) TopSubjects(ctx context.Context, userID string, limit int) ([]models.UserProgress, error) {
	return r.local.Progress.Query(ctx, "user_id = ?",
		fmt.Sprintf("average_score DESC LIMIT %d", limit), userID)
}

// TotalStudyTime sums the user's study time across subjects, in
// milliseconds.
func (r *ProgressRepository) TotalStudyTime(ctx context.Context, userID string) (int64, error) {
	return r.local.Sessions.SumInt(ctx, "duration", "user_id = ?", userID)
}

// Sync pulls all of the user's progress records.
func (r *ProgressRepository) Sync(ctx context.Context, userID string) error {
	return syncCollection(ctx, r.remote, r.log, models.CollectionUserProgress,
		&remote.Filter{Field: "userId", Value: userID}, r.local.Progress)
}

// UpdateProgress folds a finished study activity into the user's
// per-subject record, creating it on first use, and mirrors the whole
// record to the remote store. The study streak advances when the last
// study day was yesterday, resets when it is older, and holds when the
// user already studied today.
func (r *ProgressRepository) UpdateProgress(ctx context.Context, userID, subjectID string, apply func(*models.UserProgress)) (*models.UserProgress, error) {
	now := r.now()

	p, err := r.ProgressBySubject(ctx, userID, subjectID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		p = &models.UserProgress{
			ID:        uuid.NewString(),
			UserID:    userID,
			SubjectID: subjectID,
		}
	case err != nil:
		// corrupt blobs and DB failures must not fork a duplicate record
		return nil, err
	}

	apply(p)
	r.advanceStreak(p, now)
	p.LastStudyDate = now.UnixMilli()
	p.UpdatedAt = now.UnixMilli()

	if err := r.local.Progress.Upsert(ctx, p); err != nil {
		return nil, err
	}
	if err := r.remote.UpsertOne(ctx, models.CollectionUserProgress, p.ID, p); err != nil {
		return p, fmt.Errorf("progress saved locally, remote push failed: %w", err)
	}
	return p, nil
}

func (r *ProgressRepository) advanceStreak(p *models.UserProgress, now time.Time) {
	// calendar days, not 24h spans: DST days are 23 or 25 hours long
	today := dayStart(now)
	last := dayStart(time.UnixMilli(p.LastStudyDate))

	switch {
	case p.LastStudyDate == 0:
		p.StudyStreak = 1
	case last.Equal(today):
		// already studied today, streak holds
	case last.AddDate(0, 0, 1).Equal(today):
		p.StudyStreak++
	default:
		p.StudyStreak = 1
	}
	if p.StudyStreak > p.LongestStreak {
		p.LongestStreak = p.StudyStreak
	}
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
