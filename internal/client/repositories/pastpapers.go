package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/studyhub-tz/studyhub/internal/client/localstore"
	"github.com/studyhub-tz/studyhub/internal/client/remote"
	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/models"
)

// PastPaperRepository caches NECTA past papers and their practice attempts.
type PastPaperRepository struct {
	local  *localstore.Store
	remote remote.Store
	log    logging.Logger
}

func NewPastPaperRepository(local *localstore.Store, rs remote.Store, log logging.Logger) *PastPaperRepository {
	return &PastPaperRepository{local: local, remote: rs, log: log.With("module", "pastpapers")}
}

// PapersBySubject is a live query over cached papers, newest year first.
func (r *PastPaperRepository) PapersBySubject(ctx context.Context, subjectID string) (<-chan []models.PastPaper, error) {
	return r.local.PastPapers.Watch(ctx, "subject_id = ?", "year DESC", subjectID)
}

// PapersByYear is a live query over one subject's papers for one year.
func (r *PastPaperRepository) PapersByYear(ctx context.Context, subjectID string, year int) (<-chan []models.PastPaper, error) {
	return r.local.PastPapers.Watch(ctx, "subject_id = ? AND year = ?", "updated_at DESC", subjectID, year)
}

// BookmarkedPapers is a live query over all bookmarked papers.
func (r *PastPaperRepository) BookmarkedPapers(ctx context.Context) (<-chan []models.PastPaper, error) {
	return r.local.PastPapers.Watch(ctx, "is_bookmarked = 1", "year DESC")
}

// PaperByID returns the cached paper, or common.ErrNotFound.
func (r *PastPaperRepository) PaperByID(ctx context.Context, paperID string) (*models.PastPaper, error) {
	return r.local.PastPapers.Get(ctx, paperID)
}

// AvailableYears returns the distinct years cached for a subject, newest
// first.
func (r *PastPaperRepository) AvailableYears(ctx context.Context, subjectID string) ([]int, error) {
	papers, err := r.local.PastPapers.Query(ctx, "subject_id = ?", "year DESC", subjectID)
	if err != nil {
		return nil, err
	}
	var years []int
	seen := make(map[int]bool)
	for _, p := range papers {
		if !seen[p.Year] {
			seen[p.Year] = true
			years = append(years, p.Year)
		}
	}
	return years, nil
}

// Sync fetches all papers for a subject and replaces them into the cache.
func (r *PastPaperRepository) Sync(ctx context.Context, subjectID string) error {
	return syncCollection(ctx, r.remote, r.log, models.CollectionPastPapers,
		&remote.Filter{Field: "subjectId", Value: subjectID}, r.local.PastPapers)
}

// SyncAttempts pulls the user's past-paper attempts.
func (r *PastPaperRepository) SyncAttempts(ctx context.Context, userID string) error {
	return syncCollection(ctx, r.remote, r.log, models.CollectionPastPaperAttempts,
		&remote.Filter{Field: "userId", Value: userID}, r.local.PaperAttempts)
}

// ToggleBookmark flips the paper's bookmark flag. Local-only, like note
// bookmarks.
func (r *PastPaperRepository) ToggleBookmark(ctx context.Context, paperID string) error {
	_, err := r.local.PastPapers.Mutate(ctx, paperID, func(p *models.PastPaper) {
		p.IsBookmarked = !p.IsBookmarked
	})
	return err
}

// IncrementDownloadCount bumps the paper's download counter locally
// (atomically) and mirrors the new value to the remote document.
func (r *PastPaperRepository) IncrementDownloadCount(ctx context.Context, paperID string) error {
	count, err := r.local.PastPapers.IncrementField(ctx, paperID, "downloadCount", "download_count")
	if err != nil {
		return err
	}
	if err := r.remote.UpdateField(ctx, models.CollectionPastPapers, paperID, "downloadCount", count); err != nil {
		return fmt.Errorf("download count saved locally, remote update failed: %w", err)
	}
	return nil
}

// DownloadURL asks the server for a short-lived presigned URL for the
// paper's PDF.
func (r *PastPaperRepository) DownloadURL(ctx context.Context, paperID string) (string, error) {
	return r.remote.PaperDownloadURL(ctx, paperID)
}

// RecordAttempt stores a completed practice run, pushes it to the remote
// store, then recomputes the paper's attempt count and average score from
// every attempt this user has made at the paper.
// Requires the paper to be cached; returns common.ErrNotFound otherwise.
func (r *PastPaperRepository) RecordAttempt(ctx context.Context, attempt *models.PastPaperAttempt) error {
	paper, err := r.local.PastPapers.Get(ctx, attempt.PaperID)
	if err != nil {
		return err
	}

	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	attempt.SubjectID = paper.SubjectID

	if err := r.local.PaperAttempts.Upsert(ctx, attempt); err != nil {
		return err
	}
	if err := r.remote.UpsertOne(ctx, models.CollectionPastPaperAttempts, attempt.ID, attempt); err != nil {
		return fmt.Errorf("attempt saved locally, remote push failed: %w", err)
	}

	avg, count, err := r.local.PaperAttempts.Avg(ctx, "score",
		"user_id = ? AND paper_id = ?", attempt.UserID, attempt.PaperID)
	if err != nil {
		return err
	}

	if _, err := r.local.PastPapers.Mutate(ctx, attempt.PaperID, func(p *models.PastPaper) {
		p.AttemptCount = count
		p.AverageScore = avg
	}); err != nil {
		return err
	}

	if err := r.remote.UpdateField(ctx, models.CollectionPastPapers, attempt.PaperID, "attemptCount", count); err != nil {
		return fmt.Errorf("paper stats saved locally, remote update failed: %w", err)
	}
	if err := r.remote.UpdateField(ctx, models.CollectionPastPapers, attempt.PaperID, "averageScore", avg); err != nil {
		return fmt.Errorf("paper stats saved locally, remote update failed: %w", err)
	}
	return nil
}
