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

// QuizRepository caches quizzes and their attempts, and maintains the
// per-quiz attempt statistics.
type QuizRepository struct {
	local  *localstore.Store
	remote remote.Store
	log    logging.Logger
}

func NewQuizRepository(local *localstore.Store, rs remote.Store, log logging.Logger) *QuizRepository {
	return &QuizRepository{local: local, remote: rs, log: log.With("module", "quizzes")}
}

// QuizzesBySubject is a live query over cached quizzes for a subject.
func (r *QuizRepository) QuizzesBySubject(ctx context.Context, subjectID string) (<-chan []models.Quiz, error) {
	return r.local.Quizzes.Watch(ctx, "subject_id = ?", "updated_at DESC", subjectID)
}

// QuizzesByType is a live query filtered to one quiz type.
func (r *QuizRepository) QuizzesByType(ctx context.Context, quizType models.QuizType) (<-chan []models.Quiz, error) {
	return r.local.Quizzes.Watch(ctx, "quiz_type = ?", "updated_at DESC", string(quizType))
}

// PopularQuizzes returns the most-attempted cached quizzes.
func (r *QuizRepository) PopularQuizzes(ctx context.Context, limit int) ([]models.Quiz, error) {
	return r.local.Quizzes.Query(ctx, "", fmt.Sprintf("attempt_count DESC LIMIT %d", limit))
}

// QuizByID returns the cached quiz, or common.ErrNotFound.
func (r *QuizRepository) QuizByID(ctx context.Context, quizID string) (*models.Quiz, error) {
	return r.local.Quizzes.Get(ctx, quizID)
}

// Sync fetches all quizzes for a subject and replaces them into the cache.
func (r *QuizRepository) Sync(ctx context.Context, subjectID string) error {
	return syncCollection(ctx, r.remote, r.log, models.CollectionQuizzes,
		&remote.Filter{Field: "subjectId", Value: subjectID}, r.local.Quizzes)
}

// SyncAttempts pulls the user's quiz attempts.
func (r *QuizRepository) SyncAttempts(ctx context.Context, userID string) error {
	return syncCollection(ctx, r.remote, r.log, models.CollectionQuizAttempts,
		&remote.Filter{Field: "userId", Value: userID}, r.local.QuizAttempts)
}

// AttemptsByUser is a live query over the user's attempts, newest first.
func (r *QuizRepository) AttemptsByUser(ctx context.Context, userID string) (<-chan []models.QuizAttempt, error) {
	return r.local.QuizAttempts.Watch(ctx, "user_id = ?", "completed_at DESC", userID)
}

// AttemptsByQuiz is a live query over one user's attempts at one quiz.
func (r *QuizRepository) AttemptsByQuiz(ctx context.Context, userID, quizID string) (<-chan []models.QuizAttempt, error) {
	return r.local.QuizAttempts.Watch(ctx, "user_id = ? AND quiz_id = ?", "completed_at DESC", userID, quizID)
}

// AverageScoreBySubject averages the user's attempt scores in a subject.
func (r *QuizRepository) AverageScoreBySubject(ctx context.Context, userID, subjectID string) (float64, error) {
	avg, _, err := r.local.QuizAttempts.Avg(ctx, "score", "user_id = ? AND subject_id = ?", userID, subjectID)
	return avg, err
}

// RecordAttempt stores a completed attempt, pushes it to the remote
// store, then recomputes the quiz's attempt count and average score from
// every attempt this user has made at the quiz. The average is computed
// over the full attempt set, so repeated submissions cannot drift it.
// Requires the quiz to be cached; returns common.ErrNotFound otherwise.
func (r *QuizRepository) RecordAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	quiz, err := r.local.Quizzes.Get(ctx, attempt.QuizID)
	if err != nil {
		return err
	}

	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	attempt.SubjectID = quiz.SubjectID

	if err := r.local.QuizAttempts.Upsert(ctx, attempt); err != nil {
		return err
	}
	if err := r.remote.UpsertOne(ctx, models.CollectionQuizAttempts, attempt.ID, attempt); err != nil {
		return fmt.Errorf("attempt saved locally, remote push failed: %w", err)
	}

	avg, count, err := r.local.QuizAttempts.Avg(ctx, "score",
		"user_id = ? AND quiz_id = ?", attempt.UserID, attempt.QuizID)
	if err != nil {
		return err
	}

	if _, err := r.local.Quizzes.Mutate(ctx, attempt.QuizID, func(q *models.Quiz) {
		q.AttemptCount = count
		q.AverageScore = avg
	}); err != nil {
		return err
	}

	if err := r.remote.UpdateField(ctx, models.CollectionQuizzes, attempt.QuizID, "attemptCount", count); err != nil {
		return fmt.Errorf("quiz stats saved locally, remote update failed: %w", err)
	}
	if err := r.remote.UpdateField(ctx, models.CollectionQuizzes, attempt.QuizID, "averageScore", avg); err != nil {
		return fmt.Errorf("quiz stats saved locally, remote update failed: %w", err)
	}
	return nil
}
