package repositories

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhub-tz/studyhub/internal/common"
	"github.com/studyhub-tz/studyhub/internal/models"
)

func TestProgressRepository_UpdateProgressCreatesRecord(t *testing.T) {
	local, rs, log := newTestEnv(t)
	ctx := context.Background()
	repo := NewProgressRepository(local, rs, log)

	p, err := repo.UpdateProgress(ctx, "u1", "math_o", func(p *models.UserProgress) {
		p.NotesRead++
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.NotesRead)
	assert.Equal(t, 1, p.StudyStreak)
	assert.NotEmpty(t, p.ID)

	got, err := repo.ProgressBySubject(ctx, "u1", "math_o")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.NotNil(t, rs.Document(models.CollectionUserProgress, p.ID))
}

func TestProgressRepository_StreakAdvancesDaily(t *testing.T) {
	local, rs, log := newTestEnv(t)
	ctx := context.Background()
	repo := NewProgressRepository(local, rs, log)

	day := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return day }

	bump := func(p *models.UserProgress) { p.NotesRead++ }

	// day 1
	p, err := repo.UpdateProgress(ctx, "u1", "math_o", bump)
	require.NoError(t, err)
	assert.Equal(t, 1, p.StudyStreak)

	// same day again: streak holds
	repo.now = func() time.Time { return day.Add(2 * time.Hour) }
	p, err = repo.UpdateProgress(ctx, "u1", "math_o", bump)
	require.NoError(t, err)
	assert.Equal(t, 1, p.StudyStreak)

	// next day: streak advances
	repo.now = func() time.Time { return day.Add(24 * time.Hour) }
	p, err = repo.UpdateProgress(ctx, "u1", "math_o", bump)
	require.NoError(t, err)
	assert.Equal(t, 2, p.StudyStreak)
	assert.Equal(t, 2, p.LongestStreak)

	// three days of silence: streak resets, longest survives
	repo.now = func() time.Time { return day.Add(4 * 24 * time.Hour) }
	p, err = repo.UpdateProgress(ctx, "u1", "math_o", bump)
	require.NoError(t, err)
	assert.Equal(t, 1, p.StudyStreak)
	assert.Equal(t, 2, p.LongestStreak)
}

func TestProgressRepository_UpdateProgressCorruptRowSurfaces(t *testing.T) {
	local, rs, log := newTestEnv(t)
	ctx := context.Background()
	repo := NewProgressRepository(local, rs, log)

	_, err := local.DB.ExecContext(ctx,
		`INSERT INTO user_progress (id, user_id, subject_id, doc) VALUES (?, ?, ?, ?)`,
		"pr1", "u1", "math_o", `not-json`)
	require.NoError(t, err)

	_, err = repo.UpdateProgress(ctx, "u1", "math_o", func(p *models.UserProgress) {
		p.NotesRead++
	})
	require.ErrorIs(t, err, common.ErrCorruptDocument)

	// the broken record must not be shadowed by a duplicate
	n, err := local.Progress.Count(ctx, "user_id = ? AND subject_id = ?", "u1", "math_o")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProgressRepository_StreakSpansDSTDays(t *testing.T) {
	local, rs, log := newTestEnv(t)
	ctx := context.Background()
	repo := NewProgressRepository(local, rs, log)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	bump := func(p *models.UserProgress) { p.NotesRead++ }

	// 2026-03-08 is a 23-hour day (DST starts), 2026-11-01 a 25-hour one
	repo.now = func() time.Time { return time.Date(2026, 3, 7, 20, 0, 0, 0, loc) }
	p, err := repo.UpdateProgress(ctx, "u1", "math_o", bump)
	require.NoError(t, err)
	assert.Equal(t, 1, p.StudyStreak)

	repo.now = func() time.Time { return time.Date(2026, 3, 8, 20, 0, 0, 0, loc) }
	p, err = repo.UpdateProgress(ctx, "u1", "math_o", bump)
	require.NoError(t, err)
	assert.Equal(t, 2, p.StudyStreak, "short DST day must still count as consecutive")

	repo.now = func() time.Time { return time.Date(2026, 10, 31, 20, 0, 0, 0, loc) }
	p, err = repo.UpdateProgress(ctx, "u1", "chemistry_o", bump)
	require.NoError(t, err)
	assert.Equal(t, 1, p.StudyStreak)

	repo.now = func() time.Time { return time.Date(2026, 11, 1, 20, 0, 0, 0, loc) }
	p, err = repo.UpdateProgress(ctx, "u1", "chemistry_o", bump)
	require.NoError(t, err)
	assert.Equal(t, 2, p.StudyStreak, "long DST day must still count as consecutive")
}

func TestProgressRepository_UpdateProgressRemoteFailureKeepsLocal(t *testing.T) {
	local, rs, log := newTestEnv(t)
	ctx := context.Background()
	repo := NewProgressRepository(local, rs, log)

	rs.FailWith = common.ErrRemoteFailure
	_, err := repo.UpdateProgress(ctx, "u1", "math_o", func(p *models.UserProgress) {
		p.QuizzesTaken++
	})
	require.ErrorIs(t, err, common.ErrRemoteFailure)

	got, err := repo.ProgressBySubject(ctx, "u1", "math_o")
	require.NoError(t, err)
	assert.Equal(t, 1, got.QuizzesTaken)
}

func TestProgressRepository_TopSubjects(t *testing.T) {
	local, rs, log := newTestEnv(t)
	ctx := context.Background()
	repo := NewProgressRepository(local, rs, log)

	records := []models.UserProgress{
		{ID: "pr1", UserID: "u1", SubjectID: "math_o", AverageScore: 72},
		{ID: "pr2", UserID: "u1", SubjectID: "physics_o", AverageScore: 91},
		{ID: "pr3", UserID: "u1", SubjectID: "chemistry_o", AverageScore: 55},
		{ID: "pr4", UserID: "u2", SubjectID: "math_o", AverageScore: 99},
	}
	require.NoError(t, local.Progress.UpsertAll(ctx, records))

	top, err := repo.TopSubjects(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "physics_o", top[0].SubjectID)
	assert.Equal(t, "math_o", top[1].SubjectID)
}

func TestProgressRepository_ProgressBySubjectMissing(t *testing.T) {
	local, rs, log := newTestEnv(t)
	repo := NewProgressRepository(local, rs, log)

	_, err := repo.ProgressBySubject(context.Background(), "u1", "math_o")
	require.ErrorIs(t, err, common.ErrNotFound)
}
