package repositories

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studyhub-tz/studyhub/internal/client/remote"
	"github.com/studyhub-tz/studyhub/internal/common"
	"github.com/studyhub-tz/studyhub/internal/models"
)

func seedPapers(t *testing.T, repo *PastPaperRepository, rs *remote.MemoryStore) {
	t.Helper()
	papers := []models.PastPaper{
		{ID: "p1", SubjectID: "math_o", Title: "Mathematics 2023", Year: 2023, ExamType: models.ExamNECTA},
		{ID: "p2", SubjectID: "math_o", Title: "Mathematics 2021", Year: 2021, ExamType: models.ExamNECTA},
		{ID: "p3", SubjectID: "math_o", Title: "Mathematics 2021 Mock", Year: 2021, ExamType: models.ExamMock},
	}
	for _, p := range papers {
		require.NoError(t, rs.Seed(models.CollectionPastPapers, p.ID, p))
	}
	require.NoError(t, repo.Sync(context.Background(), "math_o"))
}

func TestPastPaperRepository_AvailableYears(t *testing.T) {
	local, rs, log := newTestEnv(t)
	repo := NewPastPaperRepository(local, rs, log)
	seedPapers(t, repo, rs)

	years, err := repo.AvailableYears(context.Background(), "math_o")
	require.NoError(t, err)
	assert.Equal(t, []int{2023, 2021}, years)
}

func TestPastPaperRepository_IncrementDownloadCount(t *testing.T) {
	local, rs, log := newTestEnv(t)
	ctx := context.Background()
	repo := NewPastPaperRepository(local, rs, log)
	seedPapers(t, repo, rs)

	require.NoError(t, repo.IncrementDownloadCount(ctx, "p1"))
	require.NoError(t, repo.IncrementDownloadCount(ctx, "p1"))

	got, err := repo.PaperByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.DownloadCount)

	var doc models.PastPaper
	require.NoError(t, json.Unmarshal(rs.Document(models.CollectionPastPapers, "p1"), &doc))
	assert.Equal(t, 2, doc.DownloadCount)
}

func TestPastPaperRepository_RecordAttemptRecomputesStats(t *testing.T) {
	local, rs, log := newTestEnv(t)
	ctx := context.Background()
	repo := NewPastPaperRepository(local, rs, log)
	seedPapers(t, repo, rs)

	for _, score := range []float64{55, 65} {
		require.NoError(t, repo.RecordAttempt(ctx, &models.PastPaperAttempt{
			UserID: "u1", PaperID: "p1", Score: score,
		}))
	}

	got, err := repo.PaperByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.AttemptCount)
	assert.InDelta(t, 60.0, got.AverageScore, 1e-9)
}

func TestPastPaperRepository_RecordAttemptUnknownPaper(t *testing.T) {
	local, rs, log := newTestEnv(t)
	repo := NewPastPaperRepository(local, rs, log)

	err := repo.RecordAttempt(context.Background(),
		&models.PastPaperAttempt{UserID: "u1", PaperID: "missing"})
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestPastPaperRepository_DownloadURL(t *testing.T) {
	local, rs, log := newTestEnv(t)
	repo := NewPastPaperRepository(local, rs, log)

	url, err := repo.DownloadURL(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "https://files.test/papers/p1", url)
}
