package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/studyhub-tz/studyhub/internal/client/localstore"
	"github.com/studyhub-tz/studyhub/internal/client/remote"
	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/models"
)

// AchievementRepository caches the badge catalogue and unlocks badges as
// the user's counters cross their thresholds.
type AchievementRepository struct {
	local  *localstore.Store
	remote remote.Store
	log    logging.Logger

	now func() time.Time
}

func NewAchievementRepository(local *localstore.Store, rs remote.Store, log logging.Logger) *AchievementRepository {
	return &AchievementRepository{
		local:  local,
		remote: rs,
		log:    log.With("module", "achievements"),
		now:    time.Now,
	}
}

// Achievements is a live query over the full badge catalogue.
func (r *AchievementRepository) Achievements(ctx context.Context) (<-chan []models.Achievement, error) {
	return r.local.Achievements.Watch(ctx, "", "is_unlocked DESC, type ASC")
}

// Unlocked returns the badges the user has earned.
func (r *AchievementRepository) Unlocked(ctx context.Context) ([]models.Achievement, error) {
	return r.local.Achievements.Query(ctx, "is_unlocked = 1", "type ASC")
}

// Locked returns the badges still in progress.
func (r *AchievementRepository) Locked(ctx context.Context) ([]models.Achievement, error) {
	return r.local.Achievements.Query(ctx, "is_unlocked = 0", "type ASC")
}

// Sync replaces the badge catalogue from the remote store.
func (r *AchievementRepository) Sync(ctx context.Context) error {
	return syncCollection(ctx, r.remote, r.log, models.CollectionAchievements, nil, r.local.Achievements)
}

// Unlock marks the badge unlocked and mirrors the unlock to the remote
// store. Unlocking an already-unlocked badge is a no-op.
func (r *AchievementRepository) Unlock(ctx context.Context, achievementID string) (*models.Achievement, error) {
	a, err := r.local.Achievements.Get(ctx, achievementID)
	if err != nil {
		return nil, err
	}
	if a.IsUnlocked {
		return a, nil
	}

	a, err = r.local.Achievements.Mutate(ctx, achievementID, func(a *models.Achievement) {
		a.IsUnlocked = true
		a.UnlockedAt = r.now().UnixMilli()
	})
	if err != nil {
		return nil, err
	}
	if err := r.remote.UpdateField(ctx, models.CollectionAchievements, a.ID, "isUnlocked", true); err != nil {
		return a, fmt.Errorf("unlock saved locally, remote update failed: %w", err)
	}
	return a, nil
}

// CheckAndUnlock records new progress for every badge of the given type
// and unlocks the ones whose threshold the value has reached. Returns
// the badges unlocked by this call.
func (r *AchievementRepository) CheckAndUnlock(ctx context.Context, achievementType models.AchievementType, progress int) ([]models.Achievement, error) {
	candidates, err := r.local.Achievements.Query(ctx, "type = ? AND is_unlocked = 0", "", string(achievementType))
	if err != nil {
		return nil, err
	}

	var unlocked []models.Achievement
	for _, c := range candidates {
		if _, err := r.local.Achievements.Mutate(ctx, c.ID, func(a *models.Achievement) {
			a.Progress = progress
		}); err != nil {
			return unlocked, err
		}
		if progress < c.Threshold {
			continue
		}
		a, err := r.Unlock(ctx, c.ID)
		if err != nil {
			return unlocked, err
		}
		unlocked = append(unlocked, *a)
	}
	return unlocked, nil
}
