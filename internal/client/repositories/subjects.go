package repositories

import (
	"context"

	"github.com/studyhub-tz/studyhub/internal/client/localstore"
	"github.com/studyhub-tz/studyhub/internal/client/remote"
	"github.com/studyhub-tz/studyhub/internal/logging"
	"github.com/studyhub-tz/studyhub/internal/models"
)

// SubjectRepository caches the subject catalogue. Subjects are authored
// centrally, so the only mutation is sync.
type SubjectRepository struct {
	local  *localstore.Store
	remote remote.Store
	log    logging.Logger
}

func NewSubjectRepository(local *localstore.Store, rs remote.Store, log logging.Logger) *SubjectRepository {
	return &SubjectRepository{local: local, remote: rs, log: log.With("module", "subjects")}
}

// Subjects is a live query over the whole catalogue in display order.
func (r *SubjectRepository) Subjects(ctx context.Context) (<-chan []models.Subject, error) {
	return r.local.Subjects.Watch(ctx, "", "position ASC")
}

// SubjectsByLevel is a live query filtered to one education level.
func (r *SubjectRepository) SubjectsByLevel(ctx context.Context, level models.EducationLevel) (<-chan []models.Subject, error) {
	return r.local.Subjects.Watch(ctx, "level = ?", "position ASC", string(level))
}

// PopularSubjects returns the subjects flagged popular.
func (r *SubjectRepository) PopularSubjects(ctx context.Context) ([]models.Subject, error) {
	return r.local.Subjects.Query(ctx, "is_popular = 1", "position ASC")
}

// SubjectByID returns the cached subject, or common.ErrNotFound.
func (r *SubjectRepository) SubjectByID(ctx context.Context, subjectID string) (*models.Subject, error) {
	return r.local.Subjects.Get(ctx, subjectID)
}

// Sync replaces the whole catalogue from the remote store.
func (r *SubjectRepository) Sync(ctx context.Context) error {
	return syncCollection(ctx, r.remote, r.log, models.CollectionSubjects, nil, r.local.Subjects)
}
