package repositories

import (
	"context"
	"errors"

	"stayops/internal/apperrors"
	. "stayops/internal/models"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, worker *CleaningWorker) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*CleaningWorker, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*CleaningWorker, error)
}

type workerRepository struct {
	log logger.Logger
}

func NewWorkerRepository() WorkerRepository {
	return &workerRepository{log: logger.New("workerRepository")}
}

func (r *workerRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	worker *CleaningWorker,
) error {
	log := r.log.Function("Create")

	if err := gorm.G[CleaningWorker](tx).Create(ctx, worker); err != nil {
		return log.Err("failed to create worker", err, "name", worker.Name)
	}

	return nil
}

func (r *workerRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*CleaningWorker, error) {
	log := r.log.Function("GetByID")

	worker, err := gorm.G[*CleaningWorker](tx).
		Where(CleaningWorker{BaseUUIDModel: BaseUUIDModel{ID: id}}).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("worker %s", id)
		}
		return nil, log.Err("failed to get worker", err, "workerID", id)
	}

	return worker, nil
}

func (r *workerRepository) ListActive(
	ctx context.Context,
	tx *gorm.DB,
) ([]*CleaningWorker, error) {
	log := r.log.Function("ListActive")

	workers, err := gorm.G[*CleaningWorker](tx).
		Where(CleaningWorker{IsActive: true}).
		Order("name ASC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list workers", err)
	}

	return workers, nil
}
