package repositories

import (
	"context"

	. "stayops/internal/models"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RateRepository interface {
	// Upsert overwrites the single (workerID, roomType) rate. There is no
	// history: the next settlement recomputation sees the new amount.
	Upsert(ctx context.Context, tx *gorm.DB, rate *CleaningRate) error

	ListForWorkers(
		ctx context.Context,
		tx *gorm.DB,
		workerIDs []uuid.UUID,
	) ([]*CleaningRate, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*CleaningRate, error)
	Delete(ctx context.Context, tx *gorm.DB, workerID uuid.UUID, roomType string) error
}

type rateRepository struct {
	log logger.Logger
}

func NewRateRepository() RateRepository {
	return &rateRepository{log: logger.New("rateRepository")}
}

func (r *rateRepository) Upsert(ctx context.Context, tx *gorm.DB, rate *CleaningRate) error {
	log := r.log.Function("Upsert")

	err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "worker_id"}, {Name: "room_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(rate).Error
	if err != nil {
		return log.Err("failed to upsert cleaning rate", err,
			"workerID", rate.WorkerID, "roomType", rate.RoomType)
	}

	return nil
}

func (r *rateRepository) ListForWorkers(
	ctx context.Context,
	tx *gorm.DB,
	workerIDs []uuid.UUID,
) ([]*CleaningRate, error) {
	log := r.log.Function("ListForWorkers")

	if len(workerIDs) == 0 {
		return nil, nil
	}

	rates, err := gorm.G[*CleaningRate](tx).
		Where("worker_id IN ?", workerIDs).
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list rates for workers", err, "count", len(workerIDs))
	}

	return rates, nil
}

func (r *rateRepository) ListAll(ctx context.Context, tx *gorm.DB) ([]*CleaningRate, error) {
	log := r.log.Function("ListAll")

	rates, err := gorm.G[*CleaningRate](tx).
		Order("worker_id, room_type").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list rates", err)
	}

	return rates, nil
}

func (r *rateRepository) Delete(
	ctx context.Context,
	tx *gorm.DB,
	workerID uuid.UUID,
	roomType string,
) error {
	log := r.log.Function("Delete")

	result := tx.WithContext(ctx).
		Where("worker_id = ? AND room_type = ?", workerID, roomType).
		Delete(&CleaningRate{})
	if result.Error != nil {
		return log.Err("failed to delete rate", result.Error,
			"workerID", workerID, "roomType", roomType)
	}

	return nil
}
