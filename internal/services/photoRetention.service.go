package services

import (
	"context"
	"time"

	"stayops/config"
	"stayops/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"

	"gorm.io/gorm"
)

// PhotoRetentionService drops cleaning-task photos older than the retention
// cutoff. It runs in bounded batches so a large backlog never becomes one
// unbounded delete, and it is safe alongside normal task mutation: a
// concurrent writer can only be creating rows newer than any cutoff.
type PhotoRetentionService struct {
	taskRepo      repositories.TaskRepository
	tx            TxExecutor
	retentionDays int
	batchSize     int
	log           logger.Logger
}

func NewPhotoRetentionService(
	taskRepo repositories.TaskRepository,
	tx TxExecutor,
	config config.Config,
) *PhotoRetentionService {
	return &PhotoRetentionService{
		taskRepo:      taskRepo,
		tx:            tx,
		retentionDays: config.PhotoRetentionDays,
		batchSize:     config.PhotoPurgeBatchSize,
		log:           logger.New("photoRetentionService"),
	}
}

// Purge deletes expired photos until a batch comes back empty. Each batch
// commits independently so an interrupted run leaves no oversized
// transaction behind. Task rows are never touched.
func (s *PhotoRetentionService) Purge(ctx context.Context) (int64, error) {
	log := s.log.Function("Purge")

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	log.Info("Starting photo purge", "cutoff", cutoff, "batchSize", s.batchSize)

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		var deleted int64
		err := s.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
			var err error
			deleted, err = s.taskRepo.PurgePhotosBefore(ctx, tx, cutoff, s.batchSize)
			return err
		})
		if err != nil {
			return total, log.Err("photo purge batch failed", err, "purgedSoFar", total)
		}

		total += deleted
		if deleted < int64(s.batchSize) {
			break
		}
	}

	log.Info("Photo purge complete", "purged", total)
	return total, nil
}
