package jobs

import (
	"context"

	"stayops/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type PhotoCleanupJob struct {
	photoRetention *services.PhotoRetentionService
	log            logger.Logger
	schedule       services.Schedule
}

func NewPhotoCleanupJob(
	photoRetention *services.PhotoRetentionService,
	schedule services.Schedule,
) *PhotoCleanupJob {
	log := logger.New("photoCleanupJob")
	log.Info("Creating new photo cleanup job", "schedule", schedule)

	return &PhotoCleanupJob{
		photoRetention: photoRetention,
		log:            log,
		schedule:       schedule,
	}
}

func (j *PhotoCleanupJob) Name() string {
	return "NightlyPhotoCleanup"
}

func (j *PhotoCleanupJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	log.Info("Starting scheduled photo purge")

	purged, err := j.photoRetention.Purge(ctx)
	if err != nil {
		return log.Err("scheduled photo purge failed", err)
	}

	log.Info("Scheduled photo purge completed", "purged", purged)
	return nil
}

func (j *PhotoCleanupJob) Schedule() services.Schedule {
	return j.schedule
}
