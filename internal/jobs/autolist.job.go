package jobs

import (
	"context"
	"time"

	scheduleController "stayops/internal/controllers/schedule"
	"stayops/internal/services"
	"stayops/internal/timewindow"

	logger "github.com/Bparsons0904/goLogger"
)

// AutolistJob builds the day's cleaning schedule from expected checkouts
// every morning, so the board is populated before the front desk opens.
type AutolistJob struct {
	schedule scheduleController.ScheduleControllerInterface
	loc      *time.Location
	log      logger.Logger
	when     services.Schedule
}

func NewAutolistJob(
	schedule scheduleController.ScheduleControllerInterface,
	loc *time.Location,
	when services.Schedule,
) *AutolistJob {
	log := logger.New("autolistJob")
	log.Info("Creating new autolist job", "schedule", when)

	return &AutolistJob{
		schedule: schedule,
		loc:      loc,
		log:      log,
		when:     when,
	}
}

func (j *AutolistJob) Name() string {
	return "MorningAutolist"
}

func (j *AutolistJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	dateKey := timewindow.DateKey(time.Now(), j.loc)
	log.Info("Building cleaning schedule", "dateKey", dateKey)

	created, err := j.schedule.BuildAutolist(ctx, dateKey)
	if err != nil {
		return log.Err("autolist build failed", err, "dateKey", dateKey)
	}

	log.Info("Cleaning schedule built", "dateKey", dateKey, "tasks", created)
	return nil
}

func (j *AutolistJob) Schedule() services.Schedule {
	return j.when
}
