package cleaningController

import (
	"context"
	"time"

	"stayops/config"
	"stayops/internal/apperrors"
	"stayops/internal/database"
	. "stayops/internal/models"
	"stayops/internal/repositories"
	"stayops/internal/services"
	"stayops/internal/timewindow"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const MaxMemoLength = 1000

type CleaningController struct {
	taskRepo  repositories.TaskRepository
	eventRepo repositories.EventRepository
	tx        services.TxExecutor
	db        database.DB
	loc       *time.Location
}

type UpsertTaskRequest struct {
	RoomID  uuid.UUID `json:"roomId"`
	DateKey string    `json:"dateKey"`
	Patch   TaskPatch `json:"patch"`
}

type UpdateStatusRequest struct {
	Status TaskStatus `json:"status"`
	Memo   *string    `json:"memo,omitempty"`
}

type CleaningControllerInterface interface {
	Upsert(ctx context.Context, request *UpsertTaskRequest) (*CleaningTask, error)
	UpdateStatus(
		ctx context.Context,
		scope *TokenScope,
		taskID uuid.UUID,
		request *UpdateStatusRequest,
	) (*CleaningTask, error)
	AttachPhoto(ctx context.Context, scope *TokenScope, taskID uuid.UUID, url string) (*CleaningTaskPhoto, error)
	ListWorkerDay(ctx context.Context, scope *TokenScope, workerID uuid.UUID, dateKey string) ([]*CleaningTask, error)
	BackfillCheckoutTime(ctx context.Context, roomID uuid.UUID, dateKey string) (bool, error)
}

func New(
	repos repositories.Repository,
	tx services.TxExecutor,
	db database.DB,
	config config.Config,
) CleaningControllerInterface {
	return &CleaningController{
		taskRepo:  repos.Task,
		eventRepo: repos.Event,
		tx:        tx,
		db:        db,
		loc:       timewindow.Location(config.CivilOffsetMinutes),
	}
}

// Upsert is the admin-side write into the single task creation path. All
// task creation funnels through the repository upsert, which is what keeps
// one task per room per day no matter how many triggers fire.
func (c *CleaningController) Upsert(
	ctx context.Context,
	request *UpsertTaskRequest,
) (*CleaningTask, error) {
	log := logger.New("cleaningController").TraceFromContext(ctx).Function("Upsert")

	if request.RoomID == uuid.Nil {
		return nil, apperrors.Validation("roomId is required")
	}
	if !timewindow.IsValidKey(request.DateKey) {
		return nil, apperrors.Validation("malformed date key %q", request.DateKey)
	}
	if request.Patch.Memo != nil && len(*request.Patch.Memo) > MaxMemoLength {
		return nil, apperrors.Validation("memo exceeds %d characters", MaxMemoLength)
	}

	var task *CleaningTask
	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		task, err = c.taskRepo.Upsert(ctx, tx, request.RoomID, request.DateKey, request.Patch)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info("cleaning task upserted",
		"roomID", request.RoomID, "dateKey", request.DateKey, "taskID", task.ID)
	return task, nil
}

// UpdateStatus moves a task through its lifecycle. Worker callers are
// limited to their own tasks and to forward transitions plus skip; admin
// callers (nil scope) may set any valid status, including resetting a
// terminal task back to PENDING.
func (c *CleaningController) UpdateStatus(
	ctx context.Context,
	scope *TokenScope,
	taskID uuid.UUID,
	request *UpdateStatusRequest,
) (*CleaningTask, error) {
	log := logger.New("cleaningController").TraceFromContext(ctx).Function("UpdateStatus")

	if taskID == uuid.Nil {
		return nil, apperrors.Validation("taskId is required")
	}
	if !request.Status.Valid() {
		return nil, apperrors.Validation("unknown status %q", request.Status)
	}
	if request.Memo != nil && len(*request.Memo) > MaxMemoLength {
		return nil, apperrors.Validation("memo exceeds %d characters", MaxMemoLength)
	}

	var task *CleaningTask
	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		current, err := c.taskRepo.GetByID(ctx, tx, taskID)
		if err != nil {
			return err
		}

		if err := checkTaskOwnership(scope, current); err != nil {
			return err
		}

		if scope != nil && !current.Status.CanTransition(request.Status) {
			return apperrors.Validation(
				"cannot move task from %s to %s", current.Status, request.Status,
			)
		}

		task, err = c.taskRepo.UpdateStatus(ctx, tx, taskID, request.Status, request.Memo)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info("task status updated", "taskID", taskID, "status", request.Status)
	return task, nil
}

// AttachPhoto appends evidence to a task the caller owns.
func (c *CleaningController) AttachPhoto(
	ctx context.Context,
	scope *TokenScope,
	taskID uuid.UUID,
	url string,
) (*CleaningTaskPhoto, error) {
	log := logger.New("cleaningController").TraceFromContext(ctx).Function("AttachPhoto")

	if taskID == uuid.Nil {
		return nil, apperrors.Validation("taskId is required")
	}
	if url == "" {
		return nil, apperrors.Validation("photo url is required")
	}

	photo := &CleaningTaskPhoto{
		TaskID:     taskID,
		URL:        url,
		UploadedAt: time.Now(),
	}

	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		task, err := c.taskRepo.GetByID(ctx, tx, taskID)
		if err != nil {
			return err
		}

		if err := checkTaskOwnership(scope, task); err != nil {
			return err
		}

		return c.taskRepo.AttachPhoto(ctx, tx, photo)
	})
	if err != nil {
		return nil, err
	}

	log.Info("photo attached", "taskID", taskID)
	return photo, nil
}

// ListWorkerDay returns a worker's tasks for the civil day. A worker token
// may only list its own subject's tasks.
func (c *CleaningController) ListWorkerDay(
	ctx context.Context,
	scope *TokenScope,
	workerID uuid.UUID,
	dateKey string,
) ([]*CleaningTask, error) {
	if workerID == uuid.Nil {
		return nil, apperrors.Validation("workerId is required")
	}
	if !timewindow.IsValidKey(dateKey) {
		return nil, apperrors.Validation("malformed date key %q", dateKey)
	}
	if scope != nil && (scope.SubjectType != SubjectWorker || scope.SubjectID != workerID) {
		return nil, apperrors.Authorization()
	}

	return c.taskRepo.ListForWorkerDay(ctx, c.db.SQL, workerID, dateKey)
}

// BackfillCheckoutTime copies the day's most recent observed checkout into
// the task when no instant was recorded yet. Read-only enrichment: an
// explicitly set value is never overwritten.
func (c *CleaningController) BackfillCheckoutTime(
	ctx context.Context,
	roomID uuid.UUID,
	dateKey string,
) (bool, error) {
	log := logger.New("cleaningController").TraceFromContext(ctx).Function("BackfillCheckoutTime")

	if roomID == uuid.Nil {
		return false, apperrors.Validation("roomId is required")
	}
	if !timewindow.IsValidKey(dateKey) {
		return false, apperrors.Validation("malformed date key %q", dateKey)
	}

	window := timewindow.Day(dateKey, c.loc)

	var updated bool
	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		checkout, err := c.eventRepo.LatestCheckoutForRoom(ctx, tx, roomID, window)
		if err != nil {
			return err
		}
		if checkout == nil {
			return nil
		}

		updated, err = c.taskRepo.SetObservedCheckoutIfEmpty(
			ctx, tx, roomID, dateKey, checkout.OccurredAt,
		)
		return err
	})
	if err != nil {
		return false, err
	}

	if updated {
		log.Info("observed checkout backfilled", "roomID", roomID, "dateKey", dateKey)
	}
	return updated, nil
}

// checkTaskOwnership rejects worker tokens acting on tasks assigned to
// someone else. The failure is uniform: listings may hide foreign tasks,
// but mutation attempts are refused outright.
func checkTaskOwnership(scope *TokenScope, task *CleaningTask) error {
	if scope == nil {
		return nil
	}
	if scope.SubjectType != SubjectWorker {
		return apperrors.Authorization()
	}
	if task.WorkerID == nil || *task.WorkerID != scope.SubjectID {
		return apperrors.Authorization()
	}
	return nil
}
