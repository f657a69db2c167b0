package repositories

import (
	"context"
	"errors"
	"time"

	"stayops/internal/apperrors"
	. "stayops/internal/models"
	"stayops/internal/timewindow"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskRepository interface {
	// Upsert creates the (roomID, dateKey) task if absent, otherwise merges
	// only the patch's set fields into the existing row. The unique index on
	// (room_id, date_key) makes this the single creation path no matter how
	// many assignment triggers race.
	Upsert(
		ctx context.Context,
		tx *gorm.DB,
		roomID uuid.UUID,
		dateKey string,
		patch TaskPatch,
	) (*CleaningTask, error)

	GetByID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*CleaningTask, error)
	GetByRoomDay(
		ctx context.Context,
		tx *gorm.DB,
		roomID uuid.UUID,
		dateKey string,
	) (*CleaningTask, error)
	ListForWorkerDay(
		ctx context.Context,
		tx *gorm.DB,
		workerID uuid.UUID,
		dateKey string,
	) ([]*CleaningTask, error)
	ListForDay(ctx context.Context, tx *gorm.DB, dateKey string) ([]*CleaningTask, error)

	UpdateStatus(
		ctx context.Context,
		tx *gorm.DB,
		taskID uuid.UUID,
		status TaskStatus,
		memo *string,
	) (*CleaningTask, error)

	// SetObservedCheckoutIfEmpty backfills the observed checkout instant only
	// when none was explicitly recorded.
	SetObservedCheckoutIfEmpty(
		ctx context.Context,
		tx *gorm.DB,
		roomID uuid.UUID,
		dateKey string,
		observedAt time.Time,
	) (bool, error)

	AttachPhoto(ctx context.Context, tx *gorm.DB, photo *CleaningTaskPhoto) error
	ListPhotos(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) ([]*CleaningTaskPhoto, error)

	// PurgePhotosBefore deletes at most batchSize photo rows older than the
	// cutoff and reports how many went. Task rows are never touched.
	PurgePhotosBefore(
		ctx context.Context,
		tx *gorm.DB,
		cutoff time.Time,
		batchSize int,
	) (int64, error)

	DoneTasksInWindow(
		ctx context.Context,
		tx *gorm.DB,
		window timewindow.Window,
	) ([]*CleaningTask, error)
}

type taskRepository struct {
	log logger.Logger
}

func NewTaskRepository() TaskRepository {
	return &taskRepository{log: logger.New("taskRepository")}
}

func (r *taskRepository) Upsert(
	ctx context.Context,
	tx *gorm.DB,
	roomID uuid.UUID,
	dateKey string,
	patch TaskPatch,
) (*CleaningTask, error) {
	log := r.log.Function("Upsert")

	task := &CleaningTask{
		RoomID:  roomID,
		DateKey: dateKey,
		Status:  TaskPending,
	}
	patch.ApplyTo(task)

	conflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "date_key"}},
		DoNothing: true,
	}
	if updates := patch.Updates(); len(updates) > 0 {
		updates["updated_at"] = time.Now()
		conflict.DoNothing = false
		conflict.DoUpdates = clause.Assignments(updates)
	}

	if err := tx.WithContext(ctx).Clauses(conflict).Create(task).Error; err != nil {
		return nil, log.Err("failed to upsert cleaning task", err,
			"roomID", roomID, "dateKey", dateKey)
	}

	// Re-read so callers always see the merged row, including the DoNothing
	// path where Create leaves the struct at its zero defaults.
	return r.GetByRoomDay(ctx, tx, roomID, dateKey)
}

func (r *taskRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	taskID uuid.UUID,
) (*CleaningTask, error) {
	log := r.log.Function("GetByID")

	task, err := gorm.G[*CleaningTask](tx).
		Preload("Photos", nil).
		Preload("Room", nil).
		Where(CleaningTask{BaseUUIDModel: BaseUUIDModel{ID: taskID}}).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("task %s", taskID)
		}
		return nil, log.Err("failed to get cleaning task", err, "taskID", taskID)
	}

	return task, nil
}

func (r *taskRepository) GetByRoomDay(
	ctx context.Context,
	tx *gorm.DB,
	roomID uuid.UUID,
	dateKey string,
) (*CleaningTask, error) {
	log := r.log.Function("GetByRoomDay")

	task, err := gorm.G[*CleaningTask](tx).
		Where(CleaningTask{RoomID: roomID, DateKey: dateKey}).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("task for room %s on %s", roomID, dateKey)
		}
		return nil, log.Err("failed to get cleaning task", err,
			"roomID", roomID, "dateKey", dateKey)
	}

	return task, nil
}

func (r *taskRepository) ListForWorkerDay(
	ctx context.Context,
	tx *gorm.DB,
	workerID uuid.UUID,
	dateKey string,
) ([]*CleaningTask, error) {
	log := r.log.Function("ListForWorkerDay")

	tasks, err := gorm.G[*CleaningTask](tx).
		Preload("Room", nil).
		Preload("Photos", nil).
		Where("worker_id = ? AND date_key = ?", workerID, dateKey).
		Order("created_at ASC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list worker tasks", err,
			"workerID", workerID, "dateKey", dateKey)
	}

	return tasks, nil
}

func (r *taskRepository) ListForDay(
	ctx context.Context,
	tx *gorm.DB,
	dateKey string,
) ([]*CleaningTask, error) {
	log := r.log.Function("ListForDay")

	tasks, err := gorm.G[*CleaningTask](tx).
		Preload("Room", nil).
		Preload("Worker", nil).
		Where(CleaningTask{DateKey: dateKey}).
		Order("created_at ASC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list tasks for day", err, "dateKey", dateKey)
	}

	return tasks, nil
}

func (r *taskRepository) UpdateStatus(
	ctx context.Context,
	tx *gorm.DB,
	taskID uuid.UUID,
	status TaskStatus,
	memo *string,
) (*CleaningTask, error) {
	log := r.log.Function("UpdateStatus")

	updates := map[string]any{"status": status}
	if memo != nil {
		updates["memo"] = *memo
	}

	result := tx.WithContext(ctx).
		Model(&CleaningTask{}).
		Where("id = ?", taskID).
		Updates(updates)
	if result.Error != nil {
		return nil, log.Err("failed to update task status", result.Error,
			"taskID", taskID, "status", status)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFound("task %s", taskID)
	}

	return r.GetByID(ctx, tx, taskID)
}

func (r *taskRepository) SetObservedCheckoutIfEmpty(
	ctx context.Context,
	tx *gorm.DB,
	roomID uuid.UUID,
	dateKey string,
	observedAt time.Time,
) (bool, error) {
	log := r.log.Function("SetObservedCheckoutIfEmpty")

	result := tx.WithContext(ctx).
		Model(&CleaningTask{}).
		Where("room_id = ? AND date_key = ? AND observed_checkout_at IS NULL", roomID, dateKey).
		Update("observed_checkout_at", observedAt)
	if result.Error != nil {
		return false, log.Err("failed to backfill observed checkout", result.Error,
			"roomID", roomID, "dateKey", dateKey)
	}

	return result.RowsAffected > 0, nil
}

func (r *taskRepository) AttachPhoto(
	ctx context.Context,
	tx *gorm.DB,
	photo *CleaningTaskPhoto,
) error {
	log := r.log.Function("AttachPhoto")

	if err := gorm.G[CleaningTaskPhoto](tx).Create(ctx, photo); err != nil {
		return log.Err("failed to attach photo", err, "taskID", photo.TaskID)
	}

	return nil
}

func (r *taskRepository) ListPhotos(
	ctx context.Context,
	tx *gorm.DB,
	taskID uuid.UUID,
) ([]*CleaningTaskPhoto, error) {
	log := r.log.Function("ListPhotos")

	photos, err := gorm.G[*CleaningTaskPhoto](tx).
		Where(CleaningTaskPhoto{TaskID: taskID}).
		Order("uploaded_at ASC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list photos", err, "taskID", taskID)
	}

	return photos, nil
}

func (r *taskRepository) PurgePhotosBefore(
	ctx context.Context,
	tx *gorm.DB,
	cutoff time.Time,
	batchSize int,
) (int64, error) {
	log := r.log.Function("PurgePhotosBefore")

	// Subquery keeps each delete bounded; the purge job loops until a batch
	// comes back empty.
	result := tx.WithContext(ctx).
		Unscoped().
		Where("id IN (?)",
			tx.Model(&CleaningTaskPhoto{}).
				Select("id").
				Where("uploaded_at < ?", cutoff).
				Limit(batchSize),
		).
		Delete(&CleaningTaskPhoto{})
	if result.Error != nil {
		return 0, log.Err("failed to purge photos", result.Error, "cutoff", cutoff)
	}

	if result.RowsAffected > 0 {
		log.Info("purged photo batch", "count", result.RowsAffected, "cutoff", cutoff)
	}

	return result.RowsAffected, nil
}

func (r *taskRepository) DoneTasksInWindow(
	ctx context.Context,
	tx *gorm.DB,
	window timewindow.Window,
) ([]*CleaningTask, error) {
	log := r.log.Function("DoneTasksInWindow")

	// Window membership is by the task's civil day key, which sorts
	// lexicographically, so the half-open range maps straight onto strings.
	startKey := window.Start.Format(timewindow.DateKeyLayout)
	endKey := window.End.Format(timewindow.DateKeyLayout)

	tasks, err := gorm.G[*CleaningTask](tx).
		Preload("Room", nil).
		Preload("Worker", nil).
		Where("status = ? AND worker_id IS NOT NULL AND date_key >= ? AND date_key < ?",
			TaskDone, startKey, endKey).
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to list done tasks in window", err)
	}

	return tasks, nil
}
