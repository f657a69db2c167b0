package cleaningController

import (
	"context"
	"strings"
	"testing"
	"time"

	"stayops/internal/apperrors"
	. "stayops/internal/models"
	"stayops/internal/repositories"
	"stayops/internal/timewindow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeTx struct{}

func (f *fakeTx) Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error {
	return fn(ctx, nil)
}

type fakeTaskRepo struct {
	repositories.TaskRepository
	tasks     map[uuid.UUID]*CleaningTask
	backfills int
}

func newFakeTaskRepo(tasks ...*CleaningTask) *fakeTaskRepo {
	repo := &fakeTaskRepo{tasks: make(map[uuid.UUID]*CleaningTask)}
	for _, task := range tasks {
		repo.tasks[task.ID] = task
	}
	return repo
}

func (r *fakeTaskRepo) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	taskID uuid.UUID,
) (*CleaningTask, error) {
	task, ok := r.tasks[taskID]
	if !ok {
		return nil, apperrors.NotFound("cleaning task %s", taskID)
	}
	return task, nil
}

func (r *fakeTaskRepo) UpdateStatus(
	ctx context.Context,
	tx *gorm.DB,
	taskID uuid.UUID,
	status TaskStatus,
	memo *string,
) (*CleaningTask, error) {
	task, ok := r.tasks[taskID]
	if !ok {
		return nil, apperrors.NotFound("cleaning task %s", taskID)
	}
	task.Status = status
	if memo != nil {
		task.Memo = *memo
	}
	return task, nil
}

func (r *fakeTaskRepo) Upsert(
	ctx context.Context,
	tx *gorm.DB,
	roomID uuid.UUID,
	dateKey string,
	patch TaskPatch,
) (*CleaningTask, error) {
	for _, task := range r.tasks {
		if task.RoomID == roomID && task.DateKey == dateKey {
			patch.ApplyTo(task)
			return task, nil
		}
	}
	task := &CleaningTask{RoomID: roomID, DateKey: dateKey, Status: TaskPending}
	task.ID = uuid.New()
	patch.ApplyTo(task)
	r.tasks[task.ID] = task
	return task, nil
}

func (r *fakeTaskRepo) SetObservedCheckoutIfEmpty(
	ctx context.Context,
	tx *gorm.DB,
	roomID uuid.UUID,
	dateKey string,
	observedAt time.Time,
) (bool, error) {
	r.backfills++
	for _, task := range r.tasks {
		if task.RoomID == roomID && task.DateKey == dateKey && task.ObservedCheckoutAt == nil {
			task.ObservedCheckoutAt = &observedAt
			return true, nil
		}
	}
	return false, nil
}

type fakeEventRepo struct {
	repositories.EventRepository
	checkout *OccupancyEvent
}

func (r *fakeEventRepo) LatestCheckoutForRoom(
	ctx context.Context,
	tx *gorm.DB,
	roomID uuid.UUID,
	window timewindow.Window,
) (*OccupancyEvent, error) {
	return r.checkout, nil
}

func newTestController(tasks *fakeTaskRepo, events *fakeEventRepo) *CleaningController {
	if events == nil {
		events = &fakeEventRepo{}
	}
	return &CleaningController{
		taskRepo:  tasks,
		eventRepo: events,
		tx:        &fakeTx{},
		loc:       timewindow.Location(540),
	}
}

func assignedTask(workerID uuid.UUID, status TaskStatus) *CleaningTask {
	task := &CleaningTask{
		RoomID:   uuid.New(),
		DateKey:  "2026-09-01",
		WorkerID: &workerID,
		Status:   status,
	}
	task.ID = uuid.New()
	return task
}

func workerScope(workerID uuid.UUID) *TokenScope {
	return &TokenScope{SubjectType: SubjectWorker, SubjectID: workerID, DateKey: "2026-09-01"}
}

func TestUpdateStatusWorkerForwardFlow(t *testing.T) {
	workerID := uuid.New()
	task := assignedTask(workerID, TaskPending)
	controller := newTestController(newFakeTaskRepo(task), nil)
	ctx := context.Background()

	updated, err := controller.UpdateStatus(ctx, workerScope(workerID), task.ID,
		&UpdateStatusRequest{Status: TaskInProgress})
	require.NoError(t, err)
	assert.Equal(t, TaskInProgress, updated.Status)

	memo := "left a note for maintenance"
	updated, err = controller.UpdateStatus(ctx, workerScope(workerID), task.ID,
		&UpdateStatusRequest{Status: TaskDone, Memo: &memo})
	require.NoError(t, err)
	assert.Equal(t, TaskDone, updated.Status)
	assert.Equal(t, memo, updated.Memo)
}

func TestUpdateStatusWorkerCannotReopen(t *testing.T) {
	workerID := uuid.New()
	task := assignedTask(workerID, TaskDone)
	controller := newTestController(newFakeTaskRepo(task), nil)

	_, err := controller.UpdateStatus(context.Background(), workerScope(workerID), task.ID,
		&UpdateStatusRequest{Status: TaskPending})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, TaskDone, task.Status)
}

func TestUpdateStatusAdminCanReset(t *testing.T) {
	task := assignedTask(uuid.New(), TaskSkipped)
	controller := newTestController(newFakeTaskRepo(task), nil)

	updated, err := controller.UpdateStatus(context.Background(), nil, task.ID,
		&UpdateStatusRequest{Status: TaskPending})
	require.NoError(t, err)
	assert.Equal(t, TaskPending, updated.Status)
}

func TestUpdateStatusForeignWorkerRejected(t *testing.T) {
	task := assignedTask(uuid.New(), TaskPending)
	controller := newTestController(newFakeTaskRepo(task), nil)

	_, err := controller.UpdateStatus(context.Background(), workerScope(uuid.New()), task.ID,
		&UpdateStatusRequest{Status: TaskInProgress})
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)
}

func TestUpdateStatusGuestTokenRejected(t *testing.T) {
	task := assignedTask(uuid.New(), TaskPending)
	controller := newTestController(newFakeTaskRepo(task), nil)

	scope := &TokenScope{SubjectType: SubjectGuest, SubjectID: uuid.New()}
	_, err := controller.UpdateStatus(context.Background(), scope, task.ID,
		&UpdateStatusRequest{Status: TaskInProgress})
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)
}

func TestUpdateStatusMemoTooLong(t *testing.T) {
	workerID := uuid.New()
	task := assignedTask(workerID, TaskPending)
	controller := newTestController(newFakeTaskRepo(task), nil)

	memo := strings.Repeat("a", MaxMemoLength+1)
	_, err := controller.UpdateStatus(context.Background(), workerScope(workerID), task.ID,
		&UpdateStatusRequest{Status: TaskInProgress, Memo: &memo})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpsertValidation(t *testing.T) {
	controller := newTestController(newFakeTaskRepo(), nil)
	ctx := context.Background()

	_, err := controller.Upsert(ctx, &UpsertTaskRequest{DateKey: "2026-09-01"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = controller.Upsert(ctx, &UpsertTaskRequest{RoomID: uuid.New(), DateKey: "tomorrow"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpsertMergesIntoExistingTask(t *testing.T) {
	controller := newTestController(newFakeTaskRepo(), nil)
	ctx := context.Background()
	roomID := uuid.New()

	first, err := controller.Upsert(ctx, &UpsertTaskRequest{RoomID: roomID, DateKey: "2026-09-01"})
	require.NoError(t, err)

	workerID := uuid.New()
	second, err := controller.Upsert(ctx, &UpsertTaskRequest{
		RoomID:  roomID,
		DateKey: "2026-09-01",
		Patch:   TaskPatch{WorkerID: &workerID},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "one task per room per day")
	assert.Equal(t, workerID, *second.WorkerID)
}

func TestAttachPhotoOwnership(t *testing.T) {
	workerID := uuid.New()
	task := assignedTask(workerID, TaskInProgress)
	repo := newFakeTaskRepo(task)
	repo.TaskRepository = &photoRecorder{}
	controller := newTestController(repo, nil)

	_, err := controller.AttachPhoto(context.Background(), workerScope(uuid.New()), task.ID,
		"https://cdn.example.com/p.jpg")
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	photo, err := controller.AttachPhoto(context.Background(), workerScope(workerID), task.ID,
		"https://cdn.example.com/p.jpg")
	require.NoError(t, err)
	assert.Equal(t, task.ID, photo.TaskID)
	assert.False(t, photo.UploadedAt.IsZero())
}

type photoRecorder struct {
	repositories.TaskRepository
}

func (p *photoRecorder) AttachPhoto(ctx context.Context, tx *gorm.DB, photo *CleaningTaskPhoto) error {
	return nil
}

func TestBackfillUsesLatestObservedCheckout(t *testing.T) {
	roomID := uuid.New()
	task := &CleaningTask{RoomID: roomID, DateKey: "2026-09-01", Status: TaskPending}
	task.ID = uuid.New()

	checkoutAt := time.Date(2026, 9, 1, 2, 30, 0, 0, time.UTC)
	controller := newTestController(
		newFakeTaskRepo(task),
		&fakeEventRepo{checkout: &OccupancyEvent{RoomID: roomID, OccurredAt: checkoutAt}},
	)

	updated, err := controller.BackfillCheckoutTime(context.Background(), roomID, "2026-09-01")
	require.NoError(t, err)
	assert.True(t, updated)
	require.NotNil(t, task.ObservedCheckoutAt)
	assert.True(t, task.ObservedCheckoutAt.Equal(checkoutAt))
}

func TestBackfillDoesNotOverwrite(t *testing.T) {
	roomID := uuid.New()
	explicit := time.Date(2026, 9, 1, 1, 0, 0, 0, time.UTC)
	task := &CleaningTask{
		RoomID:             roomID,
		DateKey:            "2026-09-01",
		Status:             TaskPending,
		ObservedCheckoutAt: &explicit,
	}
	task.ID = uuid.New()

	later := explicit.Add(3 * time.Hour)
	controller := newTestController(
		newFakeTaskRepo(task),
		&fakeEventRepo{checkout: &OccupancyEvent{RoomID: roomID, OccurredAt: later}},
	)

	updated, err := controller.BackfillCheckoutTime(context.Background(), roomID, "2026-09-01")
	require.NoError(t, err)
	assert.False(t, updated)
	assert.True(t, task.ObservedCheckoutAt.Equal(explicit))
}

func TestBackfillNoCheckoutObserved(t *testing.T) {
	controller := newTestController(newFakeTaskRepo(), &fakeEventRepo{})

	updated, err := controller.BackfillCheckoutTime(context.Background(), uuid.New(), "2026-09-01")
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestListWorkerDayScope(t *testing.T) {
	workerID := uuid.New()
	repo := newFakeTaskRepo()
	repo.TaskRepository = &listRecorder{}
	controller := newTestController(repo, nil)

	_, err := controller.ListWorkerDay(context.Background(), workerScope(uuid.New()), workerID, "2026-09-01")
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	_, err = controller.ListWorkerDay(context.Background(), workerScope(workerID), workerID, "2026-09-01")
	assert.NoError(t, err)
}

type listRecorder struct {
	repositories.TaskRepository
}

func (l *listRecorder) ListForWorkerDay(
	ctx context.Context,
	tx *gorm.DB,
	workerID uuid.UUID,
	dateKey string,
) ([]*CleaningTask, error) {
	return nil, nil
}
