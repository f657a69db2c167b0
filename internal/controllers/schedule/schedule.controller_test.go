package scheduleController

import (
	"context"
	"errors"
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

type fakeReservationRepo struct {
	repositories.ReservationRepository
	due []*Reservation
}

func (r *fakeReservationRepo) CheckoutsDue(
	ctx context.Context,
	tx *gorm.DB,
	window timewindow.Window,
) ([]*Reservation, error) {
	return r.due, nil
}

type fakeEventRepo struct {
	repositories.EventRepository
	checkouts map[uuid.UUID]*OccupancyEvent
}

func (r *fakeEventRepo) LatestCheckoutForRoom(
	ctx context.Context,
	tx *gorm.DB,
	roomID uuid.UUID,
	window timewindow.Window,
) (*OccupancyEvent, error) {
	return r.checkouts[roomID], nil
}

type fakeTaskRepo struct {
	repositories.TaskRepository
	tasks map[string]*CleaningTask
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*CleaningTask)}
}

func (r *fakeTaskRepo) Upsert(
	ctx context.Context,
	tx *gorm.DB,
	roomID uuid.UUID,
	dateKey string,
	patch TaskPatch,
) (*CleaningTask, error) {
	key := roomID.String() + "/" + dateKey
	task, ok := r.tasks[key]
	if !ok {
		task = &CleaningTask{RoomID: roomID, DateKey: dateKey, Status: TaskPending}
		task.ID = uuid.New()
		r.tasks[key] = task
	}
	patch.ApplyTo(task)
	return task, nil
}

type fakeWorkerRepo struct {
	repositories.WorkerRepository
	workers map[uuid.UUID]*CleaningWorker
}

func (r *fakeWorkerRepo) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*CleaningWorker, error) {
	worker, ok := r.workers[id]
	if !ok {
		return nil, apperrors.NotFound("worker %s", id)
	}
	return worker, nil
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (n *fakeNotifier) Send(
	ctx context.Context,
	template string,
	variables map[string]string,
	targets []string,
) (string, error) {
	if n.err != nil {
		return "", n.err
	}
	n.sent = append(n.sent, targets...)
	return "msg-1", nil
}

type controllerFixture struct {
	controller *ScheduleController
	tasks      *fakeTaskRepo
	notifier   *fakeNotifier
	events     *fakeEventRepo
	workers    *fakeWorkerRepo
}

func newFixture(due ...*Reservation) *controllerFixture {
	tasks := newFakeTaskRepo()
	notifier := &fakeNotifier{}
	events := &fakeEventRepo{checkouts: make(map[uuid.UUID]*OccupancyEvent)}
	workers := &fakeWorkerRepo{workers: make(map[uuid.UUID]*CleaningWorker)}

	return &controllerFixture{
		controller: &ScheduleController{
			reservationRepo: &fakeReservationRepo{due: due},
			eventRepo:       events,
			taskRepo:        tasks,
			workerRepo:      workers,
			notifier:        notifier,
			tx:              &fakeTx{},
			loc:             timewindow.Location(540),
		},
		tasks:    tasks,
		notifier: notifier,
		events:   events,
		workers:  workers,
	}
}

func dueReservation(roomNumber string) *Reservation {
	roomID := uuid.New()
	reservation := &Reservation{
		RoomID:     &roomID,
		Room:       &Room{Number: roomNumber, RoomType: "standard"},
		GuestName:  "Guest " + roomNumber,
		PlannedEnd: time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC),
	}
	reservation.ID = uuid.New()
	return reservation
}

func TestAutolistListsExpectedCheckouts(t *testing.T) {
	first := dueReservation("201")
	second := dueReservation("202")
	fixture := newFixture(first, second)

	candidates, err := fixture.controller.Autolist(context.Background(), "2026-09-01")
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "201", candidates[0].RoomNumber)
	assert.Equal(t, first.ID, candidates[0].GuestID)
}

func TestAutolistRejectsMalformedDate(t *testing.T) {
	fixture := newFixture()

	_, err := fixture.controller.Autolist(context.Background(), "next tuesday")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAssignResolvesObservedCheckout(t *testing.T) {
	fixture := newFixture()
	roomID := uuid.New()
	checkoutAt := time.Date(2026, 9, 1, 2, 10, 0, 0, time.UTC)
	fixture.events.checkouts[roomID] = &OccupancyEvent{RoomID: roomID, OccurredAt: checkoutAt}

	task, err := fixture.controller.Assign(context.Background(), &AssignRequest{
		RoomID:  roomID,
		DateKey: "2026-09-01",
	})
	require.NoError(t, err)

	require.NotNil(t, task.ObservedCheckoutAt)
	assert.True(t, task.ObservedCheckoutAt.Equal(checkoutAt))
	assert.Empty(t, fixture.notifier.sent, "no worker, no notification")
}

func TestAssignNotifiesWorker(t *testing.T) {
	fixture := newFixture()
	workerID := uuid.New()
	fixture.workers.workers[workerID] = &CleaningWorker{Name: "Mina", Phone: "+8210000"}

	task, err := fixture.controller.Assign(context.Background(), &AssignRequest{
		RoomID:   uuid.New(),
		DateKey:  "2026-09-01",
		WorkerID: &workerID,
	})
	require.NoError(t, err)

	assert.Equal(t, workerID, *task.WorkerID)
	assert.Equal(t, []string{"+8210000"}, fixture.notifier.sent)
}

func TestAssignSurvivesNotifierFailure(t *testing.T) {
	fixture := newFixture()
	fixture.notifier.err = errors.New("vendor down")
	workerID := uuid.New()
	fixture.workers.workers[workerID] = &CleaningWorker{Name: "Jun", Phone: "+8210001"}

	task, err := fixture.controller.Assign(context.Background(), &AssignRequest{
		RoomID:   uuid.New(),
		DateKey:  "2026-09-01",
		WorkerID: &workerID,
	})
	require.NoError(t, err, "a vendor failure never rolls back the assignment")
	assert.Equal(t, workerID, *task.WorkerID)
}

func TestAssignValidation(t *testing.T) {
	fixture := newFixture()
	ctx := context.Background()

	_, err := fixture.controller.Assign(ctx, &AssignRequest{DateKey: "2026-09-01"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = fixture.controller.Assign(ctx, &AssignRequest{RoomID: uuid.New(), DateKey: "bad"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	empty := uuid.Nil
	_, err = fixture.controller.Assign(ctx, &AssignRequest{
		RoomID:   uuid.New(),
		DateKey:  "2026-09-01",
		WorkerID: &empty,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBuildAutolistIsIdempotent(t *testing.T) {
	first := dueReservation("301")
	second := dueReservation("302")
	fixture := newFixture(first, second)
	ctx := context.Background()

	created, err := fixture.controller.BuildAutolist(ctx, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Len(t, fixture.tasks.tasks, 2)

	created, err = fixture.controller.BuildAutolist(ctx, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Len(t, fixture.tasks.tasks, 2, "re-running merges instead of duplicating")
}
