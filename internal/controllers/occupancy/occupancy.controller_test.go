package occupancyController

import (
	"context"
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
	reservations map[uuid.UUID]*Reservation
}

func (r *fakeReservationRepo) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Reservation, error) {
	reservation, ok := r.reservations[id]
	if !ok {
		return nil, apperrors.NotFound("reservation %s", id)
	}
	return reservation, nil
}

type fakeEventRepo struct {
	repositories.EventRepository
	appended    []*OccupancyEvent
	listed      []*OccupancyEvent
	invalidated []uuid.UUID
}

func (r *fakeEventRepo) AppendOnce(ctx context.Context, tx *gorm.DB, event *OccupancyEvent) error {
	for _, existing := range r.appended {
		if existing.GuestID == event.GuestID && existing.Kind == event.Kind {
			return apperrors.Conflict("%s already recorded for guest %s", event.Kind, event.GuestID)
		}
	}
	r.appended = append(r.appended, event)
	return nil
}

func (r *fakeEventRepo) InvalidateGuest(ctx context.Context, guestID uuid.UUID) {
	r.invalidated = append(r.invalidated, guestID)
}

func (r *fakeEventRepo) ListByGuest(
	ctx context.Context,
	tx *gorm.DB,
	guestID uuid.UUID,
) ([]*OccupancyEvent, error) {
	return r.listed, nil
}

type fakeTaskRepo struct {
	repositories.TaskRepository
	backfills []time.Time
}

func (r *fakeTaskRepo) SetObservedCheckoutIfEmpty(
	ctx context.Context,
	tx *gorm.DB,
	roomID uuid.UUID,
	dateKey string,
	observedAt time.Time,
) (bool, error) {
	r.backfills = append(r.backfills, observedAt)
	return true, nil
}

func newTestController(
	reservations *fakeReservationRepo,
	events *fakeEventRepo,
	tasks *fakeTaskRepo,
) *OccupancyController {
	return &OccupancyController{
		eventRepo:       events,
		reservationRepo: reservations,
		taskRepo:        tasks,
		tx:              &fakeTx{},
		loc:             timewindow.Location(540),
	}
}

func reservationWithRoom(roomID uuid.UUID) *Reservation {
	reservation := &Reservation{RoomID: &roomID, GuestName: "Guest"}
	reservation.ID = uuid.New()
	return reservation
}

func TestAppendRequiresRoom(t *testing.T) {
	roomless := &Reservation{GuestName: "Walk In"}
	roomless.ID = uuid.New()

	controller := newTestController(
		&fakeReservationRepo{reservations: map[uuid.UUID]*Reservation{roomless.ID: roomless}},
		&fakeEventRepo{},
		&fakeTaskRepo{},
	)

	_, err := controller.Append(context.Background(), nil, &AppendEventRequest{
		GuestID: roomless.ID,
		Kind:    EventCheckin,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAppendValidation(t *testing.T) {
	controller := newTestController(&fakeReservationRepo{}, &fakeEventRepo{}, &fakeTaskRepo{})

	_, err := controller.Append(context.Background(), nil, &AppendEventRequest{
		Kind: EventCheckin,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "guest id is required")

	_, err = controller.Append(context.Background(), nil, &AppendEventRequest{
		GuestID: uuid.New(),
		Kind:    EventKind("loitering"),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "unknown kind")

	_, err = controller.Append(context.Background(), nil, &AppendEventRequest{
		GuestID:    uuid.New(),
		Kind:       EventCheckin,
		OccurredAt: "yesterday noon",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "timestamps must be RFC3339")
}

func TestAppendDuplicateKindConflicts(t *testing.T) {
	reservation := reservationWithRoom(uuid.New())
	controller := newTestController(
		&fakeReservationRepo{reservations: map[uuid.UUID]*Reservation{reservation.ID: reservation}},
		&fakeEventRepo{},
		&fakeTaskRepo{},
	)
	ctx := context.Background()

	_, err := controller.Append(ctx, nil, &AppendEventRequest{
		GuestID: reservation.ID,
		Kind:    EventCheckin,
	})
	require.NoError(t, err)

	_, err = controller.Append(ctx, nil, &AppendEventRequest{
		GuestID: reservation.ID,
		Kind:    EventCheckin,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = controller.Append(ctx, nil, &AppendEventRequest{
		GuestID: reservation.ID,
		Kind:    EventCheckout,
	})
	assert.NoError(t, err, "the other kind is still open")
}

func TestAppendInvalidatesProjectionAfterCommit(t *testing.T) {
	reservation := reservationWithRoom(uuid.New())
	events := &fakeEventRepo{}
	controller := newTestController(
		&fakeReservationRepo{reservations: map[uuid.UUID]*Reservation{reservation.ID: reservation}},
		events,
		&fakeTaskRepo{},
	)
	ctx := context.Background()

	_, err := controller.Append(ctx, nil, &AppendEventRequest{
		GuestID: reservation.ID,
		Kind:    EventCheckin,
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{reservation.ID}, events.invalidated)

	_, err = controller.Append(ctx, nil, &AppendEventRequest{
		GuestID: reservation.ID,
		Kind:    EventCheckin,
	})
	require.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Len(t, events.invalidated, 1, "a failed append leaves the cache alone")
}

func TestAppendCheckoutBackfillsTask(t *testing.T) {
	reservation := reservationWithRoom(uuid.New())
	tasks := &fakeTaskRepo{}
	controller := newTestController(
		&fakeReservationRepo{reservations: map[uuid.UUID]*Reservation{reservation.ID: reservation}},
		&fakeEventRepo{},
		tasks,
	)

	occurredAt := time.Date(2026, 9, 1, 11, 15, 0, 0, time.UTC)
	event, err := controller.Append(context.Background(), nil, &AppendEventRequest{
		GuestID:    reservation.ID,
		Kind:       EventCheckout,
		OccurredAt: occurredAt.Format(time.RFC3339),
	})
	require.NoError(t, err)

	assert.Equal(t, "2026-09-01", event.DateKey, "11:15 UTC is the same civil day at UTC+9")
	require.Len(t, tasks.backfills, 1)
	assert.True(t, tasks.backfills[0].Equal(occurredAt))
}

func TestAppendCheckinDoesNotTouchTasks(t *testing.T) {
	reservation := reservationWithRoom(uuid.New())
	tasks := &fakeTaskRepo{}
	controller := newTestController(
		&fakeReservationRepo{reservations: map[uuid.UUID]*Reservation{reservation.ID: reservation}},
		&fakeEventRepo{},
		tasks,
	)

	_, err := controller.Append(context.Background(), nil, &AppendEventRequest{
		GuestID: reservation.ID,
		Kind:    EventCheckin,
	})
	require.NoError(t, err)
	assert.Empty(t, tasks.backfills)
}

func TestGuestScopeEnforcement(t *testing.T) {
	guestID := uuid.New()

	tests := []struct {
		name    string
		scope   *TokenScope
		wantErr bool
	}{
		{"admin caller has no scope", nil, false},
		{"own guest scope", &TokenScope{SubjectType: SubjectGuest, SubjectID: guestID}, false},
		{"another guest", &TokenScope{SubjectType: SubjectGuest, SubjectID: uuid.New()}, true},
		{"worker token on guest surface", &TokenScope{SubjectType: SubjectWorker, SubjectID: guestID}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkGuestScope(tt.scope, guestID)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrAuthorization)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProjectEvents(t *testing.T) {
	guestID := uuid.New()
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	t.Run("empty log", func(t *testing.T) {
		projection := projectEvents(guestID, nil)
		assert.False(t, projection.CheckedIn)
		assert.False(t, projection.CheckedOut)
		assert.Nil(t, projection.FirstCheckinAt)
		assert.Nil(t, projection.LastCheckoutAt)
	})

	t.Run("duplicates keep earliest checkin and latest checkout", func(t *testing.T) {
		events := []*OccupancyEvent{
			{Kind: EventCheckin, OccurredAt: base.Add(2 * time.Hour)},
			{Kind: EventCheckin, OccurredAt: base},
			{Kind: EventCheckout, OccurredAt: base.Add(24 * time.Hour)},
			{Kind: EventCheckout, OccurredAt: base.Add(26 * time.Hour)},
		}

		projection := projectEvents(guestID, events)
		assert.True(t, projection.CheckedIn)
		assert.True(t, projection.CheckedOut)
		assert.True(t, projection.FirstCheckinAt.Equal(base))
		assert.True(t, projection.LastCheckoutAt.Equal(base.Add(26*time.Hour)))
	})
}
