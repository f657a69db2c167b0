package occupancyController

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

type OccupancyController struct {
	eventRepo       repositories.EventRepository
	reservationRepo repositories.ReservationRepository
	taskRepo        repositories.TaskRepository
	tx              services.TxExecutor
	db              database.DB
	loc             *time.Location
}

type AppendEventRequest struct {
	GuestID    uuid.UUID `json:"guestId"`
	Kind       EventKind `json:"kind"`
	OccurredAt string    `json:"occurredAt,omitempty"`
	Verified   bool      `json:"verified,omitempty"`
}

type OccupancyControllerInterface interface {
	Append(ctx context.Context, scope *TokenScope, request *AppendEventRequest) (*OccupancyEvent, error)
	Project(ctx context.Context, scope *TokenScope, guestID uuid.UUID) (*OccupancyProjection, error)
	DeleteEvent(ctx context.Context, eventID uuid.UUID) error
}

func New(
	repos repositories.Repository,
	tx services.TxExecutor,
	db database.DB,
	config config.Config,
) OccupancyControllerInterface {
	return &OccupancyController{
		eventRepo:       repos.Event,
		reservationRepo: repos.Reservation,
		taskRepo:        repos.Task,
		tx:              tx,
		db:              db,
		loc:             timewindow.Location(config.CivilOffsetMinutes),
	}
}

// Append records an occupancy fact. The duplicate guard and the insert run
// in one transaction; a checkout additionally backfills the day's cleaning
// task with the observed instant, without ever overwriting an explicit one.
func (c *OccupancyController) Append(
	ctx context.Context,
	scope *TokenScope,
	request *AppendEventRequest,
) (*OccupancyEvent, error) {
	log := logger.New("occupancyController").TraceFromContext(ctx).Function("Append")

	if request.GuestID == uuid.Nil {
		return nil, apperrors.Validation("guestId is required")
	}
	if !request.Kind.Valid() {
		return nil, apperrors.Validation("kind must be checkin or checkout")
	}
	if err := checkGuestScope(scope, request.GuestID); err != nil {
		return nil, err
	}

	occurredAt := time.Now()
	if request.OccurredAt != "" {
		parsed, err := time.Parse(time.RFC3339, request.OccurredAt)
		if err != nil {
			return nil, apperrors.Validation("occurredAt must be RFC3339")
		}
		occurredAt = parsed
	}

	reservation, err := c.reservationRepo.GetByID(ctx, c.db.SQL, request.GuestID)
	if err != nil {
		return nil, err
	}

	// Occupancy facts are meaningless without a room; refuse rather than
	// record.
	if !reservation.HasRoom() {
		return nil, apperrors.Validation("guest has no assigned room")
	}

	event := &OccupancyEvent{
		RoomID:     *reservation.RoomID,
		GuestID:    reservation.ID,
		Kind:       request.Kind,
		OccurredAt: occurredAt,
		Verified:   request.Verified,
		DateKey:    timewindow.DateKey(occurredAt, c.loc),
	}

	err = c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.eventRepo.AppendOnce(ctx, tx, event); err != nil {
			return err
		}

		if event.Kind == EventCheckout {
			_, err := c.taskRepo.SetObservedCheckoutIfEmpty(
				ctx, tx, event.RoomID, event.DateKey, event.OccurredAt,
			)
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	c.eventRepo.InvalidateGuest(ctx, event.GuestID)

	log.Info("occupancy event appended",
		"guestID", event.GuestID, "kind", event.Kind, "dateKey", event.DateKey)
	return event, nil
}

// Project derives the guest's current occupancy view from the event log.
// Nothing is stored: state is always pulled from the facts.
func (c *OccupancyController) Project(
	ctx context.Context,
	scope *TokenScope,
	guestID uuid.UUID,
) (*OccupancyProjection, error) {
	if guestID == uuid.Nil {
		return nil, apperrors.Validation("guestId is required")
	}
	if err := checkGuestScope(scope, guestID); err != nil {
		return nil, err
	}

	events, err := c.eventRepo.ListByGuest(ctx, c.db.SQL, guestID)
	if err != nil {
		return nil, err
	}

	return projectEvents(guestID, events), nil
}

// DeleteEvent is the administrative correction path; removing a fact resets
// the append-once guard for its kind.
func (c *OccupancyController) DeleteEvent(ctx context.Context, eventID uuid.UUID) error {
	log := logger.New("occupancyController").TraceFromContext(ctx).Function("DeleteEvent")

	if eventID == uuid.Nil {
		return apperrors.Validation("eventId is required")
	}

	var removed *OccupancyEvent
	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		event, err := c.eventRepo.Delete(ctx, tx, eventID)
		if err != nil {
			return err
		}
		removed = event
		return nil
	})
	if err != nil {
		return err
	}

	c.eventRepo.InvalidateGuest(ctx, removed.GuestID)

	log.Info("occupancy event deleted", "eventID", eventID)
	return nil
}

// projectEvents folds the log into the projection. When administrative
// correction leaves duplicate facts, the earliest checkin and the latest
// checkout are the meaningful instants.
func projectEvents(guestID uuid.UUID, events []*OccupancyEvent) *OccupancyProjection {
	projection := &OccupancyProjection{GuestID: guestID}

	for _, event := range events {
		switch event.Kind {
		case EventCheckin:
			projection.CheckedIn = true
			if projection.FirstCheckinAt == nil ||
				event.OccurredAt.Before(*projection.FirstCheckinAt) {
				at := event.OccurredAt
				projection.FirstCheckinAt = &at
			}
		case EventCheckout:
			projection.CheckedOut = true
			if projection.LastCheckoutAt == nil ||
				event.OccurredAt.After(*projection.LastCheckoutAt) {
				at := event.OccurredAt
				projection.LastCheckoutAt = &at
			}
		}
	}

	return projection
}

// checkGuestScope rejects guest tokens acting on another reservation. Admin
// callers carry no scope and pass through.
func checkGuestScope(scope *TokenScope, guestID uuid.UUID) error {
	if scope == nil {
		return nil
	}
	if scope.SubjectType != SubjectGuest || scope.SubjectID != guestID {
		return apperrors.Authorization()
	}
	return nil
}
