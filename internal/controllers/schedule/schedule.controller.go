package scheduleController

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

type ScheduleController struct {
	reservationRepo repositories.ReservationRepository
	eventRepo       repositories.EventRepository
	taskRepo        repositories.TaskRepository
	workerRepo      repositories.WorkerRepository
	notifier        services.Notifier
	tx              services.TxExecutor
	db              database.DB
	loc             *time.Location
}

// AutolistCandidate is a room expected to check out on the given day,
// independent of whether a checkout fact exists yet.
type AutolistCandidate struct {
	RoomID     uuid.UUID `json:"roomId"`
	RoomNumber string    `json:"roomNumber"`
	GuestID    uuid.UUID `json:"guestId"`
	GuestName  string    `json:"guestName"`
	PlannedEnd time.Time `json:"plannedEnd"`
}

type AssignRequest struct {
	RoomID   uuid.UUID  `json:"roomId"`
	DateKey  string     `json:"dateKey"`
	WorkerID *uuid.UUID `json:"workerId,omitempty"`
	GuestID  *uuid.UUID `json:"guestId,omitempty"`
}

type ScheduleControllerInterface interface {
	Autolist(ctx context.Context, dateKey string) ([]AutolistCandidate, error)
	Assign(ctx context.Context, request *AssignRequest) (*CleaningTask, error)
	BuildAutolist(ctx context.Context, dateKey string) (int, error)
}

func New(
	repos repositories.Repository,
	notifier services.Notifier,
	tx services.TxExecutor,
	db database.DB,
	config config.Config,
) ScheduleControllerInterface {
	return &ScheduleController{
		reservationRepo: repos.Reservation,
		eventRepo:       repos.Event,
		taskRepo:        repos.Task,
		workerRepo:      repos.Worker,
		notifier:        notifier,
		tx:              tx,
		db:              db,
		loc:             timewindow.Location(config.CivilOffsetMinutes),
	}
}

// Autolist lists the day's expected checkouts: reservations with a room
// whose planned end falls inside the day window.
func (c *ScheduleController) Autolist(
	ctx context.Context,
	dateKey string,
) ([]AutolistCandidate, error) {
	if !timewindow.IsValidKey(dateKey) {
		return nil, apperrors.Validation("malformed date key %q", dateKey)
	}

	window := timewindow.Day(dateKey, c.loc)

	reservations, err := c.reservationRepo.CheckoutsDue(ctx, c.db.SQL, window)
	if err != nil {
		return nil, err
	}

	candidates := make([]AutolistCandidate, 0, len(reservations))
	for _, reservation := range reservations {
		candidate := AutolistCandidate{
			RoomID:     *reservation.RoomID,
			GuestID:    reservation.ID,
			GuestName:  reservation.GuestName,
			PlannedEnd: reservation.PlannedEnd,
		}
		if reservation.Room != nil {
			candidate.RoomNumber = reservation.Room.Number
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// Assign funnels every assignment trigger into the task upsert, resolving
// the day's observed checkout from the event log first. Bulk autolist
// creation and single drag-and-drop reassignment both land here.
func (c *ScheduleController) Assign(
	ctx context.Context,
	request *AssignRequest,
) (*CleaningTask, error) {
	log := logger.New("scheduleController").TraceFromContext(ctx).Function("Assign")

	if request.RoomID == uuid.Nil {
		return nil, apperrors.Validation("roomId is required")
	}
	if !timewindow.IsValidKey(request.DateKey) {
		return nil, apperrors.Validation("malformed date key %q", request.DateKey)
	}
	if request.WorkerID != nil && *request.WorkerID == uuid.Nil {
		return nil, apperrors.Validation("workerId cannot be empty when provided")
	}

	window := timewindow.Day(request.DateKey, c.loc)

	var task *CleaningTask
	err := c.tx.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		patch := TaskPatch{
			WorkerID: request.WorkerID,
			GuestID:  request.GuestID,
		}

		checkout, err := c.eventRepo.LatestCheckoutForRoom(ctx, tx, request.RoomID, window)
		if err != nil {
			return err
		}
		if checkout != nil {
			patch.ObservedCheckoutAt = &checkout.OccurredAt
		}

		task, err = c.taskRepo.Upsert(ctx, tx, request.RoomID, request.DateKey, patch)
		return err
	})
	if err != nil {
		return nil, err
	}

	if request.WorkerID != nil {
		c.notifyWorker(ctx, *request.WorkerID, task)
	}

	log.Info("cleaning task assigned",
		"roomID", request.RoomID, "dateKey", request.DateKey, "taskID", task.ID)
	return task, nil
}

// BuildAutolist upserts an unassigned task for every expected checkout.
// Re-running is harmless: the upsert path merges instead of duplicating.
func (c *ScheduleController) BuildAutolist(ctx context.Context, dateKey string) (int, error) {
	log := logger.New("scheduleController").TraceFromContext(ctx).Function("BuildAutolist")

	candidates, err := c.Autolist(ctx, dateKey)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, candidate := range candidates {
		guestID := candidate.GuestID
		_, err := c.Assign(ctx, &AssignRequest{
			RoomID:  candidate.RoomID,
			DateKey: dateKey,
			GuestID: &guestID,
		})
		if err != nil {
			return created, log.Err("autolist assignment failed", err,
				"roomID", candidate.RoomID, "dateKey", dateKey)
		}
		created++
	}

	log.Info("autolist built", "dateKey", dateKey, "tasks", created)
	return created, nil
}

// notifyWorker tells the assignee about the task. Best effort only; a
// vendor failure never rolls back the assignment.
func (c *ScheduleController) notifyWorker(
	ctx context.Context,
	workerID uuid.UUID,
	task *CleaningTask,
) {
	log := logger.New("scheduleController").TraceFromContext(ctx).Function("notifyWorker")

	worker, err := c.workerRepo.GetByID(ctx, c.db.SQL, workerID)
	if err != nil || worker.Phone == "" {
		log.Debug("skipping assignment notification", "workerID", workerID)
		return
	}

	roomNumber := ""
	if task.Room != nil {
		roomNumber = task.Room.Number
	}

	_, err = c.notifier.Send(ctx, "cleaning_assignment", map[string]string{
		"room":    roomNumber,
		"dateKey": task.DateKey,
	}, []string{worker.Phone})
	if err != nil {
		log.Warn("assignment notification failed", "workerID", workerID, "error", err)
	}
}
