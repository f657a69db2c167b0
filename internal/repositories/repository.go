package repositories

import (
	"strings"

	"stayops/internal/database"
)

type Repository struct {
	Room        RoomRepository
	Worker      WorkerRepository
	Reservation ReservationRepository
	Event       EventRepository
	Task        TaskRepository
	Rate        RateRepository
	Token       TokenRepository
}

func New(db database.DB) Repository {
	return Repository{
		Room:        NewRoomRepository(),
		Worker:      NewWorkerRepository(),
		Reservation: NewReservationRepository(),
		Event:       NewEventRepository(db.Cache.Occupancy),
		Task:        NewTaskRepository(),
		Rate:        NewRateRepository(),
		Token:       NewTokenRepository(db.Cache.Token),
	}
}

// isUniqueViolation recognizes unique-constraint failures from the driver
// without binding to a driver error type.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
