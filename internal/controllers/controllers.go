package controllers

import (
	"stayops/config"
	"stayops/internal/database"
	"stayops/internal/repositories"
	"stayops/internal/services"

	cleaningController "stayops/internal/controllers/cleaning"
	occupancyController "stayops/internal/controllers/occupancy"
	reservationController "stayops/internal/controllers/reservation"
	scheduleController "stayops/internal/controllers/schedule"
	settlementController "stayops/internal/controllers/settlement"
)

type Controllers struct {
	Occupancy   occupancyController.OccupancyControllerInterface
	Cleaning    cleaningController.CleaningControllerInterface
	Schedule    scheduleController.ScheduleControllerInterface
	Settlement  settlementController.SettlementControllerInterface
	Reservation reservationController.ReservationControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		Occupancy:   occupancyController.New(repos, services.Transaction, db, config),
		Cleaning:    cleaningController.New(repos, services.Transaction, db, config),
		Schedule:    scheduleController.New(repos, services.Notify, services.Transaction, db, config),
		Settlement:  settlementController.New(repos, services.Transaction, db, config),
		Reservation: reservationController.New(repos, services.Token, services.Transaction, db, config),
	}
}
