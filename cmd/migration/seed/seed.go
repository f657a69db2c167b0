package seed

import (
	"fmt"

	"stayops/config"
	. "stayops/internal/models"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	if err := seedRooms(db, log); err != nil {
		return err
	}

	workers, err := seedWorkers(db, log)
	if err != nil {
		return err
	}

	if err := seedRates(db, workers, log); err != nil {
		return err
	}

	return nil
}

func seedRooms(db *gorm.DB, log logger.Logger) error {
	rooms := []Room{}
	for floor := 2; floor <= 4; floor++ {
		for n := 1; n <= 6; n++ {
			roomType := "standard"
			if n >= 5 {
				roomType = "suite"
			}
			rooms = append(rooms, Room{
				Number:   fmt.Sprintf("%d%02d", floor, n),
				RoomType: roomType,
				Floor:    floor,
				IsActive: true,
			})
		}
	}

	for _, room := range rooms {
		var existing Room
		if err := db.First(&existing, "number = ?", room.Number).Error; err == nil {
			continue
		}
		if err := db.Create(&room).Error; err != nil {
			return log.Err("failed to seed room", err, "number", room.Number)
		}
	}

	log.Info("Seeded rooms", "count", len(rooms))
	return nil
}

func seedWorkers(db *gorm.DB, log logger.Logger) ([]CleaningWorker, error) {
	workers := []CleaningWorker{
		{Name: "Mina Park", Phone: "+821012340001", IsActive: true},
		{Name: "Jun Seo", Phone: "+821012340002", IsActive: true},
		{Name: "Hana Kim", Phone: "", IsActive: true},
	}

	seeded := make([]CleaningWorker, 0, len(workers))
	for _, worker := range workers {
		var existing CleaningWorker
		if err := db.First(&existing, "name = ?", worker.Name).Error; err == nil {
			seeded = append(seeded, existing)
			continue
		}
		if err := db.Create(&worker).Error; err != nil {
			return nil, log.Err("failed to seed worker", err, "name", worker.Name)
		}
		seeded = append(seeded, worker)
	}

	log.Info("Seeded workers", "count", len(seeded))
	return seeded, nil
}

func seedRates(db *gorm.DB, workers []CleaningWorker, log logger.Logger) error {
	amounts := map[string]decimal.Decimal{
		"standard": decimal.NewFromInt(20000),
		"suite":    decimal.NewFromInt(35000),
	}

	for _, worker := range workers {
		for roomType, amount := range amounts {
			rate := CleaningRate{
				WorkerID: worker.ID,
				RoomType: roomType,
				Amount:   amount,
			}
			var existing CleaningRate
			err := db.First(&existing, "worker_id = ? AND room_type = ?", worker.ID, roomType).Error
			if err == nil {
				continue
			}
			if err := db.Create(&rate).Error; err != nil {
				return log.Err("failed to seed rate", err,
					"worker", worker.Name, "roomType", roomType)
			}
		}
	}

	log.Info("Seeded cleaning rates")
	return nil
}
