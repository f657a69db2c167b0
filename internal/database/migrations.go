package database

import (
	"stayops/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []interface{}{
		&models.Room{},
		&models.CleaningWorker{},
		&models.Reservation{},
		&models.OccupancyEvent{},
		&models.CleaningTask{},
		&models.CleaningTaskPhoto{},
		&models.CleaningRate{},
		&models.ScopedToken{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates indexes GORM tags cannot express. The partial unique
// indexes are the serialization points: scoped_tokens settles concurrent
// issuance for the same (subject, day) pair to a single live token, and
// occupancy_events settles concurrent appends of the same (guest, kind) fact
// to a single row. Administrative correction hard-deletes event rows, so the
// deleted_at filter never blocks a delete-and-re-append.
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_scoped_tokens_one_live ON scoped_tokens(subject_type, subject_id, date_key) WHERE valid AND deleted_at IS NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_occupancy_events_guest_kind ON occupancy_events(guest_id, kind) WHERE deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_cleaning_tasks_worker_day ON cleaning_tasks(worker_id, date_key)",
		"CREATE INDEX IF NOT EXISTS idx_cleaning_task_photos_uploaded_at ON cleaning_task_photos(uploaded_at)",
	}

	for _, index := range indexes {
		if err := db.SQL.Exec(index).Error; err != nil {
			return log.Err("failed to create index", err, "index", index)
		}
	}

	log.Info("Additional indexes created successfully")
	return nil
}
