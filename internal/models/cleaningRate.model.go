package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CleaningRate prices one worker cleaning one room type. There is no
// temporal versioning: editing a rate changes past settlement totals the
// next time they are computed.
type CleaningRate struct {
	BaseModel
	WorkerID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cleaning_rates_worker_type" json:"workerId"`
	Worker   *CleaningWorker `gorm:"foreignKey:WorkerID"                                           json:"worker,omitempty"`
	RoomType string          `gorm:"type:text;not null;uniqueIndex:idx_cleaning_rates_worker_type" json:"roomType"`
	Amount   decimal.Decimal `gorm:"type:numeric(12,2);not null"                                   json:"amount"`
}
