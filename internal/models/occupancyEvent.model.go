package models

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventCheckin  EventKind = "checkin"
	EventCheckout EventKind = "checkout"
)

func (k EventKind) Valid() bool {
	return k == EventCheckin || k == EventCheckout
}

// OccupancyEvent is an immutable occupancy fact. Rows are inserted once and
// never updated; administrative correction deletes and re-appends. DateKey is
// the civil date the event was recorded under, stored redundantly so range
// queries never re-derive timezone math.
type OccupancyEvent struct {
	BaseUUIDModel
	RoomID     uuid.UUID `gorm:"type:uuid;not null;index:idx_occupancy_events_room_day" json:"roomId"`
	GuestID    uuid.UUID `gorm:"type:uuid;not null;index"                               json:"guestId"`
	Kind       EventKind `gorm:"type:text;not null"                                     json:"kind"`
	OccurredAt time.Time `gorm:"not null"                                               json:"occurredAt"`
	Verified   bool      `gorm:"type:bool;default:false"                                json:"verified"`
	DateKey    string    `gorm:"type:text;not null;index:idx_occupancy_events_room_day" json:"dateKey"`
}

// OccupancyProjection is the read-time view derived from the event log.
// CheckedIn/CheckedOut are existence checks; the instants use earliest
// arrival and latest departure when correction leaves duplicate facts.
type OccupancyProjection struct {
	GuestID        uuid.UUID  `json:"guestId"`
	CheckedIn      bool       `json:"checkedIn"`
	CheckedOut     bool       `json:"checkedOut"`
	FirstCheckinAt *time.Time `json:"firstCheckinAt,omitempty"`
	LastCheckoutAt *time.Time `json:"lastCheckoutAt,omitempty"`
}
