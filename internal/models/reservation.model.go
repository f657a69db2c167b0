package models

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is the guest record. Guests never hold passwords; AccessToken
// is the opaque capability minted at booking entry, scoped to this
// reservation and inert once PlannedEnd's civil day has elapsed.
type Reservation struct {
	BaseUUIDModel
	RoomID       *uuid.UUID `gorm:"type:uuid;index"    json:"roomId"`
	Room         *Room      `gorm:"foreignKey:RoomID"  json:"room,omitempty"`
	GuestName    string     `gorm:"type:text;not null" json:"guestName"`
	Contact      string     `gorm:"type:text"          json:"contact"`
	PlannedStart time.Time  `gorm:"not null"           json:"plannedStart"`
	PlannedEnd   time.Time  `gorm:"not null;index"     json:"plannedEnd"`
	AccessToken  string     `gorm:"type:text;index"    json:"-"`
}

// HasRoom reports whether the reservation has an assigned room. Occupancy
// facts are refused for roomless reservations.
func (r *Reservation) HasRoom() bool {
	return r.RoomID != nil && *r.RoomID != uuid.Nil
}
