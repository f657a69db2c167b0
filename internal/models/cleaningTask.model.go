package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
	TaskSkipped    TaskStatus = "SKIPPED"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskDone, TaskSkipped:
		return true
	}
	return false
}

func (s TaskStatus) IsTerminal() bool {
	return s == TaskDone || s == TaskSkipped
}

// CanTransition reports whether a worker may move a task from s to next.
// Workers walk PENDING -> IN_PROGRESS -> DONE and may skip from any
// non-terminal state. Admin callers bypass this check entirely: resetting a
// DONE or SKIPPED task back to PENDING is always permitted, so forward-only
// ordering is policy at the call site, not a store constraint.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	if !next.Valid() || s == next {
		return s == next && next.Valid()
	}
	switch s {
	case TaskPending:
		return next == TaskInProgress || next == TaskDone || next == TaskSkipped
	case TaskInProgress:
		return next == TaskDone || next == TaskSkipped
	}
	return false
}

// CleaningTask is the unique (room, civil day) unit of housekeeping work.
// Upsert with a TaskPatch is the only creation path.
type CleaningTask struct {
	BaseUUIDModel
	RoomID             uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_cleaning_tasks_room_day" json:"roomId"`
	Room               *Room                `gorm:"foreignKey:RoomID"                                          json:"room,omitempty"`
	DateKey            string               `gorm:"type:text;not null;uniqueIndex:idx_cleaning_tasks_room_day" json:"dateKey"`
	WorkerID           *uuid.UUID           `gorm:"type:uuid;index"                                            json:"workerId"`
	Worker             *CleaningWorker      `gorm:"foreignKey:WorkerID"                                        json:"worker,omitempty"`
	GuestID            *uuid.UUID           `gorm:"type:uuid"                                                  json:"guestId"`
	Status             TaskStatus           `gorm:"type:text;not null;default:PENDING"                         json:"status"`
	ObservedCheckoutAt *time.Time           `gorm:"type:timestamptz"                                           json:"observedCheckoutAt"`
	Memo               string               `gorm:"type:text"                                                  json:"memo"`
	Photos             []CleaningTaskPhoto  `gorm:"foreignKey:TaskID"                                          json:"photos"`
}

// CleaningTaskPhoto is append-only evidence owned by its task. Rows are
// removed only by the age-based retention purge, never by task mutation.
type CleaningTaskPhoto struct {
	BaseUUIDModel
	TaskID     uuid.UUID `gorm:"type:uuid;not null;index" json:"taskId"`
	URL        string    `gorm:"type:text;not null"       json:"url"`
	UploadedAt time.Time `gorm:"not null;index"           json:"uploadedAt"`
}

// TaskPatch is the explicit partial-update type for task upserts. Nil fields
// are left untouched on merge; there is no way to clear a field through a
// patch, which is what lets concurrent assignment triggers compose instead
// of clobbering each other.
type TaskPatch struct {
	WorkerID           *uuid.UUID `json:"workerId,omitempty"`
	GuestID            *uuid.UUID `json:"guestId,omitempty"`
	ObservedCheckoutAt *time.Time `json:"observedCheckoutAt,omitempty"`
	Memo               *string    `json:"memo,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.WorkerID == nil && p.GuestID == nil && p.ObservedCheckoutAt == nil && p.Memo == nil
}

// Updates renders the patch as a column map for the store layer. Only set
// fields appear.
func (p TaskPatch) Updates() map[string]any {
	updates := make(map[string]any)
	if p.WorkerID != nil {
		updates["worker_id"] = *p.WorkerID
	}
	if p.GuestID != nil {
		updates["guest_id"] = *p.GuestID
	}
	if p.ObservedCheckoutAt != nil {
		updates["observed_checkout_at"] = *p.ObservedCheckoutAt
	}
	if p.Memo != nil {
		updates["memo"] = *p.Memo
	}
	return updates
}

// ApplyTo merges the patch into an in-memory task, mirroring Updates.
func (p TaskPatch) ApplyTo(task *CleaningTask) {
	if p.WorkerID != nil {
		task.WorkerID = p.WorkerID
	}
	if p.GuestID != nil {
		task.GuestID = p.GuestID
	}
	if p.ObservedCheckoutAt != nil {
		task.ObservedCheckoutAt = p.ObservedCheckoutAt
	}
	if p.Memo != nil {
		task.Memo = *p.Memo
	}
}
