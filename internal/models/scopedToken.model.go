package models

import (
	"github.com/google/uuid"
)

type TokenSubject string

const (
	SubjectWorker TokenSubject = "worker"
	SubjectGuest  TokenSubject = "guest"
)

func (s TokenSubject) Valid() bool {
	return s == SubjectWorker || s == SubjectGuest
}

// ScopedToken is an opaque bearer credential valid for exactly one subject
// and one civil date. At most one valid row per (subjectType, subjectID,
// dateKey) is live at a time; issuance reuses the live row instead of
// minting a duplicate. Revocation is irreversible.
type ScopedToken struct {
	BaseUUIDModel
	Token       string       `gorm:"type:text;not null;uniqueIndex" json:"-"`
	SubjectType TokenSubject `gorm:"type:text;not null;index:idx_scoped_tokens_subject_day" json:"subjectType"`
	SubjectID   uuid.UUID    `gorm:"type:uuid;not null;index:idx_scoped_tokens_subject_day" json:"subjectId"`
	DateKey     string       `gorm:"type:text;not null;index:idx_scoped_tokens_subject_day" json:"dateKey"`
	Valid       bool         `gorm:"type:bool;not null;default:true" json:"valid"`
}

// TokenScope is what verification hands back to callers. The token value
// itself never round-trips.
type TokenScope struct {
	SubjectType TokenSubject `json:"subjectType"`
	SubjectID   uuid.UUID    `json:"subjectId"`
	DateKey     string       `json:"dateKey"`
}
