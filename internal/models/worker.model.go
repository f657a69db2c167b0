package models

type CleaningWorker struct {
	BaseUUIDModel
	Name     string `gorm:"type:text;not null"     json:"name"`
	Phone    string `gorm:"type:text"              json:"phone"`
	IsActive bool   `gorm:"type:bool;default:true" json:"isActive"`
}
