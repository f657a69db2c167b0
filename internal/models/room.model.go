package models

type Room struct {
	BaseUUIDModel
	Number   string `gorm:"type:text;not null;uniqueIndex" json:"number"`
	RoomType string `gorm:"type:text;not null"             json:"roomType"`
	Floor    int    `gorm:"type:int"                       json:"floor"`
	IsActive bool   `gorm:"type:bool;default:true"         json:"isActive"`
}
