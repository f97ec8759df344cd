package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Note is one stored object under notes/data/<id>. Meta holds every
// non-content field except id and title.
type Note struct {
	Id        string         `gorm:"type:varchar(128);primaryKey"`
	Title     string         `gorm:"type:text;not null;default:''"`
	Content   string         `gorm:"type:text"`
	Meta      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Note) TableName() string {
	return "notes"
}
