package model

import (
	"time"

	"gorm.io/datatypes"
)

// MainTreeKey is the singleton_key of the only tree_state row.
const MainTreeKey = "main_tree"

type TreeState struct {
	SingletonKey string         `gorm:"type:varchar(32);primaryKey"`
	Items        datatypes.JSON `gorm:"type:jsonb"`
	Roots        datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

func (TreeState) TableName() string {
	return "tree_state"
}
