package models

import (
	"time"

	"gorm.io/datatypes"
)

type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

type Quiz struct {
	ID          string                        `gorm:"type:char(24);primaryKey" json:"_id"`
	Title       string                        `gorm:"size:255;not null" json:"title"`
	Description string                        `gorm:"type:text;not null" json:"description"`
	Category    string                        `gorm:"size:255;not null;index" json:"category"`
	Questions   datatypes.JSONSlice[Question] `json:"questions"`
	CreatorID   *string                       `gorm:"type:char(24);index" json:"creator,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
