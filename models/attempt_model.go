package models

import "time"

// Attempt is owned by a single User. QuizID is a plain back-reference and may
// outlive the quiz it points at.
type Attempt struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	UserID    string    `gorm:"type:char(24);not null;index" json:"-"`
	QuizID    string    `gorm:"type:char(24);not null;index" json:"quizId"`
	Score     float64   `gorm:"not null" json:"score"`
	DateTaken time.Time `gorm:"not null" json:"dateTaken"`
}
