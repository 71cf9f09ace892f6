package models

import "time"

type User struct {
	ID               string    `gorm:"type:char(24);primaryKey" json:"_id"`
	Username         string    `gorm:"size:255;not null;uniqueIndex" json:"username"`
	Email            string    `gorm:"size:255;not null;index" json:"email"`
	Password         string    `gorm:"not null" json:"-"`
	Role             Role      `gorm:"size:20;not null;default:'student'" json:"role"`
	RegistrationDate time.Time `gorm:"not null;<-:create" json:"registrationDate"`
	Avatar           *string   `gorm:"size:512" json:"avatar"`

	Attempts []Attempt `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"attempts"`
}

// AttemptsFor returns the user's attempts on quizID in the order they were recorded.
func (u *User) AttemptsFor(quizID string) []Attempt {
	var out []Attempt
	for _, a := range u.Attempts {
		if a.QuizID == quizID {
			out = append(out, a)
		}
	}
	return out
}
