package sessions

import "time"

// Session statuses as recorded by the scheduling system.
const (
	StatusScheduled = "scheduled"
	StatusHeld      = "held"
	StatusMissed    = "missed"
	StatusCanceled  = "canceled"
)

// Session is one therapy session between a subject and their reviewer.
// Written by the scheduling API; read-only to this engine.
type Session struct {
	ID          uint      `gorm:"primaryKey;column:id" json:"id"`
	SubjectID   uint      `gorm:"column:subject_id;index" json:"subject_id"`
	ReviewerID  uint      `gorm:"column:reviewer_id" json:"reviewer_id"`
	ScheduledAt time.Time `gorm:"column:scheduled_at;index" json:"scheduled_at"`
	Status      string    `gorm:"column:status" json:"status"`
}

func (Session) TableName() string {
	return "therapy_sessions"
}
