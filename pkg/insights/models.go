package insights

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WeeklyInsight is one generated trend report for a (subject, reviewer)
// pair. Insights are append-only: the latest one is found by generated_at,
// older ones remain as an audit trail.
type WeeklyInsight struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	SubjectID   uint              `gorm:"column:subject_id;index" json:"subject_id"`
	ReviewerID  uint              `gorm:"column:reviewer_id;index" json:"reviewer_id"`
	GeneratedAt time.Time         `gorm:"column:generated_at;index" json:"generated_at"`
	Content     datatypes.JSONMap `gorm:"column:content" json:"content"`
	Severity    string            `gorm:"column:severity" json:"severity"`
}

func (WeeklyInsight) TableName() string {
	return "weekly_insights"
}
