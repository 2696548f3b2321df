package alerts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Lifecycle states. Resolved alerts are kept for audit and may be
// reactivated; they are never deleted.
const (
	StateActive       = "active"
	StateAcknowledged = "acknowledged"
	StateResolved     = "resolved"
)

// Alert types emitted by this engine.
const (
	TypeRiskEscalation = "risk_escalation"
	TypeRelapseRisk    = "relapse_risk"
	TypeTrendWeekly    = "trend_weekly"
)

// Severities, matching the analyzer's risk levels.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Alert is the clinician-facing record for one detected risk condition.
// Invariant: at most one alert in state active or acknowledged exists per
// (subject, alert type) pair; the Generator is the only insert path.
type Alert struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	SubjectID       uint                        `gorm:"column:subject_id;index:idx_alerts_subject_type" json:"subject_id"`
	ReviewerID      uint                        `gorm:"column:reviewer_id;index" json:"reviewer_id"`
	Type            string                      `gorm:"column:alert_type;index:idx_alerts_subject_type" json:"alert_type"`
	Severity        string                      `gorm:"column:severity" json:"severity"`
	Title           string                      `gorm:"column:title" json:"title"`
	Description     string                      `gorm:"column:description" json:"description"`
	Recommendations datatypes.JSONSlice[string] `gorm:"column:recommendations" json:"recommendations,omitempty"`
	Trigger         datatypes.JSONMap           `gorm:"column:trigger_payload" json:"trigger_payload,omitempty"`
	State           string                      `gorm:"column:state;index" json:"state"`
	CreatedAt       time.Time                   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time                   `gorm:"column:updated_at" json:"updated_at"`
	AcknowledgedAt  *time.Time                  `gorm:"column:acknowledged_at" json:"acknowledged_at,omitempty"`
	AcknowledgedBy  *uint                       `gorm:"column:acknowledged_by" json:"acknowledged_by,omitempty"`
	ResolvedAt      *time.Time                  `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
}

func (Alert) TableName() string {
	return "clinical_alerts"
}

// CreateInput is what the Generator needs to decide on a new alert.
type CreateInput struct {
	SubjectID       uint
	ReviewerID      uint
	Type            string
	Severity        string
	Title           string
	Description     string
	Recommendations []string
	Trigger         map[string]interface{}
}
