package consent

import "time"

// Processing purposes recognized by the gate.
const (
	PurposeDataProcessing = "data_processing"
	PurposeAIAnalysis     = "ai_analysis"
)

// Consent audit actions.
const (
	ActionGranted = "granted"
	ActionRevoked = "revoked"
)

// Record is one consent decision for a (subject, purpose) pair. The most
// recent record wins; no record at all means not granted.
type Record struct {
	ID         uint      `gorm:"primaryKey;column:id" json:"id"`
	SubjectID  uint      `gorm:"column:subject_id;index:idx_consent_subject_purpose" json:"subject_id"`
	Purpose    string    `gorm:"column:purpose;index:idx_consent_subject_purpose" json:"purpose"`
	Granted    bool      `gorm:"column:granted" json:"granted"`
	RecordedAt time.Time `gorm:"column:recorded_at" json:"recorded_at"`
}

func (Record) TableName() string {
	return "consent_records"
}

// AuditEntry is an append-only trail of consent actions, kept for audit
// regardless of the current state of the matching Record.
type AuditEntry struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	SubjectID uint      `gorm:"column:subject_id;index" json:"subject_id"`
	Purpose   string    `gorm:"column:purpose" json:"purpose"`
	Action    string    `gorm:"column:action" json:"action"`
	Reason    string    `gorm:"column:reason" json:"reason,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (AuditEntry) TableName() string {
	return "consent_audit"
}
