package carelink

import "time"

// Link statuses. A link starts pending when the reviewer invites the
// subject; accepting it activates consent, revoking it deactivates.
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusRevoked = "revoked"
	StatusExpired = "expired"
)

// Link is the bond between a subject and the clinician responsible for
// them. Only active links with active consent participate in batch
// processing.
type Link struct {
	ID            uint       `gorm:"primaryKey;column:id" json:"id"`
	ReviewerID    uint       `gorm:"column:reviewer_id;index" json:"reviewer_id"`
	SubjectID     uint       `gorm:"column:subject_id;index" json:"subject_id"`
	Status        string     `gorm:"column:status;index" json:"status"`
	ConsentActive bool       `gorm:"column:consent_active" json:"consent_active"`
	InvitedAt     time.Time  `gorm:"column:invited_at" json:"invited_at"`
	AcceptedAt    *time.Time `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	RevokedAt     *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`
	RevokeReason  string     `gorm:"column:revoke_reason" json:"revoke_reason,omitempty"`
}

func (Link) TableName() string {
	return "care_links"
}
