package carelink

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Link{})
}

// ActivePairs returns up to limit links that are active with consent,
// oldest acceptance first so long-standing pairs are refreshed before
// recent ones.
func (r *Repository) ActivePairs(ctx context.Context, limit int) ([]Link, error) {
	if limit <= 0 {
		limit = 20
	}
	var links []Link
	result := r.db.WithContext(ctx).
		Where("status = ? AND consent_active = ?", StatusActive, true).
		Order("accepted_at asc").
		Limit(limit).
		Find(&links)
	return links, result.Error
}

// Revoke deactivates a link and its consent; the row is kept for audit.
func (r *Repository) Revoke(ctx context.Context, linkID uint, reason string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&Link{}).
		Where("id = ?", linkID).
		Updates(map[string]interface{}{
			"status":         StatusRevoked,
			"consent_active": false,
			"revoked_at":     now,
			"revoke_reason":  reason,
		}).Error
}
