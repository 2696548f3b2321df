package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("alert not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	if err := r.db.AutoMigrate(&Alert{}); err != nil {
		return err
	}
	// Defense in depth for the dedup invariant: a partial unique index on
	// open alerts per (subject, type). The Generator remains the primary
	// enforcement point.
	return r.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_open_pair
		ON clinical_alerts (subject_id, alert_type)
		WHERE state IN ('active', 'acknowledged')
	`).Error
}

// OpenExists reports whether an active or acknowledged alert already exists
// for the (subject, type) pair.
func (r *Repository) OpenExists(ctx context.Context, subjectID uint, alertType string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&Alert{}).
		Where("subject_id = ? AND alert_type = ? AND state IN ?", subjectID, alertType, []string{StateActive, StateAcknowledged}).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) Create(ctx context.Context, alert *Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Alert, error) {
	var alert Alert
	result := r.db.WithContext(ctx).First(&alert, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &alert, result.Error
}

// Acknowledge moves an active alert to acknowledged. Returns false when the
// alert was not in state active.
func (r *Repository) Acknowledge(ctx context.Context, id uuid.UUID, byUserID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Alert{}).
		Where("id = ? AND state = ?", id, StateActive).
		Updates(map[string]interface{}{
			"state":           StateAcknowledged,
			"acknowledged_at": at,
			"acknowledged_by": byUserID,
			"updated_at":      at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Resolve moves an active or acknowledged alert to resolved, backfilling the
// acknowledgment with the resolver's identity when none exists. One
// conditional statement keeps the transition race-safe.
func (r *Repository) Resolve(ctx context.Context, id uuid.UUID, byUserID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Alert{}).
		Where("id = ? AND state IN ?", id, []string{StateActive, StateAcknowledged}).
		Updates(map[string]interface{}{
			"state":           StateResolved,
			"resolved_at":     at,
			"acknowledged_at": gorm.Expr("COALESCE(acknowledged_at, ?)", at),
			"acknowledged_by": gorm.Expr("COALESCE(acknowledged_by, ?)", byUserID),
			"updated_at":      at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Reactivate moves a resolved alert back to active, clearing resolved_at.
// The prior acknowledgment is left untouched.
func (r *Repository) Reactivate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Alert{}).
		Where("id = ? AND state = ?", id, StateResolved).
		Updates(map[string]interface{}{
			"state":       StateActive,
			"resolved_at": nil,
			"updated_at":  at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListByReviewer returns a reviewer's alerts, newest first, optionally
// filtered by state.
func (r *Repository) ListByReviewer(ctx context.Context, reviewerID uint, state string, limit int) ([]Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.db.WithContext(ctx).Where("reviewer_id = ?", reviewerID)
	if state != "" {
		query = query.Where("state = ?", state)
	}
	var list []Alert
	result := query.Order("created_at desc").Limit(limit).Find(&list)
	return list, result.Error
}

// SeveritySummary counts a reviewer's open alerts per severity.
func (r *Repository) SeveritySummary(ctx context.Context, reviewerID uint) (map[string]int, error) {
	var rows []struct {
		Severity string `gorm:"column:severity"`
		Count    int    `gorm:"column:count"`
	}
	result := r.db.WithContext(ctx).Model(&Alert{}).
		Select("severity, COUNT(*) AS count").
		Where("reviewer_id = ? AND state IN ?", reviewerID, []string{StateActive, StateAcknowledged}).
		Group("severity").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	summary := make(map[string]int, len(rows))
	for _, row := range rows {
		summary[row.Severity] = row.Count
	}
	return summary, nil
}
