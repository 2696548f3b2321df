package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sentinela-health/platform/pkg/common/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeneratorStore is the persistence surface the generator needs;
// *Repository satisfies it.
type GeneratorStore interface {
	OpenExists(ctx context.Context, subjectID uint, alertType string) (bool, error)
	Create(ctx context.Context, alert *Alert) error
}

// Feed publishes alert events downstream; *kafka.Producer satisfies it.
type Feed interface {
	PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error
}

const feedSource = "risk-engine"

// Generator is the single enforcement point for the alert dedup invariant:
// no other code path inserts alerts.
type Generator struct {
	store GeneratorStore
	feed  Feed
}

func NewGenerator(store GeneratorStore, feed Feed) *Generator {
	return &Generator{store: store, feed: feed}
}

// MaybeCreate inserts a new active alert unless an active or acknowledged
// one already exists for the (subject, type) pair, in which case it no-ops
// and returns nil. It never escalates an existing alert's severity.
func (g *Generator) MaybeCreate(ctx context.Context, input CreateInput) (*Alert, error) {
	exists, err := g.store.OpenExists(ctx, input.SubjectID, input.Type)
	if err != nil {
		return nil, fmt.Errorf("checking open alerts for subject %d: %w", input.SubjectID, err)
	}
	if exists {
		return nil, nil
	}

	now := time.Now().UTC()
	alert := &Alert{
		ID:              uuid.New(),
		SubjectID:       input.SubjectID,
		ReviewerID:      input.ReviewerID,
		Type:            input.Type,
		Severity:        input.Severity,
		Title:           input.Title,
		Description:     input.Description,
		Recommendations: datatypes.NewJSONSlice(input.Recommendations),
		Trigger:         datatypes.JSONMap(input.Trigger),
		State:           StateActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := g.store.Create(ctx, alert); err != nil {
		// A concurrent tick may have won the check-then-insert race; the
		// partial unique index turns that into a duplicate-key error, which
		// is the same no-op as finding the alert up front.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("creating alert for subject %d: %w", input.SubjectID, err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"alert_id":   alert.ID,
		"subject_id": alert.SubjectID,
		"alert_type": alert.Type,
		"severity":   alert.Severity,
	}).Info("alert created")

	g.publish(ctx, "alert.created", alert)
	return alert, nil
}

// publish pushes an alert event onto the feed. The alert row is already
// consistent at this point, so a feed failure is logged, not propagated.
func (g *Generator) publish(ctx context.Context, eventType string, alert *Alert) {
	if g.feed == nil {
		return
	}
	data := map[string]interface{}{
		"alert_id":    alert.ID.String(),
		"subject_id":  alert.SubjectID,
		"reviewer_id": alert.ReviewerID,
		"alert_type":  alert.Type,
		"severity":    alert.Severity,
		"state":       alert.State,
	}
	if err := g.feed.PublishEvent(ctx, eventType, feedSource, data); err != nil {
		logger.Log.WithError(err).WithField("alert_id", alert.ID).Warn("alert feed publish failed")
	}
}
