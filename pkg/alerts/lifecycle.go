package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sentinela-health/platform/pkg/common/logger"
)

// Illegal transitions are hard errors, never coerced into a different
// transition; they usually signal a client race the caller should see.
var (
	ErrAlreadyAcknowledged = errors.New("alert already acknowledged")
	ErrAlreadyResolved     = errors.New("alert already resolved")
	ErrNotResolved         = errors.New("alert is not resolved")
)

// LifecycleStore is the conditional-transition surface the lifecycle
// manager needs; *Repository satisfies it.
type LifecycleStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Alert, error)
	Acknowledge(ctx context.Context, id uuid.UUID, byUserID uint, at time.Time) (bool, error)
	Resolve(ctx context.Context, id uuid.UUID, byUserID uint, at time.Time) (bool, error)
	Reactivate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// Lifecycle owns the alert state machine:
// active → acknowledged → resolved, with resolved → active reactivation.
// Ownership (only the alert's reviewer may transition it) is validated by
// the caller before these methods run.
type Lifecycle struct {
	store LifecycleStore
	feed  Feed
}

func NewLifecycle(store LifecycleStore, feed Feed) *Lifecycle {
	return &Lifecycle{store: store, feed: feed}
}

// Acknowledge requires state active and records who acknowledged and when.
func (l *Lifecycle) Acknowledge(ctx context.Context, id uuid.UUID, byUserID uint) (*Alert, error) {
	now := time.Now().UTC()
	moved, err := l.store.Acknowledge(ctx, id, byUserID, now)
	if err != nil {
		return nil, fmt.Errorf("acknowledging alert %s: %w", id, err)
	}
	if !moved {
		return nil, l.transitionError(ctx, id, StateActive)
	}

	alert, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	l.logTransition(alert, "alert acknowledged")
	l.publish(ctx, "alert.acknowledged", alert)
	return alert, nil
}

// Resolve is permitted from active or acknowledged. An alert cannot be
// resolved without an acknowledgment record, so resolving an unacknowledged
// alert backfills the acknowledgment with the resolver's identity.
func (l *Lifecycle) Resolve(ctx context.Context, id uuid.UUID, byUserID uint) (*Alert, error) {
	now := time.Now().UTC()
	moved, err := l.store.Resolve(ctx, id, byUserID, now)
	if err != nil {
		return nil, fmt.Errorf("resolving alert %s: %w", id, err)
	}
	if !moved {
		alert, getErr := l.store.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if alert.State == StateResolved {
			return nil, ErrAlreadyResolved
		}
		return nil, fmt.Errorf("alert %s in unexpected state %q", id, alert.State)
	}

	alert, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	l.logTransition(alert, "alert resolved")
	l.publish(ctx, "alert.resolved", alert)
	return alert, nil
}

// Reactivate is permitted only from resolved. It clears resolved_at and
// leaves the prior acknowledgment untouched, preserving the audit history
// of the previous cycle.
func (l *Lifecycle) Reactivate(ctx context.Context, id uuid.UUID) (*Alert, error) {
	now := time.Now().UTC()
	moved, err := l.store.Reactivate(ctx, id, now)
	if err != nil {
		return nil, fmt.Errorf("reactivating alert %s: %w", id, err)
	}
	if !moved {
		if _, getErr := l.store.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, ErrNotResolved
	}

	alert, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	l.logTransition(alert, "alert reactivated")
	l.publish(ctx, "alert.reactivated", alert)
	return alert, nil
}

// transitionError inspects current state to report why a conditional
// transition matched no rows.
func (l *Lifecycle) transitionError(ctx context.Context, id uuid.UUID, requiredState string) error {
	alert, err := l.store.Get(ctx, id)
	if err != nil {
		return err
	}
	switch alert.State {
	case StateAcknowledged:
		return ErrAlreadyAcknowledged
	case StateResolved:
		return ErrAlreadyResolved
	default:
		return fmt.Errorf("alert %s in unexpected state %q, required %q", id, alert.State, requiredState)
	}
}

func (l *Lifecycle) logTransition(alert *Alert, message string) {
	logger.Log.WithFields(map[string]interface{}{
		"alert_id": alert.ID,
		"state":    alert.State,
	}).Info(message)
}

func (l *Lifecycle) publish(ctx context.Context, eventType string, alert *Alert) {
	if l.feed == nil {
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
	if err := l.feed.PublishEvent(ctx, eventType, feedSource, data); err != nil {
		logger.Log.WithError(err).WithField("alert_id", alert.ID).Warn("alert feed publish failed")
	}
}
