package alerts

import (
	"context"
	"testing"

	"github.com/sentinela-health/platform/pkg/common/logger"
	"gorm.io/gorm"
)

func init() {
	logger.Init()
}

type memStore struct {
	alerts []*Alert
}

func (m *memStore) OpenExists(ctx context.Context, subjectID uint, alertType string) (bool, error) {
	for _, a := range m.alerts {
		if a.SubjectID == subjectID && a.Type == alertType &&
			(a.State == StateActive || a.State == StateAcknowledged) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Create(ctx context.Context, alert *Alert) error {
	m.alerts = append(m.alerts, alert)
	return nil
}

type recordingFeed struct {
	events []string
}

func (f *recordingFeed) PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error {
	f.events = append(f.events, eventType)
	return nil
}

func escalationInput(subjectID uint) CreateInput {
	return CreateInput{
		SubjectID:   subjectID,
		ReviewerID:  3,
		Type:        TypeRiskEscalation,
		Severity:    SeverityHigh,
		Title:       "Escalating risk pattern",
		Description: "Recent entries show a sustained high-risk pattern.",
		Trigger:     map[string]interface{}{"bucket": "high", "trend": "escalating"},
	}
}

func TestMaybeCreateInsertsActiveAlert(t *testing.T) {
	store := &memStore{}
	feed := &recordingFeed{}
	gen := NewGenerator(store, feed)

	alert, err := gen.MaybeCreate(context.Background(), escalationInput(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert == nil {
		t.Fatal("expected a new alert")
	}
	if alert.State != StateActive {
		t.Fatalf("new alerts start active, got %q", alert.State)
	}
	if alert.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}
	if len(feed.events) != 1 || feed.events[0] != "alert.created" {
		t.Fatalf("expected alert.created on the feed, got %v", feed.events)
	}
}

func TestMaybeCreateDedupesOpenPair(t *testing.T) {
	store := &memStore{}
	gen := NewGenerator(store, nil)
	ctx := context.Background()

	first, err := gen.MaybeCreate(ctx, escalationInput(7))
	if err != nil || first == nil {
		t.Fatalf("first call should create: alert=%v err=%v", first, err)
	}

	second, err := gen.MaybeCreate(ctx, escalationInput(7))
	if err != nil {
		t.Fatalf("duplicate call must no-op, not error: %v", err)
	}
	if second != nil {
		t.Fatal("expected no-op while first alert is still active")
	}
	if len(store.alerts) != 1 {
		t.Fatalf("expected exactly one row for the pair, got %d", len(store.alerts))
	}

	// A different type for the same subject is a distinct pair.
	other, err := gen.MaybeCreate(ctx, CreateInput{
		SubjectID: 7, ReviewerID: 3, Type: TypeRelapseRisk, Severity: SeverityMedium,
		Title: "Relapse risk", Description: "Long-horizon mood deterioration.",
	})
	if err != nil || other == nil {
		t.Fatalf("different alert type should create: alert=%v err=%v", other, err)
	}
}

// racingStore reports no open alert but rejects the insert with a
// duplicate-key error, the sequence a concurrent tick produces when it wins
// the check-then-insert race against the partial unique index.
type racingStore struct {
	createCalls int
}

func (m *racingStore) OpenExists(ctx context.Context, subjectID uint, alertType string) (bool, error) {
	return false, nil
}

func (m *racingStore) Create(ctx context.Context, alert *Alert) error {
	m.createCalls++
	return gorm.ErrDuplicatedKey
}

func TestMaybeCreateLostInsertRaceIsNoOp(t *testing.T) {
	store := &racingStore{}
	feed := &recordingFeed{}
	gen := NewGenerator(store, feed)

	alert, err := gen.MaybeCreate(context.Background(), escalationInput(7))
	if err != nil {
		t.Fatalf("losing the insert race must be benign, got error: %v", err)
	}
	if alert != nil {
		t.Fatal("expected no alert from the losing side")
	}
	if store.createCalls != 1 {
		t.Fatalf("expected a single insert attempt, got %d", store.createCalls)
	}
	if len(feed.events) != 0 {
		t.Fatalf("losing side must not publish, got %v", feed.events)
	}
}

func TestMaybeCreateDedupesAcknowledgedAlertToo(t *testing.T) {
	store := &memStore{}
	gen := NewGenerator(store, nil)
	ctx := context.Background()

	first, err := gen.MaybeCreate(ctx, escalationInput(7))
	if err != nil || first == nil {
		t.Fatalf("setup create failed: %v", err)
	}
	first.State = StateAcknowledged

	dup, err := gen.MaybeCreate(ctx, escalationInput(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup != nil {
		t.Fatal("acknowledged alerts still block duplicates")
	}
}

func TestMaybeCreateAllowsNewAlertAfterResolve(t *testing.T) {
	store := &memStore{}
	gen := NewGenerator(store, nil)
	ctx := context.Background()

	first, err := gen.MaybeCreate(ctx, escalationInput(7))
	if err != nil || first == nil {
		t.Fatalf("setup create failed: %v", err)
	}
	first.State = StateResolved

	next, err := gen.MaybeCreate(ctx, escalationInput(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next == nil {
		t.Fatal("resolved alerts must not block new ones")
	}
}
