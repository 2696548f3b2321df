package orchestrator

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sentinela-health/platform/pkg/alerts"
	"github.com/sentinela-health/platform/pkg/common/logger"
	"github.com/sentinela-health/platform/pkg/common/models"
	"github.com/sentinela-health/platform/pkg/content"
)

func init() {
	logger.Init()
}

type fakeSelector struct {
	items []content.Item
	err   error
}

func (f *fakeSelector) SelectUnanalyzed(ctx context.Context, lookback time.Duration, batchSize int) ([]content.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.items) > batchSize {
		return f.items[:batchSize], nil
	}
	return f.items, nil
}

// fakeScorer maps item IDs to canned outcomes. Unmapped items score low.
type fakeScorer struct {
	outcomes map[uint]string
	verdicts map[uint]*models.Verdict
	errs     map[uint]error
	calls    []uint
}

func (f *fakeScorer) Score(ctx context.Context, item *content.Item) (string, *models.Verdict, error) {
	f.calls = append(f.calls, item.ID)
	if err := f.errs[item.ID]; err != nil {
		return "", nil, err
	}
	outcome, ok := f.outcomes[item.ID]
	if !ok {
		outcome = content.OutcomeScored
	}
	if outcome != content.OutcomeScored {
		return outcome, nil, nil
	}
	verdict := f.verdicts[item.ID]
	if verdict == nil {
		verdict = &models.Verdict{RiskLevel: models.RiskLow}
	}
	return content.OutcomeScored, verdict, nil
}

type fakeRiskAssessor struct {
	assessments map[uint]models.EscalationAssessment
	subjects    []uint
}

func (f *fakeRiskAssessor) AssessEscalation(ctx context.Context, subjectID uint) (models.EscalationAssessment, error) {
	f.subjects = append(f.subjects, subjectID)
	if a, ok := f.assessments[subjectID]; ok {
		return a, nil
	}
	return models.EscalationAssessment{SubjectID: subjectID, Bucket: models.RiskLow, Trend: models.TrendStable}, nil
}

type fakeSink struct {
	created []alerts.CreateInput
	dedup   map[string]bool
}

func (f *fakeSink) MaybeCreate(ctx context.Context, input alerts.CreateInput) (*alerts.Alert, error) {
	key := input.Type
	if f.dedup == nil {
		f.dedup = map[string]bool{}
	}
	dedupKey := key + "/" + strconv.FormatUint(uint64(input.SubjectID), 10)
	if f.dedup[dedupKey] {
		return nil, nil
	}
	f.dedup[dedupKey] = true
	f.created = append(f.created, input)
	return &alerts.Alert{SubjectID: input.SubjectID, Type: input.Type}, nil
}

type fakeWeekly struct {
	result models.ProcessingResult
	err    error
	calls  int
}

func (f *fakeWeekly) RunWeekly(ctx context.Context) (models.ProcessingResult, error) {
	f.calls++
	return f.result, f.err
}

func item(id, subjectID uint, authoredAgo time.Duration) content.Item {
	return content.Item{ID: id, SubjectID: subjectID, ReviewerID: 10, AuthoredAt: time.Now().UTC().Add(-authoredAgo)}
}

func newTestEngine(selector Selector, scorer ItemScorer, assessor RiskAssessor, sink AlertSink) *Engine {
	return NewEngine(selector, scorer, assessor, sink, &fakeWeekly{}, 7*24*time.Hour, 50)
}

func TestRunEntryBatchCountsOutcomes(t *testing.T) {
	selector := &fakeSelector{items: []content.Item{
		item(1, 1, time.Hour), item(2, 1, 2*time.Hour), item(3, 2, 3*time.Hour), item(4, 3, 4*time.Hour),
	}}
	scorer := &fakeScorer{
		outcomes: map[uint]string{
			2: content.OutcomeSkippedConsent,
			3: content.OutcomeSkippedLowSignal,
			4: content.OutcomeLostRace,
		},
	}
	engine := newTestEngine(selector, scorer, &fakeRiskAssessor{}, &fakeSink{})

	result, err := engine.RunEntryBatch(context.Background())
	if err != nil {
		t.Fatalf("RunEntryBatch failed: %v", err)
	}
	if result.Processed != 4 {
		t.Errorf("expected 4 processed, got %d", result.Processed)
	}
	if result.Scored != 1 || result.SkippedConsent != 1 || result.SkippedLowSignal != 1 {
		t.Errorf("unexpected outcome counts: %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}
}

func TestRunEntryBatchOneFailureDoesNotAbort(t *testing.T) {
	selector := &fakeSelector{items: []content.Item{
		item(1, 1, time.Hour), item(2, 2, 2*time.Hour), item(3, 3, 3*time.Hour),
	}}
	scorer := &fakeScorer{errs: map[uint]error{2: errors.New("analyzer timeout")}}
	engine := newTestEngine(selector, scorer, &fakeRiskAssessor{}, &fakeSink{})

	result, err := engine.RunEntryBatch(context.Background())
	if err != nil {
		t.Fatalf("batch must not abort on one item's failure: %v", err)
	}
	if len(scorer.calls) != 3 {
		t.Fatalf("all items should be attempted, got %d calls", len(scorer.calls))
	}
	if result.Scored != 2 {
		t.Errorf("expected 2 scored, got %d", result.Scored)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "item 2") {
		t.Errorf("expected one error naming item 2, got %v", result.Errors)
	}
}

func TestRunEntryBatchHighVerdictAlert(t *testing.T) {
	selector := &fakeSelector{items: []content.Item{item(1, 5, time.Hour)}}
	scorer := &fakeScorer{verdicts: map[uint]*models.Verdict{
		1: {RiskLevel: models.RiskCritical, DominantEmotion: "tristeza"},
	}}
	sink := &fakeSink{}
	engine := newTestEngine(selector, scorer, &fakeRiskAssessor{}, sink)

	result, err := engine.RunEntryBatch(context.Background())
	if err != nil {
		t.Fatalf("RunEntryBatch failed: %v", err)
	}
	if result.AlertsGenerated != 1 {
		t.Fatalf("expected 1 alert, got %d", result.AlertsGenerated)
	}
	created := sink.created[0]
	if created.Type != alerts.TypeRiskEscalation || created.Severity != models.RiskCritical {
		t.Errorf("unexpected alert: type=%s severity=%s", created.Type, created.Severity)
	}
	if _, ok := created.Trigger["item_id"]; !ok {
		t.Errorf("trigger payload should reference the item")
	}
	if _, ok := created.Trigger["text"]; ok {
		t.Errorf("trigger payload must never carry entry text")
	}
}

func TestRunEntryBatchAssessesEachScoredSubjectOnce(t *testing.T) {
	selector := &fakeSelector{items: []content.Item{
		item(1, 1, time.Hour), item(2, 1, 2*time.Hour), item(3, 2, 3*time.Hour),
	}}
	assessor := &fakeRiskAssessor{
		assessments: map[uint]models.EscalationAssessment{
			2: {SubjectID: 2, Bucket: models.RiskHigh, Trend: models.TrendEscalating, Confidence: 0.8},
		},
	}
	sink := &fakeSink{}
	engine := newTestEngine(selector, &fakeScorer{}, assessor, sink)

	result, err := engine.RunEntryBatch(context.Background())
	if err != nil {
		t.Fatalf("RunEntryBatch failed: %v", err)
	}
	if len(assessor.subjects) != 2 {
		t.Fatalf("expected 2 subject assessments, got %v", assessor.subjects)
	}
	if result.AlertsGenerated != 1 {
		t.Fatalf("only the high-bucket subject should alert, got %d", result.AlertsGenerated)
	}
	if sink.created[0].SubjectID != 2 {
		t.Errorf("alert attributed to wrong subject: %d", sink.created[0].SubjectID)
	}
}

func TestRunEntryBatchSelectorErrorBubbles(t *testing.T) {
	engine := newTestEngine(&fakeSelector{err: errors.New("connection refused")}, &fakeScorer{}, &fakeRiskAssessor{}, &fakeSink{})

	if _, err := engine.RunEntryBatch(context.Background()); err == nil {
		t.Fatal("a fully-failed batch must surface an error")
	}
}

func TestRunEntryBatchStopsOnCancellation(t *testing.T) {
	selector := &fakeSelector{items: []content.Item{item(1, 1, time.Hour), item(2, 2, 2*time.Hour)}}
	scorer := &fakeScorer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := newTestEngine(selector, scorer, &fakeRiskAssessor{}, &fakeSink{})

	_, err := engine.RunEntryBatch(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(scorer.calls) != 0 {
		t.Errorf("no item should be scored after cancellation")
	}
}

func TestRunWeeklyInsightsDelegates(t *testing.T) {
	weekly := &fakeWeekly{result: models.ProcessingResult{Processed: 3, InsightsGenerated: 2}}
	engine := NewEngine(&fakeSelector{}, &fakeScorer{}, &fakeRiskAssessor{}, &fakeSink{}, weekly, 0, 0)

	result, err := engine.RunWeeklyInsights(context.Background())
	if err != nil {
		t.Fatalf("RunWeeklyInsights failed: %v", err)
	}
	if weekly.calls != 1 || result.InsightsGenerated != 2 {
		t.Fatalf("weekly job not delegated correctly: calls=%d result=%+v", weekly.calls, result)
	}
}

func TestRunStopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	engine := newTestEngine(&fakeSelector{}, &fakeScorer{}, &fakeRiskAssessor{}, &fakeSink{})

	done := make(chan struct{})
	go func() {
		engine.Run(ctx, 50*time.Millisecond, time.Hour)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
