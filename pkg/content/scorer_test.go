package content

import (
	"context"
	"errors"
	"testing"

	"github.com/sentinela-health/platform/pkg/common/logger"
	"github.com/sentinela-health/platform/pkg/common/models"
)

func init() {
	logger.Init()
}

type fakeStore struct {
	analyzed map[uint]*models.Verdict
	flipped  map[uint]bool
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{analyzed: map[uint]*models.Verdict{}, flipped: map[uint]bool{}}
}

func (f *fakeStore) MarkAnalyzed(ctx context.Context, id uint, v *models.Verdict) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.flipped[id] {
		return false, nil
	}
	f.flipped[id] = true
	f.analyzed[id] = v
	return true, nil
}

type fakeGate struct {
	granted bool
	err     error
}

func (f *fakeGate) IsGranted(ctx context.Context, subjectID uint, purpose string) (bool, error) {
	return f.granted, f.err
}

type fakeAnalyzer struct {
	verdict models.Verdict
	err     error
	calls   int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) (models.Verdict, error) {
	f.calls++
	if f.err != nil {
		return models.Verdict{}, f.err
	}
	return f.verdict, nil
}

func TestScoreSuccessPersistsVerdictOnce(t *testing.T) {
	store := newFakeStore()
	fa := &fakeAnalyzer{verdict: models.Verdict{DominantEmotion: "medo", Intensity: 8, Sentiment: -0.6, RiskLevel: models.RiskHigh}}
	scorer := NewScorer(store, &fakeGate{granted: true}, fa, 10)

	item := &Item{ID: 42, SubjectID: 7, Text: "hoje foi um dia muito dificil"}
	outcome, verdict, err := scorer.Score(context.Background(), item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeScored {
		t.Fatalf("expected scored outcome, got %q", outcome)
	}
	if verdict == nil || verdict.RiskLevel != models.RiskHigh {
		t.Fatalf("expected high-risk verdict, got %+v", verdict)
	}
	if store.analyzed[42] == nil {
		t.Fatal("expected verdict persisted for item 42")
	}

	// Second run against the same row loses the conditional update.
	outcome, verdict, err = scorer.Score(context.Background(), item)
	if err != nil {
		t.Fatalf("lost race must not error: %v", err)
	}
	if outcome != OutcomeLostRace {
		t.Fatalf("expected lost race outcome, got %q", outcome)
	}
	if verdict != nil {
		t.Fatal("lost race must not report a verdict")
	}
}

func TestScoreConsentDeniedSkips(t *testing.T) {
	store := newFakeStore()
	fa := &fakeAnalyzer{}
	scorer := NewScorer(store, &fakeGate{granted: false}, fa, 10)

	item := &Item{ID: 1, SubjectID: 9, Text: "conteudo longo o suficiente para analise"}
	outcome, _, err := scorer.Score(context.Background(), item)
	if err != nil {
		t.Fatalf("consent denial is a skip, not an error: %v", err)
	}
	if outcome != OutcomeSkippedConsent {
		t.Fatalf("expected consent skip, got %q", outcome)
	}
	if fa.calls != 0 {
		t.Fatal("analyzer must not see text without consent")
	}
	if store.flipped[1] {
		t.Fatal("consent-skipped item must stay unanalyzed for retry")
	}
}

func TestScoreShortTextSkippedWithoutRetry(t *testing.T) {
	store := newFakeStore()
	fa := &fakeAnalyzer{}
	scorer := NewScorer(store, &fakeGate{granted: true}, fa, 10)

	item := &Item{ID: 2, SubjectID: 9, Text: "ok"}
	outcome, _, err := scorer.Score(context.Background(), item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeSkippedLowSignal {
		t.Fatalf("expected low-signal skip, got %q", outcome)
	}
	if fa.calls != 0 {
		t.Fatal("analyzer must not be called for low-signal text")
	}
	if !store.flipped[2] {
		t.Fatal("low-signal item must be marked analyzed so it is not retried")
	}
	if store.analyzed[2] != nil {
		t.Fatal("low-signal skip must not fabricate a verdict")
	}
}

func TestScoreAnalyzerFailureLeavesItemRetryable(t *testing.T) {
	store := newFakeStore()
	fa := &fakeAnalyzer{err: errors.New("upstream timeout")}
	scorer := NewScorer(store, &fakeGate{granted: true}, fa, 10)

	item := &Item{ID: 3, SubjectID: 9, Text: "uma entrada longa o suficiente"}
	_, _, err := scorer.Score(context.Background(), item)
	if err == nil {
		t.Fatal("expected analyzer failure to surface")
	}
	if store.flipped[3] {
		t.Fatal("failed item must stay unanalyzed for the next tick")
	}
}
