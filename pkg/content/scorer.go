package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/sentinela-health/platform/pkg/analyzer"
	"github.com/sentinela-health/platform/pkg/common/logger"
	"github.com/sentinela-health/platform/pkg/common/models"
	"github.com/sentinela-health/platform/pkg/consent"
)

// Outcome of scoring one item.
const (
	OutcomeScored           = "scored"
	OutcomeSkippedConsent   = "skipped_consent"
	OutcomeSkippedLowSignal = "skipped_low_signal"
	OutcomeLostRace         = "lost_race"
)

// ConsentGate is the consent check the scorer performs before reading any
// subject-authored text. *consent.Gate satisfies it.
type ConsentGate interface {
	IsGranted(ctx context.Context, subjectID uint, purpose string) (bool, error)
}

// VerdictStore persists verdicts; *Repository satisfies it.
type VerdictStore interface {
	MarkAnalyzed(ctx context.Context, id uint, v *models.Verdict) (bool, error)
}

// Scorer invokes the content analyzer on one item and persists the verdict
// at most once, via the store's conditional flag flip.
type Scorer struct {
	store     VerdictStore
	gate      ConsentGate
	analyzer  analyzer.Analyzer
	minLength int
}

func NewScorer(store VerdictStore, gate ConsentGate, a analyzer.Analyzer, minLength int) *Scorer {
	if minLength <= 0 {
		minLength = 10
	}
	return &Scorer{store: store, gate: gate, analyzer: a, minLength: minLength}
}

// Score analyzes a single unanalyzed item. A consent denial is a skip, not
// an error: the item stays unanalyzed and becomes eligible again once
// consent changes. Analyzer failures are returned to the caller with the
// item left unanalyzed so the next tick retries it. Losing the conditional
// update race is success-no-op.
func (s *Scorer) Score(ctx context.Context, item *Item) (string, *models.Verdict, error) {
	if item.Analyzed {
		return OutcomeLostRace, nil, nil
	}

	granted, err := s.gate.IsGranted(ctx, item.SubjectID, consent.PurposeAIAnalysis)
	if err != nil {
		return "", nil, fmt.Errorf("consent check for item %d: %w", item.ID, err)
	}
	if !granted {
		logger.Log.WithFields(map[string]interface{}{
			"item_id":    item.ID,
			"subject_id": item.SubjectID,
		}).Debug("skipping item, ai_analysis consent not granted")
		return OutcomeSkippedConsent, nil, nil
	}

	if len(strings.TrimSpace(item.Text)) < s.minLength {
		flipped, err := s.store.MarkAnalyzed(ctx, item.ID, nil)
		if err != nil {
			return "", nil, fmt.Errorf("marking low-signal item %d: %w", item.ID, err)
		}
		if !flipped {
			return OutcomeLostRace, nil, nil
		}
		return OutcomeSkippedLowSignal, nil, nil
	}

	verdict, err := s.analyzer.Analyze(ctx, item.Text)
	if err != nil {
		// Item stays unanalyzed and is retried next tick. Log the id only,
		// never the text.
		logger.Log.WithError(err).WithField("item_id", item.ID).Warn("analyzer call failed")
		return "", nil, fmt.Errorf("analyzing item %d: %w", item.ID, err)
	}

	flipped, err := s.store.MarkAnalyzed(ctx, item.ID, &verdict)
	if err != nil {
		return "", nil, fmt.Errorf("persisting verdict for item %d: %w", item.ID, err)
	}
	if !flipped {
		// Another tick already scored this item.
		return OutcomeLostRace, nil, nil
	}

	return OutcomeScored, &verdict, nil
}
