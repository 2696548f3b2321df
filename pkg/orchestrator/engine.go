package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sentinela-health/platform/pkg/alerts"
	"github.com/sentinela-health/platform/pkg/common/logger"
	"github.com/sentinela-health/platform/pkg/common/models"
	"github.com/sentinela-health/platform/pkg/content"
	"github.com/sentinela-health/platform/pkg/observability/metrics"
)

type Selector interface {
	SelectUnanalyzed(ctx context.Context, lookback time.Duration, batchSize int) ([]content.Item, error)
}

type ItemScorer interface {
	Score(ctx context.Context, item *content.Item) (string, *models.Verdict, error)
}

type RiskAssessor interface {
	AssessEscalation(ctx context.Context, subjectID uint) (models.EscalationAssessment, error)
}

type AlertSink interface {
	MaybeCreate(ctx context.Context, input alerts.CreateInput) (*alerts.Alert, error)
}

type WeeklyRunner interface {
	RunWeekly(ctx context.Context) (models.ProcessingResult, error)
}

// Engine is the top-level scheduler. It is the only component aware of
// cadence; everything downstream is a function of its inputs plus the
// datastore. Entry points are safe under at-least-once, possibly
// concurrent invocation: the scorer's conditional flag flip and the
// generator's dedup check absorb overlapping runs.
type Engine struct {
	selector  Selector
	scorer    ItemScorer
	assessor  RiskAssessor
	sink      AlertSink
	weekly    WeeklyRunner
	lookback  time.Duration
	batchSize int
}

func NewEngine(selector Selector, scorer ItemScorer, assessor RiskAssessor, sink AlertSink, weekly WeeklyRunner, lookback time.Duration, batchSize int) *Engine {
	if lookback <= 0 {
		lookback = 7 * 24 * time.Hour
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Engine{
		selector:  selector,
		scorer:    scorer,
		assessor:  assessor,
		sink:      sink,
		weekly:    weekly,
		lookback:  lookback,
		batchSize: batchSize,
	}
}

// RunEntryBatch processes one bounded batch of unanalyzed entries, oldest
// first. One item's failure never aborts the batch; failures are collected
// into the result. The batch is cancellable between items.
func (e *Engine) RunEntryBatch(ctx context.Context) (models.ProcessingResult, error) {
	result := models.ProcessingResult{Errors: []string{}}

	items, err := e.selector.SelectUnanalyzed(ctx, e.lookback, e.batchSize)
	if err != nil {
		return result, fmt.Errorf("selecting unanalyzed entries: %w", err)
	}

	analyzerFailures := 0
	scoredSubjects := map[uint]uint{} // subject -> reviewer

	for i := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		item := &items[i]
		result.Processed++

		outcome, verdict, err := e.scorer.Score(ctx, item)
		if err != nil {
			analyzerFailures++
			result.Errors = append(result.Errors, fmt.Sprintf("item %d: %v", item.ID, err))
			continue
		}

		switch outcome {
		case content.OutcomeScored:
			result.Scored++
			scoredSubjects[item.SubjectID] = item.ReviewerID
			if err := e.alertOnVerdict(ctx, item, verdict, &result); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("item %d: %v", item.ID, err))
			}
		case content.OutcomeSkippedConsent:
			result.SkippedConsent++
		case content.OutcomeSkippedLowSignal:
			result.SkippedLowSignal++
		case content.OutcomeLostRace:
			// Another tick got there first; nothing to do.
		}
	}

	for _, subjectID := range sortedKeys(scoredSubjects) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := e.assessSubject(ctx, subjectID, scoredSubjects[subjectID], &result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("subject %d: %v", subjectID, err))
		}
	}

	metrics.ObserveEntryBatch(result.Scored, result.SkippedConsent, result.SkippedLowSignal, analyzerFailures)
	metrics.ObserveAlertsCreated(result.AlertsGenerated)

	logger.Log.WithFields(map[string]interface{}{
		"processed":          result.Processed,
		"scored":             result.Scored,
		"skipped_consent":    result.SkippedConsent,
		"skipped_low_signal": result.SkippedLowSignal,
		"alerts":             result.AlertsGenerated,
		"errors":             len(result.Errors),
	}).Info("entry batch finished")

	return result, nil
}

// alertOnVerdict raises an immediate alert when a single entry comes back
// high or critical, without waiting for the windowed assessment.
func (e *Engine) alertOnVerdict(ctx context.Context, item *content.Item, verdict *models.Verdict, result *models.ProcessingResult) error {
	if verdict == nil || (verdict.RiskLevel != models.RiskHigh && verdict.RiskLevel != models.RiskCritical) {
		return nil
	}
	alert, err := e.sink.MaybeCreate(ctx, alerts.CreateInput{
		SubjectID:   item.SubjectID,
		ReviewerID:  item.ReviewerID,
		Type:        alerts.TypeRiskEscalation,
		Severity:    verdict.RiskLevel,
		Title:       "High-risk entry detected",
		Description: fmt.Sprintf("A recent entry was assessed as %s risk.", verdict.RiskLevel),
		Recommendations: []string{
			"Review the entry and recent history",
			"Reach out to the subject if warranted",
		},
		Trigger: map[string]interface{}{
			"item_id":          item.ID,
			"risk_level":       verdict.RiskLevel,
			"dominant_emotion": verdict.DominantEmotion,
		},
	})
	if err != nil {
		return fmt.Errorf("verdict alert: %w", err)
	}
	if alert != nil {
		result.AlertsGenerated++
	}
	return nil
}

// assessSubject runs the windowed escalation assessment for one subject
// whose entries were scored this tick.
func (e *Engine) assessSubject(ctx context.Context, subjectID, reviewerID uint, result *models.ProcessingResult) error {
	assessment, err := e.assessor.AssessEscalation(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("escalation assessment: %w", err)
	}
	if assessment.Bucket != models.RiskHigh {
		return nil
	}
	alert, err := e.sink.MaybeCreate(ctx, alerts.CreateInput{
		SubjectID:   subjectID,
		ReviewerID:  reviewerID,
		Type:        alerts.TypeRiskEscalation,
		Severity:    alerts.SeverityHigh,
		Title:       "Escalating risk pattern",
		Description: "Multiple high-risk entries in the assessment window.",
		Recommendations: []string{
			"Review the subject's recent entries",
			"Consider bringing the next session forward",
		},
		Trigger: map[string]interface{}{
			"bucket":     assessment.Bucket,
			"trend":      assessment.Trend,
			"confidence": assessment.Confidence,
			"points":     len(assessment.Points),
		},
	})
	if err != nil {
		return fmt.Errorf("escalation alert: %w", err)
	}
	if alert != nil {
		result.AlertsGenerated++
	}
	return nil
}

// RunWeeklyInsights delegates to the weekly job and records its metrics.
func (e *Engine) RunWeeklyInsights(ctx context.Context) (models.ProcessingResult, error) {
	result, err := e.weekly.RunWeekly(ctx)
	if err != nil {
		return result, err
	}
	metrics.ObserveInsightsGenerated(result.InsightsGenerated)
	metrics.ObserveAlertsCreated(result.AlertsGenerated)
	return result, nil
}

// Run drives both jobs on their cadences until the context is canceled.
// Ticks run sequentially within this loop; overlapping administrative
// re-runs remain safe either way.
func (e *Engine) Run(ctx context.Context, tickInterval, weeklyInterval time.Duration) {
	entryTicker := time.NewTicker(tickInterval)
	weeklyTicker := time.NewTicker(weeklyInterval)
	defer entryTicker.Stop()
	defer weeklyTicker.Stop()

	logger.Log.WithFields(map[string]interface{}{
		"tick_interval":   tickInterval.String(),
		"weekly_interval": weeklyInterval.String(),
	}).Info("orchestrator started")

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("orchestrator stopped")
			return
		case <-entryTicker.C:
			if _, err := e.RunEntryBatch(ctx); err != nil && ctx.Err() == nil {
				logger.Log.WithError(err).Error("entry batch failed")
			}
		case <-weeklyTicker.C:
			if _, err := e.RunWeeklyInsights(ctx); err != nil && ctx.Err() == nil {
				logger.Log.WithError(err).Error("weekly insight batch failed")
			}
		}
	}
}

func sortedKeys(set map[uint]uint) []uint {
	keys := make([]uint, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
