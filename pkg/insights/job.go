package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sentinela-health/platform/pkg/alerts"
	"github.com/sentinela-health/platform/pkg/analyzer"
	"github.com/sentinela-health/platform/pkg/carelink"
	"github.com/sentinela-health/platform/pkg/common/logger"
	"github.com/sentinela-health/platform/pkg/common/models"
	"github.com/sentinela-health/platform/pkg/consent"
	"github.com/sentinela-health/platform/pkg/content"
	"github.com/sentinela-health/platform/pkg/sessions"
	"gorm.io/datatypes"
)

type LinkSource interface {
	ActivePairs(ctx context.Context, limit int) ([]carelink.Link, error)
}

type InsightStore interface {
	LatestFor(ctx context.Context, subjectID uint) (*WeeklyInsight, error)
	Append(ctx context.Context, insight *WeeklyInsight) error
}

type ContentSource interface {
	WindowBySubject(ctx context.Context, subjectID uint, since time.Time) ([]content.Item, error)
}

type SessionSource interface {
	Since(ctx context.Context, subjectID uint, since time.Time) ([]sessions.Session, error)
}

type Assessor interface {
	AssessEscalation(ctx context.Context, subjectID uint) (models.EscalationAssessment, error)
	AssessRelapseRisk(ctx context.Context, subjectID uint) (models.RelapseAssessment, error)
}

type AlertSink interface {
	MaybeCreate(ctx context.Context, input alerts.CreateInput) (*alerts.Alert, error)
}

type ConsentGate interface {
	IsGranted(ctx context.Context, subjectID uint, purpose string) (bool, error)
}

// Job regenerates weekly trend insights for active care pairs and feeds
// trend-derived alerts to the generator.
type Job struct {
	links     LinkSource
	store     InsightStore
	contents  ContentSource
	sessions  SessionSource
	progress  analyzer.ProgressAnalyzer
	assessor  Assessor
	sink      AlertSink
	gate      ConsentGate
	batchSize int
	staleness time.Duration
	window    time.Duration
}

func NewJob(links LinkSource, store InsightStore, contents ContentSource, sessionSrc SessionSource, progress analyzer.ProgressAnalyzer, assessor Assessor, sink AlertSink, gate ConsentGate, batchSize int, staleness time.Duration) *Job {
	if batchSize <= 0 {
		batchSize = 20
	}
	if staleness <= 0 {
		staleness = 7 * 24 * time.Hour
	}
	return &Job{
		links:     links,
		store:     store,
		contents:  contents,
		sessions:  sessionSrc,
		progress:  progress,
		assessor:  assessor,
		sink:      sink,
		gate:      gate,
		batchSize: batchSize,
		staleness: staleness,
		window:    7 * 24 * time.Hour,
	}
}

// RunWeekly processes one bounded batch of active pairs. Per-pair failures
// are collected into the result's Errors; the batch itself always completes
// unless the context is canceled between pairs.
func (j *Job) RunWeekly(ctx context.Context) (models.ProcessingResult, error) {
	result := models.ProcessingResult{Errors: []string{}}

	pairs, err := j.links.ActivePairs(ctx, j.batchSize)
	if err != nil {
		return result, fmt.Errorf("loading active care pairs: %w", err)
	}

	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Processed++

		if err := j.processPair(ctx, pair, &result); err != nil {
			logger.Log.WithError(err).WithField("subject_id", pair.SubjectID).Warn("weekly insight pair failed")
			result.Errors = append(result.Errors, fmt.Sprintf("subject %d: %v", pair.SubjectID, err))
		}
	}

	logger.Log.WithFields(map[string]interface{}{
		"processed": result.Processed,
		"insights":  result.InsightsGenerated,
		"alerts":    result.AlertsGenerated,
		"errors":    len(result.Errors),
	}).Info("weekly insight batch finished")

	return result, nil
}

func (j *Job) processPair(ctx context.Context, pair carelink.Link, result *models.ProcessingResult) error {
	granted, err := j.gate.IsGranted(ctx, pair.SubjectID, consent.PurposeDataProcessing)
	if err != nil {
		return fmt.Errorf("consent check: %w", err)
	}
	if !granted {
		result.SkippedConsent++
		return nil
	}

	latest, err := j.store.LatestFor(ctx, pair.SubjectID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("loading latest insight: %w", err)
	}
	now := time.Now().UTC()
	if latest != nil && now.Sub(latest.GeneratedAt) < j.staleness {
		result.SkippedFresh++
		return nil
	}

	since := now.Add(-j.window)
	items, err := j.contents.WindowBySubject(ctx, pair.SubjectID, since)
	if err != nil {
		return fmt.Errorf("loading entries: %w", err)
	}
	sessionList, err := j.sessions.Since(ctx, pair.SubjectID, since)
	if err != nil {
		return fmt.Errorf("loading sessions: %w", err)
	}

	report, err := j.progress.Summarize(ctx, buildProgressInput(pair.SubjectID, since, now, items, sessionList))
	if err != nil {
		return fmt.Errorf("progress analysis: %w", err)
	}

	insight := &WeeklyInsight{
		ID:          uuid.New(),
		SubjectID:   pair.SubjectID,
		ReviewerID:  pair.ReviewerID,
		GeneratedAt: now,
		Severity:    report.Severity,
		Content: datatypes.JSONMap{
			"summary":      report.Summary,
			"highlights":   report.Highlights,
			"entry_count":  len(items),
			"window_start": since.Format(time.RFC3339),
			"window_end":   now.Format(time.RFC3339),
		},
	}
	if err := j.store.Append(ctx, insight); err != nil {
		return fmt.Errorf("persisting insight: %w", err)
	}
	result.InsightsGenerated++

	return j.assessAndAlert(ctx, pair, result)
}

// assessAndAlert runs the escalation and relapse assessments and feeds any
// qualifying result to the alert generator.
func (j *Job) assessAndAlert(ctx context.Context, pair carelink.Link, result *models.ProcessingResult) error {
	escalationResult, err := j.assessor.AssessEscalation(ctx, pair.SubjectID)
	if err != nil {
		return fmt.Errorf("escalation assessment: %w", err)
	}

	if escalationResult.Bucket == models.RiskHigh {
		alert, err := j.sink.MaybeCreate(ctx, alerts.CreateInput{
			SubjectID:   pair.SubjectID,
			ReviewerID:  pair.ReviewerID,
			Type:        alerts.TypeRiskEscalation,
			Severity:    alerts.SeverityHigh,
			Title:       "Escalating risk pattern",
			Description: "Multiple high-risk entries in the last 14 days.",
			Recommendations: []string{
				"Review the subject's recent entries",
				"Consider bringing the next session forward",
			},
			Trigger: map[string]interface{}{
				"bucket":     escalationResult.Bucket,
				"trend":      escalationResult.Trend,
				"confidence": escalationResult.Confidence,
				"points":     len(escalationResult.Points),
			},
		})
		if err != nil {
			return fmt.Errorf("escalation alert: %w", err)
		}
		if alert != nil {
			result.AlertsGenerated++
		}
	} else if escalationResult.Trend == models.TrendEscalating {
		alert, err := j.sink.MaybeCreate(ctx, alerts.CreateInput{
			SubjectID:   pair.SubjectID,
			ReviewerID:  pair.ReviewerID,
			Type:        alerts.TypeTrendWeekly,
			Severity:    alerts.SeverityMedium,
			Title:       "Weekly trend worsening",
			Description: "The weekly report shows an escalating risk trend.",
			Trigger: map[string]interface{}{
				"bucket": escalationResult.Bucket,
				"trend":  escalationResult.Trend,
			},
		})
		if err != nil {
			return fmt.Errorf("trend alert: %w", err)
		}
		if alert != nil {
			result.AlertsGenerated++
		}
	}

	relapse, err := j.assessor.AssessRelapseRisk(ctx, pair.SubjectID)
	if err != nil {
		return fmt.Errorf("relapse assessment: %w", err)
	}
	if relapse.Bucket == models.RiskHigh {
		alert, err := j.sink.MaybeCreate(ctx, alerts.CreateInput{
			SubjectID:   pair.SubjectID,
			ReviewerID:  pair.ReviewerID,
			Type:        alerts.TypeRelapseRisk,
			Severity:    alerts.SeverityHigh,
			Title:       "Relapse risk detected",
			Description: "Long-horizon mood history indicates elevated relapse risk.",
			Recommendations: []string{
				"Review the 90-day mood history",
				"Discuss detected stressors in the next session",
			},
			Trigger: map[string]interface{}{
				"bucket":    relapse.Bucket,
				"trend":     relapse.Trend,
				"stressors": relapse.Stressors,
			},
		})
		if err != nil {
			return fmt.Errorf("relapse alert: %w", err)
		}
		if alert != nil {
			result.AlertsGenerated++
		}
	}

	return nil
}

func buildProgressInput(subjectID uint, since, until time.Time, items []content.Item, sessionList []sessions.Session) analyzer.ProgressInput {
	input := analyzer.ProgressInput{
		SubjectID:   subjectID,
		WindowStart: since,
		WindowEnd:   until,
		EntryCount:  len(items),
	}
	for _, item := range items {
		if !item.Analyzed {
			continue
		}
		v := item.Verdict()
		if v.RiskLevel != "" {
			input.RiskLevels = append(input.RiskLevels, v.RiskLevel)
		}
		if v.DominantEmotion != "" {
			input.DominantEmotions = append(input.DominantEmotions, v.DominantEmotion)
		}
	}
	for _, s := range sessionList {
		switch s.Status {
		case sessions.StatusHeld:
			input.SessionsHeld++
		case sessions.StatusMissed:
			input.SessionsMissed++
		}
	}
	return input
}
