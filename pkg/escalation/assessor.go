package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinela-health/platform/pkg/common/models"
	"github.com/sentinela-health/platform/pkg/content"
)

// Bucket values for a subject's current risk.
const (
	BucketLow    = models.RiskLow
	BucketMedium = models.RiskMedium
	BucketHigh   = models.RiskHigh
)

// HistorySource provides the read projections the assessor aggregates.
// *content.Repository satisfies it.
type HistorySource interface {
	RiskHistory(ctx context.Context, subjectID uint, since time.Time) ([]models.RiskHistoryPoint, error)
	MoodHistory(ctx context.Context, subjectID uint, since time.Time) ([]content.MoodSample, error)
	RecentTexts(ctx context.Context, subjectID uint, n int) ([]string, error)
}

// Assessor computes rolling-window risk assessments. The bucket and trend
// rules are deliberately coarse, counting rather than statistical, so a
// clinician can retrace every classification.
type Assessor struct {
	history          HistorySource
	lexicon          *Lexicon
	escalationWindow time.Duration
	relapseWindow    time.Duration
	stressorEntries  int
}

func NewAssessor(history HistorySource, lexicon *Lexicon, escalationWindow, relapseWindow time.Duration, stressorEntries int) *Assessor {
	if escalationWindow <= 0 {
		escalationWindow = 14 * 24 * time.Hour
	}
	if relapseWindow <= 0 {
		relapseWindow = 90 * 24 * time.Hour
	}
	if stressorEntries <= 0 {
		stressorEntries = 5
	}
	return &Assessor{
		history:          history,
		lexicon:          lexicon,
		escalationWindow: escalationWindow,
		relapseWindow:    relapseWindow,
		stressorEntries:  stressorEntries,
	}
}

// AssessEscalation classifies the subject's recent risk history into a
// bucket and a trend over the escalation window (default 14 days).
func (a *Assessor) AssessEscalation(ctx context.Context, subjectID uint) (models.EscalationAssessment, error) {
	since := time.Now().UTC().Add(-a.escalationWindow)
	points, err := a.history.RiskHistory(ctx, subjectID, since)
	if err != nil {
		return models.EscalationAssessment{}, fmt.Errorf("loading risk history for subject %d: %w", subjectID, err)
	}

	return models.EscalationAssessment{
		SubjectID:  subjectID,
		Bucket:     BucketFor(points),
		Trend:      TrendFor(points),
		Confidence: ConfidenceFor(len(points)),
		Points:     points,
	}, nil
}

// AssessRelapseRisk runs the longer-horizon aggregation (default 90 days)
// over severity-inverted mood samples, plus stressor keywords detected in
// the subject's most recent entries.
func (a *Assessor) AssessRelapseRisk(ctx context.Context, subjectID uint) (models.RelapseAssessment, error) {
	since := time.Now().UTC().Add(-a.relapseWindow)
	samples, err := a.history.MoodHistory(ctx, subjectID, since)
	if err != nil {
		return models.RelapseAssessment{}, fmt.Errorf("loading mood history for subject %d: %w", subjectID, err)
	}

	points := make([]models.RiskHistoryPoint, 0, len(samples))
	for _, s := range samples {
		points = append(points, models.RiskHistoryPoint{
			Date:      s.RecordedAt,
			RiskLevel: MoodRisk(s.Value),
			Mood:      s.Value,
		})
	}

	var stressors []string
	if a.lexicon != nil {
		texts, err := a.history.RecentTexts(ctx, subjectID, a.stressorEntries)
		if err != nil {
			return models.RelapseAssessment{}, fmt.Errorf("loading recent entries for subject %d: %w", subjectID, err)
		}
		stressors = a.lexicon.Detect(texts)
	}

	return models.RelapseAssessment{
		SubjectID:  subjectID,
		Bucket:     BucketFor(points),
		Trend:      TrendFor(points),
		Confidence: ConfidenceFor(len(points)),
		Stressors:  stressors,
		Points:     points,
	}, nil
}

// BucketFor reproduces the coarse current-risk rule: more than two high or
// critical points means high; otherwise any medium point means medium;
// otherwise low.
func BucketFor(points []models.RiskHistoryPoint) string {
	highCount := 0
	hasMedium := false
	for _, p := range points {
		switch p.RiskLevel {
		case models.RiskHigh, models.RiskCritical:
			highCount++
		case models.RiskMedium:
			hasMedium = true
		}
	}
	if highCount > 2 {
		return BucketHigh
	}
	if hasMedium {
		return BucketMedium
	}
	return BucketLow
}

// TrendFor compares the earliest and most recent thirds of the window by
// average ordinal risk rank. Points must be ordered oldest first.
func TrendFor(points []models.RiskHistoryPoint) string {
	third := len(points) / 3
	if third == 0 {
		return models.TrendStable
	}

	earliest := averageRank(points[:third])
	latest := averageRank(points[len(points)-third:])

	switch {
	case latest > earliest:
		return models.TrendEscalating
	case latest < earliest:
		return models.TrendDeescalating
	default:
		return models.TrendStable
	}
}

// ConfidenceFor grows stepwise with the number of contributing points.
func ConfidenceFor(count int) float64 {
	switch {
	case count == 0:
		return 0
	case count < 5:
		return 0.6
	case count < 10:
		return 0.8
	default:
		return 0.9
	}
}

// MoodRisk inverts a 1-10 mood value into a risk label: the lower the mood,
// the higher the severity.
func MoodRisk(value int) string {
	switch {
	case value <= 2:
		return models.RiskCritical
	case value <= 4:
		return models.RiskHigh
	case value <= 6:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func averageRank(points []models.RiskHistoryPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0
	for _, p := range points {
		sum += models.RiskRank(p.RiskLevel)
	}
	return float64(sum) / float64(len(points))
}
