package models

import "time"

// Risk levels as produced by the content analyzer, ordered by severity.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Trend labels for rolling-window assessments.
const (
	TrendStable       = "stable"
	TrendEscalating   = "escalating"
	TrendDeescalating = "de-escalating"
)

// Verdict is the structured output of the content analyzer for one entry.
type Verdict struct {
	DominantEmotion  string   `json:"dominant_emotion"`
	Intensity        int      `json:"intensity"`  // 0-10
	Sentiment        float64  `json:"sentiment"`  // -1.0..1.0
	RiskLevel        string   `json:"risk_level"` // low, medium, high, critical
	Insights         []string `json:"insights,omitempty"`
	SuggestedActions []string `json:"suggested_actions,omitempty"`
	EmotionTags      []string `json:"emotion_tags,omitempty"`
}

// RiskHistoryPoint is a read projection over analyzed entries and mood
// samples. Recomputed per assessment, never persisted.
type RiskHistoryPoint struct {
	Date      time.Time `json:"date"`
	RiskLevel string    `json:"risk_level"`
	Mood      int       `json:"mood,omitempty"` // 1-10, 0 when unknown
}

type EscalationAssessment struct {
	SubjectID  uint               `json:"subject_id"`
	Bucket     string             `json:"bucket"` // low, medium, high
	Trend      string             `json:"trend"`
	Confidence float64            `json:"confidence"`
	Points     []RiskHistoryPoint `json:"points,omitempty"`
}

type RelapseAssessment struct {
	SubjectID  uint               `json:"subject_id"`
	Bucket     string             `json:"bucket"`
	Trend      string             `json:"trend"`
	Confidence float64            `json:"confidence"`
	Stressors  []string           `json:"stressors,omitempty"`
	Points     []RiskHistoryPoint `json:"points,omitempty"`
}

// ProcessingResult summarizes one batch run. A batch always completes and
// reports a result; per-item failures land in Errors, they are never thrown.
type ProcessingResult struct {
	Processed         int      `json:"processed"`
	Scored            int      `json:"scored,omitempty"`
	SkippedConsent    int      `json:"skipped_consent,omitempty"`
	SkippedLowSignal  int      `json:"skipped_low_signal,omitempty"`
	SkippedFresh      int      `json:"skipped_fresh,omitempty"`
	AlertsGenerated   int      `json:"alerts_generated"`
	InsightsGenerated int      `json:"insights_generated,omitempty"`
	Errors            []string `json:"errors"`
}

// Event is the envelope published on the alert feed topic.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // alert.created, alert.acknowledged, alert.resolved, alert.reactivated
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// RiskRank maps a risk level to its ordinal rank for trend comparisons.
func RiskRank(level string) int {
	switch level {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}
