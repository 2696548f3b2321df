package analyzer

import (
	"context"
	"time"

	"github.com/sentinela-health/platform/pkg/common/models"
)

// Analyzer classifies subject-authored free text into a structured verdict.
// Implementations live outside this engine; errors propagate as retryable
// score failures.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (models.Verdict, error)
}

// ProgressInput carries a 7-day digest of a subject's activity for the
// session-progress analysis. Raw entry text never crosses this boundary.
type ProgressInput struct {
	SubjectID        uint      `json:"subject_id"`
	WindowStart      time.Time `json:"window_start"`
	WindowEnd        time.Time `json:"window_end"`
	EntryCount       int       `json:"entry_count"`
	RiskLevels       []string  `json:"risk_levels,omitempty"`
	DominantEmotions []string  `json:"dominant_emotions,omitempty"`
	SessionsHeld     int       `json:"sessions_held"`
	SessionsMissed   int       `json:"sessions_missed"`
}

// ProgressReport is the analyzer's weekly summary for one subject.
type ProgressReport struct {
	Summary    string   `json:"summary"`
	Severity   string   `json:"severity"` // low, medium, high, critical
	Highlights []string `json:"highlights,omitempty"`
}

// ProgressAnalyzer produces the weekly session-progress report.
type ProgressAnalyzer interface {
	Summarize(ctx context.Context, input ProgressInput) (ProgressReport, error)
}
