package escalation

import (
	"context"
	"testing"
	"time"

	"github.com/sentinela-health/platform/pkg/common/models"
	"github.com/sentinela-health/platform/pkg/content"
)

func pointsFrom(levels ...string) []models.RiskHistoryPoint {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.RiskHistoryPoint, 0, len(levels))
	for i, level := range levels {
		points = append(points, models.RiskHistoryPoint{
			Date:      base.Add(time.Duration(i) * 24 * time.Hour),
			RiskLevel: level,
		})
	}
	return points
}

func TestBucketHighWhenMoreThanTwoHighPoints(t *testing.T) {
	// 3 high + 1 medium + the rest low over 14 days.
	points := pointsFrom("low", "high", "low", "medium", "high", "low", "high", "low")
	if got := BucketFor(points); got != BucketHigh {
		t.Fatalf("expected high bucket, got %q", got)
	}
}

func TestBucketRuleBoundaries(t *testing.T) {
	cases := []struct {
		name   string
		levels []string
		want   string
	}{
		{"empty history", nil, BucketLow},
		{"all low", []string{"low", "low", "low"}, BucketLow},
		{"single medium", []string{"low", "medium", "low"}, BucketMedium},
		{"exactly two highs stays medium", []string{"high", "critical", "medium"}, BucketMedium},
		{"exactly two highs no medium", []string{"high", "high", "low"}, BucketLow},
		{"critical counts as high", []string{"critical", "critical", "critical"}, BucketHigh},
	}

	for _, tc := range cases {
		if got := BucketFor(pointsFrom(tc.levels...)); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestTrendComparesThirds(t *testing.T) {
	escalating := pointsFrom("low", "low", "low", "medium", "medium", "high", "high", "high", "critical")
	if got := TrendFor(escalating); got != models.TrendEscalating {
		t.Fatalf("expected escalating, got %q", got)
	}

	deescalating := pointsFrom("critical", "high", "high", "medium", "medium", "low", "low", "low", "low")
	if got := TrendFor(deescalating); got != models.TrendDeescalating {
		t.Fatalf("expected de-escalating, got %q", got)
	}

	flat := pointsFrom("medium", "medium", "medium", "medium", "medium", "medium")
	if got := TrendFor(flat); got != models.TrendStable {
		t.Fatalf("expected stable, got %q", got)
	}

	short := pointsFrom("high", "low")
	if got := TrendFor(short); got != models.TrendStable {
		t.Fatalf("expected stable for fewer than three points, got %q", got)
	}
}

func TestBucketAndTrendAreDeterministic(t *testing.T) {
	points := pointsFrom("low", "medium", "high", "high", "critical", "low")
	for i := 0; i < 10; i++ {
		if got := BucketFor(points); got != BucketHigh {
			t.Fatalf("run %d: bucket changed to %q", i, got)
		}
		if got := TrendFor(points); got != TrendFor(points) {
			t.Fatalf("run %d: trend not deterministic", i)
		}
	}
}

func TestMoodRiskInversion(t *testing.T) {
	cases := map[int]string{
		1:  models.RiskCritical,
		2:  models.RiskCritical,
		3:  models.RiskHigh,
		5:  models.RiskMedium,
		7:  models.RiskLow,
		10: models.RiskLow,
	}
	for mood, want := range cases {
		if got := MoodRisk(mood); got != want {
			t.Errorf("mood %d: expected %q, got %q", mood, want, got)
		}
	}
}

type fakeHistory struct {
	risk  []models.RiskHistoryPoint
	moods []content.MoodSample
	texts []string
}

func (f *fakeHistory) RiskHistory(ctx context.Context, subjectID uint, since time.Time) ([]models.RiskHistoryPoint, error) {
	return f.risk, nil
}

func (f *fakeHistory) MoodHistory(ctx context.Context, subjectID uint, since time.Time) ([]content.MoodSample, error) {
	return f.moods, nil
}

func (f *fakeHistory) RecentTexts(ctx context.Context, subjectID uint, n int) ([]string, error) {
	return f.texts, nil
}

func TestAssessEscalation(t *testing.T) {
	history := &fakeHistory{risk: pointsFrom("low", "high", "medium", "high", "high", "low")}
	assessor := NewAssessor(history, DefaultLexicon(), 0, 0, 0)

	assessment, err := assessor.AssessEscalation(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assessment.Bucket != BucketHigh {
		t.Fatalf("expected high bucket, got %q", assessment.Bucket)
	}
	if assessment.SubjectID != 7 {
		t.Fatalf("expected subject 7, got %d", assessment.SubjectID)
	}
	if len(assessment.Points) != 6 {
		t.Fatalf("expected 6 contributing points, got %d", len(assessment.Points))
	}
}

func TestAssessRelapseRiskInvertsMoodAndDetectsStressors(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	history := &fakeHistory{
		moods: []content.MoodSample{
			{SubjectID: 7, Value: 2, RecordedAt: base},
			{SubjectID: 7, Value: 3, RecordedAt: base.Add(24 * time.Hour)},
			{SubjectID: 7, Value: 1, RecordedAt: base.Add(48 * time.Hour)},
			{SubjectID: 7, Value: 8, RecordedAt: base.Add(72 * time.Hour)},
		},
		texts: []string{
			"Muita pressão no trabalho, briga com minha irmã.",
			"Hoje me senti sozinho de novo.",
			"O estresse não passa.",
		},
	}
	assessor := NewAssessor(history, DefaultLexicon(), 0, 0, 0)

	assessment, err := assessor.AssessRelapseRisk(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Three moods at or below 4 invert to high/critical points.
	if assessment.Bucket != BucketHigh {
		t.Fatalf("expected high relapse bucket, got %q", assessment.Bucket)
	}
	want := []string{"conflict", "isolation", "stress"}
	if len(assessment.Stressors) != len(want) {
		t.Fatalf("expected stressors %v, got %v", want, assessment.Stressors)
	}
	for i, tag := range want {
		if assessment.Stressors[i] != tag {
			t.Fatalf("expected stressors %v, got %v", want, assessment.Stressors)
		}
	}
}
