package content

import (
	"context"
	"errors"
	"time"

	"github.com/sentinela-health/platform/pkg/common/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("content item not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Item{}, &MoodSample{})
}

// SelectUnanalyzed returns up to batchSize unanalyzed items authored within
// the lookback window, oldest first so old content cannot starve.
func (r *Repository) SelectUnanalyzed(ctx context.Context, lookback time.Duration, batchSize int) ([]Item, error) {
	if batchSize <= 0 {
		batchSize = 50
	}
	cutoff := time.Now().UTC().Add(-lookback)
	var items []Item
	result := r.db.WithContext(ctx).
		Where("analyzed = ? AND authored_at >= ?", false, cutoff).
		Order("authored_at asc").
		Limit(batchSize).
		Find(&items)
	return items, result.Error
}

// MarkAnalyzed flips the analyzed flag and writes the verdict in a single
// conditional update. It is the only code path that sets analyzed to true.
// A nil verdict records a low-signal skip: the flag flips, no verdict is
// stored, and the item is not retried. Returns false without error when the
// row was already analyzed, which callers treat as a benign lost race.
func (r *Repository) MarkAnalyzed(ctx context.Context, id uint, v *models.Verdict) (bool, error) {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"analyzed":    true,
		"analyzed_at": now,
		"updated_at":  now,
	}
	if v != nil {
		updates["dominant_emotion"] = v.DominantEmotion
		updates["emotion_intensity"] = v.Intensity
		updates["sentiment_scaled"] = ScaleSentiment(v.Sentiment)
		updates["risk_level"] = v.RiskLevel
		updates["insights"] = datatypes.NewJSONSlice(v.Insights)
		updates["suggested_actions"] = datatypes.NewJSONSlice(v.SuggestedActions)
		updates["emotion_tags"] = datatypes.NewJSONSlice(v.EmotionTags)
	}

	result := r.db.WithContext(ctx).Model(&Item{}).
		Where("id = ? AND analyzed = ?", id, false).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Get returns a single item by id.
func (r *Repository) Get(ctx context.Context, id uint) (*Item, error) {
	var item Item
	result := r.db.WithContext(ctx).First(&item, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &item, result.Error
}

// RiskHistory projects analyzed items since the cutoff into history points,
// oldest first.
func (r *Repository) RiskHistory(ctx context.Context, subjectID uint, since time.Time) ([]models.RiskHistoryPoint, error) {
	var items []Item
	result := r.db.WithContext(ctx).
		Where("subject_id = ? AND analyzed = ? AND authored_at >= ? AND risk_level <> ''", subjectID, true, since).
		Order("authored_at asc").
		Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}

	points := make([]models.RiskHistoryPoint, 0, len(items))
	for _, item := range items {
		points = append(points, models.RiskHistoryPoint{
			Date:      item.AuthoredAt,
			RiskLevel: item.RiskLevel,
		})
	}
	return points, nil
}

// RecentTexts returns the raw text of the subject's newest n entries, used
// for stressor keyword detection.
func (r *Repository) RecentTexts(ctx context.Context, subjectID uint, n int) ([]string, error) {
	if n <= 0 {
		n = 5
	}
	var items []Item
	result := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("authored_at desc").
		Limit(n).
		Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}

	texts := make([]string, 0, len(items))
	for _, item := range items {
		texts = append(texts, item.Text)
	}
	return texts, nil
}

// WindowBySubject returns analyzed items authored within [since, now],
// oldest first, for the weekly digest.
func (r *Repository) WindowBySubject(ctx context.Context, subjectID uint, since time.Time) ([]Item, error) {
	var items []Item
	result := r.db.WithContext(ctx).
		Where("subject_id = ? AND authored_at >= ?", subjectID, since).
		Order("authored_at asc").
		Find(&items)
	return items, result.Error
}

// MoodHistory returns the subject's mood samples since the cutoff, oldest
// first.
func (r *Repository) MoodHistory(ctx context.Context, subjectID uint, since time.Time) ([]MoodSample, error) {
	var samples []MoodSample
	result := r.db.WithContext(ctx).
		Where("subject_id = ? AND recorded_at >= ?", subjectID, since).
		Order("recorded_at asc").
		Find(&samples)
	return samples, result.Error
}
