package content

import (
	"math"
	"time"

	"github.com/sentinela-health/platform/pkg/common/models"
	"gorm.io/datatypes"
)

// Item is one unit of subject-authored material, typically a diary entry.
// Verdict columns stay empty until the scorer flips Analyzed; that flip is
// monotonic and happens only through Repository.MarkAnalyzed.
type Item struct {
	ID         uint      `gorm:"primaryKey;column:id" json:"id"`
	SubjectID  uint      `gorm:"column:subject_id;index" json:"subject_id"`
	ReviewerID uint      `gorm:"column:reviewer_id" json:"reviewer_id"`
	Text       string    `gorm:"column:text" json:"-"`
	AuthoredAt time.Time `gorm:"column:authored_at;index" json:"authored_at"`
	Analyzed   bool      `gorm:"column:analyzed;index" json:"analyzed"`

	DominantEmotion  string                      `gorm:"column:dominant_emotion" json:"dominant_emotion,omitempty"`
	EmotionIntensity int                         `gorm:"column:emotion_intensity" json:"emotion_intensity,omitempty"`
	SentimentScaled  int                         `gorm:"column:sentiment_scaled" json:"sentiment_scaled,omitempty"`
	RiskLevel        string                      `gorm:"column:risk_level" json:"risk_level,omitempty"`
	Insights         datatypes.JSONSlice[string] `gorm:"column:insights" json:"insights,omitempty"`
	SuggestedActions datatypes.JSONSlice[string] `gorm:"column:suggested_actions" json:"suggested_actions,omitempty"`
	EmotionTags      datatypes.JSONSlice[string] `gorm:"column:emotion_tags" json:"emotion_tags,omitempty"`
	AnalyzedAt       *time.Time                  `gorm:"column:analyzed_at" json:"analyzed_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Item) TableName() string {
	return "content_items"
}

// Sentiment converts the scaled column back to the analyzer's -1.0..1.0 range.
func (i *Item) Sentiment() float64 {
	return float64(i.SentimentScaled) / 100.0
}

// Verdict reassembles the stored verdict fields.
func (i *Item) Verdict() models.Verdict {
	return models.Verdict{
		DominantEmotion:  i.DominantEmotion,
		Intensity:        i.EmotionIntensity,
		Sentiment:        i.Sentiment(),
		RiskLevel:        i.RiskLevel,
		Insights:         i.Insights,
		SuggestedActions: i.SuggestedActions,
		EmotionTags:      i.EmotionTags,
	}
}

// ScaleSentiment stores the -1.0..1.0 score as an integer in hundredths.
func ScaleSentiment(score float64) int {
	return int(math.Round(score * 100))
}

// MoodSample is one self-reported mood point on a 1-10 scale.
type MoodSample struct {
	ID         uint      `gorm:"primaryKey;column:id" json:"id"`
	SubjectID  uint      `gorm:"column:subject_id;index" json:"subject_id"`
	Value      int       `gorm:"column:value" json:"value"`
	RecordedAt time.Time `gorm:"column:recorded_at;index" json:"recorded_at"`
}

func (MoodSample) TableName() string {
	return "mood_samples"
}
