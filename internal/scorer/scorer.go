// Package scorer combines aggregated evidence statistics into the final
// validation score, confidence score and advisory flags.
package scorer

import (
	"math"

	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
)

// Advisory flag tags. Flags never block score computation.
const (
	FlagLowSampleSize = "low_sample_size"
	FlagLowEngagement = "low_engagement"
	FlagLowActivity   = "low_activity"
)

// Config holds the fixed weights and normalisation ceilings. Each component
// saturates at its ceiling so a single outlier item cannot dominate.
type Config struct {
	SentimentWeight  float64
	EngagementWeight float64
	TemporalWeight   float64

	EngagementCeiling float64 // total engagement mapping to a full score
	PostsPerDayTarget float64 // avg posts/day mapping to a full score

	// Flag floors.
	MinSampleSize  int
	MinEngagement  float64
	MinPostsPerDay float64

	// Confidence saturation points and minimum-meaningful activity window.
	FullConfidenceCount int
	FullConfidenceUsers int
	MinActivityDays     int
}

// DefaultConfig returns the documented weights: 0.4 sentiment, 0.4
// engagement, 0.2 temporal, engagement ceiling 1000, posts/day target 5.
func DefaultConfig() Config {
	return Config{
		SentimentWeight:  0.4,
		EngagementWeight: 0.4,
		TemporalWeight:   0.2,

		EngagementCeiling: 1000,
		PostsPerDayTarget: 5,

		MinSampleSize:  5,
		MinEngagement:  50,
		MinPostsPerDay: 0.5,

		FullConfidenceCount: 50,
		FullConfidenceUsers: 25,
		MinActivityDays:     7,
	}
}

// Scorer computes the final scores. It is stateless and deterministic: the
// same aggregates always produce the same scores.
type Scorer struct {
	cfg Config
}

// New returns a Scorer with the given configuration.
func New(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score combines the three aggregate summaries into a validation score, a
// confidence score and advisory flags. Both scores land in [0, 1], rounded
// to two decimals.
func (s *Scorer) Score(
	sentiment model.SentimentSummary,
	engagement model.EngagementMetrics,
	temporal model.TemporalAnalysis,
	evidenceCount int,
) (validation, confidence float64, flags []string) {
	// Sentiment positivity: positives count fully, neutrals half.
	sentimentScore := sentiment.PositiveRatio + 0.5*sentiment.NeutralRatio

	engagementScore := saturate(engagement.TotalEngagement / s.cfg.EngagementCeiling)
	temporalScore := saturate(temporal.AvgPostsPerDay / s.cfg.PostsPerDayTarget)

	validation = round2(sentimentScore*s.cfg.SentimentWeight +
		engagementScore*s.cfg.EngagementWeight +
		temporalScore*s.cfg.TemporalWeight)

	confidence = round2(s.confidence(evidenceCount, engagement.UniqueUsers, temporal.ActivityPeriodDays))
	flags = s.flags(evidenceCount, engagement, temporal)
	return validation, confidence, flags
}

// confidence reflects sample adequacy, not sentiment quality: it grows with
// evidence count and unique users, and shrinks when the observed activity
// window is shorter than the minimum meaningful period.
func (s *Scorer) confidence(evidenceCount, uniqueUsers, activityDays int) float64 {
	countScore := saturate(float64(evidenceCount) / float64(s.cfg.FullConfidenceCount))
	userScore := saturate(float64(uniqueUsers) / float64(s.cfg.FullConfidenceUsers))

	confidence := 0.6*countScore + 0.4*userScore
	if activityDays < s.cfg.MinActivityDays {
		confidence *= float64(activityDays) / float64(s.cfg.MinActivityDays)
	}
	return confidence
}

func (s *Scorer) flags(evidenceCount int, engagement model.EngagementMetrics, temporal model.TemporalAnalysis) []string {
	flags := make([]string, 0, 3)
	if evidenceCount < s.cfg.MinSampleSize {
		flags = append(flags, FlagLowSampleSize)
	}
	if engagement.TotalEngagement < s.cfg.MinEngagement {
		flags = append(flags, FlagLowEngagement)
	}
	if temporal.AvgPostsPerDay < s.cfg.MinPostsPerDay {
		flags = append(flags, FlagLowActivity)
	}
	return flags
}

func saturate(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
