// Package analyzer computes per-item sentiment and engagement features for an
// evidence set and aggregates them into summary statistics.
package analyzer

import (
	"errors"
	"fmt"

	"github.com/NeoSkosana/AI-driven-PVS/internal/model"
	"github.com/NeoSkosana/AI-driven-PVS/pkg/logging"
)

// Sentiment labels derived from the weighted average score.
const (
	LabelVeryPositive = "Very Positive"
	LabelPositive     = "Positive"
	LabelNeutral      = "Neutral"
	LabelNegative     = "Negative"
	LabelVeryNegative = "Very Negative"
)

// Config fixes the classification bands. Items above NeutralBand are
// positive, below -NeutralBand negative, neutral otherwise; weighted
// averages beyond ±StrongBand earn the "Very" tier.
type Config struct {
	NeutralBand float64
	StrongBand  float64
}

// DefaultConfig returns the design-constant bands.
func DefaultConfig() Config {
	return Config{NeutralBand: 0.05, StrongBand: 0.5}
}

// Analyzer aggregates an evidence set into the three result summaries.
type Analyzer struct {
	classifier SentimentClassifier
	cfg        Config
	log        *logging.Logger
}

// New returns an Analyzer using the given classifier.
func New(classifier SentimentClassifier, cfg Config, log *logging.Logger) *Analyzer {
	return &Analyzer{
		classifier: classifier,
		cfg:        cfg,
		log:        log.With("component", "Analyzer"),
	}
}

// Analyze computes sentiment, engagement and temporal summaries for items.
// A classifier fault propagates — the worker maps it to an unexpected job
// failure.
func (a *Analyzer) Analyze(items []model.EvidenceItem) (model.SentimentSummary, model.EngagementMetrics, model.TemporalAnalysis, error) {
	if len(items) == 0 {
		return model.SentimentSummary{}, model.EngagementMetrics{}, model.TemporalAnalysis{},
			errors.New("analyze called with empty evidence set")
	}

	scores := make([]float64, len(items))
	for i, item := range items {
		s, err := a.classifier.Score(item.Text)
		if err != nil {
			return model.SentimentSummary{}, model.EngagementMetrics{}, model.TemporalAnalysis{},
				fmt.Errorf("classify item %s: %w", item.ID, err)
		}
		scores[i] = s
	}

	sentiment := a.summariseSentiment(items, scores)
	engagement := summariseEngagement(items)
	temporal := summariseTemporal(items)
	return sentiment, engagement, temporal, nil
}

func (a *Analyzer) summariseSentiment(items []model.EvidenceItem, scores []float64) model.SentimentSummary {
	n := float64(len(items))

	var positives, negatives, neutrals int
	var sum float64
	for _, s := range scores {
		sum += s
		switch {
		case s > a.cfg.NeutralBand:
			positives++
		case s < -a.cfg.NeutralBand:
			negatives++
		default:
			neutrals++
		}
	}

	// Engagement-weighted mean: high-engagement items influence sentiment
	// more than low-engagement ones. Item scores can be negative (downvoted
	// posts), so per-item engagement is floored at zero — every weight stays
	// in [0, 1] and the mean stays in [-1, 1]. Falls back to the unweighted
	// mean when the floored total is zero.
	var totalEngagement float64
	for _, item := range items {
		totalEngagement += itemEngagement(item)
	}
	weighted := sum / n
	if totalEngagement > 0 {
		weighted = 0
		for i, item := range items {
			w := itemEngagement(item) / totalEngagement
			weighted += scores[i] * w
		}
	}

	return model.SentimentSummary{
		OverallSentiment:     a.label(weighted),
		PositiveRatio:        float64(positives) / n,
		NegativeRatio:        float64(negatives) / n,
		NeutralRatio:         float64(neutrals) / n,
		AverageScore:         sum / n,
		WeightedAverageScore: weighted,
	}
}

// itemEngagement is the weighting mass of one item, floored at zero.
func itemEngagement(item model.EvidenceItem) float64 {
	e := float64(item.Score + item.CommentCount)
	if e < 0 {
		return 0
	}
	return e
}

func (a *Analyzer) label(weighted float64) string {
	switch {
	case weighted >= a.cfg.StrongBand:
		return LabelVeryPositive
	case weighted > a.cfg.NeutralBand:
		return LabelPositive
	case weighted <= -a.cfg.StrongBand:
		return LabelVeryNegative
	case weighted < -a.cfg.NeutralBand:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

func summariseEngagement(items []model.EvidenceItem) model.EngagementMetrics {
	n := float64(len(items))

	var scoreSum, commentSum float64
	users := make(map[string]bool)
	for _, item := range items {
		scoreSum += float64(item.Score)
		commentSum += float64(item.CommentCount)
		if item.Author != "" {
			users[item.Author] = true
		}
	}

	return model.EngagementMetrics{
		AvgScore:        scoreSum / n,
		AvgComments:     commentSum / n,
		TotalEngagement: scoreSum + commentSum,
		UniqueUsers:     len(users),
	}
}

func summariseTemporal(items []model.EvidenceItem) model.TemporalAnalysis {
	earliest, latest := items[0].CreatedAt, items[0].CreatedAt
	for _, item := range items[1:] {
		if item.CreatedAt.Before(earliest) {
			earliest = item.CreatedAt
		}
		if item.CreatedAt.After(latest) {
			latest = item.CreatedAt
		}
	}

	// Minimum of one day keeps avg_posts_per_day defined for single-day sets.
	days := int(latest.Sub(earliest).Hours()/24) + 1
	if days < 1 {
		days = 1
	}

	return model.TemporalAnalysis{
		EarliestPost:       earliest,
		LatestPost:         latest,
		ActivityPeriodDays: days,
		AvgPostsPerDay:     float64(len(items)) / float64(days),
	}
}
