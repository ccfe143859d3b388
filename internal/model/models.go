// Package model defines the shared data structures of the validation pipeline.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ProblemStatement is the immutable input of a validation job.
type ProblemStatement struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Keywords     []string `json:"keywords"`
	TargetMarket string   `json:"target_market,omitempty"`
}

// Request-size limits enforced at the API boundary.
const (
	TitleMinLen       = 10
	TitleMaxLen       = 200
	DescriptionMinLen = 50
	DescriptionMaxLen = 2000
	MaxKeywords       = 10
	KeywordMinLen     = 2
	KeywordMaxLen     = 50
	TargetMarketMax   = 200
)

// Validate checks field limits and normalises keywords (trimmed, lowercased).
// Keywords may be empty — the pipeline derives terms from title/description.
func (p *ProblemStatement) Validate() error {
	if n := len(strings.TrimSpace(p.Title)); n < TitleMinLen || n > TitleMaxLen {
		return fmt.Errorf("title must be between %d and %d characters", TitleMinLen, TitleMaxLen)
	}
	if n := len(strings.TrimSpace(p.Description)); n < DescriptionMinLen || n > DescriptionMaxLen {
		return fmt.Errorf("description must be between %d and %d characters", DescriptionMinLen, DescriptionMaxLen)
	}
	if len(p.Keywords) > MaxKeywords {
		return fmt.Errorf("at most %d keywords are allowed", MaxKeywords)
	}
	normalised := make([]string, 0, len(p.Keywords))
	for _, k := range p.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if len(k) < KeywordMinLen || len(k) > KeywordMaxLen {
			return fmt.Errorf("keywords must be between %d and %d characters", KeywordMinLen, KeywordMaxLen)
		}
		normalised = append(normalised, k)
	}
	p.Keywords = normalised
	if len(p.TargetMarket) > TargetMarketMax {
		return fmt.Errorf("target_market must be at most %d characters", TargetMarketMax)
	}
	return nil
}

// EvidenceItem is one piece of external discussion data (post or comment).
// Items are deduplicated by ID within a single job's evidence set; QueryTerm
// records which search term first surfaced the item.
type EvidenceItem struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Score        int       `json:"score"`
	CommentCount int       `json:"comment_count"`
	Author       string    `json:"author"`
	CreatedAt    time.Time `json:"created_at"`
	QueryTerm    string    `json:"query_term"`
}

// SentimentSummary aggregates per-item sentiment over an evidence set.
// The three ratios sum to 1.0 within floating tolerance.
type SentimentSummary struct {
	OverallSentiment     string  `json:"overall_sentiment"`
	PositiveRatio        float64 `json:"positive_ratio"`
	NegativeRatio        float64 `json:"negative_ratio"`
	NeutralRatio         float64 `json:"neutral_ratio"`
	AverageScore         float64 `json:"average_score"`
	WeightedAverageScore float64 `json:"weighted_average_score"`
}

// EngagementMetrics aggregates upvote/comment activity over an evidence set.
type EngagementMetrics struct {
	AvgScore        float64 `json:"avg_score"`
	AvgComments     float64 `json:"avg_comments"`
	TotalEngagement float64 `json:"total_engagement"`
	UniqueUsers     int     `json:"unique_users"`
}

// TemporalAnalysis describes the posting activity window of an evidence set.
type TemporalAnalysis struct {
	EarliestPost       time.Time `json:"earliest_post"`
	LatestPost         time.Time `json:"latest_post"`
	AvgPostsPerDay     float64   `json:"avg_posts_per_day"`
	ActivityPeriodDays int       `json:"activity_period_days"`
}

// ValidationResult is the final output attached to a completed job.
// Field names and ranges are part of the external contract with the
// dashboard — they must round-trip through JSON without loss.
type ValidationResult struct {
	ValidationScore   float64           `json:"validation_score"`
	ConfidenceScore   float64           `json:"confidence_score"`
	ValidationFlags   []string          `json:"validation_flags"`
	SentimentSummary  SentimentSummary  `json:"sentiment_summary"`
	EngagementMetrics EngagementMetrics `json:"engagement_metrics"`
	TemporalAnalysis  TemporalAnalysis  `json:"temporal_analysis"`
}
