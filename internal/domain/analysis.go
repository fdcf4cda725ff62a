package domain

import (
	"time"

	"github.com/google/uuid"
)

// Analysis text limits. MinAnalysisTextLen is a business rule enforced before
// any network call; MaxAnalysisTextLen is the presentation-layer input limit.
const (
	MinAnalysisTextLen = 10
	MaxAnalysisTextLen = 1000
)

// AnalysisRequest is the payload submitted for sentiment analysis.
type AnalysisRequest struct {
	Text            string `json:"text"`
	IncludeEmotions bool   `json:"include_emotions"`
}

// AnalysisResult holds one completed analysis as returned by the server.
// Scores are in [-1,1] for sentiment and [0,1] per emotion.
type AnalysisResult struct {
	AnalysisID     uuid.UUID          `json:"analysis_id"`
	Text           string             `json:"text"`
	SentimentLabel string             `json:"sentiment_label"`
	SentimentScore float64            `json:"sentiment_score"`
	Emotions       map[string]float64 `json:"emotions"`
	Keywords       []string           `json:"keywords"`
	CreatedAt      time.Time          `json:"created_at"`
}

// HistoryEntry is one past analysis in the server-ordered history
// (reverse-chronological). Read-only from the client's perspective.
type HistoryEntry struct {
	AnalysisID     uuid.UUID `json:"analysis_id"`
	Text           string    `json:"text"`
	SentimentLabel string    `json:"sentiment_label"`
	SentimentScore float64   `json:"sentiment_score"`
	Keywords       []string  `json:"keywords"`
	CreatedAt      time.Time `json:"created_at"`
}

// LabelStats is the per-label slice of the sentiment distribution.
type LabelStats struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
}

// StatsSnapshot is the aggregate view over all of a user's analyses.
// The sum of counts across labels is at most TotalAnalyses.
type StatsSnapshot struct {
	TotalAnalyses         int                   `json:"total_analyses"`
	SentimentDistribution map[string]LabelStats `json:"sentiment_distribution"`
}
