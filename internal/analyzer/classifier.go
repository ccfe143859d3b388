package analyzer

// SentimentClassifier scores a piece of text in [-1, 1]. Rule-based and
// model-backed implementations are interchangeable.
type SentimentClassifier interface {
	Score(text string) (float64, error)
}
