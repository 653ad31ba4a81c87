package models

import "strings"

// Sentiment is the three-valued polarity assigned to an article.
type Sentiment string

const (
	Positive Sentiment = "Positive"
	Negative Sentiment = "Negative"
	Neutral  Sentiment = "Neutral"
)

// Sentiments lists every polarity in display order.
var Sentiments = []Sentiment{Positive, Negative, Neutral}

// Valid reports whether s is one of the three known values.
func (s Sentiment) Valid() bool {
	switch s {
	case Positive, Negative, Neutral:
		return true
	}
	return false
}

// ParseSentiment is a case-insensitive inverse of String. Unknown input maps to Neutral.
func ParseSentiment(raw string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "positive":
		return Positive
	case "negative":
		return Negative
	default:
		return Neutral
	}
}

// ArticleRecord is one deduplicated headline as returned by a news source.
type ArticleRecord struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Key returns the (title, summary) identity used for deduplication.
func (r ArticleRecord) Key() string {
	return r.Title + "\x00" + r.Summary
}

// Text is the input handed to the per-article models.
func (r ArticleRecord) Text() string {
	switch {
	case r.Summary == "":
		return r.Title
	case r.Title == "":
		return r.Summary
	}
	return strings.TrimRight(r.Title, ". ") + ". " + r.Summary
}

// ArticleAnnotation is the model output for one article. Topics are ordered by
// relevance and hold at most three distinct phrases.
type ArticleAnnotation struct {
	Title     string    `json:"Title"`
	Summary   string    `json:"Summary"`
	Sentiment Sentiment `json:"Sentiment"`
	Topics    []string  `json:"Topics"`
	URL       string    `json:"URL,omitempty"`
}
