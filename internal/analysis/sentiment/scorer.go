package sentiment

import (
	"math"
	"strings"
	"unicode"
)

// ------------------------------------------------------------------
// Keyword-based sentiment scorer (offline, no model needed).
// When a hosted model is configured the annotator uses it instead;
// this provides a deterministic fallback.
// ------------------------------------------------------------------

// positive / negative keyword dictionaries (lowercase word stems).
// A stem matches any word that starts with it.
var positiveWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "soar": 0.7, "upbeat": 0.5,
	"positive": 0.4, "growth": 0.4, "grow": 0.3, "upgrade": 0.6, "outperform": 0.6,
	"strong": 0.4, "recover": 0.5, "breakthrough": 0.6, "record high": 0.7,
	"all-time high": 0.7, "beat": 0.5, "exceed": 0.5, "expand": 0.4,
	"profit": 0.3, "dividend": 0.4, "gain": 0.4, "jump": 0.5, "boost": 0.5,
	"wins": 0.4, "award": 0.4, "launch": 0.3, "partnership": 0.3, "innovat": 0.4,
	"record quarter": 0.6, "great": 0.5, "success": 0.5, "milestone": 0.4,
	"approv": 0.4, "hire": 0.3, "raise": 0.3,
}

var negativeWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6, "tumble": 0.6,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6,
	"weak": 0.4, "decline": 0.5, "loss": 0.4, "lose": 0.4,
	"selloff": 0.7, "fall": 0.4, "drop": 0.4, "correction": 0.5,
	"default": 0.7, "fraud": 0.8, "scam": 0.8, "investigat": 0.5, "probe": 0.5,
	"cut": 0.3, "missed": 0.5, "misses": 0.5, "warning": 0.5, "warn": 0.4, "concern": 0.3,
	"layoff": 0.7, "lawsuit": 0.6, "sued": 0.5, "sues": 0.5, "recall": 0.6, "fine": 0.3,
	"bankrupt": 0.9, "scandal": 0.7, "delay": 0.4, "resign": 0.4,
	"strike": 0.4, "halt": 0.5, "risk": 0.3, "crisis": 0.6,
}

// Score is the lexicon verdict for one piece of text.
type Score struct {
	Value      float64 // -1.0 (very negative) to +1.0 (very positive)
	Confidence float64 // 0.1 (no signal) to 0.85
	Matches    int
}

// Label returns "positive", "negative" or "neutral" using a ±threshold band.
func (s Score) Label(threshold float64) string {
	switch {
	case s.Value > threshold:
		return "positive"
	case s.Value < -threshold:
		return "negative"
	}
	return "neutral"
}

// ScoreText returns a sentiment score for a headline or paragraph.
func ScoreText(text string) Score {
	padded := " " + normalizeText(text) + " "

	pos, neg := 0.0, 0.0
	matches := 0

	for word, weight := range positiveWords {
		if n := strings.Count(padded, " "+word); n > 0 {
			pos += weight * float64(n)
			matches += n
		}
	}
	for word, weight := range negativeWords {
		if n := strings.Count(padded, " "+word); n > 0 {
			neg += weight * float64(n)
			matches += n
		}
	}

	total := pos + neg
	if matches == 0 || total == 0 {
		return Score{Confidence: 0.1}
	}

	return Score{
		Value:      (pos - neg) / total,
		Confidence: math.Min(float64(matches)*0.15+0.2, 0.85),
		Matches:    matches,
	}
}

// normalizeText lowercases and replaces punctuation (except '-') with spaces.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
