package sentiment

import (
	"strconv"
	"strings"

	"github.com/seenimoa/newspulse/pkg/models"
)

// LabelMapper turns a model's raw output label into the internal enum.
// Anything a mapper does not recognise must map to Neutral.
type LabelMapper interface {
	Map(raw string) models.Sentiment
}

// LabelSet is a case-insensitive lookup table. Unknown labels are Neutral.
type LabelSet map[string]models.Sentiment

// Map implements LabelMapper.
func (l LabelSet) Map(raw string) models.Sentiment {
	if s, ok := l[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return models.Neutral
}

// MapperFunc adapts a function to LabelMapper.
type MapperFunc func(raw string) models.Sentiment

// Map implements LabelMapper.
func (f MapperFunc) Map(raw string) models.Sentiment { return f(raw) }

// SST2 covers binary sentiment heads fine-tuned on SST-2, which emit
// POSITIVE/NEGATIVE or LABEL_1/LABEL_0.
var SST2 = LabelSet{
	"positive": models.Positive,
	"negative": models.Negative,
	"label_1":  models.Positive,
	"label_0":  models.Negative,
	"pos":      models.Positive,
	"neg":      models.Negative,
}

// Verbal covers free-text labels from instruction-following models.
var Verbal = LabelSet{
	"positive": models.Positive,
	"bullish":  models.Positive,
	"negative": models.Negative,
	"bearish":  models.Negative,
	"neutral":  models.Neutral,
	"mixed":    models.Neutral,
}

// StarRating maps "1 star" .. "5 stars" review heads: 1-2 negative, 3 neutral, 4-5 positive.
var StarRating = MapperFunc(func(raw string) models.Sentiment {
	f := strings.Fields(strings.TrimSpace(raw))
	if len(f) == 0 {
		return models.Neutral
	}
	n, err := strconv.Atoi(f[0])
	if err != nil {
		return models.Neutral
	}
	switch {
	case n <= 2:
		return models.Negative
	case n >= 4:
		return models.Positive
	}
	return models.Neutral
})

// Signed maps "1", "0", "-1" (and any signed number) by sign.
var Signed = MapperFunc(func(raw string) models.Sentiment {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return models.Neutral
	}
	switch {
	case v > 0:
		return models.Positive
	case v < 0:
		return models.Negative
	}
	return models.Neutral
})

// ThresholdMapper maps a numeric score to a label with a ±Threshold neutral band.
type ThresholdMapper struct {
	Threshold float64
}

// Map implements LabelMapper. Non-numeric input is Neutral.
func (t ThresholdMapper) Map(raw string) models.Sentiment {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return models.Neutral
	}
	return t.MapScore(v)
}

// MapScore maps an already parsed score.
func (t ThresholdMapper) MapScore(v float64) models.Sentiment {
	switch {
	case v > t.Threshold:
		return models.Positive
	case v < -t.Threshold:
		return models.Negative
	}
	return models.Neutral
}

// MapperFor returns the named label scheme: "sst2", "verbal", "stars" or "signed".
// Unknown names fall back to SST2.
func MapperFor(name string) LabelMapper {
	switch strings.ToLower(name) {
	case "verbal", "llm":
		return Verbal
	case "stars", "star", "star_rating":
		return StarRating
	case "signed", "score":
		return Signed
	default:
		return SST2
	}
}
