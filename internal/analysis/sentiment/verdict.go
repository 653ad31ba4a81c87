package sentiment

import (
	"fmt"

	"github.com/seenimoa/newspulse/pkg/models"
)

// NoArticlesVerdict is the verdict of a run that found nothing to analyze.
const NoArticlesVerdict = "No news articles found."

// Verdict is the direction chosen from a distribution.
type Verdict string

const (
	VerdictPositive Verdict = "positive"
	VerdictNegative Verdict = "negative"
	VerdictNeutral  Verdict = "neutral"
)

// Direction picks the verdict: more positive than negative is positive, more
// negative than positive is negative, and a tie is neutral whatever the
// neutral count.
func Direction(d models.Distribution) Verdict {
	switch {
	case d.Positive > d.Negative:
		return VerdictPositive
	case d.Negative > d.Positive:
		return VerdictNegative
	}
	return VerdictNeutral
}

// SelectVerdict renders the one-sentence final verdict for company.
func SelectVerdict(company string, d models.Distribution) string {
	switch Direction(d) {
	case VerdictPositive:
		return fmt.Sprintf("%s's latest news coverage is mostly positive. Potential stock growth expected.", company)
	case VerdictNegative:
		return fmt.Sprintf("%s's latest news coverage is mostly negative. Potential stock decline expected.", company)
	}
	return fmt.Sprintf("%s's latest news coverage is mostly neutral. Stock outlook remains uncertain.", company)
}
