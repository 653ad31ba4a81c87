package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Distribution counts articles per sentiment. All three keys are always serialized.
type Distribution struct {
	Positive int `json:"Positive"`
	Negative int `json:"Negative"`
	Neutral  int `json:"Neutral"`
}

// Add counts one article of sentiment s. Unknown values count as Neutral.
func (d *Distribution) Add(s Sentiment) {
	switch s {
	case Positive:
		d.Positive++
	case Negative:
		d.Negative++
	default:
		d.Neutral++
	}
}

// Count returns the count for s.
func (d Distribution) Count(s Sentiment) int {
	switch s {
	case Positive:
		return d.Positive
	case Negative:
		return d.Negative
	case Neutral:
		return d.Neutral
	}
	return 0
}

// Total returns the number of counted articles.
func (d Distribution) Total() int {
	return d.Positive + d.Negative + d.Neutral
}

// CoverageDifference pairs one positive and one negative article.
type CoverageDifference struct {
	Comparison string `json:"Comparison"`
	Impact     string `json:"Impact"`
}

// TopicOverlap holds topics shared by every article and, per article, the
// topics not in the shared set. UniqueTopics has one entry per article.
type TopicOverlap struct {
	CommonTopics []string
	UniqueTopics [][]string
}

const (
	commonTopicsKey = "Common Topics"
	uniqueKeyPrefix = "Unique Topics in Article "
)

// MarshalJSON writes "Common Topics" followed by "Unique Topics in Article N"
// for every article (1-based).
func (o TopicOverlap) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	common, err := json.Marshal(nonNil(o.CommonTopics))
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&b, "%q:%s", commonTopicsKey, common)
	for i, u := range o.UniqueTopics {
		data, err := json.Marshal(nonNil(u))
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&b, ",%q:%s", uniqueKeyPrefix+strconv.Itoa(i+1), data)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON is the inverse of MarshalJSON. Missing article slots are left empty.
func (o *TopicOverlap) UnmarshalJSON(data []byte) error {
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.CommonTopics = nonNil(raw[commonTopicsKey])

	type slot struct {
		n      int
		topics []string
	}
	var slots []slot
	maxN := 0
	for k, v := range raw {
		if !strings.HasPrefix(k, uniqueKeyPrefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(k, uniqueKeyPrefix))
		if err != nil || n < 1 {
			return fmt.Errorf("topic overlap: bad key %q", k)
		}
		slots = append(slots, slot{n, v})
		if n > maxN {
			maxN = n
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].n < slots[j].n })

	o.UniqueTopics = make([][]string, maxN)
	for i := range o.UniqueTopics {
		o.UniqueTopics[i] = []string{}
	}
	for _, s := range slots {
		o.UniqueTopics[s.n-1] = nonNil(s.topics)
	}
	return nil
}

// Comparative is the aggregated section of a report.
type Comparative struct {
	Distribution        Distribution         `json:"Sentiment Distribution"`
	CoverageDifferences []CoverageDifference `json:"Coverage Differences"`
	TopicOverlap        TopicOverlap         `json:"Topic Overlap"`
}

// EmptyComparative is the zero-article comparative section.
func EmptyComparative() Comparative {
	return Comparative{
		CoverageDifferences: []CoverageDifference{},
		TopicOverlap: TopicOverlap{
			CommonTopics: []string{},
			UniqueTopics: [][]string{},
		},
	}
}

// Report is the full result of one analysis run. It is built once and never mutated.
type Report struct {
	ID           string              `json:"Report ID"`
	Company      string              `json:"Company"`
	Articles     []ArticleAnnotation `json:"Articles"`
	Comparative  Comparative         `json:"Comparative Sentiment Score"`
	FinalVerdict string              `json:"Final Sentiment Analysis"`
	Audio        string              `json:"Audio"`
	Skipped      int                 `json:"Skipped Articles"`
	GeneratedAt  time.Time           `json:"Generated At"`
}

// HasAudio reports whether narration produced an artifact for this report.
func (r *Report) HasAudio() bool {
	return r.Audio != ""
}

// ReportSummary is the list view of a stored report.
type ReportSummary struct {
	ID           string       `json:"id"`
	Company      string       `json:"company"`
	Articles     int          `json:"articles"`
	Distribution Distribution `json:"distribution"`
	FinalVerdict string       `json:"final_verdict"`
	GeneratedAt  time.Time    `json:"generated_at"`
}

// Summary returns the list view of r.
func (r *Report) Summary() ReportSummary {
	return ReportSummary{
		ID:           r.ID,
		Company:      r.Company,
		Articles:     len(r.Articles),
		Distribution: r.Comparative.Distribution,
		FinalVerdict: r.FinalVerdict,
		GeneratedAt:  r.GeneratedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
