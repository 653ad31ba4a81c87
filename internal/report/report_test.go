package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/newspulse/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func sampleReport() *models.Report {
	return &models.Report{
		ID:      "rep-1",
		Company: "Tesla",
		Articles: []models.ArticleAnnotation{
			{
				Title:     "Tesla sales surge in Europe",
				Summary:   "Deliveries rose sharply on strong demand.",
				Sentiment: models.Positive,
				Topics:    []string{"sales", "europe", "demand"},
				URL:       "https://example.com/a",
			},
			{
				Title:     "Tesla faces recall probe",
				Summary:   "Regulators opened an investigation.",
				Sentiment: models.Negative,
				Topics:    []string{"recall", "sales"},
			},
			{
				Title:     "Tesla annual meeting set",
				Summary:   "The meeting is scheduled for June.",
				Sentiment: models.Neutral,
				Topics:    []string{"sales", "meeting"},
			},
		},
		Comparative: models.Comparative{
			Distribution: models.Distribution{Positive: 1, Negative: 1, Neutral: 1},
			CoverageDifferences: []models.CoverageDifference{{
				Comparison: "Article 1 is positive while Article 2 is negative.",
				Impact:     "Mixed coverage may cause uncertainty.",
			}},
			TopicOverlap: models.TopicOverlap{
				CommonTopics: []string{"sales"},
				UniqueTopics: [][]string{{"europe", "demand"}, {"recall"}, {"meeting"}},
			},
		},
		FinalVerdict: "Tesla news coverage is mixed.",
		Audio:        "/api/v1/reports/rep-1/audio",
		GeneratedAt:  time.Date(2025, 3, 14, 15, 4, 0, 0, time.UTC),
	}
}

func emptyReport() *models.Report {
	return &models.Report{
		ID:           "rep-0",
		Company:      "Nobody Inc",
		Articles:     []models.ArticleAnnotation{},
		Comparative:  models.EmptyComparative(),
		FinalVerdict: "No news articles found.",
		GeneratedAt:  time.Date(2025, 3, 14, 15, 4, 0, 0, time.UTC),
	}
}

func assertContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q", w)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// Charts
// ════════════════════════════════════════════════════════════════════

func TestDonutChart_Basic(t *testing.T) {
	svg := DonutChart(models.Distribution{Positive: 2, Negative: 1, Neutral: 1}, ChartConfig{})
	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("expected SVG output")
	}
	assertContains(t, svg, "Sentiment Distribution", ColorPositive, ColorNegative, ColorNeutral, "Positive 2 (50%)")
	if got := strings.Count(svg, "<path"); got != 3 {
		t.Errorf("expected 3 slices, got %d", got)
	}
}

func TestDonutChart_SkipsZeroSlices(t *testing.T) {
	svg := DonutChart(models.Distribution{Positive: 3, Neutral: 1}, DefaultChartConfig())
	if strings.Contains(svg, ColorNegative) {
		t.Error("zero-count negative slice should be omitted")
	}
	if got := strings.Count(svg, "<path"); got != 2 {
		t.Errorf("expected 2 slices, got %d", got)
	}
}

func TestDonutChart_SingleSentiment(t *testing.T) {
	svg := DonutChart(models.Distribution{Negative: 4}, DefaultChartConfig())
	if strings.Contains(svg, "<path") {
		t.Error("a full ring should be drawn as a circle")
	}
	assertContains(t, svg, "<circle", ColorNegative)
}

func TestDonutChart_Empty(t *testing.T) {
	svg := DonutChart(models.Distribution{}, DefaultChartConfig())
	assertContains(t, svg, "No sentiment data")
}

func TestHorizontalBarChart_Basic(t *testing.T) {
	cfg := DefaultChartConfig()
	cfg.Title = "Topics"
	svg := HorizontalBarChart([]BarItem{
		{Label: "sales", Value: 3},
		{Label: "recall", Value: 1.5, Color: ColorNegative},
	}, cfg)
	assertContains(t, svg, "Topics", "sales", "recall", ">3<", ">1.5<", ColorNegative)
}

func TestHorizontalBarChart_EscapesLabels(t *testing.T) {
	svg := HorizontalBarChart([]BarItem{{Label: "M&A <deals>", Value: 1}}, ChartConfig{})
	assertContains(t, svg, "M&amp;A &lt;deals&gt;")
}

func TestHorizontalBarChart_Empty(t *testing.T) {
	svg := HorizontalBarChart(nil, ChartConfig{})
	assertContains(t, svg, "No data")
}

func TestTopicFrequencies(t *testing.T) {
	items := TopicFrequencies(sampleReport().Articles, 0)
	if len(items) != 5 {
		t.Fatalf("expected 5 topics, got %d", len(items))
	}
	if items[0].Label != "sales" || items[0].Value != 3 {
		t.Errorf("first item = %+v, want sales=3", items[0])
	}
	// ties keep first-seen order
	if items[1].Label != "europe" || items[2].Label != "demand" {
		t.Errorf("tie order = %s, %s", items[1].Label, items[2].Label)
	}

	if got := TopicFrequencies(sampleReport().Articles, 2); len(got) != 2 {
		t.Errorf("limit 2: got %d items", len(got))
	}
}

func TestTopicFrequencies_CountsOncePerArticle(t *testing.T) {
	items := TopicFrequencies([]models.ArticleAnnotation{{Topics: []string{"ai", "ai"}}}, 0)
	if len(items) != 1 || items[0].Value != 1 {
		t.Errorf("got %+v", items)
	}
}

// ════════════════════════════════════════════════════════════════════
// Formats
// ════════════════════════════════════════════════════════════════════

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":         FormatText,
		"TEXT":     FormatText,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
		"json":     FormatJSON,
		" html ":   FormatHTML,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("expected error for pdf")
	}
}

func TestRender_AllFormats(t *testing.T) {
	for _, f := range Formats {
		out, err := Render(sampleReport(), f, DefaultReportConfig())
		if err != nil {
			t.Errorf("%s: %v", f, err)
			continue
		}
		if !strings.Contains(string(out), "Tesla") {
			t.Errorf("%s: output does not mention the company", f)
		}
	}
	if _, err := Render(sampleReport(), Format("pdf"), DefaultReportConfig()); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestGenerators_NilReport(t *testing.T) {
	cfg := DefaultReportConfig()
	if _, err := GenerateText(nil, cfg); err == nil {
		t.Error("text: expected error")
	}
	if _, err := GenerateMarkdown(nil, cfg); err == nil {
		t.Error("markdown: expected error")
	}
	if _, err := GenerateJSON(nil); err == nil {
		t.Error("json: expected error")
	}
	if _, err := GenerateHTML(nil, cfg); err == nil {
		t.Error("html: expected error")
	}
}

// ════════════════════════════════════════════════════════════════════
// Text
// ════════════════════════════════════════════════════════════════════

func TestGenerateText(t *testing.T) {
	out, err := GenerateText(sampleReport(), DefaultReportConfig())
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, out,
		"News Sentiment Report: Tesla",
		"Friday, March 14, 2025 03:04 PM",
		"Tesla news coverage is mixed.",
		"Articles analyzed: 3",
		"33.3%",
		"1. [Positive] Tesla sales surge in Europe",
		"Unique: europe, demand",
		"Article 1 is positive while Article 2 is negative.",
		"Common topics: sales",
		"/api/v1/reports/rep-1/audio",
	)
}

func TestGenerateText_Empty(t *testing.T) {
	out, err := GenerateText(emptyReport(), DefaultReportConfig())
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, out, "No news articles found.", "Articles analyzed: 0")
	if strings.Contains(out, "SENTIMENT DISTRIBUTION") {
		t.Error("empty report should not print a distribution")
	}
}

func TestGenerateText_Skipped(t *testing.T) {
	r := sampleReport()
	r.Skipped = 2
	out, _ := GenerateText(r, DefaultReportConfig())
	assertContains(t, out, "(2 skipped)")
}

// ════════════════════════════════════════════════════════════════════
// Markdown
// ════════════════════════════════════════════════════════════════════

func TestGenerateMarkdown(t *testing.T) {
	out, err := GenerateMarkdown(sampleReport(), DefaultReportConfig())
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, out,
		"## Analysis Summary",
		"- **Final Analysis:** Tesla news coverage is mixed.",
		"- **Common Topics:** sales",
		"### 1. 🟢 Tesla sales surge in Europe",
		"### 2. 🔴 Tesla faces recall probe",
		"### 3. 🔵 Tesla annual meeting set",
		"**Topics:** sales, europe, demand",
		"[Read more](https://example.com/a)",
		"* Article 1 is positive while Article 2 is negative.\n* Mixed coverage may cause uncertainty.",
		"| Positive | 1 | 33.3% |",
		"[Listen](/api/v1/reports/rep-1/audio)",
	)
}

func TestGenerateMarkdown_Fallbacks(t *testing.T) {
	r := sampleReport()
	r.Comparative.CoverageDifferences = nil
	r.Comparative.TopicOverlap.CommonTopics = nil
	r.Audio = ""

	out, err := GenerateMarkdown(r, DefaultReportConfig())
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, out, "No comparative insights available", "No common topics found")
	if strings.Contains(out, "Audio Summary") {
		t.Error("audio section should be omitted without audio")
	}
}

func TestGenerateMarkdown_UniqueTopicsShown(t *testing.T) {
	cfg := DefaultReportConfig()
	cfg.UniqueTopicsShown = 1
	out, _ := GenerateMarkdown(sampleReport(), cfg)
	if got := strings.Count(out, "**Unique Topics:**"); got != 1 {
		t.Errorf("expected 1 unique-topics line, got %d", got)
	}
}

func TestGenerateMarkdown_Empty(t *testing.T) {
	out, err := GenerateMarkdown(emptyReport(), DefaultReportConfig())
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, out, "No news articles found for this company.", "No common topics found")
}

// ════════════════════════════════════════════════════════════════════
// JSON
// ════════════════════════════════════════════════════════════════════

func TestGenerateJSON(t *testing.T) {
	data, err := GenerateJSON(sampleReport())
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"Company", "Articles", "Comparative Sentiment Score", "Final Sentiment Analysis", "Audio"} {
		if _, ok := raw[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
	assertContains(t, string(data), `"Unique Topics in Article 3"`)
}

// ════════════════════════════════════════════════════════════════════
// HTML
// ════════════════════════════════════════════════════════════════════

func TestGenerateHTML(t *testing.T) {
	out, err := GenerateHTML(sampleReport(), DefaultReportConfig())
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, out,
		"<!DOCTYPE html>",
		`name="company_name" value="Tesla"`,
		"Analysis Summary",
		"Friday, March 14, 2025 03:04 PM",
		"Sentiment Distribution",
		"Topic Frequency",
		`<audio controls preload="none" src="/api/v1/reports/rep-1/audio">`,
		`class="badge negative"`,
		"Mixed coverage may cause uncertainty.",
	)
}

func TestGeneratePage_FormOnly(t *testing.T) {
	out, err := GeneratePage(Page{}, DefaultReportConfig())
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, out, `<form method="get" action="/">`)
	if strings.Contains(out, "Analysis Summary") {
		t.Error("form-only page should not render a report")
	}
}

func TestGeneratePage_Error(t *testing.T) {
	out, err := GeneratePage(Page{Error: "Please enter a company name"}, ReportConfig{})
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, out, `<div class="error">Please enter a company name</div>`, "News Sentiment Report")
}

func TestGeneratePage_EscapesReportText(t *testing.T) {
	r := sampleReport()
	r.Articles[0].Title = "<script>alert(1)</script>"
	out, err := GenerateHTML(r, DefaultReportConfig())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Error("article title was not escaped")
	}
}

func TestGenerateHTML_Empty(t *testing.T) {
	out, err := GenerateHTML(emptyReport(), DefaultReportConfig())
	if err != nil {
		t.Fatal(err)
	}
	assertContains(t, out, "No news articles found for this company.")
	if strings.Contains(out, "<svg") {
		t.Error("empty report should not render charts")
	}
}
