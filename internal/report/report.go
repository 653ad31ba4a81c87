package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator
// ════════════════════════════════════════════════════════════════════

// Format identifies an output renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatMarkdown, FormatJSON, FormatHTML}

// ParseFormat accepts a format name or a common alias ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown report format %q (want text, markdown, json or html)", s)
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	Title string // page/report title (default: "News Sentiment Report")

	// UniqueTopicsShown caps how many articles get a unique-topics line.
	// Zero shows all of them.
	UniqueTopicsShown int

	// TopTopics caps the topic frequency chart (default: 8).
	TopTopics int

	ChartCfg ChartConfig
}

// DefaultReportConfig returns the defaults used by the CLI and the server.
func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Title:     "News Sentiment Report",
		TopTopics: 8,
		ChartCfg:  DefaultChartConfig(),
	}
}

// Render dispatches to the generator for format.
func Render(r *models.Report, format Format, cfg ReportConfig) ([]byte, error) {
	switch format {
	case FormatText:
		s, err := GenerateText(r, cfg)
		return []byte(s), err
	case FormatMarkdown:
		s, err := GenerateMarkdown(r, cfg)
		return []byte(s), err
	case FormatJSON:
		return GenerateJSON(r)
	case FormatHTML:
		s, err := GenerateHTML(r, cfg)
		return []byte(s), err
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

// ════════════════════════════════════════════════════════════════════
// Template data model
// ════════════════════════════════════════════════════════════════════

// ReportData is the flattened view shared by the text, markdown and HTML renderers.
type ReportData struct {
	Title        string
	Company      string
	GeneratedAt  string
	Verdict      string
	ArticleCount int
	Skipped      int
	HasArticles  bool

	Articles     []ArticleRow
	Distribution []DistributionRow
	CommonTopics string
	Comparisons  []models.CoverageDifference
	AudioURL     string

	DonutChart template.HTML
	TopicChart template.HTML
}

// ArticleRow is one annotated article ready for display.
type ArticleRow struct {
	Index          int
	Title          string
	Summary        string
	URL            string
	Sentiment      string
	SentimentClass string // CSS class: positive, negative, neutral
	Marker         string
	Topics         string
	UniqueTopics   string // empty when hidden
}

// DistributionRow is one sentiment bucket with its share of the total.
type DistributionRow struct {
	Sentiment string
	Count     int
	Share     string
	Color     string
}

// Page is the input to the HTML page: a form, optionally followed by a report
// or an error message.
type Page struct {
	Query  string
	Report *models.Report
	Error  string
}

type pageData struct {
	Title  string
	Query  string
	Error  string
	Report *ReportData
}

// ════════════════════════════════════════════════════════════════════
// Generate Report
// ════════════════════════════════════════════════════════════════════

// GenerateText renders a plain-text report (terminal / CLI friendly).
func GenerateText(r *models.Report, cfg ReportConfig) (string, error) {
	if r == nil {
		return "", fmt.Errorf("report is nil")
	}
	return renderTextReport(buildReportData(r, cfg)), nil
}

// GenerateMarkdown renders the report as a markdown document.
func GenerateMarkdown(r *models.Report, cfg ReportConfig) (string, error) {
	if r == nil {
		return "", fmt.Errorf("report is nil")
	}
	return renderMarkdownReport(buildReportData(r, cfg)), nil
}

// GenerateJSON renders r in its wire shape, indented.
func GenerateJSON(r *models.Report) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("report is nil")
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return append(data, '\n'), nil
}

// GenerateHTML renders a standalone HTML page for r.
func GenerateHTML(r *models.Report, cfg ReportConfig) (string, error) {
	if r == nil {
		return "", fmt.Errorf("report is nil")
	}
	return GeneratePage(Page{Query: r.Company, Report: r}, cfg)
}

var pageTmpl = template.Must(template.New("page").Parse(PageTemplate))

// GeneratePage renders the analyzer page. A zero Page yields just the form.
func GeneratePage(p Page, cfg ReportConfig) (string, error) {
	if cfg.Title == "" {
		cfg.Title = DefaultReportConfig().Title
	}
	data := pageData{Title: cfg.Title, Query: p.Query, Error: p.Error}
	if p.Report != nil {
		rd := buildReportData(p.Report, cfg)
		data.Report = &rd
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// ════════════════════════════════════════════════════════════════════
// Internal: build template data
// ════════════════════════════════════════════════════════════════════

func buildReportData(r *models.Report, cfg ReportConfig) ReportData {
	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	title := cfg.Title
	if title == "" {
		title = DefaultReportConfig().Title
	}

	comp := r.Comparative
	data := ReportData{
		Title:        fmt.Sprintf("%s: %s", title, r.Company),
		Company:      r.Company,
		GeneratedAt:  utils.FormatReportTime(generated),
		Verdict:      r.FinalVerdict,
		ArticleCount: len(r.Articles),
		Skipped:      r.Skipped,
		HasArticles:  len(r.Articles) > 0,
		Comparisons:  comp.CoverageDifferences,
		AudioURL:     r.Audio,
		CommonTopics: "No common topics found",
	}
	if len(comp.TopicOverlap.CommonTopics) > 0 {
		data.CommonTopics = strings.Join(comp.TopicOverlap.CommonTopics, ", ")
	}

	total := comp.Distribution.Total()
	for _, s := range models.Sentiments {
		n := comp.Distribution.Count(s)
		data.Distribution = append(data.Distribution, DistributionRow{
			Sentiment: string(s),
			Count:     n,
			Share:     utils.FormatPct(n, total),
			Color:     SentimentColor(s),
		})
	}

	unique := comp.TopicOverlap.UniqueTopics
	for i, a := range r.Articles {
		row := ArticleRow{
			Index:          i + 1,
			Title:          a.Title,
			Summary:        a.Summary,
			URL:            a.URL,
			Sentiment:      string(a.Sentiment),
			SentimentClass: strings.ToLower(string(a.Sentiment)),
			Marker:         sentimentMarker(a.Sentiment),
			Topics:         strings.Join(a.Topics, ", "),
		}
		if i < len(unique) && (cfg.UniqueTopicsShown == 0 || i < cfg.UniqueTopicsShown) {
			row.UniqueTopics = "none"
			if len(unique[i]) > 0 {
				row.UniqueTopics = strings.Join(unique[i], ", ")
			}
		}
		data.Articles = append(data.Articles, row)
	}

	if data.HasArticles {
		chartCfg := cfg.ChartCfg
		if chartCfg.Width == 0 {
			chartCfg = DefaultChartConfig()
		}
		donutCfg := chartCfg
		donutCfg.Title = "Sentiment Distribution"
		data.DonutChart = template.HTML(DonutChart(comp.Distribution, donutCfg))

		top := cfg.TopTopics
		if top == 0 {
			top = DefaultReportConfig().TopTopics
		}
		barCfg := chartCfg
		barCfg.Title = "Topic Frequency"
		data.TopicChart = template.HTML(HorizontalBarChart(TopicFrequencies(r.Articles, top), barCfg))
	}

	return data
}

func sentimentMarker(s models.Sentiment) string {
	switch s {
	case models.Positive:
		return "🟢"
	case models.Negative:
		return "🔴"
	case models.Neutral:
		return "🔵"
	}
	return ""
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

func renderTextReport(d ReportData) string {
	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Title))
	sb.WriteString(fmt.Sprintf("  Generated: %s\n", d.GeneratedAt))
	sb.WriteString(line + "\n\n")

	sb.WriteString("  ★ FINAL ANALYSIS\n")
	sb.WriteString(fmt.Sprintf("  %s\n", d.Verdict))
	sb.WriteString(fmt.Sprintf("  Articles analyzed: %d", d.ArticleCount))
	if d.Skipped > 0 {
		sb.WriteString(fmt.Sprintf(" (%d skipped)", d.Skipped))
	}
	sb.WriteString("\n" + thinLine + "\n")

	if !d.HasArticles {
		sb.WriteString("\n" + line + "\n")
		return sb.String()
	}

	sb.WriteString("\n  ■ SENTIMENT DISTRIBUTION\n")
	for _, row := range d.Distribution {
		sb.WriteString(fmt.Sprintf("    %-10s %3d  %s\n", row.Sentiment, row.Count, row.Share))
	}
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ■ ARTICLES\n")
	for _, a := range d.Articles {
		sb.WriteString(fmt.Sprintf("\n  %d. [%s] %s\n", a.Index, a.Sentiment, a.Title))
		sb.WriteString(fmt.Sprintf("     %s\n", a.Summary))
		sb.WriteString(fmt.Sprintf("     Topics: %s\n", a.Topics))
		if a.UniqueTopics != "" {
			sb.WriteString(fmt.Sprintf("     Unique: %s\n", a.UniqueTopics))
		}
	}
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ■ COMPARATIVE INSIGHTS\n")
	if len(d.Comparisons) == 0 {
		sb.WriteString("    No comparative insights available\n")
	}
	for _, c := range d.Comparisons {
		sb.WriteString(fmt.Sprintf("    • %s\n    • %s\n", c.Comparison, c.Impact))
	}
	sb.WriteString(fmt.Sprintf("    Common topics: %s\n", d.CommonTopics))
	sb.WriteString(thinLine + "\n")

	if d.AudioURL != "" {
		sb.WriteString(fmt.Sprintf("\n  Audio summary: %s\n", d.AudioURL))
	}

	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  Based on recent headlines only. Not investment advice.\n")
	sb.WriteString(line + "\n")

	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Markdown renderer
// ════════════════════════════════════════════════════════════════════

func renderMarkdownReport(d ReportData) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# 📰 %s\n\n", d.Title))
	sb.WriteString("## Analysis Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Company:** %s\n", d.Company))
	sb.WriteString(fmt.Sprintf("- **Final Analysis:** %s\n", d.Verdict))
	sb.WriteString(fmt.Sprintf("- **Articles Analyzed:** %d\n", d.ArticleCount))
	if d.Skipped > 0 {
		sb.WriteString(fmt.Sprintf("- **Articles Skipped:** %d\n", d.Skipped))
	}
	sb.WriteString(fmt.Sprintf("- **Common Topics:** %s\n", d.CommonTopics))
	sb.WriteString(fmt.Sprintf("- **Generated on:** %s\n\n", d.GeneratedAt))

	if !d.HasArticles {
		sb.WriteString("No news articles found for this company.\n")
		return sb.String()
	}

	sb.WriteString("## Sentiment Distribution\n\n")
	sb.WriteString("| Sentiment | Count | Share |\n|---|---:|---:|\n")
	for _, row := range d.Distribution {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n", row.Sentiment, row.Count, row.Share))
	}
	sb.WriteString("\n")

	sb.WriteString("## News Articles\n\n")
	for _, a := range d.Articles {
		sb.WriteString(fmt.Sprintf("### %d. %s %s\n\n", a.Index, a.Marker, a.Title))
		sb.WriteString(fmt.Sprintf("**Summary:** %s\n\n", a.Summary))
		sb.WriteString(fmt.Sprintf("**Sentiment:** %s\n\n", a.Sentiment))
		sb.WriteString(fmt.Sprintf("**Topics:** %s\n\n", a.Topics))
		if a.UniqueTopics != "" {
			sb.WriteString(fmt.Sprintf("**Unique Topics:** %s\n\n", a.UniqueTopics))
		}
		if a.URL != "" {
			sb.WriteString(fmt.Sprintf("[Read more](%s)\n\n", a.URL))
		}
		sb.WriteString("---\n\n")
	}

	sb.WriteString("## Comparative Insights\n\n")
	if len(d.Comparisons) == 0 {
		sb.WriteString("No comparative insights available\n")
	} else {
		parts := make([]string, len(d.Comparisons))
		for i, c := range d.Comparisons {
			parts[i] = fmt.Sprintf("* %s\n* %s", c.Comparison, c.Impact)
		}
		sb.WriteString(strings.Join(parts, "\n\n") + "\n")
	}

	if d.AudioURL != "" {
		sb.WriteString(fmt.Sprintf("\n## Audio Summary\n\n[Listen](%s)\n", d.AudioURL))
	}
	return sb.String()
}
