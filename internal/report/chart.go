// Package report renders sentiment reports for terminals, markdown viewers,
// JSON clients and browsers. Charts are emitted as inline SVG.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/seenimoa/newspulse/pkg/models"
)

// Sentiment palette shared by every renderer.
const (
	ColorPositive = "#4CAF50"
	ColorNegative = "#F44336"
	ColorNeutral  = "#2196F3"
)

// SentimentColor returns the palette color for s.
func SentimentColor(s models.Sentiment) string {
	switch s {
	case models.Positive:
		return ColorPositive
	case models.Negative:
		return ColorNegative
	default:
		return ColorNeutral
	}
}

// ════════════════════════════════════════════════════════════════════
// SVG Chart Config
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 480)
	Height       int    // SVG height in pixels (default: 320)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 50)
	MarginBottom int    // bottom margin (default: 20)
	MarginLeft   int    // left margin (default: 140)
	BgColor      string // background color (default: "#ffffff")
	TextColor    string // label color (default: "#333333")
	FontSize     int    // label font size (default: 12)
	Title        string // chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        480,
		Height:       320,
		MarginTop:    40,
		MarginRight:  50,
		MarginBottom: 20,
		MarginLeft:   140,
		BgColor:      "#ffffff",
		TextColor:    "#333333",
		FontSize:     12,
	}
}

func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// ════════════════════════════════════════════════════════════════════
// Donut Chart
// ════════════════════════════════════════════════════════════════════

// DonutHole is the inner radius as a fraction of the outer radius.
const DonutHole = 0.4

// DonutChart renders the sentiment distribution as a donut with a legend.
// Zero-count slices are omitted; an all-zero distribution yields a placeholder.
func DonutChart(d models.Distribution, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if cfg.Title == "" {
		cfg.Title = "Sentiment Distribution"
	}
	total := d.Total()
	if total == 0 {
		return emptySVG(cfg, "No sentiment data")
	}

	legendW := 130
	cx := float64(cfg.Width-legendW) / 2
	cy := float64(cfg.MarginTop) + float64(cfg.Height-cfg.MarginTop-cfg.MarginBottom)/2
	outer := math.Min(float64(cfg.Width-legendW), float64(cfg.Height-cfg.MarginTop-cfg.MarginBottom))/2 - 4
	inner := outer * DonutHole

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="22" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	// Slices start at 12 o'clock and run clockwise.
	angle := -math.Pi / 2
	legendY := cfg.MarginTop + 20
	for _, s := range models.Sentiments {
		n := d.Count(s)
		if n == 0 {
			continue
		}
		frac := float64(n) / float64(total)
		color := SentimentColor(s)

		if n == total {
			// A single full slice cannot be drawn as one arc.
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s" stroke-width="%.1f"/>`,
				cx, cy, (outer+inner)/2, color, outer-inner))
		} else {
			sb.WriteString(donutSlice(cx, cy, outer, inner, angle, angle+frac*2*math.Pi, color))
		}
		angle += frac * 2 * math.Pi

		lx := cfg.Width - legendW + 10
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="12" height="12" fill="%s" rx="2"/>`,
			lx, legendY-10, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s">%s %d (%.0f%%)</text>`,
			lx+18, legendY, cfg.FontSize, cfg.TextColor, s, n, frac*100))
		legendY += 22
	}

	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="20" font-weight="bold" fill="%s" text-anchor="middle">%d</text>`,
		cx, cy+7, cfg.TextColor, total))
	sb.WriteString("</svg>")
	return sb.String()
}

// donutSlice draws the ring segment between angles a0 and a1 (radians).
func donutSlice(cx, cy, outer, inner, a0, a1 float64, color string) string {
	large := 0
	if a1-a0 > math.Pi {
		large = 1
	}
	ox0, oy0 := cx+outer*math.Cos(a0), cy+outer*math.Sin(a0)
	ox1, oy1 := cx+outer*math.Cos(a1), cy+outer*math.Sin(a1)
	ix1, iy1 := cx+inner*math.Cos(a1), cy+inner*math.Sin(a1)
	ix0, iy0 := cx+inner*math.Cos(a0), cy+inner*math.Sin(a0)
	return fmt.Sprintf(`<path d="M%.2f,%.2f A%.2f,%.2f 0 %d,1 %.2f,%.2f L%.2f,%.2f A%.2f,%.2f 0 %d,0 %.2f,%.2f Z" fill="%s"/>`,
		ox0, oy0, outer, outer, large, ox1, oy1,
		ix1, iy1, inner, inner, large, ix0, iy0, color)
}

// ════════════════════════════════════════════════════════════════════
// Bar Chart (Horizontal)
// ════════════════════════════════════════════════════════════════════

// BarItem represents a single bar in a horizontal bar chart.
type BarItem struct {
	Label string
	Value float64
	Color string // optional
}

// HorizontalBarChart generates an SVG horizontal bar chart with non-negative values.
func HorizontalBarChart(items []BarItem, cfg ChartConfig) string {
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if len(items) == 0 {
		return emptySVG(cfg, "No data")
	}
	if cfg.Title == "" {
		cfg.Title = "Comparison"
	}

	px, py, pw, ph := cfg.plotArea()

	maxVal := 0.0
	for _, item := range items {
		if item.Value > maxVal {
			maxVal = item.Value
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	barH := float64(ph) / float64(len(items)) * 0.7
	if barH > 24 {
		barH = 24
	}
	gap := (float64(ph) - barH*float64(len(items))) / float64(len(items)+1)

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="22" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	for i, item := range items {
		by := float64(py) + gap + float64(i)*(barH+gap)
		color := item.Color
		if color == "" {
			color = ColorNeutral
		}
		bw := math.Max(item.Value, 0) / maxVal * float64(pw)

		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="2"/>`,
			px, by, bw, barH, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-6, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(item.Label)))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%s</text>`,
			float64(px)+bw+5, by+barH/2+4, cfg.FontSize, cfg.TextColor, formatValue(item.Value)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// TopicFrequencies counts how many articles mention each topic, most frequent
// first, ties in first-seen order. At most limit items are returned; limit <= 0
// means all.
func TopicFrequencies(articles []models.ArticleAnnotation, limit int) []BarItem {
	counts := make(map[string]int)
	var order []string
	for _, a := range articles {
		seen := make(map[string]bool, len(a.Topics))
		for _, t := range a.Topics {
			if seen[t] {
				continue
			}
			seen[t] = true
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	items := make([]BarItem, len(order))
	for i, t := range order {
		items[i] = BarItem{Label: t, Value: float64(counts[t])}
	}
	return items
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
