package report

// PageTemplate is the analyzer page: a company form, then the report when one
// is present. Executed with html/template, so report text is escaped.
const PageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{if .Report}}{{.Report.Title}}{{else}}{{.Title}}{{end}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #1a73e8;
    --positive: #4CAF50;
    --negative: #F44336;
    --neutral: #2196F3;
    --section-bg: #f8f9fa;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 960px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  h3 { font-size: 1rem; margin: 12px 0 6px; }
  p { margin: 6px 0; }
  .muted { color: var(--muted); font-size: 0.85rem; }

  /* Form */
  form { display: flex; gap: 8px; margin: 16px 0; }
  form input[type=text] {
    flex: 1; padding: 10px 12px; font-size: 1rem;
    border: 1px solid var(--border); border-radius: 6px;
  }
  form button {
    padding: 10px 20px; font-size: 1rem; font-weight: 600;
    background: var(--accent); color: white; border: none; border-radius: 6px; cursor: pointer;
  }
  .error {
    background: #fef2f2; border-left: 5px solid var(--negative);
    padding: 12px; border-radius: 6px; margin: 12px 0;
  }

  /* Summary card */
  .summary-card {
    border: 1px solid #ddd; padding: 15px; border-radius: 8px;
    background: var(--section-bg); margin: 12px 0;
  }
  .summary-card h3 { margin-top: 0; color: var(--accent); }

  /* Charts */
  .charts { display: grid; grid-template-columns: repeat(auto-fit, minmax(320px, 1fr)); gap: 12px; }
  .chart-container { overflow-x: auto; }
  .chart-container svg { max-width: 100%; height: auto; }

  /* Articles */
  .article { border-bottom: 1px solid var(--border); padding: 10px 0; }
  .badge {
    display: inline-block; padding: 1px 8px; border-radius: 3px;
    font-size: 0.8rem; font-weight: 600; color: white;
  }
  .badge.positive { background: var(--positive); }
  .badge.negative { background: var(--negative); }
  .badge.neutral { background: var(--neutral); }

  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); }

  .footer {
    margin-top: 30px; padding-top: 12px; border-top: 2px solid var(--border);
    font-size: 0.8rem; color: var(--muted); text-align: center;
  }
</style>
</head>
<body>

<!-- ═══════ HEADER ═══════ -->
<h1>📰 {{.Title}}</h1>
<p class="muted">Sentiment, topics and a Hindi audio summary for recent news about any company.</p>

<form method="get" action="/">
  <input type="text" name="company_name" value="{{.Query}}" placeholder="Example: Apple, Microsoft, Tesla" aria-label="Company name">
  <button type="submit">Analyze</button>
</form>
<div id="progress" class="muted"></div>

{{if .Error}}<div class="error">{{.Error}}</div>{{end}}

{{with .Report}}
<!-- ═══════ SUMMARY ═══════ -->
<div class="summary-card">
  <h3>Analysis Summary</h3>
  <p><strong>Company:</strong> {{.Company}}</p>
  <p><strong>Final Analysis:</strong> {{.Verdict}}</p>
  <p><strong>Articles Analyzed:</strong> {{.ArticleCount}}{{if .Skipped}} ({{.Skipped}} skipped){{end}}</p>
  <p><strong>Common Topics:</strong> {{.CommonTopics}}</p>
  <p><strong>Generated on:</strong> {{.GeneratedAt}}</p>
</div>

{{if .AudioURL}}
<h2>Audio Summary</h2>
<audio controls preload="none" src="{{.AudioURL}}"></audio>
{{end}}

{{if .HasArticles}}
<!-- ═══════ CHARTS ═══════ -->
<h2>Sentiment Analysis</h2>
<div class="charts">
  <div class="chart-container">{{.DonutChart}}</div>
  <div class="chart-container">{{.TopicChart}}</div>
</div>
<table>
  <tr><th>Sentiment</th><th>Count</th><th>Share</th></tr>
  {{range .Distribution}}<tr><td style="color: {{.Color}}">{{.Sentiment}}</td><td>{{.Count}}</td><td>{{.Share}}</td></tr>
  {{end}}
</table>

<!-- ═══════ ARTICLES ═══════ -->
<h2>News Articles</h2>
{{range .Articles}}
<div class="article">
  <h3>{{.Index}}. {{if .URL}}<a href="{{.URL}}" rel="noopener" target="_blank">{{.Title}}</a>{{else}}{{.Title}}{{end}}
    <span class="badge {{.SentimentClass}}">{{.Sentiment}}</span></h3>
  <p>{{.Summary}}</p>
  <p class="muted"><strong>Topics:</strong> {{.Topics}}{{if .UniqueTopics}} · <strong>Unique:</strong> {{.UniqueTopics}}{{end}}</p>
</div>
{{end}}

<!-- ═══════ COMPARISON ═══════ -->
<h2>Comparative Insights</h2>
{{if .Comparisons}}<ul>{{range .Comparisons}}
  <li>{{.Comparison}}</li>
  <li>{{.Impact}}</li>{{end}}
</ul>{{else}}<p>No comparative insights available</p>{{end}}
{{else}}
<p>No news articles found for this company.</p>
{{end}}
{{end}}

<div class="footer">
  Analysis is based on recent news headlines and should not be used as the sole basis for investment decisions.
</div>
<script src="/static/progress.js" defer></script>
</body>
</html>
`
