package annotator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/seenimoa/newspulse/internal/analysis/sentiment"
	"github.com/seenimoa/newspulse/pkg/models"
)

// HFClient calls hosted models on the Hugging Face Inference API.
type HFClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHFClient creates a client for baseURL (".../models"). The token may be
// empty for public models, at a much lower rate limit.
func NewHFClient(baseURL, token string, client *http.Client) *HFClient {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HFClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

type hfRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

// infer posts a request for model and decodes the JSON reply into out.
func (c *HFClient) infer(ctx context.Context, model string, req hfRequest, out any) error {
	req.Options = map[string]any{"wait_for_model": true}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("huggingface: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+model, bytes.NewReader(data))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("huggingface: %s: %w", model, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("huggingface: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("huggingface: %s: HTTP %d: %s", model, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("huggingface: %s: decode: %w", model, err)
	}
	return nil
}

type hfLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// HFClassifier runs a text-classification model and maps its label vocabulary.
type HFClassifier struct {
	client *HFClient
	model  string
	mapper sentiment.LabelMapper
}

// NewHFClassifier returns a classifier for model. A nil mapper means SST-2 labels.
func NewHFClassifier(client *HFClient, model string, mapper sentiment.LabelMapper) *HFClassifier {
	if mapper == nil {
		mapper = sentiment.SST2
	}
	return &HFClassifier{client: client, model: model, mapper: mapper}
}

// Classify implements Classifier using the highest-scoring label.
func (c *HFClassifier) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	var raw json.RawMessage
	if err := c.client.infer(ctx, c.model, hfRequest{Inputs: text}, &raw); err != nil {
		return "", err
	}
	labels, err := decodeLabels(raw)
	if err != nil {
		return "", fmt.Errorf("huggingface: %s: %w", c.model, err)
	}

	best := labels[0]
	for _, l := range labels[1:] {
		if l.Score > best.Score {
			best = l
		}
	}
	return c.mapper.Map(best.Label), nil
}

// decodeLabels accepts both the nested [[...]] and flat [...] reply shapes.
func decodeLabels(raw json.RawMessage) ([]hfLabel, error) {
	var nested [][]hfLabel
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}
	var flat []hfLabel
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}
	return nil, fmt.Errorf("no labels in reply")
}

// HFSummarizer runs a summarization model.
type HFSummarizer struct {
	client *HFClient
	model  string
}

// NewHFSummarizer returns a summarizer for model.
func NewHFSummarizer(client *HFClient, model string) *HFSummarizer {
	return &HFSummarizer{client: client, model: model}
}

// Summarize implements Summarizer with greedy decoding.
func (s *HFSummarizer) Summarize(ctx context.Context, text string, length LengthRange) (string, error) {
	req := hfRequest{
		Inputs: text,
		Parameters: map[string]any{
			"max_length": length.Max,
			"min_length": length.Min,
			"do_sample":  false,
		},
	}
	var out []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := s.client.infer(ctx, s.model, req, &out); err != nil {
		return "", err
	}
	if len(out) == 0 || strings.TrimSpace(out[0].SummaryText) == "" {
		return "", fmt.Errorf("huggingface: %s: empty summary", s.model)
	}
	return strings.TrimSpace(out[0].SummaryText), nil
}
