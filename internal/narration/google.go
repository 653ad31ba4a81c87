package narration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	defaultTranslateURL = "https://translate.googleapis.com/translate_a/single"
	defaultTTSURL       = "https://translate.google.com/translate_tts"

	// MaxChunkChars is the longest text the TTS endpoint accepts per request.
	MaxChunkChars = 100
)

func defaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: 20 * time.Second}
}

func get(ctx context.Context, client *http.Client, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		snippet := body
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return body, nil
}

// ── Translation ──

// GoogleTranslator uses the public translate_a/single endpoint (client=gtx).
type GoogleTranslator struct {
	endpoint string
	client   *http.Client
}

// NewGoogleTranslator creates a translator. Empty endpoint uses the public one.
func NewGoogleTranslator(endpoint string, client *http.Client) *GoogleTranslator {
	if endpoint == "" {
		endpoint = defaultTranslateURL
	}
	return &GoogleTranslator{endpoint: endpoint, client: defaultClient(client)}
}

// Translate implements Translator.
func (g *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == "" {
		source = "auto"
	}
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	body, err := get(ctx, g.client, g.endpoint+"?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranslate, err)
	}
	out, err := parseTranslation(body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranslate, err)
	}
	return out, nil
}

// parseTranslation joins the translated segments of a translate_a/single reply:
// [[["segment","source",...], ...], null, "en", ...].
func parseTranslation(body []byte) (string, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil || len(top) == 0 {
		return "", fmt.Errorf("unexpected reply: %.80s", body)
	}
	var segments [][]json.RawMessage
	if err := json.Unmarshal(top[0], &segments); err != nil {
		return "", fmt.Errorf("unexpected segments: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(seg[0], &s); err != nil {
			continue
		}
		b.WriteString(s)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty translation")
	}
	return b.String(), nil
}

// ── Speech ──

// GoogleSpeaker uses the translate_tts endpoint (client=tw-ob) and returns MP3.
type GoogleSpeaker struct {
	endpoint string
	client   *http.Client
}

// NewGoogleSpeaker creates a speaker. Empty endpoint uses the public one.
func NewGoogleSpeaker(endpoint string, client *http.Client) *GoogleSpeaker {
	if endpoint == "" {
		endpoint = defaultTTSURL
	}
	return &GoogleSpeaker{endpoint: endpoint, client: defaultClient(client)}
}

// Synthesize implements Speaker. Long text is spoken in chunks whose MP3
// frames are concatenated.
func (g *GoogleSpeaker) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	chunks := SplitChunks(text, MaxChunkChars)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: empty text", ErrSpeech)
	}

	var audio []byte
	for i, chunk := range chunks {
		q := url.Values{}
		q.Set("ie", "UTF-8")
		q.Set("client", "tw-ob")
		q.Set("tl", lang)
		q.Set("q", chunk)
		q.Set("total", strconv.Itoa(len(chunks)))
		q.Set("idx", strconv.Itoa(i))
		q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

		part, err := get(ctx, g.client, g.endpoint+"?"+q.Encode())
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %d/%d: %w", ErrSpeech, i+1, len(chunks), err)
		}
		audio = append(audio, part...)
	}
	return audio, nil
}

// SplitChunks splits text on word boundaries into pieces of at most max runes.
// A single word longer than max is cut.
func SplitChunks(text string, max int) []string {
	var chunks []string
	var cur []rune
	flush := func() {
		if s := strings.TrimSpace(string(cur)); s != "" {
			chunks = append(chunks, s)
		}
		cur = cur[:0]
	}

	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > max {
			flush()
			chunks = append(chunks, string(w[:max]))
			w = w[max:]
		}
		switch {
		case len(cur) == 0:
			cur = append(cur, w...)
		case len(cur)+1+len(w) <= max:
			cur = append(cur, ' ')
			cur = append(cur, w...)
		default:
			flush()
			cur = append(cur, w...)
		}
	}
	flush()
	return chunks
}
