// Package narration turns a verdict sentence into spoken audio: the text is
// translated into the target language and then synthesized to MP3.
package narration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/logger"
)

var (
	// ErrTranslate wraps translation failures.
	ErrTranslate = errors.New("translation failed")
	// ErrSpeech wraps speech synthesis failures.
	ErrSpeech = errors.New("speech synthesis failed")
)

// Translator translates text. source may be "auto".
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Speaker synthesizes speech for text in lang and returns encoded audio.
type Speaker interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// Narration is the result of narrating one verdict.
type Narration struct {
	Text       string
	Translated string
	Lang       string
	Audio      []byte
	MediaType  string
}

// Narrator chains a Translator and a Speaker.
type Narrator struct {
	translator Translator
	speaker    Speaker
	lang       string
	log        logrus.FieldLogger
}

// NewNarrator creates a narrator speaking lang. An empty lang means Hindi.
func NewNarrator(t Translator, s Speaker, lang string, log logrus.FieldLogger) *Narrator {
	if lang == "" {
		lang = "hi"
	}
	return &Narrator{translator: t, speaker: s, lang: lang, log: logger.OrDiscard(log)}
}

// FromConfig builds the Google-backed narrator from cfg.
func FromConfig(cfg config.NarrationConfig, log logrus.FieldLogger) *Narrator {
	return NewNarrator(
		NewGoogleTranslator(cfg.TranslateURL, nil),
		NewGoogleSpeaker(cfg.TTSURL, nil),
		cfg.TargetLang,
		log,
	)
}

// Lang returns the target language code.
func (n *Narrator) Lang() string { return n.lang }

// Narrate translates text and synthesizes it. Context errors are returned unwrapped.
func (n *Narrator) Narrate(ctx context.Context, text string) (Narration, error) {
	out := Narration{Text: text, Lang: n.lang, MediaType: "audio/mpeg"}
	if strings.TrimSpace(text) == "" {
		return out, fmt.Errorf("%w: empty text", ErrTranslate)
	}

	translated, err := n.translator.Translate(ctx, text, "auto", n.lang)
	if err != nil {
		return out, stageError(ctx, ErrTranslate, err)
	}
	out.Translated = translated

	audio, err := n.speaker.Synthesize(ctx, translated, n.lang)
	if err != nil {
		return out, stageError(ctx, ErrSpeech, err)
	}
	if len(audio) == 0 {
		return out, fmt.Errorf("%w: no audio returned", ErrSpeech)
	}
	out.Audio = audio

	n.log.WithFields(logrus.Fields{"lang": n.lang, "bytes": len(audio)}).Debug("narration ready")
	return out, nil
}

func stageError(ctx context.Context, sentinel, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
