package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

const (
	defaultSourceLanguage = "en"
	defaultTargetLanguage = "hi"
	defaultFallbackText   = "Translation failed"
)

// silentFrame is one MPEG-1 Layer III frame (128 kbit/s, 44.1 kHz) of silence.
var silentFrame = func() []byte {
	frame := make([]byte, 417)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0x64})
	return frame
}()

// NarratorDeps wires the speech backends into a Narrator.
type NarratorDeps struct {
	Translator     ports.Translator
	Synthesizer    ports.Synthesizer
	Store          ports.AudioStore
	Metrics        ports.Recorder
	Logger         *slog.Logger
	SourceLanguage string
	TargetLanguage string
	FallbackText   string
}

// Narrator translates a summary and persists spoken audio for it.
type Narrator struct {
	translator  ports.Translator
	synthesizer ports.Synthesizer
	store       ports.AudioStore
	metrics     ports.Recorder
	logger      *slog.Logger
	source      string
	target      string
	fallback    string
	now         func() time.Time
}

// NewNarrator applies the en->hi defaults for unset languages.
func NewNarrator(deps NarratorDeps) *Narrator {
	n := &Narrator{
		translator:  deps.Translator,
		synthesizer: deps.Synthesizer,
		store:       deps.Store,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		source:      deps.SourceLanguage,
		target:      deps.TargetLanguage,
		fallback:    deps.FallbackText,
		now:         time.Now,
	}
	if n.source == "" {
		n.source = defaultSourceLanguage
	}
	if n.target == "" {
		n.target = defaultTargetLanguage
	}
	if n.fallback == "" {
		n.fallback = defaultFallbackText
	}
	return n
}

// Narrate always leaves a playable file at key. Translation and synthesis
// problems degrade the content and are reported through the artifact status;
// only a failed write to the store is returned as an error.
func (n *Narrator) Narrate(ctx context.Context, text string, key domain.AudioKey) (domain.AudioArtifact, error) {
	audio, status, cause := n.speak(ctx, text)

	if _, err := n.store.Save(ctx, key, audio); err != nil {
		return domain.AudioArtifact{}, fmt.Errorf("save narration %s: %w", key.Path(), err)
	}
	if n.metrics != nil {
		n.metrics.Narration(status)
	}

	artifact := domain.AudioArtifact{
		Key:       key,
		Index:     key.Index,
		Path:      key.Path(),
		Status:    status,
		CreatedAt: n.now().UTC(),
	}
	if cause != nil {
		artifact.Cause = cause.Error()
		n.warn("narration degraded", "path", artifact.Path, "status", status, "error", cause)
	}
	return artifact, nil
}

func (n *Narrator) speak(ctx context.Context, text string) ([]byte, domain.NarrationStatus, error) {
	audio, err := n.translateAndSpeak(ctx, text)
	if err == nil {
		return audio, domain.NarrationOK, nil
	}

	fallback, fbErr := n.synthesize(ctx, n.fallback, n.source)
	if fbErr == nil {
		return fallback, domain.NarrationDegraded, err
	}

	return silentFrame, domain.NarrationSilent, fmt.Errorf("%w; fallback: %v", err, fbErr)
}

func (n *Narrator) translateAndSpeak(ctx context.Context, text string) ([]byte, error) {
	if n.translator == nil {
		return nil, fmt.Errorf("translator is not configured")
	}
	translated, err := n.translator.Translate(ctx, text, n.source, n.target)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	return n.synthesize(ctx, translated, n.target)
}

func (n *Narrator) synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if n.synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is not configured")
	}
	audio, err := n.synthesizer.Synthesize(ctx, text, lang)
	if err != nil {
		return nil, fmt.Errorf("synthesize %s: %w", lang, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesize %s: empty audio", lang)
	}
	return audio, nil
}

func (n *Narrator) warn(msg string, args ...interface{}) {
	if n.logger != nil {
		n.logger.Warn(msg, args...)
	}
}
