package ports

import (
	"context"
	"io"
	"time"

	"NewsNarrator/internal/domain"
)

// ArticleFetcher discovers article URLs for a company and extracts each one.
type ArticleFetcher interface {
	Discover(ctx context.Context, company string, limit int) []string
	Extract(ctx context.Context, url string) (domain.ArticlePartial, error)
}

// Summarizer is the black-box abstractive summarization capability.
type Summarizer interface {
	Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error)
}

// LabelScore is one raw class prediction of a text classifier.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifier is the black-box three-class sentiment model.
type Classifier interface {
	Classify(ctx context.Context, text string) (LabelScore, error)
}

// Entity is one annotated span returned by the tagger.
type Entity struct {
	Text string
	Type string
}

// EntityTagger is the black-box named-entity capability.
type EntityTagger interface {
	Tag(ctx context.Context, text string) ([]Entity, error)
}

// Translator converts text between languages.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Synthesizer turns text into MP3 audio in the requested language.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// AudioStore persists narration artifacts.
type AudioStore interface {
	Save(ctx context.Context, key domain.AudioKey, audio []byte) (string, error)
	Open(relPath string) (io.ReadCloser, error)
	Sweep(ctx context.Context, olderThan time.Time) (int, error)
}

// RunArchive persists finished runs for later lookup.
type RunArchive interface {
	SaveRun(ctx context.Context, run domain.Run) error
	LoadRun(ctx context.Context, id string) (domain.Run, error)
}

// Notifier streams run digests to chat channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Prober is implemented by backends that can verify they are reachable at startup.
type Prober interface {
	Probe(ctx context.Context) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// Recorder receives pipeline counters; implementations must be safe for concurrent use.
type Recorder interface {
	ArticleProcessed()
	ArticleFailed(stage string)
	Narration(status domain.NarrationStatus)
	RunFinished(duration time.Duration, records int)
}
