package domain

import (
	"fmt"
	"hash/fnv"
	"path"
	"regexp"
	"strings"
	"time"
)

// NarrationStatus tells the caller what the saved audio actually contains.
type NarrationStatus string

const (
	// NarrationOK means the file holds the translated narration.
	NarrationOK NarrationStatus = "ok"
	// NarrationDegraded means the fallback phrase was synthesized instead.
	NarrationDegraded NarrationStatus = "degraded"
	// NarrationSilent means no speech could be synthesized; the file is a silent frame.
	NarrationSilent NarrationStatus = "silent"
)

// AdhocLabel names artifacts produced outside a pipeline run.
const AdhocLabel = "summary"

// AudioKey addresses one artifact: {run}/{label}_article_{index}.mp3.
type AudioKey struct {
	RunID string
	Label string
	Index int
}

var slugExpr = regexp.MustCompile(`[^a-z0-9]+`)

// NewAudioKey slugs the label so company names are safe as file names.
func NewAudioKey(runID, label string, index int) AudioKey {
	slug := strings.Trim(slugExpr.ReplaceAllString(strings.ToLower(label), "-"), "-")
	if slug == "" {
		slug = AdhocLabel
	}
	return AudioKey{RunID: runID, Label: slug, Index: index}
}

// AdhocAudioKey derives the index from the text so equal requests share a name within a run.
func AdhocAudioKey(runID, text string) AudioKey {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return NewAudioKey(runID, AdhocLabel, int(h.Sum32()%10000))
}

// FileName is the artifact base name.
func (k AudioKey) FileName() string {
	return fmt.Sprintf("%s_article_%d.mp3", k.Label, k.Index)
}

// Path is the artifact path relative to the audio root.
func (k AudioKey) Path() string {
	return path.Join(k.RunID, k.FileName())
}

// AudioArtifact is a persisted narration, associated with a record by index.
type AudioArtifact struct {
	Key       AudioKey        `json:"-"`
	Index     int             `json:"index"`
	Path      string          `json:"path"`
	Status    NarrationStatus `json:"status"`
	Cause     string          `json:"cause,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
