package annotate

import (
	"context"
	"strings"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

// Tagger entity types kept as topics. Taggers disagree on names, so each
// business category lists every spelling we have seen.
var relevantTypes = map[string]struct{}{
	"ORG":          {},
	"ORGANIZATION": {},
	"PRODUCT":      {},
	"MONEY":        {},
	"GPE":          {},
	"LOC":          {},
	"LOCATION":     {},
}

// EntityExtractor turns tagger output into the comma-joined topic string.
type EntityExtractor struct {
	backend ports.EntityTagger
}

func NewEntityExtractor(backend ports.EntityTagger) *EntityExtractor {
	return &EntityExtractor{backend: backend}
}

// Topics runs on the full text and deduplicates by exact surface text in first-seen order.
func (e *EntityExtractor) Topics(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return domain.NoTopics, nil
	}

	entities, err := e.backend.Tag(ctx, text)
	if err != nil {
		return "", err
	}

	seen := make(map[string]struct{}, len(entities))
	topics := make([]string, 0, len(entities))
	for _, ent := range entities {
		if _, ok := relevantTypes[strings.ToUpper(ent.Type)]; !ok {
			continue
		}
		surface := strings.TrimSpace(ent.Text)
		if surface == "" {
			continue
		}
		if _, dup := seen[surface]; dup {
			continue
		}
		seen[surface] = struct{}{}
		topics = append(topics, surface)
	}

	if len(topics) == 0 {
		return domain.NoTopics, nil
	}
	return strings.Join(topics, ", "), nil
}
