package speech

import (
	"strings"
	"unicode"
)

// splitText cuts text into pieces of at most limit runes, preferring
// sentence ends, then whitespace, and hard-cutting only inside long words.
func splitText(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := lastBreak(runes[:limit])
		if cut <= 0 {
			cut = limit
		}
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			chunks = append(chunks, piece)
		}
		runes = runes[cut:]
	}
	if piece := strings.TrimSpace(string(runes)); piece != "" {
		chunks = append(chunks, piece)
	}
	return chunks
}

func lastBreak(window []rune) int {
	space := -1
	for i := len(window) - 1; i > 0; i-- {
		switch {
		case strings.ContainsRune(".!?।;", window[i]):
			return i + 1
		case space < 0 && unicode.IsSpace(window[i]):
			space = i + 1
		}
	}
	return space
}
