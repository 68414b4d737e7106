package ingestion

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Badar25/Journal-backend/internal/journal"
)

// SplitDraft breaks a draft whose content exceeds journal.MaxContentLength
// into consecutive drafts. Each part's title gets a " (i/n)" suffix,
// truncating the title if needed to stay within journal.MaxTitleLength.
// Drafts within the limit are returned unchanged.
func SplitDraft(d journal.Draft) []journal.Draft {
	parts := chunk(d.Content, journal.MaxContentLength)
	if len(parts) <= 1 {
		return []journal.Draft{d}
	}

	out := make([]journal.Draft, len(parts))
	for i, part := range parts {
		suffix := fmt.Sprintf(" (%d/%d)", i+1, len(parts))
		title := []rune(strings.TrimSpace(d.Title))
		if room := journal.MaxTitleLength - len([]rune(suffix)); len(title) > room {
			title = title[:room]
		}
		out[i] = journal.Draft{Title: strings.TrimSpace(string(title) + suffix), Content: part}
	}
	return out
}

// chunk splits text into pieces of at most size code points, preferring to
// break at the last whitespace inside each window.
func chunk(text string, size int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= size {
			chunks = append(chunks, string(runes))
			break
		}
		end := size
		for i := size; i > size/2; i-- {
			if unicode.IsSpace(runes[i]) {
				end = i
				break
			}
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[:end])))
		runes = []rune(strings.TrimLeftFunc(string(runes[end:]), unicode.IsSpace))
	}
	return chunks
}
