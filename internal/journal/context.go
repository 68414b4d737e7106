package journal

import (
	"fmt"
	"strings"

	"github.com/Badar25/Journal-backend/internal/result"
)

// Context is the prompt-ready text assembled from a set of entries.
type Context struct {
	// Text is the newline-joined formatted entries, or a placeholder
	// message when Found is false.
	Text string

	// Lines holds the formatted entries in input order. Empty when Found
	// is false.
	Lines []string

	// Found is false when no entry contributed any text.
	Found bool
}

// FormatEntry renders one entry as "title: content", or whichever of the
// two is non-blank. It returns "" when both are blank.
func FormatEntry(e Entry) string {
	title := strings.TrimSpace(e.Title)
	content := strings.TrimSpace(e.Content)
	switch {
	case title != "" && content != "":
		return title + ": " + content
	case title != "":
		return title
	default:
		return content
	}
}

// BuildContext formats entries in order and joins them with newlines.
// emptyLabel names the entries in the placeholder returned when nothing is
// usable ("journals", "recent journals"). BuildContext never fails; an empty
// input is an Ok result with Found == false.
func BuildContext(entries []Entry, emptyLabel string) result.Result[Context] {
	if len(entries) == 0 {
		return result.Ok(Context{Text: fmt.Sprintf("No %s found.", emptyLabel)})
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		if s := FormatEntry(e); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		return result.Ok(Context{Text: fmt.Sprintf("No valid content found in %s.", emptyLabel)})
	}

	return result.Ok(Context{
		Text:  strings.Join(lines, "\n"),
		Lines: lines,
		Found: true,
	})
}

// Entries extracts the embedded entries from retrieval results, keeping order.
func Entries(retrieved []RetrievedEntry) []Entry {
	out := make([]Entry, len(retrieved))
	for i, r := range retrieved {
		out[i] = r.Entry
	}
	return out
}
