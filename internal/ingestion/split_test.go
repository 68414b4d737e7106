package ingestion

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Badar25/Journal-backend/internal/journal"
)

func TestSplitDraft_WithinLimit(t *testing.T) {
	t.Parallel()
	d := journal.Draft{Title: "Short", Content: "fine"}
	got := SplitDraft(d)
	if len(got) != 1 || got[0] != d {
		t.Errorf("got %+v", got)
	}
}

func TestSplitDraft_BreaksAtWhitespace(t *testing.T) {
	t.Parallel()
	content := strings.Repeat("abcdefghi ", 250) // 2500 code points
	got := SplitDraft(journal.Draft{Title: "Notes", Content: content})

	if len(got) != 3 {
		t.Fatalf("got %d parts, want 3", len(got))
	}
	var rebuilt []string
	for i, d := range got {
		if n := utf8.RuneCountInString(d.Content); n > journal.MaxContentLength {
			t.Errorf("part %d has %d code points", i, n)
		}
		if strings.HasPrefix(d.Content, " ") || strings.HasSuffix(d.Content, " ") {
			t.Errorf("part %d not trimmed", i)
		}
		rebuilt = append(rebuilt, d.Content)
	}
	if strings.Join(rebuilt, " ") != strings.TrimSpace(content) {
		t.Error("parts do not reassemble to the original content")
	}
}

func TestSplitDraft_NoWhitespace(t *testing.T) {
	t.Parallel()
	content := strings.Repeat("é", journal.MaxContentLength*2+1)
	got := SplitDraft(journal.Draft{Content: content})
	if len(got) != 3 {
		t.Fatalf("got %d parts", len(got))
	}
	if utf8.RuneCountInString(got[0].Content) != journal.MaxContentLength {
		t.Errorf("first part = %d code points", utf8.RuneCountInString(got[0].Content))
	}
	if got[0].Title != "(1/3)" {
		t.Errorf("untitled part title = %q", got[0].Title)
	}
}

func TestSplitDraft_TruncatesTitle(t *testing.T) {
	t.Parallel()
	title := strings.Repeat("t", journal.MaxTitleLength)
	got := SplitDraft(journal.Draft{Title: title, Content: strings.Repeat("x ", journal.MaxContentLength)})
	for _, d := range got {
		if n := utf8.RuneCountInString(d.Title); n > journal.MaxTitleLength {
			t.Errorf("title has %d code points", n)
		}
		if !journal.ValidateCreate(d).IsOk() {
			t.Errorf("split draft fails validation: %+v", d.Title)
		}
	}
}
