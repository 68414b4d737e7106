package budget

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func Test_Estimate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcdefgh", 2},
		{"日記を書いた", 1}, // 6 code points, not 18 bytes
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		if got := Estimate(tc.input); got != tc.want {
			t.Errorf("Estimate(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func Test_EstimateMessages(t *testing.T) {
	t.Parallel()
	msgs := []*schema.Message{
		schema.UserMessage("hello world"), // 4 + 1 + 2
		schema.UserMessage("hello world"),
	}
	if got := EstimateMessages(msgs); got != 14 {
		t.Errorf("EstimateMessages = %d, want 14", got)
	}
}

func Test_TrimFront_DropsOldest(t *testing.T) {
	t.Parallel()
	lines := []string{"monday: rain", "tuesday: sun", "wednesday: wind"}
	// Each line is 3 tokens + 1 for the newline.
	got := TrimFront(lines, 0, 9)
	if len(got) != 2 || got[0] != "tuesday: sun" {
		t.Errorf("got %q", got)
	}
}

func Test_TrimBack_DropsLeastRelevant(t *testing.T) {
	t.Parallel()
	lines := []string{"best match!!", "second match", "third match!"}
	got := TrimBack(lines, 2, 10)
	if len(got) != 2 || got[1] != "second match" {
		t.Errorf("got %q", got)
	}
}

func Test_Trim_NoTrimNeeded(t *testing.T) {
	t.Parallel()
	lines := []string{"a", "b"}
	if got := TrimFront(lines, 10, DefaultMaxContextTokens); len(got) != 2 {
		t.Errorf("front: %q", got)
	}
	if got := TrimBack(lines, 10, DefaultMaxContextTokens); len(got) != 2 {
		t.Errorf("back: %q", got)
	}
}

func Test_Trim_FixedExceedsBudget(t *testing.T) {
	t.Parallel()
	if got := TrimFront([]string{"a", "b"}, 7000, 6000); len(got) != 0 {
		t.Errorf("want all dropped, got %q", got)
	}
}

func Test_MaxContextTokens(t *testing.T) {
	t.Setenv("MODEL_MAX_CONTEXT_TOKENS", "")
	if got := MaxContextTokens(); got != DefaultMaxContextTokens {
		t.Errorf("default = %d", got)
	}
	t.Setenv("MODEL_MAX_CONTEXT_TOKENS", "32000")
	if got := MaxContextTokens(); got != 32000 {
		t.Errorf("override = %d", got)
	}
	t.Setenv("MODEL_MAX_CONTEXT_TOKENS", "-5")
	if got := MaxContextTokens(); got != DefaultMaxContextTokens {
		t.Errorf("negative = %d", got)
	}
}
