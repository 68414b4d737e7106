// Package journal defines the journal entry data model, input validation,
// retrieval-context assembly and the prompt templates used to ground
// generated responses in a user's entries.
package journal

import (
	"time"
)

// Entry is a single user-authored journal record.
type Entry struct {
	// ID is the caller-assigned unique identifier.
	ID string `json:"id"`

	// OwnerID identifies the user the entry belongs to.
	OwnerID string `json:"userId"`

	// Title is the optional short heading of the entry.
	Title string `json:"title"`

	// Content is the optional body text. It is the text that gets embedded.
	Content string `json:"content"`

	// CreatedAt is assigned by the store at write time with second precision.
	CreatedAt time.Time `json:"createdAt"`
}

// RetrievedEntry is an Entry returned by the retrieval pipeline together
// with its relevance to the query.
type RetrievedEntry struct {
	Entry

	// RelevanceScore is the raw reranker output. Scores are only comparable
	// within one retrieval call. Zero when Reranked is false.
	RelevanceScore float32 `json:"relevanceScore"`

	// Reranked is false when the reranker failed and the entries are in
	// similarity-search order.
	Reranked bool `json:"reranked"`
}

// TimeRange bounds CreatedAt inclusively on both ends.
type TimeRange struct {
	// Start is the earliest CreatedAt included.
	Start time.Time

	// End is the latest CreatedAt included.
	End time.Time
}

// Contains reports whether t falls inside the range, comparing at second
// precision to match stored timestamps.
func (r TimeRange) Contains(t time.Time) bool {
	s := t.Unix()
	return s >= r.Start.Unix() && s <= r.End.Unix()
}

// LastDays returns the range [now - days*24h, now].
func LastDays(now time.Time, days int) TimeRange {
	return TimeRange{
		Start: now.Add(-time.Duration(days) * 24 * time.Hour),
		End:   now,
	}
}
