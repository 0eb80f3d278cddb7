package domain

import "time"

// Posting is one normalized job listing, uniquely identified by
// (Source, ExternalID). The pair is immutable once assigned.
type Posting struct {
	ID          int64
	Source      string
	ExternalID  string
	Title       string
	Company     string
	Location    string
	URL         string
	Description string
	PublishedAt *time.Time // nil when the source doesn't provide one
	Salary      *float64   // nil when unknown
	Raw         string     // opaque source payload kept for audit
	SeenAt      time.Time  // set on first ingestion, never changed
	Notified    bool       // one-way false->true
}

// Identity returns the composite key addressing this posting.
func (p Posting) Identity() Identity {
	return Identity{Source: p.Source, ExternalID: p.ExternalID}
}

type Identity struct {
	Source     string
	ExternalID string
}

// RunCandidate is a posting that passed filtering in the current run,
// carrying its computed score. In-memory only, never persisted.
type RunCandidate struct {
	Posting Posting
	Score   int
}

// RunReport is what one ingestion run hands to the output sinks.
type RunReport struct {
	Eligible       []RunCandidate
	TotalProcessed int
	NewlyNotified  int
}

// RawRecord is the shape every source adapter produces. Title and URL are
// the only fields a source must fill; ExternalID may be empty (identity
// resolution derives one).
type RawRecord struct {
	ExternalID  string
	Title       string
	Company     string
	Location    string
	URL         string
	Description string
	PublishedAt *time.Time
	Salary      *float64
	Raw         string
}
