package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Category names a search page.
type Category string

const (
	CategoryJobs         Category = "jobs"
	CategoryProducts     Category = "products"
	CategoryUniversities Category = "universities"
)

// DefaultCategories are the pages served when configuration lists none.
var DefaultCategories = []Category{CategoryJobs, CategoryProducts, CategoryUniversities}

// Filters are the page filter selections, e.g. {"city": "Austin"}.
type Filters map[string]string

// Clone returns an independent copy. A nil receiver yields an empty map.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Equal reports exact equality of every filter value.
func (f Filters) Equal(other Filters) bool {
	if len(f) != len(other) {
		return false
	}
	for k, v := range f {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// ResultItem is one search hit. Its shape is category specific and opaque
// to the caching layer.
type ResultItem = json.RawMessage

// SearchRequest is the body of a search submission.
type SearchRequest struct {
	Query   string  `json:"query"`
	Filters Filters `json:"filters"`
}

// SearchQuery is what the search collaborator receives.
type SearchQuery struct {
	Category Category
	Query    string
	Filters  Filters
	// Identity is empty for guests.
	Identity string
}

// SearchResult is returned to the page after a submission.
type SearchResult struct {
	Results []ResultItem   `json:"results"`
	Cached  bool           `json:"cached"`
	History []HistoryEntry `json:"history"`
}

// SessionState is the last view of a page, persisted so a reload can restore it.
type SessionState struct {
	Query   string       `json:"query"`
	Filters Filters      `json:"filters"`
	Results []ResultItem `json:"results"`
	SavedAt time.Time    `json:"savedAt"`
}

// RestoredSession is a SessionState together with the caller's freshness verdict.
type RestoredSession struct {
	Session *SessionState `json:"session"`
	Stale   bool          `json:"stale"`
}

// HistoryEntry is one past search submission.
type HistoryEntry struct {
	Query     string    `json:"query"`
	Filters   Filters   `json:"filters"`
	Timestamp time.Time `json:"timestamp"`
}

// SameSearch reports whether two entries denote the same logical search:
// case-insensitive query and exactly equal filters.
func (e HistoryEntry) SameSearch(other HistoryEntry) bool {
	return strings.EqualFold(strings.TrimSpace(e.Query), strings.TrimSpace(other.Query)) &&
		e.Filters.Equal(other.Filters)
}
