package domain

import "time"

// Link is an outbound URL attached to a recommendation.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Recommendation is one suggested next search result.
type Recommendation struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Location string `json:"location,omitempty"`
	Reason   string `json:"reason"`
	Links    []Link `json:"links"`
	Fallback bool   `json:"fallback,omitempty"`
}

// RecommendationStatus is the refresher state.
type RecommendationStatus string

const (
	StatusIdle    RecommendationStatus = "idle"
	StatusLoading RecommendationStatus = "loading"
	StatusReady   RecommendationStatus = "ready"
	StatusEmpty   RecommendationStatus = "empty"
	StatusFailed  RecommendationStatus = "failed"
)

// RecommendationState is a snapshot of a page's recommendations.
type RecommendationState struct {
	Status     RecommendationStatus `json:"status"`
	Items      []Recommendation     `json:"items,omitempty"`
	Reason     string               `json:"reason,omitempty"`
	Query      string               `json:"query,omitempty"`
	Generation uint64               `json:"generation"`
	Cached     bool                 `json:"cached,omitempty"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}
