package models

import "time"

// Candidate is an unvalidated extraction result produced by a strategy.
type Candidate struct {
	Title       string    `json:"title"`
	Location    string    `json:"location,omitempty"`
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description,omitempty"`
	PostedAt    time.Time `json:"posted_at,omitempty"`
	Strategy    string    `json:"strategy,omitempty"`
}

// Posting is the normalized record handed to the store. URL is the natural key.
type Posting struct {
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	Location       string    `json:"location"`
	Source         string    `json:"source"`
	TargetToken    string    `json:"target"`
	PostedAt       time.Time `json:"posted_at"`
	Description    string    `json:"description"`
	RelevanceScore float64   `json:"relevance_score"`
}
