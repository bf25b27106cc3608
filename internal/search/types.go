package search

import (
	"context"
	"strings"
	"time"
)

// Result represents a single search hit. Immutable once fetched.
type Result struct {
	Title       string    `json:"title"`
	Snippet     string    `json:"snippet"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// Key returns the deduplication identity key: normalized title + url.
func (r Result) Key() string {
	return normalize(r.Title) + "|" + normalizeURL(r.URL)
}

// ResultSet is an ordered, deduplicated sequence of results ranked by
// provider priority. Consumed read-only downstream.
type ResultSet []Result

// Top returns the first k results, or the whole set if it is smaller.
func (rs ResultSet) Top(k int) ResultSet {
	if k <= 0 || k >= len(rs) {
		return rs
	}
	return rs[:k]
}

// Dedupe removes duplicate results by identity key, keeping the first
// (highest-priority) occurrence.
func Dedupe(results []Result) ResultSet {
	seen := make(map[string]bool, len(results))
	deduped := make(ResultSet, 0, len(results))

	for _, r := range results {
		key := r.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
	}

	return deduped
}

// Provider is a single external search capability.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]Result, error)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeURL(u string) string {
	return strings.TrimSuffix(normalize(u), "/")
}
