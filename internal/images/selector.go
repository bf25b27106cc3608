package images

import (
	"github.com/finbrief/daily-brief/internal/search"
)

// PlaceholderURL is the deterministic fallback visual used when no search
// result carries a usable image reference.
const PlaceholderURL = "https://via.placeholder.com/800x400.png?text=Financial+Chart+1"

// Image is a single image reference with an optional caption.
type Image struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// ImageSet is an ordered, size-bounded sequence of image references.
// It is never empty: Select guarantees at least the placeholder entry.
type ImageSet []Image

// Select collects up to maxImages distinct non-empty image references from
// the results, in result order. If none are found (or maxImages is zero)
// it returns a single placeholder entry so downstream layout always has a
// visual element. Side-effect-free.
func Select(results search.ResultSet, maxImages int) ImageSet {
	var selected ImageSet
	seen := make(map[string]bool)

	for _, r := range results {
		if maxImages <= 0 || len(selected) >= maxImages {
			break
		}
		if r.ImageURL == "" || seen[r.ImageURL] {
			continue
		}
		seen[r.ImageURL] = true
		selected = append(selected, Image{URL: r.ImageURL, Caption: r.Title})
	}

	if len(selected) == 0 {
		return ImageSet{{URL: PlaceholderURL, Caption: "Financial chart"}}
	}

	return selected
}
