package search

import (
	"context"
	"log"
)

// Aggregator queries providers in priority order and merges their output
// into one deduplicated ResultSet.
type Aggregator struct {
	providers []Provider
}

// NewAggregator creates an aggregator over the given providers. Order is
// the configured priority order: the first provider wins dedup conflicts.
func NewAggregator(providers ...Provider) *Aggregator {
	return &Aggregator{providers: providers}
}

// Aggregate fans the query out to every provider and merges the results
// preserving priority order. Provider failures are returned as
// *ProviderError values but do not abort aggregation; an empty provider
// response still lets later providers contribute. Only when the merged
// set is empty does Aggregate fail with ErrNoResults.
func (a *Aggregator) Aggregate(ctx context.Context, query string) (ResultSet, []error, error) {
	type slot struct {
		results []Result
		err     error
	}

	slots := make([]slot, len(a.providers))
	done := make(chan int, len(a.providers))

	// Queries run concurrently; slots keep the merge deterministic by
	// priority index regardless of arrival order.
	for i, p := range a.providers {
		go func(i int, p Provider) {
			results, err := p.Search(ctx, query)
			slots[i] = slot{results: results, err: err}
			done <- i
		}(i, p)
	}

	for range a.providers {
		<-done
	}

	var merged []Result
	var providerErrors []error

	for i, p := range a.providers {
		if err := slots[i].err; err != nil {
			log.Printf("search: provider %s failed: %v", p.Name(), err)
			providerErrors = append(providerErrors, &ProviderError{Provider: p.Name(), Err: err})
			continue
		}
		merged = append(merged, slots[i].results...)
	}

	deduped := Dedupe(merged)
	if len(deduped) == 0 {
		return nil, providerErrors, ErrNoResults
	}

	log.Printf("search: aggregated %d unique results from %d providers", len(deduped), len(a.providers))
	return deduped, providerErrors, nil
}
