package search

import (
	"errors"
	"fmt"
)

// ErrNoResults is returned when every provider failed or returned nothing.
var ErrNoResults = errors.New("no search results from any provider")

// ProviderError wraps a single provider failure. Non-fatal: the
// aggregator records it and moves on to the next provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
