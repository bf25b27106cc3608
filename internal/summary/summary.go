package summary

import (
	"fmt"
	"strings"
)

// Summary is one language variant of the run's narrative. The canonical
// summary and its translations share the same GenerationID.
type Summary struct {
	LanguageCode string `json:"language_code"`
	Text         string `json:"text"`
	GenerationID string `json:"generation_id"`
}

// IsZero reports whether the summary carries no usable text.
func (s Summary) IsZero() bool {
	return strings.TrimSpace(s.Text) == ""
}

// GenerationError represents a failed generation call. Fatal for the
// canonical summary; recorded per language for translations.
type GenerationError struct {
	Language string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Language == "" {
		return fmt.Sprintf("generation failed: %v", e.Err)
	}
	return fmt.Sprintf("generation failed for %s: %v", e.Language, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
