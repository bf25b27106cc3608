package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/finbrief/daily-brief/internal/llm"
)

// Fanout produces language variants of the canonical summary. Languages
// are translated independently: one failed language is recorded and
// excluded but never aborts the run.
type Fanout struct {
	llm           llm.Generator
	languageNames map[string]string
	maxConcurrent int
}

// NewFanout creates a translation fanout. languageNames maps codes to
// display names used in the translation prompt.
func NewFanout(gen llm.Generator, languageNames map[string]string, maxConcurrent int) *Fanout {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Fanout{
		llm:           gen,
		languageNames: languageNames,
		maxConcurrent: maxConcurrent,
	}
}

// TranslateAll translates the canonical summary into each target language
// concurrently through a bounded worker semaphore. It returns the variants
// that succeeded keyed by language code, plus one *GenerationError per
// failed language. The canonical language and duplicates are skipped.
func (f *Fanout) TranslateAll(ctx context.Context, canonical Summary, targets []string) (map[string]Summary, []error) {
	type result struct {
		index int
		lang  string
		text  string
		err   error
	}

	langs := make([]string, 0, len(targets))
	seen := map[string]bool{canonical.LanguageCode: true}
	for _, lang := range targets {
		if seen[lang] {
			continue
		}
		seen[lang] = true
		langs = append(langs, lang)
	}

	semaphore := make(chan struct{}, f.maxConcurrent)
	results := make(chan result, len(langs))

	for i, lang := range langs {
		go func(index int, lang string) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			text, err := f.translate(ctx, canonical.Text, lang)
			results <- result{index: index, lang: lang, text: text, err: err}
		}(i, lang)
	}

	translations := make(map[string]Summary, len(langs))
	failures := make([]error, 0)

	for i := 0; i < len(langs); i++ {
		res := <-results
		if res.err != nil {
			failures = append(failures, &GenerationError{Language: res.lang, Err: res.err})
			continue
		}
		translations[res.lang] = Summary{
			LanguageCode: res.lang,
			Text:         res.text,
			GenerationID: canonical.GenerationID,
		}
	}

	return translations, failures
}

// translate invokes the generation capability with a translation prompt
// seeded by the canonical text.
func (f *Fanout) translate(ctx context.Context, text, lang string) (string, error) {
	name := f.languageNames[lang]
	if name == "" {
		name = lang
	}

	prompt := fmt.Sprintf(
		"Translate the following summary into %s (language code: %s).\n"+
			"Preserve the original formatting (bullets, short paragraphs). Do not add or remove content.\n\n"+
			"ORIGINAL:\n%s\n\nTRANSLATED:\n",
		name, lang, text)

	translated, err := f.llm.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	translated = strings.TrimSpace(translated)
	if translated == "" {
		return "", errors.New("model returned empty text")
	}

	return translated, nil
}
