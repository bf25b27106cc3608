package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/finbrief/daily-brief/internal/llm"
	"github.com/finbrief/daily-brief/internal/search"
)

// Generator produces the canonical-language summary from aggregated
// search results with exactly one generation call.
type Generator struct {
	llm        llm.Generator
	topResults int
	language   string
}

// NewGenerator creates a summary generator. topResults bounds how many
// results feed the prompt; language is the canonical language code.
func NewGenerator(gen llm.Generator, topResults int, language string) *Generator {
	return &Generator{
		llm:        gen,
		topResults: topResults,
		language:   language,
	}
}

// Summarize builds a bounded prompt from the top results and invokes the
// generation capability once. An error or blank output fails with
// *GenerationError; retries are the caller's responsibility.
func (g *Generator) Summarize(ctx context.Context, results search.ResultSet) (Summary, error) {
	if len(results) == 0 {
		return Summary{}, &GenerationError{Err: errors.New("empty result set")}
	}

	text, err := g.llm.Generate(ctx, g.buildPrompt(results))
	if err != nil {
		return Summary{}, &GenerationError{Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Summary{}, &GenerationError{Err: errors.New("model returned empty text")}
	}

	return Summary{
		LanguageCode: g.language,
		Text:         text,
		GenerationID: uuid.NewString(),
	}, nil
}

// buildPrompt creates the summarization prompt from the top results
func (g *Generator) buildPrompt(results search.ResultSet) string {
	var b strings.Builder

	b.WriteString("You are a succinct financial news summarizer. Given the following search results from US financial news, ")
	b.WriteString("write a short, clear summary (under 500 words) focused on the most important market moves, drivers, ")
	b.WriteString("and trading activity. Use 3 short bullets and a 2-4 sentence paragraph. ")
	b.WriteString("Do not invent facts; if uncertain, say 'reported'.\n\nCONTEXT:\n")

	for i, r := range results.Top(g.topResults) {
		fmt.Fprintf(&b, "%d. %s - %s (%s)\n", i+1, r.Title, r.Snippet, r.URL)
	}

	b.WriteString("\nOUTPUT:\n")
	return b.String()
}
