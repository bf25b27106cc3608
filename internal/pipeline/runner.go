package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/finbrief/daily-brief/internal/images"
	"github.com/finbrief/daily-brief/internal/report"
	"github.com/finbrief/daily-brief/internal/search"
	"github.com/finbrief/daily-brief/internal/summary"
)

// Aggregator merges results from the configured search providers.
type Aggregator interface {
	Aggregate(ctx context.Context, query string) (search.ResultSet, []error, error)
}

// Summarizer produces the canonical-language summary.
type Summarizer interface {
	Summarize(ctx context.Context, results search.ResultSet) (summary.Summary, error)
}

// Translator produces language variants of the canonical summary.
type Translator interface {
	TranslateAll(ctx context.Context, canonical summary.Summary, targets []string) (map[string]summary.Summary, []error)
}

// Assembler composes summaries and images into an artifact.
type Assembler interface {
	Assemble(canonical summary.Summary, translations map[string]summary.Summary, imgs images.ImageSet, title string, generatedAt time.Time) (*report.Artifact, error)
}

// Renderer turns an artifact into document bytes.
type Renderer interface {
	Render(ctx context.Context, artifact *report.Artifact) ([]byte, error)
}

// Deliverer hands the document to the delivery channel.
type Deliverer interface {
	SendDocument(ctx context.Context, document []byte, filename, caption string) error
}

// Deps holds the collaborators of one pipeline run. Deliverer may be nil
// when no delivery channel is configured; the run then reports the
// artifact without attempting distribution.
type Deps struct {
	Aggregator Aggregator
	Summarizer Summarizer
	Translator Translator
	Assembler  Assembler
	Renderer   Renderer
	Deliverer  Deliverer
}

// Params holds the per-run settings.
type Params struct {
	Query           string
	TargetLanguages []string
	MaxImages       int
	SummaryRetries  int
}

// Runner sequences the pipeline stages and owns the failure policy.
// Each Runner serves a single run; no state is shared between runs.
type Runner struct {
	deps   Deps
	params Params
	state  State
	now    func() time.Time
}

// NewRunner creates a runner for one pipeline run.
func NewRunner(deps Deps, params Params) *Runner {
	return &Runner{
		deps:   deps,
		params: params,
		state:  StateIdle,
		now:    time.Now,
	}
}

// Run executes the full pipeline. Search and canonical summarization
// failures are fatal; image selection and translation always produce a
// usable (possibly degraded) result; delivery failure is recorded but
// does not invalidate the produced artifact.
func (r *Runner) Run(ctx context.Context) *RunResult {
	started := r.now()
	result := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: started,
		States:    []State{StateIdle},
	}

	// Searching
	r.transition(result, StateSearching)
	results, providerErrors, err := r.deps.Aggregator.Aggregate(ctx, r.params.Query)
	for _, perr := range providerErrors {
		result.Failures = append(result.Failures, Failure{
			Stage:  StateSearching,
			Kind:   KindProvider,
			Detail: perr.Error(),
		})
	}
	if err != nil {
		return r.fail(result, StateSearching, KindNoResults, err)
	}

	// Summarizing, with a small bounded retry before the run aborts
	r.transition(result, StateSummarizing)
	canonical, err := r.summarizeWithRetry(ctx, results)
	if err != nil {
		return r.fail(result, StateSummarizing, KindGeneration, err)
	}

	// Selecting never fails: the selector guarantees a non-empty set
	r.transition(result, StateSelecting)
	imgs := images.Select(results, r.params.MaxImages)

	// Translating is best-effort per language
	r.transition(result, StateTranslating)
	translations, translationErrors := r.deps.Translator.TranslateAll(ctx, canonical, r.params.TargetLanguages)
	for _, terr := range translationErrors {
		failure := Failure{Stage: StateTranslating, Kind: KindGeneration, Detail: terr.Error()}
		var generr *summary.GenerationError
		if errors.As(terr, &generr) {
			failure.Language = generr.Language
		}
		result.Failures = append(result.Failures, failure)
	}
	log.Printf("pipeline: %d of %d translations succeeded", len(translations), len(r.params.TargetLanguages))

	// Assembling covers both composition and layout
	r.transition(result, StateAssembling)
	title := "Daily Market Summary - " + started.Format("2006-01-02")
	artifact, err := r.deps.Assembler.Assemble(canonical, translations, imgs, title, started)
	if err != nil {
		return r.fail(result, StateAssembling, KindAssembly, err)
	}

	document, err := r.deps.Renderer.Render(ctx, artifact)
	if err != nil {
		return r.fail(result, StateAssembling, KindAssembly, err)
	}

	result.Artifact = artifact
	result.Document = document
	result.Filename = "daily_summary_" + started.Format("20060102") + ".pdf"
	result.Caption = "Daily Market Summary - " + started.Format("20060102")

	// Delivering: failure here leaves the artifact accessible
	r.transition(result, StateDelivering)
	switch {
	case r.deps.Deliverer == nil:
		result.Failures = append(result.Failures, Failure{
			Stage:  StateDelivering,
			Kind:   KindDelivery,
			Detail: "delivery channel not configured",
		})
		result.Success = true
	default:
		if err := r.deps.Deliverer.SendDocument(ctx, document, result.Filename, result.Caption); err != nil {
			result.Failures = append(result.Failures, Failure{
				Stage:  StateDelivering,
				Kind:   KindDelivery,
				Detail: err.Error(),
			})
		} else {
			result.Delivered = true
			result.Success = true
		}
	}

	r.transition(result, StateDone)
	result.FinalState = StateDone
	result.FinishedAt = r.now()
	return result
}

// summarizeWithRetry calls the summarizer up to 1+SummaryRetries times.
func (r *Runner) summarizeWithRetry(ctx context.Context, results search.ResultSet) (summary.Summary, error) {
	attempts := r.params.SummaryRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		canonical, err := r.deps.Summarizer.Summarize(ctx, results)
		if err == nil {
			return canonical, nil
		}
		lastErr = err
		log.Printf("pipeline: summarization attempt %d/%d failed: %v", attempt, attempts, err)
	}

	return summary.Summary{}, lastErr
}

func (r *Runner) transition(result *RunResult, to State) {
	log.Printf("pipeline: %s -> %s", r.state, to)
	r.state = to
	result.States = append(result.States, to)
}

func (r *Runner) fail(result *RunResult, stage State, kind string, err error) *RunResult {
	result.Failures = append(result.Failures, Failure{Stage: stage, Kind: kind, Detail: err.Error()})
	r.transition(result, StateFailed)
	result.FinalState = StateFailed
	result.Success = false
	result.FinishedAt = r.now()
	return result
}
