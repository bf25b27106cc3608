package report

import (
	"time"

	"github.com/finbrief/daily-brief/internal/images"
	"github.com/finbrief/daily-brief/internal/summary"
)

// Section is one language block of the artifact.
type Section struct {
	Heading string          `json:"heading"`
	Summary summary.Summary `json:"summary"`
	Images  images.ImageSet `json:"images"`
}

// Artifact is the assembled document: canonical-language section first,
// then translations in the configured order. Built once per run and
// immutable after assembly.
type Artifact struct {
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
	Sections    []Section `json:"sections"`
}

// AssemblyError indicates the canonical summary was missing at assembly
// time. Defensive: the pipeline aborts earlier when summarization fails.
type AssemblyError struct {
	Reason string
}

func (e *AssemblyError) Error() string {
	return "assembly failed: " + e.Reason
}

// Assembler composes summaries and images into an Artifact with a
// deterministic section order.
type Assembler struct {
	languageOrder []string
	languageNames map[string]string
}

// NewAssembler creates an assembler. languageOrder fixes the order of
// translated sections; languages missing from the translation mapping are
// skipped.
func NewAssembler(languageOrder []string, languageNames map[string]string) *Assembler {
	return &Assembler{
		languageOrder: languageOrder,
		languageNames: languageNames,
	}
}

// Assemble builds the artifact: canonical section first, then one section
// per configured language present in translations. Every section shares
// the same ImageSet. Fails with *AssemblyError only if the canonical
// summary is empty.
func (a *Assembler) Assemble(canonical summary.Summary, translations map[string]summary.Summary, imgs images.ImageSet, title string, generatedAt time.Time) (*Artifact, error) {
	if canonical.IsZero() {
		return nil, &AssemblyError{Reason: "canonical summary is missing"}
	}

	sections := make([]Section, 0, 1+len(translations))
	sections = append(sections, Section{
		Heading: a.heading(canonical.LanguageCode),
		Summary: canonical,
		Images:  imgs,
	})

	for _, lang := range a.languageOrder {
		translated, ok := translations[lang]
		if !ok || translated.IsZero() {
			continue
		}
		sections = append(sections, Section{
			Heading: a.heading(lang),
			Summary: translated,
			Images:  imgs,
		})
	}

	return &Artifact{
		Title:       title,
		GeneratedAt: generatedAt,
		Sections:    sections,
	}, nil
}

func (a *Assembler) heading(lang string) string {
	name := a.languageNames[lang]
	if name == "" {
		name = lang
	}
	return name + " Summary"
}
