package pipeline

import (
	"time"

	"github.com/finbrief/daily-brief/internal/report"
)

// State is a pipeline stage. A run walks Idle through Done; Failed is
// terminal and reachable only from the fatal stages (Searching,
// Summarizing, Assembling).
type State string

const (
	StateIdle        State = "idle"
	StateSearching   State = "searching"
	StateSummarizing State = "summarizing"
	StateSelecting   State = "selecting"
	StateTranslating State = "translating"
	StateAssembling  State = "assembling"
	StateDelivering  State = "delivering"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Failure kinds, one per error class in the taxonomy.
const (
	KindProvider   = "provider"
	KindNoResults  = "no_results"
	KindGeneration = "generation"
	KindAssembly   = "assembly"
	KindDelivery   = "delivery"
)

// Failure records one degraded or failed step of a run.
type Failure struct {
	Stage    State  `json:"stage"`
	Kind     string `json:"kind"`
	Language string `json:"language,omitempty"` // set for per-language translation failures
	Detail   string `json:"detail"`
}

// RunResult is the outcome of one pipeline run. Either the artifact is
// present and usable, or Success is false. A produced artifact survives a
// failed delivery: Delivered distinguishes partial from full success.
type RunResult struct {
	RunID      string           `json:"run_id"`
	Success    bool             `json:"success"`
	Delivered  bool             `json:"delivered"`
	Artifact   *report.Artifact `json:"artifact,omitempty"`
	Document   []byte           `json:"-"`
	Filename   string           `json:"filename,omitempty"`
	Caption    string           `json:"caption,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	FinalState State            `json:"final_state"`
	States     []State          `json:"states"`
	Failures   []Failure        `json:"failures"`
}
