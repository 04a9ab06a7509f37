package siteqa

import (
	"context"
	"time"
)

// Evidence is a passage retrieved for a question.
type Evidence struct {
	Text      string  `json:"text"`
	Score     float64 `json:"score"`
	SourceURL string  `json:"source_url"`
}

// AnswerResult is the answer to a question together with the evidence it was
// derived from. Grounded is false when no relevant evidence was found or the
// model reported that the evidence did not contain the answer.
type AnswerResult struct {
	Answer   string     `json:"answer"`
	Grounded bool       `json:"grounded"`
	Evidence []Evidence `json:"evidence"`
	Debug    *Trace     `json:"debug,omitempty"`
}

// Trace records how an answer was produced. Attached only on request.
type Trace struct {
	Evidence []Evidence `json:"evidence"`
	Context  string     `json:"context"`
	Prompt   string     `json:"prompt,omitempty"`
	Model    string     `json:"model,omitempty"`
}

// Answerer answers natural language questions about the organization.
type Answerer interface {
	// AnswerQuestion answers the question from indexed website content.
	// When debug is true the result carries a Trace.
	// Returns EINVALID for a blank question.
	AnswerQuestion(ctx context.Context, question string, debug bool) (*AnswerResult, error)
}

// IndexState is the lifecycle state of the served index.
type IndexState string

// IndexState constants.
const (
	IndexUninitialized IndexState = "uninitialized"
	IndexReady         IndexState = "ready"
	IndexRebuilding    IndexState = "rebuilding"
)

// Health status values.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// Health reports the operational state of the question answering pipeline.
// A degraded pipeline carries the code and message of the error that keeps
// the index from being served.
type Health struct {
	Status          string     `json:"status"`
	State           IndexState `json:"state"`
	IndexSize       int        `json:"index_size"`
	Model           string     `json:"model_identifier"`
	CompletionModel string     `json:"completion_model,omitempty"`
	ErrorCode       string     `json:"error_code,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// RebuildResult summarizes an index rebuild.
type RebuildResult struct {
	Documents int           `json:"documents"`
	Skipped   int           `json:"skipped"`
	Chunks    int           `json:"chunks"`
	Tokens    int           `json:"tokens,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// IndexAdmin exposes operational controls over the index.
type IndexAdmin interface {
	// RebuildIndex rebuilds the index from all stored documents.
	// Returns ECONFLICT if a rebuild is already in progress.
	RebuildIndex(ctx context.Context) (*RebuildResult, error)

	// Health reports the pipeline state, loading the persisted index if it
	// has not been loaded yet.
	Health(ctx context.Context) *Health
}
