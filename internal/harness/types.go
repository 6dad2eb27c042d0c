package harness

import "github.com/roach88/nestdoc/internal/value"

// Outcome values recorded on trace events besides the error codes.
const (
	OutcomeOK     = "ok"
	OutcomeAbsent = "absent"
)

// TraceEvent records one executed operation.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Op   string `json:"op"`
	Key  string `json:"key,omitempty"`
	Path string `json:"path,omitempty"`

	// Arg is the operation's input: the document for put and add, the new
	// subtree for update, the compared value for query, the term for
	// search and the prefix for keys.
	Arg value.Value `json:"arg,omitempty"`

	// Outcome is "ok", "absent" for an extract that found nothing, or an
	// error code such as "not_found".
	Outcome string `json:"outcome"`

	// Result is what a read returned: a document, a value, a length or a
	// list of keys.
	Result value.Value `json:"result,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses and assertions match.
	Pass bool `json:"pass"`

	// Trace contains every executed operation in order, seed puts first.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
