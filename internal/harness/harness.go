package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nestdoc/internal/memstore"
	"github.com/roach88/nestdoc/internal/store"
	"github.com/roach88/nestdoc/internal/testutil"
	"github.com/roach88/nestdoc/internal/value"
)

// Error codes recorded as step outcomes.
var errorCodes = []struct {
	code string
	err  error
}{
	{"not_found", store.ErrNotFound},
	{"invalid_document", store.ErrInvalidDocument},
	{"invalid_path", store.ErrInvalidPath},
	{"invalid_key", store.ErrInvalidKey},
	{"path_not_present", store.ErrPathNotPresent},
	{"not_array", store.ErrNotArray},
	{"connection_closed", store.ErrConnectionClosed},
}

// errorCode maps a store error to its code. Storage failures have no code.
func errorCode(err error) (string, bool) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code, true
		}
	}
	return "", false
}

func knownErrorCode(code string) bool {
	for _, ec := range errorCodes {
		if ec.code == code {
			return true
		}
	}
	return false
}

// Backend selects the store implementation a scenario runs against.
type Backend string

const (
	// BackendSQLite runs against an in-memory SQLite database.
	BackendSQLite Backend = "sqlite"

	// BackendMemory runs against memstore.
	BackendMemory Backend = "memory"
)

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	backend Backend
	logger  *slog.Logger
}

// WithBackend selects the store implementation. The default is SQLite.
func WithBackend(b Backend) Option {
	return func(c *runConfig) { c.backend = b }
}

// WithLogger sets the logger for step progress. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and key generator.
type Harness struct {
	store  store.DocumentStore
	seq    *testutil.Sequence
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh store for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Open a fresh store
// 2. Store seed documents in key order
// 3. Execute steps, checking expect clauses
// 4. Evaluate assertions
// 5. Return result with pass/fail, trace, and errors
//
// An error is returned only when the scenario cannot be executed at all:
// the store fails to open, a seed document is invalid, or a step hits a
// storage failure.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{
		backend: BackendSQLite,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	keys := testutil.NewSequenceKeyGenerator(scenario.KeyPrefix)

	var st store.DocumentStore
	switch cfg.backend {
	case BackendSQLite:
		s, err := store.Open(":memory:", store.WithKeyGenerator(keys), store.WithLogger(cfg.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		st = s
	case BackendMemory:
		st = memstore.New(memstore.WithKeyGenerator(keys))
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.backend)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		seq:    testutil.NewSequence(),
		logger: cfg.logger,
	}

	ctx := context.Background()
	result := NewResult()

	if err := h.executeSeed(ctx, scenario.Seed, result); err != nil {
		return nil, fmt.Errorf("failed to execute seed: %w", err)
	}

	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	assertionErrors := EvaluateAssertions(ctx, result, scenario.Assertions, st)
	for _, errMsg := range assertionErrors {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSeed stores seed documents in key order.
func (h *Harness) executeSeed(ctx context.Context, seed map[string]yaml.Node, result *Result) error {
	keys := make([]string, 0, len(seed))
	for k := range seed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		node := seed[key]
		doc, err := value.FromYAMLNode(&node)
		if err != nil {
			return fmt.Errorf("seed %q: %w", key, err)
		}
		if err := h.store.Put(ctx, key, doc); err != nil {
			return fmt.Errorf("seed %q: %w", key, err)
		}
		result.AddTrace(TraceEvent{
			Seq:     h.seq.Next(),
			Op:      OpPut,
			Key:     key,
			Arg:     doc,
			Outcome: OutcomeOK,
		})
	}
	return nil
}

// executeSteps runs every step, records it in the trace and checks its
// expect clause.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		ev, err := h.execute(ctx, step)
		if err != nil {
			code, ok := errorCode(err)
			if !ok {
				return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
			}
			ev.Outcome = code
			ev.Result = nil
		}
		ev.Seq = h.seq.Next()
		result.AddTrace(ev)

		for _, msg := range checkExpect(step, ev) {
			result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, step.Op, msg))
		}

		h.logger.Debug("step completed",
			"step", i,
			"op", step.Op,
			"key", step.Key,
			"outcome", ev.Outcome,
		)
	}
	return nil
}

// execute runs one step. The returned event carries everything but Seq.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	ev := TraceEvent{
		Op:      step.Op,
		Key:     step.Key,
		Path:    step.Path,
		Outcome: OutcomeOK,
	}

	var arg value.Value
	if step.Value.Kind != 0 {
		v, err := value.FromYAMLNode(&step.Value)
		if err != nil {
			return ev, err
		}
		arg = v
		ev.Arg = v
	}

	switch step.Op {
	case OpPut:
		return ev, h.store.Put(ctx, step.Key, arg)

	case OpAdd:
		key, err := h.store.Add(ctx, arg)
		ev.Result = value.String(key)
		return ev, err

	case OpGet:
		doc, err := h.store.Get(ctx, step.Key)
		ev.Result = doc
		return ev, err

	case OpUpdate:
		return ev, h.store.UpdatePath(ctx, step.Key, step.Path, arg)

	case OpExtract:
		if step.Strict {
			v, err := h.store.ExtractPathStrict(ctx, step.Key, step.Path)
			ev.Result = v
			return ev, err
		}
		v, ok, err := h.store.ExtractPath(ctx, step.Key, step.Path)
		if err == nil && !ok {
			ev.Outcome = OutcomeAbsent
		}
		ev.Result = v
		return ev, err

	case OpQuery:
		records, err := h.store.QueryPath(ctx, step.Path, arg)
		ev.Result = recordKeys(records)
		return ev, err

	case OpSearch:
		ev.Arg = value.String(step.Term)
		records, err := h.store.SearchText(ctx, step.Term)
		ev.Result = recordKeys(records)
		return ev, err

	case OpLen:
		var n int
		var err error
		if step.Strict {
			n, err = h.store.ArrayLengthStrict(ctx, step.Key, step.Path)
		} else {
			n, err = h.store.ArrayLength(ctx, step.Key, step.Path)
		}
		ev.Result = value.Int(n)
		return ev, err

	case OpKeys:
		if step.Prefix != "" {
			ev.Arg = value.String(step.Prefix)
		}
		keys, err := h.store.Keys(ctx, step.Prefix)
		arr := make(value.Array, len(keys))
		for i, k := range keys {
			arr[i] = value.String(k)
		}
		ev.Result = arr
		return ev, err

	case OpCount:
		n, err := h.store.Count(ctx)
		ev.Result = value.Int(n)
		return ev, err
	}

	return ev, fmt.Errorf("unknown op %q", step.Op)
}

func recordKeys(records []store.Record) value.Array {
	arr := make(value.Array, len(records))
	for i, r := range records {
		arr[i] = value.String(r.Key)
	}
	return arr
}

// checkExpect compares a step's trace event against its expect clause.
// A step without an expect clause must succeed.
func checkExpect(step Step, ev TraceEvent) []string {
	exp := step.Expect
	if exp == nil {
		exp = &ExpectClause{}
	}

	var errs []string
	failed := ev.Outcome != OutcomeOK && ev.Outcome != OutcomeAbsent

	if exp.Error != "" {
		if ev.Outcome != exp.Error {
			errs = append(errs, fmt.Sprintf("expected error %s, got %s", exp.Error, ev.Outcome))
		}
		return errs
	}
	if failed {
		return append(errs, fmt.Sprintf("unexpected error %s", ev.Outcome))
	}

	if exp.Value.Kind != 0 {
		want, err := value.FromYAMLNode(&exp.Value)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("expect.value: %v", err))
		case ev.Result == nil:
			errs = append(errs, fmt.Sprintf("expected value %s, got nothing", render(want)))
		case !value.Equal(want, ev.Result):
			errs = append(errs, fmt.Sprintf("expected value %s, got %s", render(want), render(ev.Result)))
		}
	}

	if exp.Present != nil {
		present := ev.Outcome == OutcomeOK
		if present != *exp.Present {
			errs = append(errs, fmt.Sprintf("expected present=%v, got %v", *exp.Present, present))
		}
	}

	if exp.Count != nil {
		n, ok := resultCount(ev.Result)
		if !ok {
			errs = append(errs, "count does not apply to this op")
		} else if n != *exp.Count {
			errs = append(errs, fmt.Sprintf("expected count %d, got %d", *exp.Count, n))
		}
	}

	if exp.Keys != nil {
		got, ok := ev.Result.(value.Array)
		if !ok || !sameKeys(exp.Keys, got) {
			errs = append(errs, fmt.Sprintf("expected keys %v, got %s", exp.Keys, render(ev.Result)))
		}
	}

	return errs
}

// resultCount returns an Int result or the length of a key list.
func resultCount(v value.Value) (int, bool) {
	switch r := v.(type) {
	case value.Int:
		return int(r), true
	case value.Array:
		return len(r), true
	}
	return 0, false
}

func sameKeys(want []string, got value.Array) bool {
	if len(want) != len(got) {
		return false
	}
	for i, k := range want {
		if got[i] != value.String(k) {
			return false
		}
	}
	return true
}

// render formats a value as canonical JSON for messages.
func render(v value.Value) string {
	if v == nil {
		return "<nothing>"
	}
	data, err := value.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}
