package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/nestdoc/internal/store"
	"github.com/roach88/nestdoc/internal/value"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", event.Seq, event.Op)
			if event.Key != "" {
				fmt.Fprintf(&buf, " %s", event.Key)
			}
			if event.Path != "" {
				fmt.Fprintf(&buf, " %s", event.Path)
			}
			fmt.Fprintf(&buf, " -> %s\n", event.Outcome)
		}
	}

	return buf.String()
}

// matchesEvent reports whether event is an op step, on key when key is set.
func matchesEvent(event TraceEvent, op, key string) bool {
	return event.Op == op && (key == "" || event.Key == key)
}

// assertTraceContains checks if the trace contains an op step, on the
// assertion's key when one is given.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matchesEvent(event, assertion.Op, assertion.Key) {
			return nil
		}
	}

	expected := assertion.Op
	if assertion.Key != "" {
		expected += " on " + assertion.Key
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if ops appear in the specified order.
// Ops don't need to be consecutive (intervening steps are allowed); each
// op is matched after the position of the previous one.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, op := range assertion.Ops {
		found := false
		for pos < len(trace) {
			event := trace[pos]
			pos++
			if event.Op == op {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
				Actual:   fmt.Sprintf("no %s after position %d", op, pos),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks if the op appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matchesEvent(event, assertion.Op, assertion.Key) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertDocument checks that the document under the assertion's key equals
// the expected value under JSON equality.
func assertDocument(ctx context.Context, st store.DocumentStore, assertion Assertion) error {
	want, err := value.FromYAMLNode(&assertion.Expect)
	if err != nil {
		return fmt.Errorf("document %s: expect: %w", assertion.Key, err)
	}

	got, err := st.Get(ctx, assertion.Key)
	if err != nil {
		return &AssertionError{
			Type:     AssertDocument,
			Expected: fmt.Sprintf("%s = %s", assertion.Key, render(want)),
			Actual:   err.Error(),
		}
	}

	if !value.Equal(want, got) {
		return &AssertionError{
			Type:     AssertDocument,
			Expected: fmt.Sprintf("%s = %s", assertion.Key, render(want)),
			Actual:   fmt.Sprintf("%s = %s", assertion.Key, render(got)),
		}
	}
	return nil
}

// assertAbsent checks that no document exists under the assertion's key.
func assertAbsent(ctx context.Context, st store.DocumentStore, assertion Assertion) error {
	got, err := st.Get(ctx, assertion.Key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("absent %s: %w", assertion.Key, err)
	}
	return &AssertionError{
		Type:     AssertAbsent,
		Expected: fmt.Sprintf("no document under %s", assertion.Key),
		Actual:   render(got),
	}
}

// assertCount checks the number of stored documents.
func assertCount(ctx context.Context, st store.DocumentStore, assertion Assertion) error {
	n, err := st.Count(ctx)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	if n != assertion.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d documents", assertion.Count),
			Actual:   fmt.Sprintf("%d documents", n),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result and the
// final store contents.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(ctx context.Context, result *Result, assertions []Assertion, st store.DocumentStore) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertDocument, AssertAbsent, AssertCount:
			if st == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a store", i, assertion.Type)
				break
			}
			switch assertion.Type {
			case AssertDocument:
				err = assertDocument(ctx, st, assertion)
			case AssertAbsent:
				err = assertAbsent(ctx, st, assertion)
			default:
				err = assertCount(ctx, st, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}
