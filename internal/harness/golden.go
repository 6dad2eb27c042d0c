package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/nestdoc/internal/value"
)

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toValue converts the snapshot to a Value for canonical serialization.
// Empty event fields are omitted.
func (s *TraceSnapshot) toValue() value.Value {
	trace := make(value.Array, len(s.Trace))
	for i, event := range s.Trace {
		ev := value.Object{
			"seq":     value.Int(event.Seq),
			"op":      value.String(event.Op),
			"outcome": value.String(event.Outcome),
		}
		if event.Key != "" {
			ev["key"] = value.String(event.Key)
		}
		if event.Path != "" {
			ev["path"] = value.String(event.Path)
		}
		if event.Arg != nil {
			ev["arg"] = event.Arg
		}
		if event.Result != nil {
			ev["result"] = event.Result
		}
		trace[i] = ev
	}

	return value.Object{
		"scenario_name": value.String(s.ScenarioName),
		"trace":         trace,
	}
}

// Marshal renders the snapshot as canonical JSON indented two spaces, so
// golden files diff line by line.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	data, err := value.Marshal(s.toValue())
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
