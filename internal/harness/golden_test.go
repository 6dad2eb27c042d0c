package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGolden_Scenarios(t *testing.T) {
	files, err := DiscoverScenarios([]string{"testdata/scenarios"})
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		scenario, err := LoadScenario(file)
		require.NoError(t, err, file)

		// Both backends must produce the same trace.
		for _, backend := range []Backend{BackendSQLite, BackendMemory} {
			t.Run(filepath.Base(file)+"/"+string(backend), func(t *testing.T) {
				result, err := RunWithGolden(t, scenario, WithBackend(backend))
				require.NoError(t, err)
				assert.True(t, result.Pass, "errors: %v", result.Errors)
			})
		}
	}
}

func TestTraceSnapshot_OmitsEmptyFields(t *testing.T) {
	snapshot := TraceSnapshot{
		ScenarioName: "tiny",
		Trace: []TraceEvent{
			{Seq: 1, Op: OpCount, Outcome: OutcomeOK},
		},
	}

	data, err := snapshot.Marshal()
	require.NoError(t, err)
	assert.Equal(t, `{
  "scenario_name": "tiny",
  "trace": [
    {
      "op": "count",
      "outcome": "ok",
      "seq": 1
    }
  ]
}
`, string(data))
}
