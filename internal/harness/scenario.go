package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a store conformance scenario: documents to seed, a list
// of operations with expected outcomes, and assertions on the final trace
// and store contents.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// KeyPrefix is the prefix for keys generated by add steps:
	// "<prefix>-0001", "<prefix>-0002", ... Defaults to "doc".
	KeyPrefix string `yaml:"key_prefix,omitempty"`

	// Seed documents are stored before the first step, in key order.
	Seed map[string]yaml.Node `yaml:"seed,omitempty"`

	// Steps are executed in order against one store.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and store contents.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one store operation.
type Step struct {
	// Op is the operation: put, add, get, update, extract, query, search,
	// len, keys or count.
	Op string `yaml:"op"`

	Key  string `yaml:"key,omitempty"`
	Path string `yaml:"path,omitempty"`

	// Value is the document (put, add), subtree (update) or compared
	// value (query). A literal null is a JSON null.
	Value yaml.Node `yaml:"value,omitempty"`

	// Term is the search term for search.
	Term string `yaml:"term,omitempty"`

	// Prefix filters keys.
	Prefix string `yaml:"prefix,omitempty"`

	// Strict selects the strict variants of extract and len.
	Strict bool `yaml:"strict,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step only has to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected step behavior. Only the fields that are
// set are checked.
type ExpectClause struct {
	// Error is the expected error code, e.g. "not_found". Empty means the
	// step must succeed.
	Error string `yaml:"error,omitempty"`

	// Value is the expected document (get), value (extract) or generated
	// key (add).
	Value yaml.Node `yaml:"value,omitempty"`

	// Present is the expected presence for extract.
	Present *bool `yaml:"present,omitempty"`

	// Count is the expected array length (len) or number of matches
	// (query, search, keys, count).
	Count *int `yaml:"count,omitempty"`

	// Keys are the expected matching keys in order (query, search, keys).
	Keys []string `yaml:"keys,omitempty"`
}

// Assertion validates the trace or the final store contents.
type Assertion struct {
	// Type specifies the assertion type:
	// - "document": the document under Key equals Expect
	// - "absent": no document exists under Key
	// - "count": the store holds Count documents
	// - "trace_contains": an Op step (on Key, if set) appears in the trace
	// - "trace_order": Ops appear in the trace in this order
	// - "trace_count": Op appears exactly Count times
	Type string `yaml:"type"`

	Key    string    `yaml:"key,omitempty"`
	Op     string    `yaml:"op,omitempty"`
	Ops    []string  `yaml:"ops,omitempty"`
	Count  int       `yaml:"count,omitempty"`
	Expect yaml.Node `yaml:"expect,omitempty"`
}

// Step operation constants.
const (
	OpPut     = "put"
	OpAdd     = "add"
	OpGet     = "get"
	OpUpdate  = "update"
	OpExtract = "extract"
	OpQuery   = "query"
	OpSearch  = "search"
	OpLen     = "len"
	OpKeys    = "keys"
	OpCount   = "count"
)

// Assertion type constants.
const (
	AssertDocument      = "document"
	AssertAbsent        = "absent"
	AssertCount         = "count"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: empty scenario")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for key := range s.Seed {
		if key == "" {
			return fmt.Errorf("seed: keys must not be empty")
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks the fields each operation needs.
func validateStep(index int, st *Step) error {
	hasValue := st.Value.Kind != 0

	switch st.Op {
	case OpPut:
		if st.Key == "" || !hasValue {
			return fmt.Errorf("steps[%d]: put requires key and value", index)
		}
	case OpAdd:
		if !hasValue {
			return fmt.Errorf("steps[%d]: add requires value", index)
		}
	case OpGet:
		if st.Key == "" {
			return fmt.Errorf("steps[%d]: get requires key", index)
		}
	case OpUpdate:
		if st.Key == "" || st.Path == "" || !hasValue {
			return fmt.Errorf("steps[%d]: update requires key, path and value", index)
		}
	case OpExtract, OpLen:
		if st.Key == "" || st.Path == "" {
			return fmt.Errorf("steps[%d]: %s requires key and path", index, st.Op)
		}
	case OpQuery:
		if st.Path == "" || !hasValue {
			return fmt.Errorf("steps[%d]: query requires path and value", index)
		}
	case OpSearch, OpKeys, OpCount:
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}

	if st.Expect != nil && st.Expect.Error != "" && !knownErrorCode(st.Expect.Error) {
		return fmt.Errorf("steps[%d].expect: unknown error code %q", index, st.Expect.Error)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDocument:
		if a.Key == "" || a.Expect.Kind == 0 {
			return fmt.Errorf("assertions[%d]: key and expect are required for document", index)
		}
	case AssertAbsent:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for absent", index)
		}
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
