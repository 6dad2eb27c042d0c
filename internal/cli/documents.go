package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/nestdoc/internal/store"
	"github.com/roach88/nestdoc/internal/value"
)

// RecordOutput is the JSON shape of one stored record.
type RecordOutput struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

// parseDocument decodes a JSON argument.
func parseDocument(arg string) (value.Value, error) {
	v, err := value.DecodeString(arg)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", arg, err)
	}
	return v, nil
}

// canonical renders v as canonical JSON.
func canonical(v value.Value) (json.RawMessage, error) {
	data, err := value.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// writeValue prints a single document: raw canonical JSON in text mode,
// inside the envelope in JSON mode.
func writeValue(f *OutputFormatter, v value.Value) error {
	data, err := canonical(v)
	if err != nil {
		return f.Fail(err)
	}
	if f.Format == "json" {
		return f.Success(data)
	}
	return f.Success(string(data))
}

// writeRecords prints matched records, one "key<TAB>json" line each in
// text mode.
func writeRecords(f *OutputFormatter, records []store.Record) error {
	out := make([]RecordOutput, 0, len(records))
	for _, r := range records {
		data, err := canonical(r.Data)
		if err != nil {
			return f.Fail(err)
		}
		out = append(out, RecordOutput{Key: r.Key, Data: data})
	}

	if f.Format == "json" {
		return f.Success(out)
	}
	if len(out) == 0 {
		f.VerboseLog("no matching documents")
		return nil
	}
	var b strings.Builder
	for i, r := range out {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s\t%s", r.Key, r.Data)
	}
	return f.Success(b.String())
}
