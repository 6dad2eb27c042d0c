package store

import (
	"fmt"

	"github.com/roach88/nestdoc/internal/jsonpath"
	"github.com/roach88/nestdoc/internal/value"
)

// Record is one stored document as returned by multi-document reads.
type Record struct {
	Key  string      `json:"key"`
	Data value.Value `json:"data"`
}

// marshalDocument converts a document to canonical JSON TEXT for storage.
func marshalDocument(doc value.Value) (string, error) {
	data, err := value.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return string(data), nil
}

// unmarshalDocument parses stored JSON TEXT. Stored text passed json_valid,
// so a failure here means the row was written by something else.
func unmarshalDocument(data string) (value.Value, error) {
	v, err := value.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return v, nil
}

// parsePath parses a caller-supplied path before it reaches SQLite, so a
// malformed path surfaces as ErrInvalidPath rather than a driver error.
func parsePath(op, path string) (jsonpath.Path, error) {
	p, err := jsonpath.Parse(path)
	if err != nil {
		return jsonpath.Path{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func checkKey(op, key string) error {
	if key == "" {
		return fmt.Errorf("%s: %w: key must not be empty", op, ErrInvalidKey)
	}
	return nil
}
