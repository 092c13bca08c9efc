package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// marshalList encodes a string list for a JSON TEXT column.
// nil encodes as "[]" so the column never holds NULL.
func marshalList(values []string) (string, error) {
	if values == nil {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(data), nil
}

// unmarshalList decodes a JSON TEXT column. Empty lists decode as nil,
// matching the omitempty shape of the dataset.
func unmarshalList(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("unmarshal list: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

// marshalOptional encodes v as JSON, or NULL when v is nil.
func marshalOptional[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal value: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalOptional[T any](data sql.NullString) (*T, error) {
	if !data.Valid || data.String == "" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(data.String), &v); err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return &v, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
