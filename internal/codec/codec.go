package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/hacksync/internal/model"
)

// Encode serialises the snapshot to its compact wire form.
// Nil collections are written as empty arrays.
func Encode(s model.Snapshot) ([]byte, error) {
	return encode(s, "")
}

// EncodeIndent is Encode with two-space indentation, for humans and golden files.
func EncodeIndent(s model.Snapshot) ([]byte, error) {
	return encode(s, "  ")
}

func encode(s model.Snapshot, indent string) ([]byte, error) {
	s = s.Clone()
	s.Normalize()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode validates data against the snapshot schema and decodes it.
// Timestamps are revived as UTC instants.
func Decode(data []byte) (model.Snapshot, error) {
	v, err := DefaultValidator()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return DecodeWith(v, data)
}

// DecodeWith is Decode using an explicit validator.
func DecodeWith(v *Validator, data []byte) (model.Snapshot, error) {
	if err := v.Validate(data); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	var s model.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot: %w: %v", ErrShape, err)
	}
	s.Normalize()
	revive(&s)
	return s, nil
}

func revive(s *model.Snapshot) {
	for i := range s.Attendees {
		if !s.Attendees[i].RegisteredAt.IsZero() {
			s.Attendees[i].RegisteredAt = model.Timestamp(s.Attendees[i].RegisteredAt)
		}
	}
	for i := range s.Projects {
		if at := s.Projects[i].SubmittedAt; at != nil {
			t := model.Timestamp(*at)
			s.Projects[i].SubmittedAt = &t
		}
	}
}
