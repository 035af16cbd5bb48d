package datetime

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

const (
	kindDate    = "date"
	kindInstant = "instant"
	kindZoned   = "zoned"
)

type encoded struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Zone  string `json:"zone,omitempty"`
}

// Encode converts v into its persisted blob form.
func Encode(v Value) (json.RawMessage, error) {
	var e encoded
	switch v := v.(type) {
	case Date:
		e = encoded{Type: kindDate, Value: v.String()}
	case Instant:
		e = encoded{Type: kindInstant, Value: v.Time.UTC().Format(time.RFC3339Nano)}
	case Zoned:
		e = encoded{Type: kindZoned, Value: v.Time.Format(time.RFC3339Nano), Zone: v.Zone}
	default:
		return nil, fmt.Errorf("unsupported date value %T", v)
	}
	return json.Marshal(e)
}

// Decode is the inverse of Encode.
func Decode(data []byte) (Value, error) {
	var e encoded
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode date value: %w", err)
	}
	switch e.Type {
	case kindDate:
		return ParseDate(e.Value)
	case kindInstant:
		t, err := time.Parse(time.RFC3339Nano, e.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid instant %q: %w", e.Value, err)
		}
		return NewInstant(t), nil
	case kindZoned:
		t, err := time.Parse(time.RFC3339Nano, e.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid zoned date-time %q: %w", e.Value, err)
		}
		loc, err := LoadZone(e.Zone)
		if err != nil {
			return nil, err
		}
		return NewZoned(t, loc), nil
	default:
		return nil, fmt.Errorf("unknown date value type %q", e.Type)
	}
}

// Field wraps a Value so it can sit directly inside JSON-encoded structs.
type Field struct {
	Value Value
}

func (f Field) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return Encode(f.Value)
}

func (f *Field) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		f.Value = nil
		return nil
	}
	v, err := Decode(data)
	if err != nil {
		return err
	}
	f.Value = v
	return nil
}
