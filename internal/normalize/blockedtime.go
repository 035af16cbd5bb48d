package normalize

import (
	"math"

	"github.com/goccy/go-json"

	"calnorm/internal/models"
)

// ParseBlockedTime decodes a blocked-time JSON blob. Malformed JSON and
// non-positive or non-integral values are dropped; if nothing admissible
// remains the result is nil.
func ParseBlockedTime(raw string) *models.BlockedTime {
	if raw == "" {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil
	}
	bt := &models.BlockedTime{
		Before: positiveMinutes(fields["before"]),
		After:  positiveMinutes(fields["after"]),
	}
	return SanitizeBlockedTime(bt)
}

// SanitizeBlockedTime drops non-positive sides and returns nil when both are gone.
func SanitizeBlockedTime(bt *models.BlockedTime) *models.BlockedTime {
	if bt == nil {
		return nil
	}
	out := models.BlockedTime{}
	if bt.Before > 0 {
		out.Before = bt.Before
	}
	if bt.After > 0 {
		out.After = bt.After
	}
	if out.Before == 0 && out.After == 0 {
		return nil
	}
	return &out
}

// EncodeBlockedTime renders the window as the JSON blob stored in provider
// extended properties. ok is false when there is nothing to store.
func EncodeBlockedTime(bt *models.BlockedTime) (string, bool) {
	bt = SanitizeBlockedTime(bt)
	if bt == nil {
		return "", false
	}
	data, err := json.Marshal(bt)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func positiveMinutes(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}
