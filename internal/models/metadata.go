package models

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"calnorm/internal/datetime"
)

// ErrProviderMismatch is returned when metadata of one provider is attached to
// an event or input of another.
var ErrProviderMismatch = errors.New("metadata provider does not match event provider")

// Metadata is provider-specific round-trip data. It is either
// *GoogleMetadata or *MicrosoftMetadata.
type Metadata interface {
	Provider() Provider
}

// BlockedTime is the scheduling-assistant buffer around an event, in minutes.
// Zero means the side is not set.
type BlockedTime struct {
	Before int `json:"before,omitempty"`
	After  int `json:"after,omitempty"`
}

// ExtendedProperties mirrors Google's private/shared key-value slots.
type ExtendedProperties struct {
	Private map[string]string `json:"private,omitempty"`
	Shared  map[string]string `json:"shared,omitempty"`
}

// GoogleMetadata preserves Google payload details for lossless updates.
type GoogleMetadata struct {
	OriginalRecurrence    []string             `json:"originalRecurrence,omitempty"`
	RecurringEventID      string               `json:"recurringEventId,omitempty"`
	ExtendedProperties    *ExtendedProperties  `json:"extendedProperties,omitempty"`
	BlockedTime           *BlockedTime         `json:"blockedTime,omitempty"`
	HTMLLink              string               `json:"htmlLink,omitempty"`
	OriginalStartTimeZone *datetime.Provenance `json:"originalStartTimeZone,omitempty"`
	OriginalEndTimeZone   *datetime.Provenance `json:"originalEndTimeZone,omitempty"`
}

func (*GoogleMetadata) Provider() Provider { return ProviderGoogle }

// MicrosoftMetadata preserves Graph payload details for lossless updates.
type MicrosoftMetadata struct {
	BlockedTime           *BlockedTime         `json:"blockedTime,omitempty"`
	OriginalStartTimeZone *datetime.Provenance `json:"originalStartTimeZone,omitempty"`
	OriginalEndTimeZone   *datetime.Provenance `json:"originalEndTimeZone,omitempty"`
	WebLink               string               `json:"webLink,omitempty"`
	ShowAs                string               `json:"showAs,omitempty"`
	OnlineMeetingProvider string               `json:"onlineMeetingProvider,omitempty"`
}

func (*MicrosoftMetadata) Provider() Provider { return ProviderMicrosoft }

// BlockedTimeOf returns the blocked-time window of m, whichever provider it is.
func BlockedTimeOf(m Metadata) *BlockedTime {
	switch m := m.(type) {
	case *GoogleMetadata:
		if m != nil {
			return m.BlockedTime
		}
	case *MicrosoftMetadata:
		if m != nil {
			return m.BlockedTime
		}
	}
	return nil
}

// CheckMetadata verifies that m, when present, belongs to p.
func CheckMetadata(p Provider, m Metadata) error {
	if m == nil {
		return nil
	}
	if m.Provider() != p {
		return fmt.Errorf("%w: %s metadata on %s event", ErrProviderMismatch, m.Provider(), p)
	}
	return nil
}

// EncodeMetadata converts m into its persisted blob, tagged with the provider.
func EncodeMetadata(m Metadata) (json.RawMessage, error) {
	if m == nil {
		return nil, nil
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return json.Marshal(struct {
		Provider Provider        `json:"provider"`
		Data     json.RawMessage `json:"data"`
	}{Provider: m.Provider(), Data: body})
}

// DecodeMetadata is the inverse of EncodeMetadata.
func DecodeMetadata(data []byte) (Metadata, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var envelope struct {
		Provider Provider        `json:"provider"`
		Data     json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	var m Metadata
	switch envelope.Provider {
	case ProviderGoogle:
		m = &GoogleMetadata{}
	case ProviderMicrosoft:
		m = &MicrosoftMetadata{}
	default:
		return nil, fmt.Errorf("unknown metadata provider %q", envelope.Provider)
	}
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s metadata: %w", envelope.Provider, err)
		}
	}
	return m, nil
}
