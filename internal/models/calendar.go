package models

// Calendar is the canonical calendar.
type Calendar struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name,omitempty"`
	Description        string   `json:"description,omitempty"`
	TimeZone           string   `json:"timeZone,omitempty"`
	Color              string   `json:"color,omitempty"`
	Primary            bool     `json:"primary"`
	ReadOnly           bool     `json:"readOnly"`
	ProviderCalendarID string   `json:"providerCalendarId"`
	AccountID          string   `json:"accountId"`
	Provider           Provider `json:"provider"`
	// SyncToken is an opaque incremental-fetch cursor.
	SyncToken string `json:"syncToken,omitempty"`
}
