package models

// EntryPoint is one way of joining a conference.
type EntryPoint struct {
	URI         string `json:"uri"`
	Label       string `json:"label,omitempty"`
	MeetingCode string `json:"meetingCode,omitempty"`
	AccessCode  string `json:"accessCode,omitempty"`
	Password    string `json:"password,omitempty"`
	Pin         string `json:"pin,omitempty"`
	RegionCode  string `json:"regionCode,omitempty"`
}

// Conference is the canonical conferencing data of an event.
type Conference struct {
	// ID is the detected meeting service, e.g. "google-meet".
	ID           string            `json:"id,omitempty"`
	ConferenceID string            `json:"conferenceId,omitempty"`
	Name         string            `json:"name,omitempty"`
	Video        *EntryPoint       `json:"video,omitempty"`
	SIP          *EntryPoint       `json:"sip,omitempty"`
	Phone        []EntryPoint      `json:"phone,omitempty"`
	HostURL      string            `json:"hostUrl,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// JoinURL returns the video entry point URI, if any.
func (c *Conference) JoinURL() string {
	if c == nil || c.Video == nil {
		return ""
	}
	return c.Video.URI
}
