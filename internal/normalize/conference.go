package normalize

import (
	"strings"

	"calnorm/internal/meetinglink"
	"calnorm/internal/models"
)

// ServiceID returns the detected meeting service of uri, or "".
func ServiceID(uri string) string {
	if l, ok := meetinglink.DetectURL(uri); ok {
		return l.Service.ID
	}
	return ""
}

// ResolveFallback scans candidate texts in order and builds a conference from
// the first one containing a known meeting link. Later candidates are never
// consulted once one matches. It returns nil when nothing is recognized.
func ResolveFallback(candidates ...string) *models.Conference {
	for _, text := range candidates {
		if text == "" {
			continue
		}
		if l, ok := meetinglink.Detect(text); ok {
			return FromLink(l)
		}
	}
	return nil
}

// FromLink builds a video-only conference from a detected link.
func FromLink(l meetinglink.Link) *models.Conference {
	return &models.Conference{
		ID:    l.Service.ID,
		Name:  l.Service.Name,
		Video: &models.EntryPoint{URI: l.URL},
	}
}

// TelURI prefixes a phone number with "tel:" unless already prefixed.
func TelURI(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(strings.ToLower(number), "tel:") {
		return number
	}
	return "tel:" + strings.ReplaceAll(number, " ", "")
}

// IsEmpty reports whether c carries no joinable or descriptive data.
func IsEmpty(c *models.Conference) bool {
	if c == nil {
		return true
	}
	return c.Video == nil && c.SIP == nil && len(c.Phone) == 0 &&
		c.ConferenceID == "" && c.Name == "" && c.HostURL == "" && c.Notes == "" && len(c.Extra) == 0
}
