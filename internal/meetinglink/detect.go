// Package meetinglink recognizes join links of known video-meeting services.
package meetinglink

import (
	"regexp"
	"strings"
)

// Service describes one known meeting provider.
type Service struct {
	ID   string
	Name string
	re   *regexp.Regexp
}

// Link is a detected meeting link.
type Link struct {
	Service Service
	URL     string
}

var services = []Service{
	{ID: "google-meet", Name: "Google Meet", re: regexp.MustCompile(`^https://(meet\.google\.com/(lookup/)?[a-z0-9-]+|(plus|hangouts)\.google\.com/hangouts/)`)},
	{ID: "zoom", Name: "Zoom", re: regexp.MustCompile(`^https://([a-z0-9-]+\.)*zoom(gov)?\.(us|com)/(j|my|w|s|wc/join)/[A-Za-z0-9.?=&_-]+`)},
	{ID: "microsoft-teams", Name: "Microsoft Teams", re: regexp.MustCompile(`^https://(teams\.microsoft\.com/l/meetup-join/|teams\.live\.com/meet/|([a-z0-9-]+\.)?teams\.microsoft\.(com|us)/meet/)`)},
	{ID: "webex", Name: "Webex", re: regexp.MustCompile(`^https://([a-z0-9-]+\.)*webex\.com/(meet/|join/|[a-z0-9-]+/j\.php|[a-z0-9-]+/e\.php|wbxmjs/joinservice/)`)},
	{ID: "gotomeeting", Name: "GoTo Meeting", re: regexp.MustCompile(`^https://(global\.gotomeeting\.com/join/|meet\.goto\.com/|app\.gotomeeting\.com/\?meetingId=)`)},
	{ID: "skype", Name: "Skype", re: regexp.MustCompile(`^https://join\.skype\.com/[A-Za-z0-9]+`)},
	{ID: "whereby", Name: "Whereby", re: regexp.MustCompile(`^https://whereby\.com/[A-Za-z0-9_-]+`)},
	{ID: "jitsi", Name: "Jitsi Meet", re: regexp.MustCompile(`^https://meet\.jit\.si/[A-Za-z0-9_-]+`)},
	{ID: "chime", Name: "Amazon Chime", re: regexp.MustCompile(`^https://(app\.)?chime\.aws/(meetings/)?[0-9]+`)},
	{ID: "bluejeans", Name: "BlueJeans", re: regexp.MustCompile(`^https://([a-z0-9-]+\.)?bluejeans\.com/[0-9]+`)},
	{ID: "slack-huddle", Name: "Slack Huddle", re: regexp.MustCompile(`^https://app\.slack\.com/huddle/[a-z0-9]+/[a-z0-9]+`)},
	{ID: "discord", Name: "Discord", re: regexp.MustCompile(`^https://(www\.)?discord(app)?\.(gg|com)/(invite/)?[A-Za-z0-9]+`)},
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"'()\[\]{}]+`)

// Services returns the known meeting services in detection order.
func Services() []Service {
	out := make([]Service, len(services))
	copy(out, services)
	return out
}

// Lookup returns the service registered under id.
func Lookup(id string) (Service, bool) {
	for _, s := range services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// DetectURL matches a single URL against the known services.
func DetectURL(raw string) (Link, bool) {
	u := strings.TrimSpace(raw)
	u = strings.TrimRight(u, ".,;:!?")
	if u == "" {
		return Link{}, false
	}
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") {
		lower = "https://" + strings.TrimPrefix(lower, "http://")
	}
	for _, s := range services {
		if s.re.MatchString(lower) {
			return Link{Service: s, URL: u}, true
		}
	}
	return Link{}, false
}

// ExtractURLs returns every http(s) URL found in free text, in order.
func ExtractURLs(text string) []string {
	if text == "" {
		return nil
	}
	return urlPattern.FindAllString(text, -1)
}

// Detect scans free text for the first URL that belongs to a known service.
func Detect(text string) (Link, bool) {
	for _, u := range ExtractURLs(text) {
		if l, ok := DetectURL(u); ok {
			return l, true
		}
	}
	return Link{}, false
}
