package microsoft

// Graph v1.0 resources, limited to the fields the codec reads or writes.

type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type EmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type ResponseStatus struct {
	Response string `json:"response,omitempty"`
	Time     string `json:"time,omitempty"`
}

type Attendee struct {
	EmailAddress EmailAddress    `json:"emailAddress"`
	Type         string          `json:"type,omitempty"`
	Status       *ResponseStatus `json:"status,omitempty"`
}

type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

type Location struct {
	DisplayName string `json:"displayName,omitempty"`
	LocationURI string `json:"locationUri,omitempty"`
}

type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type Phone struct {
	Number string `json:"number"`
	Type   string `json:"type,omitempty"`
}

type OnlineMeetingInfo struct {
	JoinURL         string   `json:"joinUrl,omitempty"`
	ConferenceID    string   `json:"conferenceId,omitempty"`
	TollNumber      string   `json:"tollNumber,omitempty"`
	TollFreeNumbers []string `json:"tollFreeNumbers,omitempty"`
	Phones          []Phone  `json:"phones,omitempty"`
	QuickDial       string   `json:"quickDial,omitempty"`
}

type SingleValueExtendedProperty struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type RecurrencePattern struct {
	Type           string   `json:"type"`
	Interval       int      `json:"interval"`
	Month          int      `json:"month,omitempty"`
	DayOfMonth     int      `json:"dayOfMonth,omitempty"`
	DaysOfWeek     []string `json:"daysOfWeek,omitempty"`
	FirstDayOfWeek string   `json:"firstDayOfWeek,omitempty"`
	Index          string   `json:"index,omitempty"`
}

type RecurrenceRange struct {
	Type                string `json:"type"`
	StartDate           string `json:"startDate"`
	EndDate             string `json:"endDate,omitempty"`
	RecurrenceTimeZone  string `json:"recurrenceTimeZone,omitempty"`
	NumberOfOccurrences int    `json:"numberOfOccurrences,omitempty"`
}

type PatternedRecurrence struct {
	Pattern RecurrencePattern `json:"pattern"`
	Range   RecurrenceRange   `json:"range"`
}

// Event is a Graph event resource.
type Event struct {
	ID                            string                        `json:"id,omitempty"`
	Subject                       string                        `json:"subject,omitempty"`
	Body                          *ItemBody                     `json:"body,omitempty"`
	BodyPreview                   string                        `json:"bodyPreview,omitempty"`
	Start                         *DateTimeTimeZone             `json:"start,omitempty"`
	End                           *DateTimeTimeZone             `json:"end,omitempty"`
	IsAllDay                      *bool                         `json:"isAllDay,omitempty"`
	Location                      *Location                     `json:"location,omitempty"`
	ShowAs                        string                        `json:"showAs,omitempty"`
	IsCancelled                   bool                          `json:"isCancelled,omitempty"`
	Categories                    []string                      `json:"categories,omitempty"`
	Attendees                     []Attendee                    `json:"attendees,omitempty"`
	Organizer                     *Recipient                    `json:"organizer,omitempty"`
	ResponseStatus                *ResponseStatus               `json:"responseStatus,omitempty"`
	WebLink                       string                        `json:"webLink,omitempty"`
	IsOnlineMeeting               *bool                         `json:"isOnlineMeeting,omitempty"`
	OnlineMeeting                 *OnlineMeetingInfo            `json:"onlineMeeting,omitempty"`
	OnlineMeetingURL              string                        `json:"onlineMeetingUrl,omitempty"`
	OnlineMeetingProvider         string                        `json:"onlineMeetingProvider,omitempty"`
	OriginalStartTimeZone         string                        `json:"originalStartTimeZone,omitempty"`
	OriginalEndTimeZone           string                        `json:"originalEndTimeZone,omitempty"`
	SingleValueExtendedProperties []SingleValueExtendedProperty `json:"singleValueExtendedProperties,omitempty"`
	Recurrence                    *PatternedRecurrence          `json:"recurrence,omitempty"`
	SeriesMasterID                string                        `json:"seriesMasterId,omitempty"`
	Type                          string                        `json:"type,omitempty"`
}

// Calendar is a Graph calendar resource.
type Calendar struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Color             string        `json:"color,omitempty"`
	HexColor          string        `json:"hexColor,omitempty"`
	IsDefaultCalendar bool          `json:"isDefaultCalendar"`
	CanEdit           bool          `json:"canEdit"`
	Owner             *EmailAddress `json:"owner,omitempty"`
}

// ResponseRequest is the body of the accept, tentativelyAccept and decline
// actions.
type ResponseRequest struct {
	Comment      string `json:"comment,omitempty"`
	SendResponse bool   `json:"sendResponse"`
}

type graphError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
