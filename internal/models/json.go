package models

import (
	"github.com/goccy/go-json"

	"calnorm/internal/datetime"
)

type recurrenceJSON struct {
	Freq       Frequency        `json:"freq"`
	Interval   int              `json:"interval,omitempty"`
	Count      int              `json:"count,omitempty"`
	Until      *datetime.Field  `json:"until,omitempty"`
	ByDay      []WeekdayNum     `json:"byDay,omitempty"`
	ByMonth    []int            `json:"byMonth,omitempty"`
	ByMonthDay []int            `json:"byMonthDay,omitempty"`
	ByYearDay  []int            `json:"byYearDay,omitempty"`
	ByWeekNo   []int            `json:"byWeekNo,omitempty"`
	ByHour     []int            `json:"byHour,omitempty"`
	ByMinute   []int            `json:"byMinute,omitempty"`
	BySecond   []int            `json:"bySecond,omitempty"`
	BySetPos   []int            `json:"bySetPos,omitempty"`
	WeekStart  Weekday          `json:"weekStart,omitempty"`
	ExDates    []datetime.Field `json:"exDates,omitempty"`
	RDates     []datetime.Field `json:"rDates,omitempty"`
}

func (r Recurrence) MarshalJSON() ([]byte, error) {
	out := recurrenceJSON{
		Freq:       r.Freq,
		Interval:   r.Interval,
		Count:      r.Count,
		ByDay:      r.ByDay,
		ByMonth:    r.ByMonth,
		ByMonthDay: r.ByMonthDay,
		ByYearDay:  r.ByYearDay,
		ByWeekNo:   r.ByWeekNo,
		ByHour:     r.ByHour,
		ByMinute:   r.ByMinute,
		BySecond:   r.BySecond,
		BySetPos:   r.BySetPos,
		WeekStart:  r.WeekStart,
		ExDates:    toFields(r.ExDates),
		RDates:     toFields(r.RDates),
	}
	if r.Until != nil {
		out.Until = &datetime.Field{Value: r.Until}
	}
	return json.Marshal(out)
}

func (r *Recurrence) UnmarshalJSON(data []byte) error {
	var in recurrenceJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Recurrence{
		Freq:       in.Freq,
		Interval:   in.Interval,
		Count:      in.Count,
		ByDay:      in.ByDay,
		ByMonth:    nilIfEmpty(in.ByMonth),
		ByMonthDay: nilIfEmpty(in.ByMonthDay),
		ByYearDay:  nilIfEmpty(in.ByYearDay),
		ByWeekNo:   nilIfEmpty(in.ByWeekNo),
		ByHour:     nilIfEmpty(in.ByHour),
		ByMinute:   nilIfEmpty(in.ByMinute),
		BySecond:   nilIfEmpty(in.BySecond),
		BySetPos:   nilIfEmpty(in.BySetPos),
		WeekStart:  in.WeekStart,
		ExDates:    fromFields(in.ExDates),
		RDates:     fromFields(in.RDates),
	}
	if len(r.ByDay) == 0 {
		r.ByDay = nil
	}
	if in.Until != nil {
		r.Until = in.Until.Value
	}
	return nil
}

type eventJSON struct {
	ID               string          `json:"id"`
	Title            string          `json:"title,omitempty"`
	Description      string          `json:"description,omitempty"`
	Location         string          `json:"location,omitempty"`
	URL              string          `json:"url,omitempty"`
	Color            string          `json:"color,omitempty"`
	Status           EventStatus     `json:"status,omitempty"`
	Start            datetime.Field  `json:"start"`
	End              datetime.Field  `json:"end"`
	AllDay           bool            `json:"allDay"`
	Attendees        []Attendee      `json:"attendees,omitempty"`
	Response         *Response       `json:"response,omitempty"`
	Conference       *Conference     `json:"conference,omitempty"`
	Recurrence       *Recurrence     `json:"recurrence,omitempty"`
	RecurringEventID string          `json:"recurringEventId,omitempty"`
	Provider         Provider        `json:"provider"`
	AccountID        string          `json:"accountId,omitempty"`
	CalendarID       string          `json:"calendarId,omitempty"`
	ReadOnly         bool            `json:"readOnly"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
}

func (e CalendarEvent) MarshalJSON() ([]byte, error) {
	meta, err := EncodeMetadata(e.Metadata)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventJSON{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		Location:         e.Location,
		URL:              e.URL,
		Color:            e.Color,
		Status:           e.Status,
		Start:            datetime.Field{Value: e.Start},
		End:              datetime.Field{Value: e.End},
		AllDay:           e.AllDay,
		Attendees:        e.Attendees,
		Response:         e.Response,
		Conference:       e.Conference,
		Recurrence:       e.Recurrence,
		RecurringEventID: e.RecurringEventID,
		Provider:         e.Provider,
		AccountID:        e.AccountID,
		CalendarID:       e.CalendarID,
		ReadOnly:         e.ReadOnly,
		Metadata:         meta,
	})
}

func (e *CalendarEvent) UnmarshalJSON(data []byte) error {
	var in eventJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	meta, err := DecodeMetadata(in.Metadata)
	if err != nil {
		return err
	}
	*e = CalendarEvent{
		ID:               in.ID,
		Title:            in.Title,
		Description:      in.Description,
		Location:         in.Location,
		URL:              in.URL,
		Color:            in.Color,
		Status:           in.Status,
		Start:            in.Start.Value,
		End:              in.End.Value,
		AllDay:           in.AllDay,
		Attendees:        in.Attendees,
		Response:         in.Response,
		Conference:       in.Conference,
		Recurrence:       in.Recurrence,
		RecurringEventID: in.RecurringEventID,
		Provider:         in.Provider,
		AccountID:        in.AccountID,
		CalendarID:       in.CalendarID,
		ReadOnly:         in.ReadOnly,
		Metadata:         meta,
	}
	return nil
}

type inputJSON struct {
	Provider    Provider        `json:"provider"`
	AccountID   string          `json:"accountId,omitempty"`
	CalendarID  string          `json:"calendarId,omitempty"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Location    string          `json:"location,omitempty"`
	URL         string          `json:"url,omitempty"`
	Color       string          `json:"color,omitempty"`
	Status      EventStatus     `json:"status,omitempty"`
	Start       *datetime.Field `json:"start,omitempty"`
	End         *datetime.Field `json:"end,omitempty"`
	AllDay      bool            `json:"allDay"`
	Attendees   []Attendee      `json:"attendees,omitempty"`
	Conference  *Conference     `json:"conference,omitempty"`
	Recurrence  *Recurrence     `json:"recurrence,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`

	EventID           string    `json:"eventId,omitempty"`
	Response          *Response `json:"response,omitempty"`
	SendNotifications bool      `json:"sendNotifications,omitempty"`
}

func (in EventInput) toJSON() (inputJSON, error) {
	meta, err := EncodeMetadata(in.Metadata)
	if err != nil {
		return inputJSON{}, err
	}
	out := inputJSON{
		Provider:    in.Provider,
		AccountID:   in.AccountID,
		CalendarID:  in.CalendarID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		URL:         in.URL,
		Color:       in.Color,
		Status:      in.Status,
		AllDay:      in.AllDay,
		Attendees:   in.Attendees,
		Conference:  in.Conference,
		Recurrence:  in.Recurrence,
		Metadata:    meta,
	}
	if in.Start != nil {
		out.Start = &datetime.Field{Value: in.Start}
	}
	if in.End != nil {
		out.End = &datetime.Field{Value: in.End}
	}
	return out, nil
}

func (raw inputJSON) toInput() (EventInput, error) {
	meta, err := DecodeMetadata(raw.Metadata)
	if err != nil {
		return EventInput{}, err
	}
	in := EventInput{
		Provider:    raw.Provider,
		AccountID:   raw.AccountID,
		CalendarID:  raw.CalendarID,
		Title:       raw.Title,
		Description: raw.Description,
		Location:    raw.Location,
		URL:         raw.URL,
		Color:       raw.Color,
		Status:      raw.Status,
		AllDay:      raw.AllDay,
		Attendees:   raw.Attendees,
		Conference:  raw.Conference,
		Recurrence:  raw.Recurrence,
		Metadata:    meta,
	}
	if raw.Start != nil {
		in.Start = raw.Start.Value
	}
	if raw.End != nil {
		in.End = raw.End.Value
	}
	return in, nil
}

func (in EventInput) MarshalJSON() ([]byte, error) {
	out, err := in.toJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (in *EventInput) UnmarshalJSON(data []byte) error {
	var raw inputJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := raw.toInput()
	if err != nil {
		return err
	}
	*in = parsed
	return nil
}

func (in UpdateEventInput) MarshalJSON() ([]byte, error) {
	out, err := in.EventInput.toJSON()
	if err != nil {
		return nil, err
	}
	out.EventID = in.EventID
	out.Response = in.Response
	out.SendNotifications = in.SendNotifications
	return json.Marshal(out)
}

func (in *UpdateEventInput) UnmarshalJSON(data []byte) error {
	var raw inputJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	base, err := raw.toInput()
	if err != nil {
		return err
	}
	*in = UpdateEventInput{
		EventInput:        base,
		EventID:           raw.EventID,
		Response:          raw.Response,
		SendNotifications: raw.SendNotifications,
	}
	return nil
}

func toFields(values []datetime.Value) []datetime.Field {
	if len(values) == 0 {
		return nil
	}
	out := make([]datetime.Field, len(values))
	for i, v := range values {
		out[i] = datetime.Field{Value: v}
	}
	return out
}

func fromFields(fields []datetime.Field) []datetime.Value {
	if len(fields) == 0 {
		return nil
	}
	out := make([]datetime.Value, len(fields))
	for i, f := range fields {
		out[i] = f.Value
	}
	return out
}

func nilIfEmpty(v []int) []int {
	if len(v) == 0 {
		return nil
	}
	return v
}
