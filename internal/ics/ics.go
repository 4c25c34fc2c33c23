package ics

import (
	"bytes"
	"errors"
	"fmt"
	"sheetcal/internal/models"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const (
	productID = "-//sheetcal//EN"
	uidDomain = "sheetcal"
)

// Error kinds reported while building the calendar document. An invalid
// entry is always wrapped in ErrSerialization.
var (
	ErrSerialization = errors.New("failed to serialize calendar")
	ErrInvalidEntry  = errors.New("invalid calendar entry")
)

// uidNamespace seeds the name-based UUIDs so the same sheet row yields the
// same UID on every run.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://sheetcal/events"))

// Serializer converts events to an iCalendar document.
type Serializer struct {
	calendarName string
	now          func() time.Time
}

// NewSerializer creates a Serializer for a calendar with the given display name.
func NewSerializer(calendarName string) *Serializer {
	return &Serializer{calendarName: calendarName, now: time.Now}
}

// WithClock returns a copy of s that stamps events with now instead of the wall clock.
func (s *Serializer) WithClock(now func() time.Time) *Serializer {
	c := *s
	c.now = now
	return &c
}

// Serialize returns the calendar document for events, one VEVENT per event.
// Either every event is valid and the whole document is returned, or nothing is.
func (s *Serializer) Serialize(events []models.Event) ([]byte, error) {
	cal, err := s.Calendar(events)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if len(cal.Children) == 0 {
		// The encoder refuses calendars without components.
		writeEmpty(&buf, cal)
		return buf.Bytes(), nil
	}
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

// Calendar builds the VCALENDAR for events without encoding it.
func (s *Serializer) Calendar(events []models.Event) (*ical.Calendar, error) {
	cal := s.newCalendar()
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	cal.Props.SetText("X-WR-CALNAME", s.calendarName)

	stamp := s.now().UTC()
	for _, e := range events {
		ve, err := toICal(e, stamp)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
		}
		cal.Children = append(cal.Children, ve)
	}
	return cal, nil
}

// EventCalendar wraps a single event in its own VCALENDAR, as CalDAV servers
// store one calendar object per event.
func (s *Serializer) EventCalendar(e models.Event) (*ical.Calendar, error) {
	ve, err := toICal(e, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	cal := s.newCalendar()
	cal.Children = append(cal.Children, ve)
	return cal, nil
}

func (s *Serializer) newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	return cal
}

// UID returns the stable iCalendar UID of an event.
func UID(e models.Event) string {
	name := fmt.Sprintf("%d|%s|%s", e.Row, e.Start.UTC().Format(time.RFC3339), e.Name)
	return uuid.NewSHA1(uidNamespace, []byte(name)).String() + "@" + uidDomain
}

// toICal converts an Event to a VEVENT with all times in UTC.
func toICal(e models.Event, stamp time.Time) (*ical.Component, error) {
	if strings.TrimSpace(e.Name) == "" {
		return nil, fmt.Errorf("%w: row %d: empty title", ErrInvalidEntry, e.Row)
	}
	if e.Start.IsZero() || e.End.IsZero() {
		return nil, fmt.Errorf("%w: row %d: missing start or end", ErrInvalidEntry, e.Row)
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, UID(e))
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ve.Props.SetDateTime(ical.PropDateTimeStart, e.Start.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, e.End.UTC())
	ve.Props.SetText(ical.PropSummary, e.Name)
	if e.Description != "" {
		ve.Props.SetText(ical.PropDescription, e.Description)
	}
	return ve, nil
}

// writeEmpty renders a calendar that has properties but no components.
func writeEmpty(buf *bytes.Buffer, cal *ical.Calendar) {
	buf.WriteString("BEGIN:VCALENDAR\r\n")
	for _, name := range []string{ical.PropVersion, ical.PropProductID, ical.PropMethod, "X-WR-CALNAME"} {
		p := cal.Props.Get(name)
		if p == nil {
			continue
		}
		text, err := p.Text()
		if err != nil {
			text = p.Value
		}
		buf.WriteString(foldLine(name + ":" + escapeText(text)))
		buf.WriteString("\r\n")
	}
	buf.WriteString("END:VCALENDAR\r\n")
}

// maxLineOctets is the content line limit of RFC 5545, excluding the line break.
const maxLineOctets = 75

// foldLine splits line into chunks of at most 75 octets, each continuation
// starting with a single space. UTF-8 sequences are never split.
func foldLine(line string) string {
	var b strings.Builder
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		// The leading space counts towards the limit.
		limit = maxLineOctets - 1
	}
	b.WriteString(line)
	return b.String()
}

var textEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`, "\r", `\n`)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
