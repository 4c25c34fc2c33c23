package caldav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"sheetcal/internal/ics"
	"sheetcal/internal/models"
	"strings"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

// ErrPublish is returned when events could not be uploaded.
var ErrPublish = errors.New("failed to publish events")

// basicAuthTransport handles adding Basic Auth and custom headers to requests.
type basicAuthTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Username != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}
	req.Header.Set("User-Agent", "sheetcal/1.0")
	return t.Transport.RoundTrip(req)
}

// Publisher uploads events to a calendar collection on a CalDAV server.
type Publisher struct {
	client       *caldav.Client
	logger       *slog.Logger
	calendarPath string
	dryRun       bool
}

// NewPublisher connects to the CalDAV server at endpoint and looks up the
// calendar called calendarName.
func NewPublisher(ctx context.Context, logger *slog.Logger, endpoint, username, password, calendarName string, dryRun bool) (*Publisher, error) {
	httpClient := &http.Client{Transport: &basicAuthTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}}

	client, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	p := &Publisher{client: client, logger: logger, dryRun: dryRun}

	logger.Info("Finding CalDAV calendar", "calendarName", calendarName)
	calendarPath, err := p.findCalendar(ctx, calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	p.calendarPath = calendarPath
	logger.Info("Successfully found CalDAV calendar", "path", calendarPath)

	return p, nil
}

// Publish stores every event as its own calendar object. All objects are
// built before anything is uploaded, and the first failed upload stops the run.
func (p *Publisher) Publish(ctx context.Context, serializer *ics.Serializer, events []models.Event) error {
	objects := make(map[string]*ical.Calendar, len(events))
	paths := make([]string, 0, len(events))
	for _, e := range events {
		cal, err := serializer.EventCalendar(e)
		if err != nil {
			return err
		}
		objPath := path.Join(p.calendarPath, ics.UID(e)+".ics")
		objects[objPath] = cal
		paths = append(paths, objPath)
	}

	for i, objPath := range paths {
		if p.dryRun {
			p.logger.Info("[DRY RUN] Would upload event", "title", events[i].Name, "path", objPath)
			continue
		}
		if _, err := p.client.PutCalendarObject(ctx, objPath, objects[objPath]); err != nil {
			return fmt.Errorf("%w: row %d (%s): %w", ErrPublish, events[i].Row, events[i].Name, err)
		}
		p.logger.Debug("Uploaded event", "title", events[i].Name, "path", objPath)
	}

	p.logger.Info("Published events", "count", len(events), "dryRun", p.dryRun)
	return nil
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (p *Publisher) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := p.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := p.client.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := p.client.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return strings.TrimSuffix(cal.Path, "/"), nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
