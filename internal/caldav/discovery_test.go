package caldav

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multistatusHeader = `<?xml version="1.0" encoding="utf-8"?>
<D:multistatus xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">`

func propResponse(href, props string) string {
	return `<D:response><D:href>` + href + `</D:href><D:propstat><D:prop>` + props +
		`</D:prop><D:status>HTTP/1.1 200 OK</D:status></D:propstat></D:response>`
}

// discoveryServer answers the three PROPFIND steps of calendar discovery for user alice.
func discoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PROPFIND" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "alice" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.Copy(io.Discard, r.Body)

		var body string
		switch r.URL.Path {
		case "/":
			body = propResponse("/", `<D:current-user-principal><D:href>/principals/alice/</D:href></D:current-user-principal>`)
		case "/principals/alice/":
			body = propResponse("/principals/alice/", `<C:calendar-home-set><D:href>/calendars/alice/</D:href></C:calendar-home-set>`)
		case "/calendars/alice/":
			body = propResponse("/calendars/alice/", `<D:resourcetype><D:collection/></D:resourcetype><D:displayname>alice</D:displayname>`) +
				propResponse("/calendars/alice/work/", `<D:resourcetype><D:collection/><C:calendar/></D:resourcetype><D:displayname>Work</D:displayname>`) +
				propResponse("/calendars/alice/acm/", `<D:resourcetype><D:collection/><C:calendar/></D:resourcetype><D:displayname>ACM Events</D:displayname>`)
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = io.WriteString(w, multistatusHeader+body+`</D:multistatus>`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewPublisherFindsCalendar(t *testing.T) {
	srv := discoveryServer(t)

	p, err := NewPublisher(context.Background(), discardLogger(), srv.URL+"/", "alice", "secret", "ACM Events", false)
	require.NoError(t, err)
	assert.Equal(t, "/calendars/alice/acm", p.calendarPath)
	assert.False(t, p.dryRun)
}

func TestNewPublisherUnknownCalendar(t *testing.T) {
	srv := discoveryServer(t)

	_, err := NewPublisher(context.Background(), discardLogger(), srv.URL+"/", "alice", "secret", "Personal", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no calendar found with name 'Personal'")
}

func TestNewPublisherPropfindFailure(t *testing.T) {
	srv := discoveryServer(t)

	_, err := NewPublisher(context.Background(), discardLogger(), srv.URL+"/", "alice", "wrong", "ACM Events", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to find principal path")

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/principals/") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = io.WriteString(w, multistatusHeader+
			propResponse("/", `<D:current-user-principal><D:href>/principals/alice/</D:href></D:current-user-principal>`)+
			`</D:multistatus>`)
	}))
	t.Cleanup(broken.Close)

	_, err = NewPublisher(context.Background(), discardLogger(), broken.URL+"/", "alice", "secret", "ACM Events", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to find calendar home set")
}
