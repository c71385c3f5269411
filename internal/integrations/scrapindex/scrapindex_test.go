package scrapindex

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rates>
	<material name="mixed"><rate>12.50</rate></material>
	<material name="paper"><rate>8.00</rate></material>
	<material name="metal"><rate>42.75</rate></material>
</rates>`

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newFeedClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, testLogger())
}

func TestRatePerKg(t *testing.T) {
	c := newFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/xml" {
			t.Errorf("Accept header = %q", got)
		}
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, sampleFeed)
	})

	rate, err := c.RatePerKg(context.Background(), "mixed")
	if err != nil {
		t.Fatalf("RatePerKg: %v", err)
	}
	if rate != 12.50 {
		t.Errorf("rate = %v, want 12.50", rate)
	}
}

func TestRatePerKgUnknownMaterial(t *testing.T) {
	c := newFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sampleFeed)
	})

	if _, err := c.RatePerKg(context.Background(), "glass"); err == nil {
		t.Error("expected an error for a material the feed does not list")
	}
}

func TestRatePerKgBadXML(t *testing.T) {
	c := newFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"rates":{"mixed":12.5}}`)
	})

	if _, err := c.RatePerKg(context.Background(), "mixed"); err == nil {
		t.Error("expected an error for a non-XML body")
	}
}

func TestRatePerKgServerError(t *testing.T) {
	c := newFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := c.RatePerKg(context.Background(), "mixed"); err == nil {
		t.Error("expected an error for a non-200 status")
	}
}

func TestParseXMLResponseMalformedRate(t *testing.T) {
	c := NewClient("http://unused", testLogger())
	feed := `<rates><material name="mixed"><rate>n/a</rate></material></rates>`
	if _, err := c.parseXMLResponse([]byte(feed), "mixed"); err == nil {
		t.Error("expected an error for a non-numeric rate")
	}
}
