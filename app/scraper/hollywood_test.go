package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdxscreens/marquee/app/config"
)

func TestHollywoodFetchShowings(t *testing.T) {
	var gotPath, gotStart, gotEnd string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStart = r.URL.Query().Get("start")
		gotEnd = r.URL.Query().Get("end")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"title": "Oppenheimer", "start": "2026-08-23T19:00:00", "url": "https://hollywoodtheatre.org/events/oppenheimer/"},
			{"title": "  ", "start": "2026-08-23T21:00:00", "url": ""},
			{"title": "Alien", "start": "2026-08-24T21:30:00", "url": ""}
		]`))
	}))
	t.Cleanup(server.Close)

	adapter := NewHollywood(config.Theater{ID: "hollywood", URL: server.URL + "/"})
	showings, err := adapter.FetchShowings(context.Background(), windowStart, 7)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if gotPath != "/wp-json/gecko-theme/v1/calendar-events" {
		t.Errorf("Unexpected calendar path: %s", gotPath)
	}
	if gotStart != "2026-08-23" || gotEnd != "2026-08-30" {
		t.Errorf("Expected window params 2026-08-23..2026-08-30, got: %s..%s", gotStart, gotEnd)
	}

	// The blank-title event is dropped.
	if len(showings) != 2 {
		t.Fatalf("Expected 2 showings, got: %d", len(showings))
	}
	if showings[0].RawTitle != "Oppenheimer" || showings[0].RawDatetime != "2026-08-23T19:00:00" {
		t.Errorf("Unexpected first showing: %+v", showings[0])
	}
	if showings[0].RawURL != "https://hollywoodtheatre.org/events/oppenheimer/" {
		t.Errorf("Expected event URL to be kept, got: %q", showings[0].RawURL)
	}
	if showings[1].RawURL == "" {
		t.Error("Expected missing event URL to fall back to the theater URL")
	}
}

func TestHollywoodHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	adapter := NewHollywood(config.Theater{ID: "hollywood", URL: server.URL})
	_, err := adapter.FetchShowings(context.Background(), windowStart, 7)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("Expected ErrSourceUnavailable, got: %v", err)
	}
}

func TestHollywoodEmptyCalendar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	adapter := NewHollywood(config.Theater{ID: "hollywood", URL: server.URL})
	showings, err := adapter.FetchShowings(context.Background(), windowStart, 7)
	if err != nil {
		t.Fatalf("Expected no error for an empty calendar, got: %v", err)
	}
	if len(showings) != 0 {
		t.Errorf("Expected zero showings, got: %d", len(showings))
	}
}
