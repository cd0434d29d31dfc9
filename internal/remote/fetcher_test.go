package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-openagenda/internal/filters"
)

const eventsFixture = `{
	"total": 12,
	"events": [
		{"uid": 101, "slug": "jazz-night", "title": {"fr": "Soirée jazz", "en": "Jazz night"},
		 "location": {"latitude": 45.76, "longitude": 4.83, "timezone": "Europe/Paris"},
		 "timings": [{"begin": "2024-03-25T10:00:00+01:00", "end": "2024-03-25T11:00:00+01:00"}],
		 "registration": [{"type": "link", "value": "https://example.org"}]}
	]
}`

func TestHTTPFetcherBuildsRemoteQuery(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(eventsFixture))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(HTTPConfig{BaseURL: server.URL + "/v2/", PublicKey: "secret"}, server.Client())
	params := Params{
		Filters:         filters.Set{filters.RelativeKey: filters.List("current", "upcoming"), "size": filters.Single("999")},
		From:            20,
		Size:            10,
		Sort:            SortTimingsAsc,
		LongDescription: FormatFor(true),
	}

	result, err := fetcher.Events(context.Background(), "5213", params)
	if err != nil {
		t.Fatalf("events: %v", err)
	}

	if gotPath != "/v2/agendas/5213/events.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	expect := map[string]string{
		"key":                   "secret",
		"detailed":              "1",
		"from":                  "20",
		"size":                  "10",
		"sort":                  "timings.asc",
		"longDescriptionFormat": "HTMLWithEmbeds",
	}
	for key, want := range expect {
		if values := gotQuery[key]; len(values) != 1 || values[0] != want {
			t.Fatalf("query %s = %v, want %q", key, values, want)
		}
	}
	if relative := gotQuery["relative[]"]; len(relative) != 2 {
		t.Fatalf("expected relative list, got %v", relative)
	}

	if result.Total != 12 || len(result.Events) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	event := result.Events[0]
	if event.UID != "101" || event.Slug != "jazz-night" {
		t.Fatalf("unexpected event %+v", event)
	}
	if !event.Location.HasCoordinates() {
		t.Fatalf("expected coordinates on detailed event")
	}
	if _, ok := event.Extra["registration"]; !ok {
		t.Fatalf("expected unknown fields to be preserved")
	}
}

func TestHTTPFetcherOmitsSizeWhenUnbounded(t *testing.T) {
	var hasSize bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasSize = r.URL.Query().Has("size")
		_, _ = w.Write([]byte(`{"total":0,"events":[]}`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(HTTPConfig{BaseURL: server.URL}, server.Client())
	if _, err := fetcher.Events(context.Background(), "1", Params{Size: Unbounded}); err != nil {
		t.Fatalf("events: %v", err)
	}
	if hasSize {
		t.Fatalf("expected size to be omitted")
	}
}

func TestHTTPFetcherReportsNotFound(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"success false": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"message":"agenda not found"}`))
		},
		"status 404": func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()

			fetcher := NewHTTPFetcher(HTTPConfig{BaseURL: server.URL}, server.Client())
			result, err := fetcher.Events(context.Background(), "404", Params{})
			if err != nil {
				t.Fatalf("events: %v", err)
			}
			if !result.NotFound || result.Total != 0 || len(result.Events) != 0 {
				t.Fatalf("expected not found result, got %+v", result)
			}

			settings, err := fetcher.Settings(context.Background(), "404")
			if err != nil {
				t.Fatalf("settings: %v", err)
			}
			if !settings.NotFound {
				t.Fatalf("expected not found settings")
			}
		})
	}
}

func TestHTTPFetcherRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"total":1,"events":[{"uid":1,"slug":"a"}]}`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(HTTPConfig{BaseURL: server.URL, RetryAttempts: 2}, server.Client())
	result, err := fetcher.Events(context.Background(), "1", Params{})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if calls.Load() != 2 || result.Total != 1 {
		t.Fatalf("expected retry to succeed, calls=%d result=%+v", calls.Load(), result)
	}
}

func TestHTTPFetcherDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(HTTPConfig{BaseURL: server.URL, RetryAttempts: 3}, server.Client())
	_, err := fetcher.Events(context.Background(), "1", Params{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestHTTPFetcherDecodesSettings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agendas/7/settings.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"uid":7,"title":"Agenda","tagSet":{"groups":[{"name":"Type","access":"public"},{"name":"Internal","access":"private"},{"name":"Public","access":"public"}]}}`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(HTTPConfig{BaseURL: server.URL}, server.Client())
	settings, err := fetcher.Settings(context.Background(), "7")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings.Title != "Agenda" || settings.PublicTagGroupCount() != 2 {
		t.Fatalf("unexpected settings %+v", settings)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := (Params{Sort: "random"}).Validate(); err == nil {
		t.Fatalf("expected invalid sort to fail")
	}
	if err := (Params{LongDescription: "Markdown"}).Validate(); err == nil {
		t.Fatalf("expected invalid format to fail")
	}
	if err := (Params{From: -1}).Validate(); err == nil {
		t.Fatalf("expected negative offset to fail")
	}
	if err := (Params{Size: Unbounded, Sort: SortUpdatedAtDesc}).Validate(); err != nil {
		t.Fatalf("expected valid params, got %v", err)
	}
}
