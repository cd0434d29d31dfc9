package navigation

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-openagenda/internal/agendas"
	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/filters"
	"github.com/goliatone/go-openagenda/internal/i18n"
	"github.com/goliatone/go-openagenda/internal/remote"
	urlkit "github.com/goliatone/go-urlkit"
)

func TestURLBuilderFallsBackToBasePath(t *testing.T) {
	builder := NewURLBuilder(URLBuilderOptions{BasePath: "/agenda/"})

	got := builder.EventURL("node-1", "jazz-night", "")
	if got != "/agenda/node-1/events/jazz-night" {
		t.Fatalf("unexpected url %q", got)
	}

	withToken := builder.EventURL("node-1", "jazz-night", "abc+=")
	if withToken != "/agenda/node-1/events/jazz-night?oac=abc%2B%3D" {
		t.Fatalf("unexpected url %q", withToken)
	}
}

func TestURLBuilderUsesRouteManager(t *testing.T) {
	manager := urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{
			{
				Name:    "frontend",
				BaseURL: "https://example.com",
				Paths: map[string]string{
					"event": "/agendas/:agenda/events/:slug",
				},
			},
		},
	})
	builder := NewURLBuilder(URLBuilderOptions{Manager: manager, Group: "frontend"})

	got := builder.EventURL("node-1", "jazz-night", "")
	if got != "https://example.com/agendas/node-1/events/jazz-night" {
		t.Fatalf("unexpected url %q", got)
	}

	missing := NewURLBuilder(URLBuilderOptions{Manager: manager, Group: "unknown"})
	if got := missing.EventURL("node-1", "a", ""); got != "/openagenda/node-1/events/a" {
		t.Fatalf("expected fallback for unknown group, got %q", got)
	}
}

func TestServiceEventPage(t *testing.T) {
	window := &domain.EventsResult{Total: 3, Events: []*domain.Event{
		{Slug: "a"},
		{
			Slug:     "b",
			Title:    domain.NewText(map[string]string{"en": "Concert", "fr": "Concert FR"}),
			Location: &domain.Location{Timezone: "Europe/Paris"},
			Timings:  []domain.Timing{{Begin: "2024-03-25T10:00:00+01:00", End: "2024-03-25T11:00:00+01:00"}},
		},
		{Slug: "c"},
	}}
	client := &fakeClient{respond: func(remote.Params) *domain.EventsResult { return window }}

	now := time.Date(2024, 3, 22, 10, 0, 0, 0, time.UTC)
	svc := NewService(
		NewNavigator(client),
		i18n.NewResolver(i18n.Config{DefaultLocale: "en"}),
		NewURLBuilder(URLBuilderOptions{}),
		WithClock(func() time.Time { return now }),
	)

	agenda := &agendas.Agenda{Key: "node-1", UID: "5213", Language: "default"}
	token := EncodeContext(Context{Index: 1, Total: 3, Filters: filters.Set{"search": filters.Single("jazz")}})
	page, err := svc.EventPage(context.Background(), agenda, "b", url.Values{"context": {token}}, "https://example.com/agenda")
	if err != nil {
		t.Fatalf("event page: %v", err)
	}

	if page.Event.Title.String() != "Concert" || page.Language != "en" {
		t.Fatalf("expected english localization, got %q (%s)", page.Event.Title.String(), page.Language)
	}
	if page.Event.BaseURL != "https://example.com/agenda" {
		t.Fatalf("expected base url, got %q", page.Event.BaseURL)
	}
	if len(page.Timetable) != 1 || page.RelativeLabel != "In 2 days" {
		t.Fatalf("unexpected timetable/label %+v %q", page.Timetable, page.RelativeLabel)
	}
	if page.MapEnabled {
		t.Fatalf("expected map disabled without coordinates")
	}

	prevCtx, ok := ContextFromQuery(queryOf(t, page.PreviousURL))
	if !ok || prevCtx.Index != 0 || prevCtx.Filters["search"].First() != "jazz" {
		t.Fatalf("unexpected previous url %q", page.PreviousURL)
	}
	nextCtx, ok := ContextFromQuery(queryOf(t, page.NextURL))
	if !ok || nextCtx.Index != 2 {
		t.Fatalf("unexpected next url %q", page.NextURL)
	}
	if !strings.HasPrefix(page.NextURL, "/openagenda/node-1/events/c?") {
		t.Fatalf("unexpected next url %q", page.NextURL)
	}
}

func TestServiceEventPageNotFound(t *testing.T) {
	svc := NewService(NewNavigator(&fakeClient{}), i18n.NewResolver(i18n.Config{}), nil)

	_, err := svc.EventPage(context.Background(), &agendas.Agenda{Key: "k", UID: "1"}, "gone", url.Values{}, "")
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func queryOf(t *testing.T, raw string) url.Values {
	t.Helper()
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return parsed.Query()
}
