package openagenda_test

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	openagenda "github.com/goliatone/go-openagenda"
	"github.com/goliatone/go-openagenda/internal/di"
	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/filters"
	"github.com/goliatone/go-openagenda/internal/remote"
)

type stubFetcher struct{}

func (stubFetcher) Events(_ context.Context, _ string, params remote.Params) (*domain.EventsResult, error) {
	return &domain.EventsResult{
		Total:  2,
		Events: []*domain.Event{{Slug: "opening-night"}, {Slug: "jazz-brunch"}},
	}, nil
}

func (stubFetcher) Settings(context.Context, string) (*domain.AgendaSettings, error) {
	return &domain.AgendaSettings{}, nil
}

type stubTransport struct{}

func (stubTransport) Fragment(context.Context, url.Values) (string, error) {
	return `<div id="oa-wrapper"></div>`, nil
}

func (stubTransport) Aggregations(context.Context, url.Values) (*domain.EventsResult, error) {
	return &domain.EventsResult{Total: 2}, nil
}

type recordingView struct {
	mu      sync.Mutex
	content []string
	history []url.Values
}

func (v *recordingView) ShowBusy() {}

func (v *recordingView) ReplaceContent(html string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.content = append(v.content, html)
}

func (v *recordingView) UpdateWidgets(filters.Set, *domain.EventsResult) {}

func (v *recordingView) ReplaceHistory(query url.Values) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.history = append(v.history, query)
}

func (v *recordingView) ScrollIntoView(string) {}

func newModule(t *testing.T) *openagenda.Module {
	t.Helper()

	module, err := openagenda.New(openagenda.DefaultConfig(), di.WithFetcher(stubFetcher{}))
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	_, err = module.Agendas().Create(context.Background(), openagenda.CreateAgendaRequest{
		Key:              "city",
		UID:              "12345",
		EventsPerPage:    10,
		GeneralPreFilter: "thematique=music",
	})
	if err != nil {
		t.Fatalf("create agenda: %v", err)
	}
	return module
}

func TestModuleServesAgendaPage(t *testing.T) {
	module := newModule(t)

	server := httptest.NewServer(module.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + module.AgendaURL("city"))
	if err != nil {
		t.Fatalf("get agenda page: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var page struct {
		Agenda string `json:"agenda"`
		Total  int    `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Agenda != "city" || page.Total != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestModuleSyncControllerCarriesAgendaPreFilters(t *testing.T) {
	ctx := context.Background()
	module := newModule(t)

	view := &recordingView{}
	ctrl, err := module.SyncController(ctx, "city", stubTransport{}, view)
	if err != nil {
		t.Fatalf("sync controller: %v", err)
	}
	defer ctrl.Close()

	if err := ctrl.Load(ctx, filters.Set{"thematique": filters.Single("theatre")}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ctrl.Values().HasRoot("thematique") {
		t.Fatalf("expected pre-filter in controller values, got %v", ctrl.Values())
	}
	if got := ctrl.Query().Get("thematique"); got != "music" {
		t.Fatalf("expected editor pre-filter to win, got %q", got)
	}
	if len(view.content) != 1 {
		t.Fatalf("expected one content replacement, got %d", len(view.content))
	}
}

func TestModuleSyncControllerUnknownAgenda(t *testing.T) {
	module := newModule(t)

	if _, err := module.SyncController(context.Background(), "missing", stubTransport{}, &recordingView{}); err == nil {
		t.Fatalf("expected error for unknown agenda")
	}
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(openagenda.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected up and down migrations, got %d", len(entries))
	}
}

func TestDisabledModuleMountsNothing(t *testing.T) {
	cfg := openagenda.DefaultConfig()
	cfg.Enabled = false
	module, err := openagenda.New(cfg, di.WithFetcher(stubFetcher{}))
	if err != nil {
		t.Fatalf("new module: %v", err)
	}

	rec := httptest.NewRecorder()
	module.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openagenda/city", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from disabled module, got %d", rec.Code)
	}
}
