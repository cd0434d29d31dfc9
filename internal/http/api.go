package http

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-openagenda/internal/agendas"
	"github.com/goliatone/go-openagenda/internal/listing"
	"github.com/goliatone/go-openagenda/internal/logging"
	"github.com/goliatone/go-openagenda/internal/navigation"
	"github.com/goliatone/go-openagenda/pkg/interfaces"
)

const defaultContentSelector = "#oa-wrapper"

// AgendaAPI registers the public agenda endpoints.
type AgendaAPI struct {
	basePath        string
	agendas         agendas.Service
	listing         *listing.Builder
	events          *navigation.Service
	renderer        interfaces.TemplateRenderer
	mapTilesURI     string
	contentSelector string
	logger          interfaces.Logger
}

// AgendaOption mutates the AgendaAPI configuration.
type AgendaOption func(*AgendaAPI)

// NewAgendaAPI constructs an AgendaAPI instance.
func NewAgendaAPI(opts ...AgendaOption) *AgendaAPI {
	api := &AgendaAPI{
		basePath:        "/openagenda",
		contentSelector: defaultContentSelector,
		logger:          logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// WithBasePath overrides the base path (defaults to "/openagenda").
func WithBasePath(path string) AgendaOption {
	return func(api *AgendaAPI) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

// WithAgendaService wires the agenda record service.
func WithAgendaService(service agendas.Service) AgendaOption {
	return func(api *AgendaAPI) {
		api.agendas = service
	}
}

// WithListing wires the page builder.
func WithListing(builder *listing.Builder) AgendaOption {
	return func(api *AgendaAPI) {
		api.listing = builder
	}
}

// WithEventService wires the event detail service.
func WithEventService(service *navigation.Service) AgendaOption {
	return func(api *AgendaAPI) {
		api.events = service
	}
}

// WithRenderer wires the template renderer used by the HTML responses.
func WithRenderer(renderer interfaces.TemplateRenderer) AgendaOption {
	return func(api *AgendaAPI) {
		api.renderer = renderer
	}
}

// WithMapTilesURI sets the tile server advertised to map widgets.
func WithMapTilesURI(uri string) AgendaOption {
	return func(api *AgendaAPI) {
		api.mapTilesURI = strings.TrimSpace(uri)
	}
}

// WithContentSelector overrides the selector targeted by AJAX replacements.
func WithContentSelector(selector string) AgendaOption {
	return func(api *AgendaAPI) {
		if trimmed := strings.TrimSpace(selector); trimmed != "" {
			api.contentSelector = trimmed
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger interfaces.Logger) AgendaOption {
	return func(api *AgendaAPI) {
		if logger != nil {
			api.logger = logger
		}
	}
}

// Register mounts the routes on mux.
func (api *AgendaAPI) Register(mux *http.ServeMux) {
	if api == nil || mux == nil {
		return
	}
	root := joinPath(api.basePath, "{agenda}")
	mux.HandleFunc("GET "+root, withRequestFields(api.handlePage))
	mux.HandleFunc("GET "+root+"/ajax", withRequestFields(api.handleAjax))
	mux.HandleFunc("GET "+root+"/filters", withRequestFields(api.handleFilters))
	mux.HandleFunc("GET "+root+"/events/{slug}", withRequestFields(api.handleEvent))
	mux.HandleFunc("GET "+root+"/preview", withRequestFields(api.handlePreview))
	mux.HandleFunc("GET "+root+"/settings", withRequestFields(api.handleSettings))
}

// withRequestFields binds the agenda key, event slug and path to the request
// context so every logger derived with WithContext carries them.
func withRequestFields(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := map[string]any{
			"agenda_key": r.PathValue("agenda"),
			"path":       r.URL.Path,
		}
		if slug := r.PathValue("slug"); slug != "" {
			fields["event_slug"] = slug
		}
		next(w, r.WithContext(logging.ContextWithFields(r.Context(), fields)))
	}
}

// AgendaURL returns the canonical page path of an agenda.
func (api *AgendaAPI) AgendaURL(agendaKey string) string {
	return joinPath(api.basePath, agendaKey)
}
