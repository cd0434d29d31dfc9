package openagenda

import (
	"context"
	"net/http"

	"github.com/goliatone/go-openagenda/internal/agendas"
	agendascmd "github.com/goliatone/go-openagenda/internal/commands/agendas"
	"github.com/goliatone/go-openagenda/internal/di"
	"github.com/goliatone/go-openagenda/internal/filtersync"
	"github.com/goliatone/go-openagenda/internal/i18n"
	"github.com/goliatone/go-openagenda/internal/listing"
	"github.com/goliatone/go-openagenda/internal/logging"
	"github.com/goliatone/go-openagenda/internal/navigation"
	"github.com/goliatone/go-openagenda/internal/remote"
)

// AgendaService exports the agenda record service contract.
type AgendaService = agendas.Service

// Agenda exports the agenda configuration record.
type Agenda = agendas.Agenda

// CreateAgendaRequest exports the agenda creation payload.
type CreateAgendaRequest = agendas.CreateAgendaRequest

// UpdateAgendaRequest exports the agenda update payload.
type UpdateAgendaRequest = agendas.UpdateAgendaRequest

// RemoteClient exports the remote agenda client contract.
type RemoteClient = remote.Client

// ListingBuilder builds agenda pages and previews.
type ListingBuilder = *listing.Builder

// EventService resolves event detail views.
type EventService = *navigation.Service

// SyncTransport and SyncView are the collaborators of a filter sync controller.
type (
	SyncTransport = filtersync.Transport
	SyncView      = filtersync.View
)

// Module is the top level OpenAgenda runtime facade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Agendas returns the agenda record service.
func (m *Module) Agendas() AgendaService {
	return m.container.AgendaService()
}

// Remote returns the cached remote client.
func (m *Module) Remote() RemoteClient {
	return m.container.RemoteClient()
}

// Localization returns the localization resolver.
func (m *Module) Localization() *i18n.Resolver {
	return m.container.Resolver()
}

// Listing returns the agenda page builder.
func (m *Module) Listing() ListingBuilder {
	return m.container.ListingBuilder()
}

// Events returns the event detail service.
func (m *Module) Events() EventService {
	return m.container.EventService()
}

// Commands returns the agenda command handlers, nil unless commands are enabled.
func (m *Module) Commands() *agendascmd.HandlerSet {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Commands()
}

// Register mounts the public endpoints on mux. A disabled module mounts nothing.
func (m *Module) Register(mux *http.ServeMux) {
	if !m.container.Config.Enabled {
		return
	}
	m.container.AgendaAPI().Register(mux)
}

// Handler returns a mux serving only the module endpoints.
func (m *Module) Handler() http.Handler {
	mux := http.NewServeMux()
	m.Register(mux)
	return mux
}

// AgendaURL returns the public page URL of an agenda.
func (m *Module) AgendaURL(agendaKey string) string {
	return m.container.AgendaAPI().AgendaURL(agendaKey)
}

// SyncController returns a filter sync controller bound to the stored agenda
// identified by agendaKey.
func (m *Module) SyncController(ctx context.Context, agendaKey string, transport SyncTransport, view SyncView) (*filtersync.Controller, error) {
	agenda, err := m.container.AgendaService().GetByKey(ctx, agendaKey)
	if err != nil {
		return nil, err
	}
	cfg := m.container.Config.Sync
	logger := logging.WithAgenda(logging.SyncLogger(m.container.LoggerProvider()), agenda.Key, agenda.UID)
	return filtersync.NewController(transport, view, filtersync.Config{
		PreFilters:      agenda.PreFilters(),
		Current:         agenda.Current,
		Debounce:        cfg.Debounce,
		ContentSelector: cfg.ContentSelector,
		Logger:          logger,
	}), nil
}

// Start launches scheduled jobs.
func (m *Module) Start() error {
	return m.container.Start()
}

// Close stops scheduled jobs and releases resources.
func (m *Module) Close(ctx context.Context) error {
	return m.container.Close(ctx)
}
