package agendascmd

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-openagenda/internal/agendas"
	"github.com/goliatone/go-openagenda/internal/commands"
	"github.com/goliatone/go-openagenda/internal/filters"
	"github.com/goliatone/go-openagenda/internal/listing"
	"github.com/goliatone/go-openagenda/internal/logging"
	"github.com/goliatone/go-openagenda/pkg/interfaces"
)

const warmAgendaMessageType = "openagenda.agenda.warm"

var ErrAgendaNotAvailable = errors.New("agendas command: remote agenda not available")

// AgendaLookup resolves agenda records by key.
type AgendaLookup interface {
	GetByKey(ctx context.Context, key string) (*agendas.Agenda, error)
}

// PageBuilder builds agenda pages.
type PageBuilder interface {
	BuildPage(ctx context.Context, agenda *agendas.Agenda, request filters.Set, req listing.PageRequest) (*listing.Page, error)
}

// WarmAgendaCommand builds the first page of an agenda so the remote cache
// holds it before visitors arrive.
type WarmAgendaCommand struct {
	AgendaKey string `json:"agenda_key"`
}

// Type implements command.Message.
func (WarmAgendaCommand) Type() string { return warmAgendaMessageType }

// Validate ensures the agenda key is present.
func (m WarmAgendaCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.AgendaKey, validation.Required.
			ErrorObject(validation.NewError("openagenda.agenda.warm.key_required", "agenda_key is required"))),
	)
}

// WarmAgendaHandler wraps agenda warm-up.
type WarmAgendaHandler struct {
	inner *commands.Handler[WarmAgendaCommand]
}

// NewWarmAgendaHandler constructs a handler wired to the agenda store and page builder.
func NewWarmAgendaHandler(store AgendaLookup, builder PageBuilder, logger interfaces.Logger, opts ...commands.HandlerOption[WarmAgendaCommand]) *WarmAgendaHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg WarmAgendaCommand) error {
		agenda, err := store.GetByKey(ctx, strings.TrimSpace(msg.AgendaKey))
		if err != nil {
			return err
		}
		page, err := builder.BuildPage(ctx, agenda, filters.Set{}, listing.PageRequest{InitialLoad: true})
		if err != nil {
			return err
		}
		logger := logging.WithAgenda(baseLogger, agenda.Key, agenda.UID)
		if page.NotFound || page.Degraded {
			logger.Warn("agendas.command.warm.unavailable", "not_found", page.NotFound, "degraded", page.Degraded)
			return ErrAgendaNotAvailable
		}
		logging.WithFields(logger, map[string]any{
			"total":  page.Total,
			"events": len(page.Events),
		}).Info("agendas.command.warm.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[WarmAgendaCommand]{
		commands.WithLogger[WarmAgendaCommand](baseLogger),
		commands.WithOperation[WarmAgendaCommand]("agendas.warm"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &WarmAgendaHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[WarmAgendaCommand].
func (h *WarmAgendaHandler) Execute(ctx context.Context, msg WarmAgendaCommand) error {
	return h.inner.Execute(ctx, msg)
}
