package agendascmd

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-openagenda/internal/commands"
	"github.com/goliatone/go-openagenda/internal/logging"
	"github.com/goliatone/go-openagenda/pkg/interfaces"
)

const invalidateCacheMessageType = "openagenda.agenda.cache.invalidate"

// CacheInvalidator drops cached remote responses of one agenda.
type CacheInvalidator interface {
	Invalidate(uid string)
}

// InvalidateAgendaCacheCommand drops the cached remote responses of an agenda.
type InvalidateAgendaCacheCommand struct {
	AgendaUID string `json:"agenda_uid"`
}

// Type implements command.Message.
func (InvalidateAgendaCacheCommand) Type() string { return invalidateCacheMessageType }

// Validate ensures the agenda uid is present.
func (m InvalidateAgendaCacheCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.AgendaUID, validation.Required.
			ErrorObject(validation.NewError("openagenda.agenda.cache.invalidate.uid_required", "agenda_uid is required"))),
	)
}

// InvalidateAgendaCacheHandler wraps cache invalidation.
type InvalidateAgendaCacheHandler struct {
	inner *commands.Handler[InvalidateAgendaCacheCommand]
}

// NewInvalidateAgendaCacheHandler constructs a handler wired to the remote client cache.
func NewInvalidateAgendaCacheHandler(cache CacheInvalidator, logger interfaces.Logger, opts ...commands.HandlerOption[InvalidateAgendaCacheCommand]) *InvalidateAgendaCacheHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(_ context.Context, msg InvalidateAgendaCacheCommand) error {
		uid := strings.TrimSpace(msg.AgendaUID)
		cache.Invalidate(uid)
		logging.WithFields(baseLogger, map[string]any{
			"agenda_uid": uid,
		}).Info("agendas.command.cache.invalidated")
		return nil
	}

	handlerOpts := []commands.HandlerOption[InvalidateAgendaCacheCommand]{
		commands.WithLogger[InvalidateAgendaCacheCommand](baseLogger),
		commands.WithOperation[InvalidateAgendaCacheCommand]("agendas.cache.invalidate"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &InvalidateAgendaCacheHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[InvalidateAgendaCacheCommand].
func (h *InvalidateAgendaCacheHandler) Execute(ctx context.Context, msg InvalidateAgendaCacheCommand) error {
	return h.inner.Execute(ctx, msg)
}
