package agendascmd

import (
	"errors"

	"github.com/goliatone/go-openagenda/internal/commands"
	"github.com/goliatone/go-openagenda/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the agenda command handlers.
type HandlerSet struct {
	Invalidate *InvalidateAgendaCacheHandler
	Warm       *WarmAgendaHandler
}

// RegisterAgendaCommands builds the agenda command handlers and registers
// them with reg when non-nil.
func RegisterAgendaCommands(reg CommandRegistry, cache CacheInvalidator, store AgendaLookup, builder PageBuilder, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if cache == nil || store == nil || builder == nil {
		return nil, errors.New("agenda command registration: dependencies are required")
	}

	logger := commands.CommandLogger(provider, "agendas")
	set := &HandlerSet{
		Invalidate: NewInvalidateAgendaCacheHandler(cache, logger),
		Warm:       NewWarmAgendaHandler(store, builder, logger),
	}

	if reg != nil {
		if err := reg.RegisterCommand(set.Invalidate); err != nil {
			return nil, err
		}
		if err := reg.RegisterCommand(set.Warm); err != nil {
			return nil, err
		}
	}
	return set, nil
}
