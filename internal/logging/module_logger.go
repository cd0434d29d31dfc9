package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-openagenda/pkg/interfaces"
)

const (
	rootModule       = "openagenda"
	remoteModule     = "openagenda.remote"
	listingModule    = "openagenda.listing"
	navigationModule = "openagenda.navigation"
	syncModule       = "openagenda.sync"
	schedulerModule  = "openagenda.scheduler"
	httpModule       = "openagenda.http"
)

const (
	fieldAgendaUID = "agenda_uid"
	fieldAgendaKey = "agenda_key"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// RemoteLogger returns the logger namespace reserved for the remote agenda client.
func RemoteLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, remoteModule)
}

// ListingLogger returns the logger namespace reserved for agenda page building.
func ListingLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, listingModule)
}

// NavigationLogger returns the logger namespace reserved for event detail resolution.
func NavigationLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, navigationModule)
}

// SyncLogger returns the logger namespace reserved for filter/pager sync controllers.
func SyncLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, syncModule)
}

// SchedulerLogger returns the logger namespace reserved for scheduled warm-ups.
func SchedulerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, schedulerModule)
}

// HTTPLogger returns the logger namespace reserved for the public endpoints.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// WithAgenda enriches the logger with the agenda identifiers. Empty values are
// ignored.
func WithAgenda(logger interfaces.Logger, key, uid string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(key); trimmed != "" {
		fields[fieldAgendaKey] = trimmed
	}
	if trimmed := strings.TrimSpace(uid); trimmed != "" {
		fields[fieldAgendaUID] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
