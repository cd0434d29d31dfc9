package navigation

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	urlkit "github.com/goliatone/go-urlkit"
)

const (
	defaultBasePath   = "/openagenda"
	defaultEventRoute = "event"
)

// URLBuilderOptions configures event URL generation.
type URLBuilderOptions struct {
	Manager      *urlkit.RouteManager
	Group        string
	Route        string
	BasePath     string
	ContextParam string
}

// URLBuilder builds event detail URLs. Routes come from a go-urlkit manager
// when one is configured; otherwise URLs are derived from the base path.
type URLBuilder struct {
	manager      *urlkit.RouteManager
	groupPath    string
	route        string
	basePath     string
	contextParam string

	mu    sync.RWMutex
	group *urlkit.Group
}

// NewURLBuilder constructs a builder.
func NewURLBuilder(opts URLBuilderOptions) *URLBuilder {
	if strings.TrimSpace(opts.Route) == "" {
		opts.Route = defaultEventRoute
	}
	if strings.TrimSpace(opts.BasePath) == "" {
		opts.BasePath = defaultBasePath
	}
	if strings.TrimSpace(opts.ContextParam) == "" {
		opts.ContextParam = DefaultContextParams[0]
	}
	return &URLBuilder{
		manager:      opts.Manager,
		groupPath:    strings.TrimSpace(opts.Group),
		route:        strings.TrimSpace(opts.Route),
		basePath:     "/" + strings.Trim(strings.TrimSpace(opts.BasePath), "/"),
		contextParam: strings.TrimSpace(opts.ContextParam),
	}
}

// ContextParam returns the query parameter carrying navigation tokens.
func (b *URLBuilder) ContextParam() string {
	return b.contextParam
}

// EventURL returns the detail URL for an event. An empty token omits the
// navigation context.
func (b *URLBuilder) EventURL(agendaKey, eventSlug, token string) string {
	if b.manager != nil && b.groupPath != "" {
		if built, err := b.build(agendaKey, eventSlug, token); err == nil && built != "" {
			return built
		}
	}

	target := fmt.Sprintf("%s/%s/events/%s", b.basePath, url.PathEscape(agendaKey), url.PathEscape(eventSlug))
	if token != "" {
		target += "?" + url.Values{b.contextParam: {token}}.Encode()
	}
	return target
}

func (b *URLBuilder) build(agendaKey, eventSlug, token string) (built string, err error) {
	group, err := b.resolveGroup()
	if err != nil {
		return "", err
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("navigation: urlkit builder panic: %v", rec)
		}
	}()

	builder := group.Builder(b.route).
		WithParam("agenda", agendaKey).
		WithParam("slug", eventSlug)
	if token != "" {
		builder.WithQuery(b.contextParam, token)
	}
	return builder.Build()
}

func (b *URLBuilder) resolveGroup() (group *urlkit.Group, err error) {
	b.mu.RLock()
	cached := b.group
	b.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			group, err = nil, fmt.Errorf("navigation: route group %q not found", b.groupPath)
		}
	}()

	parts := strings.Split(b.groupPath, ".")
	current := b.manager.Group(parts[0])
	for _, part := range parts[1:] {
		current = current.Group(part)
	}

	b.mu.Lock()
	b.group = current
	b.mu.Unlock()
	return current, nil
}
