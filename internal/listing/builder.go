package listing

import (
	"context"
	"errors"

	"github.com/goliatone/go-openagenda/internal/agendas"
	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/filters"
	"github.com/goliatone/go-openagenda/internal/i18n"
	"github.com/goliatone/go-openagenda/internal/logging"
	"github.com/goliatone/go-openagenda/internal/navigation"
	"github.com/goliatone/go-openagenda/internal/remote"
	"github.com/goliatone/go-openagenda/pkg/interfaces"
)

// ErrAgendaRequired is returned when a build names no agenda.
var ErrAgendaRequired = errors.New("listing: agenda required")

const (
	defaultColumns     = 3
	defaultPreviewSize = 3
	// maxRecoveries bounds the page-beyond-results correction.
	maxRecoveries = 1
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the builder logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithColumns sets the grid width reported on pages.
func WithColumns(columns int) Option {
	return func(b *Builder) {
		if columns > 0 {
			b.columns = columns
		}
	}
}

// WithPreviewSize sets the preview size used when an agenda sets none.
func WithPreviewSize(size int) Option {
	return func(b *Builder) {
		if size >= 0 {
			b.previewSize = size
		}
	}
}

// WithURLBuilder sets the builder used for event links.
func WithURLBuilder(urls *navigation.URLBuilder) Option {
	return func(b *Builder) {
		if urls != nil {
			b.urls = urls
		}
	}
}

// Builder turns agenda configuration and request filters into localized
// pages of events.
type Builder struct {
	client      remote.Client
	resolver    *i18n.Resolver
	urls        *navigation.URLBuilder
	logger      interfaces.Logger
	columns     int
	previewSize int
}

// NewBuilder wires a builder.
func NewBuilder(client remote.Client, resolver *i18n.Resolver, opts ...Option) *Builder {
	b := &Builder{
		client:      client,
		resolver:    resolver,
		urls:        navigation.NewURLBuilder(navigation.URLBuilderOptions{}),
		logger:      logging.NoOp(),
		columns:     defaultColumns,
		previewSize: defaultPreviewSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// PageRequest locates the page to build. Offset, when set, wins over Page.
type PageRequest struct {
	Page        int
	Offset      *int
	InitialLoad bool
}

// Item is an event with its detail link. The link carries the navigation
// context of the event's position in this result.
type Item struct {
	Event *domain.Event `json:"event"`
	Index int           `json:"index"`
	URL   string        `json:"url"`
}

// Pager describes page links. Current is zero-based.
type Pager struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	Size    int `json:"size"`
}

// Page is one rendered page of an agenda.
type Page struct {
	AgendaKey string          `json:"agenda"`
	Events    []*domain.Event `json:"events"`
	Items     []Item          `json:"items"`
	Total     int             `json:"total"`
	From      int             `json:"from"`
	Size      int             `json:"size"`
	Filters   filters.Set     `json:"filters"`
	NotFound  bool            `json:"not_found"`
	Degraded  bool            `json:"degraded"`
	Language  string          `json:"language"`
	Columns   int             `json:"columns"`
	Pager     *Pager          `json:"pager,omitempty"`
}

// BuildPage composes the filters, fetches the page and localizes it. A page
// requested beyond the results is moved to the last page once. A missing
// agenda yields a NotFound page, not an error.
func (b *Builder) BuildPage(ctx context.Context, agenda *agendas.Agenda, request filters.Set, req PageRequest) (*Page, error) {
	if agenda == nil {
		return nil, ErrAgendaRequired
	}
	logger := logging.WithAgenda(b.logger.WithContext(ctx), agenda.Key, agenda.UID)

	size := max(agenda.EventsPerPage, 0)
	from := max(req.Page, 0) * size
	if req.Offset != nil {
		from = max(*req.Offset, 0)
	}

	composed := filters.Compose(request, agenda.PreFilters(), filters.Options{
		InitialLoad: req.InitialLoad,
		Current:     agenda.Current,
	})
	params := remote.Params{
		Filters:         composed,
		From:            from,
		Size:            remoteSize(size),
		Sort:            agenda.Sort,
		LongDescription: agenda.LongDescriptionFormat(),
	}

	var result *domain.EventsResult
	for attempt := 0; ; attempt++ {
		var err error
		result, err = b.client.FetchEvents(ctx, agenda.UID, params)
		if err != nil {
			return nil, err
		}
		if result.NotFound || attempt >= maxRecoveries || !beyondResults(params.From, result.Total, size) {
			break
		}
		recovered := LastPageOffset(result.Total, size)
		logger.Debug("listing.page.recovered", "from", params.From, "total", result.Total, "recovered_from", recovered)
		params.From = recovered
	}

	page := &Page{
		AgendaKey: agenda.Key,
		Events:    []*domain.Event{},
		Items:     []Item{},
		Total:     result.Total,
		From:      params.From,
		Size:      size,
		Filters:   composed,
		NotFound:  result.NotFound,
		Degraded:  result.Degraded,
		Language:  b.resolver.PreferredLanguage(ctx, agenda.ContentLanguage()),
		Columns:   b.columns,
	}
	if result.NotFound {
		page.Total = 0
		return page, nil
	}

	if err := b.localize(ctx, agenda, result.Events); err != nil {
		return nil, err
	}
	page.Events = result.Events
	page.Items = b.items(agenda.Key, result.Events, params.From, result.Total, composed)
	page.Pager = NewPager(params.From, size, result.Total)
	return page, nil
}

func (b *Builder) localize(ctx context.Context, agenda *agendas.Agenda, events []*domain.Event) error {
	for _, event := range events {
		if err := b.resolver.Localize(ctx, event, agenda.ContentLanguage()); err != nil && !errors.Is(err, i18n.ErrAlreadyLocalized) {
			return err
		}
	}
	return nil
}

func (b *Builder) items(agendaKey string, events []*domain.Event, from, total int, composed filters.Set) []Item {
	items := make([]Item, 0, len(events))
	for i, event := range events {
		index := from + i
		token := navigation.EncodeContext(navigation.Context{Index: index, Total: total, Filters: composed})
		items = append(items, Item{
			Event: event,
			Index: index,
			URL:   b.urls.EventURL(agendaKey, event.Slug, token),
		})
	}
	return items
}

// beyondResults reports whether from points past a non-empty result set. A
// zero total is already bounded and never triggers a recovery.
func beyondResults(from, total, size int) bool {
	return size > 0 && total > 0 && from > total
}

// LastPageOffset returns the offset of the last page holding results.
func LastPageOffset(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return ((total - 1) / size) * size
}

// NewPager returns pager metadata, or nil when there is nothing to page.
func NewPager(from, size, total int) *Pager {
	if total <= 0 || size <= 0 {
		return nil
	}
	return &Pager{
		Current: from / size,
		Pages:   (total + size - 1) / size,
		Total:   total,
		Size:    size,
	}
}

func remoteSize(size int) int {
	if size == 0 {
		return remote.Unbounded
	}
	return size
}
