package navigation

import (
	"context"
	"net/url"
	"time"

	"github.com/goliatone/go-openagenda/internal/agendas"
	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/i18n"
	"github.com/goliatone/go-openagenda/internal/timetable"
)

// EventPage is everything a detail page renders.
type EventPage struct {
	Event         *domain.Event     `json:"event"`
	Language      string            `json:"language"`
	Timetable     []timetable.Month `json:"timetable"`
	RelativeLabel string            `json:"relative_label"`
	Context       *Context          `json:"context,omitempty"`
	PreviousURL   string            `json:"previous_url,omitempty"`
	NextURL       string            `json:"next_url,omitempty"`
	MapEnabled    bool              `json:"map_enabled"`
}

// ServiceOption configures the detail page service.
type ServiceOption func(*Service)

// WithClock overrides the clock used for relative labels.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithTimezone sets the fallback timezone for timetables.
func WithTimezone(name string) ServiceOption {
	return func(s *Service) {
		s.timezone = name
	}
}

// WithContextParams overrides the query parameters read for tokens.
func WithContextParams(params ...string) ServiceOption {
	return func(s *Service) {
		if len(params) > 0 {
			s.contextParams = params
		}
	}
}

// Service assembles event detail pages.
type Service struct {
	navigator     *Navigator
	resolver      *i18n.Resolver
	urls          *URLBuilder
	now           func() time.Time
	timezone      string
	contextParams []string
}

// NewService wires the detail page service.
func NewService(navigator *Navigator, resolver *i18n.Resolver, urls *URLBuilder, opts ...ServiceOption) *Service {
	if urls == nil {
		urls = NewURLBuilder(URLBuilderOptions{})
	}
	s := &Service{
		navigator:     navigator,
		resolver:      resolver,
		urls:          urls,
		now:           time.Now,
		timezone:      timetable.DefaultTimezone,
		contextParams: DefaultContextParams,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EventPage resolves the event named by slug for agenda, using the navigation
// token found in query when present. baseURL is the canonical agenda page
// URL. It returns an error matching ErrEventNotFound when nothing resolves.
func (s *Service) EventPage(ctx context.Context, agenda *agendas.Agenda, eventSlug string, query url.Values, baseURL string) (*EventPage, error) {
	if agenda == nil {
		return nil, &NotFoundError{Resource: "agenda"}
	}

	req := Request{
		AgendaUID:       agenda.UID,
		Slug:            eventSlug,
		LongDescription: agenda.LongDescriptionFormat(),
		Sort:            agenda.Sort,
	}
	if navContext, ok := ContextFromQuery(query, s.contextParams...); ok {
		req.Context = &navContext
	}

	resolution, err := s.navigator.ResolveEvent(ctx, req)
	if err != nil {
		return nil, err
	}

	event := resolution.Event
	event.BaseURL = baseURL
	if err := s.resolver.Localize(ctx, event, agenda.ContentLanguage()); err != nil {
		return nil, err
	}
	lang := event.Localized

	page := &EventPage{
		Event:         event,
		Language:      lang,
		Timetable:     timetable.Build(event, timetable.Options{Timezone: s.timezone, Language: lang}),
		RelativeLabel: timetable.RelativeLabel(event, s.now(), lang),
		MapEnabled:    event.Location.HasCoordinates(),
	}

	if resolution.FromContext && req.Context != nil {
		page.Context = req.Context
		if event.PreviousEventSlug != "" {
			page.PreviousURL = s.neighbourURL(agenda.Key, event.PreviousEventSlug, *req.Context, -1)
		}
		if event.NextEventSlug != "" {
			page.NextURL = s.neighbourURL(agenda.Key, event.NextEventSlug, *req.Context, 1)
		}
	}
	return page, nil
}

func (s *Service) neighbourURL(agendaKey, eventSlug string, current Context, offset int) string {
	next := Context{
		Index:   current.Index + offset,
		Total:   current.Total,
		Filters: current.Filters,
	}
	return s.urls.EventURL(agendaKey, eventSlug, EncodeContext(next))
}
