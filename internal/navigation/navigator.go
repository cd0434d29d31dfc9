package navigation

import (
	"context"
	"strings"

	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/filters"
	"github.com/goliatone/go-openagenda/internal/logging"
	"github.com/goliatone/go-openagenda/internal/remote"
	"github.com/goliatone/go-openagenda/pkg/interfaces"
	slug "github.com/goliatone/go-slug"
)

// Request names the event to resolve.
type Request struct {
	AgendaUID       string
	Slug            string
	Context         *Context
	LongDescription remote.LongDescriptionFormat
	// Sort must match the listing that produced Context so the window holds
	// the same neighbours.
	Sort remote.Sort
}

// Resolution is a resolved event with its neighbours inside the context
// window. Neighbours are nil at either end of the list or when the event was
// found by direct lookup.
type Resolution struct {
	Event       *domain.Event
	Previous    *domain.Event
	Next        *domain.Event
	FromContext bool
}

// NavigatorOption configures a Navigator.
type NavigatorOption func(*Navigator)

// WithNavigatorLogger sets the logger used to trace fallbacks.
func WithNavigatorLogger(logger interfaces.Logger) NavigatorOption {
	return func(n *Navigator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// Navigator resolves single events for detail pages.
type Navigator struct {
	client remote.Client
	logger interfaces.Logger
}

// NewNavigator builds a navigator over the remote client.
func NewNavigator(client remote.Client, opts ...NavigatorOption) *Navigator {
	n := &Navigator{client: client, logger: logging.NoOp()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ResolveEvent finds the event for req.Slug. With a context it first fetches
// the window around Context.Index and accepts it only when the middle event
// carries the requested slug; otherwise it falls back to a lookup by slug.
// The neighbour slugs are attached to the returned event.
func (n *Navigator) ResolveEvent(ctx context.Context, req Request) (*Resolution, error) {
	requested := NormalizeSlug(req.Slug)
	if requested == "" {
		return nil, ErrSlugRequired
	}
	logger := logging.WithAgenda(n.logger.WithContext(ctx), "", req.AgendaUID)

	if req.Context != nil {
		resolution, err := n.fromWindow(ctx, req, requested)
		if err != nil {
			return nil, err
		}
		if resolution != nil {
			return resolution, nil
		}
		logger.Debug("navigation.context.discarded", "slug", requested, "index", req.Context.Index)
	}

	result, err := n.client.FetchEvents(ctx, req.AgendaUID, remote.Params{
		Filters:         filters.Set{filters.SlugKey: filters.Single(requested)},
		Size:            1,
		LongDescription: req.LongDescription,
	})
	if err != nil {
		return nil, err
	}
	if len(result.Events) == 0 {
		return nil, &NotFoundError{Resource: "event", Key: requested}
	}
	return &Resolution{Event: result.Events[0]}, nil
}

func (n *Navigator) fromWindow(ctx context.Context, req Request, requested string) (*Resolution, error) {
	index := req.Context.Index
	params := remote.Params{
		Filters:         req.Context.Filters.Clone(),
		From:            index - 1,
		Size:            3,
		Sort:            req.Sort,
		LongDescription: req.LongDescription,
	}
	if index == 0 {
		params.From = 0
		params.Size = 2
	}

	result, err := n.client.FetchEvents(ctx, req.AgendaUID, params)
	if err != nil {
		return nil, err
	}

	events := result.Events
	var previous *domain.Event
	if index > 0 {
		if len(events) < 2 {
			return nil, nil
		}
		previous, events = events[0], events[1:]
	}
	if len(events) == 0 || NormalizeSlug(events[0].Slug) != requested {
		return nil, nil
	}

	resolution := &Resolution{Event: events[0], Previous: previous, FromContext: true}
	if len(events) > 1 {
		resolution.Next = events[1]
	}
	if resolution.Previous != nil {
		resolution.Event.PreviousEventSlug = resolution.Previous.Slug
	}
	if resolution.Next != nil {
		resolution.Event.NextEventSlug = resolution.Next.Slug
	}
	return resolution, nil
}

// NormalizeSlug canonicalises a slug for lookups and comparison. Values the
// slug normalizer rejects are only trimmed and lowercased.
func NormalizeSlug(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if normalized, err := slug.Normalize(value); err == nil && normalized != "" {
		return normalized
	}
	return strings.ToLower(value)
}
