package listing

import (
	"context"

	"github.com/goliatone/go-openagenda/internal/agendas"
	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/filters"
	"github.com/goliatone/go-openagenda/internal/remote"
)

// Preview is a short list of events shown outside the agenda page.
type Preview struct {
	AgendaKey string          `json:"agenda"`
	Events    []*domain.Event `json:"events"`
	Items     []Item          `json:"items"`
	Total     int             `json:"total"`
	NotFound  bool            `json:"not_found"`
	Language  string          `json:"language"`
}

// BuildPreview fetches the first events of an agenda following its preview
// order. Agenda pre-filters and the current toggle apply as defaults.
func (b *Builder) BuildPreview(ctx context.Context, agenda *agendas.Agenda) (*Preview, error) {
	if agenda == nil {
		return nil, ErrAgendaRequired
	}

	request := filters.Set{}
	switch agenda.PreviewOrder {
	case agendas.PreviewOrderFeatured:
		request.Put(filters.FeaturedKey, filters.Single("1"))
	case agendas.PreviewOrderCustomFilter:
		custom, err := filters.ParseQuery(agenda.PreviewFilter)
		if err != nil {
			return nil, err
		}
		request = custom
	}

	composed := filters.Compose(request, agenda.PreFilters(), filters.Options{Current: agenda.Current})
	result, err := b.client.FetchEvents(ctx, agenda.UID, remote.Params{
		Filters:         composed,
		Size:            remoteSize(max(agenda.PreviewLimit(b.previewSize), 0)),
		Sort:            agenda.Sort,
		LongDescription: agenda.LongDescriptionFormat(),
	})
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		AgendaKey: agenda.Key,
		Events:    []*domain.Event{},
		Items:     []Item{},
		NotFound:  result.NotFound,
		Language:  b.resolver.PreferredLanguage(ctx, agenda.ContentLanguage()),
	}
	if result.NotFound {
		return preview, nil
	}
	if err := b.localize(ctx, agenda, result.Events); err != nil {
		return nil, err
	}
	preview.Events = result.Events
	preview.Total = result.Total
	preview.Items = b.items(agenda.Key, result.Events, 0, result.Total, composed)
	return preview, nil
}
