package listing

import (
	"context"

	"github.com/goliatone/go-openagenda/internal/agendas"
	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/filters"
	"github.com/goliatone/go-openagenda/internal/remote"
)

// Aggregations answers the filter widgets: the composed filters with a zero
// page size, so the remote only returns totals and aggregation counts.
func (b *Builder) Aggregations(ctx context.Context, agenda *agendas.Agenda, request filters.Set) (*domain.EventsResult, error) {
	if agenda == nil {
		return nil, ErrAgendaRequired
	}
	composed := filters.Compose(request, agenda.PreFilters(), filters.Options{Current: agenda.Current})
	result, err := b.client.FetchEvents(ctx, agenda.UID, remote.Params{
		Filters:         composed,
		Size:            0,
		LongDescription: agenda.LongDescriptionFormat(),
	})
	if err != nil {
		return nil, err
	}
	if len(result.Filters) == 0 {
		result.Filters = composed
	}
	return result, nil
}

// WidgetSettings drives which filter widgets an agenda page shows.
type WidgetSettings struct {
	AgendaKey           string `json:"agenda"`
	Title               string `json:"title,omitempty"`
	TagGroups           int    `json:"tag_groups"`
	HideAdditionalField bool   `json:"hide_additional_field"`
	NotFound            bool   `json:"not_found"`
}

// Widgets reads the remote agenda settings and derives widget settings.
func (b *Builder) Widgets(ctx context.Context, agenda *agendas.Agenda) (*WidgetSettings, error) {
	if agenda == nil {
		return nil, ErrAgendaRequired
	}
	settings, err := b.client.FetchAgendaSettings(ctx, agenda.UID)
	if err != nil {
		return nil, err
	}
	return &WidgetSettings{
		AgendaKey:           agenda.Key,
		Title:               settings.Title,
		TagGroups:           settings.PublicTagGroupCount(),
		HideAdditionalField: agenda.HidesAdditionalFieldFilter(),
		NotFound:            settings.NotFound,
	}, nil
}

// Marker is an event placed on the map.
type Marker struct {
	UID       domain.ID `json:"uid"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// MapMarkers keeps the events that carry venue coordinates.
func MapMarkers(events []*domain.Event) []Marker {
	markers := make([]Marker, 0, len(events))
	for _, event := range events {
		if event == nil || !event.Location.HasCoordinates() {
			continue
		}
		markers = append(markers, Marker{
			UID:       event.UID,
			Slug:      event.Slug,
			Title:     event.Title.String(),
			Latitude:  *event.Location.Latitude,
			Longitude: *event.Location.Longitude,
		})
	}
	return markers
}
