package domain

import (
	"slices"

	"github.com/goliatone/go-openagenda/internal/filters"
)

// EventsResult is the decoded answer of an events query.
type EventsResult struct {
	Events  []*Event    `json:"events"`
	Total   int         `json:"total"`
	Filters filters.Set `json:"filters,omitempty"`

	// NotFound is set when the remote reported the agenda as missing
	// (success: false). It is a renderable state, not an error.
	NotFound bool `json:"-"`
	// Degraded is set when the remote could not be reached and the result
	// was replaced by an empty one.
	Degraded bool `json:"-"`
}

// EmptyResult returns the shape used when nothing could be fetched.
func EmptyResult() *EventsResult {
	return &EventsResult{Events: []*Event{}}
}

// Clone copies the result and every event so callers may localize or annotate
// the copy without touching a cached original. Text values are copied by
// value; flattening a copy never alters the source.
func (r *EventsResult) Clone() *EventsResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Events = make([]*Event, 0, len(r.Events))
	for _, event := range r.Events {
		if event == nil {
			continue
		}
		copied := *event
		copied.Timings = slices.Clone(event.Timings)
		out.Events = append(out.Events, &copied)
	}
	out.Filters = r.Filters.Clone()
	return &out
}

// AgendaSettings carries the parts of the remote agenda settings the
// integration relies on.
type AgendaSettings struct {
	UID    ID     `json:"uid,omitempty"`
	Title  string `json:"title,omitempty"`
	TagSet TagSet `json:"tagSet"`

	NotFound bool `json:"-"`
	Degraded bool `json:"-"`
}

// TagSet lists the tag groups configured on the agenda.
type TagSet struct {
	Groups []TagGroup `json:"groups"`
}

// TagGroup is one group of tags exposed as a filter widget.
type TagGroup struct {
	Name   string `json:"name,omitempty"`
	Slug   string `json:"slug,omitempty"`
	Access string `json:"access,omitempty"`
}

// PublicTagGroupCount counts groups visible to visitors. At least one tag
// filter widget is always rendered, so the count is never below one.
func (s *AgendaSettings) PublicTagGroupCount() int {
	count := 0
	if s != nil {
		for _, group := range s.TagSet.Groups {
			if group.Access == "public" {
				count++
			}
		}
	}
	return max(count, 1)
}
