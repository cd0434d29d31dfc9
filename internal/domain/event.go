package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ID is a remote identifier the API may send as a number or a string.
type ID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*id = ID(value)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*id = ID(number.String())
	return nil
}

// MarshalJSON emits numeric identifiers as numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Timing is one occurrence of an event as ISO-8601 begin/end strings.
type Timing struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
}

// Location is the venue attached to an event when requested in detailed mode.
type Location struct {
	UID       ID       `json:"uid,omitempty"`
	Name      string   `json:"name,omitempty"`
	Address   string   `json:"address,omitempty"`
	City      string   `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Timezone  string   `json:"timezone,omitempty"`
}

// HasCoordinates reports whether the location can be placed on a map.
func (l *Location) HasCoordinates() bool {
	return l != nil && l.Latitude != nil && l.Longitude != nil
}

// Event is a remote event record. The seven Text fields are localizable;
// BaseURL and the neighbour slugs are computed locally.
type Event struct {
	UID             ID              `json:"uid"`
	Slug            string          `json:"slug"`
	Title           Text            `json:"title"`
	Description     Text            `json:"description"`
	LongDescription Text            `json:"longDescription"`
	Keywords        Text            `json:"keywords"`
	Conditions      Text            `json:"conditions"`
	Country         Text            `json:"country"`
	DateRange       Text            `json:"dateRange"`
	Image           json.RawMessage `json:"image,omitempty"`
	Location        *Location       `json:"location,omitempty"`
	Timings         []Timing        `json:"timings,omitempty"`
	Featured        bool            `json:"featured,omitempty"`

	BaseURL           string `json:"baseUrl,omitempty"`
	PreviousEventSlug string `json:"previousEventSlug,omitempty"`
	NextEventSlug     string `json:"nextEventSlug,omitempty"`

	// Localized is the language the Text fields were flattened with.
	Localized string `json:"-"`

	// Extra keeps remote fields without a typed counterpart.
	Extra map[string]json.RawMessage `json:"-"`
}

// LocalizableFields returns pointers to the fields flattened by localization.
func (e *Event) LocalizableFields() []*Text {
	return []*Text{
		&e.Title,
		&e.Description,
		&e.Country,
		&e.DateRange,
		&e.LongDescription,
		&e.Keywords,
		&e.Conditions,
	}
}

// IsLocalized reports whether the event has already been flattened.
func (e *Event) IsLocalized() bool {
	return e != nil && e.Localized != ""
}

// Timezone returns the venue timezone, if any.
func (e *Event) Timezone() string {
	if e == nil || e.Location == nil {
		return ""
	}
	return strings.TrimSpace(e.Location.Timezone)
}

type eventAlias Event

var eventKnownFields = []string{
	"uid", "slug", "title", "description", "longDescription", "keywords", "conditions",
	"country", "dateRange", "image", "location", "timings", "featured",
	"baseUrl", "previousEventSlug", "nextEventSlug",
}

// UnmarshalJSON decodes the typed fields and keeps the rest in Extra.
func (e *Event) UnmarshalJSON(data []byte) error {
	var alias eventAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range eventKnownFields {
		delete(raw, key)
	}
	*e = Event(alias)
	if len(raw) > 0 {
		e.Extra = raw
	}
	return nil
}

// MarshalJSON encodes the typed fields plus any preserved extras. Typed fields
// win on key collisions.
func (e Event) MarshalJSON() ([]byte, error) {
	typed, err := json.Marshal(eventAlias(e))
	if err != nil {
		return nil, err
	}
	if len(e.Extra) == 0 {
		return typed, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(typed, &merged); err != nil {
		return nil, err
	}
	for key, value := range e.Extra {
		if _, exists := merged[key]; !exists {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}
