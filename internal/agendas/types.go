package agendas

import (
	"strings"
	"time"

	"github.com/goliatone/go-openagenda/internal/filters"
	"github.com/goliatone/go-openagenda/internal/remote"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PreviewOrder selects which events a preview shows.
type PreviewOrder string

const (
	PreviewOrderDefault      PreviewOrder = "default"
	PreviewOrderFeatured     PreviewOrder = "featured"
	PreviewOrderCustomFilter PreviewOrder = "custom_filter"
)

// additionalFieldKey is the pre-filter that pins the agenda's additional
// field, making the matching filter widget redundant.
const additionalFieldKey = "thematique"

// Agenda is the editorial configuration binding a host content item to a
// remote agenda.
type Agenda struct {
	bun.BaseModel `bun:"table:openagenda_agendas,alias:oa"`

	ID               uuid.UUID    `bun:",pk,type:uuid" json:"id"`
	Key              string       `bun:"agenda_key,notnull,unique" json:"key"`
	UID              string       `bun:"uid,notnull" json:"uid"`
	Title            string       `bun:"title" json:"title,omitempty"`
	EventsPerPage    int          `bun:"events_per_page,notnull,default:20" json:"events_per_page"`
	Language         string       `bun:"language,notnull,default:'default'" json:"language"`
	IncludeEmbedded  bool         `bun:"include_embedded,notnull,default:false" json:"include_embedded"`
	Current          bool         `bun:"current,notnull,default:false" json:"current"`
	GeneralPreFilter string       `bun:"general_prefilter" json:"general_prefilter,omitempty"`
	PreviewSize      *int         `bun:"preview_size" json:"preview_size,omitempty"`
	PreviewOrder     PreviewOrder `bun:"preview_order,notnull,default:'default'" json:"preview_order"`
	PreviewFilter    string       `bun:"preview_filter" json:"preview_filter,omitempty"`
	Sort             remote.Sort  `bun:"sort" json:"sort,omitempty"`
	CreatedAt        time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// PreFilters parses the editor's pasted pre-filter. A malformed value yields
// an empty set; validation rejects it before it is stored.
func (a *Agenda) PreFilters() filters.Set {
	if a == nil {
		return filters.Set{}
	}
	set, err := filters.ParseQuery(a.GeneralPreFilter)
	if err != nil {
		return filters.Set{}
	}
	return set
}

// HidesAdditionalFieldFilter reports whether the additional-field filter
// widget should be hidden.
func (a *Agenda) HidesAdditionalFieldFilter() bool {
	return a.PreFilters().HasRoot(additionalFieldKey)
}

// LongDescriptionFormat maps IncludeEmbedded to the remote rendering mode.
func (a *Agenda) LongDescriptionFormat() remote.LongDescriptionFormat {
	return remote.FormatFor(a != nil && a.IncludeEmbedded)
}

// ContentLanguage returns the configured language, empty when the agenda
// follows the page language.
func (a *Agenda) ContentLanguage() string {
	if a == nil {
		return ""
	}
	lang := strings.TrimSpace(a.Language)
	if lang == "default" {
		return ""
	}
	return lang
}

// PreviewLimit returns the preview size, falling back to fallback when unset.
// Zero means no limit.
func (a *Agenda) PreviewLimit(fallback int) int {
	if a == nil || a.PreviewSize == nil {
		return fallback
	}
	return *a.PreviewSize
}

func cloneAgenda(a *Agenda) *Agenda {
	if a == nil {
		return nil
	}
	cloned := *a
	if a.PreviewSize != nil {
		size := *a.PreviewSize
		cloned.PreviewSize = &size
	}
	return &cloned
}
