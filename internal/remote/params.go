package remote

import (
	"net/url"
	"strconv"

	"github.com/goliatone/go-openagenda/internal/filters"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Sort is a remote ordering.
type Sort string

const (
	SortTimingsWithFeaturedAsc Sort = "timingsWithFeatured.asc"
	SortTimingsAsc             Sort = "timings.asc"
	SortUpdatedAtDesc          Sort = "updatedAt.desc"
	SortUpdatedAtAsc           Sort = "updatedAt.asc"
)

// Sorts lists the orderings the remote accepts.
func Sorts() []any {
	return []any{SortTimingsWithFeaturedAsc, SortTimingsAsc, SortUpdatedAtDesc, SortUpdatedAtAsc}
}

// LongDescriptionFormat selects how the remote renders long descriptions.
type LongDescriptionFormat string

const (
	FormatHTML           LongDescriptionFormat = "HTML"
	FormatHTMLWithEmbeds LongDescriptionFormat = "HTMLWithEmbeds"
)

// FormatFor returns the long description format matching the agenda's
// include-embedded setting.
func FormatFor(includeEmbedded bool) LongDescriptionFormat {
	if includeEmbedded {
		return FormatHTMLWithEmbeds
	}
	return FormatHTML
}

// Unbounded leaves the page size to the remote default.
const Unbounded = -1

// Params describes one events query.
type Params struct {
	Filters         filters.Set
	From            int
	Size            int
	Sort            Sort
	LongDescription LongDescriptionFormat
}

// Validate checks offsets and enums.
func (p Params) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.From, validation.Min(0)),
		validation.Field(&p.Size, validation.Min(Unbounded)),
		validation.Field(&p.Sort, validation.In(Sorts()...)),
		validation.Field(&p.LongDescription, validation.In(FormatHTML, FormatHTMLWithEmbeds)),
	)
}

// Query renders the remote query string. Detailed records are always
// requested since map and detail views need the venue coordinates. Reserved
// keys found in Filters never override the explicit parameters.
func (p Params) Query() url.Values {
	values := url.Values{}
	filters.WithoutReserved(p.Filters).Encode(values)
	values.Set("detailed", "1")
	values.Set("from", strconv.Itoa(p.From))
	if p.Size >= 0 {
		values.Set("size", strconv.Itoa(p.Size))
	}
	if p.Sort != "" {
		values.Set("sort", string(p.Sort))
	}
	if p.LongDescription != "" {
		values.Set("longDescriptionFormat", string(p.LongDescription))
	}
	return values
}
