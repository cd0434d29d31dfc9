package render

import (
	"net/url"

	"github.com/goliatone/go-openagenda/internal/listing"
)

// AgendaData feeds the agenda template. Query carries the current filters so
// pager links keep them.
type AgendaData struct {
	Page  *listing.Page
	Query url.Values
}

// PreviewData feeds the preview template.
type PreviewData struct {
	Preview   *listing.Preview
	AgendaURL string
}
