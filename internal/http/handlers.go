package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-openagenda/internal/agendas"
	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/filters"
	"github.com/goliatone/go-openagenda/internal/listing"
	"github.com/goliatone/go-openagenda/internal/render"
)

const missingFieldMessage = "This node has no openagenda field"

type pageResponse struct {
	*listing.Page
	Markers []listing.Marker `json:"markers"`
}

type replaceCommand struct {
	Command  string `json:"command"`
	Method   string `json:"method"`
	Selector string `json:"selector"`
	Data     string `json:"data"`
}

type filtersResponse struct {
	Events  []*domain.Event `json:"events"`
	Total   int             `json:"total"`
	Filters filters.Set     `json:"filters"`
}

type settingsResponse struct {
	*listing.WidgetSettings
	MapTilesURI string `json:"map_tiles_uri,omitempty"`
}

func (api *AgendaAPI) handlePage(w http.ResponseWriter, r *http.Request) {
	if api.agendas == nil || api.listing == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	agendaKey := r.PathValue("agenda")
	agenda, err := api.agendas.GetByKey(r.Context(), agendaKey)
	if err != nil {
		if isNotFound(err) {
			writeJSON(w, http.StatusOK, pageResponse{Page: emptyPage(agendaKey), Markers: []listing.Marker{}})
			return
		}
		api.fail(w, r, err)
		return
	}
	query := r.URL.Query()
	page, err := api.listing.BuildPage(r.Context(), agenda, filters.FromQuery(query), listing.PageRequest{
		Page:        parseIntQuery(query.Get(filters.PageKey), 0),
		InitialLoad: true,
	})
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Page: page, Markers: listing.MapMarkers(page.Events)})
}

func (api *AgendaAPI) handleAjax(w http.ResponseWriter, r *http.Request) {
	if api.agendas == nil || api.listing == nil || api.renderer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	agenda, err := api.agendas.GetByKey(r.Context(), r.PathValue("agenda"))
	if err != nil {
		if isNotFound(err) {
			writeJSON(w, http.StatusOK, []replaceCommand{})
			return
		}
		api.fail(w, r, err)
		return
	}
	query := r.URL.Query()
	page, err := api.listing.BuildPage(r.Context(), agenda, filters.FromQuery(query), listing.PageRequest{
		Page: parseIntQuery(query.Get(filters.PageKey), 0),
	})
	if err != nil {
		api.fail(w, r, err)
		return
	}
	html, err := api.renderer.Render(render.AgendaTemplate, render.AgendaData{Page: page, Query: page.Filters.Query()})
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, []replaceCommand{{
		Command:  "insert",
		Method:   "replaceWith",
		Selector: api.contentSelector,
		Data:     html,
	}})
}

func (api *AgendaAPI) handleFilters(w http.ResponseWriter, r *http.Request) {
	if api.agendas == nil || api.listing == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	agenda, err := api.agendas.GetByKey(r.Context(), r.PathValue("agenda"))
	if err != nil {
		if isNotFound(err) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: missingFieldMessage})
			return
		}
		api.fail(w, r, err)
		return
	}
	result, err := api.listing.Aggregations(r.Context(), agenda, filters.FromQuery(r.URL.Query()))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	events := result.Events
	if events == nil {
		events = []*domain.Event{}
	}
	writeJSON(w, http.StatusOK, filtersResponse{Events: events, Total: result.Total, Filters: result.Filters})
}

func (api *AgendaAPI) handleEvent(w http.ResponseWriter, r *http.Request) {
	if api.agendas == nil || api.events == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	agenda, err := api.agendas.GetByKey(r.Context(), r.PathValue("agenda"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	page, err := api.events.EventPage(r.Context(), agenda, r.PathValue("slug"), r.URL.Query(), api.AgendaURL(agenda.Key))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	if wantsHTML(r) {
		api.writeHTML(w, r, render.EventTemplate, page)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (api *AgendaAPI) handlePreview(w http.ResponseWriter, r *http.Request) {
	if api.agendas == nil || api.listing == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	agenda, err := api.agendas.GetByKey(r.Context(), r.PathValue("agenda"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	preview, err := api.listing.BuildPreview(r.Context(), agenda)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	if wantsHTML(r) {
		api.writeHTML(w, r, render.PreviewTemplate, render.PreviewData{Preview: preview, AgendaURL: api.AgendaURL(agenda.Key)})
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (api *AgendaAPI) handleSettings(w http.ResponseWriter, r *http.Request) {
	if api.agendas == nil || api.listing == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	agenda, err := api.agendas.GetByKey(r.Context(), r.PathValue("agenda"))
	if err != nil {
		api.fail(w, r, err)
		return
	}
	settings, err := api.listing.Widgets(r.Context(), agenda)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{WidgetSettings: settings, MapTilesURI: api.mapTilesURI})
}

func (api *AgendaAPI) writeHTML(w http.ResponseWriter, r *http.Request, name string, data any) {
	if api.renderer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	html, err := api.renderer.Render(name, data)
	if err != nil {
		api.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (api *AgendaAPI) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		api.logger.WithContext(r.Context()).Error("http.request.failed", "status", status, "error", err)
	}
	writeJSON(w, status, payload)
}

func wantsHTML(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "html") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func parseIntQuery(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func isNotFound(err error) bool {
	var notFound *agendas.NotFoundError
	return errors.As(err, &notFound)
}

// emptyPage is the page of a host item without an agenda: nothing to render.
func emptyPage(agendaKey string) *listing.Page {
	return &listing.Page{
		AgendaKey: agendaKey,
		Events:    []*domain.Event{},
		Items:     []listing.Item{},
		Filters:   filters.Set{},
	}
}
