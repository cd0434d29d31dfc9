// Package http exposes the agenda pages over HTTP.
//
// Routes mount under /openagenda by default:
//   - Agenda page: /{agenda}
//   - AJAX fragment replacement: /{agenda}/ajax
//   - Filter aggregations: /{agenda}/filters
//   - Event detail: /{agenda}/events/{slug}
//   - Preview block: /{agenda}/preview
//   - Widget settings: /{agenda}/settings
//
// Host applications can register handlers on their own mux/router as needed.
package http
