package navigation

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/goliatone/go-openagenda/internal/filters"
)

// DefaultContextParams are the query parameters that may carry a navigation
// token, in lookup order.
var DefaultContextParams = []string{"oac", "context"}

// Context is the position of an event within a prior search, carried between
// the listing and the detail page as an opaque token.
type Context struct {
	Index   int         `json:"index"`
	Total   int         `json:"total"`
	Filters filters.Set `json:"filters,omitempty"`
}

// EncodeContext renders the token as base64 JSON.
func EncodeContext(c Context) string {
	payload, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(payload)
}

type contextPayload struct {
	Index   *int            `json:"index"`
	Total   json.Number     `json:"total"`
	Filters json.RawMessage `json:"filters"`
	Search  json.RawMessage `json:"search"`
}

var tokenEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.RawURLEncoding,
}

// DecodeContext parses a token. Anything malformed, including a missing or
// negative index, reports ok=false and must be treated as no context.
func DecodeContext(token string) (Context, bool) {
	// Query decoding turns an unescaped '+' into a space.
	token = strings.ReplaceAll(strings.TrimSpace(token), " ", "+")
	if token == "" {
		return Context{}, false
	}

	var raw []byte
	for _, encoding := range tokenEncodings {
		decoded, err := encoding.DecodeString(token)
		if err == nil {
			raw = decoded
			break
		}
	}
	if raw == nil {
		return Context{}, false
	}

	var payload contextPayload
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return Context{}, false
	}
	if payload.Index == nil || *payload.Index < 0 {
		return Context{}, false
	}

	total := 0
	if payload.Total != "" {
		value, err := payload.Total.Int64()
		if err != nil {
			return Context{}, false
		}
		total = int(value)
	}

	source := payload.Filters
	if isEmptyJSON(source) {
		source = payload.Search
	}
	set := filters.Set{}
	if !isEmptyJSON(source) {
		if err := json.Unmarshal(source, &set); err != nil {
			return Context{}, false
		}
		if set == nil {
			set = filters.Set{}
		}
	}

	return Context{Index: *payload.Index, Total: total, Filters: set}, true
}

// isEmptyJSON treats absent values, null and empty arrays (the encoding some
// hosts use for an empty map) as no filters.
func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("[]"))
}

// ContextFromQuery decodes the first non-empty token found under params,
// defaulting to DefaultContextParams.
func ContextFromQuery(values url.Values, params ...string) (Context, bool) {
	if len(params) == 0 {
		params = DefaultContextParams
	}
	for _, param := range params {
		if token := strings.TrimSpace(values.Get(param)); token != "" {
			return DecodeContext(token)
		}
	}
	return Context{}, false
}
