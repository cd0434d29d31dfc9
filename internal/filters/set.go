package filters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
)

// Well-known filter keys.
const (
	PageKey     = "page"
	RelativeKey = "relative"
	TimingsKey  = "timings"
	SlugKey     = "slug"
	FeaturedKey = "featured"
)

// reservedKeys never travel as remote filters: they are pagination, transport
// or context parameters owned by the integration.
var reservedKeys = []string{
	PageKey, "from", "size", "detailed", "key", "sort", "longDescriptionFormat",
	"_wrapper_format", "ajax_form", "oac", "context",
}

// Value is a single filter value or a list of values.
type Value struct {
	Values []string
	List   bool
}

// Single builds a scalar value.
func Single(value string) Value {
	return Value{Values: []string{value}}
}

// List builds a list value. A list with one element is still encoded as a
// list (key[]=value).
func List(values ...string) Value {
	return Value{Values: slices.Clone(values), List: true}
}

// First returns the first value or an empty string.
func (v Value) First() string {
	if len(v.Values) == 0 {
		return ""
	}
	return v.Values[0]
}

// Equal compares values and list-ness.
func (v Value) Equal(other Value) bool {
	return v.List == other.List && slices.Equal(v.Values, other.Values)
}

func (v Value) clone() Value {
	return Value{Values: slices.Clone(v.Values), List: v.List}
}

// Set maps filter keys to values. Keys are unique; order is irrelevant.
// Nested remote filters keep their bracket form (timings[gte]).
type Set map[string]Value

// Root returns the part of key before its first bracket.
func Root(key string) string {
	if idx := strings.IndexByte(key, '['); idx > 0 {
		return key[:idx]
	}
	return key
}

func normalizeKey(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if strings.HasSuffix(key, "[]") {
		return strings.TrimSuffix(key, "[]"), true
	}
	return key, false
}

// Clone returns a deep copy. Cloning nil yields an empty set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for key, value := range s {
		out[key] = value.clone()
	}
	return out
}

// Put stores a value under key, replacing any previous value.
func (s Set) Put(key string, value Value) {
	key, list := normalizeKey(key)
	if key == "" {
		return
	}
	value = value.clone()
	value.List = value.List || list
	s[key] = value
}

// Get returns the value stored for key.
func (s Set) Get(key string) (Value, bool) {
	value, ok := s[key]
	return value, ok
}

// Has reports whether key is present.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// HasRoot reports whether any key shares the given root.
func (s Set) HasRoot(root string) bool {
	for key := range s {
		if Root(key) == root {
			return true
		}
	}
	return false
}

// DeleteRoot removes every key sharing the given root.
func (s Set) DeleteRoot(root string) {
	for key := range s {
		if Root(key) == root {
			delete(s, key)
		}
	}
}

// Roots returns the distinct root keys, sorted.
func (s Set) Roots() []string {
	seen := map[string]struct{}{}
	for key := range s {
		seen[Root(key)] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Keys returns the keys sorted.
func (s Set) Keys() []string {
	return slices.Sorted(maps.Keys(s))
}

// Equal compares two sets key by key.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for key, value := range s {
		theirs, ok := other[key]
		if !ok || !value.Equal(theirs) {
			return false
		}
	}
	return true
}

// Encode appends the set to dst using key[]=value for lists.
func (s Set) Encode(dst url.Values) {
	for _, key := range s.Keys() {
		value := s[key]
		if value.List {
			dst[key+"[]"] = append(dst[key+"[]"], value.Values...)
			continue
		}
		dst.Set(key, value.First())
	}
}

// Query returns the set as url.Values.
func (s Set) Query() url.Values {
	values := url.Values{}
	s.Encode(values)
	return values
}

// String renders the set as an encoded query string.
func (s Set) String() string {
	return s.Query().Encode()
}

// FromQuery builds a set from request query values. Repeated keys and keys
// suffixed with [] become lists.
func FromQuery(values url.Values) Set {
	out := make(Set, len(values))
	for rawKey, entries := range values {
		key, list := normalizeKey(rawKey)
		if key == "" {
			continue
		}
		existing, ok := out[key]
		if ok {
			existing.Values = append(existing.Values, entries...)
			existing.List = true
			out[key] = existing
			continue
		}
		out[key] = Value{Values: slices.Clone(entries), List: list || len(entries) > 1}
	}
	return out
}

// ParseQuery parses a raw filter string. It accepts a full URL, a string
// starting with "?", or a bare query string, which covers the URLs editors
// paste from the agenda website.
func ParseQuery(raw string) (Set, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Set{}, nil
	}
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		raw = raw[:idx]
	}
	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		raw = raw[idx+1:]
	} else if strings.Contains(raw, "://") {
		return Set{}, nil
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("filters: parse query: %w", err)
	}
	return FromQuery(values), nil
}

// StripPagination returns a copy of s without pagination keys.
func StripPagination(s Set) Set {
	out := s.Clone()
	delete(out, PageKey)
	return out
}

// WithoutReserved returns a copy of s without keys owned by the integration.
func WithoutReserved(s Set) Set {
	out := s.Clone()
	for _, key := range reservedKeys {
		delete(out, key)
	}
	return out
}

// MarshalJSON encodes lists as arrays and scalars as strings.
func (s Set) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s))
	for key, value := range s {
		if value.List {
			out[key] = value.Values
			continue
		}
		out[key] = value.First()
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts scalars, arrays and nested objects. Nested objects
// are flattened into bracket keys so {"timings":{"gte":"x"}} becomes
// timings[gte]=x.
func (s *Set) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}
	var raw map[string]any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return fmt.Errorf("filters: decode set: %w", err)
	}
	out := Set{}
	for key, value := range raw {
		flattenInto(out, key, value)
	}
	*s = out
	return nil
}

func flattenInto(out Set, key string, value any) {
	switch v := value.(type) {
	case nil:
	case map[string]any:
		for sub, nested := range v {
			flattenInto(out, key+"["+sub+"]", nested)
		}
	case []any:
		list := make([]string, 0, len(v))
		for _, item := range v {
			if item != nil {
				list = append(list, scalarString(item))
			}
		}
		out.Put(key, List(list...))
	default:
		out.Put(key, Single(scalarString(v)))
	}
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(v)
	}
}
