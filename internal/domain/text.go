package domain

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

// Text is a remote field carrying one value per language code. Once flattened
// it holds a single scalar and no longer remembers the other languages.
type Text struct {
	values map[string]string
	value  string
	flat   bool
}

// NewText builds a multi-language value. Empty strings are dropped.
func NewText(values map[string]string) Text {
	t := Text{values: make(map[string]string, len(values))}
	for lang, value := range values {
		if value != "" {
			t.values[lang] = value
		}
	}
	return t
}

// FlatText builds an already-flattened value.
func FlatText(value string) Text {
	return Text{value: value, flat: true}
}

// IsFlat reports whether the value has been collapsed to a single language.
func (t Text) IsFlat() bool {
	return t.flat
}

// Lookup returns the non-empty value stored for lang.
func (t Text) Lookup(lang string) (string, bool) {
	value, ok := t.values[lang]
	return value, ok && value != ""
}

// Languages lists the language codes carrying a value, sorted.
func (t Text) Languages() []string {
	return slices.Sorted(maps.Keys(t.values))
}

// String returns the flattened value, or an empty string while the field is
// still multi-language.
func (t Text) String() string {
	return t.value
}

// Flatten keeps the first non-empty value found walking chain. A field with
// no value in any listed language becomes an empty string. Flattening an
// already flat value is a no-op.
func (t *Text) Flatten(chain []string) {
	if t.flat {
		return
	}
	t.value = ""
	for _, lang := range chain {
		if value, ok := t.Lookup(lang); ok {
			t.value = value
			break
		}
	}
	t.values = nil
	t.flat = true
}

// MarshalJSON emits the scalar once flattened and the language map otherwise.
func (t Text) MarshalJSON() ([]byte, error) {
	if t.flat {
		return json.Marshal(t.value)
	}
	if t.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.values)
}

// UnmarshalJSON accepts a scalar string, an object of strings, or an object of
// string lists (the remote shape for keywords, joined with ", ").
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = Text{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*t = FlatText(value)
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	values := make(map[string]string, len(raw))
	for lang, entry := range raw {
		var single string
		if err := json.Unmarshal(entry, &single); err == nil {
			values[lang] = single
			continue
		}
		var list []string
		if err := json.Unmarshal(entry, &list); err == nil {
			values[lang] = strings.Join(list, ", ")
		}
	}
	*t = NewText(values)
	return nil
}
