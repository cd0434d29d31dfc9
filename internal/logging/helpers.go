package logging

import (
	"maps"
	"net/url"

	"github.com/goliatone/go-openagenda/pkg/interfaces"
)

// WithFields attaches structured fields when the logger supports the optional
// FieldsLogger extension. Nil or empty maps are a no-op.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fieldsLogger.WithFields(copied)
	}

	return logger
}

// RedactURL hides credentials carried in the query string so remote request
// URLs can be logged safely.
func RedactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	query := parsed.Query()
	for _, key := range []string{"key", "token", "access_token"} {
		if query.Has(key) {
			query.Set(key, "REDACTED")
		}
	}
	parsed.RawQuery = query.Encode()
	parsed.User = nil
	return parsed.String()
}
