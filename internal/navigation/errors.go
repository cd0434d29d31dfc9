package navigation

import (
	"errors"
	"fmt"
)

var (
	// ErrEventNotFound is returned when neither the context window nor the
	// direct lookup resolved the requested slug.
	ErrEventNotFound = errors.New("navigation: event not found")
	// ErrSlugRequired is returned when no slug is requested.
	ErrSlugRequired = errors.New("navigation: slug required")
)

// NotFoundError is returned when a record is missing.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// Is matches ErrEventNotFound for event lookups.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrEventNotFound && e.Resource == "event"
}
