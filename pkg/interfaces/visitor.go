package interfaces

import "context"

// Visitor describes the person viewing an agenda page.
type Visitor struct {
	Authenticated bool
	Language      string
}

// VisitorResolver returns the visitor bound to a request context. Hosts wire
// their session or user store behind it.
type VisitorResolver interface {
	CurrentVisitor(ctx context.Context) (Visitor, bool)
}

// SiteLanguageResolver returns the language the host site is currently
// rendered in.
type SiteLanguageResolver interface {
	SiteLanguage(ctx context.Context) string
}
