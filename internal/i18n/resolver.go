package i18n

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/pkg/interfaces"
	"golang.org/x/text/language"
)

var (
	// ErrAlreadyLocalized is returned when an event was flattened before.
	// Flattening is one-way, so a second pass would re-derive values from
	// scalars and is refused instead.
	ErrAlreadyLocalized = errors.New("i18n: event already localized")
	// ErrEventRequired is returned when Localize receives a nil event.
	ErrEventRequired = errors.New("i18n: event required")
)

type visitorKey struct{}

// WithVisitor binds the visitor to ctx.
func WithVisitor(ctx context.Context, visitor interfaces.Visitor) context.Context {
	return context.WithValue(ctx, visitorKey{}, visitor)
}

// VisitorFromContext returns the visitor bound with WithVisitor.
func VisitorFromContext(ctx context.Context) (interfaces.Visitor, bool) {
	if ctx == nil {
		return interfaces.Visitor{}, false
	}
	visitor, ok := ctx.Value(visitorKey{}).(interfaces.Visitor)
	return visitor, ok
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithVisitorResolver reads the visitor from the host session instead of the
// context.
func WithVisitorResolver(resolver interfaces.VisitorResolver) Option {
	return func(r *Resolver) {
		r.visitors = resolver
	}
}

// WithSiteLanguage reads the site language from the host. Without it the
// configured default locale is used.
func WithSiteLanguage(resolver interfaces.SiteLanguageResolver) Option {
	return func(r *Resolver) {
		r.site = resolver
	}
}

// Resolver picks languages for multi-language remote fields.
type Resolver struct {
	cfg      Config
	visitors interfaces.VisitorResolver
	site     interfaces.SiteLanguageResolver
}

// NewResolver builds a resolver for the configured languages.
func NewResolver(cfg Config, opts ...Option) *Resolver {
	r := &Resolver{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PriorityList returns the language chain, highest priority first: the page
// content language, the visitor language when authenticated, the site
// language, then the configured languages and the fixed fallback order.
// Codes are reduced to their base language and deduplicated.
func (r *Resolver) PriorityList(ctx context.Context, contentLanguage string) []string {
	chain := make([]string, 0, 4+len(r.cfg.Locales)+len(FallbackOrder))
	seen := map[string]bool{}
	push := func(code string) {
		code = Normalize(code)
		if code == "" || code == DefaultLanguage || seen[code] {
			return
		}
		seen[code] = true
		chain = append(chain, code)
	}

	push(contentLanguage)
	if visitor, ok := r.visitor(ctx); ok && visitor.Authenticated {
		push(visitor.Language)
	}
	push(r.siteLanguage(ctx))
	for _, code := range r.cfg.Locales {
		push(code)
	}
	for _, code := range FallbackOrder {
		push(code)
	}
	return chain
}

// PreferredLanguage returns the head of the priority chain.
func (r *Resolver) PreferredLanguage(ctx context.Context, contentLanguage string) string {
	return r.PriorityList(ctx, contentLanguage)[0]
}

// LocalizedValue returns the value of text in the best available language
// without modifying it.
func (r *Resolver) LocalizedValue(ctx context.Context, text domain.Text, contentLanguage string) string {
	if text.IsFlat() {
		return text.String()
	}
	text.Flatten(r.PriorityList(ctx, contentLanguage))
	return text.String()
}

// Localize flattens every localizable field of event in place. Fields that are
// already scalar are left untouched. Localizing an event twice returns
// ErrAlreadyLocalized and changes nothing.
func (r *Resolver) Localize(ctx context.Context, event *domain.Event, contentLanguage string) error {
	if event == nil {
		return ErrEventRequired
	}
	if event.IsLocalized() {
		return ErrAlreadyLocalized
	}
	chain := r.PriorityList(ctx, contentLanguage)
	for _, field := range event.LocalizableFields() {
		field.Flatten(chain)
	}
	event.Localized = chain[0]
	return nil
}

func (r *Resolver) visitor(ctx context.Context) (interfaces.Visitor, bool) {
	if r.visitors != nil {
		if visitor, ok := r.visitors.CurrentVisitor(ctx); ok {
			return visitor, true
		}
	}
	return VisitorFromContext(ctx)
}

func (r *Resolver) siteLanguage(ctx context.Context) string {
	if r.site != nil {
		if code := r.site.SiteLanguage(ctx); strings.TrimSpace(code) != "" {
			return code
		}
	}
	return r.cfg.DefaultLocale
}

// Normalize reduces a language tag to its base language (fr-FR becomes fr).
// Codes the tag parser does not recognise are kept lowercased.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == DefaultLanguage {
		return code
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return code
	}
	return base.String()
}
