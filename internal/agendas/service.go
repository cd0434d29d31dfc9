package agendas

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-openagenda/internal/filters"
	"github.com/goliatone/go-openagenda/internal/i18n"
	"github.com/goliatone/go-openagenda/internal/identity"
	"github.com/goliatone/go-openagenda/internal/remote"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

var (
	// ErrAgendaKeyExists is returned when a key is already bound to an agenda.
	ErrAgendaKeyExists = errors.New("agendas: agenda key already exists")
	// ErrAgendaIDRequired is returned when an update names no agenda.
	ErrAgendaIDRequired = errors.New("agendas: agenda id required")
)

// MaxEventsPerPage caps the page size an editor may configure.
const MaxEventsPerPage = 300

var uidPattern = regexp.MustCompile(`^(?:[0-9]+|[a-z0-9][a-z0-9-]*)$`)

// Service manages agenda configurations.
type Service interface {
	Create(ctx context.Context, req CreateAgendaRequest) (*Agenda, error)
	Update(ctx context.Context, req UpdateAgendaRequest) (*Agenda, error)
	Get(ctx context.Context, id uuid.UUID) (*Agenda, error)
	GetByKey(ctx context.Context, key string) (*Agenda, error)
	List(ctx context.Context) ([]*Agenda, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateAgendaRequest captures the editorial settings of a new agenda.
type CreateAgendaRequest struct {
	Key              string
	UID              string
	Title            string
	EventsPerPage    int
	Language         string
	IncludeEmbedded  bool
	Current          bool
	GeneralPreFilter string
	PreviewSize      *int
	PreviewOrder     PreviewOrder
	PreviewFilter    string
	// Sort orders listings, previews and detail navigation. Empty keeps the
	// remote default order.
	Sort remote.Sort
}

// UpdateAgendaRequest replaces the editorial settings of an agenda. The key
// is immutable.
type UpdateAgendaRequest struct {
	ID               uuid.UUID
	UID              string
	Title            string
	EventsPerPage    int
	Language         string
	IncludeEmbedded  bool
	Current          bool
	GeneralPreFilter string
	PreviewSize      *int
	PreviewOrder     PreviewOrder
	PreviewFilter    string
	// Sort orders listings, previews and detail navigation. Empty keeps the
	// remote default order.
	Sort remote.Sort
}

// ServiceOption configures the service at construction time.
type ServiceOption func(*service)

// WithClock overrides the clock used to stamp records.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLocales restricts agenda languages to the given codes plus "default".
func WithLocales(locales []string) ServiceOption {
	return func(s *service) {
		s.locales = nil
		for _, code := range locales {
			if normalized := i18n.Normalize(code); normalized != "" {
				s.locales = append(s.locales, normalized)
			}
		}
	}
}

type service struct {
	repo    Repository
	now     func() time.Time
	locales []string
}

// NewService constructs the agenda service.
func NewService(repo Repository, opts ...ServiceOption) Service {
	s := &service{
		repo:    repo,
		now:     time.Now,
		locales: slices.Clone(i18n.FallbackOrder),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Create(ctx context.Context, req CreateAgendaRequest) (*Agenda, error) {
	key := strings.TrimSpace(req.Key)
	agenda := &Agenda{
		ID:               identity.AgendaUUID(key),
		Key:              key,
		UID:              strings.TrimSpace(req.UID),
		Title:            strings.TrimSpace(req.Title),
		EventsPerPage:    req.EventsPerPage,
		Language:         normalizeLanguage(req.Language),
		IncludeEmbedded:  req.IncludeEmbedded,
		Current:          req.Current,
		GeneralPreFilter: strings.TrimSpace(req.GeneralPreFilter),
		PreviewSize:      req.PreviewSize,
		PreviewOrder:     normalizeOrder(req.PreviewOrder),
		PreviewFilter:    strings.TrimSpace(req.PreviewFilter),
		Sort:             remote.Sort(strings.TrimSpace(string(req.Sort))),
	}
	if err := s.validate(agenda); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByKey(ctx, key); err == nil {
		return nil, ErrAgendaKeyExists
	} else if !isNotFound(err) {
		return nil, err
	}

	now := s.now().UTC()
	agenda.CreatedAt = now
	agenda.UpdatedAt = now
	return s.repo.Create(ctx, agenda)
}

func (s *service) Update(ctx context.Context, req UpdateAgendaRequest) (*Agenda, error) {
	if req.ID == uuid.Nil {
		return nil, ErrAgendaIDRequired
	}
	existing, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	existing.UID = strings.TrimSpace(req.UID)
	existing.Title = strings.TrimSpace(req.Title)
	existing.EventsPerPage = req.EventsPerPage
	existing.Language = normalizeLanguage(req.Language)
	existing.IncludeEmbedded = req.IncludeEmbedded
	existing.Current = req.Current
	existing.GeneralPreFilter = strings.TrimSpace(req.GeneralPreFilter)
	existing.PreviewSize = req.PreviewSize
	existing.PreviewOrder = normalizeOrder(req.PreviewOrder)
	existing.PreviewFilter = strings.TrimSpace(req.PreviewFilter)
	existing.Sort = remote.Sort(strings.TrimSpace(string(req.Sort)))
	if err := s.validate(existing); err != nil {
		return nil, err
	}

	existing.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, existing)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Agenda, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByKey(ctx context.Context, key string) (*Agenda, error) {
	return s.repo.GetByKey(ctx, strings.TrimSpace(key))
}

func (s *service) List(ctx context.Context) ([]*Agenda, error) {
	return s.repo.List(ctx)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) validate(agenda *Agenda) error {
	languages := make([]any, 0, len(s.locales)+1)
	languages = append(languages, i18n.DefaultLanguage)
	for _, code := range s.locales {
		languages = append(languages, code)
	}

	return validation.ValidateStruct(agenda,
		validation.Field(&agenda.Key, validation.Required, validation.Length(1, 128)),
		validation.Field(&agenda.UID, validation.Required, validation.Match(uidPattern)),
		validation.Field(&agenda.EventsPerPage, validation.Min(0), validation.Max(MaxEventsPerPage)),
		validation.Field(&agenda.Language, validation.Required, validation.In(languages...)),
		validation.Field(&agenda.GeneralPreFilter, validation.By(validQuery)),
		validation.Field(&agenda.PreviewSize, validation.Min(0)),
		validation.Field(&agenda.PreviewOrder, validation.In(
			PreviewOrderDefault, PreviewOrderFeatured, PreviewOrderCustomFilter,
		)),
		validation.Field(&agenda.PreviewFilter,
			validation.When(agenda.PreviewOrder == PreviewOrderCustomFilter, validation.Required),
			validation.By(validQuery),
		),
		validation.Field(&agenda.Sort, validation.In(remote.Sorts()...)),
	)
}

func validQuery(value any) error {
	raw, _ := value.(string)
	if _, err := filters.ParseQuery(raw); err != nil {
		return validation.NewError("validation_is_query", "must be a valid query string or URL")
	}
	return nil
}

func normalizeLanguage(lang string) string {
	lang = i18n.Normalize(lang)
	if lang == "" {
		return i18n.DefaultLanguage
	}
	return lang
}

func normalizeOrder(order PreviewOrder) PreviewOrder {
	if strings.TrimSpace(string(order)) == "" {
		return PreviewOrderDefault
	}
	return order
}

func isNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
