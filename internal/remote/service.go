package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-openagenda/internal/domain"
	"github.com/goliatone/go-openagenda/internal/logging"
	"github.com/goliatone/go-openagenda/pkg/interfaces"
	"github.com/viccon/sturdyc"
)

// Client is the remote agenda contract used by the view builders.
type Client interface {
	FetchEvents(ctx context.Context, uid string, params Params) (*domain.EventsResult, error)
	FetchAgendaSettings(ctx context.Context, uid string) (*domain.AgendaSettings, error)
	Invalidate(uid string)
}

// CacheConfig sizes the response cache.
type CacheConfig struct {
	TTL                time.Duration
	Capacity           int
	Shards             int
	EvictionPercentage int
}

// DefaultCacheConfig returns the sizing used when caching is enabled without
// explicit values.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:                time.Minute,
		Capacity:           1000,
		Shards:             10,
		EvictionPercentage: 10,
	}
}

// ServiceOption configures the remote service.
type ServiceOption func(*service)

// WithLogger sets the logger used for transport failures.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCache enables response caching with request coalescing.
func WithCache(cfg CacheConfig) ServiceOption {
	return func(s *service) {
		defaults := DefaultCacheConfig()
		if cfg.TTL <= 0 {
			cfg.TTL = defaults.TTL
		}
		if cfg.Capacity <= 0 {
			cfg.Capacity = defaults.Capacity
		}
		if cfg.Shards <= 0 {
			cfg.Shards = defaults.Shards
		}
		if cfg.EvictionPercentage <= 0 {
			cfg.EvictionPercentage = defaults.EvictionPercentage
		}
		s.events = sturdyc.New[*domain.EventsResult](cfg.Capacity, cfg.Shards, cfg.TTL, cfg.EvictionPercentage)
		s.settings = sturdyc.New[*domain.AgendaSettings](cfg.Capacity, cfg.Shards, cfg.TTL, cfg.EvictionPercentage)
	}
}

type service struct {
	fetcher  Fetcher
	logger   interfaces.Logger
	events   *sturdyc.Client[*domain.EventsResult]
	settings *sturdyc.Client[*domain.AgendaSettings]

	mu          sync.Mutex
	generations map[string]uint64
}

// NewService decorates a fetcher with validation, caching and failure
// degradation.
func NewService(fetcher Fetcher, opts ...ServiceOption) Client {
	s := &service{
		fetcher:     fetcher,
		logger:      logging.NoOp(),
		generations: map[string]uint64{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchEvents returns one page of events. Transport failures are logged and
// degraded to an empty result flagged Degraded; a missing agenda comes back
// flagged NotFound. The returned result is owned by the caller.
func (s *service) FetchEvents(ctx context.Context, uid string, params Params) (*domain.EventsResult, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrAgendaUIDRequired
	}
	if err := params.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid remote query").
			WithTextCode("REMOTE_PARAMS_INVALID")
	}

	query := params.Query().Encode()
	fetch := func(ctx context.Context) (*domain.EventsResult, error) {
		return s.fetcher.Events(ctx, uid, params)
	}

	var (
		result *domain.EventsResult
		err    error
	)
	if s.events != nil {
		result, err = s.events.GetOrFetch(ctx, s.cacheKey(uid, "events", query), fetch)
	} else {
		result, err = fetch(ctx)
	}
	if err != nil {
		s.logFailure(ctx, "remote.events.fetch.failed", uid, query, err)
		degraded := domain.EmptyResult()
		degraded.Degraded = true
		return degraded, nil
	}
	return result.Clone(), nil
}

// FetchAgendaSettings returns the agenda settings, degrading like FetchEvents.
func (s *service) FetchAgendaSettings(ctx context.Context, uid string) (*domain.AgendaSettings, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrAgendaUIDRequired
	}

	fetch := func(ctx context.Context) (*domain.AgendaSettings, error) {
		return s.fetcher.Settings(ctx, uid)
	}

	var (
		settings *domain.AgendaSettings
		err      error
	)
	if s.settings != nil {
		settings, err = s.settings.GetOrFetch(ctx, s.cacheKey(uid, "settings", ""), fetch)
	} else {
		settings, err = fetch(ctx)
	}
	if err != nil {
		s.logFailure(ctx, "remote.settings.fetch.failed", uid, "", err)
		return &domain.AgendaSettings{Degraded: true}, nil
	}
	copied := *settings
	copied.TagSet.Groups = append([]domain.TagGroup(nil), settings.TagSet.Groups...)
	return &copied, nil
}

// Invalidate drops every cached response for the agenda by moving it to a new
// cache generation. Stale entries age out with the TTL.
func (s *service) Invalidate(uid string) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return
	}
	s.mu.Lock()
	s.generations[uid]++
	s.mu.Unlock()
}

func (s *service) cacheKey(uid, resource, query string) string {
	s.mu.Lock()
	generation := s.generations[uid]
	s.mu.Unlock()
	return fmt.Sprintf("%s:%d:%s?%s", uid, generation, resource, query)
}

func (s *service) logFailure(ctx context.Context, event, uid, query string, err error) {
	code := transportFailedCode
	var decodeErr *decodeError
	if errors.As(err, &decodeErr) {
		code = decodeFailedCode
	}
	wrapped := err
	if !goerrors.IsWrapped(err) {
		wrapped = goerrors.Wrap(err, goerrors.CategoryExternal, "remote agenda request failed").
			WithTextCode(code)
	}

	logger := logging.WithAgenda(s.logger.WithContext(ctx), "", uid)
	args := []any{"error", wrapped}
	if query != "" {
		args = append(args, "query", logging.RedactURL("?"+query))
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		args = append(args, "status", statusErr.StatusCode, "url", logging.RedactURL(statusErr.URL))
	}
	logger.Warn(event, args...)
}
