package di

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/goliatone/go-openagenda/internal/agendas"
	agendascmd "github.com/goliatone/go-openagenda/internal/commands/agendas"
	apihttp "github.com/goliatone/go-openagenda/internal/http"
	"github.com/goliatone/go-openagenda/internal/i18n"
	"github.com/goliatone/go-openagenda/internal/listing"
	"github.com/goliatone/go-openagenda/internal/logging"
	"github.com/goliatone/go-openagenda/internal/logging/console"
	"github.com/goliatone/go-openagenda/internal/logging/gologger"
	"github.com/goliatone/go-openagenda/internal/navigation"
	"github.com/goliatone/go-openagenda/internal/remote"
	"github.com/goliatone/go-openagenda/internal/render"
	"github.com/goliatone/go-openagenda/internal/runtimeconfig"
	"github.com/goliatone/go-openagenda/internal/scheduler"
	"github.com/goliatone/go-openagenda/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/uptrace/bun"
)

var ErrBunDBRequired = errors.New("openagenda container: bun storage requires a database handle")

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logCloser      io.Closer

	httpClient *http.Client
	fetcher    remote.Fetcher
	remote     remote.Client

	bunDB         *bun.DB
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	agendaRepo agendas.Repository
	agendaSvc  agendas.Service

	visitors     interfaces.VisitorResolver
	siteLanguage interfaces.SiteLanguageResolver
	resolver     *i18n.Resolver

	routeManager *urlkit.RouteManager
	urls         *navigation.URLBuilder
	builder      *listing.Builder
	events       *navigation.Service
	template     interfaces.TemplateRenderer
	api          *apihttp.AgendaAPI

	commands *agendascmd.HandlerSet
	warmer   *scheduler.Warmer
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the logger provider derived from configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithHTTPClient sets the client used to reach the remote API.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithFetcher replaces the HTTP fetcher behind the remote client.
func WithFetcher(fetcher remote.Fetcher) Option {
	return func(c *Container) {
		c.fetcher = fetcher
	}
}

// WithRemoteClient replaces the remote client entirely.
func WithRemoteClient(client remote.Client) Option {
	return func(c *Container) {
		c.remote = client
	}
}

// WithBunDB sets the database used by the bun storage provider.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithAgendaRepository overrides the agenda record store.
func WithAgendaRepository(repo agendas.Repository) Option {
	return func(c *Container) {
		c.agendaRepo = repo
	}
}

// WithTemplate overrides the default template renderer.
func WithTemplate(tr interfaces.TemplateRenderer) Option {
	return func(c *Container) {
		c.template = tr
	}
}

// WithVisitorResolver wires the host session lookup used for language selection.
func WithVisitorResolver(resolver interfaces.VisitorResolver) Option {
	return func(c *Container) {
		c.visitors = resolver
	}
}

// WithSiteLanguage wires the host page language lookup.
func WithSiteLanguage(resolver interfaces.SiteLanguageResolver) Option {
	return func(c *Container) {
		c.siteLanguage = resolver
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	c.configureRemote()
	c.configureCacheDefaults()
	if err := c.configureRepositories(); err != nil {
		return nil, err
	}
	c.configureNavigation()
	c.configureServices()
	if err := c.configureCommands(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider != nil || !c.Config.Features.Logger {
		return nil
	}
	logCfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{Writer: os.Stdout}
		if level, ok := console.ParseLevel(logCfg.Level); ok {
			opts.MinLevel = &level
		}
		if path := strings.TrimSpace(logCfg.File); path != "" {
			writer := console.NewRotatingWriter(console.FileOptions{
				Path:       path,
				MaxSizeMB:  logCfg.MaxSizeMB,
				MaxBackups: logCfg.MaxBackups,
			})
			opts.Writer = writer
			c.logCloser = writer
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) configureRemote() {
	if c.remote != nil {
		return
	}
	if c.fetcher == nil {
		remoteCfg := c.Config.Remote
		c.fetcher = remote.NewHTTPFetcher(remote.HTTPConfig{
			BaseURL:       remoteCfg.BaseURL,
			PublicKey:     remoteCfg.PublicKey,
			Timeout:       remoteCfg.Timeout,
			RetryAttempts: remoteCfg.RetryAttempts,
			RetryDelay:    remoteCfg.RetryDelay,
			UserAgent:     remoteCfg.UserAgent,
		}, c.httpClient)
	}
	opts := []remote.ServiceOption{remote.WithLogger(logging.RemoteLogger(c.loggerProvider))}
	if c.Config.Cache.Enabled {
		opts = append(opts, remote.WithCache(remote.CacheConfig{
			TTL:                c.Config.Cache.DefaultTTL,
			Capacity:           c.Config.Cache.Capacity,
			Shards:             c.Config.Cache.Shards,
			EvictionPercentage: c.Config.Cache.EvictionPercentage,
		}))
	}
	c.remote = remote.NewService(c.fetcher, opts...)
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.Config.Cache.DefaultTTL > 0 {
			cfg.TTL = c.Config.Cache.DefaultTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}
	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() error {
	if c.agendaRepo != nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Config.Storage.Provider)) {
	case "bun":
		if c.bunDB == nil {
			return ErrBunDBRequired
		}
		if c.cacheService != nil {
			c.agendaRepo = agendas.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		} else {
			c.agendaRepo = agendas.NewBunRepository(c.bunDB)
		}
	default:
		c.agendaRepo = agendas.NewMemoryRepository()
	}
	return nil
}

func (c *Container) configureNavigation() {
	navCfg := c.Config.Navigation
	if navCfg.RouteConfig != nil {
		c.routeManager = urlkit.NewRouteManager(navCfg.RouteConfig)
	}
	contextParam := ""
	if len(navCfg.ContextParams) > 0 {
		contextParam = navCfg.ContextParams[0]
	}
	c.urls = navigation.NewURLBuilder(navigation.URLBuilderOptions{
		Manager:      c.routeManager,
		Group:        navCfg.Group,
		Route:        navCfg.EventRoute,
		BasePath:     navCfg.BasePath,
		ContextParam: contextParam,
	})
}

func (c *Container) configureServices() {
	c.agendaSvc = agendas.NewService(c.agendaRepo, agendas.WithLocales(c.Config.I18N.Locales))

	resolverOpts := []i18n.Option{}
	if c.visitors != nil {
		resolverOpts = append(resolverOpts, i18n.WithVisitorResolver(c.visitors))
	}
	if c.siteLanguage != nil {
		resolverOpts = append(resolverOpts, i18n.WithSiteLanguage(c.siteLanguage))
	}
	c.resolver = i18n.NewResolver(i18n.FromModuleConfig(c.Config.I18N.DefaultLocale, c.Config.I18N.Locales), resolverOpts...)

	c.builder = listing.NewBuilder(c.remote, c.resolver,
		listing.WithLogger(logging.ListingLogger(c.loggerProvider)),
		listing.WithColumns(c.Config.Display.DefaultColumns),
		listing.WithPreviewSize(c.Config.Display.PreviewSize),
		listing.WithURLBuilder(c.urls),
	)

	navigator := navigation.NewNavigator(c.remote, navigation.WithNavigatorLogger(logging.NavigationLogger(c.loggerProvider)))
	c.events = navigation.NewService(navigator, c.resolver, c.urls,
		navigation.WithTimezone(c.Config.Display.Timezone),
		navigation.WithContextParams(c.Config.Navigation.ContextParams...),
	)

	if c.template == nil {
		c.template = render.MustNew()
	}

	c.api = apihttp.NewAgendaAPI(
		apihttp.WithBasePath(c.Config.Navigation.BasePath),
		apihttp.WithAgendaService(c.agendaSvc),
		apihttp.WithListing(c.builder),
		apihttp.WithEventService(c.events),
		apihttp.WithRenderer(c.template),
		apihttp.WithMapTilesURI(c.Config.Display.MapTilesURI),
		apihttp.WithContentSelector(c.Config.Sync.ContentSelector),
		apihttp.WithLogger(logging.HTTPLogger(c.loggerProvider)),
	)
}

func (c *Container) configureCommands() error {
	if !c.Config.Commands.Enabled {
		return nil
	}
	set, err := agendascmd.RegisterAgendaCommands(nil, c.remote, c.agendaSvc, c.builder, c.loggerProvider)
	if err != nil {
		return err
	}
	c.commands = set
	if c.Config.Features.Scheduler {
		c.warmer = scheduler.NewWarmer(c.agendaSvc, set.Warm,
			scheduler.WithLogger(logging.SchedulerLogger(c.loggerProvider)))
	}
	return nil
}

// Start launches background jobs configured for the module.
func (c *Container) Start() error {
	if c.warmer == nil || strings.TrimSpace(c.Config.Commands.WarmCron) == "" {
		return nil
	}
	return c.warmer.Start(c.Config.Commands.WarmCron)
}

// Close stops background jobs and releases the log file.
func (c *Container) Close(ctx context.Context) error {
	if c.warmer != nil {
		c.warmer.Stop(ctx)
	}
	if c.logCloser != nil {
		return c.logCloser.Close()
	}
	return nil
}

// LoggerProvider exposes the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// RemoteClient exposes the cached remote agenda client.
func (c *Container) RemoteClient() remote.Client {
	return c.remote
}

// AgendaService returns the agenda record service.
func (c *Container) AgendaService() agendas.Service {
	return c.agendaSvc
}

// Resolver returns the localization resolver.
func (c *Container) Resolver() *i18n.Resolver {
	return c.resolver
}

// ListingBuilder returns the agenda page builder.
func (c *Container) ListingBuilder() *listing.Builder {
	return c.builder
}

// EventService returns the event detail service.
func (c *Container) EventService() *navigation.Service {
	return c.events
}

// URLBuilder returns the event URL builder.
func (c *Container) URLBuilder() *navigation.URLBuilder {
	return c.urls
}

// TemplateRenderer exposes the configured template renderer.
func (c *Container) TemplateRenderer() interfaces.TemplateRenderer {
	return c.template
}

// AgendaAPI returns the HTTP adapter.
func (c *Container) AgendaAPI() *apihttp.AgendaAPI {
	return c.api
}

// Commands returns the agenda command handlers when commands are enabled.
func (c *Container) Commands() *agendascmd.HandlerSet {
	return c.commands
}

// Warmer returns the scheduled warmer when the scheduler feature is enabled.
func (c *Container) Warmer() *scheduler.Warmer {
	return c.warmer
}
