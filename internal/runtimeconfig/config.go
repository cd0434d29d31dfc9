package runtimeconfig

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
)

var ErrRemoteBaseURLRequired = errors.New("openagenda config: remote base url is required")
var ErrRemoteTimeoutInvalid = errors.New("openagenda config: remote timeout must be positive")
var ErrRemoteRetryInvalid = errors.New("openagenda config: remote retry attempts must be at least 1")
var ErrDefaultLocaleRequired = errors.New("openagenda config: default locale is required")
var ErrDefaultLocaleUnknown = errors.New("openagenda config: default locale must be listed in locales")
var ErrColumnsInvalid = errors.New("openagenda config: default columns must be between 1 and 4")
var ErrPreviewSizeInvalid = errors.New("openagenda config: preview size must be zero or positive")
var ErrCacheSettingsInvalid = errors.New("openagenda config: cache capacity, shards and ttl must be positive when cache is enabled")
var ErrStorageProviderUnknown = errors.New("openagenda config: storage provider is invalid")
var ErrWarmCronRequiresCommands = errors.New("openagenda config: warm cron requires commands to be enabled")
var ErrWarmCronRequiresScheduler = errors.New("openagenda config: warm cron requires the scheduler feature")
var ErrLoggingProviderRequired = errors.New("openagenda config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("openagenda config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("openagenda config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("openagenda config: logging format is invalid")

// Config aggregates the settings of the agenda module.
type Config struct {
	Enabled    bool             `yaml:"enabled"`
	Remote     RemoteConfig     `yaml:"remote"`
	I18N       I18NConfig       `yaml:"i18n"`
	Display    DisplayConfig    `yaml:"display"`
	Cache      CacheConfig      `yaml:"cache"`
	Navigation NavigationConfig `yaml:"navigation"`
	Sync       SyncConfig       `yaml:"sync"`
	Storage    StorageConfig    `yaml:"storage"`
	Commands   CommandsConfig   `yaml:"commands"`
	Logging    LoggingConfig    `yaml:"logging"`
	Features   Features         `yaml:"features"`
}

// RemoteConfig points at the OpenAgenda API.
type RemoteConfig struct {
	BaseURL       string        `yaml:"base_url"`
	PublicKey     string        `yaml:"public_key"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts uint          `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	UserAgent     string        `yaml:"user_agent"`
}

// I18NConfig lists the languages the host site serves.
type I18NConfig struct {
	DefaultLocale string   `yaml:"default_locale"`
	Locales       []string `yaml:"locales"`
}

// DisplayConfig holds module-wide display settings.
type DisplayConfig struct {
	DefaultStyle   string `yaml:"default_style"`
	DefaultColumns int    `yaml:"default_columns"`
	MapTilesURI    string `yaml:"map_tiles_uri"`
	PreviewSize    int    `yaml:"preview_size"`
	Timezone       string `yaml:"timezone"`
}

// CacheConfig sizes the remote response cache.
type CacheConfig struct {
	Enabled            bool          `yaml:"enabled"`
	DefaultTTL         time.Duration `yaml:"default_ttl"`
	Capacity           int           `yaml:"capacity"`
	Shards             int           `yaml:"shards"`
	EvictionPercentage int           `yaml:"eviction_percentage"`
}

// NavigationConfig captures event detail routing.
type NavigationConfig struct {
	BasePath      string         `yaml:"base_path"`
	ContextParams []string       `yaml:"context_params"`
	RouteConfig   *urlkit.Config `yaml:"-"`
	Group         string         `yaml:"group"`
	EventRoute    string         `yaml:"event_route"`
}

// SyncConfig tunes the filter and pager synchronisation.
type SyncConfig struct {
	Debounce        time.Duration `yaml:"debounce"`
	ContentSelector string        `yaml:"content_selector"`
}

// StorageConfig selects the agenda record store.
type StorageConfig struct {
	Provider string `yaml:"provider"`
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	WarmCron string `yaml:"warm_cron"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider   string   `yaml:"provider"`
	Level      string   `yaml:"level"`
	Format     string   `yaml:"format"`
	AddSource  bool     `yaml:"add_source"`
	Focus      []string `yaml:"focus"`
	File       string   `yaml:"file"`
	MaxSizeMB  int      `yaml:"max_size_mb"`
	MaxBackups int      `yaml:"max_backups"`
}

// Features toggles module functionality.
type Features struct {
	Logger    bool `yaml:"logger"`
	Scheduler bool `yaml:"scheduler"`
}

// DefaultConfig returns the defaults used when no file is loaded.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Remote: RemoteConfig{
			BaseURL:       "https://api.openagenda.com/v2",
			Timeout:       10 * time.Second,
			RetryAttempts: 2,
			RetryDelay:    200 * time.Millisecond,
		},
		I18N: I18NConfig{
			DefaultLocale: "fr",
			Locales:       []string{"fr", "en", "de", "es", "it"},
		},
		Display: DisplayConfig{
			DefaultStyle:   "default",
			DefaultColumns: 3,
			MapTilesURI:    "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			PreviewSize:    3,
			Timezone:       "Europe/Paris",
		},
		Cache: CacheConfig{
			Enabled:            true,
			DefaultTTL:         time.Minute,
			Capacity:           1000,
			Shards:             10,
			EvictionPercentage: 10,
		},
		Navigation: NavigationConfig{
			BasePath:      "/openagenda",
			ContextParams: []string{"oac", "context"},
			Group:         "openagenda",
			EventRoute:    "event",
		},
		Sync: SyncConfig{
			Debounce:        250 * time.Millisecond,
			ContentSelector: "#oa-wrapper",
		},
		Storage: StorageConfig{
			Provider: "memory",
		},
		Logging: LoggingConfig{
			Provider:   "console",
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Remote.BaseURL) == "" {
		return ErrRemoteBaseURLRequired
	}
	if cfg.Remote.Timeout <= 0 {
		return ErrRemoteTimeoutInvalid
	}
	if cfg.Remote.RetryAttempts < 1 {
		return ErrRemoteRetryInvalid
	}
	locale := strings.ToLower(strings.TrimSpace(cfg.I18N.DefaultLocale))
	if locale == "" {
		return ErrDefaultLocaleRequired
	}
	if len(cfg.I18N.Locales) > 0 && !slices.ContainsFunc(cfg.I18N.Locales, func(l string) bool {
		return strings.EqualFold(strings.TrimSpace(l), locale)
	}) {
		return fmt.Errorf("%w: %s", ErrDefaultLocaleUnknown, locale)
	}
	if cfg.Display.DefaultColumns < 1 || cfg.Display.DefaultColumns > 4 {
		return ErrColumnsInvalid
	}
	if cfg.Display.PreviewSize < 0 {
		return ErrPreviewSizeInvalid
	}
	if cfg.Cache.Enabled && (cfg.Cache.Capacity <= 0 || cfg.Cache.Shards <= 0 || cfg.Cache.DefaultTTL <= 0) {
		return ErrCacheSettingsInvalid
	}
	switch normalizeProvider(cfg.Storage.Provider) {
	case "memory", "bun":
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}
	if strings.TrimSpace(cfg.Commands.WarmCron) != "" {
		if !cfg.Commands.Enabled {
			return ErrWarmCronRequiresCommands
		}
		if !cfg.Features.Scheduler {
			return ErrWarmCronRequiresScheduler
		}
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
