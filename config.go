package openagenda

import (
	"github.com/goliatone/go-openagenda/internal/runtimeconfig"
	"github.com/spf13/afero"
)

var (
	ErrRemoteBaseURLRequired     = runtimeconfig.ErrRemoteBaseURLRequired
	ErrRemoteTimeoutInvalid      = runtimeconfig.ErrRemoteTimeoutInvalid
	ErrRemoteRetryInvalid        = runtimeconfig.ErrRemoteRetryInvalid
	ErrDefaultLocaleRequired     = runtimeconfig.ErrDefaultLocaleRequired
	ErrDefaultLocaleUnknown      = runtimeconfig.ErrDefaultLocaleUnknown
	ErrColumnsInvalid            = runtimeconfig.ErrColumnsInvalid
	ErrPreviewSizeInvalid        = runtimeconfig.ErrPreviewSizeInvalid
	ErrCacheSettingsInvalid      = runtimeconfig.ErrCacheSettingsInvalid
	ErrStorageProviderUnknown    = runtimeconfig.ErrStorageProviderUnknown
	ErrWarmCronRequiresCommands  = runtimeconfig.ErrWarmCronRequiresCommands
	ErrWarmCronRequiresScheduler = runtimeconfig.ErrWarmCronRequiresScheduler
	ErrLoggingProviderRequired   = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown    = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid       = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid      = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config           = runtimeconfig.Config
	RemoteConfig     = runtimeconfig.RemoteConfig
	I18NConfig       = runtimeconfig.I18NConfig
	DisplayConfig    = runtimeconfig.DisplayConfig
	CacheConfig      = runtimeconfig.CacheConfig
	NavigationConfig = runtimeconfig.NavigationConfig
	SyncConfig       = runtimeconfig.SyncConfig
	StorageConfig    = runtimeconfig.StorageConfig
	CommandsConfig   = runtimeconfig.CommandsConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
	Features         = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML config file from fs on top of the defaults.
func LoadConfig(fs afero.Fs, path string) (Config, error) {
	return runtimeconfig.Load(fs, path)
}
