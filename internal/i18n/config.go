package i18n

// FallbackOrder is the fixed order used after the configured languages.
var FallbackOrder = []string{"fr", "en", "de", "es", "it"}

// DefaultLanguage marks "follow the page language" on agenda configuration.
const DefaultLanguage = "default"

// Config lists the languages the site serves.
type Config struct {
	DefaultLocale string
	Locales       []string
}

func FromModuleConfig(defaultLocale string, locales []string) Config {
	return Config{
		DefaultLocale: defaultLocale,
		Locales:       locales,
	}
}
