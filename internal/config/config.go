package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	envPrefix              = "PORTFOLIO"
	defaultAddr            = ":8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultFetchTimeout    = 5 * time.Second
	defaultItemsURL        = "data/projects.json"
	defaultUpdatesURL      = "data/updates.json"
	defaultSiteName        = "Kiv's Lab"
	defaultSiteLang        = "zh-TW"
	defaultLogLevel        = "info"
	defaultTemplatesDir    = "templates"
	defaultPublicDir       = "public"
	defaultLocalesDir      = "locales"
	defaultNotesDir        = "notes"
	defaultDataDir         = "data"
	defaultExportDir       = "dist"
	defaultLatestUpdates   = 3
	defaultRefreshInterval = 0
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Paths   PathsConfig   `mapstructure:"paths"`
	Content ContentConfig `mapstructure:"content"`
	Site    SiteConfig    `mapstructure:"site"`
	Log     LogConfig     `mapstructure:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Dev          bool          `mapstructure:"dev"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// PathsConfig lists the on-disk directories the site is built from.
type PathsConfig struct {
	Templates string `mapstructure:"templates"`
	Public    string `mapstructure:"public"`
	Locales   string `mapstructure:"locales"`
	Notes     string `mapstructure:"notes"`
	Data      string `mapstructure:"data"`
	Export    string `mapstructure:"export"`
}

// ContentConfig points at the JSON resources and controls how they are refreshed.
type ContentConfig struct {
	ItemsURL        string        `mapstructure:"items_url"`
	UpdatesURL      string        `mapstructure:"updates_url"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Watch           bool          `mapstructure:"watch"`
	LatestUpdates   int           `mapstructure:"latest_updates"`
}

// SiteConfig holds the identity shown in the layout and structured data.
type SiteConfig struct {
	Name      string   `mapstructure:"name"`
	Author    string   `mapstructure:"author"`
	Email     string   `mapstructure:"email"`
	GitHub    string   `mapstructure:"github"`
	BaseURL   string   `mapstructure:"base_url"`
	Lang      string   `mapstructure:"lang"`
	Languages []string `mapstructure:"languages"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	file        string
	searchPaths []string
	flags       map[string]*pflag.Flag
}

// WithConfigFile reads the given file instead of searching for config.yaml.
// A missing explicit file is an error.
func WithConfigFile(path string) Option {
	return func(o *loaderOptions) {
		o.file = strings.TrimSpace(path)
	}
}

// WithSearchPaths overrides the directories searched for config.yaml.
func WithSearchPaths(paths ...string) Option {
	return func(o *loaderOptions) {
		o.searchPaths = append([]string(nil), paths...)
	}
}

// WithFlag binds a command-line flag to a config key. Flags only override
// the other sources when they were set explicitly.
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(o *loaderOptions) {
		if flag == nil {
			return
		}
		if o.flags == nil {
			o.flags = map[string]*pflag.Flag{}
		}
		o.flags[key] = flag
	}
}

// Load resolves configuration from defaults, an optional YAML file,
// PORTFOLIO_* environment variables and bound flags, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{searchPaths: []string{"."}}
	for _, opt := range opts {
		opt(&options)
	}

	v := viper.New()
	setDefaults(v)

	if options.file != "" {
		v.SetConfigFile(options.file)
	} else {
		for _, p := range options.searchPaths {
			v.AddConfigPath(p)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, flag := range options.flags {
		if err := v.BindPFlag(key, flag); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if options.file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	// Hosting platforms hand out the listen port as PORT.
	if addrFromDefault(v, options.flags) {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			cfg.Server.Addr = ":" + port
		}
	}

	cfg.normalise()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", defaultAddr)
	v.SetDefault("server.dev", false)
	v.SetDefault("server.read_timeout", defaultReadTimeout)
	v.SetDefault("server.write_timeout", defaultWriteTimeout)
	v.SetDefault("server.idle_timeout", defaultIdleTimeout)

	v.SetDefault("paths.templates", defaultTemplatesDir)
	v.SetDefault("paths.public", defaultPublicDir)
	v.SetDefault("paths.locales", defaultLocalesDir)
	v.SetDefault("paths.notes", defaultNotesDir)
	v.SetDefault("paths.data", defaultDataDir)
	v.SetDefault("paths.export", defaultExportDir)

	v.SetDefault("content.items_url", defaultItemsURL)
	v.SetDefault("content.updates_url", defaultUpdatesURL)
	v.SetDefault("content.fetch_timeout", defaultFetchTimeout)
	v.SetDefault("content.refresh_interval", defaultRefreshInterval)
	v.SetDefault("content.watch", false)
	v.SetDefault("content.latest_updates", defaultLatestUpdates)

	v.SetDefault("site.name", defaultSiteName)
	v.SetDefault("site.author", "Kiv")
	v.SetDefault("site.email", "")
	v.SetDefault("site.github", "")
	v.SetDefault("site.base_url", "")
	v.SetDefault("site.lang", defaultSiteLang)
	v.SetDefault("site.languages", []string{"zh-TW", "en"})

	v.SetDefault("log.level", defaultLogLevel)
}

func (c *Config) normalise() {
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	c.Content.ItemsURL = strings.TrimSpace(c.Content.ItemsURL)
	c.Content.UpdatesURL = strings.TrimSpace(c.Content.UpdatesURL)
	c.Site.BaseURL = strings.TrimRight(strings.TrimSpace(c.Site.BaseURL), "/")
	c.Site.Lang = strings.TrimSpace(c.Site.Lang)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))

	langs := make([]string, 0, len(c.Site.Languages))
	seen := map[string]struct{}{}
	for _, l := range c.Site.Languages {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		langs = append(langs, l)
	}
	c.Site.Languages = langs
}

func (c Config) validate() error {
	var invalid []string
	if c.Server.Addr == "" {
		invalid = append(invalid, "server.addr")
	}
	if c.Server.ReadTimeout <= 0 {
		invalid = append(invalid, "server.read_timeout")
	}
	if c.Server.WriteTimeout <= 0 {
		invalid = append(invalid, "server.write_timeout")
	}
	if c.Server.IdleTimeout <= 0 {
		invalid = append(invalid, "server.idle_timeout")
	}
	if c.Paths.Templates == "" {
		invalid = append(invalid, "paths.templates")
	}
	if c.Content.ItemsURL == "" {
		invalid = append(invalid, "content.items_url")
	}
	if c.Content.FetchTimeout <= 0 {
		invalid = append(invalid, "content.fetch_timeout")
	}
	if c.Content.RefreshInterval < 0 {
		invalid = append(invalid, "content.refresh_interval")
	}
	if c.Content.LatestUpdates <= 0 {
		invalid = append(invalid, "content.latest_updates")
	}
	if c.Site.BaseURL != "" {
		if u, err := url.Parse(c.Site.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			invalid = append(invalid, "site.base_url")
		}
	}
	if c.Site.Lang == "" || !contains(c.Site.Languages, c.Site.Lang) {
		invalid = append(invalid, "site.lang")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		invalid = append(invalid, "log.level")
	}
	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func addrFromDefault(v *viper.Viper, flags map[string]*pflag.Flag) bool {
	if _, ok := os.LookupEnv(envPrefix + "_SERVER_ADDR"); ok {
		return false
	}
	if v.InConfig("server.addr") {
		return false
	}
	if f, ok := flags["server.addr"]; ok && f.Changed {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
