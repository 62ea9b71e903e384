package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds the settings foreman reads from config.toml, the environment
// and command line flags.
type Config struct {
	// APIURL is the build service API foreman starts on.
	APIURL string `mapstructure:"api_url" validate:"required"`
	// Servers are the API URLs the server switcher cycles through.
	Servers []string `mapstructure:"servers" validate:"dive,required"`
	// User and Password are sent as HTTP basic auth. User also owns the
	// watchlist.
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"min=1s"`
	LogStreamDelay  time.Duration `mapstructure:"log_stream_delay" validate:"min=100ms"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"min=1s"`

	// LogFile receives foreman's own diagnostics while the TUI runs.
	LogFile string `mapstructure:"log_file"`
	// PrefsPath is where UI preferences are persisted.
	PrefsPath string `mapstructure:"prefs_path"`
}

const (
	defaultConfigPath      = "~/.config/foreman/config.toml"
	defaultLogFile         = "~/.local/state/foreman/foreman.log"
	defaultPrefsPath       = "~/.config/foreman/prefs.toml"
	defaultAPIURL          = "https://api.opensuse.org"
	defaultRefreshInterval = 10 * time.Second
	defaultLogStreamDelay  = time.Second
	defaultRequestTimeout  = 30 * time.Second

	envPrefix = "FOREMAN"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:          defaultAPIURL,
		RefreshInterval: defaultRefreshInterval,
		LogStreamDelay:  defaultLogStreamDelay,
		RequestTimeout:  defaultRequestTimeout,
		LogFile:         mustExpand(defaultLogFile),
		PrefsPath:       mustExpand(defaultPrefsPath),
	}
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field   string
	Tag     string
	Value   any
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// ValidationErrors collects every failed rule of a config.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Message)
	}
	return strings.Join(msgs, "; ")
}

// Loader merges defaults, the config file, FOREMAN_* environment variables
// and flag overrides, in increasing precedence.
type Loader struct {
	v         *viper.Viper
	validate  *validator.Validate
	overrides map[string]any
}

// NewLoader creates a loader with no overrides.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{
		v:         v,
		validate:  validator.New(),
		overrides: make(map[string]any),
	}
}

// SetOverride sets a value that wins over every other source. Keys use the
// file names, e.g. "api_url".
func (l *Loader) SetOverride(key string, value any) {
	l.overrides[key] = value
}

// Load reads the config at path, or ~/.config/foreman/config.toml when path
// is empty. A missing file is not an error.
func (l *Loader) Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	l.setDefaults()
	if _, err := os.Stat(resolved); err == nil {
		l.v.SetConfigFile(resolved)
		if err := l.v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	for key, value := range l.overrides {
		l.v.Set(key, value)
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	if err := l.Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the config at path using environment overrides only.
func Load(path string) (Config, error) {
	return NewLoader().Load(path)
}

// Validate checks cfg against its struct rules.
func (l *Loader) Validate(cfg Config) error {
	err := l.validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation error: %w", err)
	}
	errs := make(ValidationErrors, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		errs = append(errs, FieldError{
			Field:   e.Namespace(),
			Tag:     e.Tag(),
			Value:   e.Value(),
			Message: formatValidationError(e),
		})
	}
	return errs
}

func (l *Loader) setDefaults() {
	d := Default()
	l.v.SetDefault("api_url", d.APIURL)
	l.v.SetDefault("servers", []string{})
	l.v.SetDefault("user", "")
	l.v.SetDefault("password", "")
	l.v.SetDefault("refresh_interval", d.RefreshInterval)
	l.v.SetDefault("log_stream_delay", d.LogStreamDelay)
	l.v.SetDefault("request_timeout", d.RequestTimeout)
	l.v.SetDefault("log_file", defaultLogFile)
	l.v.SetDefault("prefs_path", defaultPrefsPath)
}

func (c *Config) normalize() {
	c.APIURL = strings.TrimSpace(c.APIURL)
	c.User = strings.TrimSpace(c.User)
	servers := c.Servers[:0]
	for _, s := range c.Servers {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	c.Servers = servers
	if strings.TrimSpace(c.LogFile) == "" {
		c.LogFile = defaultLogFile
	}
	if strings.TrimSpace(c.PrefsPath) == "" {
		c.PrefsPath = defaultPrefsPath
	}
	c.LogFile = mustExpand(c.LogFile)
	c.PrefsPath = mustExpand(c.PrefsPath)
}

func formatValidationError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("'%s' is required", field)
	case "min":
		return fmt.Sprintf("'%s' must be at least %s (got '%v')", field, e.Param(), e.Value())
	default:
		return fmt.Sprintf("'%s' failed validation '%s'", field, e.Tag())
	}
}

// DefaultPath returns the config file read when no path is given.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
