package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	apierrors "apidump/internal/errors"
	"apidump/internal/paths"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// Config represents the apidump configuration (v1)
type Config struct {
	Version int           `json:"version" mapstructure:"version" validate:"eq=1"`
	Render  RenderConfig  `json:"render" mapstructure:"render"`
	Input   InputConfig   `json:"input" mapstructure:"input"`
	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
	Watch   WatchConfig   `json:"watch" mapstructure:"watch"`
}

// RenderConfig holds output switches
type RenderConfig struct {
	ShowAllInterfaces    bool `json:"showAllInterfaces" mapstructure:"showAllInterfaces"`
	ShowUnsafeValueTypes bool `json:"showUnsafeValueTypes" mapstructure:"showUnsafeValueTypes"`
	ShowNullable         bool `json:"showNullable" mapstructure:"showNullable"`
}

// InputConfig controls how inputs are loaded
type InputConfig struct {
	// DefaultFormat is used for inputs whose extension is not recognised.
	DefaultFormat string `json:"defaultFormat,omitempty" mapstructure:"defaultFormat" validate:"omitempty,oneof=yaml json toml cs scip"`
	Parallelism   int    `json:"parallelism" mapstructure:"parallelism" validate:"gte=1,lte=64"`
}

// StorageConfig locates the snapshot database
type StorageConfig struct {
	// Path is relative to the .apidump directory unless absolute.
	Path string `json:"path" mapstructure:"path" validate:"required,sqlitefile"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" mapstructure:"format" validate:"oneof=human json"`
	// File additionally receives every record when set.
	File string `json:"file,omitempty" mapstructure:"file"`
	// MaxSize rotates File once it would exceed this size ("10MB"); empty disables.
	MaxSize    string `json:"maxSize,omitempty" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups" validate:"gte=0,lte=100"`
}

// WatchConfig tunes dump --watch
type WatchConfig struct {
	DebounceMs int `json:"debounceMs" mapstructure:"debounceMs" validate:"gte=0,lte=60000"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Render: RenderConfig{
			ShowNullable: true,
		},
		Input: InputConfig{
			Parallelism: 4,
		},
		Storage: StorageConfig{
			Path: "snapshots.db",
		},
		Logging: LoggingConfig{
			Level:      "warn",
			Format:     "human",
			MaxBackups: 3,
		},
		Watch: WatchConfig{
			DebounceMs: 250,
		},
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("sqlitefile", validateSqliteFile)
}

// validateSqliteFile rejects paths that name a directory.
func validateSqliteFile(fl validator.FieldLevel) bool {
	p := fl.Field().String()
	return p != "" && !strings.HasSuffix(p, "/") && !strings.HasSuffix(p, string(filepath.Separator))
}

// EnvPrefix is prepended to environment overrides, e.g. APIDUMP_LOGGING_LEVEL.
const EnvPrefix = "APIDUMP"

func newViper(repoRoot string) *viper.Viper {
	v := viper.New()
	def := DefaultConfig()

	v.SetDefault("version", def.Version)
	v.SetDefault("render.showAllInterfaces", def.Render.ShowAllInterfaces)
	v.SetDefault("render.showUnsafeValueTypes", def.Render.ShowUnsafeValueTypes)
	v.SetDefault("render.showNullable", def.Render.ShowNullable)
	v.SetDefault("input.defaultFormat", def.Input.DefaultFormat)
	v.SetDefault("input.parallelism", def.Input.Parallelism)
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.maxSize", def.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", def.Logging.MaxBackups)
	v.SetDefault("watch.debounceMs", def.Watch.DebounceMs)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(paths.ConfigDir(repoRoot))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads configuration from .apidump/config.json under repoRoot.
// A missing file yields the defaults, still subject to environment overrides.
func LoadConfig(repoRoot string) (*Config, error) {
	v := newViper(repoRoot)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, apierrors.New(apierrors.ConfigInvalid, "reading config", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apierrors.New(apierrors.ConfigInvalid, "decoding config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to .apidump/config.json
func (c *Config) Save(repoRoot string) error {
	if _, err := paths.EnsureConfigDir(repoRoot); err != nil {
		return apierrors.New(apierrors.StorageError, "creating config directory", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(paths.ConfigFile(repoRoot), data, 0644)
}

// Validate checks the struct tags and reports the first failing field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			cerr := &ConfigError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed %q (value %v)", fe.Tag(), fe.Value()),
			}
			return apierrors.New(apierrors.ConfigInvalid, cerr.Error(), cerr).WithDetails(map[string]string{"field": cerr.Field})
		}
		return apierrors.New(apierrors.ConfigInvalid, "invalid config", err)
	}
	return nil
}

// StoragePath resolves the snapshot database location.
func (c *Config) StoragePath(repoRoot string) string {
	if filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(paths.ConfigDir(repoRoot), c.Storage.Path)
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
