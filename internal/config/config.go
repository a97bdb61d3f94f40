// Package config loads deckpack settings. Sources are applied in order:
// built-in defaults, an optional YAML file, DECKPACK_* environment variables
// and finally command line flags that were explicitly set.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/deckpack/internal/media"
)

// EnvPrefix marks environment variables read by Load. A double underscore
// separates nested keys: DECKPACK_MEDIA__JPEG_QUALITY sets media.jpeg_quality.
const EnvPrefix = "DECKPACK_"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds every deckpack setting.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Media   MediaConfig   `koanf:"media"`
	Staging StagingConfig `koanf:"staging"`
	Git     GitConfig     `koanf:"git"`
	Out     string        `koanf:"out" validate:"required"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// MediaConfig controls image transcoding.
type MediaConfig struct {
	MaxImageWidth int `koanf:"max_image_width" validate:"gt=0"`
	JPEGQuality   int `koanf:"jpeg_quality" validate:"min=1,max=100"`
}

// StagingConfig controls where packages are assembled.
type StagingConfig struct {
	// Dir is where staging directories are created. Empty means the system temp dir.
	Dir string `koanf:"dir"`
}

// GitConfig controls where git sources are checked out.
type GitConfig struct {
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

var defaults = map[string]any{
	"log.level":             "info",
	"log.format":            "text",
	"media.max_image_width": media.DefaultMaxWidth,
	"media.jpeg_quality":    media.DefaultQuality,
	"staging.dir":           "",
	"git.repos_dir":         "repos",
	"out":                   "deck.apkg",
}

// flagKeys maps the flags defined by RegisterFlags to config keys.
var flagKeys = map[string]string{
	"log-level":       "log.level",
	"log-format":      "log.format",
	"max-image-width": "media.max_image_width",
	"jpeg-quality":    "media.jpeg_quality",
	"staging-dir":     "staging.dir",
	"repos-dir":       "git.repos_dir",
	"out":             "out",
}

// RegisterFlags defines the flags Load understands on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.String("log-format", "text", "Log format: text or json")
	fs.Int("max-image-width", media.DefaultMaxWidth, "Images wider than this are scaled down")
	fs.Int("jpeg-quality", media.DefaultQuality, "JPEG quality for transcoded images (1-100)")
	fs.String("staging-dir", "", "Directory for temporary build files")
	fs.String("repos-dir", "repos", "Directory git sources are cloned into")
	fs.StringP("out", "o", "deck.apkg", "Path of the package to write")
}

// Load builds the configuration. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		p := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(p, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}
