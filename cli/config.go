package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ka2n/fhirval/api"
	"github.com/ka2n/fhirval/api/cache"
	"github.com/ka2n/fhirval/api/validation"
	"github.com/morikuni/failure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the merged configuration of defaults, config file,
// FHIRVAL_* environment variables and flags.
type Config struct {
	Server      string        `mapstructure:"server" validate:"required,url"`
	Root        string        `mapstructure:"root"`
	Profile     string        `mapstructure:"profile"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Concurrency int           `mapstructure:"concurrency" validate:"min=0"`
	Template    string        `mapstructure:"template"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" validate:"min=0"`
	Viewer      string        `mapstructure:"viewer" validate:"omitempty,url"`
}

const envPrefix = "FHIRVAL"

var validate = validator.New()

// flagKeys maps config keys to the flag that overrides them
var flagKeys = map[string]string{
	"server":      "server",
	"root":        "root",
	"timeout":     "timeout",
	"concurrency": "concurrency",
	"template":    "template",
	"cache_ttl":   "cache-ttl",
	"viewer":      "viewer",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server", "http://localhost:8080")
	v.SetDefault("root", validation.DefaultRoot)
	v.SetDefault("profile", "")
	v.SetDefault("timeout", 60*time.Second)
	v.SetDefault("concurrency", 0)
	v.SetDefault("template", "")
	v.SetDefault("cache_ttl", cache.DefaultTTL)
	v.SetDefault("viewer", "")
}

func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("fhirval")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "fhirval"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, failure.New(InvalidConfig,
				failure.Message("Failed to read config file"),
				failure.Context{"file": configFile, "error": err.Error()},
			)
		}
	}
	return v, nil
}

// loadConfig merges v with the flags that were set on the command line
func loadConfig(v *viper.Viper, flags *pflag.FlagSet, profile *profileFlag) (*Config, error) {
	for key, name := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, failure.Wrap(err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, failure.New(InvalidConfig,
			failure.Message("Invalid configuration"),
			failure.Context{"error": err.Error()},
		)
	}

	if profile != nil && profile.IsSet {
		c.Profile = profile.Value
	}
	if !validation.IsSelected(c.Profile) {
		c.Profile = ""
	}
	if c.Viewer == "" {
		c.Viewer = strings.TrimSuffix(c.Server, "/") + "/visualiser/index.html"
	}

	if err := validate.Struct(c); err != nil {
		return nil, failure.New(InvalidConfig,
			failure.Message("Invalid configuration: "+err.Error()),
		)
	}
	return &c, nil
}

// Options converts the config into service options
func (c *Config) Options() api.Options {
	return api.Options{
		Server:      c.Server,
		Root:        c.Root,
		Profile:     c.Profile,
		Timeout:     c.Timeout,
		Concurrency: c.Concurrency,
		Template:    c.Template,
		CacheTTL:    c.CacheTTL,
	}
}
