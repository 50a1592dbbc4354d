package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/dhamidi/jmc/jmc/schema"
)

const (
	FileName  = ".jmc"
	EnvPrefix = "JMC"
)

var AppFs = afero.NewOsFs()

// DefaultBuiltinClasses are the classes the JMC compiler provides out of the
// box; they are offered as completions next to the workspace's own classes.
var DefaultBuiltinClasses = []string{
	"Advancement", "Bossbar", "Entity", "GUI", "Hardcode", "Item", "JMC",
	"Math", "Object", "Particle", "Player", "Predicate", "Raycast", "Recipe",
	"Scoreboard", "String", "Tag", "Team", "Text", "Timer", "Trigger",
}

var DefaultBuiltinFunctions = []string{"print", "printf"}

// keys lists every setting; each can be overridden by JMC_<KEY> with dots
// replaced by underscores.
var keys = []string{
	"file_types",
	"builtins.classes",
	"builtins.functions",
	"schema.base_url",
	"schema.timeout",
	"schema.validate",
	"log.verbosity",
	"log.file",
}

type Config struct {
	FileTypes []string
	Builtins  Builtins
	Schema    Schema
	Log       Log

	// File is the config file that was read, empty when none was found.
	File string
}

type Builtins struct {
	Classes   []string
	Functions []string
}

type Schema struct {
	BaseURL  string
	Timeout  time.Duration
	Validate bool
}

type Log struct {
	Verbosity int
	File      string
}

// Registry returns the file-type registry described by the config.
func (c *Config) Registry() *schema.Registry {
	return schema.NewRegistry(c.FileTypes...)
}

// Validator returns the new-block validator described by the config.
func (c *Config) Validator() *schema.Validator {
	if !c.Schema.Validate {
		return schema.NewValidator(nil, false)
	}
	return schema.NewValidator(schema.NewResolver(c.Schema.BaseURL, c.Schema.Timeout), true)
}

// Load reads configuration for the project in dir. Sources, from lowest to
// highest priority: defaults, the first .jmc.yaml found in dir, home or
// ~/.config/jmc, dir/.env, dir/.env.local, and JMC_ environment variables.
func Load(fs afero.Fs, dir string) (*Config, error) {
	if fs == nil {
		fs = AppFs
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "jmc"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("file_types", schema.DefaultFileTypes)
	v.SetDefault("builtins.classes", DefaultBuiltinClasses)
	v.SetDefault("builtins.functions", DefaultBuiltinFunctions)
	v.SetDefault("schema.base_url", schema.DefaultBaseURL)
	v.SetDefault("schema.timeout", schema.DefaultTimeout)
	v.SetDefault("schema.validate", false)
	v.SetDefault("log.verbosity", 0)
	v.SetDefault("log.file", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	for _, name := range []string{".env", ".env.local"} {
		if err := loadEnvFile(fs, v, filepath.Join(dir, name)); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		FileTypes: v.GetStringSlice("file_types"),
		Builtins: Builtins{
			Classes:   v.GetStringSlice("builtins.classes"),
			Functions: v.GetStringSlice("builtins.functions"),
		},
		Schema: Schema{
			BaseURL:  v.GetString("schema.base_url"),
			Timeout:  v.GetDuration("schema.timeout"),
			Validate: v.GetBool("schema.validate"),
		},
		Log: Log{
			Verbosity: v.GetInt("log.verbosity"),
			File:      v.GetString("log.file"),
		},
		File: v.ConfigFileUsed(),
	}
	if cfg.Log.File != "" {
		if expanded, err := homedir.Expand(cfg.Log.File); err == nil {
			cfg.Log.File = expanded
		}
	}
	return cfg, nil
}

// loadEnvFile applies JMC_ settings from a dotenv file. Variables already set
// in the process environment win.
func loadEnvFile(fs afero.Fs, v *viper.Viper, path string) error {
	f, err := fs.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for _, key := range keys {
		name := EnvName(key)
		value, ok := values[name]
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		v.Set(key, value)
	}
	return nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
