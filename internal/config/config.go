package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Content  ContentConfig  `yaml:"content"`
	Features FeaturesConfig `yaml:"features"`
	Client   ClientConfig   `yaml:"client"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"Quill"`
	Description string `yaml:"description" default:"A personal blog"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12600"`
}

type DatabaseConfig struct {
	// Driver is either "sqlite" or "postgres".
	Driver string `yaml:"driver" default:"sqlite"`
	DSN    string `yaml:"dsn" default:"./database.db"`
}

type CacheConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Enabled bool          `yaml:"enabled" default:"false"`
	URL     string        `yaml:"url" default:"redis://localhost:6379/0"`
	TTL     time.Duration `yaml:"ttl" default:"10m"`
}

// ArchiveConfig controls the object storage mirror of published posts.
// Credentials come from ARCHIVE_ACCESS_KEY_ID and ARCHIVE_SECRET_ACCESS_KEY.
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled" default:"false"`
	Bucket   string `yaml:"bucket" default:"quill-posts"`
	Endpoint string `yaml:"endpoint" default:""`
	Region   string `yaml:"region" default:"auto"`

	// Gzip stores objects gzip encoded with Content-Encoding set.
	Gzip bool `yaml:"gzip" default:"false"`
}

type ContentConfig struct {
	// Source is "db" or "fs". The fs source is read only.
	Source       string        `yaml:"source" default:"db"`
	PostsPath    string        `yaml:"posts_path" default:"./posts"`
	PostsPerPage int           `yaml:"posts_per_page" default:"50"`
	ReloadEvery  time.Duration `yaml:"reload_every" default:"10s"`
	SyntaxTheme  string        `yaml:"syntax_theme" default:"gruvbox"`

	// Renderer is "mmark" (front matter, callouts) or "classic".
	Renderer string `yaml:"renderer" default:"mmark"`
}

type FeaturesConfig struct {
	Authentication AuthConfig   `yaml:"authentication"`
	Editor         EditorConfig `yaml:"editor"`
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Type    string `yaml:"type" default:"ed25519"`
	UserID  string `yaml:"user_id" default:"admin"`
}

type EditorConfig struct {
	Enabled     bool `yaml:"enabled" default:"true"`
	LivePreview bool `yaml:"live_preview" default:"true"`
}

// ClientConfig configures the quill terminal editor.
type ClientConfig struct {
	ServerURL      string        `yaml:"server_url" default:"http://localhost:12600"`
	LocalDraftPath string        `yaml:"local_draft_path" default:""`
	PrivateKeyPath string        `yaml:"private_key_path" default:"privkey.pem"`
	AutosaveDelay  time.Duration `yaml:"autosave_delay" default:"2s"`
	Timeout        time.Duration `yaml:"timeout" default:"10s"`
}

var AppConfig *Config

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	// Try to read and parse the config file
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	AppConfig = config
	return nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Content.Source {
	case SourceDB, SourceFS:
	default:
		return fmt.Errorf("unsupported content source %q", c.Content.Source)
	}

	if c.Client.AutosaveDelay < 0 {
		return fmt.Errorf("autosave delay must not be negative")
	}

	return nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		if field.Type() == durationType {
			if val, err := time.ParseDuration(defaultValue); err == nil {
				field.SetInt(int64(val))
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
