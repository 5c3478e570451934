package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
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

const (
	BackendFS     = "fs"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// Environment variables that override values from the config file.
const (
	EnvDraftsDir  = "XMCP_DRAFTS_DIR"
	EnvLedgerPath = "XMCP_LEDGER_PATH"
	EnvLogLevel   = "XMCP_LOG_LEVEL"
)

// Config represents the complete configuration structure
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Drafts  DraftsConfig  `yaml:"drafts"`
	Publish PublishConfig `yaml:"publish"`
	X       XConfig       `yaml:"x"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Name    string `yaml:"name" default:"x_mcp"`
	Version string `yaml:"version" default:"0.2.0"`
}

type DraftsConfig struct {
	Backend string   `yaml:"backend" default:"fs"`
	Dir     string   `yaml:"dir" default:"drafts"`
	S3      S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket             string `yaml:"bucket" default:""`
	Prefix             string `yaml:"prefix" default:"drafts/"`
	Endpoint           string `yaml:"endpoint" default:""`
	Region             string `yaml:"region" default:"auto"`
	UsePathStyle       bool   `yaml:"use_path_style" default:"false"`
	AccessKeyIDEnv     string `yaml:"access_key_id_env" default:"S3_ACCESS_KEY_ID"`
	SecretAccessKeyEnv string `yaml:"secret_access_key_env" default:"S3_SECRET_ACCESS_KEY"`
}

type PublishConfig struct {
	// Interval is the pause between successive posts of a thread.
	Interval Duration `yaml:"interval" default:"1s"`
	// LedgerPath is the SQLite file recording per-post publish progress.
	// An empty path keeps progress in memory only.
	LedgerPath string `yaml:"ledger_path" default:"publish.db"`
}

type XConfig struct {
	APIBase    string   `yaml:"api_base" default:"https://api.twitter.com"`
	UploadBase string   `yaml:"upload_base" default:"https://upload.twitter.com"`
	Timeout    Duration `yaml:"timeout" default:"30s"`

	APIKeyEnv            string `yaml:"api_key_env" default:"TWITTER_API_KEY"`
	APISecretEnv         string `yaml:"api_secret_env" default:"TWITTER_API_SECRET"`
	AccessTokenEnv       string `yaml:"access_token_env" default:"TWITTER_ACCESS_TOKEN"`
	AccessTokenSecretEnv string `yaml:"access_token_secret_env" default:"TWITTER_ACCESS_TOKEN_SECRET"`
}

type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint. Empty disables it.
	Addr string `yaml:"addr" default:""`
}

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
}

// Duration wraps time.Duration for YAML values like "1s" or "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

var durationType = reflect.TypeOf(Duration{})

// Default returns a Config with every default value applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig reads the YAML file at path on top of the defaults and applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnv(config *Config) {
	if v := os.Getenv(EnvDraftsDir); v != "" {
		config.Drafts.Dir = v
	}
	if v, ok := os.LookupEnv(EnvLedgerPath); ok {
		config.Publish.LedgerPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Logging.Level = v
	}
}

// Validate checks values that cannot be fixed up by defaults.
func (c *Config) Validate() error {
	switch c.Drafts.Backend {
	case BackendFS:
		if c.Drafts.Dir == "" {
			return fmt.Errorf("drafts.dir is required for the %q backend", BackendFS)
		}
	case BackendS3:
		if c.Drafts.S3.Bucket == "" {
			return fmt.Errorf("drafts.s3.bucket is required for the %q backend", BackendS3)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported drafts backend %q", c.Drafts.Backend)
	}

	if c.Publish.Interval.Duration < 0 {
		return fmt.Errorf("publish.interval must not be negative")
	}
	if c.X.Timeout.Duration <= 0 {
		return fmt.Errorf("x.timeout must be positive")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported logging format %q", c.Logging.Format)
	}
	return nil
}

// Credentials are the OAuth 1.0a user-context secrets for the platform API.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// Credentials resolves the platform credentials from the environment
// variables named in the config. All four are required.
func (c XConfig) Credentials() (Credentials, error) {
	creds := Credentials{
		APIKey:            os.Getenv(c.APIKeyEnv),
		APISecret:         os.Getenv(c.APISecretEnv),
		AccessToken:       os.Getenv(c.AccessTokenEnv),
		AccessTokenSecret: os.Getenv(c.AccessTokenSecretEnv),
	}

	var missing []string
	for name, v := range map[string]string{
		c.APIKeyEnv:            creds.APIKey,
		c.APISecretEnv:         creds.APISecret,
		c.AccessTokenEnv:       creds.AccessToken,
		c.AccessTokenSecretEnv: creds.AccessTokenSecret,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return Credentials{}, fmt.Errorf("platform API credentials are required, missing: %s", strings.Join(missing, ", "))
	}
	return creds, nil
}

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

		defaultValue := fieldType.Tag.Get("default")

		if field.Type() == durationType {
			if defaultValue == "" {
				continue
			}
			if d, err := time.ParseDuration(defaultValue); err == nil {
				field.Set(reflect.ValueOf(Duration{d}))
			}
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		if defaultValue == "" {
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
