package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of environment variables overriding config keys.
	EnvPrefix = "RECTIFY"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultBackend is the default remote storage backend.
	DefaultBackend = BackendDrive

	// DefaultConcurrency is the number of uploads allowed in flight at once.
	DefaultConcurrency = 4

	// DefaultCredentialsFile is the service account key used for Drive.
	DefaultCredentialsFile = "rectifyCredentials.json"

	// DefaultS3Region is used when no S3 region is configured.
	DefaultS3Region = "us-east-1"

	redacted = "<redacted>"
)

// Supported remote storage backends.
const (
	BackendDrive = "drive"
	BackendS3    = "s3"
)

// ErrUnsupportedBackend is returned for an unknown upload.backend value.
var ErrUnsupportedBackend = errors.New("unsupported backend")

// Config is the root configuration for rectify.
type Config struct {
	Global GlobalConfig `yaml:"global" mapstructure:"global"`
	Upload UploadConfig `yaml:"upload" mapstructure:"upload"`
	Drive  DriveConfig  `yaml:"drive" mapstructure:"drive"`
	S3     S3Config     `yaml:"s3" mapstructure:"s3"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// UploadConfig controls how a directory tree is mirrored.
type UploadConfig struct {
	Backend     string `yaml:"backend" mapstructure:"backend"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	Preflight   bool   `yaml:"preflight" mapstructure:"preflight"`
}

// DriveConfig contains Google Drive settings.
type DriveConfig struct {
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
}

// S3Config contains settings for S3-compatible storage.
type S3Config struct {
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
	Prefix          string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	StorageClass    string `yaml:"storage_class,omitempty" mapstructure:"storage_class"`
	ACL             string `yaml:"acl,omitempty" mapstructure:"acl"`
}

// Load reads the configuration file at path (optional, may be empty) and
// applies RECTIFY_* environment overrides on top of it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// LoadDotEnv loads environment variables from a .env file when it exists.
// Variables already present in the environment are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// setDefaults registers every key so that AutomaticEnv can resolve
// overrides for keys absent from the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("global.log_level", DefaultLogLevel)

	v.SetDefault("upload.backend", DefaultBackend)
	v.SetDefault("upload.concurrency", DefaultConcurrency)
	v.SetDefault("upload.preflight", true)

	v.SetDefault("drive.credentials_file", DefaultCredentialsFile)

	v.SetDefault("s3.endpoint_url", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.force_path_style", false)
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.storage_class", "")
	v.SetDefault("s3.acl", "")
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Upload.Backend == "" {
		c.Upload.Backend = DefaultBackend
	}

	if c.Upload.Concurrency == 0 {
		c.Upload.Concurrency = DefaultConcurrency
	}

	if c.Drive.CredentialsFile == "" {
		c.Drive.CredentialsFile = DefaultCredentialsFile
	}

	if c.S3.Region == "" {
		c.S3.Region = DefaultS3Region
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Upload.Concurrency < 1 {
		return fmt.Errorf("upload.concurrency must be at least 1, got %d", c.Upload.Concurrency)
	}

	switch c.Upload.Backend {
	case BackendDrive:
		if c.Drive.CredentialsFile == "" {
			return fmt.Errorf("drive.credentials_file is required")
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required for the s3 backend")
		}

		if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
			return fmt.Errorf("s3.access_key_id and s3.secret_access_key must be set together")
		}
	default:
		return fmt.Errorf("upload.backend %q: %w", c.Upload.Backend, ErrUnsupportedBackend)
	}

	return nil
}

// Redacted returns a copy of the configuration with secrets masked,
// suitable for printing.
func (c *Config) Redacted() *Config {
	out := *c

	if out.S3.SecretAccessKey != "" {
		out.S3.SecretAccessKey = redacted
	}

	if out.S3.AccessKeyID != "" {
		out.S3.AccessKeyID = redacted
	}

	return &out
}
