package storage

import (
	"fmt"
	"os"
	"strconv"

	"github.com/docker/go-units"
)

const (
	BackendFilesystem = "filesystem"
	BackendMinIO      = "minio"
)

// Config contains blob storage configuration.
type Config struct {
	Backend string `toml:"backend"`
	// BasePath is the root directory for filesystem storage.
	// Default: ".data/blobs"
	BasePath         string      `toml:"base_path"`
	MaxUploadSize    string      `toml:"max_upload_size"`
	MinIO            MinIOConfig `toml:"minio"`
	maxUploadSizeVal int64
}

// MinIOConfig addresses an S3-compatible bucket.
type MinIOConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`
}

type Env struct {
	Backend        string
	BasePath       string
	MaxUploadSize  string
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    string
}

func (c *Config) MaxUploadSizeBytes() int64 {
	return c.maxUploadSizeVal
}

// Finalize applies defaults, loads environment overrides, and validates the storage configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if size, err := units.FromHumanSize(overlay.MaxUploadSize); err == nil {
		c.MaxUploadSize = overlay.MaxUploadSize
		c.maxUploadSizeVal = size
	}
	if overlay.MinIO.Endpoint != "" {
		c.MinIO.Endpoint = overlay.MinIO.Endpoint
	}
	if overlay.MinIO.AccessKey != "" {
		c.MinIO.AccessKey = overlay.MinIO.AccessKey
	}
	if overlay.MinIO.SecretKey != "" {
		c.MinIO.SecretKey = overlay.MinIO.SecretKey
	}
	if overlay.MinIO.Bucket != "" {
		c.MinIO.Bucket = overlay.MinIO.Bucket
	}
	if overlay.MinIO.Region != "" {
		c.MinIO.Region = overlay.MinIO.Region
	}
	if overlay.MinIO.UseSSL {
		c.MinIO.UseSSL = true
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFilesystem
	}
	if c.BasePath == "" {
		c.BasePath = ".data/blobs"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "100MB"
	}
	if c.MinIO.Bucket == "" {
		c.MinIO.Bucket = "vera-documents"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.Backend, &c.Backend)
	set(env.BasePath, &c.BasePath)
	set(env.MaxUploadSize, &c.MaxUploadSize)
	set(env.MinIOEndpoint, &c.MinIO.Endpoint)
	set(env.MinIOAccessKey, &c.MinIO.AccessKey)
	set(env.MinIOSecretKey, &c.MinIO.SecretKey)
	set(env.MinIOBucket, &c.MinIO.Bucket)

	if env.MinIOUseSSL != "" {
		if v := os.Getenv(env.MinIOUseSSL); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.MinIO.UseSSL = b
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendFilesystem:
		if c.BasePath == "" {
			return fmt.Errorf("base_path required")
		}
	case BackendMinIO:
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("minio.endpoint required")
		}
	default:
		return fmt.Errorf("invalid backend: %s (must be filesystem or minio)", c.Backend)
	}

	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.maxUploadSizeVal = size

	return nil
}
