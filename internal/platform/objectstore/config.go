package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ChenBoya-prj/gem5-skylake-config/internal/platform/env"
)

// Config locates the S3-compatible store that keeps artifact payloads and run
// outputs. Enabled is false unless GEM5ART_MINIO_ENABLED is set.
type Config struct {
	Enabled         bool
	Endpoint        string
	AccessKey       string
	SecretKey       string
	Region          string
	UseSSL          bool
	BucketArtifacts string
	BucketRuns      string
}

func ConfigFromEnv() (Config, error) {
	enabled, err := env.Bool("GEM5ART_MINIO_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	useSSL, err := env.Bool("GEM5ART_MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Enabled:         enabled,
		Endpoint:        env.String("GEM5ART_MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:       env.String("GEM5ART_MINIO_ACCESS_KEY", "gem5art"),
		SecretKey:       env.String("GEM5ART_MINIO_SECRET_KEY", "gem5artminio"),
		Region:          env.String("GEM5ART_MINIO_REGION", "us-east-1"),
		UseSSL:          useSSL,
		BucketArtifacts: env.String("GEM5ART_MINIO_BUCKET_ARTIFACTS", "gem5art-artifacts"),
		BucketRuns:      env.String("GEM5ART_MINIO_BUCKET_RUNS", "gem5art-runs"),
	}
	if !cfg.Enabled {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.BucketArtifacts) == "" {
		return errors.New("artifacts bucket is required")
	}
	if strings.TrimSpace(c.BucketRuns) == "" {
		return errors.New("runs bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}
