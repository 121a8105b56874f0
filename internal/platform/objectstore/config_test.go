package objectstore

import "testing"

func TestConfigFromEnvDisabledByDefault(t *testing.T) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() err=%v", err)
	}
	if cfg.Enabled {
		t.Fatalf("expected object store to be disabled by default")
	}
}

func TestConfigValidateRejectsScheme(t *testing.T) {
	t.Setenv("GEM5ART_MINIO_ENABLED", "true")
	t.Setenv("GEM5ART_MINIO_ENDPOINT", "http://localhost:9000")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatalf("expected endpoint with scheme to fail")
	}
}

func TestConfigValidateRequiresBuckets(t *testing.T) {
	cfg := Config{
		Endpoint:        "localhost:9000",
		AccessKey:       "a",
		SecretKey:       "s",
		Region:          "us-east-1",
		BucketArtifacts: "artifacts",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing runs bucket to fail")
	}
	cfg.BucketRuns = "runs"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
}
