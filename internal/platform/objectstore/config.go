package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/foundry-app/foundry-go/internal/platform/env"
)

type Config struct {
	Endpoint          string
	AccessKey         string
	SecretKey         string
	Region            string
	UseSSL            bool
	BucketTranscripts string
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("FOUNDRY_MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:          env.String("FOUNDRY_MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:         env.String("FOUNDRY_MINIO_ACCESS_KEY", "foundry"),
		SecretKey:         env.String("FOUNDRY_MINIO_SECRET_KEY", "foundryminio"),
		Region:            env.String("FOUNDRY_MINIO_REGION", "us-east-1"),
		UseSSL:            useSSL,
		BucketTranscripts: env.String("FOUNDRY_MINIO_BUCKET_TRANSCRIPTS", "ideation-transcripts"),
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
	if strings.TrimSpace(c.BucketTranscripts) == "" {
		return errors.New("transcripts bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}
