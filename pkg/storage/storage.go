package storage

// Config holds S3-compatible storage configuration.
type Config struct {
	// Bucket is the bucket name (required).
	Bucket string `env:"STORAGE_BUCKET"`

	// AccessKey is the access key ID (required).
	AccessKey string `env:"STORAGE_ACCESS_KEY"`

	// SecretKey is the secret access key (required).
	SecretKey string `env:"STORAGE_SECRET_KEY"`

	// Endpoint is a custom endpoint URL for MinIO, R2 and friends.
	Endpoint string `env:"STORAGE_ENDPOINT"`

	// Region defaults to us-east-1.
	Region string `env:"STORAGE_REGION" envDefault:"us-east-1"`

	// PathStyle enables path-style addressing (required for MinIO).
	PathStyle bool `env:"STORAGE_PATH_STYLE"`
}

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

// Enabled reports whether enough is configured to talk to a bucket.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}
