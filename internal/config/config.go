// Package config loads the service configuration from the environment.
//
// Every concern owns its Config struct with env tags next to the code that
// uses it; this package only composes them and adds the settings that have
// no package of their own.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/corporategifts/giftsite/internal/httpapi"
	"github.com/corporategifts/giftsite/internal/notify"
	"github.com/corporategifts/giftsite/internal/scheduler"
	"github.com/corporategifts/giftsite/pkg/catalog"
	"github.com/corporategifts/giftsite/pkg/db"
	"github.com/corporategifts/giftsite/pkg/httpclient"
	"github.com/corporategifts/giftsite/pkg/logger"
	"github.com/corporategifts/giftsite/pkg/redis"
	"github.com/corporategifts/giftsite/pkg/storage"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the whole service configuration.
type Config struct {
	HTTP       httpapi.Config
	Log        logger.Config
	HTTPClient httpclient.Config
	Catalog    CatalogConfig
	Cache      CacheConfig
	Forms      FormsConfig
	Scheduler  SchedulerConfig
	Queue      QueueConfig
	Redis      redis.Config
	Database   db.Config
	Storage    storage.Config
	Notify     notify.Config
	Resend     notify.ResendConfig
}

// CatalogConfig points at the catalog REST API.
type CatalogConfig struct {
	BaseURL string `env:"CATALOG_BASE_URL"`
}

// CacheConfig tunes the catalog caches.
type CacheConfig struct {
	RedisPrefix   string        `env:"CACHE_REDIS_PREFIX" envDefault:"giftsite:swr:"`
	StaleTime     time.Duration `env:"CACHE_STALE_TIME" envDefault:"30m"`
	RetryInterval time.Duration `env:"CACHE_RETRY_INTERVAL" envDefault:"10s"`
	FetchTimeout  time.Duration `env:"CACHE_FETCH_TIMEOUT" envDefault:"30s"`
	StoreTimeout  time.Duration `env:"CACHE_STORE_TIMEOUT" envDefault:"500ms"`
	RetryCount    int           `env:"CACHE_RETRY_COUNT" envDefault:"1"`
}

// FormsConfig lists the submission sinks. Sinks with an empty URL are off.
type FormsConfig struct {
	SheetURL        string        `env:"FORMS_SHEET_URL"`
	SheetToken      string        `env:"FORMS_SHEET_TOKEN"`
	FormsAPIURL     string        `env:"FORMS_API_URL"`
	QuoteURL        string        `env:"FORMS_QUOTE_URL"`
	ArchivePrefix   string        `env:"FORMS_ARCHIVE_PREFIX" envDefault:"submissions"`
	DeliveryTimeout time.Duration `env:"FORMS_DELIVERY_TIMEOUT" envDefault:"30s"`
	CallbackFormID  int           `env:"FORMS_CALLBACK_FORM_ID" envDefault:"4"`
	Mail            bool          `env:"FORMS_MAIL" envDefault:"true"`
}

// SchedulerConfig controls catalog warmup.
type SchedulerConfig struct {
	WarmSchedule string        `env:"SCHEDULER_WARM_SCHEDULE" envDefault:"*/20 * * * *"`
	TaskTimeout  time.Duration `env:"SCHEDULER_TASK_TIMEOUT" envDefault:"2m"`
	WarmOnStart  bool          `env:"SCHEDULER_WARM_ON_START" envDefault:"true"`
}

// QueueConfig tunes durable delivery when a database is configured.
type QueueConfig struct {
	Workers    int           `env:"QUEUE_WORKERS" envDefault:"4"`
	JobTimeout time.Duration `env:"QUEUE_JOB_TIMEOUT" envDefault:"1m"`
}

// Load reads optional dotenv files (".env" when none are named) and then
// parses the process environment. Variables already set win over the files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return finish(&cfg)
}

// Parse builds a Config from an explicit environment, ignoring the process.
func Parse(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	if cfg.Catalog.BaseURL == "" {
		cfg.Catalog.BaseURL = catalog.DefaultBaseURL
	}
	if cfg.Scheduler.WarmSchedule == "" {
		cfg.Scheduler.WarmSchedule = scheduler.DefaultWarmSchedule
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.HTTP.RequestTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_REQUEST_TIMEOUT must be positive"))
	}
	if c.Cache.StaleTime <= 0 {
		errs = append(errs, errors.New("CACHE_STALE_TIME must be positive"))
	}
	if c.Cache.RetryCount < 0 || c.Cache.RetryCount > 1 {
		errs = append(errs, errors.New("CACHE_RETRY_COUNT must be 0 or 1"))
	}
	if c.Queue.Workers <= 0 {
		errs = append(errs, errors.New("QUEUE_WORKERS must be positive"))
	}
	if c.Forms.SheetURL != "" && c.Forms.SheetToken == "" {
		errs = append(errs, errors.New("FORMS_SHEET_TOKEN is required with FORMS_SHEET_URL"))
	}
	if c.Storage.Enabled() && (c.Storage.AccessKey == "" || c.Storage.SecretKey == "") {
		errs = append(errs, errors.New("STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required with STORAGE_BUCKET"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}
