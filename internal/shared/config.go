package shared

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"prod"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9100"`
	MySQLDSN    string `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/listings?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB     int    `env:"REDIS_DB" envDefault:"0"`
	RedisPass   string `env:"REDIS_PASSWORD"`
	CMSBase     string `env:"CMS_BASE_URL" envDefault:"http://localhost:1337/api"`
	CMSKey      string `env:"CMS_API_KEY"`
	CMSRPS      int    `env:"CMS_RPS" envDefault:"5"`
	SyncWorkers int    `env:"SYNC_WORKERS" envDefault:"3"`
	// KafkaBrokers empty disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"listing-events"`

	CacheTTLSeconds int `env:"CACHE_TTL_SECONDS" envDefault:"900"`
	DraftTTLSeconds int `env:"DRAFT_TTL_SECONDS" envDefault:"86400"`
}

func (c Config) CacheTTL() time.Duration { return time.Duration(c.CacheTTLSeconds) * time.Second }
func (c Config) DraftTTL() time.Duration { return time.Duration(c.DraftTTLSeconds) * time.Second }

// Parse reads the configuration from the environment.
func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if c.SyncWorkers < 1 {
		c.SyncWorkers = 1
	}
	if c.CMSRPS < 1 {
		c.CMSRPS = 1
	}
	return c, nil
}

// Load is Parse for binaries: a malformed environment is fatal.
func Load() Config {
	c, err := Parse()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if c.CMSKey == "" {
		log.Warn().Msg("CMS_API_KEY is empty")
	}
	return c
}
