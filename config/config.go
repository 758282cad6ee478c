package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MQConfig configures event publishing. With Outbox enabled, events are
// buffered in Postgres and drained by a background dispatcher instead of
// being published inline.
type MQConfig struct {
	URL    string `yaml:"url"`
	Outbox bool   `yaml:"outbox"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// BrokerConfig points at the identity broker that holds the users' Google
// OAuth grants.
type BrokerConfig struct {
	BaseURL         string `yaml:"base_url"`
	SecretKey       string `yaml:"secret_key"`
	TokenTTLSeconds int    `yaml:"token_ttl_seconds"` // redis cache TTL for brokered tokens
}

// TokenTTL returns the cache TTL as a duration.
func (c BrokerConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

// FilteringConfig controls the filtering run lifecycle.
// Classifier is "static" (fixed sample batch) or "gmail".
// ReleaseTarget is what un-mute/un-friend does with a candidate:
// "drop" discards the decision, "pending" returns it to the review queue.
type FilteringConfig struct {
	CompletionDelayMS int    `yaml:"completion_delay_ms"`
	Classifier        string `yaml:"classifier"`
	MaxResults        int64  `yaml:"max_results"`
	ReleaseTarget     string `yaml:"release_target"`
}

// CompletionDelay returns the deferred completion delay as a duration.
func (c FilteringConfig) CompletionDelay() time.Duration {
	return time.Duration(c.CompletionDelayMS) * time.Millisecond
}

type Config struct {
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	MQ        MQConfig        `yaml:"mq"`
	JWT       JWTConfig       `yaml:"jwt"`
	Server    ServerConfig    `yaml:"server"`
	Broker    BrokerConfig    `yaml:"broker"`
	Filtering FilteringConfig `yaml:"filtering"`
}

func Load() *Config {
	f, err := os.Open("config.yaml")
	if err != nil {
		log.Fatalf("failed to open config.yaml: %v", err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config.yaml: %v", err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 10
	}
	if cfg.Filtering.CompletionDelayMS == 0 {
		cfg.Filtering.CompletionDelayMS = 2000
	}
	if cfg.Filtering.Classifier == "" {
		cfg.Filtering.Classifier = "static"
	}
	if cfg.Filtering.MaxResults == 0 {
		cfg.Filtering.MaxResults = 10
	}
	if cfg.Filtering.ReleaseTarget == "" {
		cfg.Filtering.ReleaseTarget = "drop"
	}
	if cfg.Broker.TokenTTLSeconds == 0 {
		cfg.Broker.TokenTTLSeconds = 300
	}
}

func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}
	if outbox := os.Getenv("MQ_OUTBOX"); outbox != "" {
		cfg.MQ.Outbox = outbox == "true" || outbox == "1"
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}

	if url := os.Getenv("BROKER_BASE_URL"); url != "" {
		cfg.Broker.BaseURL = url
	}
	if key := os.Getenv("BROKER_SECRET_KEY"); key != "" {
		cfg.Broker.SecretKey = key
	}
}
