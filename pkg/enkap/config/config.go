package config

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	yaml "gopkg.in/yaml.v2"
)

const (
	CacheMemory   string = "memory"
	CacheRedis    string = "redis"
	CachePostgres string = "postgres"
)

type RedisConfig struct {
	Addrs    string `yaml:"addrs"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Port     string `yaml:"port"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type CacheConfig struct {
	Backend string `yaml:"backend"`
	// Namespace salts every token cache key
	Namespace string         `yaml:"namespace"`
	Redis     RedisConfig    `yaml:"redis"`
	Postgres  PostgresConfig `yaml:"postgres"`
}

type Config struct {
	ConsumerKey    string      `yaml:"consumerKey"`
	ConsumerSecret string      `yaml:"consumerSecret"`
	Sandbox        bool        `yaml:"sandbox"`
	Debug          bool        `yaml:"debug"`
	GrantType      string      `yaml:"grantType"`
	TimeoutSeconds int         `yaml:"timeoutSeconds"`
	BaseURL        string      `yaml:"baseUrl"`
	Cache          CacheConfig `yaml:"cache"`
}

func New() *Config {
	return &Config{
		GrantType:      "client_credentials",
		TimeoutSeconds: 30,
		Cache: CacheConfig{
			Backend: CacheMemory,
			Postgres: PostgresConfig{
				Port:    "5432",
				DBName:  "enkap",
				SSLMode: "disable",
			},
		},
	}
}

func LoadConfiguration(data io.Reader) (*Config, error) {

	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := New()
	err = yaml.Unmarshal(buf, cfg)

	return cfg, err
}

// FromEnvironment returns the default configuration with environment
// overrides applied
func FromEnvironment(ctx context.Context) *Config {
	cfg := New()
	cfg.ApplyEnvironment(ctx)
	return cfg
}

// ApplyEnvironment overrides every setting that has a matching environment
// variable
func (c *Config) ApplyEnvironment(ctx context.Context) {
	c.ConsumerKey = env.GetVariableOrDefault(ctx, "ENKAP_CONSUMER_KEY", c.ConsumerKey)
	c.ConsumerSecret = env.GetVariableOrDefault(ctx, "ENKAP_CONSUMER_SECRET", c.ConsumerSecret)
	c.Sandbox = boolOrDefault(ctx, "ENKAP_SANDBOX", c.Sandbox)
	c.Debug = boolOrDefault(ctx, "ENKAP_DEBUG", c.Debug)
	c.GrantType = env.GetVariableOrDefault(ctx, "GRANT_TYPE", c.GrantType)
	c.TimeoutSeconds = intOrDefault(ctx, "ENKAP_TIMEOUT", c.TimeoutSeconds)
	c.BaseURL = env.GetVariableOrDefault(ctx, "ENKAP_BASE_URL", c.BaseURL)

	c.Cache.Backend = env.GetVariableOrDefault(ctx, "ENKAP_CACHE", c.Cache.Backend)
	c.Cache.Namespace = env.GetVariableOrDefault(ctx, "CRYPTO_SALT", c.Cache.Namespace)

	c.Cache.Redis.Addrs = env.GetVariableOrDefault(ctx, "REDIS_ADDR", c.Cache.Redis.Addrs)
	c.Cache.Redis.Password = env.GetVariableOrDefault(ctx, "REDIS_PASSWORD", c.Cache.Redis.Password)
	c.Cache.Redis.DB = intOrDefault(ctx, "REDIS_DB", c.Cache.Redis.DB)

	c.Cache.Postgres.Host = env.GetVariableOrDefault(ctx, "POSTGRES_HOST", c.Cache.Postgres.Host)
	c.Cache.Postgres.User = env.GetVariableOrDefault(ctx, "POSTGRES_USER", c.Cache.Postgres.User)
	c.Cache.Postgres.Password = env.GetVariableOrDefault(ctx, "POSTGRES_PASSWORD", c.Cache.Postgres.Password)
	c.Cache.Postgres.Port = env.GetVariableOrDefault(ctx, "POSTGRES_PORT", c.Cache.Postgres.Port)
	c.Cache.Postgres.DBName = env.GetVariableOrDefault(ctx, "POSTGRES_DBNAME", c.Cache.Postgres.DBName)
	c.Cache.Postgres.SSLMode = env.GetVariableOrDefault(ctx, "POSTGRES_SSLMODE", c.Cache.Postgres.SSLMode)
}

func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func boolOrDefault(ctx context.Context, name string, def bool) bool {
	b, err := strconv.ParseBool(env.GetVariableOrDefault(ctx, name, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return b
}

func intOrDefault(ctx context.Context, name string, def int) int {
	i, err := strconv.Atoi(env.GetVariableOrDefault(ctx, name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return i
}
