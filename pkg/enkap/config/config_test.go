package config

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestLoadConfig(t *testing.T) {
	is, cfg := setupConfigTest(t)

	is.Equal(cfg.ConsumerKey, "key")
	is.Equal(cfg.ConsumerSecret, "secret")
	is.True(cfg.Sandbox)
	is.Equal(cfg.GrantType, "PASSWORD")
	is.Equal(cfg.Timeout(), 10*time.Second)
}

func TestLoadCacheConfig(t *testing.T) {
	is, cfg := setupConfigTest(t)

	is.Equal(cfg.Cache.Backend, CacheRedis)
	is.Equal(cfg.Cache.Namespace, "salty")
	is.Equal(cfg.Cache.Redis.Addrs, "localhost:6379")
	is.Equal(cfg.Cache.Redis.DB, 2)
}

func TestDefaultsAreKeptForMissingKeys(t *testing.T) {
	is := is.New(t)

	cfg, err := LoadConfiguration(bytes.NewBufferString("consumerKey: k\n"))
	is.NoErr(err)

	is.Equal(cfg.GrantType, "client_credentials")
	is.Equal(cfg.Cache.Backend, CacheMemory)
	is.Equal(cfg.Cache.Postgres.Port, "5432")
	is.Equal(cfg.Timeout(), 30*time.Second)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	is, cfg := setupConfigTest(t)

	t.Setenv("ENKAP_CONSUMER_KEY", "env-key")
	t.Setenv("ENKAP_SANDBOX", "false")
	t.Setenv("ENKAP_TIMEOUT", "not a number")
	t.Setenv("CRYPTO_SALT", "pepper")

	cfg.ApplyEnvironment(context.Background())

	is.Equal(cfg.ConsumerKey, "env-key")
	is.Equal(cfg.ConsumerSecret, "secret")
	is.True(!cfg.Sandbox)
	is.Equal(cfg.TimeoutSeconds, 10)
	is.Equal(cfg.Cache.Namespace, "pepper")
}

func setupConfigTest(t *testing.T) (*is.I, *Config) {
	is := is.New(t)
	cfgData := bytes.NewBuffer([]byte(configFile))
	config, err := LoadConfiguration(cfgData)
	is.NoErr(err)

	return is, config
}

var configFile string = `
consumerKey: key
consumerSecret: secret
sandbox: true
grantType: PASSWORD
timeoutSeconds: 10
cache:
  backend: redis
  namespace: salty
  redis:
    addrs: localhost:6379
    db: 2
`
