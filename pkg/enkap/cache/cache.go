package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// Backend is a key value store with per entry expiry
type Backend interface {
	Read(ctx context.Context, key string) (string, bool, error)
	Write(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const DefaultNamespace string = `\Enkap\OAuth\`

// TokenCache stores access tokens under keys derived from the grant that
// produced them, separated per environment.
type TokenCache struct {
	backend   Backend
	namespace string
	sandbox   bool
}

func NewTokenCache(backend Backend, namespace string, sandbox bool) *TokenCache {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &TokenCache{
		backend:   backend,
		namespace: namespace,
		sandbox:   sandbox,
	}
}

// Key returns md5(namespace + "token|grant|discriminator") in hex with an
// environment suffix.
func (c *TokenCache) Key(grant, discriminator string) string {
	sum := md5.Sum([]byte(c.namespace + strings.Join([]string{"token", grant, discriminator}, "|")))

	suffix := "_pro"
	if c.sandbox {
		suffix = "_dev"
	}

	return hex.EncodeToString(sum[:]) + suffix
}

func (c *TokenCache) Get(ctx context.Context, key string) (string, bool, error) {
	token, ok, err := c.backend.Read(ctx, key)
	if err != nil || !ok || token == "" {
		return "", false, err
	}
	return token, true, nil
}

func (c *TokenCache) Put(ctx context.Context, key, token string, ttl time.Duration) error {
	if ttl < time.Second {
		ttl = time.Second
	}
	return c.backend.Write(ctx, key, token, ttl)
}

func (c *TokenCache) Invalidate(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, key)
}
