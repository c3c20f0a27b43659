package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestKeyIsScopedPerEnvironment(t *testing.T) {
	is := is.New(t)

	dev := NewTokenCache(NewMemory(), "", true)
	pro := NewTokenCache(NewMemory(), "", false)

	devKey := dev.Key("client_credentials", "")
	proKey := pro.Key("client_credentials", "")

	is.True(strings.HasSuffix(devKey, "_dev"))
	is.True(strings.HasSuffix(proKey, "_pro"))
	is.Equal(strings.TrimSuffix(devKey, "_dev"), strings.TrimSuffix(proKey, "_pro"))
	is.Equal(len(devKey), 32+len("_dev"))
}

func TestKeyDependsOnGrantAndDiscriminator(t *testing.T) {
	is := is.New(t)

	c := NewTokenCache(NewMemory(), "", false)

	is.True(c.Key("password", "alice") != c.Key("password", "bob"))
	is.True(c.Key("password", "alice") != c.Key("client_credentials", "alice"))
	is.Equal(c.Key("password", "alice"), c.Key("password", "alice"))
	is.True(c.Key("password", "alice") != NewTokenCache(NewMemory(), "salt", false).Key("password", "alice"))
}

func TestPutThenGet(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	c := NewTokenCache(NewMemory(), "", false)
	key := c.Key("client_credentials", "")

	_, ok, err := c.Get(ctx, key)
	is.NoErr(err)
	is.True(!ok)

	is.NoErr(c.Put(ctx, key, "tok", time.Minute))

	token, ok, err := c.Get(ctx, key)
	is.NoErr(err)
	is.True(ok)
	is.Equal(token, "tok")

	is.NoErr(c.Invalidate(ctx, key))
	_, ok, _ = c.Get(ctx, key)
	is.True(!ok)
}

func TestMemoryEntriesExpire(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.Now = func() time.Time { return now }

	is.NoErr(m.Write(ctx, "k", "v", 10*time.Second))

	now = now.Add(9 * time.Second)
	v, ok, _ := m.Read(ctx, "k")
	is.True(ok)
	is.Equal(v, "v")

	now = now.Add(time.Second)
	_, ok, _ = m.Read(ctx, "k")
	is.True(!ok)
}
