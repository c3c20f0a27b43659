package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	host     string
	user     string
	password string
	port     string
	dbname   string
	sslmode  string
}

func LoadConfiguration(ctx context.Context) Config {
	return Config{
		host:     env.GetVariableOrDefault(ctx, "POSTGRES_HOST", ""),
		user:     env.GetVariableOrDefault(ctx, "POSTGRES_USER", ""),
		password: env.GetVariableOrDefault(ctx, "POSTGRES_PASSWORD", ""),
		port:     env.GetVariableOrDefault(ctx, "POSTGRES_PORT", "5432"),
		dbname:   env.GetVariableOrDefault(ctx, "POSTGRES_DBNAME", "enkap"),
		sslmode:  env.GetVariableOrDefault(ctx, "POSTGRES_SSLMODE", "disable"),
	}
}

func NewConfig(host, user, password, port, dbname, sslmode string) Config {
	return Config{
		host:     host,
		user:     user,
		password: password,
		port:     port,
		dbname:   dbname,
		sslmode:  sslmode,
	}
}

func (c Config) ConnStr() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.user, c.password),
		Host:     net.JoinHostPort(c.host, c.port),
		Path:     "/" + c.dbname,
		RawQuery: url.Values{"sslmode": {c.sslmode}}.Encode(),
	}
	return u.String()
}

// Querier is the subset of a pgx pool used by the backend
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Backend stores tokens in the enkap_token_cache table
type Backend struct {
	db  Querier
	Now func() time.Time
}

func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	conn, err := pgxpool.New(ctx, cfg.ConnStr())
	if err != nil {
		return nil, err
	}

	err = conn.Ping(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

func New(ctx context.Context, db Querier) (*Backend, error) {
	b := &Backend{db: db, Now: time.Now}

	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS enkap_token_cache (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);`)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cache table: %w", err)
	}

	return b, nil
}

func (b *Backend) Read(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := b.db.QueryRow(ctx,
		`SELECT value FROM enkap_token_cache WHERE key=$1 AND expires_at > $2;`,
		key, b.Now().UTC(),
	).Scan(&value)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return value, true, nil
}

func (b *Backend) Write(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := b.db.Exec(ctx, `
		INSERT INTO enkap_token_cache(key, value, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at;`,
		key, value, b.Now().UTC().Add(ttl),
	)
	return err
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	_, err := b.db.Exec(ctx, `DELETE FROM enkap_token_cache WHERE key=$1;`, key)
	return err
}

// Purge removes every expired entry and returns the number of rows deleted
func (b *Backend) Purge(ctx context.Context) (int64, error) {
	tag, err := b.db.Exec(ctx, `DELETE FROM enkap_token_cache WHERE expires_at <= $1;`, b.Now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (b *Backend) Vacuum(ctx context.Context) error {
	_, err := b.db.Exec(ctx, "VACUUM ANALYZE enkap_token_cache;")
	return err
}
