package sql

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tabula/dialect"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
dialect: mysql
dsn: tcp(localhost:3306)/app?parseTime=true
user: app
password: secret
pool_size: 16
idle_timeout: 30m
mode: sync
debug: true
ignore_migration_errors: true
backoff: 500ms
`))
	require.NoError(t, err)
	assert.Equal(t, dialect.MySQL, cfg.Dialect)
	assert.Equal(t, 16, cfg.PoolSize)
	assert.Equal(t, 30*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, ModeSync, cfg.Mode)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.IgnoreMigrationErrors)
	assert.Equal(t, 500*time.Millisecond, cfg.Backoff)
	assert.Zero(t, cfg.Workers)

	cfg = cfg.Apply()
	assert.Equal(t, 16, cfg.Workers, "workers default to the pool size")
	assert.Equal(t, DefaultSlowThreshold, cfg.SlowThreshold)
	assert.NotNil(t, cfg.Logger)

	_, err = ParseConfig([]byte("mode: parallel"))
	require.ErrorContains(t, err, "unknown mode")
	_, err = ParseConfig([]byte("pool_size: [1]"))
	require.ErrorContains(t, err, "parsing config")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dialect: sqlite\ndsn: file:test.db\n"), 0o600))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, cfg.Dialect)
	assert.Equal(t, "file:test.db", cfg.DSN)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "reading config")
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.Apply()
	assert.Equal(t, DefaultPoolSize, cfg.PoolSize)
	assert.Equal(t, time.Hour, cfg.IdleTimeout)
	assert.Equal(t, ModeAsync, cfg.Mode)
	assert.Equal(t, DefaultPoolSize, cfg.Workers)
	assert.Equal(t, 3*time.Second, cfg.Backoff)
	assert.Equal(t, 3*time.Second, cfg.BackOff.NextBackOff())
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.IgnoreMigrationErrors)

	cfg = Config{PoolSize: 2}.Apply(
		WithPoolSize(4),
		WithWorkers(1),
		WithIdleTimeout(time.Minute),
		WithMode(ModeSync),
		WithDebug(),
		WithIgnoreMigrationErrors(),
		WithBackoff(time.Millisecond),
		WithSlowThreshold(time.Second),
	)
	assert.Equal(t, 4, cfg.PoolSize)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, time.Minute, cfg.IdleTimeout)
	assert.Equal(t, ModeSync, cfg.Mode)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.IgnoreMigrationErrors)
	assert.Equal(t, time.Millisecond, cfg.Backoff)
	assert.Equal(t, time.Millisecond, cfg.BackOff.NextBackOff())
	assert.Equal(t, time.Second, cfg.SlowThreshold)

	cfg = Config{}.Apply(WithBackOffPolicy(&backoff.StopBackOff{}))
	assert.Equal(t, backoff.Stop, cfg.BackOff.NextBackOff())
}

func TestConfigDataSource(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "no credentials",
			cfg:  Config{Dialect: dialect.MySQL, DSN: "tcp(db:3306)/app"},
			want: "tcp(db:3306)/app",
		},
		{
			name: "mysql",
			cfg:  Config{Dialect: dialect.MySQL, DSN: "tcp(db:3306)/app", User: "app", Password: "s3cret"},
			want: "app:s3cret@tcp(db:3306)/app",
		},
		{
			name: "postgres url",
			cfg:  Config{Dialect: dialect.Postgres, DSN: "postgres://db:5432/app?sslmode=disable", User: "app", Password: "p@ss"},
			want: "postgres://app:p%40ss@db:5432/app?sslmode=disable",
		},
		{
			name: "postgres key value",
			cfg:  Config{Dialect: dialect.Postgres, DSN: "host=db dbname=app", User: "app", Password: `it's`},
			want: `host=db dbname=app user='app' password='it\'s'`,
		},
		{
			name: "sqlite ignores credentials",
			cfg:  Config{Dialect: dialect.SQLite, DSN: "file:test.db", User: "app", Password: "x"},
			want: "file:test.db?_time_format=sqlite",
		},
		{
			name: "sqlite time format",
			cfg:  Config{Dialect: dialect.SQLite, DSN: "file:test.db?_txlock=immediate"},
			want: "file:test.db?_txlock=immediate&_time_format=sqlite",
		},
		{
			name: "sqlite explicit time format",
			cfg:  Config{Dialect: dialect.SQLite, DSN: "file:test.db?_time_format=sqlite"},
			want: "file:test.db?_time_format=sqlite",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.DataSource()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	cfg := Config{Dialect: dialect.MySQL, DSN: "tcp(db:3306)/app"}.Apply(WithCredentials("root", "pw"))
	got, err := cfg.DataSource()
	require.NoError(t, err)
	assert.Equal(t, "root:pw@tcp(db:3306)/app", got)
}

func TestWithSlowQueryLog(t *testing.T) {
	var b strings.Builder
	logger := slog.New(slog.NewTextHandler(&b, nil))
	cfg := Config{}.Apply(WithLogger(logger), WithSlowQueryLog())
	require.NotNil(t, cfg.SlowHook)
	cfg.SlowHook(context.Background(), "SELECT 1", nil, time.Second)
	assert.Contains(t, b.String(), "slow query detected")
	assert.Contains(t, b.String(), "SELECT 1")
}

func TestDebugLog(t *testing.T) {
	var b strings.Builder
	db := openSQLite(t, WithDebug(), WithLogger(slog.New(slog.NewTextHandler(&b, nil))))
	err := db.Transact(context.Background(), nil, func(ctx context.Context, s *Scope) error {
		_, err := s.Query(ctx, "SELECT ?", 42)
		return err
	})
	require.NoError(t, err)
	assert.Contains(t, b.String(), "msg=query")
	assert.Contains(t, b.String(), `query="SELECT ?"`)
	assert.Contains(t, b.String(), "args=[42]")
}
