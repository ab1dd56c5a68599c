package sql

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"github.com/syssam/tabula/dialect"
)

// Mode selects how operations are scheduled.
type Mode string

// Execution modes.
const (
	// ModeSync runs operations inline on the calling goroutine.
	ModeSync Mode = "sync"
	// ModeAsync runs operations on a bounded set of worker goroutines.
	ModeAsync Mode = "async"
)

// Defaults.
const (
	DefaultPoolSize      = 8
	DefaultIdleTimeout   = time.Hour
	DefaultBackoff       = 3 * time.Second
	DefaultSlowThreshold = 100 * time.Millisecond
)

// Config configures a DB. The zero value of every field selects its
// default.
//
// A config file looks like:
//
//	dialect: mysql
//	dsn: tcp(localhost:3306)/app?parseTime=true
//	user: app
//	password: secret
//	pool_size: 16
//	idle_timeout: 30m
//	mode: async
//	debug: false
//	ignore_migration_errors: true
type Config struct {
	Dialect  string `yaml:"dialect"`
	DSN      string `yaml:"dsn"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// PoolSize is the maximum number of physical connections.
	PoolSize int `yaml:"pool_size"`
	// IdleTimeout is how long an idle connection is reused before it is
	// replaced on its next checkout.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	Mode        Mode          `yaml:"mode"`
	// Workers bounds the goroutines running operations in async mode.
	// Defaults to PoolSize.
	Workers int  `yaml:"workers"`
	Debug   bool `yaml:"debug"`
	// IgnoreMigrationErrors logs failed schema changes and continues
	// instead of failing the table initialization.
	IgnoreMigrationErrors bool `yaml:"ignore_migration_errors"`
	// Backoff is the pause after a connection level failure.
	Backoff       time.Duration `yaml:"backoff"`
	SlowThreshold time.Duration `yaml:"slow_threshold"`

	Logger   *slog.Logger  `yaml:"-"`
	SlowHook SlowQueryHook `yaml:"-"`
	// BackOff schedules the pauses after consecutive connection level
	// failures. It is reset by the next transaction that does not fail on
	// its connection. Defaults to a constant Backoff.
	BackOff backoff.BackOff `yaml:"-"`
}

// Option configures a Config.
type Option func(*Config)

// WithPoolSize sets the maximum number of physical connections.
func WithPoolSize(n int) Option {
	return func(c *Config) { c.PoolSize = n }
}

// WithIdleTimeout sets the connection reuse window.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Config) { c.IdleTimeout = d }
}

// WithMode sets the execution mode.
func WithMode(m Mode) Option {
	return func(c *Config) { c.Mode = m }
}

// WithWorkers sets the number of async workers.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithDebug enables logging of every statement.
func WithDebug() Option {
	return func(c *Config) { c.Debug = true }
}

// WithIgnoreMigrationErrors makes schema migration best effort.
func WithIgnoreMigrationErrors() Option {
	return func(c *Config) { c.IgnoreMigrationErrors = true }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithBackoff sets the pause after a connection level failure.
func WithBackoff(d time.Duration) Option {
	return func(c *Config) { c.Backoff = d }
}

// WithBackOffPolicy replaces the constant pause after connection level
// failures with b. Returning backoff.Stop skips the pause.
func WithBackOffPolicy(b backoff.BackOff) Option {
	return func(c *Config) { c.BackOff = b }
}

// WithSlowThreshold sets the threshold for slow query detection.
// Queries taking longer than this duration will be counted as slow queries.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) Option {
	return func(c *Config) { c.SlowThreshold = d }
}

// WithSlowQueryHook sets a callback function for slow queries.
func WithSlowQueryHook(hook SlowQueryHook) Option {
	return func(c *Config) { c.SlowHook = hook }
}

// WithSlowQueryLog logs slow queries to the configured logger.
// This is a convenience wrapper around WithSlowQueryHook.
func WithSlowQueryLog() Option {
	return func(c *Config) {
		c.SlowHook = func(_ context.Context, query string, args []any, duration time.Duration) {
			c.logger().Warn("slow query detected", "duration", duration, "query", query, "args", args)
		}
	}
}

// WithCredentials sets the user and password applied to the DSN.
func WithCredentials(user, password string) Option {
	return func(c *Config) {
		c.User = user
		c.Password = password
	}
}

// ParseConfig parses a YAML config.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("dialect/sql: parsing config: %w", err)
	}
	return c, c.validate()
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("dialect/sql: reading config: %w", err)
	}
	return ParseConfig(data)
}

// Apply returns a copy of c with the options applied and defaults filled.
func (c Config) Apply(opts ...Option) Config {
	for _, opt := range opts {
		opt(&c)
	}
	if c.PoolSize <= 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.Mode == "" {
		c.Mode = ModeAsync
	}
	if c.Workers <= 0 {
		c.Workers = c.PoolSize
	}
	if c.Backoff <= 0 {
		c.Backoff = DefaultBackoff
	}
	if c.BackOff == nil {
		c.BackOff = backoff.NewConstantBackOff(c.Backoff)
	}
	if c.SlowThreshold <= 0 {
		c.SlowThreshold = DefaultSlowThreshold
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

func (c Config) validate() error {
	switch c.Mode {
	case "", ModeSync, ModeAsync:
	default:
		return fmt.Errorf("dialect/sql: unknown mode %q", c.Mode)
	}
	if c.PoolSize < 0 || c.Workers < 0 {
		return fmt.Errorf("dialect/sql: negative pool size or worker count")
	}
	return nil
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// DataSource returns the DSN handed to the driver. When credentials are
// configured they are applied with the driver's own DSN format; otherwise
// the DSN is returned unmodified. SQLite data sources ignore credentials
// and get _time_format=sqlite.
func (c Config) DataSource() (string, error) {
	if c.Dialect == dialect.SQLite || c.Dialect == "sqlite3" {
		return sqliteDataSource(c.DSN), nil
	}
	if c.User == "" && c.Password == "" {
		return c.DSN, nil
	}
	switch c.Dialect {
	case dialect.MySQL:
		cfg, err := mysql.ParseDSN(c.DSN)
		if err != nil {
			return "", fmt.Errorf("dialect/sql: parsing mysql dsn: %w", err)
		}
		cfg.User, cfg.Passwd = c.User, c.Password
		return cfg.FormatDSN(), nil
	case dialect.Postgres:
		if strings.HasPrefix(c.DSN, "postgres://") || strings.HasPrefix(c.DSN, "postgresql://") {
			u, err := url.Parse(c.DSN)
			if err != nil {
				return "", fmt.Errorf("dialect/sql: parsing postgres dsn: %w", err)
			}
			u.User = url.UserPassword(c.User, c.Password)
			return u.String(), nil
		}
		kv := []string{"user=" + pqQuote(c.User), "password=" + pqQuote(c.Password)}
		if c.DSN != "" {
			kv = append([]string{c.DSN}, kv...)
		}
		return strings.Join(kv, " "), nil
	default:
		return c.DSN, nil
	}
}

// sqliteDataSource makes the driver write times in the layout of
// dialect.SQLiteDialect.QuoteTime unless the DSN picks a layout itself.
func sqliteDataSource(dsn string) string {
	if strings.Contains(dsn, "_time_format=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_time_format=sqlite"
}

// pqQuote quotes a value of a key/value connection string.
func pqQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
