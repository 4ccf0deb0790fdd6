package store

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog/log"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// PoolConfig holds the parameters for opening a SQLite connection pool.
type PoolConfig struct {
	// Path is the database file. It is created if missing.
	Path string
	// PoolSize defaults to max(runtime.NumCPU(), 4).
	PoolSize int
	// OnConnect runs once per connection after the pragmas.
	OnConnect func(conn *sqlite.Conn) error
}

// Pool is a fixed-size pool of SQLite connections. Connections are not
// safe for concurrent use: Take one, use it, Put it back.
type Pool struct {
	inner *sqlitex.Pool
	path  string
}

func OpenPool(cfg PoolConfig) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite pool: Path is required")
	}
	size := cfg.PoolSize
	if size <= 0 {
		size = max(runtime.NumCPU(), 4)
	}

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: size,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepareConnection(conn, cfg.OnConnect)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: opening %s: %w", cfg.Path, err)
	}
	log.Info().Str("module", "store.sqlite").Str("path", cfg.Path).Int("pool_size", size).Msg("sqlite pool opened")
	return &Pool{inner: inner, path: cfg.Path}, nil
}

func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: take: %w", err)
	}
	return conn, nil
}

func (p *Pool) Put(conn *sqlite.Conn) { p.inner.Put(conn) }

func (p *Pool) Close() error {
	if err := p.inner.Close(); err != nil {
		log.Error().Err(err).Str("module", "store.sqlite").Str("path", p.path).Msg("sqlite pool close error")
		return fmt.Errorf("sqlite pool: closing %s: %w", p.path, err)
	}
	log.Info().Str("module", "store.sqlite").Str("path", p.path).Msg("sqlite pool closed")
	return nil
}

func prepareConnection(conn *sqlite.Conn, onConnect func(*sqlite.Conn) error) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=OFF",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlite pool: %s: %w", pragma, err)
		}
	}
	if onConnect != nil {
		if err := onConnect(conn); err != nil {
			return fmt.Errorf("sqlite pool: OnConnect: %w", err)
		}
	}
	return nil
}
