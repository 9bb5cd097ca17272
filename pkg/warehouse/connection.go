// Package warehouse owns the authenticated handle to the Snowflake account and
// the registry of Cortex Search services reachable through it.
package warehouse

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/snowflakedb/gosnowflake"
)

// Params are the connection parameters of one warehouse session.
type Params struct {
	Account      string
	User         string
	Password     string
	Warehouse    string
	Database     string
	Schema       string
	Role         string
	LoginTimeout time.Duration
}

// Opener returns a not-yet-pinged database handle.
type Opener func(ctx context.Context, params Params) (*sql.DB, error)

type Option func(*Connection)

// WithOpener swaps the gosnowflake opener, mainly for tests.
func WithOpener(open Opener) Option {
	return func(c *Connection) {
		c.open = open
	}
}

// Connection is the Connection Provider. Session and Root reconnect lazily;
// Close releases both handles and may be called more than once. Queries sent
// through Root resolve the handle on every call, so they follow a reconnect.
type Connection struct {
	params Params
	open   Opener

	mu   sync.Mutex
	db   *sql.DB
	root *Root
}

func NewConnection(params Params, opts ...Option) *Connection {
	c := &Connection{
		params: params,
		open:   openSnowflake,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect establishes the session and the search registry. It returns a
// *ConnectionError when the credentials are rejected or the host is unreachable.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connectLocked(ctx)
}

func (c *Connection) connectLocked(ctx context.Context) error {
	db, err := c.open(ctx, c.params)
	if err != nil {
		return &ConnectionError{Account: c.params.Account, Op: "open", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return &ConnectionError{Account: c.params.Account, Op: "ping", Err: err}
	}

	c.db = db
	if c.root == nil {
		c.root = NewRoot(&sessionQuerier{conn: c})
	}
	return nil
}

// dropLocked forgets db if it is still the current handle.
func (c *Connection) dropLocked(db *sql.DB) {
	if c.db != db || db == nil {
		return
	}
	db.Close()
	c.db = nil
}

// Ping checks the current handle, connecting first if needed. A failed ping
// drops the handle so the next query reconnects.
func (c *Connection) Ping(ctx context.Context) error {
	db, err := c.Session(ctx)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		c.mu.Lock()
		c.dropLocked(db)
		c.mu.Unlock()
		return &ConnectionError{Account: c.params.Account, Op: "ping", Err: err}
	}
	return nil
}

// sessionQuerier sends each query through Connection.Session.
type sessionQuerier struct {
	conn *Connection
}

func (q *sessionQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	db, err := q.conn.Session(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if errors.Is(err, driver.ErrBadConn) {
		q.conn.mu.Lock()
		q.conn.dropLocked(db)
		q.conn.mu.Unlock()
	}
	return rows, err
}

// Session returns the query handle, connecting first if needed.
func (c *Connection) Session(ctx context.Context) (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		if err := c.connectLocked(ctx); err != nil {
			return nil, err
		}
	}
	return c.db, nil
}

// Root returns the search-service registry, connecting first if needed.
func (c *Connection) Root(ctx context.Context) (*Root, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		if err := c.connectLocked(ctx); err != nil {
			return nil, err
		}
	}
	return c.root, nil
}

// Connected reports whether a handle is currently held.
func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db != nil
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	c.root = nil
	return err
}

func openSnowflake(_ context.Context, p Params) (*sql.DB, error) {
	sfCfg := &gosnowflake.Config{
		Account:      p.Account,
		User:         p.User,
		Password:     p.Password,
		Warehouse:    p.Warehouse,
		Database:     p.Database,
		Schema:       p.Schema,
		Role:         p.Role,
		LoginTimeout: p.LoginTimeout,
		Application:  "careconnect",
	}

	dsn, err := gosnowflake.DSN(sfCfg)
	if err != nil {
		return nil, fmt.Errorf("build dsn: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("open snowflake: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(10 * time.Minute)
	return db, nil
}
