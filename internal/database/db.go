package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/iliyamo/hello-db/internal/config"
)

var (
	// ErrDisabled is returned by Connect when DB_ENABLED is off.
	ErrDisabled = errors.New("database connector disabled")
	// ErrUnsupportedDriver is returned for a DB_DRIVER other than mysql or postgres.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// DSN builds the driver-specific data source name for cfg.
func DSN(cfg config.DBConfig) (string, error) {
	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	switch cfg.Driver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = cfg.Name
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Timeout = cfg.ConnectTimeout
		return mc.FormatDSN(), nil
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			Host:     addr,
			Path:     "/" + cfg.Name,
			RawQuery: "sslmode=disable",
		}
		if cfg.User != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		}
		if cfg.ConnectTimeout > 0 {
			u.RawQuery += fmt.Sprintf("&connect_timeout=%d", int(cfg.ConnectTimeout.Seconds()+0.5))
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// Connector performs the single startup connection attempt and keeps Status
// in sync with its outcome.  It never retries.
type Connector struct {
	Cfg    config.DBConfig
	Status *Status
}

func NewConnector(cfg config.DBConfig, status *Status) *Connector {
	return &Connector{Cfg: cfg, Status: status}
}

// Address is host:port of the configured server.
func (c *Connector) Address() string { return net.JoinHostPort(c.Cfg.Host, c.Cfg.Port) }

// Connect opens the database once.  A failure is logged and recorded on
// Status; it is returned to the caller but is never fatal.
func (c *Connector) Connect(ctx context.Context) (*sql.DB, error) {
	if !c.Cfg.Enabled {
		return nil, ErrDisabled
	}
	db, err := Open(ctx, c.Cfg)
	if err != nil {
		log.Printf("database: connect to %s failed: %v", c.Address(), err)
		c.Status.MarkFailed(c.Cfg.Driver, c.Address(), err, time.Now())
		return nil, err
	}
	c.Status.MarkConnected(c.Cfg.Driver, c.Address(), time.Now())
	log.Printf("DB Connected!")
	return db, nil
}

// ClosePending waits for the result of an in-flight Connect delivered on
// pending and closes the pool, giving up when ctx is done.
func ClosePending(ctx context.Context, pending <-chan *sql.DB) error {
	select {
	case db := <-pending:
		if db == nil {
			return nil
		}
		return db.Close()
	case <-ctx.Done():
		return ctx.Err()
	}
}
