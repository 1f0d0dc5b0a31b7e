// Package database opens the MySQL connection pool and applies the embedded
// schema migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sethvargo/go-retry"
)

// Options identifies the MySQL server and schema.
type Options struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

// DSN returns the go-sql-driver/mysql data source name for o.
func (o Options) DSN() string {
	auth := o.User
	if o.Pass != "" {
		auth = fmt.Sprintf("%s:%s", o.User, o.Pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, o.Host, o.Port, o.Name)
}

// connectAttempts bounds how often Open pings a database that is still
// starting up.
const connectAttempts = 5

// pinger is the part of *sql.DB that Open retries.
type pinger interface {
	PingContext(ctx context.Context) error
}

// Open connects to MySQL and verifies the connection, retrying the ping
// with exponential backoff until ctx is done or the attempts run out.
func Open(ctx context.Context, o Options) (*sql.DB, error) {
	db, err := sql.Open("mysql", o.DSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	b := retry.WithMaxRetries(connectAttempts-1, retry.NewExponential(500*time.Millisecond))
	if err := ping(ctx, db, b); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping calls p until it answers, each attempt bounded to 5s.
func ping(ctx context.Context, p pinger, b retry.Backoff) error {
	return retry.Do(ctx, b, func(ctx context.Context) error {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.PingContext(pctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
