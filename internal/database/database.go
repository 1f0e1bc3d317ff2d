package database

import (
	"context"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB is the archive database, sqlite (modernc) or postgres (lib/pq)
type DB struct {
	conn   *sqlx.DB
	driver string
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		rule_id TEXT NOT NULL,
		alert_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		product_name TEXT NOT NULL,
		platform TEXT NOT NULL,
		seller TEXT NOT NULL,
		change_percent DOUBLE PRECISION NOT NULL,
		actionable BOOLEAN NOT NULL,
		suggested_action TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS alerts_created_at ON alerts (created_at);`,
	`CREATE TABLE IF NOT EXISTS metrics (
		metric_name TEXT NOT NULL,
		label_key TEXT NOT NULL DEFAULT '',
		label_value TEXT NOT NULL DEFAULT '',
		metric_value DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (metric_name, label_key, label_value)
	);`,
}

// Open connects to the database and creates the tables
func Open(driver, dsn string) (*DB, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if driver == DriverSQLite {
		// one writer at a time, also keeps ":memory:" databases on a single connection
		conn.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	for _, m := range migrations {
		if _, err := conn.ExecContext(ctx, m); err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "failed to migrate database")
		}
	}

	log.Infof("Database initialized successfully (%s).", driver)
	return &DB{conn: conn, driver: driver}, nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

func (db *DB) rebind(query string) string {
	if db.driver == DriverPostgres {
		return sqlx.Rebind(sqlx.DOLLAR, query)
	}
	return query
}
