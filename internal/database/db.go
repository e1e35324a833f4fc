// Package database opens the MySQL database of the turn log and applies its migrations.
package database

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/storyteller/internal/config"
)

const (
	driverName  = "mysql"
	dialTimeout = 5 * time.Second
)

// DSN builds the driver data source name of cfg. Times are read back as UTC.
func DSN(cfg config.DatabaseConfig) string {
	driverConfig := mysql.NewConfig()
	driverConfig.Net = "tcp"
	driverConfig.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	driverConfig.DBName = cfg.Database
	driverConfig.User = cfg.Username
	driverConfig.Passwd = cfg.Password
	driverConfig.Loc = time.UTC
	driverConfig.ParseTime = true
	driverConfig.MultiStatements = true
	driverConfig.Timeout = dialTimeout
	if cfg.TLS {
		driverConfig.TLSConfig = "true"
	}
	if len(cfg.Params) > 0 {
		driverConfig.Params = cfg.Params
	}
	return driverConfig.FormatDSN()
}

// Open returns a lazily connected pool. The first query reports unreachable servers.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("sqlx.Open() > %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	return db, nil
}
