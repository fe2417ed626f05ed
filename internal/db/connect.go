// Package db handles database connections and schema migration for Rentline.
package db

import (
	"fmt"
	"os"
	"path/filepath"

	sqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zhuravin/rentline/internal/config"
)

// Connect opens a GORM connection according to the configured driver.
func Connect(cfg config.DatabaseConfig, password string) (*gorm.DB, error) {
	switch cfg.Driver {
	case "sqlite":
		return ConnectSQLite(cfg.Path)
	case "mysql":
		return ConnectMySQL(cfg, password)
	default:
		return nil, fmt.Errorf("db: unknown driver %q", cfg.Driver)
	}
}

// ConnectSQLite opens a SQLite database file, creating the parent directory
// if needed. Use ":memory:" for an in-memory database.
func ConnectSQLite(path string) (*gorm.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("db: create data dir %s: %w", dir, err)
			}
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite %s: %w", path, err)
	}
	return db, nil
}

// ConnectMySQL opens a MySQL connection using a DSN built from the config.
func ConnectMySQL(cfg config.DatabaseConfig, password string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(MySQLDSN(cfg, password)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}
	return db, nil
}

// MySQLDSN builds a MySQL DSN from the database config.
func MySQLDSN(cfg config.DatabaseConfig, password string) string {
	dsn := sqldriver.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = password
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dsn.DBName = cfg.Name
	dsn.ParseTime = true
	return dsn.FormatDSN()
}
