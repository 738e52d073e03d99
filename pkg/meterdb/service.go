// MeterDB stores the 5 minute samples of the collector and their rollups.
// This database should only be written to by meter_collector
// but can be read by any service.
package meterdb

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/NotCoffee418/dbmigrator"
	"github.com/NotCoffee418/slimmemeter/pkg/logging"
	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type Store struct {
	db  *sql.DB
	log *logrus.Entry
}

// InitializeDatabase opens (or creates) the database at path and applies migrations.
func InitializeDatabase(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// A single connection serializes writers on the file.
	db.SetMaxOpenConns(1)

	// Create DB before migrations
	if _, err := db.Exec("SELECT 1;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("create database %s: %w", path, err)
	}

	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(
		db,
		migrationFS,
		"migrations",
	)

	if err := verifySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	log := logging.WithComponent("meterdb")
	log.WithField("path", path).Info("Database ready")
	return &Store{db: db, log: log}, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

func verifySchema(db *sql.DB) error {
	tables := []string{string(AggregateHourly), string(AggregateDaily)}
	for name := range seriesTables {
		tables = append(tables, name)
	}
	for _, table := range tables {
		var found string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&found)
		if err != nil {
			return fmt.Errorf("table %s missing after migrations: %w", table, err)
		}
	}
	return nil
}
