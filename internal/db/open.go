package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// Open opens the SQLite file and makes sure the schema exists. An in-memory
// database is pinned to one connection so every query sees the same data.
func Open(path string) (*sql.DB, error) {
	dsn := path
	if path != memoryPath {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == memoryPath {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := InitSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return sqlDB, nil
}
