package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq" // PostgreSQL driver
)

var DB *sql.DB

// InitDB opens and pings the PostgreSQL connection pool. When schemaPath is
// non-empty the schema script is applied on startup, which keeps local file
// and fresh database deployments equally zero-setup.
func InitDB(host, port, user, password, dbname, sslmode, schemaPath string) error {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	if schemaPath != "" {
		if err := applySchema(DB, schemaPath); err != nil {
			return err
		}
	}
	return nil
}

// applySchema reads and executes the db_schema.sql file.
func applySchema(db *sql.DB, schemaPath string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("could not read schema file %s: %w", schemaPath, err)
	}
	if _, err = db.Exec(string(content)); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	return nil
}

// GetDB returns the database connection pool.
func GetDB() *sql.DB {
	return DB
}
