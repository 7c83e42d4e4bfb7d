// Package db opens the optional Postgres transcript archive and keeps its
// schema current.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const (
	pingTimeout  = 5 * time.Second
	maxOpenConns = 5
	maxIdleConns = 2
)

// Migrations returns the schema files shipped with the binary.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// New connects to Postgres. A DSN without an explicit sslmode is retried
// with sslmode=disable when the first ping fails, which is what local
// development servers usually need.
func New(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("database connection string is required")
	}

	sqlDB, err := open(dsn)
	if err != nil && !strings.Contains(strings.ToLower(dsn), "sslmode") {
		log.Info().Str("component", "db").Err(err).Msg("retrying database connection with SSL disabled")
		sqlDB, err = open(withSSLDisabled(dsn))
	}
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	return &DB{DB: sqlDB}, nil
}

func open(dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return sqlDB, nil
}

func withSSLDisabled(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&sslmode=disable"
	}
	return dsn + "?sslmode=disable"
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// Migration is one NNN_name.sql schema file.
type Migration struct {
	Number int
	Name   string
	SQL    string
}

// RunMigrations applies, in order, every migration in fsys whose number is
// not yet recorded in schema_migrations. Each one runs in its own transaction.
func (db *DB) RunMigrations(fsys fs.FS) error {
	migrations, err := ReadMigrations(fsys)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	if len(migrations) == 0 {
		log.Info().Str("component", "db").Msg("no migrations found")
		return nil
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	applied, err := db.appliedVersions()
	if err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}
	for _, m := range pending(migrations, applied) {
		log.Info().Str("component", "db").Int("version", m.Number).Str("name", m.Name).Msg("applying migration")
		if err := db.apply(m); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) appliedVersions() (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (db *DB) apply(m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return fmt.Errorf("failed to execute migration %d: %w", m.Number, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.Number, m.Name); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.Number, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Number, err)
	}
	return nil
}

func pending(all []Migration, applied map[int]bool) []Migration {
	var out []Migration
	for _, m := range all {
		if applied[m.Number] {
			log.Debug().Str("component", "db").Int("version", m.Number).Msg("migration already applied, skipping")
			continue
		}
		out = append(out, m)
	}
	return out
}

// ReadMigrations collects the top-level NNN_name.sql files of fsys, sorted by
// number. Files that do not follow the naming scheme are ignored.
func ReadMigrations(fsys fs.FS) ([]Migration, error) {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}

	var migrations []Migration
	for _, file := range files {
		number, name, ok := parseMigrationName(path.Base(file))
		if !ok {
			continue
		}
		body, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", file, err)
		}
		migrations = append(migrations, Migration{Number: number, Name: name, SQL: string(body)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Number < migrations[j].Number
	})
	return migrations, nil
}

// parseMigrationName splits "001_chat_log.sql" into 1 and "chat_log".
func parseMigrationName(filename string) (int, string, bool) {
	prefix, rest, ok := strings.Cut(strings.TrimSuffix(filename, ".sql"), "_")
	if !ok || rest == "" {
		return 0, "", false
	}
	number, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", false
	}
	return number, rest, true
}
