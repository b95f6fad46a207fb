// Package history records evaluations in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codefionn/calculate42/internal/consts"
	"github.com/codefionn/calculate42/internal/logger"
)

// Sources an evaluation can come from
const (
	SourceCLI  = "cli"
	SourceREPL = "repl"
	SourceHTTP = "http"
	SourceWS   = "ws"
)

// ErrNotFound is returned by Get for an unknown id
var ErrNotFound = errors.New("history entry not found")

// Entry is one recorded evaluation
type Entry struct {
	ID         int64     `db:"id" json:"id"`
	Expression string    `db:"expression" json:"expression"`
	Result     float64   `db:"result" json:"-"`
	Reply      string    `db:"reply" json:"reply"`
	ErrorType  string    `db:"error_type" json:"error_type,omitempty"` // empty on success
	Source     string    `db:"source" json:"source"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Succeeded reports whether the evaluation produced a number
func (e *Entry) Succeeded() bool {
	return e.ErrorType == ""
}

// Stats aggregates the recorded evaluations
type Stats struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	ByError   map[string]int `json:"by_error"`
}

// Store handles SQLite operations for the evaluation history
type Store struct {
	db     *sql.DB
	dbPath string
	log    *logger.Logger
}

// Open creates or opens the database at dbPath and brings the schema up to date
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	store := &Store{db: db, dbPath: dbPath, log: logger.Global().WithPrefix("history")}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	store.log.Debug("history database ready at %s", dbPath)
	return store, nil
}

// Path returns the database location
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		expression TEXT NOT NULL,
		result REAL,
		error_type TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at);
	CREATE INDEX IF NOT EXISTS idx_evaluations_error_type ON evaluations(error_type);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create initial schema: %w", err)
	}

	// Columns added after the first release are picked up from the struct tags
	return s.autoMigrateTable("evaluations", &Entry{})
}

// autoMigrateTable adds missing columns to a table based on struct tags
func (s *Store) autoMigrateTable(tableName string, model interface{}) error {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	existing := make(map[string]bool)
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			cid       int
			name      string
			dtype     string
			notnull   int
			dfltValue interface{}
			pk        int
		)
		if err := rows.Scan(&cid, &name, &dtype, &notnull, &dfltValue, &pk); err != nil {
			rows.Close()
			return err
		}
		existing[strings.ToLower(name)] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i := 0; i < t.NumField(); i++ {
		column := strings.Split(t.Field(i).Tag.Get("db"), ",")[0]
		if column == "" || column == "-" || existing[column] {
			continue
		}
		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", tableName, column, sqliteType(t.Field(i).Type))
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to add column %s: %w", column, err)
		}
		s.log.Info("added column %s.%s", tableName, column)
	}

	return nil
}

func sqliteType(t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return "TEXT NOT NULL DEFAULT ''"
	case reflect.Int, reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8:
		return "INTEGER"
	case reflect.Bool:
		return "BOOLEAN"
	case reflect.Float64, reflect.Float32:
		return "REAL"
	default:
		if t.PkgPath() == "time" && t.Name() == "Time" {
			return "DATETIME"
		}
		return "TEXT"
	}
}

// Record inserts an entry and returns its id. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, entry Entry) (int64, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	// SQLite stores NaN as NULL; a successful row with a NULL result reads back as NaN
	var result sql.NullFloat64
	if entry.Succeeded() && !math.IsNaN(entry.Result) {
		result = sql.NullFloat64{Float64: entry.Result, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations (expression, result, reply, error_type, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.Expression, result, entry.Reply, entry.ErrorType, entry.Source, entry.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to record evaluation: %w", err)
	}

	return res.LastInsertId()
}

const selectColumns = `id, expression, result, reply, error_type, source, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		entry  Entry
		result sql.NullFloat64
	)
	if err := row.Scan(&entry.ID, &entry.Expression, &result, &entry.Reply, &entry.ErrorType, &entry.Source, &entry.CreatedAt); err != nil {
		return nil, err
	}
	switch {
	case result.Valid:
		entry.Result = result.Float64
	case entry.Succeeded():
		entry.Result = math.NaN()
	}
	return &entry, nil
}

// Get returns a single entry by id
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM evaluations WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation %d: %w", id, err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = consts.DefaultHistoryLimit
	}
	if limit > consts.MaxHistoryLimit {
		limit = consts.MaxHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM evaluations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	entries := make([]*Entry, 0, limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Stats aggregates all recorded evaluations
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT error_type, COUNT(*)
		FROM evaluations
		GROUP BY error_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate evaluations: %w", err)
	}
	defer rows.Close()

	stats := &Stats{ByError: make(map[string]int)}
	for rows.Next() {
		var (
			errorType string
			count     int
		)
		if err := rows.Scan(&errorType, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		if errorType == "" {
			stats.Succeeded += count
			continue
		}
		stats.Failed += count
		stats.ByError[errorType] = count
	}

	return stats, rows.Err()
}

// Clear deletes every entry and returns how many were removed
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM evaluations`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return res.RowsAffected()
}
