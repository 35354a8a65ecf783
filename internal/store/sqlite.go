package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pressly/goose/v3"

	"legaleagle.app/api/internal/dbx"
	"legaleagle.app/api/internal/store/migrations"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStateConflict is returned when a conditional update matched no row
	// because the record already left the expected state.
	ErrStateConflict = errors.New("record is not in the expected state")
)

// SQLiteStore persists users, chats, messages, documents and payments.
// The same handle is also shared with the SQLite vector store.
type SQLiteStore struct {
	db *sql.DB
	q  dbx.DBTX
}

// gooseUp is a seam for tests that build a store over sqlmock.
var gooseUp = func(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func NewSQLiteStore(ctx context.Context, dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serialises writers anyway; one connection avoids SQLITE_BUSY and
	// keeps in-memory databases alive for the lifetime of the handle.
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err = gooseUp(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return NewFromDB(db), nil
}

// NewFromDB wraps an already migrated database.
func NewFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, q: db}
}

func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InTx runs fn against a store bound to a single transaction. fn must only
// use the store it is given.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(ctx context.Context, tx *SQLiteStore) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &SQLiteStore{db: s.db, q: tx})
	})
}

func now() time.Time {
	return time.Now().UTC()
}

type scanner interface {
	Scan(dest ...any) error
}

func affectedOne(res sql.Result, onZero error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return onZero
	}
	return nil
}
