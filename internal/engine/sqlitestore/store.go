// SPDX-License-Identifier: Apache-2.0

// Package sqlitestore is a file store engine backed by SQLite. Every entity is a table, and the schema
// metadata of the store is recorded in a dedicated table so that it can be read without knowing the schema.
package sqlitestore

import (
	"context"
	"database/sql"
	"os"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/solo-storekeeper/internal/engine"
	"github.com/hashgraph/solo-storekeeper/pkg/schema"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// StoreType is recorded in the metadata of every store written by this engine
const StoreType = "sqlite"

type Option func(*Engine)

// Engine implements engine.Engine for SQLite files
type Engine struct {
	logger      *zerolog.Logger
	journalMode string
}

var _ engine.Engine = (*Engine)(nil)

// New returns a SQLite engine
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:      logx.As(),
		journalMode: "WAL",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithLogger sets the logger of the engine
func WithLogger(logger *zerolog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithJournalMode sets the journal mode of stores created by the engine, e.g. WAL or DELETE
func WithJournalMode(mode string) Option {
	return func(e *Engine) {
		if mode != "" {
			e.journalMode = mode
		}
	}
}

func (e *Engine) StoreType() string {
	return StoreType
}

// openMode selects the connection setup of open
type openMode int

const (
	// openRead refuses writes on the connection
	openRead openMode = iota
	// openWrite leaves the file's journal mode as it is
	openWrite
	// openCreate sets the engine's journal mode, which is persisted in the new file
	openCreate
)

func (e *Engine) open(ctx context.Context, location string, mode openMode) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+location)
	if err != nil {
		return nil, engine.StoreError.Wrap(err, "failed to open store").WithProperty(engine.PropertyPath, location)
	}
	// pragmas below are per connection
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, engine.StoreError.Wrap(err, "failed to open store").WithProperty(engine.PropertyPath, location)
	}

	var pragma string
	switch mode {
	case openRead:
		pragma = "PRAGMA query_only=1"
	case openCreate:
		pragma = "PRAGMA journal_mode=" + e.journalMode
	}
	if pragma != "" {
		if _, err = db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, engine.StoreError.Wrap(err, "failed to configure connection").WithProperty(engine.PropertyPath, location)
		}
	}

	return db, nil
}

func closeDB(db *sql.DB, logger *zerolog.Logger, location string) {
	if err := db.Close(); err != nil {
		logger.Warn().Err(err).Str("location", location).Msg("Failed to close store")
	}
}

// Create writes a new empty store at location with the tables of the configuration and its metadata.
// It fails if a file already exists at location.
func (e *Engine) Create(ctx context.Context, location string, s *schema.Schema, configuration string) error {
	if _, err := os.Stat(location); err == nil {
		return engine.StoreError.New("store %q already exists", location).WithProperty(engine.PropertyPath, location)
	}

	db, err := e.open(ctx, location, openCreate)
	if err != nil {
		return err
	}
	defer closeDB(db, e.logger, location)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return engine.StoreError.Wrap(err, "failed to begin transaction").WithProperty(engine.PropertyPath, location)
	}

	if err = createTables(ctx, tx, s, configuration); err != nil {
		_ = tx.Rollback()
		return engine.StoreError.Wrap(err, "failed to create tables").WithProperty(engine.PropertyPath, location)
	}

	if err = writeMetadata(ctx, tx, schema.NewMetadata(StoreType, s, configuration)); err != nil {
		_ = tx.Rollback()
		return engine.StoreError.Wrap(err, "failed to write metadata").WithProperty(engine.PropertyPath, location)
	}

	if err = tx.Commit(); err != nil {
		return engine.StoreError.Wrap(err, "failed to commit store").WithProperty(engine.PropertyPath, location)
	}

	e.logger.Debug().Str("location", location).Str("version", s.Version).Msg("Created store")
	return nil
}

// Insert appends rows to the table of entity. Row keys are field names.
func (e *Engine) Insert(ctx context.Context, location string, entity string, rows ...map[string]any) error {
	db, err := e.open(ctx, location, openWrite)
	if err != nil {
		return err
	}
	defer closeDB(db, e.logger, location)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return engine.StoreError.Wrap(err, "failed to begin transaction").WithProperty(engine.PropertyPath, location)
	}

	for _, row := range rows {
		if err = insertRow(ctx, tx, entity, row); err != nil {
			_ = tx.Rollback()
			return engine.StoreError.Wrap(err, "failed to insert into %s", entity).WithProperty(engine.PropertyPath, location)
		}
	}

	if err = tx.Commit(); err != nil {
		return engine.StoreError.Wrap(err, "failed to commit rows").WithProperty(engine.PropertyPath, location)
	}
	return nil
}

// Rows returns every row of entity in insertion order
func (e *Engine) Rows(ctx context.Context, location string, entity string) ([]map[string]any, error) {
	if _, err := os.Stat(location); err != nil {
		return nil, engine.StoreError.Wrap(err, "store not found").WithProperty(engine.PropertyPath, location)
	}

	db, err := e.open(ctx, location, openRead)
	if err != nil {
		return nil, err
	}
	defer closeDB(db, e.logger, location)

	var out []map[string]any
	err = scanRows(ctx, db, entity, func(row map[string]any) error {
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, engine.StoreError.Wrap(err, "failed to read %s", entity).WithProperty(engine.PropertyPath, location)
	}
	return out, nil
}

// Flush checkpoints the write-ahead log into the main store file and truncates it.
// The journal mode of the store is left as it is, so a store without a write-ahead log is not modified.
func (e *Engine) Flush(ctx context.Context, location string, src *schema.Schema) error {
	if _, err := os.Stat(location); err != nil {
		return engine.StoreError.Wrap(err, "store not found").WithProperty(engine.PropertyPath, location)
	}

	db, err := e.open(ctx, location, openWrite)
	if err != nil {
		return err
	}
	defer closeDB(db, e.logger, location)

	if _, err = db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return engine.StoreError.Wrap(err, "failed to checkpoint write-ahead log").WithProperty(engine.PropertyPath, location)
	}

	version := ""
	if src != nil {
		version = src.Version
	}
	e.logger.Debug().Str("location", location).Str("version", version).Msg("Flushed write-ahead log")
	return nil
}

func (e *Engine) InferMapping(_ context.Context, src, dst *schema.Schema) (*engine.Mapping, error) {
	return engine.Infer(src, dst)
}
