// SPDX-License-Identifier: Apache-2.0

package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"

	"github.com/hashgraph/solo-storekeeper/internal/engine"
	"github.com/hashgraph/solo-storekeeper/pkg/schema"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ReadMetadata reads the recorded schema metadata of the store without modifying it
func (e *Engine) ReadMetadata(ctx context.Context, location string) (schema.Metadata, error) {
	var md schema.Metadata

	fi, err := os.Stat(location)
	if err != nil {
		return md, engine.StoreError.Wrap(err, "store not found").WithProperty(engine.PropertyPath, location)
	}
	if !fi.Mode().IsRegular() {
		return md, engine.StoreError.New("store %q is not a regular file", location).WithProperty(engine.PropertyPath, location)
	}

	db, err := e.open(ctx, location, openRead)
	if err != nil {
		return md, err
	}
	defer closeDB(db, e.logger, location)

	var raw string
	if err = db.QueryRowContext(ctx, selectMetadataSQL, metadataKey).Scan(&raw); err != nil {
		return md, engine.StoreError.Wrap(err, "failed to read store metadata").WithProperty(engine.PropertyPath, location)
	}

	if err = json.Unmarshal([]byte(raw), &md); err != nil {
		return md, engine.StoreError.Wrap(err, "failed to decode store metadata").WithProperty(engine.PropertyPath, location)
	}

	return md, nil
}

func writeMetadata(ctx context.Context, db execer, md schema.Metadata) error {
	if _, err := db.ExecContext(ctx, createMetadataTableSQL); err != nil {
		return err
	}

	b, err := json.Marshal(md)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, upsertMetadataSQL, metadataKey, string(b))
	return err
}
