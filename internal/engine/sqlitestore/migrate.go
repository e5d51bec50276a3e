// SPDX-License-Identifier: Apache-2.0

package sqlitestore

import (
	"context"
	"os"

	"github.com/hashgraph/solo-storekeeper/internal/engine"
	"github.com/hashgraph/solo-storekeeper/pkg/schema"
	"github.com/joomcode/errorx"
)

// MigrateCopy writes a new store at req.DestinationPath holding the rows of req.SourcePath mapped to the
// destination schema. The whole destination is written in one transaction, the source is opened read-only.
func (e *Engine) MigrateCopy(ctx context.Context, req engine.CopyRequest, progress engine.ProgressFunc) error {
	if req.Source == nil || req.Destination == nil || req.Mapping == nil {
		return errorx.IllegalArgument.New("copy request requires source, destination and mapping")
	}
	if req.SourcePath == req.DestinationPath {
		return errorx.IllegalArgument.New("copy migration cannot be done in place: %s", req.SourcePath)
	}
	if _, err := os.Stat(req.SourcePath); err != nil {
		return engine.StoreError.Wrap(err, "source store not found").WithProperty(engine.PropertyPath, req.SourcePath)
	}
	if _, err := os.Stat(req.DestinationPath); err == nil {
		return engine.StoreError.New("destination %q already exists", req.DestinationPath).
			WithProperty(engine.PropertyPath, req.DestinationPath)
	}
	if progress == nil {
		progress = func(float64) {}
	}

	src, err := e.open(ctx, req.SourcePath, openRead)
	if err != nil {
		return err
	}
	defer closeDB(src, e.logger, req.SourcePath)

	entities := req.Destination.EntitiesFor(req.Configuration)

	total := 0
	for i := range entities {
		em, ok := req.Mapping.Entity(entities[i].Name)
		if !ok || em.Source == "" {
			continue
		}
		n, err := countRows(ctx, src, em.Source)
		if err != nil {
			return engine.StoreError.Wrap(err, "failed to count %s", em.Source).WithProperty(engine.PropertyPath, req.SourcePath)
		}
		total += n
	}

	dst, err := e.open(ctx, req.DestinationPath, openCreate)
	if err != nil {
		return err
	}
	defer closeDB(dst, e.logger, req.DestinationPath)

	tx, err := dst.BeginTx(ctx, nil)
	if err != nil {
		return engine.StoreError.Wrap(err, "failed to begin transaction").WithProperty(engine.PropertyPath, req.DestinationPath)
	}

	if err = createTables(ctx, tx, req.Destination, req.Configuration); err != nil {
		_ = tx.Rollback()
		return engine.StoreError.Wrap(err, "failed to create tables").WithProperty(engine.PropertyPath, req.DestinationPath)
	}

	copied := 0
	for i := range entities {
		de := &entities[i]
		em, ok := req.Mapping.Entity(de.Name)
		if !ok || em.Source == "" {
			continue
		}

		err = scanRows(ctx, src, em.Source, func(row map[string]any) error {
			mapped, err := mapRow(de, em, row)
			if err != nil {
				return err
			}
			if err = insertRow(ctx, tx, de.Name, mapped); err != nil {
				return err
			}
			copied++
			progress(float64(copied) / float64(total))
			return nil
		})
		if err != nil {
			_ = tx.Rollback()
			return engine.StoreError.Wrap(err, "failed to copy %s into %s", em.Source, de.Name).
				WithProperty(engine.PropertyPath, req.DestinationPath)
		}
	}

	if err = writeMetadata(ctx, tx, schema.NewMetadata(StoreType, req.Destination, req.Configuration)); err != nil {
		_ = tx.Rollback()
		return engine.StoreError.Wrap(err, "failed to write metadata").WithProperty(engine.PropertyPath, req.DestinationPath)
	}

	if err = tx.Commit(); err != nil {
		return engine.StoreError.Wrap(err, "failed to commit destination store").WithProperty(engine.PropertyPath, req.DestinationPath)
	}

	progress(1)

	e.logger.Debug().
		Str("source", req.Source.Version).
		Str("destination", req.Destination.Version).
		Int("rows", copied).
		Msg("Copied store")

	return nil
}

// mapRow builds the destination row of de from a source row
func mapRow(de *schema.Entity, em *engine.EntityMapping, row map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(de.Fields))
	for _, f := range de.Fields {
		var v any
		fm, ok := em.Field(f.Name)
		if ok && fm.Source != "" {
			v = row[fm.Source]
		}
		if v == nil && ok {
			v = fm.Default
		}
		if v == nil {
			v = f.Default
		}
		out[f.Name] = v
	}

	if em.Transform != nil {
		return em.Transform(out)
	}
	return out, nil
}

func createTables(ctx context.Context, db execer, s *schema.Schema, configuration string) error {
	entities := s.EntitiesFor(configuration)
	for i := range entities {
		if _, err := db.ExecContext(ctx, createTableSQL(&entities[i])); err != nil {
			return err
		}
	}
	return nil
}

func insertRow(ctx context.Context, db execer, entity string, row map[string]any) error {
	stmt, columns := insertSQL(entity, row)
	args := make([]any, len(columns))
	for i, c := range columns {
		args[i] = row[c]
	}
	_, err := db.ExecContext(ctx, stmt, args...)
	return err
}

func tableExists(ctx context.Context, db querier, entity string) (bool, error) {
	var n int
	if err := db.QueryRowContext(ctx, tableExistsSQL, entity).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func countRows(ctx context.Context, db querier, entity string) (int, error) {
	exists, err := tableExists(ctx, db, entity)
	if err != nil || !exists {
		return 0, err
	}

	var n int
	err = db.QueryRowContext(ctx, countSQL(entity)).Scan(&n)
	return n, err
}

// scanRows calls fn for every row of entity. A missing table yields no rows.
func scanRows(ctx context.Context, db querier, entity string, fn func(row map[string]any) error) error {
	exists, err := tableExists(ctx, db, entity)
	if err != nil || !exists {
		return err
	}

	rows, err := db.QueryContext(ctx, selectAllSQL(entity))
	if err != nil {
		return err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return err
		}

		row := make(map[string]any, len(columns))
		for i, c := range columns {
			row[c] = values[i]
		}
		if err = fn(row); err != nil {
			return err
		}
	}

	return rows.Err()
}
