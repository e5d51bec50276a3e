// SPDX-License-Identifier: Apache-2.0

package sqlitestore

import (
	"sort"
	"strings"

	"github.com/hashgraph/solo-storekeeper/pkg/schema"
)

const (
	metadataTable = "_storekeeper_metadata"
	metadataKey   = "metadata"
)

var (
	createMetadataTableSQL = `CREATE TABLE IF NOT EXISTS "` + metadataTable + `" (key TEXT PRIMARY KEY, value TEXT NOT NULL)`
	upsertMetadataSQL      = `INSERT INTO "` + metadataTable + `" (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	selectMetadataSQL      = `SELECT value FROM "` + metadataTable + `" WHERE key = ?`
	tableExistsSQL         = `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
)

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func columnType(t schema.FieldType) string {
	switch t {
	case schema.TypeInteger, schema.TypeBoolean:
		return "INTEGER"
	case schema.TypeFloat:
		return "REAL"
	case schema.TypeBytes:
		return "BLOB"
	default:
		return "TEXT"
	}
}

func createTableSQL(e *schema.Entity) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(quoteIdent(e.Name))
	sb.WriteString(" (")
	for i, f := range e.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteIdent(f.Name))
		sb.WriteString(" ")
		sb.WriteString(columnType(f.Type))
		if !f.Optional {
			sb.WriteString(" NOT NULL")
		}
	}
	sb.WriteString(")")
	return sb.String()
}

// insertSQL returns the statement and the column order of its placeholders
func insertSQL(entity string, row map[string]any) (string, []string) {
	columns := make([]string, 0, len(row))
	for c := range row {
		columns = append(columns, c)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		placeholders[i] = "?"
	}

	if len(columns) == 0 {
		return "INSERT INTO " + quoteIdent(entity) + " DEFAULT VALUES", columns
	}

	return "INSERT INTO " + quoteIdent(entity) + " (" + strings.Join(quoted, ", ") + ") VALUES (" +
		strings.Join(placeholders, ", ") + ")", columns
}

func selectAllSQL(entity string) string {
	return "SELECT * FROM " + quoteIdent(entity) + " ORDER BY rowid"
}

func countSQL(entity string) string {
	return "SELECT count(*) FROM " + quoteIdent(entity)
}
