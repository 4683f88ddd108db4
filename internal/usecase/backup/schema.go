package backup

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

type columnKind int

const (
	kindInt columnKind = iota + 1
	kindFloat
	kindString
	kindTime
	kindJSON
)

type column struct {
	name      string
	kind      columnKind
	nullable  bool
	increment bool
}

type table struct {
	name    string
	columns []*column
	primary []string
	uniques [][]string
}

// tableCatalog describes the persisted schema the backup format covers. It
// must stay in step with the models in internal/adapter/repository; the
// schema hash recorded in every export makes drift visible.
func tableCatalog() []*table {
	return []*table{
		{
			name: "users",
			columns: []*column{
				{name: "id", kind: kindInt, increment: true},
				{name: "subject", kind: kindString},
				{name: "nickname", kind: kindString, nullable: true},
				{name: "created_at", kind: kindTime, nullable: true},
				{name: "updated_at", kind: kindTime, nullable: true},
			},
			primary: []string{"id"},
			uniques: [][]string{{"subject"}},
		},
		{
			name: "decks",
			columns: []*column{
				{name: "id", kind: kindInt, increment: true},
				{name: "public_id", kind: kindString},
				{name: "user_id", kind: kindInt},
				{name: "title", kind: kindString},
				{name: "description", kind: kindString, nullable: true},
				{name: "document_id", kind: kindInt, nullable: true},
				{name: "created_at", kind: kindTime, nullable: true},
				{name: "updated_at", kind: kindTime, nullable: true},
			},
			primary: []string{"id"},
			uniques: [][]string{{"public_id"}},
		},
		{
			name: "cards",
			columns: []*column{
				{name: "id", kind: kindInt, increment: true},
				{name: "deck_id", kind: kindInt},
				{name: "position", kind: kindInt},
				{name: "prompt", kind: kindString},
				{name: "answer", kind: kindString},
				{name: "explanation", kind: kindString, nullable: true},
				{name: "created_at", kind: kindTime, nullable: true},
				{name: "updated_at", kind: kindTime, nullable: true},
			},
			primary: []string{"id"},
		},
		{
			name: "documents",
			columns: []*column{
				{name: "id", kind: kindInt, increment: true},
				{name: "public_id", kind: kindString},
				{name: "user_id", kind: kindInt},
				{name: "title", kind: kindString},
				{name: "source", kind: kindString},
				{name: "source_ref", kind: kindString, nullable: true},
				{name: "created_at", kind: kindTime, nullable: true},
				{name: "updated_at", kind: kindTime, nullable: true},
			},
			primary: []string{"id"},
			uniques: [][]string{{"public_id"}},
		},
		{
			name: "summaries",
			columns: []*column{
				{name: "id", kind: kindInt, increment: true},
				{name: "document_id", kind: kindInt},
				{name: "version", kind: kindInt},
				{name: "text", kind: kindString},
				{name: "model", kind: kindString, nullable: true},
				{name: "generated_at", kind: kindTime, nullable: true},
			},
			primary: []string{"id"},
			uniques: [][]string{{"document_id", "version"}},
		},
		{
			name: "study_records",
			columns: []*column{
				{name: "id", kind: kindInt, increment: true},
				{name: "user_id", kind: kindInt},
				{name: "deck_id", kind: kindInt},
				{name: "mode", kind: kindString},
				{name: "ratings", kind: kindJSON},
				{name: "started_at", kind: kindTime, nullable: true},
				{name: "completed_at", kind: kindTime, nullable: true},
			},
			primary: []string{"id"},
		},
	}
}

func (t *table) column(name string) *column {
	for _, col := range t.columns {
		if col.name == name {
			return col
		}
	}
	return nil
}

func (t *table) columnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.name
	}
	return names
}

// conflictColumns picks the upsert conflict target: the primary key, or the
// first unique index when a table has no primary key.
func (t *table) conflictColumns() []string {
	if len(t.primary) > 0 {
		return t.primary
	}
	if len(t.uniques) > 0 {
		return t.uniques[0]
	}
	return nil
}

func (t *table) orderByClause() string {
	cols := t.primary
	if len(cols) == 0 {
		cols = t.columnNames()
	}
	if len(cols) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(cols, ", ")
}

func tableNames(tables []*table) []string {
	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.name
	}
	return names
}

// computeSchemaHash fingerprints the catalog so a backup records which schema
// shape produced it.
func computeSchemaHash(tables []*table) string {
	builder := &strings.Builder{}
	sorted := make([]*table, len(tables))
	copy(sorted, tables)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })

	for _, tbl := range sorted {
		builder.WriteString(tbl.name)
		builder.WriteString("|cols:")
		cols := make([]*column, len(tbl.columns))
		copy(cols, tbl.columns)
		sort.Slice(cols, func(i, j int) bool { return cols[i].name < cols[j].name })
		for _, col := range cols {
			builder.WriteString(fmt.Sprintf("%s:%d:%t:%t;", col.name, col.kind, col.nullable, col.increment))
		}
		builder.WriteString("|pk:")
		builder.WriteString(strings.Join(tbl.primary, ","))
		builder.WriteString("|uniq:")
		for _, uniq := range tbl.uniques {
			builder.WriteString(strings.Join(uniq, ","))
			builder.WriteByte(';')
		}
		builder.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(builder.String()))
	return fmt.Sprintf("%x", sum[:])
}
