// Package backup streams database contents to and from an NDJSON archive:
// one meta record describing the export, then one record per row. Archives
// are portable between the postgres and sqlite backends.
package backup

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

const (
	defaultBatchSize = 512
	formatVersion    = 1
)

var errNoTablesSelected = errors.New("backup: no tables selected")

// ProgressReporter receives per-table progress callbacks during export.
type ProgressReporter interface {
	StartTable(table string, total int)
	Increment(table string, delta int)
	FinishTable(table string)
}

type noopProgress struct{}

func (noopProgress) StartTable(string, int) {}
func (noopProgress) Increment(string, int)  {}
func (noopProgress) FinishTable(string)     {}

// Service exports and imports the application's tables over database/sql,
// independent of the ORM used by the running server.
type Service struct {
	driver     string
	dsn        string
	batchSize  int
	tables     []*table
	tableIndex map[string]*table
	schemaHash string
}

type Option func(*Service)

func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// NewService constructs a backup service bound to the provided database
// driver and DSN.
func NewService(driver, dsn string, opts ...Option) (*Service, error) {
	driver = strings.TrimSpace(strings.ToLower(driver))
	if driver == "" {
		return nil, errors.New("backup: driver is required")
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("backup: DSN is required")
	}

	tables := tableCatalog()
	tableIndex := make(map[string]*table, len(tables))
	for _, tbl := range tables {
		tableIndex[tbl.name] = tbl
	}

	svc := &Service{
		driver:     driver,
		dsn:        dsn,
		batchSize:  defaultBatchSize,
		tables:     tables,
		tableIndex: tableIndex,
		schemaHash: computeSchemaHash(tables),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	tables   []string
	reporter ProgressReporter
}

// WithTables restricts export to the provided table names.
func WithTables(tables []string) ExportOption {
	return func(cfg *exportConfig) {
		if len(tables) == 0 {
			return
		}
		cfg.tables = append([]string{}, tables...)
	}
}

// WithProgressReporter registers a reporter that receives progress callbacks
// during export.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.reporter = reporter
	}
}

type ImportOption func(*importConfig)

type importConfig struct {
	tables []string
}

// WithImportTables restricts import to the provided table names.
func WithImportTables(tables []string) ImportOption {
	return func(cfg *importConfig) {
		if len(tables) == 0 {
			return
		}
		cfg.tables = append([]string{}, tables...)
	}
}

type record struct {
	Type       string         `json:"type"`
	Version    int            `json:"version,omitempty"`
	ExportedAt *time.Time     `json:"exported_at,omitempty"`
	SchemaHash string         `json:"schema_hash,omitempty"`
	Tables     []string       `json:"tables,omitempty"`
	RowCounts  map[string]int `json:"row_counts,omitempty"`
	Payload    any            `json:"payload,omitempty"`
}

type rawRecord struct {
	Type       string          `json:"type"`
	Version    int             `json:"version"`
	ExportedAt *time.Time      `json:"exported_at"`
	SchemaHash string          `json:"schema_hash"`
	Tables     []string        `json:"tables"`
	RowCounts  map[string]int  `json:"row_counts"`
	Payload    json.RawMessage `json:"payload"`
}

type sequenceKey struct {
	Table  string
	Column string
}

type sequenceStats map[sequenceKey]int64

// Export writes a meta record followed by every selected row as NDJSON.
func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	cfg := exportConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := s.selectTables(cfg.tables)
	if err != nil {
		return err
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	db, err := s.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	counts := make(map[string]int, len(tables))
	for _, tbl := range tables {
		count, err := s.countTableRows(ctx, db, tbl.name)
		if err != nil {
			return fmt.Errorf("count table %s: %w", tbl.name, err)
		}
		counts[tbl.name] = count
	}

	writer := bufio.NewWriter(w)
	defer writer.Flush()

	now := time.Now().UTC()
	meta := record{
		Type:       "meta",
		Version:    formatVersion,
		ExportedAt: &now,
		SchemaHash: s.schemaHash,
		Tables:     tableNames(tables),
		RowCounts:  counts,
	}
	if err := writeRecord(writer, meta); err != nil {
		return err
	}

	for _, tbl := range tables {
		reporter.StartTable(tbl.name, counts[tbl.name])
		if err := s.exportTable(ctx, db, tbl, reporter, writer); err != nil {
			return err
		}
		reporter.FinishTable(tbl.name)
	}
	return writer.Flush()
}

// Import replays an archive into the database. All rows land in a single
// transaction; existing rows with the same key are overwritten.
func (s *Service) Import(ctx context.Context, r io.Reader, opts ...ImportOption) error {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := s.selectTables(cfg.tables)
	if err != nil {
		return err
	}
	tableFilter := make(map[string]*table, len(tables))
	for _, tbl := range tables {
		tableFilter[tbl.name] = tbl
	}

	db, err := s.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	br := bufio.NewReader(r)
	var (
		metaSeen bool
		meta     rawRecord
		stats    = make(sequenceStats)
	)

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read backup: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec rawRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}

			switch rec.Type {
			case "meta":
				metaSeen = true
				meta = rec
			default:
				tbl, ok := tableFilter[rec.Type]
				if !ok {
					// Records for tables not requested are skipped.
					break
				}
				if len(rec.Payload) == 0 {
					return fmt.Errorf("backup: missing payload for table %s", rec.Type)
				}
				if err := s.importRow(ctx, tx, tbl, rec.Payload, stats); err != nil {
					return err
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}

	if !metaSeen {
		return errors.New("backup: missing meta record")
	}
	if meta.Version != formatVersion {
		return fmt.Errorf("backup: unsupported format version %d", meta.Version)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	commit = true

	return s.syncSequences(ctx, db, stats)
}

func (s *Service) exportTable(ctx context.Context, db *sql.DB, tbl *table, reporter ProgressReporter, w io.Writer) error {
	columns := tbl.columnNames()
	if len(columns) == 0 {
		return nil
	}
	batch := s.batchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	for offset := 0; ; offset += batch {
		query := fmt.Sprintf("SELECT %s FROM %s%s LIMIT %d OFFSET %d",
			strings.Join(columns, ", "),
			tbl.name,
			tbl.orderByClause(),
			batch,
			offset,
		)
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("query %s: %w", tbl.name, err)
		}

		rowCount := 0
		for rows.Next() {
			values := make([]any, len(columns))
			dest := make([]any, len(columns))
			for i := range dest {
				dest[i] = &values[i]
			}
			if err := rows.Scan(dest...); err != nil {
				rows.Close()
				return fmt.Errorf("scan %s: %w", tbl.name, err)
			}
			rowMap, err := convertRow(tbl, columns, values)
			if err != nil {
				rows.Close()
				return err
			}
			if err := writeRecord(w, record{Type: tbl.name, Payload: rowMap}); err != nil {
				rows.Close()
				return err
			}
			reporter.Increment(tbl.name, 1)
			rowCount++
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterate %s: %w", tbl.name, err)
		}
		rows.Close()
		if rowCount < batch {
			break
		}
	}
	return nil
}

func (s *Service) importRow(ctx context.Context, tx *sql.Tx, tbl *table, payload json.RawMessage, stats sequenceStats) error {
	values, err := decodePayload(tbl, payload)
	if err != nil {
		return fmt.Errorf("decode payload for %s: %w", tbl.name, err)
	}
	if len(values) == 0 {
		return nil
	}

	cols := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	var incrementCols []string
	for _, col := range tbl.columns {
		val, ok := values[col.name]
		if !ok {
			continue
		}
		if val == nil && !col.nullable && !col.increment {
			def, ok := defaultValueForColumn(col)
			if !ok {
				return fmt.Errorf("backup: missing required value for %s.%s", tbl.name, col.name)
			}
			val = def
		}
		cols = append(cols, col.name)
		args = append(args, val)
		if col.increment {
			incrementCols = append(incrementCols, col.name)
		}
	}

	if len(cols) == 0 {
		return nil
	}

	placeholders := buildPlaceholders(s.driver, len(cols))
	if len(placeholders) != len(cols) {
		return fmt.Errorf("backup: unsupported driver %q for placeholders", s.driver)
	}

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tbl.name,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
	)
	upsert, err := buildUpsertClause(s.driver, tbl, cols)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, insert+upsert, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", tbl.name, err)
	}

	for _, colName := range incrementCols {
		if val, ok := values[colName]; ok {
			if max, ok := tryToInt64(val); ok {
				key := sequenceKey{Table: tbl.name, Column: colName}
				if max > stats[key] {
					stats[key] = max
				}
			}
		}
	}
	return nil
}

func (s *Service) selectTables(requested []string) ([]*table, error) {
	if len(requested) == 0 {
		tbls := make([]*table, len(s.tables))
		copy(tbls, s.tables)
		sort.Slice(tbls, func(i, j int) bool { return tbls[i].name < tbls[j].name })
		return tbls, nil
	}
	set := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		n := strings.TrimSpace(strings.ToLower(name))
		if n == "" {
			continue
		}
		if _, ok := s.tableIndex[n]; !ok {
			return nil, fmt.Errorf("backup: unsupported table %q", name)
		}
		set[n] = struct{}{}
	}
	if len(set) == 0 {
		return nil, errNoTablesSelected
	}
	tbls := make([]*table, 0, len(set))
	for _, tbl := range s.tables {
		if _, ok := set[tbl.name]; ok {
			tbls = append(tbls, tbl)
		}
	}
	sort.Slice(tbls, func(i, j int) bool { return tbls[i].name < tbls[j].name })
	return tbls, nil
}

func (s *Service) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if s.driver == "sqlite3" || s.driver == "sqlite" {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}
	return db, nil
}

func (s *Service) countTableRows(ctx context.Context, db *sql.DB, tbl string) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", tbl)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func convertRow(tbl *table, columns []string, values []any) (map[string]any, error) {
	result := make(map[string]any, len(columns))
	for idx, name := range columns {
		col := tbl.column(name)
		if col == nil {
			return nil, fmt.Errorf("column %s not found in table %s", name, tbl.name)
		}
		val, err := convertDBValue(col, values[idx])
		if err != nil {
			return nil, fmt.Errorf("convert %s.%s: %w", tbl.name, name, err)
		}
		result[name] = val
	}
	return result, nil
}

// convertDBValue shapes a scanned database value for the NDJSON payload.
// JSON columns are embedded inline, times as RFC 3339 strings.
func convertDBValue(col *column, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch v := value.(type) {
	case []byte:
		if col.kind == kindJSON {
			cp := make(json.RawMessage, len(v))
			copy(cp, v)
			return cp, nil
		}
		return string(v), nil
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	}

	switch col.kind {
	case kindInt:
		return toInt64(value)
	case kindFloat:
		return toFloat64(value)
	case kindJSON:
		if s, ok := value.(string); ok {
			return json.RawMessage(s), nil
		}
		return value, nil
	default:
		return value, nil
	}
}

func decodePayload(tbl *table, payload json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	result := make(map[string]any, len(raw))
	for key, val := range raw {
		col := tbl.column(key)
		if col == nil {
			return nil, fmt.Errorf("column %s not found in table %s", key, tbl.name)
		}
		converted, err := convertJSONValue(col, val)
		if err != nil {
			return nil, fmt.Errorf("convert %s.%s: %w", tbl.name, key, err)
		}
		result[key] = converted
	}
	return result, nil
}

// convertJSONValue shapes a decoded payload value for a driver bind. JSON
// columns are re-serialized and bound as text, which both backends accept
// for the JSON-in-text columns the schema uses.
func convertJSONValue(col *column, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch col.kind {
	case kindInt:
		return toInt64(value)
	case kindFloat:
		return toFloat64(value)
	case kindTime:
		str, err := toString(value)
		if err != nil {
			return nil, err
		}
		if str == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	case kindJSON:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	default:
		return toString(value)
	}
}

func buildPlaceholders(driver string, count int) []string {
	switch driver {
	case "postgres", "postgresql":
		holders := make([]string, count)
		for i := 0; i < count; i++ {
			holders[i] = fmt.Sprintf("$%d", i+1)
		}
		return holders
	case "sqlite3", "sqlite":
		holders := make([]string, count)
		for i := 0; i < count; i++ {
			holders[i] = "?"
		}
		return holders
	default:
		return nil
	}
}

func buildUpsertClause(driver string, tbl *table, insertCols []string) (string, error) {
	conflictCols := tbl.conflictColumns()
	if len(conflictCols) == 0 {
		return "", nil
	}
	updateCols := difference(insertCols, conflictCols)

	switch driver {
	case "postgres", "postgresql":
		if len(updateCols) == 0 {
			return fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(conflictCols, ", ")), nil
		}
		assignments := make([]string, len(updateCols))
		for i, col := range updateCols {
			assignments[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
		}
		return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s",
			strings.Join(conflictCols, ", "),
			strings.Join(assignments, ", "),
		), nil
	case "sqlite3", "sqlite":
		if len(updateCols) == 0 {
			return fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(conflictCols, ", ")), nil
		}
		assignments := make([]string, len(updateCols))
		for i, col := range updateCols {
			assignments[i] = fmt.Sprintf("%s = excluded.%s", col, col)
		}
		return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s",
			strings.Join(conflictCols, ", "),
			strings.Join(assignments, ", "),
		), nil
	default:
		return "", fmt.Errorf("backup: unsupported driver %q for upsert", driver)
	}
}

func difference(slice []string, exclude []string) []string {
	set := make(map[string]struct{}, len(exclude))
	for _, item := range exclude {
		set[item] = struct{}{}
	}
	result := make([]string, 0, len(slice))
	for _, item := range slice {
		if _, ok := set[item]; !ok {
			result = append(result, item)
		}
	}
	return result
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return err
	}
	return nil
}

// syncSequences bumps postgres identity sequences past the highest imported
// id so subsequent inserts do not collide. Sqlite needs no equivalent.
func (s *Service) syncSequences(ctx context.Context, db *sql.DB, stats sequenceStats) error {
	if len(stats) == 0 {
		return nil
	}
	if s.driver != "postgres" && s.driver != "postgresql" {
		return nil
	}
	for key, maxVal := range stats {
		if maxVal <= 0 {
			continue
		}
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', '%s'), GREATEST(%d, (SELECT COALESCE(MAX(%s), 0) FROM %s)))",
			key.Table,
			key.Column,
			maxVal,
			key.Column,
			key.Table,
		)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("sync sequence for %s.%s: %w", key.Table, key.Column, err)
		}
	}
	return nil
}

func defaultValueForColumn(col *column) (any, bool) {
	switch col.kind {
	case kindJSON:
		return "{}", true
	case kindString:
		return "", true
	case kindInt, kindFloat:
		return 0, true
	default:
		return nil, false
	}
}

func tryToInt64(val any) (int64, bool) {
	switch v := val.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
	case float64:
		return int64(v), true
	case string:
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported int type %T", value)
	}
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("unsupported float type %T", value)
	}
}

func toString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case []byte:
		return string(v), nil
	default:
		return fmt.Sprintf("%v", value), nil
	}
}
