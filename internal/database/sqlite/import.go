package sqlite

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fdeworld/internal/database"
	"fdeworld/internal/metrics"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
)

const DefaultImportMinBytes = 4096

// ScraperTables are owned by the scraper and replaced wholesale on import.
// Every other table (candidates, employers, submissions) is preserved.
var ScraperTables = []string{
	"jobs",
	"company_enrichment",
	"discovered_companies",
	"keywords",
	"ats_platforms",
}

var (
	ErrPayloadTooSmall = errors.New("import payload too small")
	ErrInvalidPayload  = errors.New("import payload is not a sqlite database")
)

var sqliteHeader = []byte("SQLite format 3\x00")

type ImportedTable struct {
	Name    string `json:"name"`
	Rows    int64  `json:"rows"`
	Indexes int    `json:"indexes"`
}

type ImportReport struct {
	Bytes  int             `json:"bytes"`
	Path   string          `json:"path"`
	Tables []ImportedTable `json:"tables"`
}

type schemaObject struct {
	kind    string
	name    string
	tblName string
	sql     string
}

// ImportTables replaces the named tables with the copies found in payload,
// a complete SQLite database file. Tables absent from payload are left
// alone. The replacement runs in one transaction, is flushed durably, and
// the handle is reset so the next call reloads and re-migrates.
func (s *Store) ImportTables(ctx context.Context, payload []byte, tables []string) (ImportReport, error) {
	rep := ImportReport{Bytes: len(payload), Path: s.path}

	if len(payload) < s.importMinBytes {
		metrics.StoreImportsTotal.WithLabelValues("rejected").Inc()
		return rep, errors.Wrapf(ErrPayloadTooSmall, "%d bytes, need at least %d", len(payload), s.importMinBytes)
	}
	if !bytes.HasPrefix(payload, sqliteHeader) {
		metrics.StoreImportsTotal.WithLabelValues("rejected").Inc()
		return rep, ErrInvalidPayload
	}
	if len(tables) == 0 {
		tables = ScraperTables
	}

	tmp, err := writeIncoming(s.path, payload)
	if err != nil {
		metrics.StoreImportsTotal.WithLabelValues("error").Inc()
		return rep, err
	}
	defer os.Remove(tmp)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpenLocked(ctx); err != nil {
		metrics.StoreImportsTotal.WithLabelValues("error").Inc()
		return rep, err
	}

	imported, err := s.importLocked(ctx, tmp, tables)
	if err != nil {
		metrics.StoreImportsTotal.WithLabelValues("error").Inc()
		return rep, err
	}
	rep.Tables = imported

	s.dirty = true
	if err := s.flushLocked(ctx); err != nil {
		metrics.StoreImportsTotal.WithLabelValues("error").Inc()
		return rep, err
	}
	s.closeLocked()

	metrics.StoreImportsTotal.WithLabelValues("ok").Inc()
	s.logger.Infow("[Sync] imported scraper tables",
		"path", s.path,
		"payload", humanize.Bytes(uint64(len(payload))),
		"tables", len(imported),
	)
	return rep, nil
}

func (s *Store) importLocked(ctx context.Context, file string, tables []string) ([]ImportedTable, error) {
	if _, err := s.conn.ExecContext(ctx, `ATTACH DATABASE ? AS incoming`, file); err != nil {
		return nil, errors.Wrap(err, "attach incoming database")
	}
	defer func() {
		_, _ = s.conn.ExecContext(context.Background(), `DETACH DATABASE incoming`)
	}()

	objects, err := s.incomingSchema(ctx, tables)
	if err != nil {
		return nil, err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin import")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var out []ImportedTable
	for _, table := range tables {
		create, ok := findObject(objects, "table", table)
		if !ok {
			continue
		}

		q := quoteIdent(table)
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS main."+q); err != nil {
			return nil, errors.Wrapf(err, "drop %s", table)
		}
		if _, err := tx.ExecContext(ctx, create.sql); err != nil {
			return nil, errors.Wrapf(err, "create %s", table)
		}
		res, err := tx.ExecContext(ctx, "INSERT INTO main."+q+" SELECT * FROM incoming."+q)
		if err != nil {
			return nil, errors.Wrapf(err, "copy %s", table)
		}
		n, _ := res.RowsAffected()

		indexes := 0
		for _, obj := range objects {
			if obj.kind != "index" || obj.tblName != table {
				continue
			}
			if _, err := tx.ExecContext(ctx, obj.sql); err != nil {
				return nil, errors.Wrapf(err, "create index %s", obj.name)
			}
			indexes++
		}

		out = append(out, ImportedTable{Name: table, Rows: n, Indexes: indexes})
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit import")
	}
	return out, nil
}

func (s *Store) incomingSchema(ctx context.Context, tables []string) ([]schemaObject, error) {
	placeholders := make([]string, len(tables))
	args := make([]any, len(tables))
	for i, t := range tables {
		placeholders[i] = "?"
		args[i] = t
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT type, name, tbl_name, sql FROM incoming.sqlite_master
		 WHERE sql IS NOT NULL AND type IN ('table', 'index') AND tbl_name IN (`+strings.Join(placeholders, ", ")+`)
		 ORDER BY CASE type WHEN 'table' THEN 0 ELSE 1 END, name`,
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "read incoming schema")
	}
	rs, err := database.Materialize(rows)
	if err != nil {
		return nil, errors.Wrap(err, "read incoming schema")
	}

	out := make([]schemaObject, 0, rs.Len())
	for _, r := range rs.Rows() {
		out = append(out, schemaObject{
			kind:    r.String("type"),
			name:    r.String("name"),
			tblName: r.String("tbl_name"),
			sql:     r.String("sql"),
		})
	}
	return out, nil
}

func findObject(objs []schemaObject, kind, name string) (schemaObject, bool) {
	for _, o := range objs {
		if o.kind == kind && o.name == name {
			return o, true
		}
	}
	return schemaObject{}, false
}

func writeIncoming(canonical string, payload []byte) (string, error) {
	dir := filepath.Dir(canonical)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	path := filepath.Join(dir, fmt.Sprintf(".incoming.%d.db", time.Now().UnixNano()))
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
