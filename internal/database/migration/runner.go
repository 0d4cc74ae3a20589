package migration

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Execer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type Statement struct {
	Name string
	SQL  string
}

// Column is an additive column. Columns are only ever added: renames, drops
// and type changes are out of reach for this runner.
type Column struct {
	Table string
	Name  string
	Decl  string
}

type Report struct {
	ColumnsAdded []string
}

type Runner struct {
	Logger *zap.SugaredLogger

	Tables  []Statement
	Indexes []Statement
	Columns []Column
}

// NewRunner returns a runner over the application schema.
func NewRunner(logger *zap.SugaredLogger) Runner {
	return Runner{Logger: logger, Tables: tables, Indexes: indexes, Columns: columns}
}

// Run brings db to the current schema. It is safe to run on every open:
// tables and indexes use IF NOT EXISTS and each column is checked before it
// is added.
func (r Runner) Run(ctx context.Context, db Execer) (Report, error) {
	var rep Report
	if db == nil {
		return rep, errors.New("nil db")
	}

	for _, st := range r.Tables {
		if _, err := db.ExecContext(ctx, st.SQL); err != nil {
			return rep, errors.Wrapf(err, "create table %s", st.Name)
		}
	}

	for _, col := range r.Columns {
		exists, err := columnExists(ctx, db, col.Table, col.Name)
		if err != nil {
			return rep, err
		}
		if exists {
			continue
		}
		stmt := "ALTER TABLE " + quoteIdent(col.Table) + " ADD COLUMN " + quoteIdent(col.Name) + " " + col.Decl
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return rep, errors.Wrapf(err, "add column %s.%s", col.Table, col.Name)
		}
		rep.ColumnsAdded = append(rep.ColumnsAdded, col.Table+"."+col.Name)
	}

	for _, st := range r.Indexes {
		if _, err := db.ExecContext(ctx, st.SQL); err != nil {
			return rep, errors.Wrapf(err, "create index %s", st.Name)
		}
	}

	if r.Logger != nil && len(rep.ColumnsAdded) > 0 {
		r.Logger.Infof("[Migrate] added columns: %s", strings.Join(rep.ColumnsAdded, ", "))
	}
	return rep, nil
}

func columnExists(ctx context.Context, db Execer, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, errors.Wrapf(err, "inspect table %s", table)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, errors.Wrapf(err, "inspect table %s", table)
		}
		if strings.EqualFold(name, column) {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return false, errors.Wrapf(err, "inspect table %s", table)
	}
	return found, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
