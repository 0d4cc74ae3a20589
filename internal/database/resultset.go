package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrMissingColumn is returned by ResultSet.Require when a query shape does
// not carry a column its mapper reads.
var ErrMissingColumn = errors.New("missing column")

const timeLayout = "2006-01-02 15:04:05"

// ResultSet holds every row of a query. Values are string, int64, float64
// or nil; blobs and driver time values are read as strings.
type ResultSet struct {
	Columns []string
	Values  [][]any

	index map[string]int
}

func NewResultSet(columns []string, values [][]any) *ResultSet {
	rs := &ResultSet{Columns: columns, Values: values}
	rs.buildIndex()
	return rs
}

func (rs *ResultSet) buildIndex() {
	rs.index = make(map[string]int, len(rs.Columns))
	for i, c := range rs.Columns {
		if _, ok := rs.index[c]; !ok {
			rs.index[c] = i
		}
	}
}

func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Values)
}

// Require fails when any of cols is absent from the result.
func (rs *ResultSet) Require(cols ...string) error {
	if rs == nil {
		return errors.Wrap(ErrMissingColumn, "nil result set")
	}
	if rs.index == nil {
		rs.buildIndex()
	}
	var missing []string
	for _, c := range cols {
		if _, ok := rs.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrMissingColumn, "%s", strings.Join(missing, ", "))
	}
	return nil
}

func (rs *ResultSet) Row(i int) Row {
	if rs.index == nil {
		rs.buildIndex()
	}
	return Row{set: rs, vals: rs.Values[i]}
}

func (rs *ResultSet) Rows() []Row {
	out := make([]Row, 0, rs.Len())
	for i := 0; i < rs.Len(); i++ {
		out = append(out, rs.Row(i))
	}
	return out
}

// First returns the first row, if any.
func (rs *ResultSet) First() (Row, bool) {
	if rs.Len() == 0 {
		return Row{}, false
	}
	return rs.Row(0), true
}

// Row reads typed values by column name. Absent columns read as NULL.
type Row struct {
	set  *ResultSet
	vals []any
}

func (r Row) Value(col string) any {
	if r.set == nil {
		return nil
	}
	i, ok := r.set.index[col]
	if !ok || i >= len(r.vals) {
		return nil
	}
	return r.vals[i]
}

func (r Row) NullString(col string) *string {
	switch v := r.Value(col).(type) {
	case nil:
		return nil
	case string:
		return &v
	case []byte:
		s := string(v)
		return &s
	case int64:
		s := strconv.FormatInt(v, 10)
		return &s
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return &s
	default:
		s := fmt.Sprint(v)
		return &s
	}
}

func (r Row) String(col string) string {
	if p := r.NullString(col); p != nil {
		return *p
	}
	return ""
}

func (r Row) NullInt64(col string) *int64 {
	switch v := r.Value(col).(type) {
	case nil:
		return nil
	case int64:
		return &v
	case float64:
		n := int64(v)
		return &n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil
		}
		return &n
	case []byte:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}

func (r Row) Int64(col string) int64 {
	if p := r.NullInt64(col); p != nil {
		return *p
	}
	return 0
}

func (r Row) Int(col string) int {
	return int(r.Int64(col))
}

// Bool treats any non-zero integer as true.
func (r Row) Bool(col string) bool {
	return r.Int64(col) != 0
}

// Materialize drains rows into a ResultSet and closes them.
func Materialize(rows *sql.Rows) (*ResultSet, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "read columns")
	}

	values := make([][]any, 0)
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		for i, v := range raw {
			raw[i] = normalizeValue(v)
		}
		values = append(values, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rows")
	}

	return NewResultSet(cols, values), nil
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil, string, int64, float64:
		return t
	case []byte:
		return string(t)
	case bool:
		if t {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return t.UTC().Format(timeLayout)
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return fmt.Sprint(t)
	}
}
