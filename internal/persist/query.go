package persist

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ncruces/go-sqlite3"
	"go.uber.org/zap"
)

// ErrNoRow is returned when a column is read without a current row.
var ErrNoRow = errors.New("no row available")

// Query is a prepared statement with 1-based parameter binding and
// typed column retrieval by name or index.
type Query struct {
	db      *DB
	stmt    *sqlite3.Stmt
	sql     string
	cached  bool
	columns map[string]int

	hasRow  bool
	lastErr error
}

func (q *Query) indexColumns() {
	n := q.stmt.ColumnCount()
	q.columns = make(map[string]int, n)
	for i := 0; i < n; i++ {
		q.columns[q.stmt.ColumnName(i)] = i
	}
}

// SQL returns the statement text.
func (q *Query) SQL() string { return q.sql }

// BindParameter binds value to the 1-based parameter index.
func (q *Query) BindParameter(index int, value any) error {
	var err error
	switch v := value.(type) {
	case nil:
		err = q.stmt.BindNull(index)
	case bool:
		err = q.stmt.BindBool(index, v)
	case int:
		err = q.stmt.BindInt64(index, int64(v))
	case int32:
		err = q.stmt.BindInt64(index, int64(v))
	case int64:
		err = q.stmt.BindInt64(index, v)
	case uint32:
		err = q.stmt.BindInt64(index, int64(v))
	case float32:
		err = q.stmt.BindFloat(index, float64(v))
	case float64:
		err = q.stmt.BindFloat(index, v)
	case string:
		err = q.stmt.BindText(index, v)
	case []byte:
		err = q.stmt.BindBlob(index, v)
	case uuid.UUID:
		err = q.stmt.BindText(index, v.String())
	case interface{ Int64() int64 }:
		err = q.stmt.BindInt64(index, v.Int64())
	default:
		err = fmt.Errorf("unsupported parameter type %T", value)
	}
	if err != nil {
		q.lastErr = err
		return fmt.Errorf("bind parameter %d: %w", index, err)
	}
	return nil
}

// Bind binds each value in order starting at parameter 1.
func (q *Query) Bind(values ...any) error {
	for i, v := range values {
		if err := q.BindParameter(i+1, v); err != nil {
			return err
		}
	}
	return nil
}

// Step executes the statement once. It returns false only on error; a
// statement that produced no row still succeeds. A failed step always
// resets the statement so the enclosing transaction can be rolled back.
func (q *Query) Step(autoReset bool) bool {
	q.hasRow = q.stmt.Step()
	if err := q.stmt.Err(); err != nil {
		q.lastErr = err
		q.hasRow = false
		q.db.log.Error("failed to step statement",
			zap.String("sql", q.sql), zap.String("db", q.db.path), zap.Error(err))
		q.stmt.Reset()
		return false
	}
	if autoReset {
		q.Reset()
	}
	return true
}

// Exec binds values, steps once and resets.
func (q *Query) Exec(values ...any) error {
	if err := q.Bind(values...); err != nil {
		q.Reset()
		return err
	}
	if !q.Step(true) {
		return fmt.Errorf("exec: %w", q.lastErr)
	}
	return nil
}

// HasRow reports whether the last step produced a row.
func (q *Query) HasRow() bool { return q.hasRow }

// NextRow advances to the next result row.
func (q *Query) NextRow() bool {
	if !q.hasRow {
		return false
	}
	return q.Step(false) && q.hasRow
}

// Each steps through every result row and calls fn for each one, stopping
// at the first error. The statement is reset afterwards.
func (q *Query) Each(fn func(*Query) error) error {
	defer q.Reset()
	for q.stmt.Step() {
		q.hasRow = true
		if err := fn(q); err != nil {
			return err
		}
	}
	q.hasRow = false
	if err := q.stmt.Err(); err != nil {
		q.lastErr = err
		q.db.log.Error("failed to step statement",
			zap.String("sql", q.sql), zap.String("db", q.db.path), zap.Error(err))
		return fmt.Errorf("step: %w", err)
	}
	return nil
}

// Reset rewinds the statement, keeping its bindings.
func (q *Query) Reset() error {
	q.hasRow = false
	if err := q.stmt.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// LastError returns the most recent driver error text, or "".
func (q *Query) LastError() string {
	if q.lastErr == nil {
		return ""
	}
	return q.lastErr.Error()
}

// Column reads the named column of the current row into dst.
func (q *Query) Column(name string, dst any) error {
	col, ok := q.columns[name]
	if !ok {
		return fmt.Errorf("column %q not found in %q", name, q.sql)
	}
	return q.ColumnAt(col, dst)
}

// ColumnAt reads the zero-based column of the current row into dst.
// NULL reads as the zero value.
func (q *Query) ColumnAt(col int, dst any) error {
	if !q.hasRow {
		return ErrNoRow
	}
	s := q.stmt
	switch d := dst.(type) {
	case *bool:
		*d = s.ColumnBool(col)
	case *int:
		*d = int(s.ColumnInt64(col))
	case *int32:
		*d = int32(s.ColumnInt64(col))
	case *int64:
		*d = s.ColumnInt64(col)
	case *uint32:
		*d = uint32(s.ColumnInt64(col))
	case *float32:
		*d = float32(s.ColumnFloat(col))
	case *float64:
		*d = s.ColumnFloat(col)
	case *string:
		*d = s.ColumnText(col)
	case *[]byte:
		*d = s.ColumnBlob(col, (*d)[:0])
	case *uuid.UUID:
		id, err := uuid.Parse(s.ColumnText(col))
		if err != nil {
			return fmt.Errorf("column %d: %w", col, err)
		}
		*d = id
	default:
		return fmt.Errorf("unsupported column destination %T", dst)
	}
	return nil
}

// IsNull reports whether the named column of the current row is NULL.
func (q *Query) IsNull(name string) bool {
	col, ok := q.columns[name]
	if !ok || !q.hasRow {
		return true
	}
	return q.stmt.ColumnType(col) == sqlite3.NULL
}

// Close finalizes a statement obtained from NewQuery. Cached statements
// are left to the database.
func (q *Query) Close() error {
	if q.cached {
		return q.Reset()
	}
	return q.finalize()
}

func (q *Query) finalize() error {
	delete(q.db.statements, q)
	if q.stmt == nil {
		return nil
	}
	err := q.stmt.Close()
	q.stmt = nil
	return err
}
