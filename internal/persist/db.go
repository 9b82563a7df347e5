package persist

import (
	"fmt"
	"strings"

	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.uber.org/zap"
)

// DB wraps a single SQLite connection owned by one world. It caches
// prepared statements and tracks the named savepoint stack.
// Single-goroutine access only.
type DB struct {
	conn     *sqlite3.Conn
	path     string
	readOnly bool
	log      *zap.Logger

	cache      map[string]*Query
	statements map[*Query]struct{}

	begin    *Query
	commit   *Query
	rollback *Query

	savepoints []string
}

// Open connects to the database file at path. A read-only connection
// never creates the file.
func Open(path string, readOnly bool, log *zap.Logger) (*DB, error) {
	flags := sqlite3.OPEN_READWRITE | sqlite3.OPEN_CREATE
	if readOnly {
		flags = sqlite3.OPEN_READONLY
	}
	conn, err := sqlite3.OpenFlags(path, flags)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	db := &DB{
		conn:       conn,
		path:       path,
		readOnly:   readOnly,
		log:        log,
		cache:      make(map[string]*Query, 64),
		statements: make(map[*Query]struct{}, 64),
	}

	for _, q := range []struct {
		dst **Query
		sql string
	}{
		{&db.begin, "BEGIN"},
		{&db.commit, "COMMIT"},
		{&db.rollback, "ROLLBACK"},
	} {
		stmt, err := db.Prepare(q.sql)
		if err != nil {
			db.Close()
			return nil, err
		}
		*q.dst = stmt
	}
	return db, nil
}

// Path returns the file the connection was opened on.
func (db *DB) Path() string { return db.path }

// ReadOnly reports whether the connection refuses writes.
func (db *DB) ReadOnly() bool { return db.readOnly }

// ApplyPragmas executes each pragma assignment ("synchronous = OFF").
func (db *DB) ApplyPragmas(pragmas []string) error {
	for _, p := range pragmas {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if err := db.ExecQuery("PRAGMA " + p); err != nil {
			return err
		}
	}
	return nil
}

// Prepare compiles sqlText, or returns the cached statement compiled earlier
// for the same text, reset and with bindings cleared.
func (db *DB) Prepare(sqlText string) (*Query, error) {
	if q, ok := db.cache[sqlText]; ok {
		q.Reset()
		q.stmt.ClearBindings()
		return q, nil
	}
	q, err := db.NewQuery(sqlText)
	if err != nil {
		return nil, err
	}
	q.cached = true
	db.cache[sqlText] = q
	return q, nil
}

// NewQuery compiles a statement that is not cached. The caller must Close it.
func (db *DB) NewQuery(sqlText string) (*Query, error) {
	if db.conn == nil {
		return nil, fmt.Errorf("prepare %q: database closed", sqlText)
	}
	stmt, _, err := db.conn.Prepare(sqlText)
	if err != nil {
		db.log.Error("failed to prepare statement",
			zap.String("sql", sqlText), zap.String("db", db.path), zap.Error(err))
		return nil, fmt.Errorf("prepare: %w", err)
	}
	q := &Query{db: db, stmt: stmt, sql: sqlText}
	q.indexColumns()
	db.statements[q] = struct{}{}
	return q, nil
}

// ExecQuery runs one or more statements that return no rows. When it fails
// inside a named transaction, the innermost savepoint is rolled back but left
// open; its owner still releases it.
func (db *DB) ExecQuery(sqlText string) error {
	if db.conn == nil {
		return fmt.Errorf("exec %q: database closed", sqlText)
	}
	if err := db.conn.Exec(sqlText); err != nil {
		db.log.Error("failed to execute query",
			zap.String("sql", sqlText), zap.String("db", db.path), zap.Error(err))
		if n := len(db.savepoints); n > 0 {
			db.RollbackNamedTransaction(db.savepoints[n-1], true)
		}
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// Changes returns the rows modified by the most recent statement.
func (db *DB) Changes() int64 {
	if db.conn == nil {
		return 0
	}
	return db.conn.Changes()
}

// LastInsertRowID returns the rowid of the most recent insert.
func (db *DB) LastInsertRowID() int64 {
	if db.conn == nil {
		return 0
	}
	return db.conn.LastInsertRowID()
}

// BackupTo copies the main database into a new file at dst.
func (db *DB) BackupTo(dst string) error {
	if err := db.conn.Backup("main", dst); err != nil {
		db.log.Error("failed to copy database",
			zap.String("src", db.path), zap.String("dst", dst), zap.Error(err))
		return fmt.Errorf("backup %s: %w", dst, err)
	}
	return nil
}

// Close finalizes every statement and closes the connection. Statements
// still open outside the cache are reported before they are finalized.
// Safe to call more than once.
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	for q := range db.statements {
		if !q.cached {
			db.log.Warn("finalizing unreleased statement",
				zap.String("sql", q.sql), zap.String("db", db.path))
		}
		q.finalize()
	}
	db.cache = map[string]*Query{}
	db.savepoints = nil

	err := db.conn.Close()
	db.conn = nil
	if err != nil {
		db.log.Error("failed to close database", zap.String("db", db.path), zap.Error(err))
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// QuoteIdentifier quotes a table, column or savepoint name for direct
// inclusion in SQL text.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
