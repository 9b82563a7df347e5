package persist

import (
	"errors"
	"fmt"
	"strings"
)

// ColumnInfo is one row of PRAGMA table_info.
type ColumnInfo struct {
	Name     string
	Type     string
	NotNull  bool
	Primary  bool
	Position int
}

// TableExists reports whether a table called name is present.
func (db *DB) TableExists(name string) (bool, error) {
	q, err := db.Prepare(`SELECT COUNT(*) AS Total FROM sqlite_master WHERE type = 'table' AND name = ?1`)
	if err != nil {
		return false, err
	}
	defer q.Reset()
	if err := q.BindParameter(1, name); err != nil {
		return false, err
	}
	if !q.Step(false) {
		return false, fmt.Errorf("table exists %s: %s", name, q.LastError())
	}
	var total int64
	if err := q.Column("Total", &total); err != nil {
		return false, err
	}
	return total > 0, nil
}

// Tables lists every user table.
func (db *DB) Tables() ([]string, error) {
	q, err := db.Prepare(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	var tables []string
	err = q.Each(func(q *Query) error {
		var name string
		if err := q.Column("name", &name); err != nil {
			return err
		}
		tables = append(tables, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// TableInfo returns the declared columns of table.
func (db *DB) TableInfo(table string) ([]ColumnInfo, error) {
	q, err := db.NewQuery("PRAGMA table_info(" + QuoteIdentifier(table) + ")")
	if err != nil {
		return nil, err
	}
	defer q.Close()
	var cols []ColumnInfo
	err = q.Each(func(q *Query) error {
		var c ColumnInfo
		var pk int64
		err := errors.Join(
			q.Column("cid", &c.Position),
			q.Column("name", &c.Name),
			q.Column("type", &c.Type),
			q.Column("notnull", &c.NotNull),
			q.Column("pk", &pk),
		)
		c.Primary = pk > 0
		cols = append(cols, c)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	return cols, nil
}

// ColumnsOfType returns the columns of table whose declared type equals
// typeName, ignoring case.
func (db *DB) ColumnsOfType(table, typeName string) ([]string, error) {
	cols, err := db.TableInfo(table)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, c := range cols {
		if strings.EqualFold(strings.TrimSpace(c.Type), typeName) {
			out = append(out, c.Name)
		}
	}
	return out, nil
}
