package world

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/carbongdt/carbon/internal/persist"
)

// PathColumnType is the declared column type of asset paths. Values are
// stored relative to the world file and held absolute while editing.
const PathColumnType = "path"

// ResolvePath returns p as an absolute path. Relative values are taken
// against the directory of the world file.
func (w *World) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	base := ""
	if w.sourcePath != "" {
		base = filepath.Dir(w.sourcePath)
	}
	return absolutePath(base, p)
}

func absolutePath(base, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	if base == "" {
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return filepath.Join(base, p)
}

// relativePath returns p relative to base in slash form. Paths that cannot
// be expressed relative to base are kept as they are.
func relativePath(base, p string) string {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(p)
	}
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

type pathRow struct {
	rowID int64
	value string
}

// relocatePaths rewrites every "path" column of every table, making values
// absolute or relative to base. The whole pass is one transaction.
func relocatePaths(db *persist.DB, base string, toAbsolute bool, log *zap.Logger) (err error) {
	tables, err := db.Tables()
	if err != nil {
		return err
	}
	if err := db.BeginTransaction(); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			db.RollbackTransaction()
		}
	}()

	total := 0
	for _, table := range tables {
		cols, err := db.ColumnsOfType(table, PathColumnType)
		if err != nil {
			return err
		}
		for _, col := range cols {
			n, err := relocateColumn(db, table, col, base, toAbsolute)
			if err != nil {
				return fmt.Errorf("relocate %s.%s: %w", table, col, err)
			}
			total += n
		}
	}
	if err := db.CommitTransaction(); err != nil {
		return err
	}
	log.Debug("relocated path columns",
		zap.String("db", db.Path()), zap.Bool("absolute", toAbsolute), zap.Int("rows", total))
	return nil
}

func relocateColumn(db *persist.DB, table, col, base string, toAbsolute bool) (int, error) {
	qt, qc := persist.QuoteIdentifier(table), persist.QuoteIdentifier(col)
	sel, err := db.NewQuery(fmt.Sprintf(
		`SELECT rowid AS RowId, %[2]s AS Value FROM %[1]s WHERE %[2]s IS NOT NULL AND %[2]s <> ''`, qt, qc))
	if err != nil {
		return 0, err
	}
	var rows []pathRow
	err = sel.Each(func(q *persist.Query) error {
		var r pathRow
		if err := errors.Join(q.Column("RowId", &r.rowID), q.Column("Value", &r.value)); err != nil {
			return err
		}
		var next string
		if toAbsolute {
			next = absolutePath(base, r.value)
		} else {
			next = relativePath(base, r.value)
		}
		if next != r.value {
			r.value = next
			rows = append(rows, r)
		}
		return nil
	})
	sel.Close()
	if err != nil || len(rows) == 0 {
		return 0, err
	}

	upd, err := db.NewQuery(fmt.Sprintf(`UPDATE %s SET %s = ?1 WHERE rowid = ?2`, qt, qc))
	if err != nil {
		return 0, err
	}
	defer upd.Close()
	for _, r := range rows {
		if err := upd.Exec(r.value, r.rowID); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

// CheckPathColumns returns the columns of table that look like asset paths
// by name but are not declared with PathColumnType. Such columns are not
// relocated on open and save, so each one is logged as a warning.
func (w *World) CheckPathColumns(table string) ([]string, error) {
	cols, err := w.db.TableInfo(table)
	if err != nil {
		return nil, err
	}
	var suspect []string
	for _, c := range cols {
		name := strings.ToLower(c.Name)
		if !strings.HasSuffix(name, "file") && !strings.HasSuffix(name, "path") {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(c.Type), PathColumnType) {
			continue
		}
		w.log.Warn("path-like column not declared as path; it will not be relocated",
			zap.String("table", table), zap.String("column", c.Name), zap.String("type", c.Type))
		suspect = append(suspect, c.Name)
	}
	return suspect, nil
}
