package persist

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrNoTransaction is returned when committing a savepoint that is not open.
var ErrNoTransaction = errors.New("no such transaction")

// BeginTransaction opens the connection-wide transaction.
func (db *DB) BeginTransaction() error {
	return db.stepControl(db.begin)
}

// CommitTransaction commits the connection-wide transaction.
func (db *DB) CommitTransaction() error {
	return db.stepControl(db.commit)
}

// RollbackTransaction aborts the connection-wide transaction, discarding
// any savepoints opened inside it.
func (db *DB) RollbackTransaction() error {
	db.savepoints = db.savepoints[:0]
	return db.stepControl(db.rollback)
}

func (db *DB) stepControl(q *Query) error {
	if q == nil {
		return fmt.Errorf("transaction control: database closed")
	}
	if !q.Step(true) {
		return fmt.Errorf("%s: %w", q.sql, q.lastErr)
	}
	return nil
}

// BeginNamedTransaction opens a savepoint. Names may repeat across nesting
// levels; the innermost one wins on commit and rollback.
func (db *DB) BeginNamedTransaction(name string) error {
	if err := db.conn.Exec("SAVEPOINT " + QuoteIdentifier(name)); err != nil {
		db.log.Error("failed to begin named transaction", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("savepoint %s: %w", name, err)
	}
	db.savepoints = append(db.savepoints, name)
	return nil
}

// CommitNamedTransaction releases the innermost savepoint called name
// together with every savepoint nested inside it.
func (db *DB) CommitNamedTransaction(name string) error {
	level := db.savepointLevel(name)
	if level < 0 {
		return fmt.Errorf("release %s: %w", name, ErrNoTransaction)
	}
	if err := db.conn.Exec("RELEASE SAVEPOINT " + QuoteIdentifier(name)); err != nil {
		db.log.Error("failed to commit named transaction", zap.String("name", name), zap.Error(err))
		db.RollbackNamedTransaction(name, false)
		return fmt.Errorf("release %s: %w", name, err)
	}
	db.savepoints = db.savepoints[:level]
	return nil
}

// RollbackNamedTransaction rolls back to the innermost savepoint called name.
// With restart the savepoint stays open for further work; otherwise it is
// released. Rolling back a savepoint that is no longer open is a no-op.
func (db *DB) RollbackNamedTransaction(name string, restart bool) error {
	level := db.savepointLevel(name)
	if level < 0 {
		return nil
	}
	quoted := QuoteIdentifier(name)
	if err := db.conn.Exec("ROLLBACK TO SAVEPOINT " + quoted); err != nil {
		db.log.Error("failed to roll back named transaction", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("rollback to %s: %w", name, err)
	}
	if restart {
		db.savepoints = db.savepoints[:level+1]
		return nil
	}
	db.savepoints = db.savepoints[:level]
	if err := db.conn.Exec("RELEASE SAVEPOINT " + quoted); err != nil {
		db.log.Error("failed to release named transaction", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("release %s: %w", name, err)
	}
	return nil
}

// SavepointDepth returns the number of open savepoints.
func (db *DB) SavepointDepth() int { return len(db.savepoints) }

// InNamedTransaction reports whether a savepoint called name is open.
func (db *DB) InNamedTransaction(name string) bool {
	return db.savepointLevel(name) >= 0
}

func (db *DB) savepointLevel(name string) int {
	for i := len(db.savepoints) - 1; i >= 0; i-- {
		if db.savepoints[i] == name {
			return i
		}
	}
	return -1
}
