package world

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carbongdt/carbon/internal/config"
	"github.com/carbongdt/carbon/internal/core/event"
	"github.com/carbongdt/carbon/internal/persist"
	"github.com/carbongdt/carbon/internal/reference"
)

// World owns one world database and every component loaded from it.
// Single-goroutine access only.
type World struct {
	cfg   config.WorldConfig
	types *Registry
	refs  *reference.Manager
	bus   *event.Bus
	log   *zap.Logger

	minVersion Version
	maxVersion Version

	state       State
	db          *persist.DB
	config      *Configuration
	sourcePath  string
	workingPath string
	temporary   bool

	tablesCreated map[uuid.UUID]struct{}
	components    map[reference.ID]Component
	scenes        []*Scene
	sceneIndex    map[uint32]*Scene
	listeners     []Listener
}

// New returns an unopened world. bus may be nil.
func New(cfg config.WorldConfig, types *Registry, refs *reference.Manager, bus *event.Bus, log *zap.Logger) (*World, error) {
	minV, err := ParseVersion(cfg.MinVersion)
	if err != nil {
		return nil, fmt.Errorf("min version: %w", err)
	}
	maxV, err := ParseVersion(cfg.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("max version: %w", err)
	}
	if minV.Compare(maxV) > 0 {
		return nil, fmt.Errorf("min version %s above max version %s", minV, maxV)
	}
	return &World{
		cfg:           cfg,
		types:         types,
		refs:          refs,
		bus:           bus,
		log:           log,
		minVersion:    minV,
		maxVersion:    maxV,
		tablesCreated: make(map[uuid.UUID]struct{}),
		components:    make(map[reference.ID]Component),
		sceneIndex:    make(map[uint32]*Scene),
	}, nil
}

func (w *World) State() State                  { return w.state }
func (w *World) IsOpen() bool                  { return w.state == StateOpen }
func (w *World) IsEditing() bool               { return w.cfg.Editing }
func (w *World) DB() *persist.DB               { return w.db }
func (w *World) Configuration() *Configuration { return w.config }
func (w *World) Registry() *Registry           { return w.types }
func (w *World) References() *reference.Manager { return w.refs }
func (w *World) Logger() *zap.Logger           { return w.log }

// SourcePath is the file the world was opened from or last saved to.
func (w *World) SourcePath() string { return w.sourcePath }

// WorkingPath is the file the connection is attached to.
func (w *World) WorkingPath() string { return w.workingPath }

func (w *World) checkOpen() error {
	switch w.state {
	case StateOpen:
		return nil
	case StateDisposing, StateClosed:
		return ErrDisposed
	}
	return ErrNotOpen
}

func (w *World) checkUnopened() error {
	switch w.state {
	case StateUninitialized:
		return nil
	case StateOpen:
		return ErrAlreadyOpen
	}
	return ErrDisposed
}

// fail logs err, disposes the world and returns err.
func (w *World) fail(msg string, err error, fields ...zap.Field) error {
	w.log.Error(msg, append(fields, zap.Error(err))...)
	w.Close()
	return err
}

func (w *World) tempFile(dir, pattern string) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("create temp file: %w", err)
	}
	return name, nil
}

func (w *World) attach(path string, readOnly bool) error {
	db, err := persist.Open(path, readOnly, w.log)
	if err != nil {
		return err
	}
	w.db = db
	w.workingPath = path
	return db.ApplyPragmas(w.cfg.Pragmas)
}

// Create lays out a new world of the given type in a temporary working
// file. Any failure leaves the world disposed.
func (w *World) Create(ctx context.Context, worldType WorldType) error {
	if err := w.checkUnopened(); err != nil {
		return err
	}
	layouts, err := persist.Layouts()
	if err != nil {
		return w.fail("failed to read world layouts", err)
	}
	ddl, err := layouts.DDL(string(worldType))
	if err != nil {
		return w.fail("failed to create world", fmt.Errorf("%w: %s", ErrUnknownWorldType, worldType),
			zap.String("world_type", string(worldType)))
	}

	path, err := w.tempFile(w.cfg.TempDir, "carbon-*.world")
	if err != nil {
		return w.fail("failed to create world", err)
	}
	w.temporary = true
	if err := w.attach(path, false); err != nil {
		return w.fail("failed to create world", err, zap.String("db", path))
	}

	if err := w.db.BeginTransaction(); err != nil {
		return w.fail("failed to create world", err)
	}
	if err := w.db.ExecQuery(ddl); err != nil {
		w.db.RollbackTransaction()
		return w.fail("failed to lay out world", err, zap.String("world_type", string(worldType)))
	}
	if err := w.db.CommitTransaction(); err != nil {
		return w.fail("failed to lay out world", err)
	}
	if err := persist.Upgrade(ctx, path); err != nil {
		return w.fail("failed to upgrade new world", err)
	}

	w.config = newConfiguration(w.db, w.types, w.log)
	if err := w.config.New(worldType); err != nil {
		return w.fail("failed to create world", err)
	}
	if err := w.config.Load(ctx, CurrentVersion, CurrentVersion, false); err != nil {
		return w.fail("failed to create world", err)
	}

	w.state = StateOpen
	w.log.Info("world created",
		zap.String("world_type", string(worldType)),
		zap.Stringer("world_id", w.config.WorldID()),
		zap.String("db", path))
	return nil
}

// Open attaches to an existing world file. In editing mode the file is
// copied to a private working file, migrated when allowed, and its stored
// relative paths are made absolute. Otherwise the file is opened read-only
// in place. Any failure leaves the world disposed.
func (w *World) Open(ctx context.Context, path string) error {
	if err := w.checkUnopened(); err != nil {
		return err
	}
	src, err := filepath.Abs(path)
	if err != nil {
		return w.fail("failed to open world", err, zap.String("path", path))
	}
	if _, err := os.Stat(src); err != nil {
		return w.fail("failed to open world", err, zap.String("path", src))
	}
	w.sourcePath = src

	if w.cfg.Editing {
		tmp, err := w.tempFile(w.cfg.TempDir, "carbon-*.world")
		if err != nil {
			return w.fail("failed to open world", err)
		}
		w.temporary = true
		w.workingPath = tmp
		if err := copyDatabase(src, tmp, w.log); err != nil {
			return w.fail("failed to copy world", err, zap.String("path", src))
		}
		if err := w.attach(tmp, false); err != nil {
			return w.fail("failed to open world", err, zap.String("db", tmp))
		}
	} else if err := w.attach(src, true); err != nil {
		return w.fail("failed to open world", err, zap.String("db", src))
	}

	w.config = newConfiguration(w.db, w.types, w.log)
	allowUpgrade := w.cfg.AllowUpgrade && w.cfg.Editing
	if err := w.config.Load(ctx, w.minVersion, w.maxVersion, allowUpgrade); err != nil {
		return w.fail("failed to open world", err, zap.String("path", src))
	}

	if w.cfg.Editing {
		if err := relocatePaths(w.db, filepath.Dir(src), true, w.log); err != nil {
			return w.fail("failed to resolve world paths", err, zap.String("path", src))
		}
	}

	w.state = StateOpen
	w.log.Info("world opened",
		zap.String("path", src),
		zap.String("world_type", string(w.config.WorldType())),
		zap.Stringer("version", w.config.Version()),
		zap.Bool("editing", w.cfg.Editing))
	return nil
}

func copyDatabase(src, dst string, log *zap.Logger) error {
	db, err := persist.Open(src, true, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.BackupTo(dst)
}

// Close unloads every scene, evicts every live component and releases the
// database. The working file is removed when it was temporary. Calling
// Close again is a no-op.
func (w *World) Close() error {
	switch w.state {
	case StateDisposing, StateClosed:
		return nil
	}
	wasOpen := w.state == StateOpen
	w.state = StateDisposing

	if wasOpen {
		w.notifyWorldDisposing()
		for len(w.scenes) > 0 {
			w.unloadScene(w.scenes[len(w.scenes)-1])
		}
	}
	for id, c := range w.components {
		if w.refs.Find(id) == c {
			w.refs.Unregister(id)
		}
		b := c.componentBase()
		b.disposed = true
		b.world = nil
	}
	w.components = make(map[reference.ID]Component)
	w.tablesCreated = make(map[uuid.UUID]struct{})

	var err error
	if w.db != nil {
		err = w.db.Close()
		w.db = nil
	}
	w.config = nil
	if w.temporary && w.workingPath != "" {
		if rmErr := os.Remove(w.workingPath); rmErr != nil && !os.IsNotExist(rmErr) {
			w.log.Warn("failed to remove working file", zap.String("path", w.workingPath), zap.Error(rmErr))
		}
	}
	w.state = StateClosed
	if wasOpen {
		w.log.Info("world closed", zap.String("path", w.sourcePath))
	}
	return err
}

// TableExists reports whether the world database has a table called name.
func (w *World) TableExists(name string) (bool, error) {
	if err := w.checkOpen(); err != nil {
		return false, err
	}
	return w.db.TableExists(name)
}

// ComponentTablesExist reports whether the tables of typeID were created in
// this session.
func (w *World) ComponentTablesExist(typeID uuid.UUID) bool {
	_, ok := w.tablesCreated[typeID]
	return ok
}

// ComponentTablesCreated records that the tables of typeID exist.
func (w *World) ComponentTablesCreated(typeID uuid.UUID) {
	w.tablesCreated[typeID] = struct{}{}
}

// CreateTypeTable runs ddl unless table already exists, then checks the
// table for path columns declared with the wrong type.
func (w *World) CreateTypeTable(table, ddl string) error {
	exists, err := w.db.TableExists(table)
	if err != nil {
		return err
	}
	if !exists {
		if err := w.db.ExecQuery(ddl); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	_, err = w.CheckPathColumns(table)
	return err
}

// ObjectTypeOf returns the stored type of a persistent world object.
func (w *World) ObjectTypeOf(refID reference.ID) (uuid.UUID, error) {
	if err := w.checkOpen(); err != nil {
		return uuid.Nil, err
	}
	q, err := w.db.Prepare(`SELECT ObjectTypeId FROM 'Objects' WHERE RefId = ?1`)
	if err != nil {
		return uuid.Nil, err
	}
	defer q.Reset()
	if err := q.BindParameter(1, refID); err != nil {
		return uuid.Nil, err
	}
	if !q.Step(false) {
		return uuid.Nil, fmt.Errorf("object type of %s: %s", refID, q.LastError())
	}
	var key int64
	if err := q.Column("ObjectTypeId", &key); err != nil {
		return uuid.Nil, fmt.Errorf("object type of %s: %w", refID, err)
	}
	uid, ok := w.config.typeOfKey(categoryObject, key)
	if !ok {
		return uuid.Nil, fmt.Errorf("object type of %s: unknown type key %d", refID, key)
	}
	return uid, nil
}

// generateRefID returns a persistent id when persistent is set, else an
// internal one.
func (w *World) generateRefID(persistent bool) (reference.ID, error) {
	if persistent {
		return w.config.GenerateRefID()
	}
	return w.refs.GenerateInternalID(), nil
}

// adopt registers c as the live instance for its id.
func (w *World) adopt(c Component) error {
	if err := w.refs.Register(c); err != nil {
		return err
	}
	w.components[c.ReferenceID()] = c
	return nil
}

// discard drops a component whose creation failed.
func (w *World) discard(c Component) {
	id := c.ReferenceID()
	if w.refs.Find(id) == c {
		w.refs.Unregister(id)
	}
	if w.components[id] == c {
		delete(w.components, id)
	}
	if d, ok := c.(reference.Disposer); ok {
		d.Dispose()
	}
}

func (w *World) forget(id reference.ID) {
	delete(w.components, id)
}
