package world_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/carbongdt/carbon/internal/component"
	"github.com/carbongdt/carbon/internal/config"
	"github.com/carbongdt/carbon/internal/core/event"
	"github.com/carbongdt/carbon/internal/persist"
	"github.com/carbongdt/carbon/internal/reference"
	"github.com/carbongdt/carbon/internal/world"
)

// env is one world with its own registry, reference manager, bus and
// observed log.
type env struct {
	w    *world.World
	refs *reference.Manager
	bus  *event.Bus
	logs *observer.ObservedLogs
}

func newEnv(t *testing.T, cfg config.WorldConfig, types *world.Registry) *env {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	refs := reference.NewManager(log)
	bus := event.NewBus()
	w, err := world.New(cfg, types, refs, bus, log)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return &env{w: w, refs: refs, bus: bus, logs: logs}
}

func testConfig(t *testing.T) config.WorldConfig {
	cfg := config.Defaults().World
	cfg.TempDir = t.TempDir()
	return cfg
}

func testRegistry(t *testing.T) *world.Registry {
	t.Helper()
	r := world.NewRegistry()
	require.NoError(t, component.Register(r))
	require.NoError(t, r.RegisterObjectType(world.ObjectType{
		ID:       brokenType,
		Name:     "Broken",
		AllocNew: newBroken,
	}))
	require.NoError(t, r.RegisterObjectType(world.ObjectType{
		ID:       badTableType,
		Name:     "Bad Table",
		AllocNew: newBadTable,
	}))
	require.NoError(t, r.RegisterObjectType(world.ObjectType{
		ID:       assemblyType,
		Name:     "Assembly",
		AllocNew: newAssembly(false),
	}))
	require.NoError(t, r.RegisterObjectType(world.ObjectType{
		ID:       failingAssemblyType,
		Name:     "Failing Assembly",
		AllocNew: newAssembly(true),
	}))
	return r
}

// newMaster creates an open master world.
func newMaster(t *testing.T) *env {
	t.Helper()
	e := newEnv(t, testConfig(t), testRegistry(t))
	require.NoError(t, e.w.Create(context.Background(), world.WorldTypeMaster))
	return e
}

func countRows(t *testing.T, db *persist.DB, table string) int64 {
	t.Helper()
	q, err := db.NewQuery("SELECT COUNT(*) AS Total FROM " + persist.QuoteIdentifier(table))
	require.NoError(t, err)
	defer q.Close()
	require.True(t, q.Step(false))
	var n int64
	require.NoError(t, q.Column("Total", &n))
	return n
}

var brokenType = uuid.MustParse("9e1b4f6a-2d3c-4e5f-8a7b-6c5d4e3f2a10")

var errBroken = errors.New("broken component")

// broken writes its row and then fails, so the caller must undo the write.
type broken struct {
	world.ComponentBase
}

func newBroken(typeID uuid.UUID, refID reference.ID, w *world.World) world.WorldObject {
	return &broken{ComponentBase: world.NewComponentBase(w, typeID, refID)}
}

func (b *broken) DatabaseTable() string { return "Objects::Broken" }

func (b *broken) CreateTypeTables(uuid.UUID) error {
	return b.World().CreateTypeTable("Objects::Broken",
		`CREATE TABLE 'Objects::Broken' (RefId INTEGER PRIMARY KEY, Value INTEGER)`)
}

func (b *broken) OnComponentCreated(*world.ComponentCreatedEventArgs) error {
	q, err := b.World().DB().Prepare(`INSERT INTO 'Objects::Broken' (RefId, Value) VALUES (?1, 1)`)
	if err != nil {
		return err
	}
	if err := q.Exec(b.ReferenceID()); err != nil {
		return err
	}
	return errBroken
}

func (b *broken) OnComponentLoading(*world.ComponentLoadingEventArgs) error { return nil }

var (
	badTableType        = uuid.MustParse("3f0c8e21-6a4d-4b7e-9d15-0e2f7a6b8c44")
	assemblyType        = uuid.MustParse("71d2a9b3-0c8e-4f65-b1a4-5e9d3c2f8a07")
	failingAssemblyType = uuid.MustParse("c6e05b18-9f2a-4d73-8e41-2b7a0d9c5f63")
)

// badTable declares a table the database rejects.
type badTable struct {
	world.ComponentBase
}

func newBadTable(typeID uuid.UUID, refID reference.ID, w *world.World) world.WorldObject {
	return &badTable{ComponentBase: world.NewComponentBase(w, typeID, refID)}
}

func (b *badTable) DatabaseTable() string { return "Objects::BadTable" }

func (b *badTable) CreateTypeTables(uuid.UUID) error {
	return b.World().CreateTypeTable("Objects::BadTable",
		`CREATE TABLE 'Objects::BadTable' (RefId INTEGER PRIMARY KEY,)`)
}

func (b *badTable) OnComponentCreated(*world.ComponentCreatedEventArgs) error   { return nil }
func (b *badTable) OnComponentLoading(*world.ComponentLoadingEventArgs) error { return nil }

// assembly creates a badTable part from its create hook, keeps going when
// the part fails, and writes its own row afterwards.
type assembly struct {
	world.ComponentBase
	fail    bool
	partErr error
}

func newAssembly(fail bool) func(uuid.UUID, reference.ID, *world.World) world.WorldObject {
	return func(typeID uuid.UUID, refID reference.ID, w *world.World) world.WorldObject {
		return &assembly{ComponentBase: world.NewComponentBase(w, typeID, refID), fail: fail}
	}
}

func (a *assembly) DatabaseTable() string { return "Objects::Assembly" }

func (a *assembly) CreateTypeTables(uuid.UUID) error {
	return a.World().CreateTypeTable("Objects::Assembly",
		`CREATE TABLE 'Objects::Assembly' (RefId INTEGER PRIMARY KEY)`)
}

func (a *assembly) OnComponentCreated(*world.ComponentCreatedEventArgs) error {
	_, a.partErr = a.World().CreateObject(false, badTableType)
	q, err := a.World().DB().Prepare(`INSERT INTO 'Objects::Assembly' (RefId) VALUES (?1)`)
	if err != nil {
		return err
	}
	if err := q.Exec(a.ReferenceID()); err != nil {
		return err
	}
	if a.fail {
		return errBroken
	}
	return nil
}

func (a *assembly) OnComponentLoading(*world.ComponentLoadingEventArgs) error { return nil }

// recorder collects listener notifications as "kind:scene" strings.
type recorder struct {
	world.NopListener
	events []string
}

func (r *recorder) OnWorldDisposing(*world.World) { r.events = append(r.events, "disposing") }
func (r *recorder) OnSceneAdded(s *world.Scene)   { r.events = append(r.events, "added:"+s.Name()) }
func (r *recorder) OnSceneLoading(s *world.Scene) { r.events = append(r.events, "loading:"+s.Name()) }
func (r *recorder) OnSceneLoaded(s *world.Scene)  { r.events = append(r.events, "loaded:"+s.Name()) }
func (r *recorder) OnSceneUnloading(s *world.Scene) {
	r.events = append(r.events, "unloading:"+s.Name())
}
func (r *recorder) OnSceneLoadFailed(s *world.Scene, _ error) {
	r.events = append(r.events, "failed:"+s.Name())
}
