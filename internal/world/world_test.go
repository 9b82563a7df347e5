package world_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/carbongdt/carbon/internal/component"
	"github.com/carbongdt/carbon/internal/persist"
	"github.com/carbongdt/carbon/internal/reference"
	"github.com/carbongdt/carbon/internal/world"
)

func TestCreateMasterWorld(t *testing.T) {
	e := newMaster(t)

	assert.Equal(t, world.StateOpen, e.w.State())
	cfg := e.w.Configuration()
	assert.Equal(t, world.CurrentVersion, cfg.Version())
	assert.Equal(t, world.WorldTypeMaster, cfg.WorldType())
	assert.NotEqual(t, uuid.Nil, cfg.WorldID())

	for _, table := range []string{"Configuration", "ObjectTypes", "Objects", "Scenes", "Scenes::Elements"} {
		ok, err := e.w.TableExists(table)
		require.NoError(t, err)
		assert.True(t, ok, table)
	}
	assert.FileExists(t, e.w.WorkingPath())
}

func TestCreateRejectsUnknownWorldType(t *testing.T) {
	e := newEnv(t, testConfig(t), testRegistry(t))
	err := e.w.Create(context.Background(), "galaxy")
	assert.ErrorIs(t, err, world.ErrUnknownWorldType)
	assert.Equal(t, world.StateClosed, e.w.State())
	assert.ErrorIs(t, e.w.Create(context.Background(), world.WorldTypeMaster), world.ErrDisposed)
}

func TestCreateTwiceFails(t *testing.T) {
	e := newMaster(t)
	assert.ErrorIs(t, e.w.Create(context.Background(), world.WorldTypeMaster), world.ErrAlreadyOpen)
	assert.ErrorIs(t, e.w.Open(context.Background(), "other.world"), world.ErrAlreadyOpen)
}

func TestCreateThenLoadReturnsSameInstance(t *testing.T) {
	e := newMaster(t)

	obj, err := e.w.CreateObject(false, component.DirectionalLightType)
	require.NoError(t, err)
	assert.False(t, obj.IsInternal())
	assert.Equal(t, int64(1), countRows(t, e.w.DB(), "Objects"))
	assert.Equal(t, int64(1), countRows(t, e.w.DB(), "Objects::DirectionalLight"))

	again, err := e.w.LoadObject(component.DirectionalLightType, obj.ReferenceID(), world.CloneNone)
	require.NoError(t, err)
	assert.Same(t, obj, again)
	assert.Equal(t, 2, obj.RefCount())

	uid, err := e.w.ObjectTypeOf(obj.ReferenceID())
	require.NoError(t, err)
	assert.Equal(t, component.DirectionalLightType, uid)
}

func TestFailedCreateLeavesNoTrace(t *testing.T) {
	e := newMaster(t)
	live := e.refs.Len()

	obj, err := e.w.CreateObject(false, brokenType)
	assert.ErrorIs(t, err, errBroken)
	assert.Nil(t, obj)

	db := e.w.DB()
	assert.Equal(t, int64(0), countRows(t, db, "Objects"))
	assert.Equal(t, int64(0), countRows(t, db, "ObjectTypes"))
	ok, err := e.w.TableExists("Objects::Broken")
	require.NoError(t, err)
	assert.False(t, ok, "type table creation is rolled back")
	assert.False(t, e.w.ComponentTablesExist(brokenType))
	assert.False(t, e.w.Configuration().TypePersisted(brokenType))
	assert.Equal(t, live, e.refs.Len())
	assert.False(t, db.InNamedTransaction("createObject"))

	// The world stays usable.
	light, err := e.w.CreateObject(false, component.DirectionalLightType)
	require.NoError(t, err)
	assert.Equal(t, int64(1), countRows(t, db, "Objects"))
	assert.NotNil(t, e.refs.Find(light.ReferenceID()))
}

func TestFailedNestedCreateKeepsEnclosingSavepoint(t *testing.T) {
	e := newMaster(t)
	db := e.w.DB()
	live := e.refs.Len()

	obj, err := e.w.CreateObject(false, assemblyType)
	require.NoError(t, err)
	asm := obj.(*assembly)
	assert.Error(t, asm.partErr)
	assert.Zero(t, db.SavepointDepth())

	assert.Equal(t, int64(1), countRows(t, db, "Objects"))
	assert.Equal(t, int64(1), countRows(t, db, "Objects::Assembly"))
	assert.Equal(t, int64(1), countRows(t, db, "ObjectTypes"))
	ok, err := e.w.TableExists("Objects::BadTable")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, e.w.ComponentTablesExist(badTableType))
	assert.Equal(t, live+1, e.refs.Len())
}

func TestFailedCreateUndoesNestedWrites(t *testing.T) {
	e := newMaster(t)
	db := e.w.DB()
	live := e.refs.Len()

	obj, err := e.w.CreateObject(false, failingAssemblyType)
	assert.ErrorIs(t, err, errBroken)
	assert.Nil(t, obj)
	assert.Zero(t, db.SavepointDepth())

	assert.Equal(t, int64(0), countRows(t, db, "Objects"))
	assert.Equal(t, int64(0), countRows(t, db, "ObjectTypes"))
	ok, err := e.w.TableExists("Objects::Assembly")
	require.NoError(t, err)
	assert.False(t, ok, "the enclosing rollback covers writes made after the nested failure")
	assert.Equal(t, live, e.refs.Len())
}

func TestComponentTablesCreatedIsIdempotent(t *testing.T) {
	e := newMaster(t)

	assert.False(t, e.w.ComponentTablesExist(component.HemisphereLightType))
	for i := 0; i < 3; i++ {
		_, err := e.w.CreateObject(false, component.HemisphereLightType)
		require.NoError(t, err)
	}
	assert.True(t, e.w.ComponentTablesExist(component.HemisphereLightType))
	e.w.ComponentTablesCreated(component.HemisphereLightType)
	assert.True(t, e.w.ComponentTablesExist(component.HemisphereLightType))

	assert.Equal(t, int64(1), countRows(t, e.w.DB(), "ObjectTypes"))
	assert.Equal(t, int64(3), countRows(t, e.w.DB(), "Objects::HemisphereLight"))
}

func TestInternalObjectsAreNotStored(t *testing.T) {
	e := newMaster(t)

	obj, err := e.w.CreateObject(true, component.DirectionalLightType)
	require.NoError(t, err)
	assert.True(t, obj.IsInternal())
	assert.GreaterOrEqual(t, uint32(obj.ReferenceID()), uint32(reference.InternalBase))
	require.NoError(t, obj.(*component.DirectionalLight).SetShadowUpdateRate(12))

	assert.Equal(t, int64(0), countRows(t, e.w.DB(), "Objects"))
	ok, err := e.w.TableExists("Objects::DirectionalLight")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdentityConflict(t *testing.T) {
	e := newMaster(t)

	obj, err := e.w.CreateObject(false, component.DirectionalLightType)
	require.NoError(t, err)

	got, err := e.w.LoadObject(component.HemisphereLightType, obj.ReferenceID(), world.CloneNone)
	assert.ErrorIs(t, err, world.ErrIdentityConflict)
	assert.Nil(t, got)
	assert.Equal(t, 1, obj.RefCount())

	entries := e.logs.FilterMessage("reference id already resident as a different type").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestIdentityConflictAcrossCategories(t *testing.T) {
	e := newMaster(t)
	obj, err := e.w.CreateObject(false, component.DirectionalLightType)
	require.NoError(t, err)
	light := obj.(*component.DirectionalLight)
	require.NoError(t, light.SetProjectorTexture(filepath.Join(t.TempDir(), "cookie.dds")))
	projector := light.ProjectorTexture()
	sceneID, err := e.w.CreateScene(world.SceneDescriptor{Name: "Main"})
	require.NoError(t, err)
	scene, err := e.w.LoadScene(sceneID)
	require.NoError(t, err)

	sub, err := e.w.LoadObjectSubElement(component.ProjectorTextureType, light.ReferenceID(), light, world.CloneNone)
	assert.ErrorIs(t, err, world.ErrIdentityConflict)
	assert.Nil(t, sub)

	el, err := e.w.LoadSceneElement(component.SkyBoxType, projector.ReferenceID(), scene, world.CloneNone)
	assert.ErrorIs(t, err, world.ErrIdentityConflict)
	assert.Nil(t, el)

	assert.Equal(t, 1, light.RefCount())
	assert.Equal(t, 1, projector.RefCount())
	assert.Equal(t, 2, e.logs.FilterMessage("reference id already resident as a different type").Len())

	again, err := e.w.LoadObjectSubElement(component.ProjectorTextureType, projector.ReferenceID(), light, world.CloneNone)
	require.NoError(t, err)
	assert.Same(t, projector, again)
	again.Release()
}

func TestLoadMissingRowFails(t *testing.T) {
	e := newMaster(t)
	obj, err := e.w.CreateObject(false, component.DirectionalLightType)
	require.NoError(t, err)
	light := obj.(*component.DirectionalLight)
	require.NoError(t, light.SetProjectorTexture(filepath.Join(t.TempDir(), "cookie.dds")))
	sceneID, err := e.w.CreateScene(world.SceneDescriptor{Name: "Main"})
	require.NoError(t, err)
	scene, err := e.w.LoadScene(sceneID)
	require.NoError(t, err)
	_, err = scene.CreateElement(false, component.SkyBoxType)
	require.NoError(t, err)
	live := e.refs.Len()

	const missing reference.ID = 0x1092

	got, err := e.w.LoadObject(component.DirectionalLightType, missing, world.CloneNone)
	assert.ErrorContains(t, err, "no stored row")
	assert.Nil(t, got)

	sub, err := e.w.LoadObjectSubElement(component.ProjectorTextureType, missing, light, world.CloneNone)
	assert.ErrorContains(t, err, "no stored row")
	assert.Nil(t, sub)

	el, err := e.w.LoadSceneElement(component.SkyBoxType, missing, scene, world.CloneNone)
	assert.ErrorContains(t, err, "no stored row")
	assert.Nil(t, el)

	assert.Nil(t, e.refs.Find(missing), "the half-loaded component is released")
	assert.Equal(t, live, e.refs.Len())
	assert.Equal(t, 1, e.logs.FilterMessage("failed to loadObject").Len())
	assert.Equal(t, 1, e.logs.FilterMessage("failed to loadObjectSubElement").Len())
	assert.Equal(t, 1, e.logs.FilterMessage("failed to loadSceneElement").Len())
	assert.True(t, e.w.IsOpen())
}

func TestUnknownTypeIsRecoverable(t *testing.T) {
	e := newMaster(t)

	_, err := e.w.CreateObject(false, uuid.New())
	assert.ErrorIs(t, err, world.ErrUnknownType)
	_, err = e.w.LoadObject(uuid.New(), 1, world.CloneNone)
	assert.ErrorIs(t, err, world.ErrUnknownType)
	assert.True(t, e.w.IsOpen())
	assert.Equal(t, 2, e.logs.FilterMessage("type not registered").Len())
}

func TestCopyCloneWritesNewRows(t *testing.T) {
	e := newMaster(t)

	obj, err := e.w.CreateObject(false, component.DirectionalLightType)
	require.NoError(t, err)
	light := obj.(*component.DirectionalLight)
	require.NoError(t, light.SetShadowUpdateRate(7.5))
	require.NoError(t, light.SetProjectorTexture(filepath.Join(t.TempDir(), "a.dds")))

	copied, err := e.w.LoadObject(component.DirectionalLightType, light.ReferenceID(), world.CloneCopy)
	require.NoError(t, err)
	dup := copied.(*component.DirectionalLight)
	assert.NotSame(t, light, dup)
	assert.NotEqual(t, light.ReferenceID(), dup.ReferenceID())
	assert.Equal(t, float32(7.5), dup.ShadowUpdateRate())
	require.NotNil(t, dup.ProjectorTexture())
	assert.NotEqual(t, light.ProjectorTexture().ReferenceID(), dup.ProjectorTexture().ReferenceID())
	assert.Equal(t, light.ProjectorTexture().TextureFile(), dup.ProjectorTexture().TextureFile())

	db := e.w.DB()
	assert.Equal(t, int64(2), countRows(t, db, "Objects"))
	assert.Equal(t, int64(2), countRows(t, db, "Objects::DirectionalLight"))
	assert.Equal(t, int64(2), countRows(t, db, "ObjectSubElements"))
	assert.Equal(t, int64(2), countRows(t, db, "Objects::ProjectorTexture"))

	subs, err := e.w.ObjectSubElements(dup.ReferenceID())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, dup.ProjectorTexture().ReferenceID(), subs[0].RefID)

	// Aliasing never writes.
	alias, err := e.w.CreateObjectFrom(false, component.DirectionalLightType, world.CloneObjectInstance, light)
	require.NoError(t, err)
	assert.Same(t, light, alias)
	assert.Equal(t, int64(2), countRows(t, db, "Objects"))
}

func TestReleaseUnregistersAndReloads(t *testing.T) {
	e := newMaster(t)

	obj, err := e.w.CreateObject(false, component.HemisphereLightType)
	require.NoError(t, err)
	h := obj.(*component.HemisphereLight)
	require.NoError(t, h.SetSkyColor(component.NewColor(1, 2, 3, 4)))
	id := h.ReferenceID()

	assert.Equal(t, 0, h.Release())
	assert.Nil(t, e.refs.Find(id))
	assert.True(t, h.IsDisposed())

	again, err := e.w.LoadObject(component.HemisphereLightType, id, world.CloneNone)
	require.NoError(t, err)
	assert.NotSame(t, h, again)
	assert.Equal(t, component.NewColor(1, 2, 3, 4), again.(*component.HemisphereLight).SkyColor())
}

func TestSaveAndOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	texture := filepath.Join(dir, "textures", "sun.dds")
	dest := filepath.Join(dir, "level.world")

	e := newMaster(t)
	obj, err := e.w.CreateObject(false, component.DirectionalLightType)
	require.NoError(t, err)
	light := obj.(*component.DirectionalLight)
	require.NoError(t, light.SetShadowUpdateRate(5))
	require.NoError(t, light.SetIntensity(2.5))
	require.NoError(t, light.SetCastShadows(true))
	require.NoError(t, light.SetDiffuseColor(component.NewColor(250, 240, 200, 255)))
	require.NoError(t, light.SetProjectorTexture(texture))
	id := light.ReferenceID()

	require.NoError(t, e.w.Save(dest))
	assert.Equal(t, dest, e.w.SourcePath())
	require.NoError(t, e.w.Close())
	assert.Nil(t, light.World(), "close evicts live components")
	assert.Equal(t, 0, e.refs.Len())

	// Stored paths are relative to the world file.
	raw, err := persist.Open(dest, true, e.w.Logger())
	require.NoError(t, err)
	q, err := raw.NewQuery(`SELECT TextureFile FROM 'Objects::ProjectorTexture'`)
	require.NoError(t, err)
	require.True(t, q.Step(false))
	var stored string
	require.NoError(t, q.Column("TextureFile", &stored))
	q.Close()
	raw.Close()
	assert.Equal(t, "textures/sun.dds", stored)

	f := newEnv(t, testConfig(t), testRegistry(t))
	require.NoError(t, f.w.Open(context.Background(), dest))
	loaded, err := f.w.LoadObject(component.DirectionalLightType, id, world.CloneNone)
	require.NoError(t, err)
	got := loaded.(*component.DirectionalLight)
	assert.Equal(t, float32(5), got.ShadowUpdateRate())
	assert.Equal(t, float32(2.5), got.Intensity())
	assert.True(t, got.CastShadows())
	assert.Equal(t, component.NewColor(250, 240, 200, 255), got.DiffuseColor())
	require.NotNil(t, got.ProjectorTexture())
	assert.Equal(t, texture, got.ProjectorTexture().TextureFile())

	// New ids continue after the stored counter.
	next, err := f.w.CreateObject(false, component.HemisphereLightType)
	require.NoError(t, err)
	assert.Greater(t, next.ReferenceID(), got.ProjectorTexture().ReferenceID())
}

func TestSaveIntoSubdirectory(t *testing.T) {
	dir := t.TempDir()
	texture := filepath.Join(dir, "assets", "sky.dds")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "levels"), 0o755))
	dest := filepath.Join(dir, "levels", "one.world")

	e := newMaster(t)
	sceneID, err := e.w.CreateScene(world.SceneDescriptor{Name: "Main"})
	require.NoError(t, err)
	scene, err := e.w.LoadScene(sceneID)
	require.NoError(t, err)
	el, err := scene.CreateElement(false, component.SkyBoxType)
	require.NoError(t, err)
	require.NoError(t, el.(*component.SkyBox).SetTextureFile(texture))
	require.NoError(t, e.w.Save(dest))
	require.NoError(t, e.w.Close())

	raw, err := persist.Open(dest, true, e.w.Logger())
	require.NoError(t, err)
	q, err := raw.NewQuery(`SELECT TextureFile FROM 'SceneElements::SkyBox'`)
	require.NoError(t, err)
	require.True(t, q.Step(false))
	var stored string
	require.NoError(t, q.Column("TextureFile", &stored))
	q.Close()
	raw.Close()
	assert.Equal(t, "../assets/sky.dds", stored)

	f := newEnv(t, testConfig(t), testRegistry(t))
	require.NoError(t, f.w.Open(context.Background(), dest))
	reopened, err := f.w.LoadScene(sceneID)
	require.NoError(t, err)
	require.Len(t, reopened.Elements(), 1)
	assert.Equal(t, texture, reopened.Elements()[0].(*component.SkyBox).TextureFile())
}

func TestFailedSaveLeavesDestinationUntouched(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "level.world")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	keep := filepath.Join(dest, "keep.txt")
	require.NoError(t, os.WriteFile(keep, []byte("original"), 0o644))

	e := newMaster(t)
	_, err := e.w.CreateObject(false, component.HemisphereLightType)
	require.NoError(t, err)
	before := e.w.SourcePath()

	assert.Error(t, e.w.Save(dest))
	assert.Equal(t, before, e.w.SourcePath())
	assert.Equal(t, 1, e.logs.FilterMessage("failed to replace world file").Len())

	data, err := os.ReadFile(keep)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
	leftovers, err := filepath.Glob(filepath.Join(dir, ".carbon-save-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "the intermediate file is removed")

	// The world is still usable and saves elsewhere.
	other := filepath.Join(dir, "other.world")
	require.NoError(t, e.w.Save(other))
	assert.Equal(t, other, e.w.SourcePath())
}

func TestOpenWithoutEditing(t *testing.T) {
	dir := t.TempDir()
	texture := filepath.Join(dir, "proj.dds")
	dest := filepath.Join(dir, "level.world")

	e := newMaster(t)
	obj, err := e.w.CreateObject(false, component.DirectionalLightType)
	require.NoError(t, err)
	require.NoError(t, obj.(*component.DirectionalLight).SetProjectorTexture(texture))
	id := obj.ReferenceID()
	require.NoError(t, e.w.Save(dest))
	require.NoError(t, e.w.Close())

	cfg := testConfig(t)
	cfg.Editing = false
	f := newEnv(t, cfg, testRegistry(t))
	require.NoError(t, f.w.Open(context.Background(), dest))
	assert.Equal(t, dest, f.w.WorkingPath(), "read in place")
	assert.True(t, f.w.DB().ReadOnly())

	loaded, err := f.w.LoadObject(component.DirectionalLightType, id, world.CloneNone)
	require.NoError(t, err)
	assert.Equal(t, texture, loaded.(*component.DirectionalLight).ProjectorTexture().TextureFile())

	fresh, err := f.w.CreateObject(false, component.HemisphereLightType)
	require.NoError(t, err)
	assert.True(t, fresh.IsInternal())

	assert.ErrorIs(t, f.w.Save(dest), world.ErrNotEditing)
	require.NoError(t, f.w.Close())
	assert.FileExists(t, dest)
}

// layoutOnly writes a world at the unmigrated layout version.
func layoutOnly(t *testing.T, path string) {
	t.Helper()
	layouts, err := persist.Layouts()
	require.NoError(t, err)
	ddl, err := layouts.DDL("master")
	require.NoError(t, err)
	db, err := persist.Open(path, false, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, db.ExecQuery(ddl))
	require.NoError(t, db.Close())
}

func TestVersionGate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.world")
	layoutOnly(t, path)

	cfg := testConfig(t)
	cfg.AllowUpgrade = false
	cfg.MinVersion = "1.0.1"
	e := newEnv(t, cfg, testRegistry(t))
	err := e.w.Open(context.Background(), path)
	assert.ErrorIs(t, err, world.ErrVersionMismatch)
	assert.Equal(t, world.StateClosed, e.w.State())
	entries := e.logs.FilterMessage("world version not supported").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "1.0.0", fields["actual"])
	assert.Equal(t, "1.0.1", fields["min"])
	assert.Equal(t, "1.0.2", fields["max"])

	// Bounds are inclusive.
	cfg.MinVersion = "1.0.0"
	cfg.MaxVersion = "1.0.0"
	f := newEnv(t, cfg, testRegistry(t))
	require.NoError(t, f.w.Open(context.Background(), path))
	assert.Equal(t, world.Version{Version: 1}, f.w.Configuration().Version())

	cfg.MaxVersion = "0.9.9"
	cfg.MinVersion = "0.9.0"
	g := newEnv(t, cfg, testRegistry(t))
	assert.ErrorIs(t, g.w.Open(context.Background(), path), world.ErrVersionMismatch)
}

func TestOpenUpgradesWorkingCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.world")
	layoutOnly(t, path)

	e := newEnv(t, testConfig(t), testRegistry(t))
	require.NoError(t, e.w.Open(context.Background(), path))
	assert.Equal(t, world.CurrentVersion, e.w.Configuration().Version())

	// The source file is untouched until saved.
	raw, err := persist.Open(path, true, e.w.Logger())
	require.NoError(t, err)
	defer raw.Close()
	q, err := raw.NewQuery(`SELECT Revision FROM 'Configuration'`)
	require.NoError(t, err)
	defer q.Close()
	require.True(t, q.Step(false))
	var rev int
	require.NoError(t, q.Column("Revision", &rev))
	assert.Equal(t, 0, rev)
}

func TestOpenMissingFile(t *testing.T) {
	e := newEnv(t, testConfig(t), testRegistry(t))
	err := e.w.Open(context.Background(), filepath.Join(t.TempDir(), "missing.world"))
	assert.Error(t, err)
	assert.Equal(t, world.StateClosed, e.w.State())
}

func TestCloseIsIdempotent(t *testing.T) {
	e := newMaster(t)
	working := e.w.WorkingPath()
	obj, err := e.w.CreateObject(false, component.DirectionalLightType)
	require.NoError(t, err)

	require.NoError(t, e.w.Close())
	require.NoError(t, e.w.Close())
	assert.Equal(t, world.StateClosed, e.w.State())
	assert.NoFileExists(t, working)
	assert.Nil(t, e.refs.Find(obj.ReferenceID()))
	assert.Nil(t, obj.World())
	assert.NoError(t, obj.(*component.DirectionalLight).SetShadowUpdateRate(1), "evicted components stop writing")

	_, err = e.w.CreateObject(false, component.DirectionalLightType)
	assert.ErrorIs(t, err, world.ErrDisposed)
}

func TestNewRejectsBadVersionRange(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinVersion = "1.0.2"
	cfg.MaxVersion = "1.0.0"
	_, err := world.New(cfg, world.NewRegistry(), nil, nil, nil)
	assert.Error(t, err)

	cfg.MinVersion = "one"
	_, err = world.New(cfg, world.NewRegistry(), nil, nil, nil)
	assert.Error(t, err)
}

func TestCheckPathColumns(t *testing.T) {
	e := newMaster(t)
	require.NoError(t, e.w.DB().ExecQuery(
		`CREATE TABLE 'Objects::Prop' (RefId INTEGER PRIMARY KEY, MeshFile TEXT, IconPath path, Scale REAL)`))

	suspect, err := e.w.CheckPathColumns("Objects::Prop")
	require.NoError(t, err)
	assert.Equal(t, []string{"MeshFile"}, suspect)
	assert.Equal(t, 1, e.logs.FilterField(zap.String("column", "MeshFile")).Len())
}
