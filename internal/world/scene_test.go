package world_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbongdt/carbon/internal/component"
	"github.com/carbongdt/carbon/internal/core/event"
	"github.com/carbongdt/carbon/internal/world"
)

func TestSceneLifecycle(t *testing.T) {
	e := newMaster(t)
	rec := &recorder{}
	e.w.AddListener(rec)
	var loaded []string
	event.Subscribe(e.bus, func(m event.SceneLoaded) { loaded = append(loaded, m.Name) })
	var group int
	e.bus.SubscribeGroup(event.GroupWorld, func(any) { group++ })

	id, err := e.w.CreateScene(world.SceneDescriptor{Name: "Harbor", Description: "docks at dusk"})
	require.NoError(t, err)
	assert.Equal(t, 1, e.w.Configuration().SceneCount())

	scene, err := e.w.LoadScene(id)
	require.NoError(t, err)
	assert.Equal(t, "Harbor", scene.Name())
	assert.False(t, scene.IsDirty())

	el, err := scene.CreateElement(false, component.SkyBoxType)
	require.NoError(t, err)
	assert.True(t, scene.IsDirty())
	require.NoError(t, el.(*component.SkyBox).SetRotation(90))
	elementID := el.ReferenceID()

	_, err = e.w.LoadScene(id)
	assert.ErrorIs(t, err, world.ErrSceneLoaded)
	assert.ErrorIs(t, scene.Load(), world.ErrSceneLoaded)

	require.NoError(t, e.w.UnloadScene(id))
	assert.Nil(t, e.w.Scene(id))
	assert.Empty(t, e.w.Scenes())
	assert.Nil(t, e.refs.Find(elementID), "unloading releases elements")
	assert.ErrorIs(t, e.w.UnloadScene(id), world.ErrSceneNotFound)

	again, err := e.w.LoadSceneByName("HARBOR")
	require.NoError(t, err)
	require.Len(t, again.Elements(), 1)
	sky := again.Elements()[0].(*component.SkyBox)
	assert.Equal(t, elementID, sky.ReferenceID())
	assert.Equal(t, float32(90), sky.Rotation())
	assert.Same(t, again, sky.Scene())

	assert.Equal(t, []string{
		"loading:Harbor", "added:Harbor", "loaded:Harbor",
		"unloading:Harbor",
		"loading:Harbor", "added:Harbor", "loaded:Harbor",
	}, rec.events)

	assert.Empty(t, loaded, "bus messages wait for the next pump")
	e.bus.Pump()
	assert.Equal(t, []string{"Harbor", "Harbor"}, loaded)
	assert.Equal(t, 7, group)

	require.NoError(t, e.w.Close())
	assert.Equal(t, "disposing", rec.events[len(rec.events)-2])
	assert.Equal(t, "unloading:Harbor", rec.events[len(rec.events)-1])
}

func TestSceneNamesAreUnique(t *testing.T) {
	e := newMaster(t)

	_, err := e.w.CreateScene(world.SceneDescriptor{Name: "Cave"})
	require.NoError(t, err)
	_, err = e.w.CreateScene(world.SceneDescriptor{Name: "cave"})
	assert.Error(t, err)

	id, err := e.w.CreateScene(world.SceneDescriptor{Name: "Forest"})
	require.NoError(t, err)
	require.NoError(t, e.w.UpdateScene(id, world.SceneDescriptor{Name: "Deep Forest", Flags: 3}))
	d, ok := e.w.Configuration().SceneDescriptorByName("deep forest")
	require.True(t, ok)
	assert.Equal(t, id, d.ID)
	assert.Equal(t, uint32(3), d.Flags)
	_, ok = e.w.Configuration().SceneDescriptorByName("Forest")
	assert.False(t, ok)

	_, err = e.w.LoadScene(999)
	assert.ErrorIs(t, err, world.ErrSceneNotFound)
}

func TestSceneLoadFailureNotifies(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "scenes.world")
	e := newMaster(t)
	id, err := e.w.CreateScene(world.SceneDescriptor{Name: "Sky"})
	require.NoError(t, err)
	scene, err := e.w.LoadScene(id)
	require.NoError(t, err)
	_, err = scene.CreateElement(false, component.SkyBoxType)
	require.NoError(t, err)
	require.NoError(t, e.w.Save(dest))
	require.NoError(t, e.w.Close())

	// A registry without the sky box type cannot load the scene.
	f := newEnv(t, testConfig(t), world.NewRegistry())
	rec := &recorder{}
	f.w.AddListener(rec)
	require.NoError(t, f.w.Open(context.Background(), dest))

	_, err = f.w.LoadScene(id)
	assert.ErrorIs(t, err, world.ErrUnknownType)
	assert.Equal(t, []string{"loading:Sky", "failed:Sky"}, rec.events)
	assert.Nil(t, f.w.Scene(id))
	assert.True(t, f.w.IsOpen())
}

func TestMergeWorldHasNoScenes(t *testing.T) {
	e := newEnv(t, testConfig(t), testRegistry(t))
	require.NoError(t, e.w.Create(context.Background(), world.WorldTypeMerge))
	assert.Equal(t, world.WorldTypeMerge, e.w.Configuration().WorldType())

	ok, err := e.w.TableExists("Scenes")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = e.w.CreateScene(world.SceneDescriptor{Name: "Main"})
	assert.ErrorIs(t, err, world.ErrNoScenes)

	obj, err := e.w.CreateObject(false, component.HemisphereLightType)
	require.NoError(t, err)
	assert.False(t, obj.IsInternal())
}
