package world

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carbongdt/carbon/internal/persist"
	"github.com/carbongdt/carbon/internal/reference"
)

// Scene is a loaded scene and the elements it holds.
type Scene struct {
	world    *World
	desc     SceneDescriptor
	dirty    bool
	elements []SceneElement
}

func (s *Scene) World() *World               { return s.world }
func (s *Scene) ID() uint32                  { return s.desc.ID }
func (s *Scene) Name() string                { return s.desc.Name }
func (s *Scene) Descriptor() SceneDescriptor { return s.desc }
func (s *Scene) IsDirty() bool               { return s.dirty }
func (s *Scene) SetDirty(dirty bool)         { s.dirty = dirty }

// Elements returns the live elements in load order.
func (s *Scene) Elements() []SceneElement {
	return append([]SceneElement(nil), s.elements...)
}

// CreateElement creates a new element of typeID in the scene.
func (s *Scene) CreateElement(internal bool, typeID uuid.UUID) (SceneElement, error) {
	el, err := s.world.CreateSceneElement(internal, typeID, s)
	if err != nil {
		return nil, err
	}
	s.elements = append(s.elements, el)
	s.dirty = true
	return el, nil
}

type elementRow struct {
	refID reference.ID
	key   int64
}

// Load reads every stored element of the scene.
func (s *Scene) Load() error {
	if len(s.elements) > 0 {
		return fmt.Errorf("load scene %q: %w", s.desc.Name, ErrSceneLoaded)
	}
	q, err := s.world.db.Prepare(`SELECT RefId, SceneElementTypeId FROM 'Scenes::Elements' WHERE SceneId = ?1 ORDER BY RefId`)
	if err != nil {
		return err
	}
	if err := q.BindParameter(1, s.desc.ID); err != nil {
		return err
	}
	var rows []elementRow
	err = q.Each(func(q *persist.Query) error {
		var (
			id  uint32
			key int64
		)
		if err := errors.Join(q.Column("RefId", &id), q.Column("SceneElementTypeId", &key)); err != nil {
			return err
		}
		rows = append(rows, elementRow{refID: reference.ID(id), key: key})
		return nil
	})
	if err != nil {
		return fmt.Errorf("read elements of scene %q: %w", s.desc.Name, err)
	}

	for _, r := range rows {
		typeID, ok := s.world.config.typeOfKey(categorySceneElement, r.key)
		if !ok {
			return fmt.Errorf("scene %q element %s: unknown type key %d", s.desc.Name, r.refID, r.key)
		}
		el, err := s.world.LoadSceneElement(typeID, r.refID, s, CloneNone)
		if err != nil {
			return fmt.Errorf("scene %q element %s: %w", s.desc.Name, r.refID, err)
		}
		s.elements = append(s.elements, el)
	}
	s.dirty = false
	return nil
}

// release drops the scene's reference to each element, newest first.
func (s *Scene) release() {
	for i := len(s.elements) - 1; i >= 0; i-- {
		s.elements[i].Release()
	}
	s.elements = nil
}

// CreateScene stores a new scene and returns its id. The scene is not
// loaded.
func (w *World) CreateScene(desc SceneDescriptor) (uint32, error) {
	if err := w.checkOpen(); err != nil {
		return 0, err
	}
	if !w.IsEditing() {
		return 0, ErrNotEditing
	}
	id, err := w.config.InsertScene(desc)
	if err != nil {
		w.log.Error("failed to create scene", zap.String("name", desc.Name), zap.Error(err))
		return 0, err
	}
	return id, nil
}

// UpdateScene rewrites a stored scene descriptor, and the loaded scene's
// copy of it.
func (w *World) UpdateScene(id uint32, desc SceneDescriptor) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if !w.IsEditing() {
		return ErrNotEditing
	}
	if err := w.config.UpdateSceneDescriptorByID(id, desc); err != nil {
		return err
	}
	if s := w.sceneIndex[id]; s != nil {
		s.desc, _ = w.config.SceneDescriptorByID(id)
	}
	return nil
}

// LoadScene loads the scene with the given id and its elements. Loading a
// scene twice fails with ErrSceneLoaded.
func (w *World) LoadScene(id uint32) (*Scene, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	if _, loaded := w.sceneIndex[id]; loaded {
		return nil, fmt.Errorf("load scene %d: %w", id, ErrSceneLoaded)
	}
	desc, ok := w.config.SceneDescriptorByID(id)
	if !ok {
		return nil, fmt.Errorf("load scene %d: %w", id, ErrSceneNotFound)
	}
	s := &Scene{world: w, desc: desc}
	w.notifySceneLoading(s)
	if err := s.Load(); err != nil {
		s.release()
		w.log.Error("failed to load scene", zap.Uint32("scene_id", id), zap.String("name", desc.Name), zap.Error(err))
		w.notifySceneLoadFailed(s, err)
		return nil, err
	}
	w.scenes = append(w.scenes, s)
	w.sceneIndex[id] = s
	w.notifySceneAdded(s)
	w.notifySceneLoaded(s)
	return s, nil
}

// LoadSceneByName loads a scene by case-insensitive name.
func (w *World) LoadSceneByName(name string) (*Scene, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	desc, ok := w.config.SceneDescriptorByName(name)
	if !ok {
		return nil, fmt.Errorf("load scene %q: %w", name, ErrSceneNotFound)
	}
	return w.LoadScene(desc.ID)
}

// UnloadScene releases a loaded scene and its elements.
func (w *World) UnloadScene(id uint32) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	s := w.sceneIndex[id]
	if s == nil {
		return fmt.Errorf("unload scene %d: %w", id, ErrSceneNotFound)
	}
	w.unloadScene(s)
	return nil
}

func (w *World) unloadScene(s *Scene) {
	w.notifySceneUnloading(s)
	s.release()
	delete(w.sceneIndex, s.desc.ID)
	for i, other := range w.scenes {
		if other == s {
			w.scenes = append(w.scenes[:i], w.scenes[i+1:]...)
			break
		}
	}
}

// Scene returns the loaded scene with the given id, or nil.
func (w *World) Scene(id uint32) *Scene { return w.sceneIndex[id] }

// Scenes returns the loaded scenes in load order.
func (w *World) Scenes() []*Scene {
	return append([]*Scene(nil), w.scenes...)
}
