package world

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carbongdt/carbon/internal/reference"
)

// ObjectType registers how a world object type is allocated.
type ObjectType struct {
	ID         uuid.UUID
	Name       string
	AllocNew   func(typeID uuid.UUID, refID reference.ID, w *World) WorldObject
	AllocClone func(typeID uuid.UUID, refID reference.ID, w *World, source WorldObject, method CloneMethod) WorldObject
}

// SubElementType registers how an object sub-element type is allocated.
type SubElementType struct {
	ID         uuid.UUID
	Name       string
	AllocNew   func(typeID uuid.UUID, refID reference.ID, parent WorldObject) ObjectSubElement
	AllocClone func(typeID uuid.UUID, refID reference.ID, parent WorldObject, source ObjectSubElement, method CloneMethod) ObjectSubElement
}

// SceneElementType registers how a scene element type is allocated.
type SceneElementType struct {
	ID         uuid.UUID
	Name       string
	AllocNew   func(typeID uuid.UUID, refID reference.ID, scene *Scene) SceneElement
	AllocClone func(typeID uuid.UUID, refID reference.ID, scene *Scene, source SceneElement, method CloneMethod) SceneElement
}

// Registry maps type UIDs to allocation strategies. Types must be
// registered before a world that uses them is created or opened.
type Registry struct {
	objects       map[uuid.UUID]*ObjectType
	subElements   map[uuid.UUID]*SubElementType
	sceneElements map[uuid.UUID]*SceneElementType
}

// NewRegistry returns an empty type registry.
func NewRegistry() *Registry {
	return &Registry{
		objects:       make(map[uuid.UUID]*ObjectType),
		subElements:   make(map[uuid.UUID]*SubElementType),
		sceneElements: make(map[uuid.UUID]*SceneElementType),
	}
}

var errDuplicateType = errors.New("type uid already registered")

func (r *Registry) checkNew(id uuid.UUID, name string, hasAlloc bool) error {
	if id == uuid.Nil {
		return fmt.Errorf("register %q: nil type uid", name)
	}
	if !hasAlloc {
		return fmt.Errorf("register %q: missing allocator", name)
	}
	_, a := r.objects[id]
	_, b := r.subElements[id]
	_, c := r.sceneElements[id]
	if a || b || c {
		return fmt.Errorf("register %q (%s): %w", name, id, errDuplicateType)
	}
	return nil
}

// RegisterObjectType adds an object type. Type uids are unique across all
// categories.
func (r *Registry) RegisterObjectType(t ObjectType) error {
	if err := r.checkNew(t.ID, t.Name, t.AllocNew != nil); err != nil {
		return err
	}
	r.objects[t.ID] = &t
	return nil
}

// RegisterSubElementType adds a sub-element type.
func (r *Registry) RegisterSubElementType(t SubElementType) error {
	if err := r.checkNew(t.ID, t.Name, t.AllocNew != nil); err != nil {
		return err
	}
	r.subElements[t.ID] = &t
	return nil
}

// RegisterSceneElementType adds a scene element type.
func (r *Registry) RegisterSceneElementType(t SceneElementType) error {
	if err := r.checkNew(t.ID, t.Name, t.AllocNew != nil); err != nil {
		return err
	}
	r.sceneElements[t.ID] = &t
	return nil
}

func (r *Registry) ObjectType(id uuid.UUID) *ObjectType             { return r.objects[id] }
func (r *Registry) SubElementType(id uuid.UUID) *SubElementType     { return r.subElements[id] }
func (r *Registry) SceneElementType(id uuid.UUID) *SceneElementType { return r.sceneElements[id] }

// Name returns the local name registered for id in any category.
func (r *Registry) Name(id uuid.UUID) string {
	if t := r.objects[id]; t != nil {
		return t.Name
	}
	if t := r.subElements[id]; t != nil {
		return t.Name
	}
	if t := r.sceneElements[id]; t != nil {
		return t.Name
	}
	return ""
}
