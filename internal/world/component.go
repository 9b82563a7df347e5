package world

import (
	"github.com/google/uuid"

	"github.com/carbongdt/carbon/internal/reference"
)

// ComponentBase carries identity, reference counting and the owning world.
// Embed it (or one of the element bases) in every component type.
type ComponentBase struct {
	reference.Base
	world    *World
	disposed bool
}

// NewComponentBase binds a component to w under refID.
func NewComponentBase(w *World, typeID uuid.UUID, refID reference.ID) ComponentBase {
	return ComponentBase{Base: reference.NewBase(refID, typeID), world: w}
}

func (c *ComponentBase) componentBase() *ComponentBase { return c }

// World returns the owning world, or nil once the world has been closed.
func (c *ComponentBase) World() *World { return c.world }

// IsInternal reports whether the component lives only in this process.
func (c *ComponentBase) IsInternal() bool { return c.ReferenceID().IsInternal() }

// IsDisposed reports whether the component has been released or evicted.
func (c *ComponentBase) IsDisposed() bool { return c.disposed }

// ShouldSerialize reports whether changes must be written to the database.
func (c *ComponentBase) ShouldSerialize() bool {
	return !c.disposed && !c.IsInternal() && c.world != nil && c.world.IsEditing()
}

// Dispose detaches the component from its world. Types overriding Dispose
// must call it.
func (c *ComponentBase) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	if c.world != nil {
		c.world.forget(c.ReferenceID())
		c.world = nil
	}
}

// SubElementBase is the base for object sub-elements.
type SubElementBase struct {
	ComponentBase
	parent WorldObject
}

func NewSubElementBase(parent WorldObject, typeID uuid.UUID, refID reference.ID) SubElementBase {
	return SubElementBase{ComponentBase: NewComponentBase(parent.World(), typeID, refID), parent: parent}
}

func (s *SubElementBase) ParentObject() WorldObject { return s.parent }

// SceneElementBase is the base for scene elements.
type SceneElementBase struct {
	ComponentBase
	scene *Scene
}

func NewSceneElementBase(scene *Scene, typeID uuid.UUID, refID reference.ID) SceneElementBase {
	return SceneElementBase{ComponentBase: NewComponentBase(scene.World(), typeID, refID), scene: scene}
}

func (s *SceneElementBase) Scene() *Scene { return s.scene }
