package world

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carbongdt/carbon/internal/persist"
	"github.com/carbongdt/carbon/internal/reference"
)

// request describes one create or load pass through the shared protocol.
type request struct {
	category typeCategory
	txName   string
	typeID   uuid.UUID
	internal bool
	method   CloneMethod
	source   Component

	// loading is set for LoadX; sourceRefID names the rows to read.
	loading     bool
	sourceRefID reference.ID

	alloc func(refID reference.ID) Component
	link  func(c Component, typeKey int64) error
}

// run allocates the component, creates its type tables once, records the
// type and base row, and calls its hook. All database writes happen inside
// one named savepoint; on failure the savepoint and every in-memory side
// effect are undone and the component is discarded.
func (w *World) run(r request) (c Component, err error) {
	persistent := !r.internal && w.IsEditing()
	depth := w.db.SavepointDepth()
	if persistent {
		if err := w.db.BeginNamedTransaction(r.txName); err != nil {
			return nil, err
		}
	}
	var undo []func()
	defer func() {
		if err == nil {
			return
		}
		// Only our own savepoint; an enclosing create may share the name.
		if persistent && w.db.SavepointDepth() > depth {
			w.db.RollbackNamedTransaction(r.txName, false)
		}
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		if c != nil {
			w.discard(c)
			c = nil
		}
		w.log.Error("failed to "+r.txName,
			zap.Stringer("type", r.typeID),
			zap.String("type_name", w.types.Name(r.typeID)),
			zap.Stringer("clone", r.method),
			zap.Error(err))
	}()

	var refID reference.ID
	switch {
	case r.loading && r.method != CloneCopy:
		refID = r.sourceRefID
	default:
		if refID, err = w.generateRefID(persistent); err != nil {
			return nil, err
		}
	}

	c = r.alloc(refID)
	if c == nil {
		return nil, fmt.Errorf("%s: allocator for %s returned nil", r.txName, r.typeID)
	}
	if err := w.adopt(c); err != nil {
		// Not registered, so nothing to unregister.
		c = nil
		return nil, err
	}

	if persistent {
		if !w.ComponentTablesExist(r.typeID) {
			if err := c.CreateTypeTables(r.typeID); err != nil {
				return c, fmt.Errorf("create tables: %w", err)
			}
			w.ComponentTablesCreated(r.typeID)
			typeID := r.typeID
			undo = append(undo, func() { delete(w.tablesCreated, typeID) })
		}
		key, undoType, err := w.config.insertType(r.category, r.typeID, c.DatabaseTable())
		if err != nil {
			return c, err
		}
		if undoType != nil {
			undo = append(undo, undoType)
		}
		if err := r.link(c, key); err != nil {
			return c, err
		}
	}

	if r.loading {
		err = c.OnComponentLoading(&ComponentLoadingEventArgs{
			TypeID:      r.typeID,
			SourceRefID: r.sourceRefID,
			CloneMethod: r.method,
		})
	} else {
		err = c.OnComponentCreated(&ComponentCreatedEventArgs{
			TypeID:      r.typeID,
			CloneMethod: r.method,
			Source:      r.source,
		})
	}
	if err != nil {
		return c, err
	}

	if persistent {
		if w.db.SavepointDepth() <= depth {
			return c, fmt.Errorf("commit %s: %w", r.txName, persist.ErrNoTransaction)
		}
		if err := w.db.CommitNamedTransaction(r.txName); err != nil {
			return c, err
		}
	}
	return c, nil
}

// resident returns the live instance bound to refID. A live instance of a
// different type, category or world is an identity conflict.
func (w *World) resident(cat typeCategory, typeID uuid.UUID, refID reference.ID) (Component, error) {
	live := w.refs.Find(refID)
	if live == nil {
		return nil, nil
	}
	c, ok := live.(Component)
	if ok && categoryOf(c) == cat && c.ReferenceType() == typeID && c.World() == w {
		return c, nil
	}
	w.log.Error("reference id already resident as a different type",
		zap.Stringer("ref_id", refID),
		zap.Stringer("requested_type", typeID),
		zap.Stringer("resident_type", live.ReferenceType()))
	return nil, fmt.Errorf("%w: %s requested as %s, resident as %s",
		ErrIdentityConflict, refID, typeID, live.ReferenceType())
}

func categoryOf(c Component) typeCategory {
	switch c.(type) {
	case SceneElement:
		return categorySceneElement
	case ObjectSubElement:
		return categorySubElement
	}
	return categoryObject
}

func (w *World) unknownType(cat typeCategory, typeID uuid.UUID) error {
	w.log.Warn("type not registered", zap.String("category", cat.String()), zap.Stringer("type", typeID))
	return fmt.Errorf("%w: %s %s", ErrUnknownType, cat, typeID)
}

func (w *World) linkObject(c Component, typeKey int64) error {
	q, err := w.db.Prepare(`INSERT INTO 'Objects' (RefId, ObjectTypeId) VALUES (?1, ?2)`)
	if err != nil {
		return err
	}
	return q.Exec(c.ReferenceID(), typeKey)
}

func (w *World) linkSubElement(c Component, typeKey int64) error {
	parent := c.(ObjectSubElement).ParentObject()
	q, err := w.db.Prepare(`INSERT INTO 'ObjectSubElements' (RefId, ObjectId, SubElementTypeId) VALUES (?1, ?2, ?3)`)
	if err != nil {
		return err
	}
	return q.Exec(c.ReferenceID(), parent.ReferenceID(), typeKey)
}

func (w *World) linkSceneElement(c Component, typeKey int64) error {
	scene := c.(SceneElement).Scene()
	q, err := w.db.Prepare(`INSERT INTO 'Scenes::Elements' (RefId, SceneId, SceneElementTypeId) VALUES (?1, ?2, ?3)`)
	if err != nil {
		return err
	}
	return q.Exec(c.ReferenceID(), scene.ID(), typeKey)
}

// CreateObject creates a new world object. Internal objects, and every
// object of a world not opened for editing, are never written.
func (w *World) CreateObject(internal bool, typeID uuid.UUID) (WorldObject, error) {
	return w.CreateObjectFrom(internal, typeID, CloneNone, nil)
}

// CreateObjectFrom creates a world object from source. With CloneNone or
// CloneObjectInstance the source itself is returned with one more reference.
func (w *World) CreateObjectFrom(internal bool, typeID uuid.UUID, method CloneMethod, source WorldObject) (WorldObject, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	if source != nil && method != CloneCopy {
		if source.ReferenceType() != typeID {
			return nil, fmt.Errorf("%w: clone of %s as %s", ErrIdentityConflict, source.ReferenceType(), typeID)
		}
		source.AddRef()
		return source, nil
	}
	t := w.config.ObjectType(typeID)
	if t == nil {
		return nil, w.unknownType(categoryObject, typeID)
	}
	var src Component
	if source != nil {
		src = source
	}
	c, err := w.run(request{
		category: categoryObject,
		txName:   "createObject",
		typeID:   typeID,
		internal: internal,
		method:   method,
		source:   src,
		alloc: func(id reference.ID) Component {
			if source != nil && t.AllocClone != nil {
				return t.AllocClone(typeID, id, w, source, method)
			}
			return t.AllocNew(typeID, id, w)
		},
		link: w.linkObject,
	})
	if err != nil {
		return nil, err
	}
	return c.(WorldObject), nil
}

// LoadObject returns the live instance for refID or loads it from the
// database. With CloneCopy a new object is written from the stored one.
func (w *World) LoadObject(typeID uuid.UUID, refID reference.ID, method CloneMethod) (WorldObject, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	live, err := w.resident(categoryObject, typeID, refID)
	if err != nil {
		return nil, err
	}
	if live != nil {
		return w.CreateObjectFrom(live.IsInternal(), typeID, method, live.(WorldObject))
	}
	t := w.config.ObjectType(typeID)
	if t == nil {
		return nil, w.unknownType(categoryObject, typeID)
	}
	c, err := w.run(request{
		category:    categoryObject,
		txName:      "loadObject",
		typeID:      typeID,
		internal:    method != CloneCopy,
		method:      method,
		loading:     true,
		sourceRefID: refID,
		alloc:       func(id reference.ID) Component { return t.AllocNew(typeID, id, w) },
		link:        w.linkObject,
	})
	if err != nil {
		return nil, err
	}
	return c.(WorldObject), nil
}

// CreateObjectSubElement creates a new sub-element owned by parent.
func (w *World) CreateObjectSubElement(internal bool, typeID uuid.UUID, parent WorldObject) (ObjectSubElement, error) {
	return w.CreateObjectSubElementFrom(internal, typeID, parent, CloneNone, nil)
}

// CreateObjectSubElementFrom creates a sub-element of parent, cloning source
// with method when source is set.
func (w *World) CreateObjectSubElementFrom(internal bool, typeID uuid.UUID, parent WorldObject, method CloneMethod, source ObjectSubElement) (ObjectSubElement, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("create sub-element %s: no parent object", typeID)
	}
	if source != nil && method != CloneCopy {
		if source.ReferenceType() != typeID {
			return nil, fmt.Errorf("%w: clone of %s as %s", ErrIdentityConflict, source.ReferenceType(), typeID)
		}
		source.AddRef()
		return source, nil
	}
	t := w.config.SubElementType(typeID)
	if t == nil {
		return nil, w.unknownType(categorySubElement, typeID)
	}
	var src Component
	if source != nil {
		src = source
	}
	c, err := w.run(request{
		category: categorySubElement,
		txName:   "createObjectSubElement",
		typeID:   typeID,
		internal: internal || parent.IsInternal(),
		method:   method,
		source:   src,
		alloc: func(id reference.ID) Component {
			if source != nil && t.AllocClone != nil {
				return t.AllocClone(typeID, id, parent, source, method)
			}
			return t.AllocNew(typeID, id, parent)
		},
		link: w.linkSubElement,
	})
	if err != nil {
		return nil, err
	}
	return c.(ObjectSubElement), nil
}

// LoadObjectSubElement loads the stored sub-element refID under parent, or
// returns the live instance already bound to refID.
func (w *World) LoadObjectSubElement(typeID uuid.UUID, refID reference.ID, parent WorldObject, method CloneMethod) (ObjectSubElement, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("load sub-element %s: no parent object", refID)
	}
	live, err := w.resident(categorySubElement, typeID, refID)
	if err != nil {
		return nil, err
	}
	if live != nil {
		return w.CreateObjectSubElementFrom(live.IsInternal(), typeID, parent, method, live.(ObjectSubElement))
	}
	t := w.config.SubElementType(typeID)
	if t == nil {
		return nil, w.unknownType(categorySubElement, typeID)
	}
	c, err := w.run(request{
		category:    categorySubElement,
		txName:      "loadObjectSubElement",
		typeID:      typeID,
		internal:    method != CloneCopy || parent.IsInternal(),
		method:      method,
		loading:     true,
		sourceRefID: refID,
		alloc:       func(id reference.ID) Component { return t.AllocNew(typeID, id, parent) },
		link:        w.linkSubElement,
	})
	if err != nil {
		return nil, err
	}
	return c.(ObjectSubElement), nil
}

// CreateSceneElement creates a new element in scene.
func (w *World) CreateSceneElement(internal bool, typeID uuid.UUID, scene *Scene) (SceneElement, error) {
	return w.CreateSceneElementFrom(internal, typeID, scene, CloneNone, nil)
}

// CreateSceneElementFrom creates an element in scene, cloning source with
// method when source is set.
func (w *World) CreateSceneElementFrom(internal bool, typeID uuid.UUID, scene *Scene, method CloneMethod, source SceneElement) (SceneElement, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	if scene == nil {
		return nil, fmt.Errorf("create scene element %s: no scene", typeID)
	}
	if source != nil && method != CloneCopy {
		if source.ReferenceType() != typeID {
			return nil, fmt.Errorf("%w: clone of %s as %s", ErrIdentityConflict, source.ReferenceType(), typeID)
		}
		source.AddRef()
		return source, nil
	}
	t := w.config.SceneElementType(typeID)
	if t == nil {
		return nil, w.unknownType(categorySceneElement, typeID)
	}
	var src Component
	if source != nil {
		src = source
	}
	c, err := w.run(request{
		category: categorySceneElement,
		txName:   "createSceneElement",
		typeID:   typeID,
		internal: internal,
		method:   method,
		source:   src,
		alloc: func(id reference.ID) Component {
			if source != nil && t.AllocClone != nil {
				return t.AllocClone(typeID, id, scene, source, method)
			}
			return t.AllocNew(typeID, id, scene)
		},
		link: w.linkSceneElement,
	})
	if err != nil {
		return nil, err
	}
	return c.(SceneElement), nil
}

// LoadSceneElement loads the stored scene element refID into scene, or
// returns the live instance already bound to refID.
func (w *World) LoadSceneElement(typeID uuid.UUID, refID reference.ID, scene *Scene, method CloneMethod) (SceneElement, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	if scene == nil {
		return nil, fmt.Errorf("load scene element %s: no scene", refID)
	}
	live, err := w.resident(categorySceneElement, typeID, refID)
	if err != nil {
		return nil, err
	}
	if live != nil {
		return w.CreateSceneElementFrom(live.IsInternal(), typeID, scene, method, live.(SceneElement))
	}
	t := w.config.SceneElementType(typeID)
	if t == nil {
		return nil, w.unknownType(categorySceneElement, typeID)
	}
	c, err := w.run(request{
		category:    categorySceneElement,
		txName:      "loadSceneElement",
		typeID:      typeID,
		internal:    method != CloneCopy,
		method:      method,
		loading:     true,
		sourceRefID: refID,
		alloc:       func(id reference.ID) Component { return t.AllocNew(typeID, id, scene) },
		link:        w.linkSceneElement,
	})
	if err != nil {
		return nil, err
	}
	return c.(SceneElement), nil
}

// SubElementRef names one stored sub-element of an object.
type SubElementRef struct {
	RefID  reference.ID
	TypeID uuid.UUID
}

// ObjectSubElements lists the stored sub-elements of the object refID.
func (w *World) ObjectSubElements(objectID reference.ID) ([]SubElementRef, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	q, err := w.db.Prepare(`SELECT RefId, SubElementTypeId FROM 'ObjectSubElements' WHERE ObjectId = ?1 ORDER BY RefId`)
	if err != nil {
		return nil, err
	}
	if err := q.BindParameter(1, objectID); err != nil {
		return nil, err
	}
	var refs []SubElementRef
	err = q.Each(func(q *persist.Query) error {
		var (
			id  uint32
			key int64
		)
		if err := q.ColumnAt(0, &id); err != nil {
			return err
		}
		if err := q.ColumnAt(1, &key); err != nil {
			return err
		}
		uid, ok := w.config.typeOfKey(categorySubElement, key)
		if !ok {
			return fmt.Errorf("sub-element %d: unknown type key %d", id, key)
		}
		refs = append(refs, SubElementRef{RefID: reference.ID(id), TypeID: uid})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sub-elements of %s: %w", objectID, err)
	}
	return refs, nil
}
