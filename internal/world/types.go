package world

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/carbongdt/carbon/internal/reference"
)

var (
	ErrAlreadyOpen      = errors.New("world already open")
	ErrNotOpen          = errors.New("world not open")
	ErrDisposed         = errors.New("world disposed")
	ErrNotEditing       = errors.New("world not opened for editing")
	ErrUnknownType      = errors.New("component type not registered")
	ErrUnknownWorldType = errors.New("unknown world type")
	ErrIdentityConflict = errors.New("reference id resident as a different type")
	ErrVersionMismatch  = errors.New("world version not supported")
	ErrSceneLoaded      = errors.New("scene already loaded")
	ErrSceneNotFound    = errors.New("scene not found")
	ErrNoScenes         = errors.New("world type carries no scenes")
)

// Version is the schema version triple stored in every world file.
type Version struct {
	Version    int
	Subversion int
	Revision   int
}

// CurrentVersion is the schema produced by Create and by a full upgrade.
var CurrentVersion = Version{1, 0, 2}

// ParseVersion reads "major.minor.revision".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("parse version %q: want three components", s)
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return Version{}, fmt.Errorf("parse version %q: bad component %q", s, p)
		}
		n[i] = v
	}
	return Version{n[0], n[1], n[2]}, nil
}

// Compare returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	for _, d := range [3]int{v.Version - o.Version, v.Subversion - o.Subversion, v.Revision - o.Revision} {
		if d < 0 {
			return -1
		}
		if d > 0 {
			return 1
		}
	}
	return 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Version, v.Subversion, v.Revision)
}

// WorldType selects the layout a new world is created with.
type WorldType string

const (
	WorldTypeMaster WorldType = "master"
	WorldTypeMerge  WorldType = "merge"
)

// State tracks the world lifecycle. A closed world is never reopened.
type State int

const (
	StateUninitialized State = iota
	StateOpen
	StateDisposing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateOpen:
		return "open"
	case StateDisposing:
		return "disposing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// CloneMethod decides how a new component relates to an existing one.
type CloneMethod int

const (
	// CloneNone creates or loads without a source.
	CloneNone CloneMethod = iota
	// CloneObjectInstance aliases the source: the same live instance is returned.
	CloneObjectInstance
	// CloneCopy duplicates the source data under a new reference id.
	CloneCopy
)

func (m CloneMethod) String() string {
	switch m {
	case CloneNone:
		return "none"
	case CloneObjectInstance:
		return "object-instance"
	case CloneCopy:
		return "copy"
	}
	return "unknown"
}

// ComponentCreatedEventArgs is passed to OnComponentCreated.
type ComponentCreatedEventArgs struct {
	TypeID      uuid.UUID
	CloneMethod CloneMethod
	// Source is the component being cloned, or nil.
	Source Component
}

// ComponentLoadingEventArgs is passed to OnComponentLoading.
type ComponentLoadingEventArgs struct {
	TypeID uuid.UUID
	// SourceRefID names the rows to read. It differs from the component's own
	// id when CloneMethod is CloneCopy.
	SourceRefID reference.ID
	CloneMethod CloneMethod
}

// Cloning reports whether the loaded data must be written under a new id.
func (e *ComponentLoadingEventArgs) Cloning() bool {
	return e.CloneMethod == CloneCopy
}

// Component is the persistence contract shared by world objects, object
// sub-elements and scene elements. Implementations embed ComponentBase.
type Component interface {
	reference.Reference
	World() *World
	IsInternal() bool
	DatabaseTable() string
	CreateTypeTables(typeID uuid.UUID) error
	OnComponentCreated(e *ComponentCreatedEventArgs) error
	OnComponentLoading(e *ComponentLoadingEventArgs) error
	componentBase() *ComponentBase
}

// WorldObject is a component stored in the world object library.
type WorldObject interface {
	Component
}

// ObjectSubElement is a component owned by a world object.
type ObjectSubElement interface {
	Component
	ParentObject() WorldObject
}

// SceneElement is a component owned by a scene.
type SceneElement interface {
	Component
	Scene() *Scene
}
