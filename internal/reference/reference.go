package reference

import (
	"fmt"

	"github.com/google/uuid"
)

// ID names a component instance. Persistent ids are handed out by the
// world database; internal ids live only in this process and occupy the
// upper half of the range.
type ID uint32

// InternalBase is the first internal reference id.
const InternalBase ID = 0x80000000

// IsInternal reports whether id was generated for a process-only component.
func (id ID) IsInternal() bool { return id >= InternalBase }

// Int64 widens the id for database binding.
func (id ID) Int64() int64 { return int64(id) }

func (id ID) String() string { return fmt.Sprintf("0x%x", uint32(id)) }

// Reference is implemented by every type that embeds Base.
type Reference interface {
	ReferenceID() ID
	ReferenceType() uuid.UUID
	AddRef() int
	Release() int
	RefCount() int
	base() *Base
}

// Disposer is implemented by references that release resources once the
// last reference is dropped.
type Disposer interface {
	Dispose()
}

// Base carries identity and the reference count. Embed it in components.
type Base struct {
	id     ID
	typeID uuid.UUID
	refs   int
	mgr    *Manager
	self   Reference
}

// NewBase returns a Base holding one reference.
func NewBase(id ID, typeID uuid.UUID) Base {
	return Base{id: id, typeID: typeID, refs: 1}
}

func (b *Base) base() *Base { return b }

func (b *Base) ReferenceID() ID { return b.id }

func (b *Base) ReferenceType() uuid.UUID { return b.typeID }

func (b *Base) RefCount() int { return b.refs }

// AddRef takes another reference and returns the new count.
func (b *Base) AddRef() int {
	b.refs++
	return b.refs
}

// Release drops a reference. The last release unregisters the component
// and disposes it.
func (b *Base) Release() int {
	if b.refs <= 0 {
		return 0
	}
	b.refs--
	if b.refs > 0 {
		return b.refs
	}
	self := b.self
	if b.mgr != nil {
		b.mgr.Unregister(b.id)
	}
	if d, ok := self.(Disposer); ok {
		d.Dispose()
	}
	return 0
}
