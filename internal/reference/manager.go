package reference

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrDuplicate is returned when a second live instance claims an id.
var ErrDuplicate = errors.New("reference id already live")

// Manager maps reference ids to the live in-memory instance holding them.
// It never owns the instances: entries are removed when the last reference
// is released or the owning world evicts them. Single-goroutine access only.
type Manager struct {
	live         map[ID]Reference
	nextInternal ID
	log          *zap.Logger
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		live:         make(map[ID]Reference, 256),
		nextInternal: InternalBase,
		log:          log,
	}
}

// Register records r as the live instance for its id.
func (m *Manager) Register(r Reference) error {
	id := r.ReferenceID()
	if existing, ok := m.live[id]; ok && existing != r {
		m.log.Error("reference id already bound to a live instance",
			zap.Stringer("ref_id", id),
			zap.Stringer("existing_type", existing.ReferenceType()),
			zap.Stringer("new_type", r.ReferenceType()))
		return fmt.Errorf("register %s: %w", id, ErrDuplicate)
	}
	b := r.base()
	b.mgr = m
	b.self = r
	m.live[id] = r
	return nil
}

// Unregister forgets the instance bound to id.
func (m *Manager) Unregister(id ID) {
	if r, ok := m.live[id]; ok {
		r.base().mgr = nil
		delete(m.live, id)
	}
}

// Find returns the live instance for id, or nil.
func (m *Manager) Find(id ID) Reference {
	return m.live[id]
}

// GenerateInternalID returns an id that is never stored in a database.
func (m *Manager) GenerateInternalID() ID {
	for {
		id := m.nextInternal
		m.nextInternal++
		if m.nextInternal < InternalBase {
			m.nextInternal = InternalBase
		}
		if _, used := m.live[id]; !used {
			return id
		}
	}
}

// Len returns the number of live instances.
func (m *Manager) Len() int { return len(m.live) }
