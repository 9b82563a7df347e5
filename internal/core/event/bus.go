package event

import (
	"reflect"
	"sync"
)

// Grouped is implemented by messages that belong to a message group.
// Group subscribers receive every message of their group regardless of type.
type Grouped interface {
	MessageGroup() string
}

// Bus is a double-buffered message bus. Messages emitted during one pump
// are delivered on the next one: Pump swaps the buffers, then dispatches.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    []any
	back     []any
	handlers map[reflect.Type][]any
	groups   map[string][]func(any)
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]any, 0, 64),
		back:     make([]any, 0, 64),
		handlers: make(map[reflect.Type][]any),
		groups:   make(map[string][]func(any)),
	}
}

// Emit queues a message into the back buffer. Nil buses drop messages.
func Emit[T any](b *Bus, msg T) {
	if b == nil {
		return
	}
	b.back = append(b.back, msg)
}

// Subscribe registers a typed handler for messages of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// SubscribeGroup registers a handler for every message in group.
func (b *Bus) SubscribeGroup(group string, fn func(any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.groups[group] = append(b.groups[group], fn)
}

// SwapBuffers rotates back to front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers front-buffer messages in emission order.
func (b *Bus) DispatchAll() {
	for _, msg := range b.front {
		for _, h := range b.handlers[reflect.TypeOf(msg)] {
			callHandler(h, msg)
		}
		if g, ok := msg.(Grouped); ok {
			for _, h := range b.groups[g.MessageGroup()] {
				h(msg)
			}
		}
	}
}

// Pump swaps the buffers and dispatches what was emitted since the last pump.
func (b *Bus) Pump() {
	b.SwapBuffers()
	b.DispatchAll()
}

// Pending returns the number of messages waiting for the next pump.
func (b *Bus) Pending() int { return len(b.back) }

func callHandler(handler any, msg any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(msg)})
}
