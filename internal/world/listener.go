package world

import (
	"github.com/google/uuid"

	"github.com/carbongdt/carbon/internal/core/event"
)

// Listener receives world and scene lifecycle notifications synchronously.
type Listener interface {
	OnWorldDisposing(w *World)
	OnSceneAdded(s *Scene)
	OnSceneLoading(s *Scene)
	OnSceneLoadFailed(s *Scene, err error)
	OnSceneLoaded(s *Scene)
	OnSceneUnloading(s *Scene)
}

// NopListener implements Listener with empty methods. Embed it to handle
// only some notifications.
type NopListener struct{}

func (NopListener) OnWorldDisposing(*World)         {}
func (NopListener) OnSceneAdded(*Scene)             {}
func (NopListener) OnSceneLoading(*Scene)           {}
func (NopListener) OnSceneLoadFailed(*Scene, error) {}
func (NopListener) OnSceneLoaded(*Scene)            {}
func (NopListener) OnSceneUnloading(*Scene)         {}

// AddListener registers l for world and scene notifications.
func (w *World) AddListener(l Listener) {
	w.listeners = append(w.listeners, l)
}

func (w *World) RemoveListener(l Listener) {
	for i, other := range w.listeners {
		if other == l {
			w.listeners = append(w.listeners[:i], w.listeners[i+1:]...)
			return
		}
	}
}

// Listener notifications are delivered directly; the bus copies are queued
// for the next Pump.

func (w *World) notifyWorldDisposing() {
	for _, l := range w.listeners {
		l.OnWorldDisposing(w)
	}
	var id uuid.UUID
	if w.config != nil {
		id = w.config.WorldID()
	}
	event.Emit(w.bus, event.WorldDisposing{WorldID: id})
}

func (w *World) notifySceneAdded(s *Scene) {
	for _, l := range w.listeners {
		l.OnSceneAdded(s)
	}
	event.Emit(w.bus, event.SceneAdded{SceneID: s.ID(), Name: s.Name()})
}

func (w *World) notifySceneLoading(s *Scene) {
	for _, l := range w.listeners {
		l.OnSceneLoading(s)
	}
	event.Emit(w.bus, event.SceneLoading{SceneID: s.ID(), Name: s.Name()})
}

func (w *World) notifySceneLoadFailed(s *Scene, err error) {
	for _, l := range w.listeners {
		l.OnSceneLoadFailed(s, err)
	}
	event.Emit(w.bus, event.SceneLoadFailed{SceneID: s.ID(), Name: s.Name(), Err: err})
}

func (w *World) notifySceneLoaded(s *Scene) {
	for _, l := range w.listeners {
		l.OnSceneLoaded(s)
	}
	event.Emit(w.bus, event.SceneLoaded{SceneID: s.ID(), Name: s.Name()})
}

func (w *World) notifySceneUnloading(s *Scene) {
	for _, l := range w.listeners {
		l.OnSceneUnloading(s)
	}
	event.Emit(w.bus, event.SceneUnloading{SceneID: s.ID(), Name: s.Name()})
}
