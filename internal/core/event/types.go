package event

import "github.com/google/uuid"

// GroupWorld carries world and scene lifecycle messages.
const GroupWorld = "world"

type WorldDisposing struct {
	WorldID uuid.UUID
}

type SceneAdded struct {
	SceneID uint32
	Name    string
}

type SceneLoading struct {
	SceneID uint32
	Name    string
}

type SceneLoadFailed struct {
	SceneID uint32
	Name    string
	Err     error
}

type SceneLoaded struct {
	SceneID uint32
	Name    string
}

type SceneUnloading struct {
	SceneID uint32
	Name    string
}

func (WorldDisposing) MessageGroup() string  { return GroupWorld }
func (SceneAdded) MessageGroup() string      { return GroupWorld }
func (SceneLoading) MessageGroup() string    { return GroupWorld }
func (SceneLoadFailed) MessageGroup() string { return GroupWorld }
func (SceneLoaded) MessageGroup() string     { return GroupWorld }
func (SceneUnloading) MessageGroup() string  { return GroupWorld }
