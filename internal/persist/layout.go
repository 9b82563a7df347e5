package persist

import (
	"embed"
	"fmt"
	"path"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed layouts/*.sql layouts/layouts.yaml
var layouts embed.FS

// LayoutEntry describes the DDL resource that initializes one world type.
type LayoutEntry struct {
	Type        string `yaml:"type"`
	File        string `yaml:"file"`
	Description string `yaml:"description"`
}

// LayoutTable resolves world types to their layout resources.
type LayoutTable struct {
	entries map[string]*LayoutEntry
	order   []string
}

var (
	layoutOnce  sync.Once
	layoutTable *LayoutTable
	layoutErr   error
)

// Layouts returns the embedded layout manifest.
func Layouts() (*LayoutTable, error) {
	layoutOnce.Do(func() {
		layoutTable, layoutErr = loadLayoutTable()
	})
	return layoutTable, layoutErr
}

func loadLayoutTable() (*LayoutTable, error) {
	raw, err := layouts.ReadFile("layouts/layouts.yaml")
	if err != nil {
		return nil, fmt.Errorf("read layout manifest: %w", err)
	}
	var entries []LayoutEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse layout manifest: %w", err)
	}
	t := &LayoutTable{entries: make(map[string]*LayoutEntry, len(entries))}
	for i := range entries {
		e := &entries[i]
		if _, dup := t.entries[e.Type]; dup {
			return nil, fmt.Errorf("parse layout manifest: duplicate world type %q", e.Type)
		}
		t.entries[e.Type] = e
		t.order = append(t.order, e.Type)
	}
	return t, nil
}

// Get returns the entry for worldType, or nil if none.
func (t *LayoutTable) Get(worldType string) *LayoutEntry {
	return t.entries[worldType]
}

// Types lists the world types in manifest order.
func (t *LayoutTable) Types() []string {
	return append([]string(nil), t.order...)
}

// DDL returns the full layout text for worldType.
func (t *LayoutTable) DDL(worldType string) (string, error) {
	e := t.entries[worldType]
	if e == nil {
		return "", fmt.Errorf("no layout for world type %q", worldType)
	}
	raw, err := layouts.ReadFile(path.Join("layouts", e.File))
	if err != nil {
		return "", fmt.Errorf("read layout %s: %w", e.File, err)
	}
	return string(raw), nil
}
