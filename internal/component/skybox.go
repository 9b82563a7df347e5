package component

import (
	"errors"

	"github.com/google/uuid"

	"github.com/carbongdt/carbon/internal/persist"
	"github.com/carbongdt/carbon/internal/reference"
	"github.com/carbongdt/carbon/internal/world"
)

var SkyBoxType = uuid.MustParse("e7a4c2b9-15d3-4f80-b2c6-3d9a8e1f6047")

const skyBoxTable = "SceneElements::SkyBox"

const skyBoxDDL = `CREATE TABLE 'SceneElements::SkyBox' (
    RefId INTEGER PRIMARY KEY,
    TextureFile path NOT NULL DEFAULT '',
    Rotation REAL NOT NULL DEFAULT 0
)`

// SkyBox is the scene's background cube map.
type SkyBox struct {
	world.SceneElementBase
	file     string
	rotation float32
}

func NewSkyBox(typeID uuid.UUID, refID reference.ID, scene *world.Scene) world.SceneElement {
	return &SkyBox{SceneElementBase: world.NewSceneElementBase(scene, typeID, refID)}
}

func cloneSkyBox(typeID uuid.UUID, refID reference.ID, scene *world.Scene, source world.SceneElement, _ world.CloneMethod) world.SceneElement {
	s := NewSkyBox(typeID, refID, scene).(*SkyBox)
	if src, ok := source.(*SkyBox); ok {
		s.file = src.file
		s.rotation = src.rotation
	}
	return s
}

func (s *SkyBox) DatabaseTable() string { return skyBoxTable }

// TextureFile returns the absolute cube map path.
func (s *SkyBox) TextureFile() string {
	if w := s.World(); w != nil {
		return w.ResolvePath(s.file)
	}
	return s.file
}

func (s *SkyBox) Rotation() float32 { return s.rotation }

func (s *SkyBox) SetTextureFile(file string) error {
	if w := s.World(); w != nil {
		file = w.ResolvePath(file)
	}
	s.file = file
	if err := updateColumn(s, "TextureFile", file); err != nil {
		return err
	}
	s.Scene().SetDirty(true)
	return nil
}

func (s *SkyBox) SetRotation(deg float32) error {
	s.rotation = deg
	if err := updateColumn(s, "Rotation", deg); err != nil {
		return err
	}
	s.Scene().SetDirty(true)
	return nil
}

func (s *SkyBox) CreateTypeTables(uuid.UUID) error {
	return s.World().CreateTypeTable(skyBoxTable, skyBoxDDL)
}

func (s *SkyBox) OnComponentCreated(*world.ComponentCreatedEventArgs) error {
	if !s.ShouldSerialize() {
		return nil
	}
	return insertRow(s, []string{"TextureFile", "Rotation"}, []any{s.file, s.rotation})
}

func (s *SkyBox) OnComponentLoading(e *world.ComponentLoadingEventArgs) error {
	err := selectRow(s, e.SourceRefID, func(q *persist.Query) error {
		return errors.Join(
			q.Column("TextureFile", &s.file),
			q.Column("Rotation", &s.rotation),
		)
	})
	if err != nil {
		return err
	}
	if e.Cloning() && s.ShouldSerialize() {
		return insertRow(s, []string{"TextureFile", "Rotation"}, []any{s.file, s.rotation})
	}
	return nil
}
