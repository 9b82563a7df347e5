package component

import (
	"errors"

	"github.com/google/uuid"

	"github.com/carbongdt/carbon/internal/persist"
	"github.com/carbongdt/carbon/internal/reference"
	"github.com/carbongdt/carbon/internal/world"
)

var ProjectorTextureType = uuid.MustParse("0c9d7a42-3e55-4f1b-8a26-6b1e9f0d4c37")

const projectorTextureTable = "Objects::ProjectorTexture"

const projectorTextureDDL = `CREATE TABLE 'Objects::ProjectorTexture' (
    RefId INTEGER PRIMARY KEY,
    TextureFile path NOT NULL DEFAULT '',
    Intensity REAL NOT NULL DEFAULT 1
)`

// ProjectorTexture is a texture projected by its parent light.
type ProjectorTexture struct {
	world.SubElementBase
	file      string
	intensity float32
}

func NewProjectorTexture(typeID uuid.UUID, refID reference.ID, parent world.WorldObject) world.ObjectSubElement {
	return &ProjectorTexture{
		SubElementBase: world.NewSubElementBase(parent, typeID, refID),
		intensity:      1,
	}
}

func cloneProjectorTexture(typeID uuid.UUID, refID reference.ID, parent world.WorldObject, source world.ObjectSubElement, _ world.CloneMethod) world.ObjectSubElement {
	p := NewProjectorTexture(typeID, refID, parent).(*ProjectorTexture)
	if src, ok := source.(*ProjectorTexture); ok {
		p.file = src.file
		p.intensity = src.intensity
	}
	return p
}

func (p *ProjectorTexture) DatabaseTable() string { return projectorTextureTable }

// TextureFile returns the absolute texture path.
func (p *ProjectorTexture) TextureFile() string {
	if w := p.World(); w != nil {
		return w.ResolvePath(p.file)
	}
	return p.file
}

func (p *ProjectorTexture) Intensity() float32 { return p.intensity }

// SetTextureFile stores file; relative values are taken against the world
// file's directory.
func (p *ProjectorTexture) SetTextureFile(file string) error {
	if w := p.World(); w != nil {
		file = w.ResolvePath(file)
	}
	p.file = file
	return updateColumn(p, "TextureFile", file)
}

func (p *ProjectorTexture) SetIntensity(v float32) error {
	p.intensity = v
	return updateColumn(p, "Intensity", v)
}

func (p *ProjectorTexture) CreateTypeTables(uuid.UUID) error {
	return p.World().CreateTypeTable(projectorTextureTable, projectorTextureDDL)
}

func (p *ProjectorTexture) OnComponentCreated(*world.ComponentCreatedEventArgs) error {
	if !p.ShouldSerialize() {
		return nil
	}
	return insertRow(p, []string{"TextureFile", "Intensity"}, []any{p.file, p.intensity})
}

func (p *ProjectorTexture) OnComponentLoading(e *world.ComponentLoadingEventArgs) error {
	err := selectRow(p, e.SourceRefID, func(q *persist.Query) error {
		return errors.Join(
			q.Column("TextureFile", &p.file),
			q.Column("Intensity", &p.intensity),
		)
	})
	if err != nil {
		return err
	}
	if e.Cloning() && p.ShouldSerialize() {
		return insertRow(p, []string{"TextureFile", "Intensity"}, []any{p.file, p.intensity})
	}
	return nil
}
