package component

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carbongdt/carbon/internal/persist"
	"github.com/carbongdt/carbon/internal/reference"
	"github.com/carbongdt/carbon/internal/world"
)

var DirectionalLightType = uuid.MustParse("5a6e2c1d-8f0b-4b6e-9c1a-2d7f3e4b5a61")

const directionalLightTable = "Objects::DirectionalLight"

const directionalLightDDL = `CREATE TABLE 'Objects::DirectionalLight' (
    RefId INTEGER PRIMARY KEY,
    ` + lightColumns + `,
    ShadowUpdateRate REAL NOT NULL DEFAULT 30,
    SplitOverlap REAL NOT NULL DEFAULT 0.1
)`

// DirectionalLight is a light at infinity. It may own one projector
// texture sub-element.
type DirectionalLight struct {
	Light
	shadowUpdateRate float32
	splitOverlap     float32
	projector        *ProjectorTexture
}

func NewDirectionalLight(typeID uuid.UUID, refID reference.ID, w *world.World) world.WorldObject {
	return &DirectionalLight{
		Light:            newLight(w, directionalLightTable, typeID, refID),
		shadowUpdateRate: 30,
		splitOverlap:     0.1,
	}
}

func cloneDirectionalLight(typeID uuid.UUID, refID reference.ID, w *world.World, source world.WorldObject, _ world.CloneMethod) world.WorldObject {
	d := NewDirectionalLight(typeID, refID, w).(*DirectionalLight)
	if src, ok := source.(*DirectionalLight); ok {
		d.copyLight(&src.Light)
		d.shadowUpdateRate = src.shadowUpdateRate
		d.splitOverlap = src.splitOverlap
	}
	return d
}

func (d *DirectionalLight) ShadowUpdateRate() float32 { return d.shadowUpdateRate }
func (d *DirectionalLight) SplitOverlap() float32     { return d.splitOverlap }

func (d *DirectionalLight) SetShadowUpdateRate(rate float32) error {
	d.shadowUpdateRate = rate
	return updateColumn(d, "ShadowUpdateRate", rate)
}

func (d *DirectionalLight) SetSplitOverlap(overlap float32) error {
	d.splitOverlap = overlap
	return updateColumn(d, "SplitOverlap", overlap)
}

// ProjectorTexture returns the projector sub-element, or nil.
func (d *DirectionalLight) ProjectorTexture() *ProjectorTexture { return d.projector }

// SetProjectorTexture points the projector at file, creating the
// sub-element on first use.
func (d *DirectionalLight) SetProjectorTexture(file string) error {
	if d.projector == nil {
		w := d.World()
		if w == nil {
			return fmt.Errorf("set projector texture: light %s disposed", d.ReferenceID())
		}
		sub, err := w.CreateObjectSubElement(d.IsInternal(), ProjectorTextureType, d)
		if err != nil {
			return err
		}
		d.projector = sub.(*ProjectorTexture)
	}
	return d.projector.SetTextureFile(file)
}

func (d *DirectionalLight) CreateTypeTables(uuid.UUID) error {
	return d.World().CreateTypeTable(directionalLightTable, directionalLightDDL)
}

func (d *DirectionalLight) OnComponentCreated(e *world.ComponentCreatedEventArgs) error {
	if d.ShouldSerialize() {
		err := d.insertLight(
			[]string{"ShadowUpdateRate", "SplitOverlap"},
			[]any{d.shadowUpdateRate, d.splitOverlap})
		if err != nil {
			return err
		}
	}
	src, ok := e.Source.(*DirectionalLight)
	if !ok || src.projector == nil {
		return nil
	}
	sub, err := d.World().CreateObjectSubElementFrom(d.IsInternal(), ProjectorTextureType, d, world.CloneCopy, src.projector)
	if err != nil {
		return fmt.Errorf("clone projector texture: %w", err)
	}
	d.projector = sub.(*ProjectorTexture)
	return nil
}

func (d *DirectionalLight) OnComponentLoading(e *world.ComponentLoadingEventArgs) error {
	err := selectRow(d, e.SourceRefID, func(q *persist.Query) error {
		return errors.Join(
			d.readLight(q),
			q.Column("ShadowUpdateRate", &d.shadowUpdateRate),
			q.Column("SplitOverlap", &d.splitOverlap),
		)
	})
	if err != nil {
		return err
	}
	if e.Cloning() && d.ShouldSerialize() {
		err := d.insertLight(
			[]string{"ShadowUpdateRate", "SplitOverlap"},
			[]any{d.shadowUpdateRate, d.splitOverlap})
		if err != nil {
			return err
		}
	}

	w := d.World()
	subs, err := w.ObjectSubElements(e.SourceRefID)
	if err != nil {
		return err
	}
	for _, s := range subs {
		if s.TypeID != ProjectorTextureType {
			continue
		}
		sub, err := w.LoadObjectSubElement(s.TypeID, s.RefID, d, e.CloneMethod)
		if err != nil {
			return fmt.Errorf("load projector texture: %w", err)
		}
		d.projector = sub.(*ProjectorTexture)
	}
	return nil
}

func (d *DirectionalLight) Dispose() {
	if d.projector != nil {
		p := d.projector
		d.projector = nil
		p.Release()
	}
	d.Light.Dispose()
}
