package component

import (
	"errors"

	"github.com/google/uuid"

	"github.com/carbongdt/carbon/internal/persist"
	"github.com/carbongdt/carbon/internal/reference"
	"github.com/carbongdt/carbon/internal/world"
)

var HemisphereLightType = uuid.MustParse("b3f1e8a0-7c24-4d59-a6e2-91c05d3f7b18")

const hemisphereLightTable = "Objects::HemisphereLight"

const hemisphereLightDDL = `CREATE TABLE 'Objects::HemisphereLight' (
    RefId INTEGER PRIMARY KEY,
    ` + lightColumns + `,
    SkyColor INTEGER NOT NULL DEFAULT 0,
    GroundColor INTEGER NOT NULL DEFAULT 0
)`

// HemisphereLight blends a sky and a ground color by surface orientation.
type HemisphereLight struct {
	Light
	sky    Color
	ground Color
}

func NewHemisphereLight(typeID uuid.UUID, refID reference.ID, w *world.World) world.WorldObject {
	return &HemisphereLight{
		Light:  newLight(w, hemisphereLightTable, typeID, refID),
		sky:    NewColor(135, 206, 235, 255),
		ground: NewColor(64, 48, 32, 255),
	}
}

func cloneHemisphereLight(typeID uuid.UUID, refID reference.ID, w *world.World, source world.WorldObject, _ world.CloneMethod) world.WorldObject {
	h := NewHemisphereLight(typeID, refID, w).(*HemisphereLight)
	if src, ok := source.(*HemisphereLight); ok {
		h.copyLight(&src.Light)
		h.sky = src.sky
		h.ground = src.ground
	}
	return h
}

func (h *HemisphereLight) SkyColor() Color    { return h.sky }
func (h *HemisphereLight) GroundColor() Color { return h.ground }

func (h *HemisphereLight) SetSkyColor(c Color) error {
	h.sky = c
	return updateColumn(h, "SkyColor", c)
}

func (h *HemisphereLight) SetGroundColor(c Color) error {
	h.ground = c
	return updateColumn(h, "GroundColor", c)
}

func (h *HemisphereLight) CreateTypeTables(uuid.UUID) error {
	return h.World().CreateTypeTable(hemisphereLightTable, hemisphereLightDDL)
}

func (h *HemisphereLight) OnComponentCreated(*world.ComponentCreatedEventArgs) error {
	if !h.ShouldSerialize() {
		return nil
	}
	return h.insertLight([]string{"SkyColor", "GroundColor"}, []any{h.sky, h.ground})
}

func (h *HemisphereLight) OnComponentLoading(e *world.ComponentLoadingEventArgs) error {
	err := selectRow(h, e.SourceRefID, func(q *persist.Query) error {
		return errors.Join(
			h.readLight(q),
			q.Column("SkyColor", (*uint32)(&h.sky)),
			q.Column("GroundColor", (*uint32)(&h.ground)),
		)
	})
	if err != nil {
		return err
	}
	if e.Cloning() && h.ShouldSerialize() {
		return h.insertLight([]string{"SkyColor", "GroundColor"}, []any{h.sky, h.ground})
	}
	return nil
}
