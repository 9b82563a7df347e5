package component

import (
	"errors"

	"github.com/google/uuid"

	"github.com/carbongdt/carbon/internal/persist"
	"github.com/carbongdt/carbon/internal/reference"
	"github.com/carbongdt/carbon/internal/world"
)

// Color is a packed 0xAARRGGBB value.
type Color uint32

func (c Color) Int64() int64 { return int64(c) }

// RGBA unpacks the channels.
func (c Color) RGBA() (r, g, b, a uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c), uint8(c >> 24)
}

func NewColor(r, g, b, a uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// lightColumns are declared by every light table after RefId.
const lightColumns = `DiffuseColor INTEGER NOT NULL DEFAULT 0,
    SpecularColor INTEGER NOT NULL DEFAULT 0,
    AmbientColor INTEGER NOT NULL DEFAULT 0,
    Intensity REAL NOT NULL DEFAULT 1,
    CastShadows INTEGER NOT NULL DEFAULT 0`

// Light holds the properties shared by every light object.
type Light struct {
	world.ComponentBase
	table string

	diffuse     Color
	specular    Color
	ambient     Color
	intensity   float32
	castShadows bool
}

func newLight(w *world.World, table string, typeID uuid.UUID, refID reference.ID) Light {
	return Light{
		ComponentBase: world.NewComponentBase(w, typeID, refID),
		table:         table,
		diffuse:       NewColor(255, 255, 255, 255),
		specular:      NewColor(255, 255, 255, 255),
		intensity:     1,
	}
}

func (l *Light) DatabaseTable() string { return l.table }

func (l *Light) DiffuseColor() Color  { return l.diffuse }
func (l *Light) SpecularColor() Color { return l.specular }
func (l *Light) AmbientColor() Color  { return l.ambient }
func (l *Light) Intensity() float32   { return l.intensity }
func (l *Light) CastShadows() bool    { return l.castShadows }

func (l *Light) SetDiffuseColor(c Color) error {
	l.diffuse = c
	return updateColumn(l, "DiffuseColor", c)
}

func (l *Light) SetSpecularColor(c Color) error {
	l.specular = c
	return updateColumn(l, "SpecularColor", c)
}

func (l *Light) SetAmbientColor(c Color) error {
	l.ambient = c
	return updateColumn(l, "AmbientColor", c)
}

func (l *Light) SetIntensity(v float32) error {
	l.intensity = v
	return updateColumn(l, "Intensity", v)
}

func (l *Light) SetCastShadows(on bool) error {
	l.castShadows = on
	return updateColumn(l, "CastShadows", on)
}

func (l *Light) copyLight(src *Light) {
	l.diffuse = src.diffuse
	l.specular = src.specular
	l.ambient = src.ambient
	l.intensity = src.intensity
	l.castShadows = src.castShadows
}

func (l *Light) lightRow() ([]string, []any) {
	return []string{"DiffuseColor", "SpecularColor", "AmbientColor", "Intensity", "CastShadows"},
		[]any{l.diffuse, l.specular, l.ambient, l.intensity, l.castShadows}
}

func (l *Light) readLight(q *persist.Query) error {
	return errors.Join(
		q.Column("DiffuseColor", (*uint32)(&l.diffuse)),
		q.Column("SpecularColor", (*uint32)(&l.specular)),
		q.Column("AmbientColor", (*uint32)(&l.ambient)),
		q.Column("Intensity", &l.intensity),
		q.Column("CastShadows", &l.castShadows),
	)
}

// insertLight writes the light row followed by the type's own columns.
func (l *Light) insertLight(columns []string, values []any) error {
	cols, vals := l.lightRow()
	return insertRow(l, append(cols, columns...), append(vals, values...))
}
