// Package entities turns DXF LINE, CIRCLE and ARC records into Gerber statements.
package entities

import (
	"errors"

	polyclip "github.com/akavel/polyclip-go"

	"dxf2gerber/apertures"
	"dxf2gerber/diagnostics"
	. "dxf2gerber/gerberbasetypes"
	"dxf2gerber/layers"
	"dxf2gerber/plotter"
	"dxf2gerber/xy"
)

var ErrMalformed = errors.New("malformed entity")

// Context holds the state shared by all entity processors of one conversion
type Context struct {
	Layers    *layers.Catalog
	Apertures *apertures.Registry
	Files     *plotter.Files
	Report    *diagnostics.Report
	Format    *xy.FormatSpec
}

func NewContext(source string, confirm plotter.Confirmer) *Context {
	return &Context{
		Layers:    layers.NewCatalog(),
		Apertures: apertures.NewRegistry(),
		Files:     plotter.NewFiles(confirm),
		Report:    diagnostics.NewReport(source),
		Format:    xy.DefaultFormat(),
	}
}

// Entity is a parsed drawing primitive
type Entity interface {
	Kind() EntityKind
	LayerName() string
	// Outline lists every point the entity emits
	Outline() polyclip.Contour
	ZeroSize() bool
	// Tool returns the aperture diameter used on the given layer
	Tool(l *layers.Layer) float64
	Statements(l *layers.Layer, fs *xy.FormatSpec) []string
}

// OutOfBounds reports whether any emitted point has a negative coordinate
func OutOfBounds(e Entity) bool {
	outline := e.Outline()
	if len(outline) == 0 {
		return false
	}
	bb := outline.BoundingBox()
	return bb.Min.X < 0 || bb.Min.Y < 0
}

// Representable reports whether every emitted point fits the output format
func Representable(e Entity, fs *xy.FormatSpec) bool {
	outline := e.Outline()
	if len(outline) == 0 {
		return true
	}
	bb := outline.BoundingBox()
	return fs.InRange(bb.Min.X) && fs.InRange(bb.Min.Y) && fs.InRange(bb.Max.X) && fs.InRange(bb.Max.Y)
}

func point(fs *xy.FormatSpec, x, y float64) string {
	return "X" + fs.Encode(x) + "Y" + fs.Encode(y)
}

func offset(fs *xy.FormatSpec, i, j float64) string {
	return "I" + fs.Encode(i) + "J" + fs.Encode(j)
}

// moveTo is the linear move opening every outline
func moveTo(fs *xy.FormatSpec, x, y float64) string {
	return IPModeLinear.Code() + point(fs, x, y) + OpcodeD02_MOVE.Code()
}
