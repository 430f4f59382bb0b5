package entities

import (
	"fmt"

	polyclip "github.com/akavel/polyclip-go"
	"github.com/golang/glog"

	"dxf2gerber/apertures"
	"dxf2gerber/dxflexer"
	. "dxf2gerber/gerberbasetypes"
	"dxf2gerber/layers"
	"dxf2gerber/xy"
)

type Circle struct {
	Layer  string
	X, Y   float64
	Radius float64
}

func ParseCircle(s *dxflexer.Scanner) (*Circle, error) {
	c := new(Circle)
	var ok bool
	if c.Layer, ok = s.FindValue(dxflexer.CodeLayer); !ok {
		return nil, fmt.Errorf("%w: circle without layer near line %d", ErrMalformed, s.LineNum())
	}
	for _, f := range []struct {
		code int
		dst  *float64
	}{
		{dxflexer.CodeX, &c.X},
		{dxflexer.CodeY, &c.Y},
		{dxflexer.CodeRadius, &c.Radius},
	} {
		v, err := s.FindFloat(f.code)
		if err != nil {
			return nil, fmt.Errorf("%w: circle: %v", ErrMalformed, err)
		}
		*f.dst = v
	}
	return c, nil
}

func (c *Circle) Kind() EntityKind {
	return KindCircle
}

func (c *Circle) LayerName() string {
	return c.Layer
}

// quadrant points: right, up, left, down
func (c *Circle) quadrants() [4]polyclip.Point {
	return [4]polyclip.Point{
		{X: c.X + c.Radius, Y: c.Y},
		{X: c.X, Y: c.Y + c.Radius},
		{X: c.X - c.Radius, Y: c.Y},
		{X: c.X, Y: c.Y - c.Radius},
	}
}

func (c *Circle) Outline() polyclip.Contour {
	q := c.quadrants()
	return polyclip.Contour(q[:])
}

func (c *Circle) ZeroSize() bool {
	return c.Radius <= 0
}

// FlashDiameter is the aperture of a circle on a flashed layer
func (c *Circle) FlashDiameter() float64 {
	return apertures.Round3(2 * c.Radius)
}

func (c *Circle) Tool(l *layers.Layer) float64 {
	if l.Flash {
		return c.FlashDiameter()
	}
	return l.Thickness
}

func (c *Circle) Statements(l *layers.Layer, fs *xy.FormatSpec) []string {
	if l.Flash {
		return []string{
			point(fs, c.X, c.Y) + OpcodeD02_MOVE.Code(),
			OpcodeD03_FLASH.Code(),
		}
	}
	q := c.quadrants()
	r := c.Radius
	draw := OpcodeD01_DRAW.Code()
	return []string{
		moveTo(fs, q[0].X, q[0].Y),
		IPModeCCwC.Code() + point(fs, q[1].X, q[1].Y) + offset(fs, r, 0) + draw,
		point(fs, q[2].X, q[2].Y) + offset(fs, 0, r) + draw,
		point(fs, q[3].X, q[3].Y) + offset(fs, r, 0) + draw,
		point(fs, q[0].X, q[0].Y) + offset(fs, 0, r) + draw,
	}
}

// RegisterFlashes registers the diameter of every circle on a flashed layer.
// It runs before output files are created, so their aperture tables are complete.
func RegisterFlashes(ctx *Context, s *dxflexer.Scanner) error {
	if !s.SeekSection(dxflexer.SectionEntities) {
		return s.Err()
	}
	for s.Next() {
		r := s.Record()
		if r.Code != dxflexer.CodeEntityType {
			continue
		}
		if r.Value == dxflexer.MarkerEndSec {
			break
		}
		if KindOf(r.Value) != KindCircle {
			continue
		}
		c, err := ParseCircle(s)
		if err != nil {
			glog.V(1).Infof("flash pre-pass: %v", err)
			continue
		}
		l, ok := ctx.Layers.Lookup(c.Layer)
		if !ok || !l.Flash || c.Radius <= 0 {
			continue
		}
		ctx.Apertures.Register(c.FlashDiameter())
	}
	return s.Err()
}
