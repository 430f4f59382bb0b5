package entities

import (
	"fmt"

	polyclip "github.com/akavel/polyclip-go"

	"dxf2gerber/dxflexer"
	. "dxf2gerber/gerberbasetypes"
	"dxf2gerber/layers"
	"dxf2gerber/xy"
)

type Line struct {
	Layer  string
	X1, Y1 float64
	X2, Y2 float64
}

func ParseLine(s *dxflexer.Scanner) (*Line, error) {
	l := new(Line)
	var ok bool
	if l.Layer, ok = s.FindValue(dxflexer.CodeLayer); !ok {
		return nil, fmt.Errorf("%w: line without layer near line %d", ErrMalformed, s.LineNum())
	}
	for _, f := range []struct {
		code int
		dst  *float64
	}{
		{dxflexer.CodeX, &l.X1},
		{dxflexer.CodeY, &l.Y1},
		{dxflexer.CodeX2, &l.X2},
		{dxflexer.CodeY2, &l.Y2},
	} {
		v, err := s.FindFloat(f.code)
		if err != nil {
			return nil, fmt.Errorf("%w: line: %v", ErrMalformed, err)
		}
		*f.dst = v
	}
	return l, nil
}

func (l *Line) Kind() EntityKind {
	return KindLine
}

func (l *Line) LayerName() string {
	return l.Layer
}

func (l *Line) Outline() polyclip.Contour {
	return polyclip.Contour{{X: l.X1, Y: l.Y1}, {X: l.X2, Y: l.Y2}}
}

func (l *Line) ZeroSize() bool {
	return l.X1 == l.X2 && l.Y1 == l.Y2
}

func (l *Line) Tool(layer *layers.Layer) float64 {
	return layer.Thickness
}

func (l *Line) Statements(_ *layers.Layer, fs *xy.FormatSpec) []string {
	return []string{
		moveTo(fs, l.X1, l.Y1),
		point(fs, l.X2, l.Y2) + OpcodeD01_DRAW.Code(),
	}
}
