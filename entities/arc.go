package entities

import (
	"fmt"
	"math"

	polyclip "github.com/akavel/polyclip-go"

	"dxf2gerber/dxflexer"
	. "dxf2gerber/gerberbasetypes"
	"dxf2gerber/layers"
	"dxf2gerber/xy"
)

type Arc struct {
	Layer      string
	X, Y       float64
	Radius     float64
	Extrusion  float64 // +1 or -1
	StartAngle float64 // degrees
	EndAngle   float64
}

func ParseArc(s *dxflexer.Scanner) (*Arc, error) {
	a := &Arc{Extrusion: 1}
	var ok bool
	if a.Layer, ok = s.FindValue(dxflexer.CodeLayer); !ok {
		return nil, fmt.Errorf("%w: arc without layer near line %d", ErrMalformed, s.LineNum())
	}
	var err error
	if a.X, err = s.FindFloat(dxflexer.CodeX); err != nil {
		return nil, fmt.Errorf("%w: arc: %v", ErrMalformed, err)
	}
	if a.Y, err = s.FindFloat(dxflexer.CodeY); err != nil {
		return nil, fmt.Errorf("%w: arc: %v", ErrMalformed, err)
	}
	if a.Radius, err = s.FindFloat(dxflexer.CodeRadius); err != nil {
		return nil, fmt.Errorf("%w: arc: %v", ErrMalformed, err)
	}
	if a.Extrusion, err = s.FindExtrusionDirection(); err != nil {
		return nil, fmt.Errorf("%w: arc: %v", ErrMalformed, err)
	}
	if a.StartAngle, err = s.FindFloat(dxflexer.CodeStartAngle); err != nil {
		return nil, fmt.Errorf("%w: arc: %v", ErrMalformed, err)
	}
	if a.EndAngle, err = s.FindFloat(dxflexer.CodeEndAngle); err != nil {
		return nil, fmt.Errorf("%w: arc: %v", ErrMalformed, err)
	}
	return a, nil
}

// ArcSegment is the end point of a counterclockwise move and the
// center offset it is drawn with
type ArcSegment struct {
	X, Y float64
	I, J float64
}

// ArcPath is an arc split at the quadrant boundaries it crosses
type ArcPath struct {
	CX, CY     float64 // center after mirroring
	StartAngle float64 // degrees, after mirroring
	EndAngle   float64 // degrees, EndAngle >= StartAngle
	Start      polyclip.Point
	Quadrants  []ArcSegment
	End        ArcSegment
}

func mirrorAngle(a float64) float64 {
	if a < 180 {
		return 180 - a
	}
	return 540 - a
}

func rad(deg float64) float64 {
	return deg / 360 * 2 * math.Pi
}

// onCircle returns the point of the circle at the given angle. The residue
// left by cos and sin at right angles is cleared.
func onCircle(cx, cy, r, deg float64) polyclip.Point {
	p := polyclip.Point{X: cx + r*math.Cos(rad(deg)), Y: cy + r*math.Sin(rad(deg))}
	if math.Abs(p.X) < 1e-9 {
		p.X = 0
	}
	if math.Abs(p.Y) < 1e-9 {
		p.Y = 0
	}
	return p
}

// Decompose splits the arc into moves that never cross a quadrant boundary.
// An arc seen from below (extrusion -1) is mirrored about the Y axis first.
func (a *Arc) Decompose() ArcPath {
	cx, cy, r := a.X, a.Y, a.Radius
	start, end := a.StartAngle, a.EndAngle
	if a.Extrusion == -1 {
		cx = -cx
		start, end = mirrorAngle(end), mirrorAngle(start)
	}
	p := ArcPath{CX: cx, CY: cy}
	p.Start = onCircle(cx, cy, r, start)
	endPoint := onCircle(cx, cy, r, end)
	if end < start {
		end += 360
	}
	p.StartAngle, p.EndAngle = start, end

	quadrant := [4]polyclip.Point{
		{X: cx + r, Y: cy},
		{X: cx, Y: cy + r},
		{X: cx - r, Y: cy},
		{X: cx, Y: cy - r},
	}
	i, j := r*math.Cos(rad(start)), r*math.Sin(rad(start))
	for k := 0; k <= 720; k += 90 {
		if !(start < float64(k) && float64(k) <= end) {
			continue
		}
		q := (k / 90) % 4
		p.Quadrants = append(p.Quadrants, ArcSegment{X: quadrant[q].X, Y: quadrant[q].Y, I: i, J: j})
		if q%2 == 0 {
			i, j = r, 0
		} else {
			i, j = 0, r
		}
	}
	p.End = ArcSegment{X: endPoint.X, Y: endPoint.Y, I: i, J: j}
	return p
}

func (a *Arc) Kind() EntityKind {
	return KindArc
}

func (a *Arc) LayerName() string {
	return a.Layer
}

func (a *Arc) Outline() polyclip.Contour {
	p := a.Decompose()
	retVal := polyclip.Contour{p.Start}
	for _, q := range p.Quadrants {
		retVal.Add(polyclip.Point{X: q.X, Y: q.Y})
	}
	retVal.Add(polyclip.Point{X: p.End.X, Y: p.End.Y})
	return retVal
}

func (a *Arc) ZeroSize() bool {
	if a.Radius <= 0 {
		return true
	}
	p := a.Decompose()
	return p.EndAngle == p.StartAngle
}

func (a *Arc) Tool(l *layers.Layer) float64 {
	return l.Thickness
}

func (a *Arc) Statements(_ *layers.Layer, fs *xy.FormatSpec) []string {
	p := a.Decompose()
	ccw := IPModeCCwC.Code()
	draw := OpcodeD01_DRAW.Code()
	retVal := []string{moveTo(fs, p.Start.X, p.Start.Y)}
	for n, q := range p.Quadrants {
		prefix := ""
		if n == 0 {
			prefix = ccw
		}
		retVal = append(retVal, prefix+point(fs, q.X, q.Y)+offset(fs, q.I, q.J)+draw)
	}
	prefix := ""
	if len(p.Quadrants) == 0 {
		prefix = ccw
	}
	return append(retVal, prefix+point(fs, p.End.X, p.End.Y)+offset(fs, p.End.I, p.End.J)+draw)
}
