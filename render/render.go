package render

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/gogpu/gg"
	"github.com/golang/glog"

	. "dxf2gerber/gerberbasetypes"
)

const (
	DefaultDPI    = 200
	DefaultMargin = 0.1 // inches
	MaxSide       = 4096
)

var ErrArc = errors.New("arc center not found")

/*
 ************************** Rendering context ****************************
 */
type Render struct {
	DPI     float64
	Margin  float64
	MaxSide int

	// board extents including the margin
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64

	scale  float64 // pixels per inch
	width  int
	height int
	dc     *gg.Context

	//statistic
	LineCounter     int
	ArcCounter      int
	FlashCounter    int
	MovePenCounters int
	LineLen         float64
}

func NewRender(dpi, margin float64) *Render {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if margin < 0 {
		margin = DefaultMargin
	}
	return &Render{DPI: dpi, Margin: margin, MaxSide: MaxSide}
}

// Init sizes the canvas after the extents of the program
func (rc *Render) Init(p *Program) {
	first := true
	for _, st := range p.Steps {
		r := 0.0
		if st.CurrentAp != nil {
			r = st.CurrentAp.Diameter / 2
		}
		x, y := st.Coord.X, st.Coord.Y
		if first {
			rc.MinX, rc.MinY, rc.MaxX, rc.MaxY = x-r, y-r, x+r, y+r
			first = false
			continue
		}
		rc.MinX = math.Min(rc.MinX, x-r)
		rc.MinY = math.Min(rc.MinY, y-r)
		rc.MaxX = math.Max(rc.MaxX, x+r)
		rc.MaxY = math.Max(rc.MaxY, y+r)
	}
	rc.MinX -= rc.Margin
	rc.MinY -= rc.Margin
	rc.MaxX += rc.Margin
	rc.MaxY += rc.Margin

	w, h := rc.MaxX-rc.MinX, rc.MaxY-rc.MinY
	rc.scale = rc.DPI
	if w*rc.scale > float64(rc.MaxSide) {
		rc.scale = float64(rc.MaxSide) / w
	}
	if h*rc.scale > float64(rc.MaxSide) {
		rc.scale = float64(rc.MaxSide) / h
	}
	rc.width = int(math.Max(1, math.Ceil(w*rc.scale-1e-6)))
	rc.height = int(math.Max(1, math.Ceil(h*rc.scale-1e-6)))
	if rc.dc != nil {
		_ = rc.dc.Close()
	}
	rc.dc = gg.NewContext(rc.width, rc.height)
	rc.dc.ClearWithColor(gg.White)
	rc.dc.SetLineCap(gg.LineCapRound)
}

func (rc *Render) Size() (int, int) {
	return rc.width, rc.height
}

// board to image coordinates, Y grows downwards in the image
func (rc *Render) transform(x, y float64) (float64, float64) {
	return (x - rc.MinX) * rc.scale, float64(rc.height) - (y-rc.MinY)*rc.scale
}

// ArcCenter finds the center of a counterclockwise single quadrant arc.
// The offsets are unsigned, so all four sign combinations are tried.
func ArcCenter(x1, y1, x2, y2, i, j float64) (float64, float64, error) {
	return arcCenter(x1, y1, x2, y2, i, j, true)
}

func arcCenter(x1, y1, x2, y2, i, j float64, ccw bool) (float64, float64, error) {
	best := math.Inf(1)
	var cx, cy float64
	for _, sx := range []float64{1, -1} {
		for _, sy := range []float64{1, -1} {
			px, py := x1+sx*i, y1+sy*j
			r1 := math.Hypot(x1-px, y1-py)
			r2 := math.Hypot(x2-px, y2-py)
			if r1 == 0 {
				continue
			}
			dr := math.Abs(r1 - r2)
			if dr > 1e-4+1e-3*r1 {
				continue
			}
			a1, a2 := math.Atan2(y1-py, x1-px), math.Atan2(y2-py, x2-px)
			if !ccw {
				a1, a2 = a2, a1
			}
			sweep := ccwSweep(a1, a2)
			if sweep > math.Pi/2+1e-3 {
				continue
			}
			if dr < best {
				best, cx, cy = dr, px, py
			}
		}
	}
	if math.IsInf(best, 1) {
		return 0, 0, ErrArc
	}
	return cx, cy, nil
}

func ccwSweep(a1, a2 float64) float64 {
	d := a2 - a1
	for d < 0 {
		d += 2 * math.Pi
	}
	return d
}

/*
**************************** step processor *******************************
 */
func (rc *Render) ProcessStep(st *State) error {
	switch st.Action {
	case OpcodeD02_MOVE:
		rc.MovePenCounters++
		return nil
	case OpcodeD03_FLASH:
		x, y := rc.transform(st.Coord.X, st.Coord.Y)
		rc.dc.SetRGB(1, 0, 0)
		rc.dc.DrawCircle(x, y, st.CurrentAp.Diameter/2*rc.scale)
		rc.FlashCounter++
		return rc.dc.Fill()
	case OpcodeD01_DRAW:
	default:
		return fmt.Errorf("step %d: bad opcode", st.StepNumber)
	}
	if st.PrevCoord == nil {
		return fmt.Errorf("step %d: draw without start point", st.StepNumber)
	}
	x1, y1 := st.PrevCoord.X, st.PrevCoord.Y
	x2, y2 := st.Coord.X, st.Coord.Y
	rc.dc.SetRGB(0, 0, 1)
	rc.dc.SetLineWidth(math.Max(1, st.CurrentAp.Diameter*rc.scale))
	if st.IpMode == IPModeLinear {
		px1, py1 := rc.transform(x1, y1)
		px2, py2 := rc.transform(x2, y2)
		rc.dc.DrawLine(px1, py1, px2, py2)
		rc.LineCounter++
		rc.LineLen += math.Hypot(x2-x1, y2-y1)
		return rc.dc.Stroke()
	}
	ccw := st.IpMode == IPModeCCwC
	cx, cy, err := arcCenter(x1, y1, x2, y2, st.Coord.I, st.Coord.J, ccw)
	if err != nil {
		return fmt.Errorf("step %d: %w: %s", st.StepNumber, err, st.Coord)
	}
	a1, a2 := math.Atan2(y1-cy, x1-cx), math.Atan2(y2-cy, x2-cx)
	if !ccw {
		a1, a2 = a2, a1
	}
	a2 = a1 + ccwSweep(a1, a2)
	pcx, pcy := rc.transform(cx, cy)
	// the image is flipped vertically, so are the angles
	rc.dc.DrawArc(pcx, pcy, math.Hypot(x1-cx, y1-cy)*rc.scale, -a2, -a1)
	rc.ArcCounter++
	return rc.dc.Stroke()
}

// Draw renders every step of the program
func (rc *Render) Draw(p *Program) error {
	rc.Init(p)
	var errs []error
	for _, st := range p.Steps {
		if err := rc.ProcessStep(st); err != nil {
			glog.Warningln(err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (rc *Render) SavePNG(path string) error {
	if rc.dc == nil {
		return errors.New("nothing rendered")
	}
	return rc.dc.SavePNG(path)
}

func (rc *Render) Close() {
	if rc.dc != nil {
		_ = rc.dc.Close()
		rc.dc = nil
	}
}

// ReadLines loads a Gerber file as a list of statements
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var retVal []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		retVal = append(retVal, sc.Text())
	}
	return retVal, sc.Err()
}

// RenderFile draws a Gerber file into a PNG image
func RenderFile(gerberPath, pngPath string, dpi, margin float64) (*Render, error) {
	src, err := ReadLines(gerberPath)
	if err != nil {
		return nil, err
	}
	p, err := CreateStepSequence(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", gerberPath, err)
	}
	rc := NewRender(dpi, margin)
	defer rc.Close()
	drawErr := rc.Draw(p)
	if err = rc.SavePNG(pngPath); err != nil {
		return rc, err
	}
	glog.V(1).Infof("%s: %d lines, %d arcs, %d flashes rendered to %s",
		gerberPath, rc.LineCounter, rc.ArcCounter, rc.FlashCounter, pngPath)
	return rc, drawErr
}
