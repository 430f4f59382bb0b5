// Layer catalog: the distinct layers of a drawing and their output attributes
package layers

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"dxf2gerber/dxflexer"
)

const (
	DefaultThickness = 0.005
	MinThickness     = 0.001
	MaxThickness     = 1.0
	DefaultExtension = ".gbr"

	milSuffix = "MIL"
	// NoFile marks a layer not yet attached to an output file
	NoFile = -1
)

var (
	ErrNoName        = errors.New("layer has no name")
	ErrNoFileName    = errors.New("layer has no output file name")
	ErrZeroThickness = errors.New("layer thickness is not positive")
	ErrInactive      = errors.New("layer is inactive")
	ErrThickness     = errors.New("thickness out of range")
	ErrUnknownLayer  = errors.New("unknown layer")
	ErrNoEntities    = errors.New("ENTITIES section not found")
)

type Layer struct {
	Name      string
	Thickness float64 // inches
	Active    bool
	Flash     bool
	FileName  string // output file name without extension
	Path      string // resolved output path
	FileIndex int    // owning output file, NoFile until attached
}

// Valid checks the attributes a layer needs to be converted
func (l *Layer) Valid() error {
	switch {
	case l.Name == "":
		return ErrNoName
	case l.FileName == "":
		return fmt.Errorf("%w: %s", ErrNoFileName, l.Name)
	case !(l.Thickness > 0):
		return fmt.Errorf("%w: %s", ErrZeroThickness, l.Name)
	case !l.Active:
		return fmt.Errorf("%w: %s", ErrInactive, l.Name)
	}
	return nil
}

func (l *Layer) String() string {
	return l.Name + " thickness=" + strconv.FormatFloat(l.Thickness, 'f', -1, 64) +
		" file=" + l.FileName + " active=" + strconv.FormatBool(l.Active) +
		" flash=" + strconv.FormatBool(l.Flash)
}

// DefaultAttributes derives thickness and file name from the layer name.
// A name like TOP_5MIL gives 0.005 and TOP; anything else, including a
// thickness outside [minThickness, maxThickness], keeps the name and the
// default thickness.
func DefaultAttributes(name string, defThickness, minThickness, maxThickness float64) (float64, string) {
	milPos := strings.LastIndex(name, milSuffix)
	underPos := strings.LastIndex(name, "_")
	if milPos == -1 || underPos == -1 || milPos < underPos {
		return defThickness, name
	}
	mils, err := strconv.ParseFloat(name[underPos+1:milPos], 64)
	if err != nil {
		// TOP_AMIL
		return defThickness, name
	}
	th := mils / 1000
	if math.IsNaN(th) || th < minThickness || th > maxThickness {
		glog.V(1).Infof("layer %s: thickness %v out of range, default used", name, th)
		return defThickness, name
	}
	return th, name[:strings.Index(name, "_")]
}

// ResolvePath builds the output path of a layer. An empty outDir means
// the directory of the drawing.
func ResolvePath(dxfPath, outDir, fileName, ext string) string {
	if outDir == "" {
		outDir = filepath.Dir(dxfPath)
	}
	if ext == "" {
		ext = DefaultExtension
	}
	return filepath.Join(outDir, fileName+ext)
}

// Catalog keeps layers in discovery order. Not safe for concurrent use.
type Catalog struct {
	list         []*Layer
	byName       map[string]*Layer
	defThickness float64
	minThickness float64
	maxThickness float64
}

func NewCatalog() *Catalog {
	return &Catalog{
		list:         make([]*Layer, 0),
		byName:       make(map[string]*Layer),
		defThickness: DefaultThickness,
		minThickness: MinThickness,
		maxThickness: MaxThickness,
	}
}

// SetThicknessLimits changes the default thickness and the accepted range.
// Zero values keep the current setting.
func (c *Catalog) SetThicknessLimits(def, min, max float64) {
	if def > 0 {
		c.defThickness = def
	}
	if min > 0 {
		c.minThickness = min
	}
	if max > 0 {
		c.maxThickness = max
	}
}

// Add registers a layer with default attributes unless it already exists
func (c *Catalog) Add(name string) *Layer {
	if l, ok := c.byName[name]; ok {
		return l
	}
	th, fn := DefaultAttributes(name, c.defThickness, c.minThickness, c.maxThickness)
	l := &Layer{
		Name:      name,
		Thickness: th,
		Active:    true,
		FileName:  fn,
		FileIndex: NoFile,
	}
	c.list = append(c.list, l)
	c.byName[name] = l
	glog.V(2).Infof("layer %s discovered", l)
	return l
}

func (c *Catalog) Lookup(name string) (*Layer, bool) {
	l, ok := c.byName[name]
	return l, ok
}

func (c *Catalog) Layers() []*Layer {
	return append([]*Layer(nil), c.list...)
}

func (c *Catalog) Len() int {
	return len(c.list)
}

// Drop removes a layer; its entities are ignored from then on
func (c *Catalog) Drop(name string) {
	if _, ok := c.byName[name]; !ok {
		return
	}
	delete(c.byName, name)
	for i, l := range c.list {
		if l.Name == name {
			c.list = append(c.list[:i], c.list[i+1:]...)
			break
		}
	}
}

// Prune removes the layers failing validation and returns the reasons
func (c *Catalog) Prune() []error {
	var dropped []error
	kept := c.list[:0]
	for _, l := range c.list {
		if err := l.Valid(); err != nil {
			glog.Warningln("layer dropped:", err)
			dropped = append(dropped, err)
			delete(c.byName, l.Name)
			continue
		}
		kept = append(kept, l)
	}
	c.list = kept
	return dropped
}

// Override is a user change of layer attributes; nil fields are left alone
type Override struct {
	Name      string   `mapstructure:"name"`
	Thickness *float64 `mapstructure:"thickness"`
	File      *string  `mapstructure:"file"`
	Active    *bool    `mapstructure:"active"`
	Flash     *bool    `mapstructure:"flash"`
}

// ApplyOverrides edits known layers. Overrides of unknown layers and out of
// range thicknesses are reported and skipped.
func (c *Catalog) ApplyOverrides(ovs []Override) error {
	var errs []error
	for _, ov := range ovs {
		l, ok := c.byName[ov.Name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownLayer, ov.Name))
			continue
		}
		if ov.Thickness != nil {
			if *ov.Thickness < c.minThickness || *ov.Thickness > c.maxThickness {
				errs = append(errs, fmt.Errorf("%w: layer %s: %v not in [%v, %v]",
					ErrThickness, l.Name, *ov.Thickness, c.minThickness, c.maxThickness))
			} else {
				l.Thickness = *ov.Thickness
			}
		}
		if ov.File != nil {
			l.FileName = strings.TrimSpace(*ov.File)
		}
		if ov.Active != nil {
			l.Active = *ov.Active
		}
		if ov.Flash != nil {
			l.Flash = *ov.Flash
		}
	}
	return errors.Join(errs...)
}

// Discover adds every layer named by an entity of the ENTITIES section
func (c *Catalog) Discover(s *dxflexer.Scanner) error {
	if !s.SeekSection(dxflexer.SectionEntities) {
		if err := s.Err(); err != nil {
			return err
		}
		return ErrNoEntities
	}
	for s.Next() {
		r := s.Record()
		if r.IsMarker(dxflexer.MarkerEndSec) {
			break
		}
		if r.Code == dxflexer.CodeLayer {
			c.Add(r.Value)
		}
	}
	return s.Err()
}
