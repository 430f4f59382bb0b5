// Aperture (tool) registry shared by all output files of a conversion
package apertures

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang/glog"

	. "dxf2gerber/gerberbasetypes"
)

var (
	ErrUnregistered = errors.New("aperture is not registered")
	ErrDefinition   = errors.New("bad aperture definition")
)

// Round3 rounds the value to three decimal places
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

type Aperture struct {
	Code         int
	SourceString string
	Type         GerberApType
	Diameter     float64
}

// Definition returns the %ADD statement declaring the aperture
func (apert *Aperture) Definition() string {
	return GerberApertureDef + strconv.Itoa(apert.Code) + "C," +
		strconv.FormatFloat(apert.Diameter, 'f', -1, 64) + "*%"
}

// Init parses an aperture definition statement, e.g. %ADD10C,0.005*%
func (apert *Aperture) Init(sourceString string) error {
	sourceString = strings.TrimSpace(sourceString)
	apert.SourceString = sourceString
	if !strings.HasPrefix(sourceString, GerberApertureDef) || !strings.HasSuffix(sourceString, "*%") {
		return fmt.Errorf("%w: %q", ErrDefinition, sourceString)
	}
	body := sourceString[len(GerberApertureDef) : len(sourceString)-2]

	apertureCodePosition := strings.IndexAny(body, "CROP")
	if apertureCodePosition <= 0 || apertureCodePosition+2 > len(body) {
		return fmt.Errorf("%w: %q", ErrDefinition, sourceString)
	}
	code, err := strconv.Atoi(body[:apertureCodePosition])
	if err != nil || code < FirstApertureCode {
		return fmt.Errorf("%w: bad aperture number in %q", ErrDefinition, sourceString)
	}
	if body[apertureCodePosition] != 'C' {
		return fmt.Errorf("%w: only circle apertures are supported: %q", ErrDefinition, sourceString)
	}
	tmpSplitted := strings.Split(body[apertureCodePosition+2:], "X")
	if len(tmpSplitted) != 1 {
		return fmt.Errorf("%w: bad number of parameters for circle aperture", ErrDefinition)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(tmpSplitted[0]), 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDefinition, err)
	}
	apert.Code = code
	apert.Type = AptypeCircle
	apert.Diameter = d
	return nil
}

func (apert *Aperture) String() string {
	return "D" + strconv.Itoa(apert.Code) + " " + apert.Type.String() +
		" d=" + strconv.FormatFloat(apert.Diameter, 'f', -1, 64)
}

// Registry maps rounded diameters to D codes in first-seen order.
// It is not safe for concurrent use.
type Registry struct {
	list    []*Aperture
	byValue map[float64]*Aperture
}

func NewRegistry() *Registry {
	return &Registry{
		list:    make([]*Aperture, 0),
		byValue: make(map[float64]*Aperture),
	}
}

// Register adds the diameter to the table unless its rounded value is already there
func (r *Registry) Register(value float64) *Aperture {
	d := Round3(value)
	if a, ok := r.byValue[d]; ok {
		return a
	}
	a := &Aperture{
		Code:     FirstApertureCode + len(r.list),
		Type:     AptypeCircle,
		Diameter: d,
	}
	a.SourceString = a.Definition()
	r.list = append(r.list, a)
	r.byValue[d] = a
	glog.V(2).Infof("aperture %s registered", a)
	return a
}

// CodeFor returns the D code of a registered diameter. An unregistered value
// means registration and use went out of sync.
func (r *Registry) CodeFor(value float64) (int, error) {
	d := Round3(value)
	if a, ok := r.byValue[d]; ok {
		return a.Code, nil
	}
	glog.Errorf("aperture lookup failed: diameter %v was never registered", d)
	return 0, fmt.Errorf("%w: %v", ErrUnregistered, d)
}

// Header returns one definition statement per aperture
func (r *Registry) Header() []string {
	retVal := make([]string, 0, len(r.list))
	for _, a := range r.list {
		retVal = append(retVal, a.Definition())
	}
	return retVal
}

func (r *Registry) Len() int {
	return len(r.list)
}

func (r *Registry) Apertures() []*Aperture {
	return append([]*Aperture(nil), r.list...)
}
