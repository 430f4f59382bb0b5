/*
################################## State machine ######################################
*/
package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"dxf2gerber/apertures"
	. "dxf2gerber/gerberbasetypes"
	"dxf2gerber/xy"
)

var (
	ErrSyntax         = errors.New("gerber syntax error")
	ErrNoAperture     = errors.New("aperture does not exist")
	ErrNoFormat       = errors.New("format specification missing")
	ErrNoEndOfProgram = errors.New("end of program missing")
)

/*
	The State object represents the state of the state machine after
	a data block with an operation code was read.
*/
type State struct {
	StepNumber int
	CurrentAp  *apertures.Aperture
	IpMode     IPmode
	PrevCoord  *xy.XY
	Coord      *xy.XY
	Action     ActType
}

func NewState() *State {
	state := new(State)
	state.Coord = new(xy.XY)
	state.IpMode = IPModeLinear
	return state
}

func (step *State) String() string {
	ap := "<nil>"
	if step.CurrentAp != nil {
		ap = step.CurrentAp.String()
	}
	return "Step#" + strconv.Itoa(step.StepNumber) + " " + step.IpMode.String() +
		" " + ap + " " + step.Action.String() + " " + step.Coord.String()
}

type GerberStringProcessingResult int

const (
	SCResultNextString    GerberStringProcessingResult = iota + 1 // need next string to complete step
	SCResultSkipString                                            // string was skipped
	SCResultStepCompleted                                         // step creation completed
	SCResultStop
)

// Program is a parsed Gerber file
type Program struct {
	Format    *xy.FormatSpec
	Apertures map[int]*apertures.Aperture
	Steps     []*State
}

func (p *Program) header(s string) (bool, error) {
	switch {
	case strings.HasPrefix(s, xy.GerberFormatSpecPrefix):
		fs := new(xy.FormatSpec)
		if err := fs.Init(s); err != nil {
			return true, err
		}
		p.Format = fs
		return true, nil
	case s == GerberUnitsInch || s == GerberPolarityPositive:
		return true, nil
	case strings.HasPrefix(s, GerberApertureDef):
		a := new(apertures.Aperture)
		if err := a.Init(s); err != nil {
			return true, err
		}
		p.Apertures[a.Code] = a
		return true, nil
	}
	return false, nil
}

// CreateStep interprets one statement. prevStep holds the modal state.
func (p *Program) CreateStep(s string, step, prevStep *State, line int) (GerberStringProcessingResult, error) {
	if s == GerberEndOfProgram {
		return SCResultStop, nil
	}
	if strings.HasPrefix(s, GerberApertureSelect) {
		code, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(s, GerberApertureSelect), "*"))
		if err != nil {
			return SCResultSkipString, fmt.Errorf("%w: line %d: %q", ErrSyntax, line, s)
		}
		ap, ok := p.Apertures[code]
		if !ok {
			return SCResultSkipString, fmt.Errorf("%w: line %d: D%d", ErrNoAperture, line, code)
		}
		step.CurrentAp = ap
		return SCResultNextString, nil
	}
	for _, ipm := range []IPmode{IPModeLinear, IPModeCwC, IPModeCCwC} {
		if strings.HasPrefix(s, ipm.Code()) {
			step.IpMode = ipm
			s = strings.TrimPrefix(s, ipm.Code())
			if s == "*" {
				return SCResultNextString, nil
			}
			break
		}
	}
	switch {
	case strings.HasSuffix(s, "D01*"):
		step.Action = OpcodeD01_DRAW
	case strings.HasSuffix(s, "D02*"):
		step.Action = OpcodeD02_MOVE
	case strings.HasSuffix(s, "D03*"):
		step.Action = OpcodeD03_FLASH
	default:
		glog.Warningln("skipped: " + s)
		return SCResultSkipString, nil
	}
	if p.Format == nil {
		return SCResultSkipString, ErrNoFormat
	}
	coord := new(xy.XY)
	if err := coord.Init(s, p.Format, prevStep.Coord); err != nil {
		return SCResultSkipString, fmt.Errorf("%w: line %d: %q: %v", ErrSyntax, line, s, err)
	}
	step.Coord = coord
	if step.Action != OpcodeD02_MOVE && step.CurrentAp == nil {
		return SCResultSkipString, fmt.Errorf("%w: line %d: no aperture selected", ErrNoAperture, line)
	}
	return SCResultStepCompleted, nil
}

// CreateStepSequence parses a complete file
func CreateStepSequence(src []string) (*Program, error) {
	p := &Program{Apertures: make(map[int]*apertures.Aperture)}
	prev := NewState()
	var step *State
	stepCompleted := true
	for i, s := range src {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if ok, err := p.header(s); ok {
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			continue
		}
		if stepCompleted {
			step = NewState()
			step.IpMode = prev.IpMode
			step.CurrentAp = prev.CurrentAp
			step.Coord = nil
		}
		res, err := p.CreateStep(s, step, prev, i+1)
		if err != nil {
			return nil, err
		}
		switch res {
		case SCResultNextString, SCResultSkipString:
			stepCompleted = false
		case SCResultStepCompleted:
			step.PrevCoord = prev.Coord
			step.StepNumber = len(p.Steps) + 1
			p.Steps = append(p.Steps, step)
			prev = step
			stepCompleted = true
		case SCResultStop:
			return p, nil
		}
	}
	return p, ErrNoEndOfProgram
}
