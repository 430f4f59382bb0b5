// Base types for Gerber generation
package gerberbasetypes

// Header statements
const (
	GerberFormatSpec       = "%FSLAX25Y25*%"
	GerberUnitsInch        = "G70*"
	GerberPolarityPositive = "%IPPOS*%"
)

// Apertures
const GerberApertureDef = "%ADD"
const GerberApertureSelect = "G54D"

// Trailer
const GerberEndOfProgram = "M02*"

// FirstApertureCode is the first D code available for user apertures
const FirstApertureCode = 10

type GerberApType int

const (
	AptypeCircle GerberApType = iota + 1
)

func (ga GerberApType) String() string {
	switch ga {
	case AptypeCircle:
		return "circle aperture"
	default:
	}
	return "Unknown aperture type"
}

type ActType int

const (
	OpcodeD01_DRAW ActType = iota + 1
	OpcodeD02_MOVE
	OpcodeD03_FLASH
)

func (act ActType) String() string {
	switch act {
	case OpcodeD01_DRAW:
		return "Opcode D01 (DRAW)"
	case OpcodeD02_MOVE:
		return "Opcode D02 (MOVE)"
	case OpcodeD03_FLASH:
		return "Opcode D03 (FLASH)"
	default:

	}
	return "Unknown OpCode"
}

// Code returns the operation suffix as it appears in a data block
func (act ActType) Code() string {
	switch act {
	case OpcodeD01_DRAW:
		return "D01*"
	case OpcodeD02_MOVE:
		return "D02*"
	case OpcodeD03_FLASH:
		return "D03*"
	default:
	}
	return ""
}

type IPmode int

const (
	IPModeLinear IPmode = iota + 1
	IPModeCwC
	IPModeCCwC
)

func (ipm IPmode) String() string {
	switch ipm {
	case IPModeLinear:
		return "Linear interpolation"
	case IPModeCwC:
		return "Clockwise interpolation"
	case IPModeCCwC:
		return "Counter-clockwise interpolation"
	default:

	}
	return "Unknown interpolation"
}

// Code returns the G code selecting the interpolation mode
func (ipm IPmode) Code() string {
	switch ipm {
	case IPModeLinear:
		return "G01"
	case IPModeCwC:
		return "G02"
	case IPModeCCwC:
		return "G03"
	default:
	}
	return ""
}

// EntityKind enumerates the DXF entities the converter understands.
type EntityKind int

const (
	KindUnknown EntityKind = iota
	KindLine
	KindCircle
	KindArc
)

// EntityKinds lists the supported kinds in report order
var EntityKinds = []EntityKind{KindLine, KindCircle, KindArc}

func (k EntityKind) String() string {
	switch k {
	case KindLine:
		return "Line"
	case KindCircle:
		return "Circle"
	case KindArc:
		return "Arc"
	default:
	}
	return "Unknown"
}

// KindOf maps a DXF entity type name to its kind
func KindOf(typeName string) EntityKind {
	switch typeName {
	case "LINE":
		return KindLine
	case "CIRCLE":
		return KindCircle
	case "ARC":
		return KindArc
	default:
	}
	return KindUnknown
}
