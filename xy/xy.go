package xy

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"dxf2gerber/gerberbasetypes"
)

// GerberFormatSpecPrefix starts every absolute, leading zeros omitted format statement
const GerberFormatSpecPrefix string = "%FSLA"

// MinDigits is the minimal width of an encoded coordinate
const MinDigits = 6

// maxEncoded bounds the encoded integers, far below the int64 limit
const maxEncoded = 1e15

var (
	ErrFormatSpec = errors.New("bad format specification")
	ErrCoordinate = errors.New("bad coordinate")
)

// Function checks against non-number characters in the string
func isNumString(ins string) bool {
	if len(ins) == 0 {
		return false
	}
	for _, c := range []byte(ins) {
		if (c < '0') || (c > '9') {
			return false
		}
	}
	return true
}

/*
############################ format specification #####################
*/

// Format specification object
type FormatSpec struct {
	Head string
	XI   int // digits in the integer part
	XD   int // digits in the fractional part
	YI   int
	YD   int
}

// DefaultFormat returns the 2.5 absolute, leading zeros omitted format
func DefaultFormat() *FormatSpec {
	fs := new(FormatSpec)
	if err := fs.Init(gerberbasetypes.GerberFormatSpec); err != nil {
		panic(err)
	}
	return fs
}

// Init parses a %FSLAXnnYnn*% statement
func (fs *FormatSpec) Init(ins string) error {
	*fs = FormatSpec{}
	head := strings.ToUpper(ins)
	if !strings.HasPrefix(head, GerberFormatSpecPrefix) || !strings.HasSuffix(head, "*%") {
		return ErrFormatSpec
	}
	xPos := strings.IndexByte(head, 'X')
	yPos := strings.LastIndexByte(head, 'Y')
	suffPos := strings.LastIndexByte(head, '*')
	if xPos == -1 || yPos == -1 || xPos+3 != yPos || yPos+3 != suffPos {
		return ErrFormatSpec
	}
	digits := []int{0, 0, 0, 0}
	for i, p := range []int{xPos + 1, xPos + 2, yPos + 1, yPos + 2} {
		d, err := strconv.Atoi(head[p : p+1])
		if err != nil {
			return ErrFormatSpec
		}
		digits[i] = d
	}
	if digits[0] != digits[2] || digits[1] != digits[3] {
		return ErrFormatSpec
	}
	// 4.1.1 gerber format conformance test
	if digits[0] > 6 || digits[1] > 7 || digits[1] < 3 {
		return ErrFormatSpec
	}
	fs.Head = head
	fs.XI, fs.XD, fs.YI, fs.YD = digits[0], digits[1], digits[2], digits[3]
	return nil
}

// Scale returns the multiplier between native units and coordinate integers
func (fs *FormatSpec) Scale() float64 {
	return math.Pow10(fs.XD)
}

// MaxValue is the largest magnitude Encode represents
func (fs *FormatSpec) MaxValue() float64 {
	return maxEncoded / fs.Scale()
}

// InRange reports whether v is a finite value Encode represents
func (fs *FormatSpec) InRange(v float64) bool {
	return math.Abs(v) <= fs.MaxValue()
}

// Encode converts a decimal value into an unsigned fixed point digit string.
// The sign is dropped; values out of range saturate at MaxValue.
func (fs *FormatSpec) Encode(v float64) string {
	a := math.Round(math.Abs(v) * fs.Scale())
	if !(a <= maxEncoded) {
		a = maxEncoded
	}
	n := int64(a)
	s := strconv.FormatInt(n, 10)
	if len(s) < MinDigits {
		s = strings.Repeat("0", MinDigits-len(s)) + s
	}
	return s
}

// Decode converts an unsigned or signed fixed point digit string back into a decimal value
func (fs *FormatSpec) Decode(ins string) (float64, error) {
	neg := false
	ws := ins
	if strings.HasPrefix(ws, "-") {
		neg = true
		ws = ws[1:]
	} else if strings.HasPrefix(ws, "+") {
		ws = ws[1:]
	}
	if !isNumString(ws) {
		return 0, ErrCoordinate
	}
	n, err := strconv.ParseInt(ws, 10, 64)
	if err != nil {
		return 0, ErrCoordinate
	}
	v := float64(n) / fs.Scale()
	if neg {
		v = -v
	}
	return v, nil
}

/*
######################### coordinates #########################################
*/

// XY is a decoded coordinate data block, e.g. G03X001000Y002000I001000J000000D01*
type XY struct {
	X, Y, I, J             float64
	HasX, HasY, HasI, HasJ bool
	Op                     string // D01, D02 or D03
}

// Init parses the coordinate part of a data block. Leading G code must be stripped.
// Missing X or Y are taken from prev (modal coordinates), I and J are not modal.
func (xy *XY) Init(block string, fs *FormatSpec, prev *XY) error {
	*xy = XY{}
	if prev != nil {
		xy.X, xy.Y = prev.X, prev.Y
	}
	s := strings.ToUpper(strings.TrimSuffix(block, "*"))
	dPos := strings.IndexByte(s, 'D')
	if dPos == -1 || len(s)-dPos != 3 {
		// eror in string, no trailing D symbol
		return ErrCoordinate
	}
	xy.Op = s[dPos:]
	masks := "XYIJ"
	body := s[:dPos]
	for len(body) > 0 {
		letter := body[0]
		if strings.IndexByte(masks, letter) == -1 {
			return ErrCoordinate
		}
		end := strings.IndexAny(body[1:], masks)
		if end == -1 {
			end = len(body) - 1
		}
		v, err := fs.Decode(body[1 : end+1])
		if err != nil {
			return err
		}
		switch letter {
		case 'X':
			xy.X, xy.HasX = v, true
		case 'Y':
			xy.Y, xy.HasY = v, true
		case 'I':
			xy.I, xy.HasI = v, true
		case 'J':
			xy.J, xy.HasJ = v, true
		}
		body = body[end+1:]
	}
	return nil
}

func (xy *XY) String() string {
	return "x,y=(" +
		strconv.FormatFloat(xy.X, 'f', 5, 64) +
		"," +
		strconv.FormatFloat(xy.Y, 'f', 5, 64) +
		") " +
		"i,j=(" +
		strconv.FormatFloat(xy.I, 'f', 5, 64) +
		"," +
		strconv.FormatFloat(xy.J, 'f', 5, 64) +
		") " + xy.Op
}
