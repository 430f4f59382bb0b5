/*
DXF record scanner.

A DXF file is a sequence of records, each made of two lines: a group code line
(an integer, usually right aligned like "  8") and a value line. The scanner
reads the stream forward only and keeps at most one record for rewinding.

Group codes used by the converter:

	0   entity type / section marker (SECTION, ENDSEC, LINE, CIRCLE, ARC, ...)
	2   section name (ENTITIES)
	8   layer name
	10  X of a point (line start, circle or arc center)
	20  Y of a point
	11  X of the line end point
	21  Y of the line end point
	40  radius
	50  start angle, degrees
	51  end angle, degrees
	100 subclass marker
	230 Z component of the extrusion direction
*/
package dxflexer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/golang/glog"
)

const (
	CodeEntityType  = 0
	CodeName        = 2
	CodeLayer       = 8
	CodeX           = 10
	CodeY           = 20
	CodeX2          = 11
	CodeY2          = 21
	CodeRadius      = 40
	CodeStartAngle  = 50
	CodeEndAngle    = 51
	CodeSubclass    = 100
	CodeExtrusionZ  = 230
	MarkerSection   = "SECTION"
	MarkerEndSec    = "ENDSEC"
	MarkerEOF       = "EOF"
	SectionEntities = "ENTITIES"
)

const maxLineLen = 1024 * 1024

var (
	ErrValueNotFound = errors.New("group code value not found")
	ErrBadNumber     = errors.New("group code value is not a number")
)

// Record is a group code and its value
type Record struct {
	Code  int
	Value string
	Line  int // line number of the group code
}

func (r Record) String() string {
	return "{code:" + strconv.Itoa(r.Code) + ",val:\"" + r.Value + "\",line:" + strconv.Itoa(r.Line) + "}"
}

// IsMarker reports whether the record is a 0 record with the given value
func (r Record) IsMarker(value string) bool {
	return r.Code == CodeEntityType && r.Value == value
}

type Scanner struct {
	lines   *bufio.Scanner
	lineNum int
	last    Record
	valid   bool
	unread  bool
	err     error
	Skipped int // junk lines skipped while looking for a group code
}

func NewScanner(r io.Reader) *Scanner {
	ls := bufio.NewScanner(r)
	ls.Buffer(make([]byte, 0, 64*1024), maxLineLen)
	return &Scanner{lines: ls}
}

func (s *Scanner) readLine() (string, bool) {
	if !s.lines.Scan() {
		if err := s.lines.Err(); err != nil && s.err == nil {
			s.err = err
		}
		return "", false
	}
	s.lineNum++
	line := s.lines.Text()
	if s.lineNum == 1 {
		line = strings.TrimPrefix(line, "\ufeff")
	}
	return line, true
}

// Next advances to the next record. It returns false at the end of the stream.
// A truncated record (code without value) ends the stream.
func (s *Scanner) Next() bool {
	if s.unread {
		s.unread = false
		return s.valid
	}
	s.valid = false
	for {
		codeLine, ok := s.readLine()
		if !ok {
			return false
		}
		code, err := strconv.Atoi(strings.TrimSpace(codeLine))
		if err != nil {
			// resynchronize by one line
			s.Skipped++
			if glog.V(1) {
				glog.Infof("dxflexer: line %d: %q is not a group code, skipped", s.lineNum, codeLine)
			}
			continue
		}
		value, ok := s.readLine()
		if !ok {
			if s.err == nil {
				s.err = fmt.Errorf("dxflexer: line %d: group code %d without value: %w", s.lineNum, code, io.ErrUnexpectedEOF)
			}
			return false
		}
		s.last = Record{Code: code, Value: strings.TrimSpace(value), Line: s.lineNum - 1}
		s.valid = true
		return true
	}
}

// Record returns the current record
func (s *Scanner) Record() Record {
	return s.last
}

// Unread rewinds the scanner by exactly one record
func (s *Scanner) Unread() {
	if s.valid {
		s.unread = true
	}
}

// Err returns the first read error, if any
func (s *Scanner) Err() error {
	return s.err
}

// LineNum returns the number of lines consumed so far
func (s *Scanner) LineNum() int {
	return s.lineNum
}

// FindValue returns the value of the next record with the given group code.
// The search is bounded by the current entity: a 0 record stops it and is
// left for the caller to read.
func (s *Scanner) FindValue(code int) (string, bool) {
	for s.Next() {
		if s.last.Code == code {
			return s.last.Value, true
		}
		if s.last.Code == CodeEntityType {
			s.Unread()
			return "", false
		}
	}
	return "", false
}

// FindFloat is FindValue followed by a float conversion
func (s *Scanner) FindFloat(code int) (float64, error) {
	v, ok := s.FindValue(code)
	if !ok {
		return 0, fmt.Errorf("%w: code %d near line %d", ErrValueNotFound, code, s.lineNum)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: code %d value %q at line %d", ErrBadNumber, code, v, s.lineNum)
	}
	return f, nil
}

// FindExtrusionDirection returns the sign of the extrusion Z component of an arc.
// Many files omit it, so the search gives up at the start angle, the subclass
// marker or the entity boundary and returns +1.
func (s *Scanner) FindExtrusionDirection() (float64, error) {
	if !s.Next() {
		return 1, nil
	}
	if s.last.Code == CodeStartAngle {
		s.Unread()
		return 1, nil
	}
	s.Unread()
	for s.Next() {
		switch s.last.Code {
		case CodeExtrusionZ:
			z, err := strconv.ParseFloat(s.last.Value, 64)
			if err != nil || math.IsNaN(z) {
				return 1, fmt.Errorf("%w: extrusion direction %q at line %d", ErrBadNumber, s.last.Value, s.last.Line+1)
			}
			if z < 0 {
				return -1, nil
			}
			return 1, nil
		case CodeStartAngle, CodeSubclass, CodeEntityType:
			s.Unread()
			return 1, nil
		}
	}
	return 1, nil
}

// SeekSection advances to the name record of the given section.
// It returns false if the section is not found.
func (s *Scanner) SeekSection(name string) bool {
	sectionOpened := false
	for s.Next() {
		r := s.last
		if sectionOpened && r.Code == CodeName && r.Value == name {
			return true
		}
		sectionOpened = r.IsMarker(MarkerSection)
	}
	return false
}
