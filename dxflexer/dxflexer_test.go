package dxflexer

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dxf(lines ...string) *Scanner {
	return NewScanner(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func TestScanner_Next(t *testing.T) {
	s := dxf("\ufeff  0", "SECTION", "  2", "ENTITIES", "  0", "EOF")
	require.True(t, s.Next())
	assert.True(t, s.Record().IsMarker(MarkerSection))
	assert.Equal(t, 1, s.Record().Line)
	require.True(t, s.Next())
	assert.Equal(t, Record{Code: CodeName, Value: SectionEntities, Line: 3}, s.Record())
	require.True(t, s.Next())
	assert.True(t, s.Record().IsMarker(MarkerEOF))
	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
}

func TestScanner_Unread(t *testing.T) {
	s := dxf("8", "TOP", "10", "1.5")
	require.True(t, s.Next())
	s.Unread()
	require.True(t, s.Next())
	assert.Equal(t, "TOP", s.Record().Value)
	require.True(t, s.Next())
	assert.Equal(t, CodeX, s.Record().Code)
	assert.False(t, s.Next())
	// nothing to rewind after the end
	s.Unread()
	assert.False(t, s.Next())
}

func TestScanner_Resync(t *testing.T) {
	s := dxf("garbage", "8", "TOP", "", "10", "2.0")
	require.True(t, s.Next())
	assert.Equal(t, Record{Code: CodeLayer, Value: "TOP", Line: 2}, s.Record())
	require.True(t, s.Next())
	assert.Equal(t, CodeX, s.Record().Code)
	assert.Equal(t, 2, s.Skipped)
}

func TestScanner_Truncated(t *testing.T) {
	s := NewScanner(strings.NewReader("8\nTOP\n10"))
	require.True(t, s.Next())
	assert.False(t, s.Next())
	assert.ErrorIs(t, s.Err(), io.ErrUnexpectedEOF)
}

func TestScanner_FindValue(t *testing.T) {
	s := dxf(
		"5", "2A",
		"8", "TOP",
		"10", "1.0",
		"0", "LINE",
	)
	v, ok := s.FindValue(CodeLayer)
	require.True(t, ok)
	assert.Equal(t, "TOP", v)

	// 11 is absent: search stops at the entity boundary
	_, ok = s.FindValue(CodeX2)
	assert.False(t, ok)
	require.True(t, s.Next())
	assert.True(t, s.Record().IsMarker("LINE"), "boundary record must be pushed back")

	_, ok = s.FindValue(CodeLayer)
	assert.False(t, ok)
}

func TestScanner_FindFloat(t *testing.T) {
	s := dxf("10", " 12.25", "20", "abc", "0", "ENDSEC")
	f, err := s.FindFloat(CodeX)
	require.NoError(t, err)
	assert.Equal(t, 12.25, f)

	_, err = s.FindFloat(CodeY)
	assert.ErrorIs(t, err, ErrBadNumber)

	_, err = s.FindFloat(CodeRadius)
	assert.ErrorIs(t, err, ErrValueNotFound)
	require.True(t, s.Next())
	assert.True(t, s.Record().IsMarker(MarkerEndSec))
}

func TestScanner_FindFloatNotFinite(t *testing.T) {
	for _, v := range []string{"NaN", "nan", "Inf", "-Inf", "+inf", "1e400"} {
		s := dxf("10", v)
		_, err := s.FindFloat(CodeX)
		assert.ErrorIs(t, err, ErrBadNumber, v)
	}
	s := dxf("230", "NaN")
	_, err := s.FindExtrusionDirection()
	assert.ErrorIs(t, err, ErrBadNumber)
}

func TestScanner_FindExtrusionDirection(t *testing.T) {
	t.Run("start angle follows", func(t *testing.T) {
		s := dxf("50", "30.0", "51", "120.0")
		d, err := s.FindExtrusionDirection()
		require.NoError(t, err)
		assert.Equal(t, 1.0, d)
		a, err := s.FindFloat(CodeStartAngle)
		require.NoError(t, err)
		assert.Equal(t, 30.0, a)
	})
	t.Run("negative extrusion", func(t *testing.T) {
		s := dxf("210", "0.0", "220", "0.0", "230", "-1.0", "100", "AcDbArc", "50", "30.0")
		d, err := s.FindExtrusionDirection()
		require.NoError(t, err)
		assert.Equal(t, -1.0, d)
		a, err := s.FindFloat(CodeStartAngle)
		require.NoError(t, err)
		assert.Equal(t, 30.0, a)
	})
	t.Run("stops at subclass marker", func(t *testing.T) {
		s := dxf("100", "AcDbArc", "50", "10.0")
		d, err := s.FindExtrusionDirection()
		require.NoError(t, err)
		assert.Equal(t, 1.0, d)
		require.True(t, s.Next())
		assert.Equal(t, CodeSubclass, s.Record().Code)
	})
	t.Run("stops at entity boundary", func(t *testing.T) {
		s := dxf("39", "0.0", "0", "LINE")
		d, err := s.FindExtrusionDirection()
		require.NoError(t, err)
		assert.Equal(t, 1.0, d)
		require.True(t, s.Next())
		assert.True(t, s.Record().IsMarker("LINE"))
	})
	t.Run("bad value", func(t *testing.T) {
		s := dxf("230", "x")
		_, err := s.FindExtrusionDirection()
		assert.ErrorIs(t, err, ErrBadNumber)
	})
}

func TestScanner_SeekSection(t *testing.T) {
	s := dxf(
		"0", "SECTION", "2", "HEADER",
		"9", "$ACADVER", "1", "AC1009",
		"2", "ENTITIES",
		"0", "ENDSEC",
		"0", "SECTION", "2", "ENTITIES",
		"0", "LINE",
	)
	require.True(t, s.SeekSection(SectionEntities))
	require.True(t, s.Next())
	assert.True(t, s.Record().IsMarker("LINE"))

	assert.False(t, dxf("0", "SECTION", "2", "TABLES", "0", "EOF").SeekSection(SectionEntities))
}
