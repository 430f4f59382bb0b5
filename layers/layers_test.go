package layers

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dxf2gerber/dxflexer"
)

func TestDefaultAttributes(t *testing.T) {
	cases := []struct {
		name  string
		th    float64
		fname string
	}{
		{"TOP", 0.005, "TOP"},
		{"TOP_5MIL", 0.005, "TOP"},
		{"TOP_10MIL", 0.01, "TOP"},
		{"SILK_TOP_12.5MIL", 0.0125, "SILK"},
		{"TOP_AMIL", 0.005, "TOP_AMIL"},
		{"TOP_MIL", 0.005, "TOP_MIL"},
		{"MIL_TOP", 0.005, "MIL_TOP"},
		{"10MIL", 0.005, "10MIL"},
		{"TOP_-5MIL", 0.005, "TOP_-5MIL"},
		{"TOP_NaNMIL", 0.005, "TOP_NaNMIL"},
		{"TOP_InfMIL", 0.005, "TOP_InfMIL"},
		{"TOP_0MIL", 0.005, "TOP_0MIL"},
		{"TOP_5000MIL", 0.005, "TOP_5000MIL"},
		{"TOP_1000MIL", 1.0, "TOP"},
	}
	for _, c := range cases {
		th, fn := DefaultAttributes(c.name, DefaultThickness, MinThickness, MaxThickness)
		assert.InDelta(t, c.th, th, 1e-12, c.name)
		assert.Equal(t, c.fname, fn, c.name)
	}
}

func TestResolvePath(t *testing.T) {
	dxf := filepath.Join("work", "board.dxf")
	assert.Equal(t, filepath.Join("work", "TOP.gbr"), ResolvePath(dxf, "", "TOP", ""))
	assert.Equal(t, filepath.Join("out", "TOP.gtl"), ResolvePath(dxf, "out", "TOP", ".gtl"))
}

func TestCatalog_AddLookup(t *testing.T) {
	c := NewCatalog()
	a := c.Add("TOP")
	b := c.Add("BOTTOM_8MIL")
	assert.Same(t, a, c.Add("TOP"))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []*Layer{a, b}, c.Layers())
	assert.True(t, a.Active)
	assert.Equal(t, NoFile, a.FileIndex)
	assert.InDelta(t, 0.008, b.Thickness, 1e-12)
	assert.Equal(t, "BOTTOM", b.FileName)

	_, ok := c.Lookup("MISSING")
	assert.False(t, ok)
}

func TestCatalog_Drop(t *testing.T) {
	c := NewCatalog()
	a := c.Add("TOP")
	c.Add("BOTTOM")
	c.Drop("BOTTOM")
	c.Drop("MISSING")
	assert.Equal(t, []*Layer{a}, c.Layers())
	_, ok := c.Lookup("BOTTOM")
	assert.False(t, ok)
}

func TestCatalog_Prune(t *testing.T) {
	c := NewCatalog()
	c.Add("TOP")
	c.Add("OFF").Active = false
	c.Add("THIN").Thickness = 0
	c.Add("NOFILE").FileName = ""

	dropped := c.Prune()
	require.Len(t, dropped, 3)
	assert.ErrorIs(t, dropped[0], ErrInactive)
	assert.ErrorIs(t, dropped[1], ErrZeroThickness)
	assert.ErrorIs(t, dropped[2], ErrNoFileName)
	assert.Equal(t, 1, c.Len())
	_, ok := c.Lookup("OFF")
	assert.False(t, ok)

	c.Add("NEG").Thickness = -0.005
	c.Add("NAN").Thickness = math.NaN()
	dropped = c.Prune()
	require.Len(t, dropped, 2)
	assert.ErrorIs(t, dropped[0], ErrZeroThickness)
	assert.ErrorIs(t, dropped[1], ErrZeroThickness)
	assert.Equal(t, 1, c.Len())
	_, ok = c.Lookup("NEG")
	assert.False(t, ok)
}

func TestCatalog_ApplyOverrides(t *testing.T) {
	c := NewCatalog()
	top := c.Add("TOP")
	c.Add("BOTTOM")

	th, tooThick, file, flash, off := 0.02, 2.0, "COPPER", true, false
	err := c.ApplyOverrides([]Override{
		{Name: "TOP", Thickness: &th, File: &file, Flash: &flash},
		{Name: "BOTTOM", Thickness: &tooThick, Active: &off},
		{Name: "NOPE", Flash: &flash},
	})
	assert.ErrorIs(t, err, ErrThickness)
	assert.ErrorIs(t, err, ErrUnknownLayer)

	assert.Equal(t, 0.02, top.Thickness)
	assert.Equal(t, "COPPER", top.FileName)
	assert.True(t, top.Flash)
	bottom, _ := c.Lookup("BOTTOM")
	assert.Equal(t, DefaultThickness, bottom.Thickness, "out of range thickness must be ignored")
	assert.False(t, bottom.Active)

	c.SetThicknessLimits(0, 0, 5)
	assert.NoError(t, c.ApplyOverrides([]Override{{Name: "BOTTOM", Thickness: &tooThick}}))
	assert.Equal(t, 2.0, bottom.Thickness)
}

func TestCatalog_Discover(t *testing.T) {
	src := strings.Join([]string{
		"0", "SECTION", "2", "TABLES",
		"8", "IGNORED",
		"0", "ENDSEC",
		"0", "SECTION", "2", "ENTITIES",
		"0", "LINE", "8", "TOP", "10", "0", "20", "0", "11", "1", "21", "1",
		"0", "CIRCLE", "8", "PADS_20MIL", "10", "1", "20", "1", "40", "0.5",
		"0", "ARC", "8", "TOP", "10", "1", "20", "1", "40", "0.5", "50", "0", "51", "90",
		"0", "ENDSEC",
		"0", "SECTION", "2", "OBJECTS",
		"8", "AFTER",
		"0", "ENDSEC",
		"0", "EOF",
	}, "\n")
	c := NewCatalog()
	require.NoError(t, c.Discover(dxflexer.NewScanner(strings.NewReader(src))))
	require.Equal(t, 2, c.Len())
	names := []string{c.Layers()[0].Name, c.Layers()[1].Name}
	assert.Equal(t, []string{"TOP", "PADS_20MIL"}, names)

	err := NewCatalog().Discover(dxflexer.NewScanner(strings.NewReader("0\nSECTION\n2\nHEADER\n0\nEOF\n")))
	assert.ErrorIs(t, err, ErrNoEntities)
}
