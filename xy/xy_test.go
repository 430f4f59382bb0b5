package xy

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fstr = []string{
	"%FSLAX24Y24*%",
	"%FSLAX25Y25*%",
	"%FSLAX26Y26*%",
	"%FSLAX27Y27*%",
	"%FSLAX34Y34*%",
	"%FSLAX45Y45*%",
	"%FSLAX66Y66*%",
}

var badFstr = []string{
	"",
	"%FSLAX25Y26*%",
	"%FSLAX82Y82*%",
	"%FSLAX22Y22*%",
	"%FSTAX25Y25*%",
	"%FSLAX25Y25%",
	"%FSLAXAAYAA*%",
}

func TestFormatSpec_Init(t *testing.T) {
	for _, s := range fstr {
		fs := new(FormatSpec)
		assert.NoError(t, fs.Init(s), s)
		assert.Equal(t, fs.XI, fs.YI)
		assert.Equal(t, fs.XD, fs.YD)
	}
	for _, s := range badFstr {
		fs := new(FormatSpec)
		assert.ErrorIs(t, fs.Init(s), ErrFormatSpec, s)
	}
}

func TestDefaultFormat(t *testing.T) {
	fs := DefaultFormat()
	assert.Equal(t, 2, fs.XI)
	assert.Equal(t, 5, fs.XD)
	assert.Equal(t, 100000.0, fs.Scale())
}

func TestFormatSpec_Encode(t *testing.T) {
	fs := DefaultFormat()
	cases := []struct {
		in  float64
		out string
	}{
		{0, "000000"},
		{1, "100000"},
		{0.005, "000500"},
		{0.123456, "012346"},
		{12.5, "1250000"},
		{-1.5, "150000"},
		{0.000004, "000000"},
	}
	for _, c := range cases {
		assert.Equal(t, c.out, fs.Encode(c.in), "encode %v", c.in)
	}
}

func TestFormatSpec_EncodeOutOfRange(t *testing.T) {
	fs := DefaultFormat()
	assert.True(t, fs.InRange(-99.5))
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e300, -1e300} {
		assert.False(t, fs.InRange(v), "%v", v)
		s := fs.Encode(v)
		assert.Equal(t, "1000000000000000", s, "%v", v)
	}
}

func TestFormatSpec_EncodeDecode(t *testing.T) {
	fs := DefaultFormat()
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		v := float64(r.Intn(9999999)) / 100000.0
		d, err := fs.Decode(fs.Encode(v))
		require.NoError(t, err)
		assert.InDelta(t, v, d, 1e-9)
	}
	_, err := fs.Decode("12a4")
	assert.ErrorIs(t, err, ErrCoordinate)
	_, err = fs.Decode("")
	assert.ErrorIs(t, err, ErrCoordinate)
	v, err := fs.Decode("-050000")
	require.NoError(t, err)
	assert.Equal(t, -0.5, v)
}

func TestXY_Init(t *testing.T) {
	fs := DefaultFormat()

	p := new(XY)
	require.NoError(t, p.Init("X100000Y200000D02*", fs, nil))
	assert.Equal(t, 1.0, p.X)
	assert.Equal(t, 2.0, p.Y)
	assert.Equal(t, "D02", p.Op)
	assert.False(t, p.HasI)

	q := new(XY)
	require.NoError(t, q.Init("Y050000I010000J000000D01*", fs, p))
	assert.Equal(t, 1.0, q.X, "X must be modal")
	assert.Equal(t, 0.5, q.Y)
	assert.Equal(t, 0.1, q.I)
	assert.True(t, q.HasJ)
	assert.False(t, q.HasX)

	f := new(XY)
	require.NoError(t, f.Init("D03*", fs, q))
	assert.Equal(t, "D03", f.Op)
	assert.Equal(t, q.X, f.X)
	assert.Equal(t, q.Y, f.Y)

	bad := new(XY)
	assert.Error(t, bad.Init("X100000Y200000", fs, nil))
	assert.Error(t, bad.Init("X10K000D01*", fs, nil))
	assert.Error(t, bad.Init("XD01*", fs, nil))
}
