package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"dxf2gerber/configurator"
	"dxf2gerber/plotter"
)

func TestPromptConfirmer(t *testing.T) {
	out := new(bytes.Buffer)
	pc := newConfirmer(configurator.OverwriteAsk, strings.NewReader("maybe\ny\nn\nA\n"), out)
	assert.Equal(t, plotter.DecisionYes, pc.Confirm("a.gbr"))
	assert.Equal(t, plotter.DecisionNo, pc.Confirm("b.gbr"))
	assert.Equal(t, plotter.DecisionAll, pc.Confirm("c.gbr"))
	// sticky, nothing left to read
	assert.Equal(t, plotter.DecisionAll, pc.Confirm("d.gbr"))
	assert.Equal(t, 4, strings.Count(out.String(), "Overwrite?"))
}

func TestPromptConfirmer_EOF(t *testing.T) {
	pc := newConfirmer(configurator.OverwriteAsk, strings.NewReader(""), new(bytes.Buffer))
	assert.Equal(t, plotter.DecisionNo, pc.Confirm("a.gbr"))
}

func TestPromptConfirmer_Policy(t *testing.T) {
	out := new(bytes.Buffer)
	assert.Equal(t, plotter.DecisionAll, newConfirmer(configurator.OverwriteAlways, nil, out).Confirm("a.gbr"))
	assert.Equal(t, plotter.DecisionNo, newConfirmer(configurator.OverwriteNever, nil, out).Confirm("a.gbr"))
	assert.Empty(t, out.String())
}

func TestReturnAppInfo(t *testing.T) {
	assert.Contains(t, returnAppInfo(3), "Version")
	assert.NotContains(t, returnAppInfo(1), "Version")
	assert.Equal(t, "\n", returnAppInfo(0))
}
