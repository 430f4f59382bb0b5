// Copyright 2018 Vasily Turchenko <turchenkov@gmail.com>. All rights reserved.
// Use of this source code is free

// Package converter drives one DXF to Gerber conversion: layer discovery,
// output file creation, entity emission and the final flush.
package converter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"

	"dxf2gerber/diagnostics"
	"dxf2gerber/dxflexer"
	"dxf2gerber/entities"
	"dxf2gerber/layers"
	"dxf2gerber/plotter"
	"dxf2gerber/render"
)

type State int

const (
	ScanningLayers State = iota
	LayersReady
	FilesCreated
	EmittingEntities
	Finalized
)

func (s State) String() string {
	switch s {
	case ScanningLayers:
		return "ScanningLayers"
	case LayersReady:
		return "LayersReady"
	case FilesCreated:
		return "FilesCreated"
	case EmittingEntities:
		return "EmittingEntities"
	case Finalized:
		return "Finalized"
	default:
	}
	return "State(" + fmt.Sprint(int(s)) + ")"
}

var ErrState = errors.New("operation not allowed in the current state")

// Progress receives human readable events of a conversion
type Progress interface {
	Event(s string)
	Done()
}

type nopProgress struct{}

func (nopProgress) Event(string) {}
func (nopProgress) Done()        {}

// Opener returns a fresh reader of the DXF source; the source is read once per pass
type Opener func() (io.ReadCloser, error)

func FileOpener(path string) Opener {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}

type Options struct {
	OutputDir string
	Extension string

	DefaultThickness float64
	MinThickness     float64
	MaxThickness     float64

	// prometheus textfile, empty - no export
	MetricsFile string

	PNG       bool
	PNGDPI    float64
	PNGMargin float64
}

type Converter struct {
	Source   string
	open     Opener
	opts     Options
	ctx      *entities.Context
	progress Progress
	state    State
	pngs     []string
}

func New(source string, open Opener, opts Options, confirm plotter.Confirmer, progress Progress) *Converter {
	if open == nil {
		open = FileOpener(source)
	}
	if progress == nil {
		progress = nopProgress{}
	}
	if opts.Extension == "" {
		opts.Extension = layers.DefaultExtension
	}
	ctx := entities.NewContext(source, confirm)
	ctx.Layers.SetThicknessLimits(opts.DefaultThickness, opts.MinThickness, opts.MaxThickness)
	return &Converter{
		Source:   source,
		open:     open,
		opts:     opts,
		ctx:      ctx,
		progress: progress,
	}
}

func (c *Converter) State() State {
	return c.state
}

func (c *Converter) Context() *entities.Context {
	return c.ctx
}

func (c *Converter) Report() *diagnostics.Report {
	return c.ctx.Report
}

// PNGs lists the preview images created by Finalize
func (c *Converter) PNGs() []string {
	return c.pngs
}

func (c *Converter) expect(op string, s State) error {
	if c.state != s {
		return fmt.Errorf("%w: %s in %v", ErrState, op, c.state)
	}
	return nil
}

// pass runs fn over a new scanner of the source
func (c *Converter) pass(fn func(s *dxflexer.Scanner) error) error {
	rd, err := c.open()
	if err != nil {
		return err
	}
	defer rd.Close()
	return fn(dxflexer.NewScanner(rd))
}

// ScanLayers collects the layers named in the ENTITIES section
func (c *Converter) ScanLayers() error {
	if err := c.expect("ScanLayers", ScanningLayers); err != nil {
		return err
	}
	if err := c.pass(c.ctx.Layers.Discover); err != nil {
		return fmt.Errorf("%s: %w", c.Source, err)
	}
	c.state = LayersReady
	c.progress.Event(fmt.Sprintf("%d layer(s) found", c.ctx.Layers.Len()))
	return nil
}

// EditLayers lets the caller change layer attributes before files are created
func (c *Converter) EditLayers(edit func(*layers.Catalog)) error {
	if err := c.expect("EditLayers", LayersReady); err != nil {
		return err
	}
	if edit != nil {
		edit(c.ctx.Layers)
	}
	return nil
}

// CreateFiles drops invalid layers, fills the aperture table and attaches
// every layer to its output file. A layer whose file cannot be checked is
// dropped and its file reported as failed.
func (c *Converter) CreateFiles() error {
	if err := c.expect("CreateFiles", LayersReady); err != nil {
		return err
	}
	for _, err := range c.ctx.Layers.Prune() {
		c.progress.Event("layer skipped: " + err.Error())
	}
	for _, l := range c.ctx.Layers.Layers() {
		c.ctx.Apertures.Register(l.Thickness)
	}
	if err := c.pass(func(s *dxflexer.Scanner) error {
		return entities.RegisterFlashes(c.ctx, s)
	}); err != nil {
		return fmt.Errorf("%s: %w", c.Source, err)
	}
	failed := make(map[string]bool)
	for _, l := range c.ctx.Layers.Layers() {
		l.Path = layers.ResolvePath(c.Source, c.opts.OutputDir, l.FileName, c.opts.Extension)
		if _, err := c.ctx.Files.Attach(l); err != nil {
			// only this output file is lost
			glog.Errorln(err)
			c.progress.Event("layer skipped: " + err.Error())
			c.ctx.Layers.Drop(l.Name)
			if !failed[l.Path] {
				failed[l.Path] = true
				c.ctx.Report.FileDone(l.Path, diagnostics.FileFailed)
			}
		}
	}
	c.state = FilesCreated
	c.progress.Event(fmt.Sprintf("%d aperture(s), %d output file(s)",
		c.ctx.Apertures.Len(), c.ctx.Files.Len()))
	return nil
}

// EmitEntities converts the entities. A read failure stops the pass but the
// statements emitted so far are kept for Finalize.
func (c *Converter) EmitEntities() error {
	if err := c.expect("EmitEntities", FilesCreated); err != nil {
		return err
	}
	c.state = EmittingEntities
	if err := c.pass(func(s *dxflexer.Scanner) error {
		return entities.Dispatch(c.ctx, s)
	}); err != nil {
		return fmt.Errorf("%s: %w", c.Source, err)
	}
	return nil
}

// Finalize writes the output files and publishes the report
func (c *Converter) Finalize() error {
	if err := c.expect("Finalize", EmittingEntities); err != nil {
		return err
	}
	c.state = Finalized
	rep := c.ctx.Report
	// the aperture table is complete only now
	header := plotter.Header(c.ctx.Apertures.Header())
	errs := []error{c.ctx.Files.Flush(header, func(gf *plotter.GerberFile, err error) {
		switch {
		case err != nil:
			rep.FileDone(gf.Path, diagnostics.FileFailed)
		case !gf.CanWrite:
			rep.FileDone(gf.Path, diagnostics.FileDeclined)
		default:
			rep.FileDone(gf.Path, diagnostics.FileWritten)
		}
	})}

	if c.opts.PNG {
		for _, path := range rep.Written {
			png := strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
			if _, err := render.RenderFile(path, png, c.opts.PNGDPI, c.opts.PNGMargin); err != nil {
				glog.Warningln(err)
				errs = append(errs, err)
				continue
			}
			c.pngs = append(c.pngs, png)
		}
	}

	for _, s := range rep.Lines() {
		c.progress.Event(s)
	}
	for _, png := range c.pngs {
		c.progress.Event("Preview: " + png)
	}
	c.progress.Done()

	if c.opts.MetricsFile != "" {
		if err := rep.WriteMetrics(c.opts.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Run performs the whole conversion. edit may be nil.
func (c *Converter) Run(edit func(*layers.Catalog)) error {
	if err := c.ScanLayers(); err != nil {
		return err
	}
	if err := c.EditLayers(edit); err != nil {
		return err
	}
	if err := c.CreateFiles(); err != nil {
		return err
	}
	emitErr := c.EmitEntities()
	return errors.Join(emitErr, c.Finalize())
}
