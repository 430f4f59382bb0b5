/*
 Output Gerber files: per file statement buffers, tool selection state
 and the final write to disk
*/
package plotter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang/glog"

	. "dxf2gerber/gerberbasetypes"
	"dxf2gerber/layers"
	"dxf2gerber/strings_storage"
)

var (
	ErrWrite    = errors.New("gerber file write failed")
	ErrNoFile   = errors.New("layer is not attached to an output file")
	ErrFinished = errors.New("gerber file is already finished")
)

// Header returns the statements every output file starts with
func Header(apertureDefs []string) []string {
	retVal := []string{GerberFormatSpec, GerberUnitsInch, GerberPolarityPositive}
	return append(retVal, apertureDefs...)
}

/*
	One output file and its drawing state
*/
type GerberFile struct {
	Path       string
	FileName   string
	Index      int
	Layers     []*layers.Layer
	CanWrite   bool
	body       *strings_storage.Storage
	entities   int
	activeCode int // 0 - no aperture selected yet
	finished   bool
	written    bool
}

func NewGerberFile(path, fileName string, index int, canWrite bool) *GerberFile {
	return &GerberFile{
		Path:     path,
		FileName: fileName,
		Index:    index,
		CanWrite: canWrite,
		body:     strings_storage.NewStorage(),
	}
}

func (gf *GerberFile) AddLayer(l *layers.Layer) {
	gf.Layers = append(gf.Layers, l)
	l.FileIndex = gf.Index
}

// SelectAperture emits a tool selection unless the code is already active
func (gf *GerberFile) SelectAperture(code int) {
	if code == gf.activeCode {
		return
	}
	gf.body.Accept(GerberApertureSelect + strconv.Itoa(code) + "*")
	gf.activeCode = code
}

func (gf *GerberFile) ActiveAperture() int {
	return gf.activeCode
}

// Accept appends a body statement
func (gf *GerberFile) Accept(s string) {
	if gf.finished {
		glog.Errorf("%s: statement %q after the end of program", gf.Path, s)
		return
	}
	gf.body.Accept(s)
}

func (gf *GerberFile) AddEntity() {
	gf.entities++
}

func (gf *GerberFile) EntityCount() int {
	return gf.entities
}

func (gf *GerberFile) Written() bool {
	return gf.written
}

// Finish appends the end of program statement. Repeated calls do nothing.
func (gf *GerberFile) Finish() {
	if gf.finished {
		return
	}
	gf.body.Accept(GerberEndOfProgram)
	gf.finished = true
}

// Lines returns the complete file content
func (gf *GerberFile) Lines(header []string) []string {
	retVal := append([]string(nil), header...)
	return append(retVal, gf.body.ToArray()...)
}

// Body returns the statements after the header
func (gf *GerberFile) Body() []string {
	return gf.body.ToArray()
}

/*
	Finalizes the statement stream and writes the file to disk.
	The file is written through a temporary file, so a failure
	leaves any previous file untouched.
*/
func (gf *GerberFile) Stop(header []string) error {
	if gf.written {
		return ErrFinished
	}
	gf.Finish()
	if !gf.CanWrite {
		glog.V(1).Infof("%s: not written, overwrite declined", gf.Path)
		return nil
	}
	out := strings_storage.NewStorage()
	for _, s := range gf.Lines(header) {
		out.Accept(s)
	}
	dir := filepath.Dir(gf.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(gf.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, gf.Path, err)
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrWrite, gf.Path, err)
	}
	if _, err = out.WriteTo(tmp); err != nil {
		return cleanup(err)
	}
	if err = tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrWrite, gf.Path, err)
	}
	if err = os.Chmod(tmpName, 0644); err != nil {
		glog.Warningln(err)
	}
	if err = os.Rename(tmpName, gf.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrWrite, gf.Path, err)
	}
	gf.written = true
	glog.V(1).Infof("%s: %d statements, %d entities written", gf.Path, out.Len(), gf.entities)
	return nil
}
