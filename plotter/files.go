package plotter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/golang/glog"

	"dxf2gerber/layers"
)

// Decision is the answer to "file exists, overwrite?"
type Decision int

const (
	DecisionNo Decision = iota
	DecisionYes
	DecisionAll
)

func (d Decision) String() string {
	switch d {
	case DecisionYes:
		return "yes"
	case DecisionAll:
		return "all"
	default:
		return "no"
	}
}

type Confirmer interface {
	Confirm(path string) Decision
}

type ConfirmerFunc func(path string) Decision

func (f ConfirmerFunc) Confirm(path string) Decision {
	return f(path)
}

var (
	AlwaysOverwrite = ConfirmerFunc(func(string) Decision { return DecisionAll })
	NeverOverwrite  = ConfirmerFunc(func(string) Decision { return DecisionNo })
)

// Files groups layers into output files by resolved path
type Files struct {
	list         []*GerberFile
	byPath       map[string]*GerberFile
	confirm      Confirmer
	overwriteAll bool
}

func NewFiles(c Confirmer) *Files {
	if c == nil {
		c = NeverOverwrite
	}
	return &Files{
		list:    make([]*GerberFile, 0),
		byPath:  make(map[string]*GerberFile),
		confirm: c,
	}
}

// Attach adds the layer to the file owning its path. A new file is created
// for an unseen path; an existing file on disk needs the confirmer's consent.
func (f *Files) Attach(l *layers.Layer) (*GerberFile, error) {
	if l.Path == "" {
		return nil, fmt.Errorf("%w: %s has no resolved path", ErrNoFile, l.Name)
	}
	if gf, ok := f.byPath[l.Path]; ok {
		gf.AddLayer(l)
		return gf, nil
	}
	canWrite, err := f.mayWrite(l.Path)
	if err != nil {
		return nil, err
	}
	gf := NewGerberFile(l.Path, l.FileName, len(f.list), canWrite)
	gf.AddLayer(l)
	f.list = append(f.list, gf)
	f.byPath[l.Path] = gf
	return gf, nil
}

func (f *Files) mayWrite(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return true, nil
	case err != nil:
		return false, err
	case f.overwriteAll:
		return true, nil
	}
	d := f.confirm.Confirm(path)
	glog.V(1).Infof("%s exists, overwrite: %s", path, d)
	if d == DecisionAll {
		f.overwriteAll = true
	}
	return d != DecisionNo, nil
}

// ForLayer returns the output file of an attached layer
func (f *Files) ForLayer(l *layers.Layer) (*GerberFile, error) {
	if l.FileIndex < 0 || l.FileIndex >= len(f.list) {
		return nil, fmt.Errorf("%w: %s", ErrNoFile, l.Name)
	}
	return f.list[l.FileIndex], nil
}

func (f *Files) Files() []*GerberFile {
	return append([]*GerberFile(nil), f.list...)
}

func (f *Files) Len() int {
	return len(f.list)
}

// Flush writes every file. A failure affects only the file concerned.
// done, if not nil, is called for each file with the result of its write.
func (f *Files) Flush(header []string, done func(gf *GerberFile, err error)) error {
	var errs []error
	for _, gf := range f.list {
		err := gf.Stop(header)
		if err != nil {
			glog.Errorln(err)
			errs = append(errs, err)
		}
		if done != nil {
			done(gf, err)
		}
	}
	return errors.Join(errs...)
}
