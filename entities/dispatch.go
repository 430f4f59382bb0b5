package entities

import (
	"fmt"

	"github.com/golang/glog"

	"dxf2gerber/dxflexer"
	. "dxf2gerber/gerberbasetypes"
)

// Parse reads the entity of the given kind following its 0 record
func Parse(kind EntityKind, s *dxflexer.Scanner) (Entity, error) {
	switch kind {
	case KindLine:
		return ParseLine(s)
	case KindCircle:
		return ParseCircle(s)
	case KindArc:
		return ParseArc(s)
	default:
	}
	return nil, fmt.Errorf("%w: unsupported kind %v", ErrMalformed, kind)
}

// Process parses one entity, validates it and appends its statements to the
// output file of its layer
func Process(ctx *Context, kind EntityKind, s *dxflexer.Scanner) {
	ctx.Report.EntityProcessed(kind)
	e, err := Parse(kind, s)
	if err != nil {
		glog.Warningln(err)
		ctx.Report.Abandon(kind)
		return
	}
	Emit(ctx, e)
}

// Emit validates a parsed entity and writes it out
func Emit(ctx *Context, e Entity) {
	kind := e.Kind()
	layer, ok := ctx.Layers.Lookup(e.LayerName())
	if !ok {
		ctx.Report.NoLayer(kind)
		return
	}
	if OutOfBounds(e) || !Representable(e, ctx.Format) {
		ctx.Report.OutOfBoundsFound(kind)
		return
	}
	if e.ZeroSize() {
		ctx.Report.ZeroSizeFound(kind)
		return
	}
	code, err := ctx.Apertures.CodeFor(e.Tool(layer))
	if err != nil {
		ctx.Report.InvariantViolation()
		return
	}
	gf, err := ctx.Files.ForLayer(layer)
	if err != nil {
		glog.Errorln(err)
		ctx.Report.InvariantViolation()
		return
	}
	gf.SelectAperture(code)
	for _, st := range e.Statements(layer, ctx.Format) {
		gf.Accept(st)
	}
	gf.AddEntity()
	ctx.Report.Emitted(kind)
}

// Dispatch walks the ENTITIES section and hands every entity to its processor.
// Unsupported types are tallied by name.
func Dispatch(ctx *Context, s *dxflexer.Scanner) error {
	if !s.SeekSection(dxflexer.SectionEntities) {
		if err := s.Err(); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s section not found", ErrMalformed, dxflexer.SectionEntities)
	}
	for s.Next() {
		r := s.Record()
		if r.Code != dxflexer.CodeEntityType {
			continue
		}
		if r.Value == dxflexer.MarkerEndSec {
			break
		}
		kind := KindOf(r.Value)
		if kind == KindUnknown {
			ctx.Report.UnsupportedFound(r.Value)
			continue
		}
		Process(ctx, kind, s)
	}
	return s.Err()
}
