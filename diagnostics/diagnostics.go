// Package diagnostics collects the outcome of a conversion: entity tallies,
// unsupported entity types and written files. Every tally is mirrored by a
// Prometheus counter on a registry owned by the report.
package diagnostics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	. "dxf2gerber/gerberbasetypes"
)

// Entity outcomes used as the "outcome" label
const (
	OutcomeEmitted     = "emitted"
	OutcomeOutOfBounds = "out_of_bounds"
	OutcomeZeroSize    = "zero_size"
	OutcomeAbandoned   = "abandoned"
	OutcomeNoLayer     = "no_layer"
)

// File outcomes used as the "status" label
const (
	FileWritten  = "written"
	FileDeclined = "declined"
	FileFailed   = "failed"
)

// Tally is a named counter kept in first-seen order
type Tally struct {
	Name  string
	Count int
}

type Report struct {
	Source              string
	Processed           int
	Unsupported         []Tally
	OutOfBounds         map[EntityKind]int
	ZeroSize            map[EntityKind]int
	Abandoned           int
	InvariantViolations int
	Written             []string
	NotWritten          []string

	unsupportedIdx map[string]int

	reg         *prometheus.Registry
	entities    *prometheus.CounterVec
	unsupported *prometheus.CounterVec
	violations  prometheus.Counter
	files       *prometheus.CounterVec
}

func NewReport(source string) *Report {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Report{
		Source:         source,
		OutOfBounds:    make(map[EntityKind]int),
		ZeroSize:       make(map[EntityKind]int),
		unsupportedIdx: make(map[string]int),
		reg:            reg,
		entities: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dxf2gerber_entities_total",
				Help: "DXF entities handled by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		unsupported: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dxf2gerber_unsupported_entities_total",
				Help: "DXF entities of types the converter does not handle",
			},
			[]string{"type"},
		),
		violations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dxf2gerber_invariant_violations_total",
				Help: "Internal consistency failures, e.g. unregistered apertures",
			},
		),
		files: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dxf2gerber_files_total",
				Help: "Output files by final status",
			},
			[]string{"status"},
		),
	}
}

// Registry returns the registry holding the report counters
func (r *Report) Registry() *prometheus.Registry {
	return r.reg
}

// EntityProcessed counts a LINE, CIRCLE or ARC record handed to its processor
func (r *Report) EntityProcessed(kind EntityKind) {
	r.Processed++
}

func (r *Report) Emitted(kind EntityKind) {
	r.entities.WithLabelValues(kind.String(), OutcomeEmitted).Inc()
}

func (r *Report) NoLayer(kind EntityKind) {
	r.entities.WithLabelValues(kind.String(), OutcomeNoLayer).Inc()
}

func (r *Report) OutOfBoundsFound(kind EntityKind) {
	r.OutOfBounds[kind]++
	r.entities.WithLabelValues(kind.String(), OutcomeOutOfBounds).Inc()
}

func (r *Report) ZeroSizeFound(kind EntityKind) {
	r.ZeroSize[kind]++
	r.entities.WithLabelValues(kind.String(), OutcomeZeroSize).Inc()
}

// Abandon counts an entity dropped on a malformed record
func (r *Report) Abandon(kind EntityKind) {
	r.Abandoned++
	r.entities.WithLabelValues(kind.String(), OutcomeAbandoned).Inc()
}

func (r *Report) UnsupportedFound(typeName string) {
	if i, ok := r.unsupportedIdx[typeName]; ok {
		r.Unsupported[i].Count++
	} else {
		r.unsupportedIdx[typeName] = len(r.Unsupported)
		r.Unsupported = append(r.Unsupported, Tally{Name: typeName, Count: 1})
	}
	r.unsupported.WithLabelValues(typeName).Inc()
}

func (r *Report) InvariantViolation() {
	r.InvariantViolations++
	r.violations.Inc()
}

// FileDone records the final status of an output file
func (r *Report) FileDone(path, status string) {
	if status == FileWritten {
		r.Written = append(r.Written, path)
	} else {
		r.NotWritten = append(r.NotWritten, path)
	}
	r.files.WithLabelValues(status).Inc()
}

func (r *Report) UnsupportedTotal() int {
	n := 0
	for _, u := range r.Unsupported {
		n += u.Count
	}
	return n
}

func total(m map[EntityKind]int) int {
	n := 0
	for _, k := range EntityKinds {
		n += m[k]
	}
	return n
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Lines renders the conversion summary
func (r *Report) Lines() []string {
	retVal := []string{
		"DXF Input File: ",
		"\t" + r.Source,
		"",
		strconv.Itoa(r.Processed) + " Entities Processed",
	}
	if len(r.Written) == 0 {
		return append(retVal, "", "No Gerber Files Written!")
	}

	retVal = append(retVal, "")
	if len(r.Unsupported) > 0 {
		retVal = append(retVal, strconv.Itoa(r.UnsupportedTotal())+" Unsupported Entities Found:")
		for _, u := range r.Unsupported {
			retVal = append(retVal, "\t"+strconv.Itoa(u.Count)+" "+u.Name+
				plural(u.Count, " Entity Found", " Entities Found"))
		}
	} else {
		retVal = append(retVal, "0 Unsupported Entities Found.")
	}

	retVal = append(retVal, "")
	if n := total(r.OutOfBounds); n > 0 {
		retVal = append(retVal, strconv.Itoa(n)+" Entities Out of Bounds:")
		retVal = append(retVal, r.kindLines(r.OutOfBounds)...)
	} else {
		retVal = append(retVal, "0 Entities Out of Bounds.")
	}

	retVal = append(retVal, "")
	if n := total(r.ZeroSize); n > 0 {
		retVal = append(retVal, strconv.Itoa(n)+" Zero Size Entities Found:")
		retVal = append(retVal, r.kindLines(r.ZeroSize)...)
	} else {
		retVal = append(retVal, "0 Zero Size Entities.")
	}

	if r.Abandoned > 0 {
		retVal = append(retVal, "", strconv.Itoa(r.Abandoned)+" Malformed Entities Skipped")
	}

	retVal = append(retVal, "", "Gerber Files Created:")
	for _, p := range r.Written {
		retVal = append(retVal, "\t"+p)
	}
	return retVal
}

func (r *Report) kindLines(m map[EntityKind]int) []string {
	retVal := make([]string, 0, len(EntityKinds))
	for _, k := range EntityKinds {
		retVal = append(retVal, "\t"+strconv.Itoa(m[k])+" "+k.String()+"(s)")
	}
	return retVal
}

// WriteMetrics exports the counters in the text exposition format,
// e.g. for the node exporter textfile collector
func (r *Report) WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
