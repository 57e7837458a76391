package contract

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/fatih/color"
	"github.com/huangsam/fragscan/schema"
)

// Color variables for diagnostic labels.
var (
	warnColor  = color.New(color.FgYellow, color.Bold)
	infoColor  = color.New(color.FgCyan)
	debugColor = color.New(color.FgHiBlack)
)

// NopObserver drops every diagnostic.
type NopObserver struct{}

// Observe implements the Observer interface.
func (NopObserver) Observe(schema.Diagnostic) {}

// ConsoleObserver prints diagnostics up to a verbosity level.
// Verbosity 0 shows warnings, 1 adds info and 2 adds debug output.
type ConsoleObserver struct {
	Verbosity int
	mu        sync.Mutex
	w         io.Writer
}

// NewConsoleObserver returns an observer writing to stderr.
func NewConsoleObserver(verbosity int) *ConsoleObserver {
	return &ConsoleObserver{Verbosity: verbosity, w: os.Stderr}
}

// Observe implements the Observer interface.
func (o *ConsoleObserver) Observe(d schema.Diagnostic) {
	if d.Level.Rank() > o.Verbosity {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = fmt.Fprintf(o.w, "%s %s\n", levelLabel(d.Level), FormatDiagnostic(d))
}

func levelLabel(level schema.DiagnosticLevel) string {
	switch level {
	case schema.WarnLevel:
		return warnColor.Sprint("WARN ")
	case schema.InfoLevel:
		return infoColor.Sprint("INFO ")
	default:
		return debugColor.Sprint("DEBUG")
	}
}

// FormatDiagnostic renders a diagnostic without its level.
func FormatDiagnostic(d schema.Diagnostic) string {
	scope := d.Stage
	if d.Sample != "" {
		scope += " " + d.Sample
	}
	if d.Dye != "" {
		scope += "/" + d.Dye
	}
	return fmt.Sprintf("[%s] %s", scope, d.Message)
}

// CollectingObserver keeps every diagnostic in memory.
type CollectingObserver struct {
	mu    sync.Mutex
	items []schema.Diagnostic
}

// Observe implements the Observer interface.
func (c *CollectingObserver) Observe(d schema.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, d)
}

// Diagnostics returns a copy of what was collected so far.
func (c *CollectingObserver) Diagnostics() []schema.Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// MultiObserver forwards diagnostics to every member.
type MultiObserver []Observer

// Observe implements the Observer interface.
func (m MultiObserver) Observe(d schema.Diagnostic) {
	for _, o := range m {
		if o != nil {
			o.Observe(d)
		}
	}
}

// scopedObserver stamps sample and dye onto diagnostics that lack them.
type scopedObserver struct {
	next   Observer
	sample string
	dye    string
}

func (s scopedObserver) Observe(d schema.Diagnostic) {
	if d.Sample == "" {
		d.Sample = s.sample
	}
	if d.Dye == "" {
		d.Dye = s.dye
	}
	s.next.Observe(d)
}

// WithScope returns an observer that tags diagnostics with a sample and dye.
func WithScope(obs Observer, sample, dye string) Observer {
	if obs == nil {
		obs = NopObserver{}
	}
	return scopedObserver{next: obs, sample: sample, dye: dye}
}

// Emit sends a formatted diagnostic to obs. A nil observer is allowed.
func Emit(obs Observer, level schema.DiagnosticLevel, stage, format string, args ...any) {
	if obs == nil {
		return
	}
	obs.Observe(schema.Diagnostic{
		Level:   level,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	})
}
