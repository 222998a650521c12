package detector

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/mabhi256/inthunter/internal/classfile"
	"github.com/mabhi256/inthunter/internal/finding"
	"github.com/mabhi256/inthunter/internal/registry"
)

// Detector inspects one parsed class and reports findings. Implementations
// keep no state between calls and must not modify the class.
type Detector interface {
	Name() string
	Detect(ctx *Context, class *classfile.ClassFile) ([]finding.Finding, error)
}

// Context is what a detector may consult beyond the class itself.
type Context struct {
	Classes *registry.ClassRegistry
	Logger  hclog.Logger
}

func (c *Context) logger() hclog.Logger {
	if c == nil || c.Logger == nil {
		return hclog.NewNullLogger()
	}
	return c.Logger
}

var ErrDetectorFailure = errors.New("detector failure")

// FailureError wraps an error returned, or a panic raised, by a detector.
type FailureError struct {
	Detector string
	Class    string
	Err      error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("detector %s failed on %s: %v", e.Detector, e.Class, e.Err)
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

func (e *FailureError) Is(target error) bool {
	return target == ErrDetectorFailure
}

// Run calls d.Detect and converts an error or panic into a *FailureError
// with no findings.
func Run(ctx *Context, d Detector, class *classfile.ClassFile) (findings []finding.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			findings = nil
			err = &FailureError{Detector: d.Name(), Class: class.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	findings, err = d.Detect(ctx, class)
	if err != nil {
		return nil, &FailureError{Detector: d.Name(), Class: class.Name, Err: err}
	}
	return findings, nil
}

var detectors = registry.NewBaseRegistry[string, Detector]()

// Register makes a detector available to scans. It panics if a detector
// with the same name is already registered.
func Register(d Detector) {
	if _, added := detectors.AddIfAbsent(d.Name(), d); !added {
		panic("detector: Register called twice for " + d.Name())
	}
}

// All returns the registered detectors sorted by name.
func All() []Detector {
	all := detectors.GetAll()
	out := make([]Detector, 0, len(all))
	for _, d := range all {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func Names() []string {
	var names []string
	for _, d := range All() {
		names = append(names, d.Name())
	}
	return names
}

func Lookup(name string) (Detector, bool) {
	return detectors.Get(name)
}

// Select resolves detector names; no names means all of them.
func Select(names []string) ([]Detector, error) {
	if len(names) == 0 {
		return All(), nil
	}
	out := make([]Detector, 0, len(names))
	for _, name := range names {
		d, ok := Lookup(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown detector %q (known: %s)", name, strings.Join(Names(), ", "))
		}
		out = append(out, d)
	}
	return out, nil
}
