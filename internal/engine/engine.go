// Package engine walks a directory of class files and runs every detector
// over each one.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/mabhi256/inthunter/internal/classfile"
	"github.com/mabhi256/inthunter/internal/detector"
	"github.com/mabhi256/inthunter/internal/registry"
	"github.com/mabhi256/inthunter/internal/report"
)

const classSuffix = ".class"

type Option func(*Engine)

// WithDetectors replaces the default set (every registered detector).
func WithDetectors(ds ...detector.Detector) Option {
	return func(e *Engine) { e.detectors = ds }
}

func WithLogger(logger hclog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWorkers bounds the number of files processed at once. Values below
// one mean runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithClassRegistry shares a class cache across scans. By default each
// scan gets a fresh one.
func WithClassRegistry(r *registry.ClassRegistry) Option {
	return func(e *Engine) { e.classes = r }
}

type Engine struct {
	detectors []detector.Detector
	logger    hclog.Logger
	workers   int
	classes   *registry.ClassRegistry
}

func New(opts ...Option) *Engine {
	e := &Engine{
		detectors: detector.All(),
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = runtime.NumCPU()
	}
	return e
}

func (e *Engine) Detectors() []detector.Detector {
	return e.detectors
}

// Stats summarises one scan.
type Stats struct {
	Files            int // class files discovered
	Parsed           int
	Malformed        int // rejected by the parser
	Unreadable       int // could not be opened or read
	Duplicates       int // class names seen in more than one file
	Findings         int
	DetectorFailures int
	Elapsed          time.Duration
}

type counters struct {
	parsed, malformed, unreadable, findings, failures atomic.Int64
}

// Scan processes every .class file under root, forwarding findings to
// sink as they are produced. Only an unusable root fails the scan; bad
// files and failing detectors are logged and counted. A cancelled ctx
// stops scheduling new files and is returned alongside partial stats.
func (e *Engine) Scan(ctx context.Context, root string, sink report.Sink) (*Stats, error) {
	start := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	files, err := e.discover(root)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("discovered class files", "root", root, "count", len(files), "workers", e.workers)

	classes := e.classes
	if classes == nil {
		classes = registry.NewClassRegistry()
	}
	dupsBefore := classes.Duplicates()
	dctx := &detector.Context{Classes: classes, Logger: e.logger.Named("detector")}

	var c counters
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			e.scanFile(dctx, path, sink, &c)
			return nil
		})
	}
	_ = g.Wait()

	stats := &Stats{
		Files:            len(files),
		Parsed:           int(c.parsed.Load()),
		Malformed:        int(c.malformed.Load()),
		Unreadable:       int(c.unreadable.Load()),
		Duplicates:       classes.Duplicates() - dupsBefore,
		Findings:         int(c.findings.Load()),
		DetectorFailures: int(c.failures.Load()),
		Elapsed:          time.Since(start),
	}
	e.logger.Info("scan finished",
		"files", stats.Files, "parsed", stats.Parsed, "malformed", stats.Malformed,
		"findings", stats.Findings, "detector_failures", stats.DetectorFailures, "elapsed", stats.Elapsed)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// discover lists class files in lexical order. Unreadable directories
// below root are logged and skipped.
func (e *Engine) discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("failed to read scan root: %w", err)
			}
			e.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), classSuffix) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (e *Engine) scanFile(dctx *detector.Context, path string, sink report.Sink, c *counters) {
	cf, err := classfile.ParseFile(path)
	if err != nil {
		if errors.Is(err, classfile.ErrMalformedInput) {
			c.malformed.Add(1)
			e.logger.Warn("skipping malformed class file", "file", path, "error", err)
		} else {
			c.unreadable.Add(1)
			e.logger.Warn("failed to read class file", "file", path, "error", err)
		}
		return
	}
	c.parsed.Add(1)

	if held, added := dctx.Classes.AddClass(cf, path); !added {
		e.logger.Debug("duplicate class", "class", cf.Name, "file", path, "first", held.Path)
	}

	for _, d := range e.detectors {
		findings, err := detector.Run(dctx, d, cf)
		if err != nil {
			c.failures.Add(1)
			e.logger.Warn("detector failed", "file", path, "class", cf.Name, "detector", d.Name(), "error", err)
			continue
		}
		for _, f := range findings {
			sink.Accept(f)
		}
		c.findings.Add(int64(len(findings)))
	}
}
