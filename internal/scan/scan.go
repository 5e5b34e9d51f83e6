// Package scan runs one catalog scan: it walks the module roots, parses every
// candidate file and collects the accepted records.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dyluth/modcat/internal/config"
	"github.com/dyluth/modcat/internal/logging"
	"github.com/dyluth/modcat/internal/modulefile"
	"github.com/dyluth/modcat/internal/walker"
	"github.com/dyluth/modcat/pkg/catalog"
)

// Stats counts what happened to the candidates of a run.
type Stats struct {
	Roots      int `json:"roots"`
	Candidates int `json:"candidates"`
	Accepted   int `json:"accepted"`
	Excluded   int `json:"excluded"`
	NotModule  int `json:"not_module"`
	Suppressed int `json:"suppressed"`
	Unreadable int `json:"unreadable"`
}

// Result is the output of one run.
type Result struct {
	Entries  []*catalog.Entry
	Stats    Stats
	Strategy string
	Roots    []string
}

// Scanner runs scans for one configuration.
type Scanner struct {
	cfg    *config.Config
	logger *log.Logger
	now    func() time.Time
}

// New validates cfg and returns a scanner for it.
func New(cfg *config.Config, logger *log.Logger) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scanner{cfg: cfg, logger: logger, now: time.Now}, nil
}

// Run performs a full scan. A missing module path aborts before any traversal.
// Unreadable directories and files are logged and skipped. The context is
// checked between roots only; a root that has started is walked to the end.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	roots, err := s.cfg.ModulePaths()
	if err != nil {
		return nil, err
	}

	strategy, err := walker.StrategyFor(string(s.cfg.Strategy), s.cfg.RecurseModuleDirs, s.cfg.IgnoreToplevelModulefiles)
	if err != nil {
		return nil, err
	}

	builder := catalog.NewBuilder(catalog.NewExclusionSet(s.cfg.ExcludeNames()...))
	parser := modulefile.NewParser(modulefile.Options{
		DefaultSupportContact:  s.cfg.DefaultSupportContact,
		Validity:               s.cfg.ValidityDuration(),
		ResourceName:           s.cfg.ResourceName,
		ExecutionEnvironmentID: s.cfg.ExecutionEnvironmentID(),
		Now:                    s.now,
	}, s.logger)
	w := walker.New(roots, strategy, s.logger)

	result := &Result{Strategy: strategy.Name(), Roots: roots}
	stats := &result.Stats

	visit := func(c walker.Candidate) error {
		stats.Candidates++

		if builder.Excluded(c.Name) {
			stats.Excluded++
			s.logger.Debug("excluded", "name", c.Name, "path", c.Path)
			return nil
		}

		entry, outcome, err := parser.ParseFile(c)
		if err != nil {
			stats.Unreadable++
			s.logger.Warn("skipping unreadable module file", "path", c.Path, "error", err)
			return nil
		}

		switch outcome {
		case modulefile.NotModule:
			stats.NotModule++
		case modulefile.Suppressed:
			stats.Suppressed++
		case modulefile.Accepted:
			if builder.Add(entry.Record, entry.Handles) {
				stats.Accepted++
			} else {
				stats.Excluded++
				s.logger.Debug("excluded", "name", entry.Record.Name, "path", c.Path)
			}
		}
		return nil
	}

	if err := w.Walk(ctx, visit); err != nil {
		return nil, err
	}
	stats.Roots = len(roots)

	result.Entries = builder.Entries()

	s.logger.Info("scan complete",
		"strategy", result.Strategy,
		"roots", stats.Roots,
		"candidates", stats.Candidates,
		"records", stats.Accepted,
		"excluded", stats.Excluded,
		"not_module", stats.NotModule,
		"suppressed", stats.Suppressed,
		"unreadable", stats.Unreadable,
	)

	return result, nil
}
