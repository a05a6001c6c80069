// Package analysis runs the whole pipeline over one driver log: parse every line, build the
// alias map from the duplications, index the allocations and hand back a correlated dataset.
package analysis

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/rmlog/correlate"
	"github.com/vkngwrapper/rmlog/parser"
	"github.com/vkngwrapper/rmlog/report"
	"github.com/vkngwrapper/rmlog/rmutils"
	"golang.org/x/exp/slog"
)

type Options struct {
	// Logger is shared by every phase. Nil discards everything.
	Logger      *slog.Logger
	Workers     int
	ReusePolicy correlate.ReusePolicy
	// Diagnostics receives malformed line and unrecognized token errors in line order. When nil
	// they are logged at warn level.
	Diagnostics func(err error)
	Progress    func(lines int)
}

// Result is a parsed log together with its correlated dataset
type Result struct {
	Log     *parser.Log
	Dataset *report.Dataset
}

// Analyze parses the log at path and correlates it. Each phase finishes before the next
// starts, and nothing built by an earlier phase is modified by a later one.
func Analyze(ctx context.Context, path string, opts Options) (*Result, error) {
	log, err := parser.ParseFile(ctx, path, parser.Options{
		Logger:      opts.Logger,
		Workers:     opts.Workers,
		Diagnostics: opts.Diagnostics,
		Progress:    opts.Progress,
	})
	if err != nil {
		return nil, err
	}

	return Correlate(log, path, opts), nil
}

// AnalyzeReader is Analyze for a log that is not on disk. source only labels the reports.
func AnalyzeReader(ctx context.Context, r io.Reader, source string, opts Options) (*Result, error) {
	log, err := parser.ParseReader(ctx, r, parser.Options{
		Logger:      opts.Logger,
		Workers:     opts.Workers,
		Diagnostics: opts.Diagnostics,
		Progress:    opts.Progress,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read log %q", source)
	}

	return Correlate(log, source, opts), nil
}

// Correlate builds the alias map, the allocation index and the correlator over an already
// parsed log
func Correlate(log *parser.Log, source string, opts Options) *Result {
	logger := rmutils.LoggerOrDiscard(opts.Logger)

	aliases := correlate.NewAliasMap(log.Duplications)
	index := correlate.NewAllocationIndex(log.Allocations, aliases, correlate.IndexOptions{
		Logger:      logger,
		ReusePolicy: opts.ReusePolicy,
	})

	logger.Debug("Analysis::Correlate",
		slog.String("Source", source),
		slog.Int("Allocations", len(log.Allocations)),
		slog.Int("Mappings", len(log.Mappings)),
		slog.Int("Duplications", len(log.Duplications)),
		slog.Int("Aliases", aliases.Len()),
		slog.Int("IndexEntries", index.Len()),
	)

	return &Result{
		Log: log,
		Dataset: &report.Dataset{
			SourceFile:   source,
			Allocations:  log.Allocations,
			Mappings:     log.Mappings,
			Duplications: log.Duplications,
			Correlator:   correlate.NewCorrelator(aliases, index),
		},
	}
}

// WriteProgress prints the counts gathered while building the dataset
func (r *Result) WriteProgress(w io.Writer) error {
	correlator := r.Dataset.Correlator
	_, err := fmt.Fprintf(w, "Found %d dupObject calls (%d successful aliases)\nBuilt allocation map with %d entries\n",
		len(r.Dataset.Duplications), correlator.Aliases().Len(), correlator.Index().Len())
	if err != nil {
		return errors.Wrap(err, "failed to write progress")
	}

	if r.Log.Malformed > 0 {
		_, err = fmt.Fprintf(w, "Skipped %d malformed lines\n", r.Log.Malformed)
	}
	return errors.Wrap(err, "failed to write progress")
}
