package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/rmlog/analysis"
	"github.com/vkngwrapper/rmlog/correlate"
	"github.com/vkngwrapper/rmlog/report"
	"golang.org/x/exp/slog"
)

const defaultLogPath = "rmlog"

type rootOptions struct {
	jsonPath      string
	detailed      int
	noSummary     bool
	noDetailed    bool
	onlyVidheap   bool
	onlyMapmemory bool
	filterTypes   []string
	location      string
	workers       int
	reusePolicy   string
	verbose       bool
	noColor       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "rmlog [log]",
		Short: "Correlate vidHeapControl, mapMemoryDma and dupObject calls in a driver log",
		Long: `rmlog reads a resource manager call log, ties every mapMemoryDma call to the
vidHeapControl allocation its handles refer to (following dupObject aliases), and prints
a summary, a detailed interleaved listing and optionally a combined JSON export.

Example:
  rmlog
  rmlog /tmp/rmlog --detailed 50 --location VIDMEM
  rmlog rmlog.txt --filter-type mapmemory,dupobject --json calls.json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultLogPath
			if len(args) > 0 {
				path = args[0]
			}
			return run(cmd, path, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.jsonPath, "json", "", "Export both call types to a combined JSON file (sorted by line number)")
	flags.IntVar(&opts.detailed, "detailed", 10, "Show detailed info for the first N calls, negative for all")
	flags.BoolVar(&opts.noSummary, "no-summary", false, "Skip summary statistics")
	flags.BoolVar(&opts.noDetailed, "no-detailed", false, "Skip detailed call output")
	flags.BoolVar(&opts.onlyVidheap, "only-vidheap", false, "Only show vidHeapControl calls")
	flags.BoolVar(&opts.onlyMapmemory, "only-mapmemory", false, "Only show mapMemoryDma calls")
	flags.StringSliceVar(&opts.filterTypes, "filter-type", nil, "Only show these call types: vidheap, mapmemory, dupobject")
	flags.StringVar(&opts.location, "location", "", "Only show calls tied to memory in this location: VIDMEM, PCI, ANY")
	flags.IntVar(&opts.workers, "workers", runtime.GOMAXPROCS(0), "Number of goroutines parsing the log")
	flags.StringVar(&opts.reusePolicy, "reuse-policy", correlate.ReuseLastWriteWins.String(), "Owner of a handle returned by more than one allocation: last-write-wins or first-write-wins")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.MarkFlagsMutuallyExclusive("only-vidheap", "only-mapmemory")

	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func run(cmd *cobra.Command, path string, opts *rootOptions) error {
	out := cmd.OutOrStdout()

	kinds, err := report.SelectKinds(opts.filterTypes, opts.onlyVidheap, opts.onlyMapmemory)
	if err != nil {
		return err
	}
	location, err := report.ParseLocation(opts.location)
	if err != nil {
		return err
	}
	policy, err := correlate.ParseReusePolicy(opts.reusePolicy)
	if err != nil {
		return err
	}

	if opts.noColor {
		color.NoColor = true
	}

	fmt.Fprintf(out, "Processing %s...\n", path)
	result, err := analysis.Analyze(cmd.Context(), path, analysis.Options{
		Logger:      newLogger(cmd.ErrOrStderr(), opts.verbose),
		Workers:     opts.workers,
		ReusePolicy: policy,
	})
	if err != nil {
		return err
	}
	if err := result.WriteProgress(out); err != nil {
		return err
	}

	data := result.Dataset
	filter := report.Filter{Kinds: kinds, Location: location}

	summary := report.Summarize(data)
	err = summary.Write(out, report.SummaryOptions{
		Filter:     report.Filter{Kinds: kinds},
		Statistics: !opts.noSummary,
	})
	if err != nil {
		return err
	}

	if !opts.noDetailed {
		reporter := report.NewDetailReporter(out, data, report.DetailOptions{
			Max:    opts.detailed,
			Filter: filter,
			Color:  !color.NoColor,
		})
		if err := reporter.Report(); err != nil {
			return err
		}
	}

	if opts.jsonPath != "" {
		if err := exportJSON(opts.jsonPath, data); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nExported combined %d vidHeapControl + %d mapMemoryDma calls to %s\n",
			len(data.Allocations), len(data.Mappings), opts.jsonPath)
	}
	return nil
}

func exportJSON(path string, data *report.Dataset) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", path)
	}
	defer func() {
		err = errors.CombineErrors(err, errors.Wrapf(f.Close(), "failed to close %q", path))
	}()

	return errors.Wrapf(report.WriteJSON(f, data), "failed to export %q", path)
}
