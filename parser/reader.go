package parser

import (
	"bufio"
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/rmlog/records"
	"github.com/vkngwrapper/rmlog/rmutils"
	"golang.org/x/exp/mmap"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

const (
	initialLineBuffer = 64 * 1024
	maxLineSize       = 16 * 1024 * 1024
	// how many lines are parsed between context checks
	cancelCheckInterval = 4096
)

// Options configures ParseReader and ParseFile
type Options struct {
	// Logger receives a debug entry per parse and, when Diagnostics is nil, a warning per
	// malformed line or unrecognized token. Nil discards everything.
	Logger *slog.Logger
	// Workers above one splits the log into that many shards parsed concurrently
	Workers int
	// Diagnostics, when set, receives every *LineError and *UnrecognizedTokenError in line
	// order instead of the logger
	Diagnostics func(err error)
	// Progress, when set, is called with the running line count as parsing advances
	Progress func(lines int)
}

// Log is everything decoded from one driver log
type Log struct {
	// Records holds every decoded call in encounter order
	Records      []records.Record
	Allocations  []*records.AllocationCall
	Mappings     []*records.MappingCall
	Duplications []*records.DuplicationCall
	// Malformed counts lines that named a known call but could not be decoded
	Malformed int
	// Warnings counts unrecognized tokens on otherwise valid records
	Warnings int
	// Lines counts every line read, noise included
	Lines int
}

// Count returns how many records of the given kind were decoded
func (l *Log) Count(kind records.Kind) int {
	switch kind {
	case records.KindAllocation:
		return len(l.Allocations)
	case records.KindMapping:
		return len(l.Mappings)
	case records.KindDuplication:
		return len(l.Duplications)
	}
	return 0
}

func (l *Log) add(rec records.Record) {
	l.Records = append(l.Records, rec)
	switch r := rec.(type) {
	case *records.AllocationCall:
		l.Allocations = append(l.Allocations, r)
	case *records.MappingCall:
		l.Mappings = append(l.Mappings, r)
	case *records.DuplicationCall:
		l.Duplications = append(l.Duplications, r)
	}
}

type parsedLine struct {
	line     int
	record   records.Record
	warnings Warnings
	err      error
}

// ParseFile memory-maps the log at path and parses it. Failing to open the file is the only
// fatal error; malformed lines are reported and skipped.
func ParseFile(ctx context.Context, path string, opts Options) (*Log, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log %q", path)
	}
	defer r.Close()

	log, err := ParseReader(ctx, io.NewSectionReader(r, 0, int64(r.Len())), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read log %q", path)
	}
	return log, nil
}

// ParseReader parses every line of r. Records come back in encounter order regardless of
// Options.Workers.
func ParseReader(ctx context.Context, r io.Reader, opts Options) (*Log, error) {
	logger := rmutils.LoggerOrDiscard(opts.Logger)

	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	logger.Debug("Parser::ParseReader", slog.Int("Lines", len(lines)), slog.Int("Workers", opts.Workers))

	var parsed []parsedLine
	if opts.Workers > 1 && len(lines) > opts.Workers {
		parsed, err = parseSharded(ctx, lines, opts)
	} else {
		parsed, err = parseRange(ctx, lines, 0, opts.Progress)
	}
	if err != nil {
		return nil, err
	}
	if opts.Progress != nil {
		opts.Progress(len(lines))
	}

	log := &Log{Lines: len(lines)}
	for _, p := range parsed {
		for _, w := range p.warnings {
			log.Warnings++
			report(logger, opts.Diagnostics, p.line, w)
		}
		if p.err != nil {
			log.Malformed++
			report(logger, opts.Diagnostics, p.line, p.err)
			continue
		}
		log.add(p.record)
	}

	logger.Debug("Parser::ParseReader complete",
		slog.Int("Records", len(log.Records)),
		slog.Int("Malformed", log.Malformed),
		slog.Int("Warnings", log.Warnings),
	)
	return log, nil
}

func report(logger *slog.Logger, sink func(error), line int, err error) {
	if sink != nil {
		sink(err)
		return
	}
	logger.Warn("skipping unparseable input", slog.Int("Line", line), slog.Any("error", err))
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialLineBuffer), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan log lines")
	}
	return lines, nil
}

// parseRange parses lines, numbering them from first+1. Only lines that decoded to something
// (a record, a warning or an error) are returned.
func parseRange(ctx context.Context, lines []string, first int, progress func(int)) ([]parsedLine, error) {
	var parsed []parsedLine
	for i, text := range lines {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if progress != nil && i > 0 {
				progress(first + i)
			}
		}

		lineNumber := first + i + 1
		rec, warnings, err := ParseLine(text, lineNumber)
		if rec == nil && err == nil && len(warnings) == 0 {
			continue
		}
		parsed = append(parsed, parsedLine{line: lineNumber, record: rec, warnings: warnings, err: err})
	}
	return parsed, nil
}

func parseSharded(ctx context.Context, lines []string, opts Options) ([]parsedLine, error) {
	shards := opts.Workers
	perShard := (len(lines) + shards - 1) / shards

	results := make([][]parsedLine, shards)
	eg, egCtx := errgroup.WithContext(ctx)
	for i := 0; i < shards; i++ {
		i := i
		start := i * perShard
		end := start + perShard
		if end > len(lines) {
			end = len(lines)
		}
		if start >= end {
			continue
		}

		eg.Go(func() error {
			parsed, err := parseRange(egCtx, lines[start:end], start, nil)
			if err != nil {
				return err
			}
			results[i] = parsed
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var merged []parsedLine
	for _, shard := range results {
		merged = append(merged, shard...)
	}
	slices.SortStableFunc(merged, func(a, b parsedLine) int {
		return a.line - b.line
	})
	return merged, nil
}
