package report

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/vkngwrapper/rmlog/correlate"
	"github.com/vkngwrapper/rmlog/records"
	"github.com/vkngwrapper/rmlog/rmutils"
)

// Summary is the aggregate view of a dataset. Only successful calls contribute bytes, and
// calls whose size token did not parse are counted apart instead of failing the summary.
type Summary struct {
	Allocations  rmutils.DetailedStatistics
	Mappings     rmutils.DetailedStatistics
	Duplications rmutils.DetailedStatistics

	Coverage correlate.Coverage
	// SuccessfulDuplications counts duplications that created an alias, whether or not a
	// later duplication replaced it
	SuccessfulDuplications int
	AliasEntries           int
	IndexEntries           int
	ReusedHandles          int
	ReusePolicy            correlate.ReusePolicy
}

type SummaryOptions struct {
	// Filter decides which kinds get a section. Its location is ignored.
	Filter Filter
	// Statistics prints the full statistics block of each section, not only the counts
	Statistics bool
}

func Summarize(data *Dataset) *Summary {
	s := &Summary{}
	s.Allocations.Clear()
	s.Mappings.Clear()
	s.Duplications.Clear()

	for _, call := range data.Allocations {
		s.Allocations.AddCall(call.Succeeded(), call.After.Size.Uint64(), byteCount(call.After.Size))
		s.Allocations.AddDuration(call.DurationNs, true)
	}
	for _, call := range data.Mappings {
		s.Mappings.AddCall(call.Succeeded(), call.Length.Uint64(), byteCount(call.Length))
		s.Mappings.AddDuration(call.DurationNs, true)
	}
	for _, call := range data.Duplications {
		s.Duplications.AddCall(call.Succeeded(), 0, true)
		s.Duplications.AddDuration(call.DurationNs, true)
	}

	s.SuccessfulDuplications = lo.CountBy(data.Duplications, func(call *records.DuplicationCall) bool {
		return call.Succeeded()
	})

	if data.Correlator != nil {
		s.Coverage = data.Correlator.Coverage(data.Mappings)
		s.AliasEntries = data.Correlator.Aliases().Len()
		s.IndexEntries = data.Correlator.Index().Len()
		s.ReusedHandles = len(data.Correlator.Index().Reuses())
		s.ReusePolicy = data.Correlator.Index().Policy()
	}
	return s
}

// byteCount returns true if v can be added to a byte total
func byteCount(v records.Value) bool {
	return v.Valid() && !v.Negative()
}

// Write prints one section per kind the filter shows
func (s *Summary) Write(w io.Writer, opts SummaryOptions) error {
	var buf bytes.Buffer

	if opts.Filter.Shows(records.KindAllocation) {
		if s.Allocations.CallCount == 0 {
			fmt.Fprintln(&buf, "No vidHeapControl calls found!")
		} else {
			fmt.Fprintf(&buf, "Found %s vidHeapControl calls\n", humanize.Comma(int64(s.Allocations.CallCount)))
			if opts.Statistics {
				writeStatistics(&buf, "VidHeapControl Summary", "allocations", "allocated", &s.Allocations)
				fmt.Fprintf(&buf, "Reused allocation handles: %d (%s)\n", s.ReusedHandles, s.ReusePolicy)
			}
		}
	}

	if opts.Filter.Shows(records.KindMapping) {
		if s.Mappings.CallCount == 0 {
			fmt.Fprintln(&buf, "No mapMemoryDma calls found!")
		} else {
			fmt.Fprintf(&buf, "Found %s mapMemoryDma calls\n", humanize.Comma(int64(s.Mappings.CallCount)))
			fmt.Fprintf(&buf, "  → %d mappings have hMemory allocations (%d%%)\n", s.Coverage.WithMemory, rmutils.Percent(s.Coverage.WithMemory, s.Coverage.Total))
			fmt.Fprintf(&buf, "  → %d mappings have hDma allocations (%d%%)\n", s.Coverage.WithDma, rmutils.Percent(s.Coverage.WithDma, s.Coverage.Total))
			fmt.Fprintf(&buf, "  → %d mappings have at least one allocation (%d%%)\n", s.Coverage.WithAny, rmutils.Percent(s.Coverage.WithAny, s.Coverage.Total))
			if opts.Statistics {
				writeStatistics(&buf, "MapMemoryDma Summary", "mappings", "mapped", &s.Mappings)
			}
		}
	}

	if opts.Filter.Shows(records.KindDuplication) {
		if s.Duplications.CallCount == 0 {
			fmt.Fprintln(&buf, "No dupObject calls found!")
		} else {
			fmt.Fprintf(&buf, "Found %s dupObject calls\n", humanize.Comma(int64(s.Duplications.CallCount)))
			if opts.Statistics {
				writeBanner(&buf, "DupObject Summary")
				writeCounts(&buf, "duplications", &s.Duplications.Statistics)
				fmt.Fprintf(&buf, "Alias map entries: %s\n", humanize.Comma(int64(s.AliasEntries)))
				fmt.Fprintf(&buf, "Allocation index entries: %s\n", humanize.Comma(int64(s.IndexEntries)))
				writeDurations(&buf, &s.Duplications)
			}
		}
	}

	_, err := w.Write(buf.Bytes())
	return errors.Wrap(err, "failed to write summary")
}

func writeCounts(buf *bytes.Buffer, noun string, stats *rmutils.Statistics) {
	fmt.Fprintf(buf, "Total calls: %s\n", humanize.Comma(int64(stats.CallCount)))
	fmt.Fprintf(buf, "Successful %s: %s\n", noun, humanize.Comma(int64(stats.SuccessCount)))
	fmt.Fprintf(buf, "Failed %s: %s\n", noun, humanize.Comma(int64(stats.FailureCount)))
}

func writeStatistics(buf *bytes.Buffer, title, noun, verb string, stats *rmutils.DetailedStatistics) {
	writeBanner(buf, title)
	writeCounts(buf, noun, &stats.Statistics)
	fmt.Fprintf(buf, "Total memory %s: %s\n", verb, rmutils.FormatSize(stats.Bytes, rmutils.Hex(stats.Bytes)))
	if stats.UnparsedSizes > 0 {
		fmt.Fprintf(buf, "Sizes that could not be parsed: %d\n", stats.UnparsedSizes)
	}
	writeDurations(buf, stats)
}

func writeDurations(buf *bytes.Buffer, stats *rmutils.DetailedStatistics) {
	if stats.DurationCount == 0 {
		return
	}

	average := stats.AverageDuration()
	fmt.Fprintf(buf, "Average duration: %s ns (%s)\n", humanize.Comma(int64(math.Round(average))), rmutils.Microseconds(average))
	fmt.Fprintf(buf, "Min duration: %s ns (%s)\n", humanize.Comma(int64(stats.DurationMin)), rmutils.Microseconds(float64(stats.DurationMin)))
	fmt.Fprintf(buf, "Max duration: %s ns (%s)\n", humanize.Comma(int64(stats.DurationMax)), rmutils.Microseconds(float64(stats.DurationMax)))
}
