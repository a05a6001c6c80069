package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/vkngwrapper/rmlog/bitfield"
	"github.com/vkngwrapper/rmlog/correlate"
	"github.com/vkngwrapper/rmlog/records"
)

const tableColumnWidth = 35

var attrTableKeys = []string{"location", "format", "page_size", "physicality", "coherency"}
var attr2TableKeys = []string{"zbc", "gpu_cacheable", "priority", "memory_protection"}

type DetailOptions struct {
	// Max caps how many records are printed after filtering. Negative prints every record.
	Max    int
	Filter Filter
	// Color highlights missing allocations in the output
	Color bool
}

// DetailReporter prints one block per record: a before/after table for allocations and a
// narrative of the related allocations for mappings and duplications.
type DetailReporter struct {
	out  io.Writer
	data *Dataset
	opts DetailOptions

	title   *color.Color
	missing *color.Color
	warning *color.Color
}

var _ Visitor = (*DetailReporter)(nil)

func NewDetailReporter(out io.Writer, data *Dataset, opts DetailOptions) *DetailReporter {
	r := &DetailReporter{
		out:     out,
		data:    data,
		opts:    opts,
		title:   color.New(color.Bold),
		missing: color.New(color.FgRed, color.Bold),
		warning: color.New(color.FgYellow),
	}

	for _, c := range []*color.Color{r.title, r.missing, r.warning} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Report prints the header and the first Max records passing the filter, in line order
func (r *DetailReporter) Report() error {
	recs := r.opts.Filter.Apply(r.data.Records(), r.data.Correlator)
	if r.opts.Max >= 0 && len(recs) > r.opts.Max {
		recs = recs[:r.opts.Max]
	}

	showing := "showing all"
	if r.opts.Max >= 0 {
		showing = fmt.Sprintf("showing first %d", r.opts.Max)
	}

	var header bytes.Buffer
	if r.data.SourceFile != "" {
		writeBanner(&header, fmt.Sprintf("Detailed Operations from %s (interleaved, %s)", r.data.SourceFile, showing))
	} else {
		writeBanner(&header, fmt.Sprintf("Detailed Operations (interleaved, %s)", showing))
	}
	if _, err := r.out.Write(header.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write detail report header")
	}

	return Walk(recs, r)
}

func (r *DetailReporter) flush(buf *bytes.Buffer) error {
	_, err := r.out.Write(buf.Bytes())
	return err
}

func (r *DetailReporter) VisitAllocation(position int, call *records.AllocationCall) error {
	var buf bytes.Buffer
	writeBanner(&buf, r.title.Sprintf("║ VIDHEAPCONTROL Call #%d (Line %d)", position, call.Line()))

	fmt.Fprintf(&buf, "  Function: %s\n", call.Function)
	fmt.Fprintf(&buf, "  hRoot: %s\n", call.HRoot)
	fmt.Fprintf(&buf, "  hObjectParent: %s\n", call.HObjectParent)
	fmt.Fprintf(&buf, "  hVASpace: %s\n", call.HVASpace)
	fmt.Fprintf(&buf, "  Status: %s\n", call.Status)
	fmt.Fprintf(&buf, "  Duration: %s\n", durationText(call.DurationNs))
	fmt.Fprintf(&buf, "  Alloc ptr: %s\n", call.AllocPtr)
	fmt.Fprintf(&buf, "  BL ptr: %s\n\n", call.BlPtr)

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Field", "Before", "After"})
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColWidth(tableColumnWidth)
	table.SetBorder(false)
	table.SetColumnSeparator("│")
	table.SetCenterSeparator("┼")
	table.SetRowSeparator("─")
	table.AppendBulk(allocationRows(&call.Before, &call.After))
	table.Render()

	return r.flush(&buf)
}

func allocationRows(before, after *records.AllocationDescriptor) [][]string {
	rows := [][]string{
		{"hMemory", before.HMemory.String(), after.HMemory.String()},
		{"Type", typeText(before.Type), typeText(after.Type)},
		{"Size", sizeText(before.Size), sizeText(after.Size)},
		{"Alignment", before.Alignment.String(), after.Alignment.String()},
		{"Flags", before.Flags.String(), after.Flags.String()},
	}

	beforeFlags := strings.Join(bitfield.ActiveFlags(before.Flags.Uint64()), ", ")
	afterFlags := strings.Join(bitfield.ActiveFlags(after.Flags.Uint64()), ", ")
	if beforeFlags != "" || afterFlags != "" {
		rows = append(rows, []string{"", beforeFlags, afterFlags})
	}

	rows = append(rows, []string{"Attr", before.Attr.String(), after.Attr.String()})
	beforeAttr := bitfield.Decode(bitfield.LayoutAttr, before.Attr.Uint64())
	afterAttr := bitfield.Decode(bitfield.LayoutAttr, after.Attr.Uint64())
	for _, key := range attrTableKeys {
		rows = append(rows, []string{"  " + key, beforeAttr.Lookup(key), afterAttr.Lookup(key)})
	}

	rows = append(rows, []string{"Attr2", before.Attr2.String(), after.Attr2.String()})
	beforeAttr2 := bitfield.Decode(bitfield.LayoutAttr2, before.Attr2.Uint64())
	afterAttr2 := bitfield.Decode(bitfield.LayoutAttr2, after.Attr2.Uint64())
	for _, key := range attr2TableKeys {
		rows = append(rows, []string{"  " + key, beforeAttr2.Lookup(key), afterAttr2.Lookup(key)})
	}

	// the driver only fills these in on return
	return append(rows,
		[]string{"Offset", "", after.Offset.String()},
		[]string{"Limit", "", after.Limit.String()},
	)
}

func (r *DetailReporter) VisitMapping(position int, call *records.MappingCall) error {
	correlation := r.data.Correlator.Relate(call)

	var buf bytes.Buffer
	title := r.title.Sprintf("║ MAPMEMORYDMA Call #%d (Line %d)", position, call.Line())
	if correlation.Missing() {
		title += " " + r.missing.Sprint("*** MISSING ALLOCATIONS ***")
	}
	writeBanner(&buf, title)

	fmt.Fprintf(&buf, "  hClient: %s\n", call.HClient)
	fmt.Fprintf(&buf, "  hDevice: %s\n", call.HDevice)
	fmt.Fprintf(&buf, "  hDma: %s\n", call.HDma)
	fmt.Fprintf(&buf, "  hMemory: %s\n", call.HMemory)

	r.writeRelation(&buf, "hMemory", call.HMemory, correlation.Memory)
	if correlation.DmaSameAsMemory {
		fmt.Fprintf(&buf, "  → hDma=%s refers to the same allocation\n", call.HDma)
	} else {
		r.writeRelation(&buf, "hDma", call.HDma, correlation.Dma)
	}

	fmt.Fprintf(&buf, "  Offset: %s\n", call.Offset)
	fmt.Fprintf(&buf, "  Length: %s\n", sizeText(call.Length))
	fmt.Fprintf(&buf, "  Status: %s\n", call.Status)
	fmt.Fprintf(&buf, "  Duration: %s\n", durationText(call.DurationNs))

	fmt.Fprintf(&buf, "  Flags: %s\n", call.Flags)
	for _, field := range bitfield.Decode(bitfield.LayoutMapFlags, call.Flags.Uint64()) {
		fmt.Fprintf(&buf, "         %s: %s\n", field.Name, field.Value)
	}
	fmt.Fprintf(&buf, "  Flags2: %s\n", call.Flags2)
	for _, field := range bitfield.Decode(bitfield.LayoutMapFlags2, call.Flags2.Uint64()) {
		fmt.Fprintf(&buf, "          %s: %s\n", field.Name, field.Value)
	}

	fmt.Fprintf(&buf, "  Kind Override: %s\n", call.KindOverride)
	fmt.Fprintf(&buf, "  DMA Offset (before): %s\n", call.DmaOffsetBefore)
	fmt.Fprintf(&buf, "  DMA Offset (after):  %s\n", call.DmaOffsetAfter)

	return r.flush(&buf)
}

func (r *DetailReporter) writeRelation(buf *bytes.Buffer, name string, query records.Value, relation *correlate.Relation) {
	if relation == nil {
		fmt.Fprintf(buf, "  %s\n", r.warning.Sprintf("No allocation found for %s=%s", name, query))
		return
	}

	if relation.Aliased {
		fmt.Fprintf(buf, "  → Related allocation (via %s=%s → alias of %s):\n", name, query, relation.Origin)
	} else {
		fmt.Fprintf(buf, "  → Related allocation (via %s=%s):\n", name, query)
	}
	writeAllocationSummary(buf, relation.Allocation)
}

func writeAllocationSummary(buf *bytes.Buffer, alloc *records.AllocationCall) {
	fmt.Fprintf(buf, "     Line: %d\n", alloc.Line())
	fmt.Fprintf(buf, "     Allocated size: %s\n", sizeText(alloc.After.Size))
	fmt.Fprintf(buf, "     Type: %s\n", bitfield.TypeName(alloc.After.Type.Uint64()))
	fmt.Fprintf(buf, "     Location: %s\n", bitfield.Location(alloc.After.Attr.Uint64()))
}

func (r *DetailReporter) VisitDuplication(position int, call *records.DuplicationCall) error {
	var buf bytes.Buffer
	writeBanner(&buf, r.title.Sprintf("║ DUPOBJECT Call #%d (Line %d)", position, call.Line()))

	fmt.Fprintf(&buf, "  hClient: %s\n", call.HClient)
	fmt.Fprintf(&buf, "  hParent: %s\n", call.HParent)
	fmt.Fprintf(&buf, "  hClientSrc: %s\n", call.HClientSrc)
	fmt.Fprintf(&buf, "  hObjectSrc: %s\n", call.HObjectSrc)
	fmt.Fprintf(&buf, "  hObjectDest: %s\n", call.HObjectDest)
	fmt.Fprintf(&buf, "  Flags: %s\n", call.Flags)
	fmt.Fprintf(&buf, "  Status: %s\n", call.Status)
	fmt.Fprintf(&buf, "  Duration: %s\n", durationText(call.DurationNs))

	source := r.data.Correlator.SourceOf(call)
	switch {
	case source == nil:
		fmt.Fprintf(&buf, "  %s\n", r.warning.Sprintf("No allocation found for hObjectSrc=%s", call.HObjectSrc))
	case source.Aliased:
		fmt.Fprintf(&buf, "  → Source allocation (hObjectSrc=%s → alias of %s):\n", call.HObjectSrc, source.Origin)
		writeAllocationSummary(&buf, source.Allocation)
	default:
		fmt.Fprintf(&buf, "  → Source allocation (hObjectSrc=%s):\n", call.HObjectSrc)
		writeAllocationSummary(&buf, source.Allocation)
	}

	if call.Succeeded() {
		fmt.Fprintf(&buf, "  ➜ Creates alias: %s → %s\n", call.HObjectDest, call.HObjectSrc)
	} else {
		fmt.Fprintf(&buf, "  ➜ No alias created (status %s)\n", call.Status)
	}

	return r.flush(&buf)
}
