package report_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/rmlog/correlate"
	"github.com/vkngwrapper/rmlog/records"
	"github.com/vkngwrapper/rmlog/report"
	mock_report "github.com/vkngwrapper/rmlog/report/mocks"
	"go.uber.org/mock/gomock"
)

const (
	attrVidmem uint64 = 0x11800000
	attrPCI    uint64 = 0x02000000
)

func allocation(line int, h, size, attr, status uint64) *records.AllocationCall {
	call := &records.AllocationCall{
		LineNumber: line,
		Status:     records.HexValue(status),
		AllocPtr:   records.ParseValue(records.NullToken),
		BlPtr:      records.ParseValue(records.NullToken),
	}
	call.Before.Size = records.HexValue(size)
	call.Before.Attr = records.HexValue(attr)
	call.After = call.Before
	call.After.HMemory = records.HexValue(h)
	return call
}

func mapping(line int, hMemory, hDma, length uint64) *records.MappingCall {
	return &records.MappingCall{
		LineNumber: line,
		HMemory:    records.HexValue(hMemory),
		HDma:       records.HexValue(hDma),
		Length:     records.HexValue(length),
		Status:     records.HexValue(0),
	}
}

func duplication(line int, src, dest uint64) *records.DuplicationCall {
	return &records.DuplicationCall{
		LineNumber:  line,
		HObjectSrc:  records.HexValue(src),
		HObjectDest: records.HexValue(dest),
		Status:      records.HexValue(0),
	}
}

func newDataset(allocs []*records.AllocationCall, maps []*records.MappingCall, dups []*records.DuplicationCall) *report.Dataset {
	aliases := correlate.NewAliasMap(dups)
	index := correlate.NewAllocationIndex(allocs, aliases, correlate.IndexOptions{})
	return &report.Dataset{
		SourceFile:   "rmlog",
		Allocations:  allocs,
		Mappings:     maps,
		Duplications: dups,
		Correlator:   correlate.NewCorrelator(aliases, index),
	}
}

// scenario is the alias walkthrough: an allocation at line 10, a duplication of its handle at
// line 12 and a mapping of the duplicate at line 15, plus a mapping nothing explains
func scenario() *report.Dataset {
	return newDataset(
		[]*records.AllocationCall{allocation(10, 0xcaf00010, 0x1000, attrVidmem, 0)},
		[]*records.MappingCall{
			mapping(15, 0xcaf00030, 0xcaf00050, 0x1000),
			mapping(20, 0xdead0001, 0xdead0002, 0x1000),
		},
		[]*records.DuplicationCall{duplication(12, 0xcaf00010, 0xcaf00030)},
	)
}

func TestWalkOrdersByLine(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	alloc := allocation(5, 0x1, 0x1000, attrVidmem, 0)
	firstMap := mapping(2, 0x1, 0x2, 0x10)
	secondMap := mapping(2, 0x3, 0x4, 0x10)
	dup := duplication(9, 0x1, 0x5)

	visitor := mock_report.NewMockVisitor(ctrl)
	gomock.InOrder(
		visitor.EXPECT().VisitMapping(1, firstMap).Return(nil),
		visitor.EXPECT().VisitMapping(2, secondMap).Return(nil),
		visitor.EXPECT().VisitAllocation(3, alloc).Return(nil),
		visitor.EXPECT().VisitDuplication(4, dup).Return(nil),
	)

	err := report.Walk([]records.Record{alloc, firstMap, dup, secondMap}, visitor)
	require.NoError(t, err)
}

func TestWalkContinuesAfterError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first := mapping(1, 0x1, 0x2, 0x10)
	second := mapping(2, 0x1, 0x2, 0x10)
	third := mapping(3, 0x1, 0x2, 0x10)

	visitor := mock_report.NewMockVisitor(ctrl)
	gomock.InOrder(
		visitor.EXPECT().VisitMapping(1, first).Return(errors.New("disk full")),
		visitor.EXPECT().VisitMapping(2, second).Return(nil),
		visitor.EXPECT().VisitMapping(3, third).Return(errors.New("disk still full")),
	)

	err := report.Walk([]records.Record{first, second, third}, visitor)
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 1")
	require.Contains(t, err.Error(), "disk full")
}

func TestSummaryTotals(t *testing.T) {
	first := allocation(1, 0x1, 0x1000, attrVidmem, 0)
	first.DurationNs = 900
	second := allocation(2, 0x2, 0x2000, attrVidmem, 0)
	second.DurationNs = 1800
	failed := allocation(3, 0x3, 0x4000, attrVidmem, 0x51)
	failed.DurationNs = 1200

	summary := report.Summarize(newDataset([]*records.AllocationCall{first, second, failed}, nil, nil))
	require.Equal(t, 3, summary.Allocations.CallCount)
	require.Equal(t, 2, summary.Allocations.SuccessCount)
	require.Equal(t, 1, summary.Allocations.FailureCount)
	require.Equal(t, uint64(0x3000), summary.Allocations.Bytes)
	require.Equal(t, uint64(900), summary.Allocations.DurationMin)
	require.Equal(t, uint64(1800), summary.Allocations.DurationMax)
	require.Equal(t, float64(1300), summary.Allocations.AverageDuration())

	var out bytes.Buffer
	require.NoError(t, summary.Write(&out, report.SummaryOptions{
		Filter:     report.Filter{Kinds: []records.Kind{records.KindAllocation}},
		Statistics: true,
	}))

	text := out.String()
	require.Contains(t, text, "Found 3 vidHeapControl calls")
	require.Contains(t, text, "Successful allocations: 2\n")
	require.Contains(t, text, "Failed allocations: 1\n")
	require.Contains(t, text, "Total memory allocated: 12.00 KB (0x3000)\n")
	require.Contains(t, text, "Average duration: 1,300 ns (1.30 µs)\n")
	require.Contains(t, text, "Min duration: 900 ns (0.90 µs)\n")
	require.Contains(t, text, "Max duration: 1,800 ns (1.80 µs)\n")
	require.Contains(t, text, "Reused allocation handles: 0 (last-write-wins)\n")
	require.NotContains(t, text, "mapMemoryDma")
}

func TestSummaryExcludesUnparsedSizes(t *testing.T) {
	good := allocation(1, 0x1, 0x1000, attrVidmem, 0)
	bad := allocation(2, 0x2, 0x1000, attrVidmem, 0)
	bad.After.Size = records.ParseValue("lots")

	summary := report.Summarize(newDataset([]*records.AllocationCall{good, bad}, nil, nil))
	require.Equal(t, 2, summary.Allocations.SuccessCount)
	require.Equal(t, 1, summary.Allocations.UnparsedSizes)
	require.Equal(t, uint64(0x1000), summary.Allocations.Bytes)
}

func TestSummaryCoverage(t *testing.T) {
	summary := report.Summarize(scenario())
	require.Equal(t, correlate.Coverage{Total: 2, WithMemory: 1, WithDma: 0, WithAny: 1}, summary.Coverage)
	require.Equal(t, 1, summary.AliasEntries)
	require.Equal(t, 2, summary.IndexEntries)
	require.Equal(t, 1, summary.SuccessfulDuplications)

	var out bytes.Buffer
	require.NoError(t, summary.Write(&out, report.SummaryOptions{}))

	text := out.String()
	require.Contains(t, text, "Found 2 mapMemoryDma calls\n")
	require.Contains(t, text, "  → 1 mappings have hMemory allocations (50%)\n")
	require.Contains(t, text, "  → 0 mappings have hDma allocations (0%)\n")
	require.Contains(t, text, "  → 1 mappings have at least one allocation (50%)\n")
	require.Contains(t, text, "Found 1 dupObject calls\n")
	require.NotContains(t, text, "Summary\n")
}

func TestSummaryEmpty(t *testing.T) {
	summary := report.Summarize(newDataset(nil, nil, nil))

	var out bytes.Buffer
	require.NoError(t, summary.Write(&out, report.SummaryOptions{Statistics: true}))
	require.Equal(t, "No vidHeapControl calls found!\nNo mapMemoryDma calls found!\nNo dupObject calls found!\n", out.String())
}

func TestSelectKinds(t *testing.T) {
	testCases := map[string]struct {
		FilterTypes     []string
		OnlyAllocations bool
		OnlyMappings    bool
		Expected        []records.Kind
	}{
		"Default": {
			Expected: []records.Kind{records.KindAllocation, records.KindMapping, records.KindDuplication},
		},
		"Only Allocations": {
			OnlyAllocations: true,
			Expected:        []records.Kind{records.KindAllocation, records.KindDuplication},
		},
		"Only Mappings": {
			OnlyMappings: true,
			Expected:     []records.Kind{records.KindMapping, records.KindDuplication},
		},
		"Filter Types Win": {
			FilterTypes:     []string{"dupobject", "vidheap", "dupobject"},
			OnlyAllocations: true,
			Expected:        []records.Kind{records.KindDuplication, records.KindAllocation},
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			kinds, err := report.SelectKinds(testCase.FilterTypes, testCase.OnlyAllocations, testCase.OnlyMappings)
			require.NoError(t, err)
			require.Equal(t, testCase.Expected, kinds)
		})
	}

	_, err := report.SelectKinds([]string{"freeobject"}, false, false)
	require.Error(t, err)
}

func TestParseLocation(t *testing.T) {
	location, err := report.ParseLocation("pci")
	require.NoError(t, err)
	require.Equal(t, "PCI", location)

	location, err = report.ParseLocation("")
	require.NoError(t, err)
	require.Equal(t, "", location)

	_, err = report.ParseLocation("sysmem")
	require.Error(t, err)
}

func TestFilterLocation(t *testing.T) {
	vidmem := allocation(1, 0x100, 0x1000, attrVidmem, 0)
	pci := allocation(2, 0x200, 0x1000, attrPCI, 0)
	toVidmem := mapping(3, 0x100, 0x0, 0x1000)
	toPCI := mapping(4, 0x0, 0x200, 0x1000)
	dupPCI := duplication(5, 0x200, 0x300)
	data := newDataset([]*records.AllocationCall{vidmem, pci}, []*records.MappingCall{toVidmem, toPCI}, []*records.DuplicationCall{dupPCI})

	filter := report.Filter{Location: "PCI"}
	kept := filter.Apply(data.Records(), data.Correlator)
	require.Equal(t, []records.Record{pci, toPCI, dupPCI}, kept)

	filter = report.Filter{Location: "VIDMEM", Kinds: []records.Kind{records.KindMapping}}
	kept = filter.Apply(data.Records(), data.Correlator)
	require.Equal(t, []records.Record{toVidmem}, kept)
}

func TestDetailReport(t *testing.T) {
	var out bytes.Buffer
	reporter := report.NewDetailReporter(&out, scenario(), report.DetailOptions{Max: 10})
	require.NoError(t, reporter.Report())

	text := out.String()
	require.Contains(t, text, "Detailed Operations from rmlog (interleaved, showing first 10)")
	require.Contains(t, text, "║ VIDHEAPCONTROL Call #1 (Line 10)")
	require.Contains(t, text, "║ DUPOBJECT Call #2 (Line 12)")
	require.Contains(t, text, "║ MAPMEMORYDMA Call #3 (Line 15)\n")
	require.Contains(t, text, "║ MAPMEMORYDMA Call #4 (Line 20) *** MISSING ALLOCATIONS ***")

	require.Contains(t, text, "  → Related allocation (via hMemory=0xcaf00030 → alias of 0xcaf00010):\n")
	require.Contains(t, text, "     Line: 10\n")
	require.Contains(t, text, "     Allocated size: 4.00 KB (0x1000)\n")
	require.Contains(t, text, "     Location: VIDMEM\n")
	require.Contains(t, text, "  No allocation found for hDma=0xcaf00050\n")
	require.Contains(t, text, "  No allocation found for hMemory=0xdead0001\n")
	require.Contains(t, text, "  ➜ Creates alias: 0xcaf00030 → 0xcaf00010\n")
	require.Contains(t, text, "  → Source allocation (hObjectSrc=0xcaf00010):\n")

	require.Contains(t, text, "hMemory")
	require.Contains(t, text, "0xcaf00010")
	require.Contains(t, text, "location")
	require.Contains(t, text, "4.00 KB (0x1000)")

	headerAt := strings.Index(text, "Detailed Operations")
	allocAt := strings.Index(text, "VIDHEAPCONTROL Call")
	dupAt := strings.Index(text, "DUPOBJECT Call")
	mapAt := strings.Index(text, "MAPMEMORYDMA Call")
	require.Less(t, headerAt, allocAt)
	require.Less(t, allocAt, dupAt)
	require.Less(t, dupAt, mapAt)
}

func TestDetailReportMax(t *testing.T) {
	var out bytes.Buffer
	reporter := report.NewDetailReporter(&out, scenario(), report.DetailOptions{Max: 2})
	require.NoError(t, reporter.Report())

	text := out.String()
	require.Equal(t, 2, strings.Count(text, " Call #"))
	require.NotContains(t, text, "MAPMEMORYDMA")
}

func TestDetailReportKindFilter(t *testing.T) {
	var out bytes.Buffer
	reporter := report.NewDetailReporter(&out, scenario(), report.DetailOptions{
		Max:    10,
		Filter: report.Filter{Kinds: []records.Kind{records.KindMapping}},
	})
	require.NoError(t, reporter.Report())

	text := out.String()
	require.Contains(t, text, "MAPMEMORYDMA Call #1 (Line 15)")
	require.Contains(t, text, "MAPMEMORYDMA Call #2 (Line 20)")
	require.NotContains(t, text, "VIDHEAPCONTROL")
	require.NotContains(t, text, "DUPOBJECT")
}

func TestDetailReportSameAllocation(t *testing.T) {
	data := newDataset(
		[]*records.AllocationCall{allocation(1, 0x100, 0x1000, attrVidmem, 0)},
		[]*records.MappingCall{mapping(2, 0x100, 0x100, 0x1000)},
		nil,
	)

	var out bytes.Buffer
	require.NoError(t, report.NewDetailReporter(&out, data, report.DetailOptions{Max: -1}).Report())
	require.Contains(t, out.String(), "Detailed Operations from rmlog (interleaved, showing all)\n")
	require.NotContains(t, out.String(), "showing first")
	require.Contains(t, out.String(), "  → hDma=0x100 refers to the same allocation\n")
	require.Equal(t, 1, strings.Count(out.String(), "Related allocation"))
}

func TestDetailReportAllRecords(t *testing.T) {
	data := scenario()
	data.SourceFile = ""

	var out bytes.Buffer
	require.NoError(t, report.NewDetailReporter(&out, data, report.DetailOptions{Max: -1}).Report())

	text := out.String()
	require.Contains(t, text, "Detailed Operations (interleaved, showing all)\n")
	require.Equal(t, 4, strings.Count(text, " Call #"))
}

func TestSummaryNegativeSize(t *testing.T) {
	call := allocation(1, 0x1, 0, attrVidmem, 0)
	call.After.Size = records.ParseValue("-4096")

	summary := report.Summarize(newDataset([]*records.AllocationCall{call}, nil, nil))
	require.Equal(t, uint64(0), summary.Allocations.Bytes)
	require.Equal(t, 1, summary.Allocations.UnparsedSizes)
}

func TestWriteJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, report.WriteJSON(&out, scenario()))

	var doc struct {
		Metadata map[string]any   `json:"metadata"`
		Calls    []map[string]any `json:"calls"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))

	require.Equal(t, map[string]any{
		"source_file":            "rmlog",
		"total_calls":            float64(3),
		"vidheap_calls":          float64(1),
		"mapmemory_calls":        float64(2),
		"dupobject_calls":        float64(1),
		"alias_map_entries":      float64(1),
		"allocation_map_entries": float64(2),
	}, doc.Metadata)

	require.Len(t, doc.Calls, 3)
	require.Equal(t, float64(10), doc.Calls[0]["line_number"])
	require.Equal(t, "vidHeapControl", doc.Calls[0]["call_type"])
	require.Nil(t, doc.Calls[0]["alloc_ptr"])
	require.Equal(t, map[string]any{
		"owner": "", "hMemory": "0xcaf00010", "type": "", "flags": "", "attr": "0x11800000",
		"format": "", "comprCovg": "", "zcullCovg": "", "width": "", "height": "",
		"size": "0x1000", "alignment": "", "offset": "", "limit": "", "address": "",
		"rangeBegin": "", "rangeEnd": "", "attr2": "", "ctagOffset": "", "numaNode": "",
	}, doc.Calls[0]["alloc_size_after"])

	aliased := doc.Calls[1]
	require.Equal(t, float64(15), aliased["line_number"])
	require.Equal(t, "mapMemoryDma", aliased["call_type"])
	require.Equal(t, map[string]any{
		"source":        "hMemory",
		"line":          float64(10),
		"size":          "0x1000",
		"type":          "",
		"hMemory":       "0xcaf00010",
		"attr":          "0x11800000",
		"attr2":         "",
		"resolved_from": "0xcaf00010",
	}, aliased["related_allocation_hmemory"])
	require.Contains(t, aliased, "related_allocation_hdma")
	require.Nil(t, aliased["related_allocation_hdma"])

	missing := doc.Calls[2]
	require.Equal(t, float64(20), missing["line_number"])
	require.Nil(t, missing["related_allocation_hmemory"])
	require.Nil(t, missing["related_allocation_hdma"])
}
