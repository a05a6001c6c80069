package report

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/rmlog/correlate"
	"github.com/vkngwrapper/rmlog/records"
)

const exportBufferSize = 64 * 1024

// WriteJSON streams the combined export: a metadata header followed by every allocation and
// mapping call in line order. Mapping calls carry the allocations they resolve to.
func WriteJSON(w io.Writer, data *Dataset) error {
	writer := jwriter.NewStreamingWriter(w, exportBufferSize)

	calls := make([]records.Record, 0, len(data.Allocations)+len(data.Mappings))
	for _, call := range data.Allocations {
		calls = append(calls, call)
	}
	for _, call := range data.Mappings {
		calls = append(calls, call)
	}
	calls = records.Interleave(calls)

	obj := writer.Object()

	metadata := obj.Name("metadata").Object()
	metadata.Name("source_file").StringOrNull(data.SourceFile != "", data.SourceFile)
	metadata.Name("total_calls").Int(len(calls))
	metadata.Name("vidheap_calls").Int(len(data.Allocations))
	metadata.Name("mapmemory_calls").Int(len(data.Mappings))
	metadata.Name("dupobject_calls").Int(len(data.Duplications))
	metadata.Name("alias_map_entries").Int(data.Correlator.Aliases().Len())
	metadata.Name("allocation_map_entries").Int(data.Correlator.Index().Len())
	metadata.End()

	callArray := obj.Name("calls").Array()
	for _, rec := range calls {
		callObj := callArray.Object()
		switch call := rec.(type) {
		case *records.AllocationCall:
			printAllocation(&callObj, call)
		case *records.MappingCall:
			printMapping(&callObj, call, data.Correlator.Relate(call))
		}
		callObj.End()
	}
	callArray.End()

	obj.End()

	if err := writer.Flush(); err != nil {
		return errors.Wrap(err, "failed to write JSON export")
	}
	return errors.Wrap(writer.Error(), "failed to encode JSON export")
}

func printValue(json *jwriter.ObjectState, name string, v records.Value) {
	json.Name(name).String(v.String())
}

func printDescriptor(json *jwriter.ObjectState, d *records.AllocationDescriptor) {
	printValue(json, "owner", d.Owner)
	printValue(json, "hMemory", d.HMemory)
	printValue(json, "type", d.Type)
	printValue(json, "flags", d.Flags)
	printValue(json, "attr", d.Attr)
	printValue(json, "format", d.Format)
	printValue(json, "comprCovg", d.ComprCovg)
	printValue(json, "zcullCovg", d.ZcullCovg)
	printValue(json, "width", d.Width)
	printValue(json, "height", d.Height)
	printValue(json, "size", d.Size)
	printValue(json, "alignment", d.Alignment)
	printValue(json, "offset", d.Offset)
	printValue(json, "limit", d.Limit)
	printValue(json, "address", d.Address)
	printValue(json, "rangeBegin", d.RangeBegin)
	printValue(json, "rangeEnd", d.RangeEnd)
	printValue(json, "attr2", d.Attr2)
	printValue(json, "ctagOffset", d.CtagOffset)
	printValue(json, "numaNode", d.NumaNode)
}

func printAllocation(json *jwriter.ObjectState, call *records.AllocationCall) {
	json.Name("line_number").Int(call.Line())
	printValue(json, "hRoot", call.HRoot)
	printValue(json, "hObjectParent", call.HObjectParent)
	printValue(json, "function", call.Function)
	printValue(json, "hVASpace", call.HVASpace)
	printValue(json, "ivcHeapNumber", call.IvcHeapNumber)
	printValue(json, "status_before", call.StatusBefore)
	printValue(json, "total", call.Total)
	printValue(json, "free", call.Free)

	before := json.Name("alloc_size_before").Object()
	printDescriptor(&before, &call.Before)
	before.End()

	// null pointers are exported as JSON null
	json.Name("alloc_ptr").StringOrNull(!call.AllocPtr.IsNull(), call.AllocPtr.String())
	json.Name("bl_ptr").StringOrNull(!call.BlPtr.IsNull(), call.BlPtr.String())
	printValue(json, "status_after", call.Status)
	json.Name("duration_ns").Int(int(call.DurationNs))

	after := json.Name("alloc_size_after").Object()
	printDescriptor(&after, &call.After)
	after.End()

	json.Name("call_type").String(records.KindAllocation.String())
}

func printMapping(json *jwriter.ObjectState, call *records.MappingCall, correlation correlate.Correlation) {
	json.Name("line_number").Int(call.Line())
	printValue(json, "hClient", call.HClient)
	printValue(json, "hDevice", call.HDevice)
	printValue(json, "hDma", call.HDma)
	printValue(json, "hMemory", call.HMemory)
	printValue(json, "offset", call.Offset)
	printValue(json, "length", call.Length)
	printValue(json, "flags", call.Flags)
	printValue(json, "flags2", call.Flags2)
	printValue(json, "kindOverride", call.KindOverride)
	printValue(json, "dmaOffset_before", call.DmaOffsetBefore)
	printValue(json, "status", call.Status)
	json.Name("duration_ns").Int(int(call.DurationNs))
	printValue(json, "dmaOffset_after", call.DmaOffsetAfter)
	json.Name("call_type").String(records.KindMapping.String())

	printRelation(json, "related_allocation_hmemory", "hMemory", correlation.Memory)
	printRelation(json, "related_allocation_hdma", "hDma", correlation.Dma)
}

func printRelation(json *jwriter.ObjectState, name, source string, relation *correlate.Relation) {
	if relation == nil {
		json.Name(name).Null()
		return
	}

	obj := json.Name(name).Object()
	defer obj.End()

	alloc := relation.Allocation
	obj.Name("source").String(source)
	obj.Name("line").Int(alloc.Line())
	printValue(&obj, "size", alloc.After.Size)
	printValue(&obj, "type", alloc.After.Type)
	printValue(&obj, "hMemory", alloc.After.HMemory)
	printValue(&obj, "attr", alloc.After.Attr)
	printValue(&obj, "attr2", alloc.After.Attr2)
	obj.Name("resolved_from").StringOrNull(relation.Aliased, relation.Origin.String())
}
