package records

import "golang.org/x/exp/slices"

// Record is one decoded driver call
type Record interface {
	// Line returns the 1-based line number of the call in the log
	Line() int
	Kind() Kind
	// Succeeded returns true if the call's post-call status is the success code
	Succeeded() bool
	// Duration returns the call duration in nanoseconds
	Duration() uint64
}

// AllocationDescriptor is the state of one allocation at a point in time, as carried by the
// AllocSize group of a vidHeapControl call
type AllocationDescriptor struct {
	Owner      Value
	HMemory    Value
	Type       Value
	Flags      Value
	Attr       Value
	Format     Value
	ComprCovg  Value
	ZcullCovg  Value
	Width      Value
	Height     Value
	Size       Value
	Alignment  Value
	Offset     Value
	Limit      Value
	Address    Value
	RangeBegin Value
	RangeEnd   Value
	Attr2      Value
	CtagOffset Value
	NumaNode   Value
}

// AllocationCall is a vidHeapControl call. Before holds the request, After the driver's result.
type AllocationCall struct {
	LineNumber    int
	HRoot         Value
	HObjectParent Value
	Function      Value
	HVASpace      Value
	IvcHeapNumber Value
	StatusBefore  Value
	Total         Value
	Free          Value
	Before        AllocationDescriptor
	After         AllocationDescriptor
	AllocPtr      Value
	BlPtr         Value
	Status        Value
	DurationNs    uint64
}

func (c *AllocationCall) Line() int        { return c.LineNumber }
func (c *AllocationCall) Kind() Kind       { return KindAllocation }
func (c *AllocationCall) Succeeded() bool  { return c.Status.Valid() && c.Status.Uint64() == StatusSuccess }
func (c *AllocationCall) Duration() uint64 { return c.DurationNs }

// MemoryHandle returns the handle the driver assigned to the allocation, or NoHandle
func (c *AllocationCall) MemoryHandle() Handle {
	return c.After.HMemory.Handle()
}

// MappingCall is a mapMemoryDma call mapping hMemory into the address space behind hDma
type MappingCall struct {
	LineNumber      int
	HClient         Value
	HDevice         Value
	HDma            Value
	HMemory         Value
	Offset          Value
	Length          Value
	Flags           Value
	Flags2          Value
	KindOverride    Value
	DmaOffsetBefore Value
	DmaOffsetAfter  Value
	Status          Value
	DurationNs      uint64
}

func (c *MappingCall) Line() int        { return c.LineNumber }
func (c *MappingCall) Kind() Kind       { return KindMapping }
func (c *MappingCall) Succeeded() bool  { return c.Status.Valid() && c.Status.Uint64() == StatusSuccess }
func (c *MappingCall) Duration() uint64 { return c.DurationNs }

// DuplicationCall is a dupObject call. When it succeeds, HObjectDest becomes an alias of HObjectSrc.
type DuplicationCall struct {
	LineNumber  int
	HClient     Value
	HParent     Value
	HClientSrc  Value
	HObjectSrc  Value
	HObjectDest Value
	Flags       Value
	Status      Value
	DurationNs  uint64
}

func (c *DuplicationCall) Line() int        { return c.LineNumber }
func (c *DuplicationCall) Kind() Kind       { return KindDuplication }
func (c *DuplicationCall) Succeeded() bool  { return c.Status.Valid() && c.Status.Uint64() == StatusSuccess }
func (c *DuplicationCall) Duration() uint64 { return c.DurationNs }

// Interleave returns a copy of records ordered by line number. Records sharing a line keep
// their relative order.
func Interleave(recs []Record) []Record {
	out := slices.Clone(recs)
	slices.SortStableFunc(out, func(a, b Record) int {
		return a.Line() - b.Line()
	})
	return out
}
