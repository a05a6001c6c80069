package correlate

import (
	"github.com/vkngwrapper/rmlog/records"
)

// Relation is one handle of a call matched to an allocation
type Relation struct {
	// Query is the handle as the call logged it
	Query records.Handle
	// Origin is Query with its alias chain resolved. It equals Query when Aliased is false.
	Origin     records.Handle
	Aliased    bool
	Allocation *records.AllocationCall
}

// Correlation is everything known about the allocations a mapping call refers to
type Correlation struct {
	Mapping *records.MappingCall
	// Memory is the allocation found through hMemory, or nil
	Memory *Relation
	// Dma is the allocation found through hDma, or nil. It is also nil when hDma found the
	// same allocation as hMemory, in which case DmaSameAsMemory is set.
	Dma             *Relation
	DmaSameAsMemory bool
}

// Missing returns true if neither handle of the mapping led to an allocation
func (c Correlation) Missing() bool {
	return c.Memory == nil && c.Dma == nil
}

// Coverage counts how many mapping calls could be tied to an allocation
type Coverage struct {
	Total      int
	WithMemory int
	WithDma    int
	WithAny    int
}

// Correlator answers allocation queries against a fully built index. It never mutates the
// index or alias map, so any number of goroutines may share one.
type Correlator struct {
	aliases *AliasMap
	index   *AllocationIndex
}

func NewCorrelator(aliases *AliasMap, index *AllocationIndex) *Correlator {
	return &Correlator{aliases: aliases, index: index}
}

func (c *Correlator) Aliases() *AliasMap {
	return c.aliases
}

func (c *Correlator) Index() *AllocationIndex {
	return c.index
}

// Find looks up the allocation behind h, or returns nil
func (c *Correlator) Find(h records.Handle) *Relation {
	alloc, ok := c.index.Lookup(h)
	if !ok {
		return nil
	}

	relation := &Relation{Query: h, Origin: h, Allocation: alloc}
	if c.aliases.IsAlias(h) {
		relation.Aliased = true
		relation.Origin = c.aliases.Resolve(h)
	}
	return relation
}

// Relate looks up both handles of a mapping call independently
func (c *Correlator) Relate(m *records.MappingCall) Correlation {
	correlation := Correlation{
		Mapping: m,
		Memory:  c.Find(m.HMemory.Handle()),
		Dma:     c.Find(m.HDma.Handle()),
	}

	if correlation.Memory != nil && correlation.Dma != nil &&
		correlation.Memory.Allocation == correlation.Dma.Allocation {
		correlation.Dma = nil
		correlation.DmaSameAsMemory = true
	}
	return correlation
}

// SourceOf returns the allocation a duplication call copied a handle of, or nil
func (c *Correlator) SourceOf(d *records.DuplicationCall) *Relation {
	return c.Find(d.HObjectSrc.Handle())
}

// Coverage counts how many of mappings reference an indexed allocation by each handle
func (c *Correlator) Coverage(mappings []*records.MappingCall) Coverage {
	coverage := Coverage{Total: len(mappings)}
	for _, m := range mappings {
		_, memory := c.index.Lookup(m.HMemory.Handle())
		_, dma := c.index.Lookup(m.HDma.Handle())

		if memory {
			coverage.WithMemory++
		}
		if dma {
			coverage.WithDma++
		}
		if memory || dma {
			coverage.WithAny++
		}
	}
	return coverage
}
