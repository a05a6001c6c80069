package report

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/vkngwrapper/rmlog/bitfield"
	"github.com/vkngwrapper/rmlog/correlate"
	"github.com/vkngwrapper/rmlog/records"
)

// Locations lists the memory locations a Filter can select on
var Locations = []string{"VIDMEM", "PCI", "ANY"}

// Filter selects the records a report shows
type Filter struct {
	// Kinds lists the record kinds to show, all of them when empty
	Kinds []records.Kind
	// Location keeps only records tied to an allocation in that memory location, when set.
	// Mappings match through either related allocation and duplications through their source.
	Location string
}

// ParseLocation validates a location name, case-insensitively. The empty string means no filter.
func ParseLocation(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	upper := strings.ToUpper(s)
	if !lo.Contains(Locations, upper) {
		return "", errors.Newf("unknown memory location %q, expected one of %s", s, strings.Join(Locations, ", "))
	}
	return upper, nil
}

// SelectKinds turns the command line's kind switches into a kind list. Explicit filter types
// win; otherwise each only flag hides the other allocation-side kind and duplications always show.
func SelectKinds(filterTypes []string, onlyAllocations, onlyMappings bool) ([]records.Kind, error) {
	if len(filterTypes) > 0 {
		kinds := make([]records.Kind, 0, len(filterTypes))
		for _, name := range filterTypes {
			kind, err := records.ParseKind(name)
			if err != nil {
				return nil, err
			}
			kinds = append(kinds, kind)
		}
		return lo.Uniq(kinds), nil
	}

	var kinds []records.Kind
	if !onlyMappings {
		kinds = append(kinds, records.KindAllocation)
	}
	if !onlyAllocations {
		kinds = append(kinds, records.KindMapping)
	}
	return append(kinds, records.KindDuplication), nil
}

// Shows returns true if the filter lets records of kind through
func (f Filter) Shows(kind records.Kind) bool {
	return len(f.Kinds) == 0 || lo.Contains(f.Kinds, kind)
}

// Match returns true if rec passes both the kind and the location filter
func (f Filter) Match(rec records.Record, correlator *correlate.Correlator) bool {
	if !f.Shows(rec.Kind()) {
		return false
	}
	if f.Location == "" {
		return true
	}

	switch call := rec.(type) {
	case *records.AllocationCall:
		return f.locatedIn(call)
	case *records.MappingCall:
		correlation := correlator.Relate(call)
		return (correlation.Memory != nil && f.locatedIn(correlation.Memory.Allocation)) ||
			(correlation.Dma != nil && f.locatedIn(correlation.Dma.Allocation))
	case *records.DuplicationCall:
		source := correlator.SourceOf(call)
		return source != nil && f.locatedIn(source.Allocation)
	}
	return false
}

// Apply returns the records of recs that Match, keeping their order
func (f Filter) Apply(recs []records.Record, correlator *correlate.Correlator) []records.Record {
	return lo.Filter(recs, func(rec records.Record, _ int) bool {
		return f.Match(rec, correlator)
	})
}

func (f Filter) locatedIn(call *records.AllocationCall) bool {
	return bitfield.Location(call.After.Attr.Uint64()) == f.Location
}
