// Package report renders decoded driver calls as a console detail report, a statistics
// summary and a JSON export.
package report

import (
	"github.com/vkngwrapper/rmlog/correlate"
	"github.com/vkngwrapper/rmlog/records"
)

// Dataset is the fully correlated content of one log, shared read-only by every report
type Dataset struct {
	SourceFile   string
	Allocations  []*records.AllocationCall
	Mappings     []*records.MappingCall
	Duplications []*records.DuplicationCall
	Correlator   *correlate.Correlator
}

// Records returns every call of the dataset ordered by line number
func (d *Dataset) Records() []records.Record {
	recs := make([]records.Record, 0, len(d.Allocations)+len(d.Mappings)+len(d.Duplications))
	for _, call := range d.Allocations {
		recs = append(recs, call)
	}
	for _, call := range d.Mappings {
		recs = append(recs, call)
	}
	for _, call := range d.Duplications {
		recs = append(recs, call)
	}
	return records.Interleave(recs)
}
