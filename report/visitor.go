package report

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/rmlog/records"
)

//go:generate mockgen -destination mocks/visitor.go -package mock_report github.com/vkngwrapper/rmlog/report Visitor

// Visitor receives records one at a time in line order. The position is 1-based.
type Visitor interface {
	VisitAllocation(position int, call *records.AllocationCall) error
	VisitMapping(position int, call *records.MappingCall) error
	VisitDuplication(position int, call *records.DuplicationCall) error
}

// Walk orders recs by line number and hands each to visitor. An error from one record does
// not stop the walk; all errors are combined into the returned error.
func Walk(recs []records.Record, visitor Visitor) error {
	var walkErr error
	for i, rec := range records.Interleave(recs) {
		position := i + 1

		var err error
		switch call := rec.(type) {
		case *records.AllocationCall:
			err = visitor.VisitAllocation(position, call)
		case *records.MappingCall:
			err = visitor.VisitMapping(position, call)
		case *records.DuplicationCall:
			err = visitor.VisitDuplication(position, call)
		default:
			err = errors.Newf("unsupported record type %T", rec)
		}

		if err != nil {
			walkErr = errors.CombineErrors(walkErr, errors.Wrapf(err, "line %d", rec.Line()))
		}
	}
	return walkErr
}
