package correlate

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/rmlog/records"
	"github.com/vkngwrapper/rmlog/rmutils"
	"golang.org/x/exp/slog"
)

// ReusePolicy decides which allocation owns a handle that the log shows being returned by
// more than one allocation call
type ReusePolicy uint8

const (
	// ReuseLastWriteWins attributes the handle to the latest allocation in the log
	ReuseLastWriteWins ReusePolicy = iota
	// ReuseFirstWriteWins keeps the handle attributed to the earliest allocation
	ReuseFirstWriteWins
)

var reusePolicyNames = map[ReusePolicy]string{
	ReuseLastWriteWins:  "last-write-wins",
	ReuseFirstWriteWins: "first-write-wins",
}

func (p ReusePolicy) String() string {
	if name, ok := reusePolicyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("ReusePolicy(%d)", uint8(p))
}

// ParseReusePolicy accepts the names String returns
func ParseReusePolicy(s string) (ReusePolicy, error) {
	for policy, name := range reusePolicyNames {
		if name == s {
			return policy, nil
		}
	}
	return 0, errors.Newf("unknown handle reuse policy %q", s)
}

// HandleReuse records one allocation handle returned by two allocation calls
type HandleReuse struct {
	Handle records.Handle
	// Previous held the handle before Current was indexed
	Previous *records.AllocationCall
	Current  *records.AllocationCall
	// Kept is whichever of the two the index attributes the handle to
	Kept *records.AllocationCall
}

type IndexOptions struct {
	// Logger receives a warning per reused handle. Nil discards them.
	Logger      *slog.Logger
	ReusePolicy ReusePolicy
}

// AllocationIndex finds the allocation call behind any handle, whether the handle was
// returned by the allocation itself or created later by duplicating it. It is immutable once
// built and safe for concurrent reads.
type AllocationIndex struct {
	entries    *swiss.Map[records.Handle, *records.AllocationCall]
	originals  int
	aliasEdges int
	reuses     []HandleReuse
	policy     ReusePolicy
}

// NewAllocationIndex indexes every allocation call that returned a handle, then adds an entry
// for every alias whose chain resolves to an indexed handle
func NewAllocationIndex(allocs []*records.AllocationCall, aliases *AliasMap, opts IndexOptions) *AllocationIndex {
	logger := rmutils.LoggerOrDiscard(opts.Logger)

	index := &AllocationIndex{
		entries:    swiss.NewMap[records.Handle, *records.AllocationCall](uint32(len(allocs) + aliases.Len())),
		aliasEdges: aliases.Len(),
		policy:     opts.ReusePolicy,
	}

	for _, alloc := range allocs {
		h := alloc.MemoryHandle()
		if h == records.NoHandle {
			continue
		}

		previous, exists := index.entries.Get(h)
		if !exists {
			index.entries.Put(h, alloc)
			continue
		}

		reuse := HandleReuse{Handle: h, Previous: previous, Current: alloc, Kept: alloc}
		if opts.ReusePolicy == ReuseFirstWriteWins {
			reuse.Kept = previous
		} else {
			index.entries.Put(h, alloc)
		}
		index.reuses = append(index.reuses, reuse)

		logger.Warn("allocation handle reused",
			slog.String("Handle", h.String()),
			slog.Int("PreviousLine", previous.Line()),
			slog.Int("Line", alloc.Line()),
			slog.String("Policy", opts.ReusePolicy.String()),
		)
	}
	index.originals = index.entries.Count()

	aliases.Each(func(dest, src records.Handle) bool {
		origin := aliases.Resolve(src)
		if alloc, ok := index.entries.Get(origin); ok {
			index.entries.Put(dest, alloc)
		}
		return true
	})

	logger.Debug("AllocationIndex::New",
		slog.Int("Originals", index.originals),
		slog.Int("Entries", index.entries.Count()),
		slog.Int("Reuses", len(index.reuses)),
	)

	rmutils.DebugValidate(index)
	return index
}

// Lookup returns the allocation behind h, original or aliased
func (i *AllocationIndex) Lookup(h records.Handle) (*records.AllocationCall, bool) {
	if h == records.NoHandle {
		return nil, false
	}
	return i.entries.Get(h)
}

// Len returns the number of indexed handles, aliases included
func (i *AllocationIndex) Len() int {
	return i.entries.Count()
}

// Originals returns the number of handles indexed from allocation calls directly
func (i *AllocationIndex) Originals() int {
	return i.originals
}

// Reuses lists every handle returned by more than one allocation call, in log order
func (i *AllocationIndex) Reuses() []HandleReuse {
	return i.reuses
}

func (i *AllocationIndex) Policy() ReusePolicy {
	return i.policy
}

func (i *AllocationIndex) Validate() error {
	count := i.entries.Count()
	if count < i.originals {
		return errors.Newf("index holds %d entries but %d original allocations", count, i.originals)
	}
	if count > i.originals+i.aliasEdges {
		return errors.Newf("index holds %d entries, more than %d originals plus %d aliases", count, i.originals, i.aliasEdges)
	}

	var err error
	i.entries.Iter(func(h records.Handle, alloc *records.AllocationCall) bool {
		if alloc == nil {
			err = errors.Newf("handle %s is indexed without an allocation", h)
			return true
		}
		if h == records.NoHandle {
			err = errors.New("the null handle is indexed")
			return true
		}
		return false
	})
	return err
}
