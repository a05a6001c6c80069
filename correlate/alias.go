// Package correlate links mapping calls back to the allocations they reference, following
// handle aliases created by object duplication.
package correlate

import (
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/rmlog/records"
	"golang.org/x/exp/slices"
)

// AliasMap maps each handle created by a successful duplication to the handle it was
// duplicated from. It is immutable once built.
type AliasMap struct {
	sources *swiss.Map[records.Handle, records.Handle]
}

// NewAliasMap builds the map from duplication calls in log order. Failed duplications are
// ignored, and a later duplication onto the same destination replaces an earlier one.
func NewAliasMap(dups []*records.DuplicationCall) *AliasMap {
	m := &AliasMap{
		sources: swiss.NewMap[records.Handle, records.Handle](uint32(len(dups))),
	}

	for _, dup := range dups {
		if !dup.Succeeded() {
			continue
		}
		dest := dup.HObjectDest.Handle()
		if dest == records.NoHandle {
			continue
		}
		m.sources.Put(dest, dup.HObjectSrc.Handle())
	}

	return m
}

// Resolve follows the alias chain from h until it reaches a handle that is not an alias. If
// the chain loops, it stops at the first handle visited twice. Resolve(Resolve(h)) == Resolve(h).
func (m *AliasMap) Resolve(h records.Handle) records.Handle {
	next, ok := m.sources.Get(h)
	if !ok {
		return h
	}

	seen := map[records.Handle]struct{}{h: {}}
	current := next
	for {
		next, ok = m.sources.Get(current)
		if !ok {
			return current
		}
		if _, visited := seen[current]; visited {
			return current
		}
		seen[current] = struct{}{}
		current = next
	}
}

// Lookup returns the handle dest was duplicated from, one step up the chain
func (m *AliasMap) Lookup(dest records.Handle) (records.Handle, bool) {
	return m.sources.Get(dest)
}

func (m *AliasMap) IsAlias(h records.Handle) bool {
	return m.sources.Has(h)
}

func (m *AliasMap) Len() int {
	return m.sources.Count()
}

// Each calls cb for every alias edge in ascending destination order until cb returns false
func (m *AliasMap) Each(cb func(dest, src records.Handle) bool) {
	dests := make([]records.Handle, 0, m.sources.Count())
	m.sources.Iter(func(dest, _ records.Handle) bool {
		dests = append(dests, dest)
		return false
	})
	slices.Sort(dests)

	for _, dest := range dests {
		src, _ := m.sources.Get(dest)
		if !cb(dest, src) {
			return
		}
	}
}
