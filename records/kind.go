package records

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind identifies which driver call a record was decoded from
type Kind uint8

const (
	KindAllocation Kind = iota + 1
	KindMapping
	KindDuplication
)

var kindNames = map[Kind]string{
	KindAllocation:  "vidHeapControl",
	KindMapping:     "mapMemoryDma",
	KindDuplication: "dupObject",
}

var kindFilterNames = map[string]Kind{
	"vidheap":   KindAllocation,
	"mapmemory": KindMapping,
	"dupobject": KindDuplication,
}

// AllKinds lists every record kind in report order
var AllKinds = []Kind{KindAllocation, KindMapping, KindDuplication}

// String returns the driver call name the kind was decoded from
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind accepts either the driver call name or the short filter spelling (vidheap, mapmemory, dupobject)
func ParseKind(s string) (Kind, error) {
	lowered := strings.ToLower(s)
	if k, ok := kindFilterNames[lowered]; ok {
		return k, nil
	}
	for k, name := range kindNames {
		if strings.ToLower(name) == lowered {
			return k, nil
		}
	}
	return 0, errors.Newf("unknown record kind %q", s)
}
