package records

import "github.com/vkngwrapper/rmlog/rmutils"

// Handle is an opaque driver object identifier. It is not a memory address.
type Handle uint64

const (
	NoHandle Handle = 0
)

func (h Handle) String() string {
	return rmutils.Hex(uint64(h))
}

// StatusSuccess is the status code the driver reports for a successful call
const StatusSuccess uint64 = 0
