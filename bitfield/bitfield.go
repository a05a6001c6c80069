// Package bitfield decodes the packed parameter words attached to driver resource calls
// (NVOS32 allocation flags, attributes and NVOS46 mapping flags) into symbolic names.
package bitfield

import "strconv"

// Layout identifies one of the fixed bit layouts the decoder knows about
type Layout uint8

const (
	// LayoutAllocFlags is the NVOS32 allocation flags mask
	LayoutAllocFlags Layout = iota
	// LayoutAttr is the NVOS32 ATTR word
	LayoutAttr
	// LayoutAttr2 is the NVOS32 ATTR2 word
	LayoutAttr2
	// LayoutMapFlags is the NVOS46 FLAGS word passed to mapMemoryDma
	LayoutMapFlags
	// LayoutMapFlags2 is the NVOS46 FLAGS2 word passed to mapMemoryDma
	LayoutMapFlags2
)

// Layouts lists every layout the decoder supports
var Layouts = []Layout{LayoutAllocFlags, LayoutAttr, LayoutAttr2, LayoutMapFlags, LayoutMapFlags2}

var layoutNames = map[Layout]string{
	LayoutAllocFlags: "NVOS32_ALLOC_FLAGS",
	LayoutAttr:       "NVOS32_ATTR",
	LayoutAttr2:      "NVOS32_ATTR2",
	LayoutMapFlags:   "NVOS46_FLAGS",
	LayoutMapFlags2:  "NVOS46_FLAGS2",
}

func (l Layout) String() string {
	if name, ok := layoutNames[l]; ok {
		return name
	}
	return "Layout(" + strconv.Itoa(int(l)) + ")"
}

// field is a named, inclusive bit range [high:low] with an optional table of symbolic names
type field struct {
	name  string
	high  uint
	low   uint
	names map[uint64]string
}

func (f field) extract(value uint64) uint64 {
	mask := uint64(1)<<(f.high-f.low+1) - 1
	return (value >> f.low) & mask
}

func (f field) symbol(code uint64) string {
	if name, ok := f.names[code]; ok {
		return name
	}
	return strconv.FormatUint(code, 10)
}

// FieldValue is one decoded sub-field
type FieldValue struct {
	Name  string
	High  uint
	Low   uint
	Code  uint64
	Value string
}

// Decoded is the ordered result of decoding a word, in the layout's field order (low bits first)
type Decoded []FieldValue

// Get returns the symbolic value of the named field
func (d Decoded) Get(name string) (string, bool) {
	for _, f := range d {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Lookup returns the symbolic value of the named field or the empty string
func (d Decoded) Lookup(name string) string {
	v, _ := d.Get(name)
	return v
}

// Decode extracts and names every field of the layout from value. Bits outside the layout's
// ranges are ignored and codes without a symbolic name render as decimal, so decoding never fails.
func Decode(layout Layout, value uint64) Decoded {
	fields := layoutFields(layout)
	out := make(Decoded, 0, len(fields))
	for _, f := range fields {
		code := f.extract(value)
		out = append(out, FieldValue{
			Name:  f.name,
			High:  f.high,
			Low:   f.low,
			Code:  code,
			Value: f.symbol(code),
		})
	}
	return out
}

// Fields returns the field names of a layout in decode order
func Fields(layout Layout) []string {
	fields := layoutFields(layout)
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.name)
	}
	return names
}

func layoutFields(layout Layout) []field {
	switch layout {
	case LayoutAllocFlags:
		return allocFlagsFields
	case LayoutAttr:
		return attrFields
	case LayoutAttr2:
		return attr2Fields
	case LayoutMapFlags:
		return mapFlagsFields
	case LayoutMapFlags2:
		return mapFlags2Fields
	}
	return nil
}

// ActiveFlags returns the names of the allocation flag bits set in value, lowest bit first
func ActiveFlags(value uint64) []string {
	var active []string
	for _, f := range allocFlagsFields {
		if f.extract(value) != 0 {
			active = append(active, f.name)
		}
	}
	return active
}

// TypeName returns the NVOS32 memory type name for a type code
func TypeName(code uint64) string {
	if name, ok := typeNames[code]; ok {
		return name
	}
	return "UNKNOWN(" + strconv.FormatUint(code, 10) + ")"
}

// Location returns the memory location (VIDMEM, PCI, ANY) encoded in an ATTR word
func Location(attr uint64) string {
	return Decode(LayoutAttr, attr).Lookup("location")
}
