package bitfield_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/rmlog/bitfield"
)

func TestDecodeIsTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	samples := []uint64{0, 1, math.MaxUint32, 0x80000000, 0x55555555, 0xaaaaaaaa, math.MaxUint64}
	for i := 0; i < 512; i++ {
		samples = append(samples, uint64(rng.Uint32()))
	}

	for _, layout := range bitfield.Layouts {
		names := bitfield.Fields(layout)
		require.NotEmpty(t, names, layout.String())

		allowed := make(map[string]bool, len(names))
		for _, name := range names {
			allowed[name] = true
		}

		for _, v := range samples {
			decoded := bitfield.Decode(layout, v)
			require.Len(t, decoded, len(names))
			for _, f := range decoded {
				require.True(t, allowed[f.Name], "%s: unexpected field %s", layout, f.Name)
				require.NotEmpty(t, f.Value)
				require.Less(t, f.Code, uint64(1)<<(f.High-f.Low+1))
			}
		}
	}
}

func TestLayoutRangesDoNotOverlap(t *testing.T) {
	for _, layout := range bitfield.Layouts {
		var used uint64
		for _, f := range bitfield.Decode(layout, 0) {
			require.GreaterOrEqual(t, f.High, f.Low)
			require.Less(t, f.High, uint(32))

			mask := (uint64(1)<<(f.High-f.Low+1) - 1) << f.Low
			require.Zero(t, used&mask, "%s: %s overlaps", layout, f.Name)
			used |= mask
		}
	}
}

var attrTestCases = map[string]struct {
	Value  uint64
	Fields map[string]string
}{
	"Zero": {
		Value: 0,
		Fields: map[string]string{
			"depth":       "UNKNOWN",
			"location":    "VIDMEM",
			"format":      "PITCH",
			"page_size":   "DEFAULT",
			"physicality": "DEFAULT",
			"coherency":   "UNCACHED",
		},
	},
	"PCI Write Combine": {
		Value: 1<<25 | 2<<29,
		Fields: map[string]string{
			"location":  "PCI",
			"coherency": "WRITE_COMBINE",
		},
	},
	"Block Linear Big Pages Contiguous": {
		Value: 2<<16 | 2<<23 | 2<<27,
		Fields: map[string]string{
			"format":      "BLOCK_LINEAR",
			"page_size":   "BIG",
			"physicality": "CONTIGUOUS",
		},
	},
	"Unmapped Location Falls Back To Code": {
		Value: 2 << 25,
		Fields: map[string]string{
			"location": "2",
		},
	},
	"Unmapped Coherency Falls Back To Code": {
		Value: 7 << 29,
		Fields: map[string]string{
			"coherency": "7",
		},
	},
}

func TestDecodeAttr(t *testing.T) {
	for name, testCase := range attrTestCases {
		t.Run(name, func(t *testing.T) {
			decoded := bitfield.Decode(bitfield.LayoutAttr, testCase.Value)
			for field, expected := range testCase.Fields {
				actual, ok := decoded.Get(field)
				require.True(t, ok, field)
				require.Equal(t, expected, actual, field)
			}
		})
	}
}

func TestDecodeAttr2(t *testing.T) {
	decoded := bitfield.Decode(bitfield.LayoutAttr2, 2|1<<2|1<<12|2<<25|1<<31)
	require.Equal(t, "PREFER_ZBC", decoded.Lookup("zbc"))
	require.Equal(t, "YES", decoded.Lookup("gpu_cacheable"))
	require.Equal(t, "HIGH", decoded.Lookup("priority"))
	require.Equal(t, "UNPROTECTED", decoded.Lookup("memory_protection"))
	require.Equal(t, "TRUE", decoded.Lookup("register_memdesc"))
	require.Equal(t, "ON", decoded.Lookup("page_offlining"))
}

func TestDecodeMapFlags(t *testing.T) {
	decoded := bitfield.Decode(bitfield.LayoutMapFlags, 1|2<<8|1<<15|3<<22|5<<25)
	require.Equal(t, "READ_ONLY", decoded.Lookup("access"))
	require.Equal(t, "BIG", decoded.Lookup("page_size"))
	require.Equal(t, "TRUE", decoded.Lookup("dma_offset_fixed"))
	require.Equal(t, "3", decoded.Lookup("p2p_subdev_src"))
	require.Equal(t, "5", decoded.Lookup("p2p_subdev_tgt"))
	require.Equal(t, "DISABLE", decoded.Lookup("tlb_lock"))

	flags2 := bitfield.Decode(bitfield.LayoutMapFlags2, 0xfffffff2)
	require.Len(t, flags2, 1)
	require.Equal(t, "DISABLE", flags2.Lookup("gpu_cache_snoop"))
}

func TestActiveFlags(t *testing.T) {
	require.Empty(t, bitfield.ActiveFlags(0))
	require.Equal(t, []string{"IGNORE_BANK_PLACEMENT", "ALIGNMENT_FORCE", "VIRTUAL"}, bitfield.ActiveFlags(1|1<<8|1<<19))
	require.Len(t, bitfield.ActiveFlags(math.MaxUint32), 32)

	decoded := bitfield.Decode(bitfield.LayoutAllocFlags, 1<<10)
	require.Equal(t, "SET", decoded.Lookup("LAZY"))
	require.Equal(t, "CLEAR", decoded.Lookup("VIRTUAL"))
}

func TestTypeName(t *testing.T) {
	require.Equal(t, "IMAGE", bitfield.TypeName(0))
	require.Equal(t, "SYNCPOINT", bitfield.TypeName(17))
	require.Equal(t, "UNKNOWN(99)", bitfield.TypeName(99))
}

func TestLocation(t *testing.T) {
	require.Equal(t, "VIDMEM", bitfield.Location(0))
	require.Equal(t, "PCI", bitfield.Location(1<<25))
	require.Equal(t, "ANY", bitfield.Location(3<<25))
}

func TestFieldsReturnsCopy(t *testing.T) {
	names := bitfield.Fields(bitfield.LayoutMapFlags2)
	names[0] = "mutated"
	require.Equal(t, []string{"gpu_cache_snoop"}, bitfield.Fields(bitfield.LayoutMapFlags2))
}
