package bitfield

var (
	yesNo         = map[uint64]string{0: "NO", 1: "YES"}
	trueFalse     = map[uint64]string{0: "FALSE", 1: "TRUE"}
	enableDisable = map[uint64]string{0: "DISABLE", 1: "ENABLE"}
	setClear      = map[uint64]string{0: "CLEAR", 1: "SET"}
	cacheable     = map[uint64]string{0: "DEFAULT", 1: "YES", 2: "NO", 3: "INVALID"}
)

var typeNames = map[uint64]string{
	0:  "IMAGE",
	1:  "DEPTH",
	2:  "TEXTURE",
	3:  "VIDEO",
	4:  "FONT",
	5:  "CURSOR",
	6:  "DMA",
	7:  "INSTANCE",
	8:  "PRIMARY",
	9:  "ZCULL",
	10: "UNUSED",
	11: "SHADER_PROGRAM",
	12: "OWNER_RM",
	13: "NOTIFIER",
	14: "RESERVED",
	15: "PMA",
	16: "STENCIL",
	17: "SYNCPOINT",
}

func flagBit(bit uint, name string) field {
	return field{name: name, high: bit, low: bit, names: setClear}
}

var allocFlagsFields = []field{
	flagBit(0, "IGNORE_BANK_PLACEMENT"),
	flagBit(1, "FORCE_MEM_GROWS_UP"),
	flagBit(2, "FORCE_MEM_GROWS_DOWN"),
	flagBit(3, "FORCE_ALIGN_HOST_PAGE"),
	flagBit(4, "FIXED_ADDRESS_ALLOCATE"),
	flagBit(5, "BANK_HINT"),
	flagBit(6, "BANK_FORCE"),
	flagBit(7, "ALIGNMENT_HINT"),
	flagBit(8, "ALIGNMENT_FORCE"),
	flagBit(9, "BANK_GROW_DOWN"),
	flagBit(10, "LAZY"),
	flagBit(11, "FORCE_REVERSE_ALLOC"),
	flagBit(12, "NO_SCANOUT"),
	flagBit(13, "PITCH_FORCE"),
	flagBit(14, "MEMORY_HANDLE_PROVIDED"),
	flagBit(15, "MAP_NOT_REQUIRED"),
	flagBit(16, "PERSISTENT_VIDMEM"),
	flagBit(17, "USE_BEGIN_END"),
	flagBit(18, "TURBO_CIPHER_ENCRYPTED"),
	flagBit(19, "VIRTUAL"),
	flagBit(20, "FORCE_INTERNAL_INDEX"),
	flagBit(21, "ZCULL_COVG_SPECIFIED"),
	flagBit(22, "EXTERNALLY_MANAGED"),
	flagBit(23, "FORCE_DEDICATED_PDE"),
	flagBit(24, "PROTECTED"),
	flagBit(25, "KERNEL_MAPPING_MAP/MAXIMIZE_ADDRESS_SPACE"),
	flagBit(26, "SPARSE/USER_READ_ONLY"),
	flagBit(27, "DEVICE_READ_ONLY"),
	flagBit(28, "SKIP_RESOURCE_ALLOC"),
	flagBit(29, "PREFER_PTES_IN_SYSMEMORY"),
	flagBit(30, "SKIP_ALIGN_PAD/WPR1"),
	flagBit(31, "ZCULL_DONT_ALLOCATE_SHARED_1X/WPR2"),
}

var attrFields = []field{
	{name: "depth", high: 2, low: 0, names: map[uint64]string{0: "UNKNOWN", 1: "8", 2: "16", 3: "24", 4: "32", 5: "64", 6: "128"}},
	{name: "compr_covg", high: 3, low: 3, names: map[uint64]string{0: "DEFAULT", 1: "PROVIDED"}},
	{name: "aa_samples", high: 7, low: 4, names: map[uint64]string{
		0: "1", 1: "2", 2: "4", 3: "4_ROTATED", 4: "6", 5: "8", 6: "16",
		7: "4_VIRTUAL_8", 8: "4_VIRTUAL_16", 9: "8_VIRTUAL_16", 10: "8_VIRTUAL_32",
	}},
	{name: "gpu_cache_snoop", high: 9, low: 8, names: map[uint64]string{0: "MAPPING", 1: "OFF", 2: "ON", 3: "INVALID"}},
	{name: "zcull", high: 11, low: 10, names: map[uint64]string{0: "NONE", 1: "REQUIRED", 2: "ANY", 3: "SHARED"}},
	{name: "compr", high: 13, low: 12, names: map[uint64]string{0: "NONE", 1: "REQUIRED", 2: "ANY", 3: "DISABLE_PLC_ANY"}},
	{name: "reserved_heap", high: 14, low: 14, names: yesNo},
	{name: "format", high: 17, low: 16, names: map[uint64]string{0: "PITCH", 1: "SWIZZLED", 2: "BLOCK_LINEAR"}},
	{name: "z_type", high: 18, low: 18, names: map[uint64]string{0: "FIXED", 1: "FLOAT"}},
	{name: "zs_packing", high: 21, low: 19, names: map[uint64]string{
		0: "Z24S8/S8", 1: "S8Z24", 2: "Z32", 3: "Z24X8", 4: "X8Z24", 5: "Z32_X24S8", 6: "X8Z24_X24S8", 7: "Z16",
	}},
	{name: "page_size", high: 24, low: 23, names: map[uint64]string{0: "DEFAULT", 1: "4KB", 2: "BIG", 3: "HUGE"}},
	{name: "location", high: 26, low: 25, names: map[uint64]string{0: "VIDMEM", 1: "PCI", 3: "ANY"}},
	{name: "physicality", high: 28, low: 27, names: map[uint64]string{0: "DEFAULT", 1: "NONCONTIGUOUS", 2: "CONTIGUOUS", 3: "ALLOW_NONCONTIGUOUS"}},
	{name: "coherency", high: 31, low: 29, names: map[uint64]string{
		0: "UNCACHED", 1: "CACHED", 2: "WRITE_COMBINE", 3: "WRITE_THROUGH", 4: "WRITE_PROTECT", 5: "WRITE_BACK",
	}},
}

var attr2Fields = []field{
	{name: "zbc", high: 1, low: 0, names: map[uint64]string{0: "DEFAULT", 1: "PREFER_NO_ZBC", 2: "PREFER_ZBC", 3: "REQUIRE_ONLY_ZBC"}},
	{name: "gpu_cacheable", high: 3, low: 2, names: cacheable},
	{name: "p2p_gpu_cacheable", high: 5, low: 4, names: cacheable},
	{name: "32bit_pointer", high: 6, low: 6, names: enableDisable},
	{name: "fixed_numa", high: 7, low: 7, names: yesNo},
	{name: "smmu_on_gpu", high: 9, low: 8, names: map[uint64]string{0: "DEFAULT", 1: "DISABLE", 2: "ENABLE"}},
	{name: "scanout_carveout", high: 10, low: 10, names: trueFalse},
	{name: "compcacheline_align", high: 11, low: 11, names: map[uint64]string{0: "OFF", 1: "ON"}},
	{name: "priority", high: 13, low: 12, names: map[uint64]string{0: "DEFAULT", 1: "HIGH", 2: "LOW"}},
	{name: "internal", high: 14, low: 14, names: yesNo},
	{name: "prefer_2c", high: 15, low: 15, names: yesNo},
	{name: "niso_display", high: 16, low: 16, names: yesNo},
	{name: "zbc_skip_refcount", high: 17, low: 17, names: yesNo},
	{name: "iso", high: 18, low: 18, names: yesNo},
	{name: "page_offlining", high: 19, low: 19, names: map[uint64]string{0: "ON", 1: "OFF"}},
	{name: "page_size_huge", high: 21, low: 20, names: map[uint64]string{0: "DEFAULT", 1: "2MB", 2: "512MB", 3: "256GB"}},
	{name: "protection_user", high: 22, low: 22, names: map[uint64]string{0: "READ_WRITE", 1: "READ_ONLY"}},
	{name: "protection_device", high: 23, low: 23, names: map[uint64]string{0: "READ_WRITE", 1: "READ_ONLY"}},
	{name: "memory_protection", high: 26, low: 25, names: map[uint64]string{0: "DEFAULT", 1: "PROTECTED", 2: "UNPROTECTED"}},
	{name: "allocate_from_subheap", high: 27, low: 27, names: yesNo},
	{name: "localized_memory", high: 30, low: 29, names: map[uint64]string{0: "DEFAULT", 1: "UGPU0", 2: "UGPU1"}},
	{name: "register_memdesc", high: 31, low: 31, names: trueFalse},
}

var mapFlagsFields = []field{
	{name: "access", high: 1, low: 0, names: map[uint64]string{0: "READ_WRITE", 1: "READ_ONLY", 2: "WRITE_ONLY"}},
	{name: "32bit_pointer", high: 2, low: 2, names: enableDisable},
	{name: "page_kind", high: 3, low: 3, names: map[uint64]string{0: "PHYSICAL", 1: "VIRTUAL"}},
	{name: "cache_snoop", high: 4, low: 4, names: enableDisable},
	{name: "kernel_mapping", high: 5, low: 5, names: map[uint64]string{0: "NONE", 1: "ENABLE"}},
	{name: "shader_access", high: 7, low: 6, names: map[uint64]string{0: "DEFAULT", 1: "READ_ONLY", 2: "WRITE_ONLY", 3: "READ_WRITE"}},
	{name: "page_size", high: 11, low: 8, names: map[uint64]string{0: "DEFAULT", 1: "4KB", 2: "BIG", 3: "BOTH", 4: "HUGE", 5: "512M"}},
	{name: "system_l3_alloc", high: 13, low: 13, names: map[uint64]string{0: "DEFAULT", 1: "ENABLE_HINT"}},
	{name: "dma_offset_grows", high: 14, low: 14, names: map[uint64]string{0: "UP", 1: "DOWN"}},
	{name: "dma_offset_fixed", high: 15, low: 15, names: trueFalse},
	{name: "disable_encryption", high: 16, low: 16, names: trueFalse},
	{name: "gpu_cacheable", high: 18, low: 17, names: cacheable},
	{name: "page_kind_override", high: 19, low: 19, names: yesNo},
	{name: "p2p_enable", high: 21, low: 20, names: map[uint64]string{0: "NO", 1: "YES/SLI", 2: "NOSLI", 3: "LOOPBACK"}},
	{name: "p2p_subdev_src", high: 24, low: 22},
	{name: "p2p_subdev_tgt", high: 27, low: 25},
	{name: "tlb_lock", high: 28, low: 28, names: enableDisable},
	{name: "dma_unicast_reuse", high: 29, low: 29, names: trueFalse},
	{name: "force_compressed", high: 30, low: 30, names: trueFalse},
	{name: "defer_tlb_inval", high: 31, low: 31, names: trueFalse},
}

var mapFlags2Fields = []field{
	{name: "gpu_cache_snoop", high: 1, low: 0, names: map[uint64]string{0: "DEFAULT", 1: "ENABLE", 2: "DISABLE"}},
}
