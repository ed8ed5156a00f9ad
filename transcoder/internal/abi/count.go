package abi

// DiscriminantSize is the byte width of a case index: 1 for up to 256 cases,
// 2 for up to 65536, 4 otherwise. Alignment equals size.
func DiscriminantSize(numCases int) uint32 {
	switch {
	case numCases <= 1<<8:
		return 1
	case numCases <= 1<<16:
		return 2
	default:
		return 4
	}
}

// FlagsSize returns the in-memory size and alignment of a flags type.
// Up to 16 labels pack into one or two bytes; beyond that the bitset is a
// sequence of 32-bit words.
func FlagsSize(numLabels int) (size, align uint32) {
	switch {
	case numLabels == 0:
		return 0, 1
	case numLabels <= 8:
		return 1, 1
	case numLabels <= 16:
		return 2, 2
	default:
		return 4 * FlagWords(numLabels), 4
	}
}

// FlagWords returns the number of 32-bit words holding numLabels bits, which is
// also the number of i32 slots a flags value flattens to.
func FlagWords(numLabels int) uint32 {
	return uint32((numLabels + 31) / 32)
}
