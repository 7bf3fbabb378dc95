package adpcm

const (
	minCodeBits = 2
	maxCodeBits = 5

	// headerBits is the per-channel packet header: SI16 predictor + UB[6] step index.
	predictorBits = 16
	stepIndexBits = 6
	headerBits    = predictorBits + stepIndexBits

	// widthFieldBits precedes the first packet and stores codeBits-2.
	widthFieldBits = 2

	// FramesPerPacket is the number of coded frames following each packet header.
	FramesPerPacket = 4095
)

// stepSizeTable is the IMA step ladder; stepIndex always addresses it.
var stepSizeTable = [89]int32{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17,
	19, 21, 23, 25, 28, 31, 34, 37, 41, 45,
	50, 55, 60, 66, 73, 80, 88, 97, 107, 118,
	130, 143, 157, 173, 190, 209, 230, 253, 279, 307,
	337, 371, 408, 449, 494, 544, 598, 658, 724, 796,
	876, 963, 1060, 1166, 1282, 1411, 1552, 1707, 1878, 2066,
	2272, 2499, 2749, 3024, 3327, 3660, 4026, 4428, 4871, 5358,
	5894, 6484, 7132, 7845, 8630, 9493, 10442, 11487, 12635, 13899,
	15289, 16818, 18500, 20350, 22385, 24623, 27086, 29794, 32767,
}

const maxStepIndex = len(stepSizeTable) - 1

// indexDeltaTables is keyed by codeBits-2 and then by the code magnitude.
var indexDeltaTables = [4][]int{
	{-1, 2},
	{-1, -1, 2, 4},
	{-1, -1, -1, -1, 2, 4, 6, 8},
	{-1, -1, -1, -1, -1, -1, -1, -1, 1, 2, 4, 6, 8, 10, 13, 16},
}

// codeTable bundles the fixed parameters for one code width.
type codeTable struct {
	bits       int
	signMask   uint32
	shift      uint
	indexDelta []int
}

func tableFor(bits int) (codeTable, bool) {
	if bits < minCodeBits || bits > maxCodeBits {
		return codeTable{}, false
	}
	return codeTable{
		bits:       bits,
		signMask:   1 << (bits - 1),
		shift:      uint(bits - 1),
		indexDelta: indexDeltaTables[bits-minCodeBits],
	}, true
}

// magnitude returns the step multiplier for a sign-stripped code: 2m+1.
func magnitude(m uint32) int32 {
	return int32(2*m + 1)
}
