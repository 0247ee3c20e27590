package signature

// CombineFrameHashes folds per-frame difference hashes into a single video
// hash by per-bit majority vote. An exact tie sets the bit so the result is
// deterministic regardless of frame order.
func CombineFrameHashes(hashes []uint64) uint64 {
	if len(hashes) == 0 {
		return 0
	}
	var combined uint64
	for bit := 0; bit < 64; bit++ {
		set := 0
		for _, h := range hashes {
			if h&(1<<uint(bit)) != 0 {
				set++
			}
		}
		if 2*set >= len(hashes) {
			combined |= 1 << uint(bit)
		}
	}
	return combined
}
