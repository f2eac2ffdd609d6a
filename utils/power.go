package utils

// Log2Ceil returns the smallest k with 1<<k >= x, and at least 1.
func Log2Ceil(x int) int {
	k := 1
	for x > (1 << k) {
		k++
	}
	return k
}

// NextPowerOfTwo pads x to 2^k rows (k>=1).
func NextPowerOfTwo(x int) int {
	return 1 << Log2Ceil(x)
}
