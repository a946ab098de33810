package pairwise

// Linear pair indexing. Ordered pairs (i, j), i ≠ j, are numbered row-major:
// all pairs for region 0 first, then region 1, and so on. Each row holds
// n−1 pairs because the self-pair is skipped.

// PairIndex returns the linear index of the ordered pair (i, j), i ≠ j.
func PairIndex(i, j, n int) int64 {
	col := j
	if j > i {
		col = j - 1
	}
	return int64(i)*int64(n-1) + int64(col)
}

// Unrank recovers the ordered pair (i, j) for a linear index p. It is the
// inverse of PairIndex and lets a caller enumerate an arbitrary index range
// without walking the full sequence.
func Unrank(p int64, n int) (i, j int) {
	i = int(p / int64(n-1))
	j = int(p % int64(n-1))
	if j >= i {
		j++
	}
	return i, j
}

// TotalPairs returns n·(n−1), the number of ordered pairs over n regions.
func TotalPairs(n int) int64 {
	return int64(n) * int64(n-1)
}
