package inspection

// NextNumber returns one more than the largest existing number below
// threshold, or 1 when there is none. Numbers at or above threshold are
// legacy millisecond timestamps and are ignored.
func NextNumber(existing []int64, threshold int64) int64 {
	var max int64
	for _, n := range existing {
		if n >= threshold {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1
}
