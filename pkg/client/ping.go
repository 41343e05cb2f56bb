package client

import "sort"

// removeOutlierRTTs drops RTTs over twice the median that are also over 20ms.
func removeOutlierRTTs(rtts []int64) []int64 {
	median := medianRTT(rtts)
	result := make([]int64, 0, len(rtts))
	for _, rtt := range rtts {
		if rtt > 2*median && rtt > 20 {
			continue
		}
		result = append(result, rtt)
	}
	return result
}

func medianRTT(rtts []int64) int64 {
	if len(rtts) == 0 {
		return 0
	}
	sorted := make([]int64, len(rtts))
	copy(sorted, rtts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
