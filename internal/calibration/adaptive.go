// Package calibration measures the accelerator backend on the current
// machine to find the lane count that probes fastest, and caches the result.
package calibration

import (
	"runtime"
	"sort"
)

// GenerateLaneCandidates returns the lane counts to benchmark: the powers
// of two below the number of CPUs, the CPU count itself, and twice that to
// detect whether oversubscription helps.
func GenerateLaneCandidates() []int {
	return laneCandidates(runtime.NumCPU())
}

func laneCandidates(numCPU int) []int {
	if numCPU < 1 {
		numCPU = 1
	}
	seen := map[int]bool{}
	var lanes []int
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			lanes = append(lanes, n)
		}
	}
	for n := 1; n < numCPU; n *= 2 {
		add(n)
	}
	add(numCPU)
	if numCPU > 1 {
		add(2 * numCPU)
	}
	sort.Ints(lanes)
	return lanes
}

// EstimateOptimalLanes is the lane count used when no calibration profile
// is available: one lane per logical CPU.
func EstimateOptimalLanes() int {
	return runtime.NumCPU()
}
