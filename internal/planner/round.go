package planner

import (
	"fmt"
	"math"
	"sort"
)

// RoundPreservingSum rounds values to integers whose sum is exactly target
// (largest-remainder method).
//
// Every value is floored first. The residual target-sum(floors) is handed
// out one unit at a time to the entries with the largest fractional part,
// ties going to the lower index; when the residual exceeds len(values) the
// hand-out wraps around. A negative residual takes units back from the
// entries with the smallest fractional part among those with a positive
// floor, in the same tie order.
func RoundPreservingSum(values []float64, target int) ([]int, error) {
	if len(values) == 0 {
		if target == 0 {
			return []int{}, nil
		}
		return nil, fmt.Errorf("%w: no values for target %d", ErrRoundInput, target)
	}

	out := make([]int, len(values))
	rems := make([]float64, len(values))
	sum := 0
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %d is %v", ErrRoundInput, i, v)
		}
		f := math.Floor(v)
		out[i] = int(f)
		rems[i] = v - f
		sum += out[i]
	}

	residual := target - sum
	if residual == 0 {
		return out, nil
	}

	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}

	if residual > 0 {
		sort.SliceStable(order, func(a, b int) bool { return rems[order[a]] > rems[order[b]] })
		for residual > 0 {
			for _, i := range order {
				if residual == 0 {
					break
				}
				out[i]++
				residual--
			}
		}
		return out, nil
	}

	sort.SliceStable(order, func(a, b int) bool { return rems[order[a]] < rems[order[b]] })
	for residual < 0 {
		progressed := false
		for _, i := range order {
			if residual == 0 {
				break
			}
			if out[i] <= 0 {
				continue
			}
			out[i]--
			residual++
			progressed = true
		}
		if !progressed {
			return nil, fmt.Errorf("%w: cannot reduce to target %d", ErrRoundInput, target)
		}
	}
	return out, nil
}

func sumInts(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}
