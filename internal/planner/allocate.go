package planner

import (
	"fmt"
	"math"
)

// OptimalInterval is the target spacing in weeks between two consecutive
// days off when totalDaysOff days are spread over remainingWeeks.
func OptimalInterval(remainingWeeks, totalDaysOff int) (float64, error) {
	if totalDaysOff <= 0 {
		return 0, fmt.Errorf("planner: total days off must be positive, got %d", totalDaysOff)
	}
	return float64(remainingWeeks) / float64(totalDaysOff), nil
}

// IsLow reports whether a gap is too tight to receive vacation days.
// Non-positive gaps are always low.
func IsLow(interval int, optimal float64) bool {
	return interval <= 0 || float64(interval) < optimal
}

// EffectiveRemainingWeeks removes the weeks covered by low gaps from
// remainingWeeks. Negative low gaps count as zero.
func EffectiveRemainingWeeks(remainingWeeks int, optimal float64, intervals []int) int {
	low := 0
	for _, iv := range intervals {
		if IsLow(iv, optimal) && iv > 0 {
			low += iv
		}
	}
	return remainingWeeks - low
}

// Weights returns interval/effective for every gap that is not low and 0 for
// low gaps. All weights are 0 when effective is not positive.
func Weights(intervals []int, optimal float64, effective int) []float64 {
	weights := make([]float64, len(intervals))
	if effective <= 0 {
		return weights
	}
	for i, iv := range intervals {
		if IsLow(iv, optimal) {
			continue
		}
		weights[i] = float64(iv) / float64(effective)
	}
	return weights
}

// DistributeDays splits budget vacation days across the gaps in proportion
// to their weights. The returned counts always sum to budget; only gaps with
// a positive weight receive days.
func DistributeDays(intervals []int, optimal float64, effective, budget int) ([]float64, []int, error) {
	if budget < 0 {
		return nil, nil, ErrInvalidBudget
	}

	weights := Weights(intervals, optimal, effective)
	days := make([]int, len(intervals))
	if budget == 0 {
		return weights, days, nil
	}

	var (
		eligible   []int
		fractional []float64
	)
	for i, w := range weights {
		if w > 0 {
			eligible = append(eligible, i)
			fractional = append(fractional, w*float64(budget))
		}
	}
	if len(eligible) == 0 {
		return weights, nil, fmt.Errorf("%w: %d gaps, effective weeks %d", ErrNoCapacity, len(intervals), effective)
	}

	rounded, err := RoundPreservingSum(fractional, budget)
	if err != nil {
		return weights, nil, err
	}
	for k, i := range eligible {
		days[i] = rounded[k]
	}

	if got := sumInts(days); got != budget {
		return weights, nil, fmt.Errorf("%w: got %d, want %d", ErrBudgetMismatch, got, budget)
	}
	return weights, days, nil
}

// PlaceWeeks spreads count days evenly strictly between startWeek and
// endWeek and returns their week numbers in ascending order.
func PlaceWeeks(count, startWeek, endWeek int) ([]int, error) {
	if count <= 0 {
		return []int{}, nil
	}

	step := float64(endWeek-startWeek) / float64(count+1)
	positions := make([]float64, count)
	for i := range positions {
		positions[i] = float64(startWeek) + float64(i+1)*step
	}

	// Exact sum of the positions: count*start + (end-start)*count/2.
	twice := 2*count*startWeek + (endWeek-startWeek)*count
	target := int(math.Round(float64(twice) / 2))

	return RoundPreservingSum(positions, target)
}
