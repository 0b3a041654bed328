package planner

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundPreservingSum(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		target int
		want   []int
	}{
		{"exact integers", []float64{1, 2, 3}, 6, []int{1, 2, 3}},
		{"largest remainder wins", []float64{60.2, 15.4, 24.6}, 100, []int{60, 15, 25}},
		{"ties go to lower index", []float64{0.5, 0.5, 0.5, 0.5}, 2, []int{1, 1, 0, 0}},
		{"residual wraps around", []float64{0.1, 0.1}, 5, []int{3, 2}},
		{"negative residual trims smallest remainder", []float64{2.9, 1.1}, 2, []int{2, 0}},
		{"zero values", []float64{0, 0, 0}, 0, []int{0, 0, 0}},
		{"empty with zero target", nil, 0, []int{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RoundPreservingSum(tc.values, tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRoundPreservingSumErrors(t *testing.T) {
	_, err := RoundPreservingSum(nil, 3)
	assert.ErrorIs(t, err, ErrRoundInput)

	_, err = RoundPreservingSum([]float64{1, math.NaN()}, 1)
	assert.ErrorIs(t, err, ErrRoundInput)

	_, err = RoundPreservingSum([]float64{0.2, 0.3}, -1)
	assert.ErrorIs(t, err, ErrRoundInput)
}

func TestRoundPreservingSumProperty(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	for iter := 0; iter < 500; iter++ {
		n := 1 + rnd.Intn(12)
		budget := rnd.Intn(40)

		weights := make([]float64, n)
		total := 0.0
		for i := range weights {
			weights[i] = rnd.Float64()
			total += weights[i]
		}

		values := make([]float64, n)
		for i, w := range weights {
			values[i] = w / total * float64(budget)
		}

		got, err := RoundPreservingSum(values, budget)
		require.NoError(t, err)
		require.Equal(t, budget, sumInts(got), "values=%v", values)
		for i, v := range got {
			require.GreaterOrEqual(t, v, 0)
			require.LessOrEqual(t, math.Abs(float64(v)-values[i]), 1.0, "values=%v got=%v", values, got)
		}
	}
}
