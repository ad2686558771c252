package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKSStatistic(t *testing.T) {
	tests := []struct {
		name     string
		ref      []float64
		cur      []float64
		expected float64
	}{
		{
			name:     "identical samples",
			ref:      []float64{1, 2, 3, 4, 5},
			cur:      []float64{1, 2, 3, 4, 5},
			expected: 0,
		},
		{
			name:     "disjoint samples",
			ref:      []float64{1, 2, 3, 4},
			cur:      []float64{11, 12, 13, 14},
			expected: 1,
		},
		{
			name:     "half overlap",
			ref:      []float64{1, 2, 3, 4},
			cur:      []float64{3, 4, 5, 6},
			expected: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ksStatistic(tt.ref, tt.cur), 1e-12)
		})
	}
}

func TestKSStatisticDoesNotMutateInputs(t *testing.T) {
	ref := []float64{5, 1, 3, 2, 4}
	cur := []float64{9, 7, 8}

	ksStatistic(ref, cur)

	assert.Equal(t, []float64{5, 1, 3, 2, 4}, ref)
	assert.Equal(t, []float64{9, 7, 8}, cur)
}

func TestPSIStatisticIdenticalSamples(t *testing.T) {
	sample := make([]float64, 100)
	for i := range sample {
		sample[i] = float64(i)
	}

	total, breakdown := psiStatistic(sample, sample)

	assert.InDelta(t, 0, total, 1e-12)
	assert.NotEmpty(t, breakdown)

	// Contributions add up to the total.
	sum := 0.0
	for _, v := range breakdown {
		sum += v
	}
	assert.InDelta(t, total, sum, 1e-12)
}

func TestPSIStatisticDetectsShift(t *testing.T) {
	ref := make([]float64, 100)
	cur := make([]float64, 100)
	for i := range ref {
		ref[i] = float64(i)
		cur[i] = float64(i) + 1000 // Everything lands beyond the last bin edge
	}

	total, breakdown := psiStatistic(ref, cur)

	assert.Greater(t, total, 1.0)

	// The top bin soaks up the whole current sample.
	sum := 0.0
	for _, v := range breakdown {
		sum += v
	}
	assert.InDelta(t, total, sum, 1e-9)
}

func TestPSIStatisticConstantReference(t *testing.T) {
	ref := make([]float64, 50)
	same := make([]float64, 50)
	moved := make([]float64, 50)
	for i := range ref {
		ref[i] = 5
		same[i] = 5
		moved[i] = 8
	}

	// All decile edges collapse to one; the two remaining bins still
	// separate an unchanged column from a moved one.
	unchanged, _ := psiStatistic(ref, same)
	assert.InDelta(t, 0, unchanged, 1e-12)

	shifted, _ := psiStatistic(ref, moved)
	assert.Greater(t, shifted, 10.0)
}

func TestPSIBinEdgesCollapseDuplicates(t *testing.T) {
	constant := []float64{3, 3, 3, 3, 3, 3, 3, 3, 3, 3}
	edges := psiBinEdges(constant)
	assert.Equal(t, []float64{3}, edges)

	spread := make([]float64, 100)
	for i := range spread {
		spread[i] = float64(i)
	}
	assert.Len(t, psiBinEdges(spread), 9) // Interior deciles of a spread sample
}

func TestBinShares(t *testing.T) {
	edges := []float64{1, 2}
	values := []float64{0.5, 1, 1.5, 2, 3}

	shares := binShares(values, edges)

	// Bins are (-inf, 1], (1, 2], (2, +inf); edge values belong left.
	require.Len(t, shares, 3)
	assert.InDelta(t, 0.4, shares[0], 1e-12)
	assert.InDelta(t, 0.4, shares[1], 1e-12)
	assert.InDelta(t, 0.2, shares[2], 1e-12)
}

func TestBinLabel(t *testing.T) {
	edges := []float64{1, 2.5}

	assert.Equal(t, "(-inf, 1]", binLabel(edges, 0))
	assert.Equal(t, "(1, 2.5]", binLabel(edges, 1))
	assert.Equal(t, "(2.5, +inf)", binLabel(edges, 2))
	assert.Equal(t, "(-inf, +inf)", binLabel(nil, 0))
}

func TestColumnMoments(t *testing.T) {
	mean, stdDev := columnMoments([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, 2.13809, stdDev, 1e-4) // Sample standard deviation

	// Single observation reports zero deviation, not NaN.
	mean, stdDev = columnMoments([]float64{42})
	assert.Equal(t, 42.0, mean)
	assert.Equal(t, 0.0, stdDev)

	mean, stdDev = columnMoments(nil)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, stdDev)
}
