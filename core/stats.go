package core

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// psiBinCount is the number of quantile bins used for the population
// stability index. Deciles are the conventional choice.
const psiBinCount = 10

// psiEpsilon floors bin shares so empty bins contribute a large finite
// penalty instead of an infinite one.
const psiEpsilon = 1e-6

// ksStatistic computes the two-sample Kolmogorov-Smirnov distance between
// the reference and current samples. The result is the largest vertical gap
// between the two empirical CDFs, in [0, 1].
func ksStatistic(ref, cur []float64) float64 {
	refSorted := slices.Clone(ref)
	curSorted := slices.Clone(cur)
	slices.Sort(refSorted)
	slices.Sort(curSorted)
	return stat.KolmogorovSmirnov(refSorted, nil, curSorted, nil)
}

// psiStatistic computes the population stability index of the current sample
// against decile bins derived from the reference sample. The per-bin
// contributions are returned alongside the total for detail output.
func psiStatistic(ref, cur []float64) (float64, map[string]float64) {
	edges := psiBinEdges(ref)

	refShares := binShares(ref, edges)
	curShares := binShares(cur, edges)

	total := 0.0
	breakdown := make(map[string]float64, len(refShares))
	for i := range refShares {
		refShare := max(refShares[i], psiEpsilon)
		curShare := max(curShares[i], psiEpsilon)
		contribution := (curShare - refShare) * math.Log(curShare/refShare)
		total += contribution
		breakdown[binLabel(edges, i)] = contribution
	}
	return total, breakdown
}

// psiBinEdges derives interior decile edges from the reference sample.
// Duplicate edges collapse, so constant stretches of the distribution
// occupy a single bin.
func psiBinEdges(ref []float64) []float64 {
	sorted := slices.Clone(ref)
	slices.Sort(sorted)

	edges := make([]float64, 0, psiBinCount-1)
	for i := 1; i < psiBinCount; i++ {
		q := stat.Quantile(float64(i)/psiBinCount, stat.Empirical, sorted, nil)
		edges = append(edges, q)
	}
	return slices.Compact(edges)
}

// binShares returns the fraction of values falling into each bin. Bins are
// (-inf, e1], (e1, e2], ..., (ek, +inf) for interior edges e1..ek.
func binShares(values []float64, edges []float64) []float64 {
	counts := make([]float64, len(edges)+1)
	for _, v := range values {
		counts[sort.SearchFloat64s(edges, v)]++
	}
	total := float64(len(values))
	if total == 0 {
		return counts
	}
	for i := range counts {
		counts[i] /= total
	}
	return counts
}

// binLabel renders a human-readable range for bin i of the given edges.
func binLabel(edges []float64, i int) string {
	switch {
	case len(edges) == 0:
		return "(-inf, +inf)"
	case i == 0:
		return fmt.Sprintf("(-inf, %.4g]", edges[0])
	case i == len(edges):
		return fmt.Sprintf("(%.4g, +inf)", edges[len(edges)-1])
	default:
		return fmt.Sprintf("(%.4g, %.4g]", edges[i-1], edges[i])
	}
}

// columnMoments returns the mean and sample standard deviation of a column.
// Single-value columns report zero deviation rather than NaN so reports
// stay serializable.
func columnMoments(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean = stat.Mean(values, nil)
	if len(values) < 2 {
		return mean, 0
	}
	stdDev = stat.StdDev(values, nil)
	return mean, stdDev
}
