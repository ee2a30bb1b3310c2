// Package analysis aligns yearly series and computes the summary statistics
// attached to tool results.
package analysis

import (
	"math"
	"sort"
)

// YearValue is one point of a yearly series.
type YearValue struct {
	Year  int
	Value float64
}

// NumSummary summarizes a numeric series.
type NumSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// AlignByYear keeps the years present in both series, in ascending order.
// Duplicate years within one series are summed.
func AlignByYear(a, b []YearValue) (xs, ys []float64, years []int) {
	ma := byYear(a)
	mb := byYear(b)
	for y := range ma {
		if _, ok := mb[y]; ok {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	xs = make([]float64, len(years))
	ys = make([]float64, len(years))
	for i, y := range years {
		xs[i] = ma[y]
		ys[i] = mb[y]
	}
	return xs, ys, years
}

func byYear(s []YearValue) map[int]float64 {
	m := make(map[int]float64, len(s))
	for _, p := range s {
		m[p.Year] += p.Value
	}
	return m
}

// pairAcc accumulates the running sums of a Pearson correlation.
type pairAcc struct {
	n     float64
	sumX  float64
	sumY  float64
	sumXX float64
	sumYY float64
	sumXY float64
}

func (pa *pairAcc) add(x, y float64) {
	pa.n++
	pa.sumX += x
	pa.sumY += y
	pa.sumXX += x * x
	pa.sumYY += y * y
	pa.sumXY += x * y
}

func (pa *pairAcc) r() (float64, bool) {
	if pa.n < 2 {
		return 0, false
	}
	denom := math.Sqrt((pa.n*pa.sumXX - pa.sumX*pa.sumX) * (pa.n*pa.sumYY - pa.sumY*pa.sumY))
	if denom == 0 || math.IsNaN(denom) {
		return 0, false
	}
	r := (pa.n*pa.sumXY - pa.sumX*pa.sumY) / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

// Pearson returns the correlation coefficient of two equal-length series.
// It reports false when fewer than two pairs exist or either series is
// constant. Pairs with a NaN on either side are skipped.
func Pearson(xs, ys []float64) (float64, bool) {
	var pa pairAcc
	for i := 0; i < len(xs) && i < len(ys); i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		pa.add(xs[i], ys[i])
	}
	return pa.r()
}

// Summarize computes count, min, max, mean and median.
func Summarize(values []float64) NumSummary {
	if len(values) == 0 {
		return NumSummary{}
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)
	var sum float64
	for _, v := range cp {
		sum += v
	}
	return NumSummary{
		Count:  len(cp),
		Min:    cp[0],
		Max:    cp[len(cp)-1],
		Mean:   sum / float64(len(cp)),
		Median: quantile(cp, 0.5),
	}
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
