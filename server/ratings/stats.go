package ratings

import (
	"math"
	"math/rand"
	"sort"
)

// WilsonCI95 is the 95% Wilson score interval for successes out of total.
func WilsonCI95(successes, total int) (low, hi float64) {
	if total <= 0 {
		return 0, 1
	}
	z := 1.96
	n := float64(total)
	p := float64(successes) / n
	den := 1 + (z*z)/n
	center := p + (z*z)/(2*n)
	half := z * math.Sqrt((p*(1-p))/n+(z*z)/(4*n*n))
	return math.Max(0, (center-half)/den), math.Min(1, (center+half)/den)
}

// BootstrapCI95 is a percentile bootstrap interval for the mean of vals
// using B resamples drawn from r.
func BootstrapCI95(r *rand.Rand, vals []float64, B int) (low, hi float64) {
	n := len(vals)
	if n == 0 || B <= 1 {
		return 0, 0
	}
	res := make([]float64, B)
	for b := range res {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += vals[r.Intn(n)]
		}
		res[b] = sum / float64(n)
	}
	sort.Float64s(res)
	l := int(0.025 * float64(B-1))
	h := int(0.975 * float64(B-1))
	return res[l], res[h]
}

func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
