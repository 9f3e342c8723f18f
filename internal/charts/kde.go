package charts

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ScottBandwidth is the Gaussian kernel width from Scott's rule,
// sigma * n^(-1/5), using the sample standard deviation.
func ScottBandwidth(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil) * math.Pow(float64(len(values)), -0.2)
}

// GaussianKDE returns a Gaussian kernel density estimate over values. It
// reports false when the bandwidth is zero (fewer than two values, or all
// values equal).
func GaussianKDE(values []float64) (func(float64) float64, bool) {
	h := ScottBandwidth(values)
	if h == 0 || math.IsNaN(h) {
		return nil, false
	}
	data := append([]float64(nil), values...)
	norm := 1 / (float64(len(data)) * h)
	return func(x float64) float64 {
		var sum float64
		for _, v := range data {
			sum += distuv.UnitNormal.Prob((x - v) / h)
		}
		return sum * norm
	}, true
}
