package analytics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// projection holds 2-D coordinates per input row and the share of total
// variance each retained component explains.
type projection struct {
	Coords    [][2]float64
	Explained []float64
}

// project2D reduces rows to their first two principal components. Each
// component is sign-normalized so its largest-magnitude loading is positive,
// which keeps the plot orientation stable across runs.
func project2D(rows [][]float64) (projection, error) {
	n, d := len(rows), len(rows[0])
	data := mat.NewDense(n, d, nil)
	for i, r := range rows {
		data.SetRow(i, r)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return projection{}, fmt.Errorf("%w: principal components", ErrDecomposition)
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	_, cols := vecs.Dims()
	keep := min(2, cols)

	for j := 0; j < keep; j++ {
		maxAbs, sign := 0.0, 1.0
		for i := 0; i < d; i++ {
			if v := vecs.At(i, j); math.Abs(v) > maxAbs {
				maxAbs = math.Abs(v)
				sign = math.Copysign(1, v)
			}
		}
		if sign < 0 {
			for i := 0; i < d; i++ {
				vecs.Set(i, j, -vecs.At(i, j))
			}
		}
	}

	means := make([]float64, d)
	for j := range means {
		means[j] = stat.Mean(mat.Col(nil, j, data), nil)
	}
	centered := mat.NewDense(n, d, nil)
	centered.Apply(func(_, j int, v float64) float64 { return v - means[j] }, data)

	var scores mat.Dense
	scores.Mul(centered, vecs.Slice(0, d, 0, keep))

	out := projection{Coords: make([][2]float64, n), Explained: make([]float64, keep)}
	for i := 0; i < n; i++ {
		for j := 0; j < keep; j++ {
			out.Coords[i][j] = scores.At(i, j)
		}
	}

	total := floats.Sum(vars)
	for j := 0; j < keep; j++ {
		if total > 0 {
			out.Explained[j] = vars[j] / total
		}
	}
	return out, nil
}
