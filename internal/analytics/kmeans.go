package analytics

import (
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// kmeansResult is the best clustering found across restarts.
type kmeansResult struct {
	Labels     []int
	Centers    [][]float64
	Inertia    float64
	Iterations int
}

// kmeans runs Lloyd's algorithm from restarts k-means++ seedings drawn from
// rng and keeps the lowest-inertia result. Ties keep the earliest run.
// points must contain at least k distinct rows.
func kmeans(points [][]float64, k, restarts, maxIter int, rng *rand.Rand) kmeansResult {
	var best kmeansResult
	for run := 0; run < restarts; run++ {
		res := lloyd(points, seedCenters(points, k, rng), maxIter)
		if run == 0 || res.Inertia < best.Inertia {
			best = res
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// seedCenters picks k initial centers with k-means++ weighting.
func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(points[rng.IntN(n)]))

	d2 := make([]float64, n)
	for i, p := range points {
		d2[i] = sqDist(p, centers[0])
	}

	for len(centers) < k {
		total := floats.Sum(d2)
		if total == 0 {
			// fewer distinct points than k; callers guard against this
			centers = append(centers, clone(centers[len(centers)-1]))
			continue
		}

		target := rng.Float64() * total
		chosen := -1
		var acc float64
		for i, w := range d2 {
			if w == 0 {
				continue
			}
			acc += w
			chosen = i
			if acc >= target {
				break
			}
		}

		c := clone(points[chosen])
		centers = append(centers, c)
		for i, p := range points {
			d2[i] = math.Min(d2[i], sqDist(p, c))
		}
	}
	return centers
}

func lloyd(points [][]float64, centers [][]float64, maxIter int) kmeansResult {
	n, k := len(points), len(centers)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	iter := 0
	for iter < maxIter {
		iter++
		changed := false
		for i, p := range points {
			if c := nearest(p, centers); c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}
		centers = recenter(points, labels, k)
	}

	var inertia float64
	for i, p := range points {
		inertia += sqDist(p, centers[labels[i]])
	}
	return kmeansResult{Labels: labels, Centers: centers, Inertia: inertia, Iterations: iter}
}

// nearest returns the index of the closest center; ties go to the lowest index.
func nearest(p []float64, centers [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for j, c := range centers {
		if d := sqDist(p, c); d < bestD {
			best, bestD = j, d
		}
	}
	return best
}

// recenter moves each center to the mean of its members. An empty cluster
// takes over the point farthest from its own center.
func recenter(points [][]float64, labels []int, k int) [][]float64 {
	for {
		centers, counts := clusterMeans(points, labels, k)
		empty := slices.Index(counts, 0)
		if empty < 0 {
			return centers
		}

		far, farD := -1, -1.0
		for i, p := range points {
			if counts[labels[i]] < 2 {
				continue
			}
			if d := sqDist(p, centers[labels[i]]); d > farD {
				far, farD = i, d
			}
		}
		if far < 0 {
			return centers
		}
		labels[far] = empty
	}
}

func clusterMeans(points [][]float64, labels []int, k int) ([][]float64, []int) {
	dims := len(points[0])
	centers := make([][]float64, k)
	counts := make([]int, k)
	for j := range centers {
		centers[j] = make([]float64, dims)
	}
	for i, p := range points {
		floats.Add(centers[labels[i]], p)
		counts[labels[i]]++
	}
	for j := range centers {
		if counts[j] > 0 {
			floats.Scale(1/float64(counts[j]), centers[j])
		}
	}
	return centers, counts
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
