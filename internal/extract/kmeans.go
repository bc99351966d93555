package extract

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/jmylchreest/tinct-cosmic/internal/colour"
)

// kmeansBackend implements colour extraction using k-means clustering.
type kmeansBackend struct {
	maxIterations int
	convergence   float64
	maxSamples    int
}

func newKMeansBackend() *kmeansBackend {
	return &kmeansBackend{
		maxIterations: 20,
		convergence:   2.0,
		maxSamples:    2000,
	}
}

// point3D represents a point in 3D RGB colour space.
type point3D struct {
	R, G, B float64
}

// distance calculates the Euclidean distance between two points in RGB space.
func (p point3D) distance(other point3D) float64 {
	dr := p.R - other.R
	dg := p.G - other.G
	db := p.B - other.B
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// extract clusters the image into k colours and returns them ordered by cluster size.
// seed makes the k-means++ initialisation reproducible for the same image.
func (e *kmeansBackend) extract(img image.Image, k int, seed uint64) []weighted {
	pixels := samplePixels(img, e.maxSamples)
	if len(pixels) == 0 {
		return nil
	}

	unique := make(map[colour.RGB]int)
	for _, p := range pixels {
		unique[p]++
	}
	// Fewer distinct colours than clusters: the histogram is already the answer.
	if len(unique) <= k {
		out := make([]weighted, 0, len(unique))
		for c, n := range unique {
			out = append(out, weighted{c: c, weight: float64(n) / float64(len(pixels))})
		}
		sortByWeight(out)
		return out
	}

	points := make([]point3D, len(pixels))
	for i, p := range pixels {
		points[i] = point3D{R: float64(p.R), G: float64(p.G), B: float64(p.B)}
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	centroids := e.initCentroids(points, k, rng)
	assignments := make([]int, len(points))

	for iter := 0; iter < e.maxIterations; iter++ {
		changed := 0
		for i, point := range points {
			nearest := nearestCentroid(point, centroids)
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed++
			}
		}

		// Fewer than 1% of points moved.
		if iter > 0 && float64(changed)/float64(len(points)) < 0.01 {
			break
		}

		next := recalculateCentroids(points, assignments, k, rng)
		movement := 0.0
		for i := range centroids {
			movement += centroids[i].distance(next[i])
		}
		centroids = next

		if movement/float64(k) < e.convergence {
			break
		}
	}

	counts := make([]float64, k)
	for _, a := range assignments {
		counts[a]++
	}

	out := make([]weighted, 0, k)
	for i, c := range centroids {
		if counts[i] == 0 {
			continue
		}
		out = append(out, weighted{
			c: colour.RGB{
				R: uint8(math.Round(c.R)),
				G: uint8(math.Round(c.G)),
				B: uint8(math.Round(c.B)),
			},
			weight: counts[i] / float64(len(points)),
		})
	}
	sortByWeight(out)
	return out
}

// samplePixels samples at most maxSamples pixels on a regular grid.
func samplePixels(img image.Image, maxSamples int) []colour.RGB {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return nil
	}

	step := max(int(math.Sqrt(float64(total)/float64(maxSamples))), 1)

	pixels := make([]colour.RGB, 0, min(total, maxSamples))
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			pixels = append(pixels, colour.ToRGB(img.At(x, y)))
			if len(pixels) >= maxSamples {
				return pixels
			}
		}
	}
	return pixels
}

// initCentroids picks starting centroids with k-means++.
func (e *kmeansBackend) initCentroids(points []point3D, k int, rng *rand.Rand) []point3D {
	centroids := make([]point3D, 0, k)
	centroids = append(centroids, points[rng.IntN(len(points))])

	distances := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, point := range points {
			minDist := math.MaxFloat64
			for _, c := range centroids {
				minDist = math.Min(minDist, point.distance(c))
			}
			distances[i] = minDist * minDist
			total += distances[i]
		}

		if total == 0 {
			last := centroids[len(centroids)-1]
			centroids = append(centroids, point3D{R: last.R + 0.1, G: last.G + 0.1, B: last.B + 0.1})
			continue
		}

		target := rng.Float64() * total
		cumulative := 0.0
		for i, d := range distances {
			cumulative += d
			if cumulative >= target {
				centroids = append(centroids, points[i])
				break
			}
		}
	}
	return centroids
}

// nearestCentroid finds the index of the nearest centroid to a point.
func nearestCentroid(point point3D, centroids []point3D) int {
	minDist := math.MaxFloat64
	nearest := 0
	for i, c := range centroids {
		if d := point.distance(c); d < minDist {
			minDist = d
			nearest = i
		}
	}
	return nearest
}

// recalculateCentroids moves each centroid to the mean of its assigned points.
func recalculateCentroids(points []point3D, assignments []int, k int, rng *rand.Rand) []point3D {
	sums := make([]point3D, k)
	counts := make([]int, k)
	for i, p := range points {
		c := assignments[i]
		sums[c].R += p.R
		sums[c].G += p.G
		sums[c].B += p.B
		counts[c]++
	}

	centroids := make([]point3D, k)
	for i := range k {
		if counts[i] > 0 {
			n := float64(counts[i])
			centroids[i] = point3D{R: sums[i].R / n, G: sums[i].G / n, B: sums[i].B / n}
		} else {
			// Empty cluster: reseed from a random point.
			centroids[i] = points[rng.IntN(len(points))]
		}
	}
	return centroids
}
