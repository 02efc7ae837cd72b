// Package costs builds ground-cost matrices from point clouds.
//
// Pairwise(x, y, metric) returns C_ij = d(x_i, y_j) for the chosen metric;
// Grid1D(n) returns the normalized squared distance between n equispaced
// points of [0,1]. Results are plain *matrix.Dense values ready for every
// solver in lvlot.
package costs

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/katalvlaran/lvlot/matrix"
)

// Metric selects the point distance.
type Metric int

const (
	// SqEuclidean is Σ (x_k − y_k)².
	SqEuclidean Metric = iota
	// Euclidean is √Σ (x_k − y_k)².
	Euclidean
	// Cityblock is Σ |x_k − y_k|.
	Cityblock
)

var metricNames = map[Metric]string{
	SqEuclidean: "sqeuclidean",
	Euclidean:   "euclidean",
	Cityblock:   "cityblock",
}

// Sentinel errors.
var (
	ErrEmpty         = errors.New("costs: empty point cloud")
	ErrDimension     = errors.New("costs: points differ in dimension")
	ErrUnknownMetric = errors.New("costs: unknown metric")
)

func (m Metric) String() string {
	if s, ok := metricNames[m]; ok {
		return s
	}

	return fmt.Sprintf("Metric(%d)", int(m))
}

// ParseMetric maps a metric name (case-insensitive) to a Metric.
func ParseMetric(name string) (Metric, error) {
	for m, s := range metricNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}

	return 0, fmt.Errorf("%q: %w", name, ErrUnknownMetric)
}

// Pairwise returns the len(x)×len(y) matrix of metric distances.
//
// Errors: ErrEmpty, ErrDimension, ErrUnknownMetric.
// Complexity: O(len(x)·len(y)·d).
func Pairwise[T matrix.Float](x, y [][]T, metric Metric) (*matrix.Dense[T], error) {
	if len(x) == 0 || len(y) == 0 {
		return nil, ErrEmpty
	}
	if _, ok := metricNames[metric]; !ok {
		return nil, fmt.Errorf("%v: %w", metric, ErrUnknownMetric)
	}
	dim := len(x[0])
	for _, cloud := range [][][]T{x, y} {
		for i, p := range cloud {
			if len(p) != dim {
				return nil, fmt.Errorf("point %d has dimension %d, want %d: %w", i, len(p), dim, ErrDimension)
			}
		}
	}
	c, err := matrix.NewDense[T](len(x), len(y))
	if err != nil {
		return nil, err
	}
	raw, n := c.Raw(), len(y)
	for i, xi := range x {
		for j, yj := range y {
			raw[i*n+j] = distance(xi, yj, metric)
		}
	}

	return c, nil
}

func distance[T matrix.Float](x, y []T, metric Metric) T {
	var sum T
	switch metric {
	case Cityblock:
		for k := range x {
			sum += matrix.Abs(x[k] - y[k])
		}
	default:
		for k := range x {
			d := x[k] - y[k]
			sum += d * d
		}
		if metric == Euclidean {
			sum = T(math.Sqrt(float64(sum)))
		}
	}

	return sum
}

// Grid1D returns C_ij = ((i − j)/(n − 1))² for n equispaced points on [0,1]
// (the 1×1 zero matrix for n = 1).
func Grid1D[T matrix.Float](n int) (*matrix.Dense[T], error) {
	c, err := matrix.NewDense[T](n, n)
	if err != nil {
		return nil, err
	}
	scale := float64(max(n-1, 1))
	raw := c.Raw()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d := float64(i-j) / scale
			raw[i*n+j] = T(d * d)
		}
	}

	return c, nil
}

// NormalizeMax divides c in place by its largest entry (no-op when it is 0).
func NormalizeMax[T matrix.Float](c *matrix.Dense[T]) {
	m := matrix.MaxAbs(c.Raw())
	if m == 0 {
		return
	}
	raw := c.Raw()
	for k := range raw {
		raw[k] /= m
	}
}
