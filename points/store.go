// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package points implements the structure-of-arrays point store (C2): one
// contiguous column per field, so that the bulk parallel passes over the
// tile grid and the nearest-higher graph can stride through memory instead
// of chasing pointers, following go-highway's SoA discipline for numeric
// columns. A store is a plain in-process allocation; the abstract-device
// staging the original C++ requires for accelerator backends has no
// component here, since this package targets a CPU parallel substrate only.
package points

import (
	"math"

	"github.com/cms-patatrack/clue-go/clueerr"
)

// None is the sentinel nearest-higher index meaning "no higher-density
// point found within the search radius".
const None int32 = -1

// Outlier is the sentinel cluster id for outliers and not-yet-assigned
// points during the pipeline.
const Outlier int32 = -1

// Store is the structure-of-arrays backing for an N-point, D-dimensional
// weighted point set, plus the five derived fields written by the
// clustering pipeline.
type Store struct {
	n, d int

	// coords is dimension-major: coords[dim*n+i] is the coordinate of
	// point i along dimension dim.
	coords  []float64
	weights []float64

	rho     []float64
	delta   []float64
	nh      []int32
	cluster []int32
	isSeed  []bool
}

// New allocates SoA columns for n points in d dimensions. Fails with
// InvalidParameter if n or d are non-positive, and with ResourceExhausted
// if allocation overflows.
func New(n, d int) (*Store, error) {
	if n <= 0 {
		return nil, clueerr.Newf(clueerr.InvalidParameter, "points.New", "n must be > 0, got %d", n)
	}
	if d <= 0 {
		return nil, clueerr.Newf(clueerr.InvalidParameter, "points.New", "d must be > 0, got %d", d)
	}
	s := &Store{n: n, d: d}
	if err := s.allocate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) allocate() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = clueerr.Newf(clueerr.ResourceExhausted, "points.Store.allocate", "%v", r)
		}
	}()
	s.coords = make([]float64, s.d*s.n)
	s.weights = make([]float64, s.n)
	s.rho = make([]float64, s.n)
	s.delta = make([]float64, s.n)
	s.nh = make([]int32, s.n)
	s.cluster = make([]int32, s.n)
	s.isSeed = make([]bool, s.n)
	return nil
}

// N returns the number of points.
func (s *Store) N() int { return s.n }

// D returns the dimensionality.
func (s *Store) D() int { return s.d }

// Load bulk-writes coordinates (D*n floats, dimension-major) and weights
// (n floats). Fails with InvalidParameter on length mismatch, on a negative
// weight, or on a non-finite coordinate or weight (the original is silent
// on the non-finite case;
// this implementation surfaces it rather than propagating NaN through the
// pipeline).
func (s *Store) Load(coords, weights []float64) error {
	if len(coords) != s.d*s.n {
		return clueerr.Newf(clueerr.InvalidParameter, "points.Store.Load",
			"coords length %d, want %d (D=%d * N=%d)", len(coords), s.d*s.n, s.d, s.n)
	}
	if len(weights) != s.n {
		return clueerr.Newf(clueerr.InvalidParameter, "points.Store.Load",
			"weights length %d, want %d", len(weights), s.n)
	}
	for _, v := range coords {
		if !isFinite(v) {
			return clueerr.New(clueerr.InvalidParameter, "points.Store.Load", "non-finite coordinate")
		}
	}
	for _, w := range weights {
		if !isFinite(w) || w < 0 {
			return clueerr.New(clueerr.InvalidParameter, "points.Store.Load", "weight must be finite and >= 0")
		}
	}
	copy(s.coords, coords)
	copy(s.weights, weights)
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Coord returns the coordinate of point i along dimension dim.
func (s *Store) Coord(i, dim int) float64 { return s.coords[dim*s.n+i] }

// Column returns the full coordinate column for dimension dim.
func (s *Store) Column(dim int) []float64 { return s.coords[dim*s.n : (dim+1)*s.n] }

// Weight returns the weight of point i.
func (s *Store) Weight(i int) float64 { return s.weights[i] }

// Rho returns the density column.
func (s *Store) Rho() []float64 { return s.rho }

// Delta returns the nearest-higher-distance column.
func (s *Store) Delta() []float64 { return s.delta }

// NH returns the nearest-higher index column.
func (s *Store) NH() []int32 { return s.nh }

// Cluster returns the cluster-id column.
func (s *Store) Cluster() []int32 { return s.cluster }

// IsSeed returns the is-seed column.
func (s *Store) IsSeed() []bool { return s.isSeed }

// ReadClusters returns a copy of the final cluster assignment.
func (s *Store) ReadClusters() []int32 {
	out := make([]int32, s.n)
	copy(out, s.cluster)
	return out
}

// ReadSeeds returns a copy of the final is-seed flags.
func (s *Store) ReadSeeds() []bool {
	out := make([]bool, s.n)
	copy(out, s.isSeed)
	return out
}

// ResetDerived clears rho, delta, nh, cluster and is_seed ahead of a
// make-clusters call: derived fields are reset on every call while
// coordinates and weights are read-only.
func (s *Store) ResetDerived() {
	inf := math.Inf(1)
	for i := range s.rho {
		s.rho[i] = 0
		s.delta[i] = inf
		s.nh[i] = None
		s.cluster[i] = Outlier
		s.isSeed[i] = false
	}
}
