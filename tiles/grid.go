// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package tiles implements the D-dimensional uniform tile grid (C3): a
// spatial index over the bounding box of a point set, used by the density
// (C4) and nearest-higher (C5) passes to restrict pairwise
// work to nearby tiles instead of scanning every point.
//
// Grounded on CLUEstering/data_structures/Tiles.hpp (referenced via
// core/Clusterer.hpp's TilesAlpaka usage) and on go-highway's
// count -> prefix-sum -> scatter idiom used throughout hwy/contrib/algo for
// building CSR-style layouts without per-bin locks.
package tiles

import (
	"math"

	"github.com/cms-patatrack/clue-go/clueerr"
	"github.com/cms-patatrack/clue-go/internal/workerpool"
)

// Coordinates is the minimal read access a Grid needs into a point store to
// compute tile membership and pairwise distance: accept the interface, not
// a concrete *points.Store, so the grid has no dependency on the point
// store's layout.
type Coordinates interface {
	Coord(i, dim int) float64
}

// Grid is a D-dimensional uniform grid over the bounding box of a point
// set. Each tile is an ordered (by point index) bin of point indices.
type Grid struct {
	d int

	min, max []float64
	nTiles   []int
	tileSize []float64
	wrapped  []bool
	strides  []int
	total    int

	n      int
	starts []int32
	points []int32
}

// epsilon is the positive tile size substituted for a degenerate axis
// (min_d == max_d).
const epsilon = 1e-9

// ComputeTileCounts returns the per-dimension tile count
// n_tiles_d = max(1, round((N/pPBin)^(1/D))), so the total tile count is
// approximately N/pPBin. All dimensions get the same count since the
// grid has no prior reason to favor one axis.
func ComputeTileCounts(n, d, pPBin int) []int {
	counts := make([]int, d)
	if pPBin >= n || n <= 0 {
		for i := range counts {
			counts[i] = 1
		}
		return counts
	}
	target := float64(n) / float64(pPBin)
	perDim := int(math.Round(math.Pow(target, 1.0/float64(d))))
	if perDim < 1 {
		perDim = 1
	}
	for i := range counts {
		counts[i] = perDim
	}
	return counts
}

// New allocates an unconfigured grid for d dimensions.
func New(d int) (*Grid, error) {
	if d <= 0 {
		return nil, clueerr.Newf(clueerr.InvalidParameter, "tiles.New", "d must be > 0, got %d", d)
	}
	return &Grid{d: d}, nil
}

// Configure sets the bounding box, per-dimension tile counts and periodic
// flags. Must be called before Fill. A degenerate axis (min[d] == max[d])
// is forced to exactly one tile with a positive epsilon tile size,
// overriding whatever nTilesPerDim[d] was requested.
func (g *Grid) Configure(min, max []float64, nTilesPerDim []int, wrapped []bool) error {
	d := g.d
	if len(min) != d || len(max) != d || len(nTilesPerDim) != d || len(wrapped) != d {
		return clueerr.New(clueerr.InvalidParameter, "tiles.Grid.Configure", "min/max/nTilesPerDim/wrapped must all have length D")
	}

	g.min = make([]float64, d)
	g.max = make([]float64, d)
	g.nTiles = make([]int, d)
	g.tileSize = make([]float64, d)
	g.wrapped = make([]bool, d)
	g.strides = make([]int, d)

	copy(g.min, min)
	copy(g.max, max)
	copy(g.wrapped, wrapped)

	total := 1
	for dd := 0; dd < d; dd++ {
		if min[dd] > max[dd] {
			return clueerr.Newf(clueerr.InvalidParameter, "tiles.Grid.Configure", "min[%d] > max[%d]", dd, dd)
		}
		if min[dd] == max[dd] {
			g.nTiles[dd] = 1
			g.tileSize[dd] = epsilon
			continue
		}
		nt := nTilesPerDim[dd]
		if nt <= 0 {
			return clueerr.Newf(clueerr.InvalidParameter, "tiles.Grid.Configure", "nTilesPerDim[%d] must be > 0", dd)
		}
		g.nTiles[dd] = nt
		g.tileSize[dd] = (max[dd] - min[dd]) / float64(nt)
	}

	for dd := 0; dd < d; dd++ {
		g.strides[dd] = total
		next := total * g.nTiles[dd]
		if g.nTiles[dd] != 0 && next/g.nTiles[dd] != total {
			return clueerr.New(clueerr.ResourceExhausted, "tiles.Grid.Configure", "tile count overflow")
		}
		total = next
	}
	g.total = total
	return nil
}

// Total returns the total number of tiles T = prod(n_tiles_d).
func (g *Grid) Total() int { return g.total }

// TileSize returns the tile extent along dimension dim.
func (g *Grid) TileSize(dim int) float64 { return g.tileSize[dim] }

// coordToTileIdx maps a coordinate vector to a per-dimension tile index,
// clamped to [0, n_tiles_d-1].
func (g *Grid) coordToTileIdx(coordAt func(dim int) float64) []int {
	idx := make([]int, g.d)
	for dd := 0; dd < g.d; dd++ {
		x := coordAt(dd)
		t := int(math.Floor((x - g.min[dd]) / g.tileSize[dd]))
		if t < 0 {
			t = 0
		}
		if t >= g.nTiles[dd] {
			t = g.nTiles[dd] - 1
		}
		idx[dd] = t
	}
	return idx
}

func (g *Grid) linearize(idx []int) int {
	id := 0
	for dd := 0; dd < g.d; dd++ {
		id += idx[dd] * g.strides[dd]
	}
	return id
}

func (g *Grid) delinearize(tileID int) []int {
	idx := make([]int, g.d)
	for dd := g.d - 1; dd >= 0; dd-- {
		idx[dd] = tileID / g.strides[dd]
		tileID -= idx[dd] * g.strides[dd]
	}
	return idx
}

// TileOf returns the tile id containing point i.
func (g *Grid) TileOf(c Coordinates, i int) int {
	idx := g.coordToTileIdx(func(dim int) float64 { return c.Coord(i, dim) })
	return g.linearize(idx)
}

// Fill assigns every point to a tile. Implemented as count -> exclusive
// prefix-sum -> scatter: tile-id assignment is an embarrassingly-parallel
// bulk map driven by pool, the scatter is a single ascending pass over
// point index so that each tile's point list comes out sorted by index
// with no explicit sort step, keeping membership deterministic regardless
// of worker-goroutine scheduling.
func (g *Grid) Fill(c Coordinates, n int, pool *workerpool.Pool) error {
	if g.total == 0 {
		return clueerr.New(clueerr.InvalidParameter, "tiles.Grid.Fill", "grid not configured")
	}

	tileOf := make([]int32, n)
	pool.ParallelForAtomic(n, func(i int) {
		tileOf[i] = int32(g.TileOf(c, i))
	})

	counts := make([]int32, g.total+1)
	for i := 0; i < n; i++ {
		counts[tileOf[i]+1]++
	}
	for t := 0; t < g.total; t++ {
		counts[t+1] += counts[t]
	}

	starts := counts
	cursor := make([]int32, g.total)
	copy(cursor, starts[:g.total])

	pts := make([]int32, n)
	for i := 0; i < n; i++ {
		t := tileOf[i]
		pts[cursor[t]] = int32(i)
		cursor[t]++
	}

	g.n = n
	g.starts = starts
	g.points = pts
	return nil
}

// PointsIn returns the ordered (by point index) slice of point indices
// assigned to tileID.
func (g *Grid) PointsIn(tileID int) []int32 {
	return g.points[g.starts[tileID]:g.starts[tileID+1]]
}

// ReachForRadius returns, for each dimension, the number of tiles
// ceil(radius/tile_size_d) that must be examined on either side of a tile
// to cover a search radius.
func (g *Grid) ReachForRadius(radius float64) []int {
	reach := make([]int, g.d)
	for dd := 0; dd < g.d; dd++ {
		r := int(math.Ceil(radius / g.tileSize[dd]))
		if r < 0 {
			r = 0
		}
		reach[dd] = r
	}
	return reach
}

// dimRange returns the distinct in-range tile coordinates along dimension
// dim within reach tiles of center, honoring periodic wrap. Deduplicated so
// that the cartesian product across dimensions never revisits a tile id
// (possible when 2*reach+1 > n_tiles_d on a wrapped axis).
func (g *Grid) dimRange(center, reach, dim int) []int {
	n := g.nTiles[dim]
	if reach >= n {
		reach = n - 1
	}
	out := make([]int, 0, 2*reach+1)
	seen := make(map[int]bool, 2*reach+1)
	for off := -reach; off <= reach; off++ {
		cidx := center + off
		if g.wrapped[dim] {
			cidx = ((cidx % n) + n) % n
		} else if cidx < 0 || cidx >= n {
			continue
		}
		if !seen[cidx] {
			seen[cidx] = true
			out = append(out, cidx)
		}
	}
	return out
}

// ForEachNeighbor calls fn once for every tile within Chebyshev distance
// reach[dim] of tileID along each dimension, honoring periodic wrap on
// wrapped dimensions. Each tile id is visited at most once.
func (g *Grid) ForEachNeighbor(tileID int, reach []int, fn func(tileID int)) {
	center := g.delinearize(tileID)
	ranges := make([][]int, g.d)
	for dd := 0; dd < g.d; dd++ {
		ranges[dd] = g.dimRange(center[dd], reach[dd], dd)
	}

	idx := make([]int, g.d)
	var rec func(dim int)
	rec = func(dim int) {
		if dim == g.d {
			fn(g.linearize(idx))
			return
		}
		for _, c := range ranges[dim] {
			idx[dim] = c
			rec(dim + 1)
		}
	}
	rec(0)
}

// Distance computes the pairwise distance between points i and j under the
// configured wrap rule: for wrapped dimensions, the per-axis delta is
// min(|a-b|, L_d-|a-b|) on the torus of circumference L_d = max_d-min_d;
// otherwise it is the plain Euclidean delta.
func (g *Grid) Distance(c Coordinates, i, j int) float64 {
	sum := 0.0
	for dd := 0; dd < g.d; dd++ {
		a, b := c.Coord(i, dd), c.Coord(j, dd)
		delta := a - b
		if delta < 0 {
			delta = -delta
		}
		if g.wrapped[dd] {
			l := g.max[dd] - g.min[dd]
			if wrap := l - delta; wrap < delta {
				delta = wrap
			}
		}
		sum += delta * delta
	}
	return math.Sqrt(sum)
}

// BoundingBox computes the per-dimension min/max over all n points.
func BoundingBox(c Coordinates, n, d int) (min, max []float64) {
	min = make([]float64, d)
	max = make([]float64, d)
	for dd := 0; dd < d; dd++ {
		min[dd] = math.Inf(1)
		max[dd] = math.Inf(-1)
	}
	for i := 0; i < n; i++ {
		for dd := 0; dd < d; dd++ {
			v := c.Coord(i, dd)
			if v < min[dd] {
				min[dd] = v
			}
			if v > max[dd] {
				max[dd] = v
			}
		}
	}
	return min, max
}
