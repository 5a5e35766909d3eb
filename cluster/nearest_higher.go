// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"math"

	"github.com/cms-patatrack/clue-go/internal/workerpool"
	"github.com/cms-patatrack/clue-go/points"
	"github.com/cms-patatrack/clue-go/tiles"
)

// higher reports whether j is "higher than" i: strictly greater density, or
// equal density and a lower index. The index tie-break makes the
// nearest-higher result independent of tile iteration order and of which
// goroutine races to compute it first.
func higher(rho []float64, j, i int) bool {
	if rho[j] != rho[i] {
		return rho[j] > rho[i]
	}
	return j < i
}

// computeNearestHigher is the nearest-higher pass (C5): for each point, in
// parallel, finds the closest point with strictly greater density (ties
// broken by index) within the search radius delta_m, examining only the
// tiles within that radius's Chebyshev reach.
func computeNearestHigher(store *points.Store, grid *tiles.Grid, deltaM float64, pool *workerpool.Pool) {
	reach := grid.ReachForRadius(deltaM)
	rho := store.Rho()
	delta := store.Delta()
	nh := store.NH()
	n := store.N()

	pool.ParallelForAtomic(n, func(i int) {
		ti := grid.TileOf(store, i)
		bestDelta := math.Inf(1)
		bestNH := points.None

		grid.ForEachNeighbor(ti, reach, func(tileID int) {
			for _, j32 := range grid.PointsIn(tileID) {
				j := int(j32)
				if j == i {
					continue
				}
				d := grid.Distance(store, i, j)
				if d > deltaM {
					continue
				}
				if !higher(rho, j, i) {
					continue
				}
				if d < bestDelta || (d == bestDelta && int32(j) < bestNH) {
					bestDelta = d
					bestNH = int32(j)
				}
			}
		})

		delta[i] = bestDelta
		nh[i] = bestNH
	})
}
