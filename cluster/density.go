// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"github.com/cms-patatrack/clue-go/internal/workerpool"
	"github.com/cms-patatrack/clue-go/kernel"
	"github.com/cms-patatrack/clue-go/points"
	"github.com/cms-patatrack/clue-go/tiles"
)

// computeDensity is the density pass (C4): for each point, in parallel, sum
// w[j]*kernel(dist,i,j) over every point j within d_c of i, found by
// scanning the tiles within the grid's d_c reach. The accumulator is
// thread-local to point i so no cross-worker synchronization is needed
// inside the loop.
func computeDensity(store *points.Store, grid *tiles.Grid, dc float64, k kernel.Kernel, pool *workerpool.Pool) {
	reach := grid.ReachForRadius(dc)
	rho := store.Rho()
	n := store.N()

	pool.ParallelForAtomic(n, func(i int) {
		ti := grid.TileOf(store, i)
		var sum float64
		grid.ForEachNeighbor(ti, reach, func(tileID int) {
			for _, j32 := range grid.PointsIn(tileID) {
				j := int(j32)
				d := grid.Distance(store, i, j)
				if d > dc {
					continue
				}
				sum += store.Weight(j) * k.Weight(d, i, j)
			}
		})
		rho[i] = sum
	})
}
