// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"github.com/cms-patatrack/clue-go/internal/workerpool"
	"github.com/cms-patatrack/clue-go/points"
)

// status classifies a point after labeling, used internally to tell
// outliers and followers apart even though both carry cluster == Outlier
// at this stage of the pipeline.
type status uint8

const (
	statusFollower status = iota
	statusSeed
	statusOutlier
)

// labelPoints is the seed/outlier labeling pass (C6). Classification of
// each point from (rho, delta) against (rhoC, deltaC, deltaO) is an
// embarrassingly parallel map; seed cluster-id assignment is not, because
// it depends on the ascending-index rank of each point among all seeds, so
// it runs as a second, sequential pass over the (cheap, O(n)) status
// classification.
//
// Returns the seeds and followers in ascending point-index order.
func labelPoints(store *points.Store, rhoC, deltaC, deltaO float64, pool *workerpool.Pool) (seeds, followers []int32) {
	n := store.N()
	rho := store.Rho()
	delta := store.Delta()
	cluster := store.Cluster()
	isSeed := store.IsSeed()

	statuses := make([]status, n)
	pool.ParallelForAtomic(n, func(i int) {
		switch {
		case rho[i] < rhoC && delta[i] > deltaO:
			statuses[i] = statusOutlier
		case rho[i] >= rhoC && delta[i] > deltaC:
			statuses[i] = statusSeed
		default:
			statuses[i] = statusFollower
		}
	})

	seeds = make([]int32, 0)
	followers = make([]int32, 0)
	for i := 0; i < n; i++ {
		switch statuses[i] {
		case statusOutlier:
			cluster[i] = points.Outlier
			isSeed[i] = false
		case statusSeed:
			isSeed[i] = true
			cluster[i] = int32(len(seeds))
			seeds = append(seeds, int32(i))
		default:
			isSeed[i] = false
			cluster[i] = points.Outlier // unset until propagation assigns it
			followers = append(followers, int32(i))
		}
	}
	return seeds, followers
}
