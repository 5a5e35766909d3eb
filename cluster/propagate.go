// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cluster

import "github.com/cms-patatrack/clue-go/points"

// buildFollowerCSR builds the inverse adjacency of the nearest-higher
// forest as a CSR layout (starts, children): a counting pass over
// followers, an exclusive prefix-sum over starts, then a scatter pass in
// ascending follower index so each parent's children list comes out sorted
// with no explicit sort step — the same pattern tiles.Grid.Fill uses for
// tile membership.
func buildFollowerCSR(n int, nh []int32, followers []int32) (starts []int32, children []int32) {
	starts = make([]int32, n+1)
	for _, f := range followers {
		starts[nh[f]+1]++
	}
	for p := 0; p < n; p++ {
		starts[p+1] += starts[p]
	}

	cursor := make([]int32, n)
	copy(cursor, starts[:n])

	children = make([]int32, len(followers))
	for _, f := range followers {
		p := nh[f]
		children[cursor[p]] = f
		cursor[p]++
	}
	return starts, children
}

// propagate is the propagation pass (C7): breadth-first traversal of the
// follower forest rooted at each seed, in ascending seed-id order. The
// forest has no cycles (every edge points from a lower-density point to a
// point of strictly higher density, or an equal-density point of lower
// index, which is a well-founded order), so BFS vs DFS does not change the
// result; BFS is used because it matches the level-by-level queue idiom
// go-highway's own worklist-draining code (workerpool) already uses.
func propagate(store *points.Store, seeds, followers []int32) {
	n := store.N()
	nh := store.NH()
	cluster := store.Cluster()

	starts, children := buildFollowerCSR(n, nh, followers)

	queue := make([]int32, 0, len(followers)+len(seeds))
	for _, s := range seeds {
		cid := cluster[s]
		queue = queue[:0]
		queue = append(queue, s)
		for head := 0; head < len(queue); head++ {
			u := queue[head]
			for _, v := range children[starts[u]:starts[u+1]] {
				cluster[v] = cid
				queue = append(queue, v)
			}
		}
	}
}
