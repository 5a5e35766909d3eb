// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cluster

import "github.com/samber/lo"

// NumClusters returns the number of clusters K represented in clusterIDs
// (outliers, -1, excluded), mirroring
// CLUEstering/core/internal/validation.hpp's compute_nclusters.
func NumClusters(clusterIDs []int32) int {
	max := int32(-1)
	for _, c := range clusterIDs {
		if c > max {
			max = c
		}
	}
	return int(max) + 1
}

// GroupByCluster implements get_clusters (C8): groups point indices by
// final cluster id, excluding outliers. Grounded on
// other_examples/d6c24078_sixy6e-go-gsf__ping.go.go's use of samber/lo for
// slice grouping instead of a hand-rolled accumulation loop.
func GroupByCluster(clusterIDs []int32) [][]int32 {
	indices := make([]int32, len(clusterIDs))
	for i := range indices {
		indices[i] = int32(i)
	}

	byCluster := lo.GroupBy(indices, func(i int32) int32 { return clusterIDs[i] })

	k := NumClusters(clusterIDs)
	out := make([][]int32, k)
	for cid := 0; cid < k; cid++ {
		pts := byCluster[int32(cid)]
		out[cid] = append([]int32(nil), pts...)
	}
	return out
}

// Sizes returns the size of each cluster, mirroring
// CLUEstering/core/internal/validation.hpp's compute_clusters_size.
func Sizes(clusterIDs []int32) []int {
	groups := GroupByCluster(clusterIDs)
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g)
	}
	return sizes
}
