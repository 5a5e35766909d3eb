// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"golang.org/x/sync/errgroup"

	"github.com/cms-patatrack/clue-go/clueerr"
	"github.com/cms-patatrack/clue-go/kernel"
	"github.com/cms-patatrack/clue-go/points"
)

// MakeClustersAll clusters several independent point sets concurrently,
// each with its own tile grid, and returns the first error encountered,
// applying the same all-or-nothing failure policy as a single MakeClusters
// call to each point set independently. This is a batch convenience the
// original doesn't need (it clusters one point set per Clusterer), added
// because the workerpool substrate has no facility of its own for fanning
// out independent top-level calls with error aggregation;
// golang.org/x/sync/errgroup is the idiomatic way to do that, and is
// already present in go-highway's dependency graph.
func (d *Driver) MakeClustersAll(stores []*points.Store, kernels []kernel.Kernel) error {
	if len(stores) != len(kernels) {
		return clueerr.Newf(clueerr.InvalidParameter, "cluster.Driver.MakeClustersAll", "stores/kernels length mismatch: %d vs %d", len(stores), len(kernels))
	}

	var g errgroup.Group
	for i := range stores {
		store, k := stores[i], kernels[i]
		g.Go(func() error {
			return d.MakeClusters(store, k)
		})
	}
	return g.Wait()
}
