// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package cluster implements the clusterer driver (C8) and the four
// pipeline passes it orchestrates (C4-C7): density, nearest-higher,
// seed/outlier labeling, and propagation.
//
// Grounded on CLUEstering/core/Clusterer.hpp's Clusterer class: a
// constructor takes (d_c, rho_c, d_m, seed_dc, pPBin), setParameters lets a
// caller replace them without reconstructing the driver, and make_clusters
// runs the pipeline end-to-end over a point store. The accelerator/queue
// arguments the original threads through every call have no equivalent
// here; the parallel substrate is internal/workerpool, owned by the driver
// the way go-highway's Pool is owned by its caller across many operations.
package cluster

import (
	"fmt"
	"io"

	"github.com/cms-patatrack/clue-go/clueerr"
	"github.com/cms-patatrack/clue-go/internal/workerpool"
	"github.com/cms-patatrack/clue-go/kernel"
	"github.com/cms-patatrack/clue-go/points"
	"github.com/cms-patatrack/clue-go/tiles"
)

// DefaultPointsPerTile is the default target points-per-tile used when a
// Params leaves PPBin unset.
const DefaultPointsPerTile = 128

// UseDc is the sentinel DeltaSeed value meaning "default to Dc", mirroring
// the original's -1.f default parameter.
const UseDc = -1

// Params configures a Driver, grounded on the config-struct convention used
// throughout the pack's services (e.g. banshee's DBSCANConfig) rather than
// the original's positional-argument-with-defaults constructor, which Go
// has no equivalent for.
type Params struct {
	// DC is the density-convolution radius (C4). Required, must be > 0.
	DC float64
	// RhoC is the minimum density for a point to be a seed or non-outlier.
	// Required, must be >= 0.
	RhoC float64
	// DeltaM is the maximum C5 search radius and the outlier-delta
	// threshold. Required, must be >= 0.
	DeltaM float64
	// DeltaSeed is the minimum delta for a point to become a seed. Pass
	// UseDc (-1) to default to DC.
	DeltaSeed float64
	// PPBin is the target points-per-tile. Pass 0 to default to
	// DefaultPointsPerTile.
	PPBin int
}

// Driver is the clusterer driver (C8): it holds the clustering parameters,
// the periodic-coordinate flags and the reusable parallel-execution pool,
// and exposes make_clusters. A reusable tile grid is passed per call to
// MakeClustersInto rather than held by the Driver.
type Driver struct {
	dc, rhoC, deltaM, deltaSeed float64
	pPBin                       int
	wrapped                     []bool

	pool     *workerpool.Pool
	ownsPool bool

	// Progress, if non-nil, receives two lines per call: the tile count
	// after the tile fill, and the seed/follower/outlier counts after
	// labeling. Pass timings are not emitted, which keeps the output
	// deterministic across runs.
	Progress io.Writer
}

// New constructs a Driver. Fails with InvalidParameter if DC <= 0,
// RhoC < 0, DeltaM < 0, or PPBin < 0.
func New(p Params) (*Driver, error) {
	if p.DC <= 0 {
		return nil, clueerr.Newf(clueerr.InvalidParameter, "cluster.New", "DC must be > 0, got %v", p.DC)
	}
	if p.RhoC < 0 {
		return nil, clueerr.Newf(clueerr.InvalidParameter, "cluster.New", "RhoC must be >= 0, got %v", p.RhoC)
	}
	if p.DeltaM < 0 {
		return nil, clueerr.Newf(clueerr.InvalidParameter, "cluster.New", "DeltaM must be >= 0, got %v", p.DeltaM)
	}
	if p.PPBin < 0 {
		return nil, clueerr.Newf(clueerr.InvalidParameter, "cluster.New", "PPBin must be >= 0, got %d", p.PPBin)
	}

	d := &Driver{pool: workerpool.New(0), ownsPool: true}
	if err := d.SetParameters(p); err != nil {
		d.pool.Close()
		return nil, err
	}
	return d, nil
}

// SetParameters replaces the clustering parameters, mirroring the
// original's Clusterer::setParameters as a mutator distinct from
// construction.
func (d *Driver) SetParameters(p Params) error {
	if p.DC <= 0 {
		return clueerr.Newf(clueerr.InvalidParameter, "cluster.Driver.SetParameters", "DC must be > 0, got %v", p.DC)
	}
	if p.RhoC < 0 {
		return clueerr.Newf(clueerr.InvalidParameter, "cluster.Driver.SetParameters", "RhoC must be >= 0, got %v", p.RhoC)
	}
	if p.DeltaM < 0 {
		return clueerr.Newf(clueerr.InvalidParameter, "cluster.Driver.SetParameters", "DeltaM must be >= 0, got %v", p.DeltaM)
	}
	if p.PPBin < 0 {
		return clueerr.Newf(clueerr.InvalidParameter, "cluster.Driver.SetParameters", "PPBin must be >= 0, got %d", p.PPBin)
	}

	deltaSeed := p.DeltaSeed
	if deltaSeed == UseDc {
		deltaSeed = p.DC
	} else if deltaSeed < 0 {
		return clueerr.Newf(clueerr.InvalidParameter, "cluster.Driver.SetParameters", "DeltaSeed must be >= 0 or UseDc, got %v", p.DeltaSeed)
	}

	pPBin := p.PPBin
	if pPBin == 0 {
		pPBin = DefaultPointsPerTile
	}

	d.dc = p.DC
	d.rhoC = p.RhoC
	d.deltaM = p.DeltaM
	d.deltaSeed = deltaSeed
	d.pPBin = pPBin
	return nil
}

// SetWrappedCoordinates sets the per-axis periodic flags. Takes effect on
// the next MakeClusters call.
func (d *Driver) SetWrappedCoordinates(wrapped []bool) {
	d.wrapped = append([]bool(nil), wrapped...)
}

// Close releases the driver's worker pool.
func (d *Driver) Close() {
	if d.ownsPool {
		d.pool.Close()
	}
}

// MakeClusters runs C3 through C7 end to end over store using kernel k,
// building and discarding a fresh tile grid. On return store carries the
// final cluster ids and is_seed flags.
func (d *Driver) MakeClusters(store *points.Store, k kernel.Kernel) error {
	grid, err := tiles.New(store.D())
	if err != nil {
		return err
	}
	return d.MakeClustersInto(grid, store, k)
}

// MakeClustersInto runs C3 through C7 over store using kernel k and a
// caller-supplied tile grid, only refilling its contents rather than
// reallocating it: the tile grid is rebuilt per call unless the caller
// supplies a pre-allocated one with matching N, mirroring the original's
// tile_buffer constructor overload.
func (d *Driver) MakeClustersInto(grid *tiles.Grid, store *points.Store, k kernel.Kernel) (err error) {
	n, dim := store.N(), store.D()

	wrapped := d.wrapped
	if wrapped == nil {
		wrapped = make([]bool, dim)
	} else if len(wrapped) != dim {
		return clueerr.Newf(clueerr.InvalidParameter, "cluster.Driver.MakeClustersInto", "wrapped flags length %d, want D=%d", len(wrapped), dim)
	}

	defer func() {
		if r := recover(); r != nil {
			err = clueerr.Newf(clueerr.NumericError, "cluster.Driver.MakeClustersInto", "%v", r)
		}
	}()

	store.ResetDerived()

	min, max := tiles.BoundingBox(store, n, dim)
	counts := tiles.ComputeTileCounts(n, dim, d.pPBin)
	if err := grid.Configure(min, max, counts, wrapped); err != nil {
		return err
	}
	if err := grid.Fill(store, n, d.pool); err != nil {
		return err
	}
	d.logf("tiles: %d points into %d tiles\n", n, grid.Total())

	computeDensity(store, grid, d.dc, k, d.pool)
	for _, r := range store.Rho() {
		if r != r || r > 1e300 || r < -1e300 {
			return clueerr.New(clueerr.NumericError, "cluster.Driver.MakeClustersInto", "non-finite density")
		}
	}

	computeNearestHigher(store, grid, d.deltaM, d.pool)

	seeds, followers := labelPoints(store, d.rhoC, d.deltaSeed, d.deltaM, d.pool)
	d.logf("labeling: %d seeds, %d followers, %d outliers\n", len(seeds), len(followers), n-len(seeds)-len(followers))

	propagate(store, seeds, followers)
	return nil
}

func (d *Driver) logf(format string, args ...any) {
	if d.Progress != nil {
		fmt.Fprintf(d.Progress, format, args...)
	}
}
