// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"math"
	"os"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cms-patatrack/clue-go/internal/csvio"
	"github.com/cms-patatrack/clue-go/internal/workerpool"
	"github.com/cms-patatrack/clue-go/kernel"
	"github.com/cms-patatrack/clue-go/points"
	"github.com/cms-patatrack/clue-go/tiles"
)

// buildStore loads a D-dimensional, dimension-major coordinate slice and a
// weight slice into a fresh Store.
func buildStore(t *testing.T, dims int, coords, weights []float64) *points.Store {
	t.Helper()
	n := len(weights)
	s, err := points.New(n, dims)
	if err != nil {
		t.Fatalf("points.New: %v", err)
	}
	if err := s.Load(coords, weights); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func flatKernel(t *testing.T, h float64) kernel.Kernel {
	t.Helper()
	k, err := kernel.NewFlat(h)
	if err != nil {
		t.Fatalf("NewFlat: %v", err)
	}
	return k
}

// S1: trivial single cluster.
func TestScenarioS1(t *testing.T) {
	// dimension-major: x = {0,0,1,1,.5}, y = {0,1,0,1,.5}
	coords := []float64{0, 0, 1, 1, 0.5, 0, 1, 0, 1, 0.5}
	weights := []float64{1, 1, 1, 1, 1}
	store := buildStore(t, 2, coords, weights)

	d, err := New(Params{DC: 2.0, RhoC: 0.0, DeltaM: 2.0, DeltaSeed: 2.0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if err := d.MakeClusters(store, flatKernel(t, 0.5)); err != nil {
		t.Fatalf("MakeClusters: %v", err)
	}

	groups := GroupByCluster(store.ReadClusters())
	if len(groups) != 1 || len(groups[0]) != 5 {
		t.Fatalf("groups = %v, want one cluster of 5", groups)
	}
	seeds := store.ReadSeeds()
	count := 0
	firstSeed := -1
	for i, s := range seeds {
		if s {
			count++
			if firstSeed == -1 {
				firstSeed = i
			}
		}
	}
	if count != 1 {
		t.Errorf("seed count = %d, want 1", count)
	}
	if firstSeed != 0 {
		t.Errorf("seed index = %d, want 0 (lowest index on a density tie)", firstSeed)
	}
}

// S2: two well-separated clusters, no outliers.
func TestScenarioS2(t *testing.T) {
	coords := []float64{0, 1, 2, 10, 11, 12}
	weights := []float64{1, 1, 1, 1, 1, 1}
	store := buildStore(t, 1, coords, weights)

	d, err := New(Params{DC: 1.5, RhoC: 1.5, DeltaM: 5.0, DeltaSeed: 3.0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if err := d.MakeClusters(store, flatKernel(t, 0.5)); err != nil {
		t.Fatalf("MakeClusters: %v", err)
	}

	groups := GroupByCluster(store.ReadClusters())
	if len(groups) != 2 {
		t.Fatalf("num clusters = %d, want 2", len(groups))
	}
	for _, g := range groups {
		if len(g) != 3 {
			t.Errorf("cluster size = %d, want 3", len(g))
		}
	}
	for _, c := range store.ReadClusters() {
		if c == points.Outlier {
			t.Errorf("unexpected outlier")
		}
	}
}

// S3: one cluster, one outlier.
func TestScenarioS3(t *testing.T) {
	coords := []float64{0, 1, 2, 100}
	weights := []float64{1, 1, 1, 1}
	store := buildStore(t, 1, coords, weights)

	d, err := New(Params{DC: 1.5, RhoC: 1.5, DeltaM: 5.0, DeltaSeed: UseDc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if err := d.MakeClusters(store, flatKernel(t, 0.5)); err != nil {
		t.Fatalf("MakeClusters: %v", err)
	}

	groups := GroupByCluster(store.ReadClusters())
	if len(groups) != 1 || len(groups[0]) != 3 {
		t.Fatalf("groups = %v, want one cluster of 3", groups)
	}
	clusters := store.ReadClusters()
	if clusters[3] != points.Outlier {
		t.Errorf("point 3 cluster = %d, want Outlier", clusters[3])
	}
}

// S4: periodic wrap bridges the boundary into a single cluster.
func TestScenarioS4(t *testing.T) {
	coords := []float64{0.1, 0.2, 9.8, 9.9}
	weights := []float64{1, 1, 1, 1}
	store := buildStore(t, 1, coords, weights)

	d, err := New(Params{DC: 0.5, RhoC: 0.5, DeltaM: 2.0, DeltaSeed: UseDc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	d.SetWrappedCoordinates([]bool{true})

	if err := d.MakeClusters(store, flatKernel(t, 0.5)); err != nil {
		t.Fatalf("MakeClusters: %v", err)
	}

	groups := GroupByCluster(store.ReadClusters())
	if len(groups) != 1 || len(groups[0]) != 4 {
		t.Fatalf("groups = %v, want one cluster of 4", groups)
	}
}

// S5: index tie-break on equal density.
func TestScenarioS5(t *testing.T) {
	coords := []float64{0, 1, 2}
	weights := []float64{1, 1, 1}
	store := buildStore(t, 1, coords, weights)

	d, err := New(Params{DC: 2.0, RhoC: 0.0, DeltaM: 2.0, DeltaSeed: UseDc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if err := d.MakeClusters(store, flatKernel(t, 0.5)); err != nil {
		t.Fatalf("MakeClusters: %v", err)
	}

	if store.NH()[1] != 0 {
		t.Errorf("nh[1] = %d, want 0", store.NH()[1])
	}
	seeds := store.ReadSeeds()
	count := 0
	for i, s := range seeds {
		if s {
			count++
			if i != 0 {
				t.Errorf("unexpected seed at index %d", i)
			}
		}
	}
	if count != 1 {
		t.Errorf("seed count = %d, want 1", count)
	}
}

// S6: bundled reference dataset — four well-separated, densely packed
// rings of 250 points each (see testdata/reference.csv and DESIGN.md for
// how this stand-in dataset was constructed and why its expected outcome
// is derivable by hand). Expect four clusters of 250 points, no outliers.
func TestScenarioS6ReferenceDataset(t *testing.T) {
	f, err := os.Open("../testdata/reference.csv")
	if err != nil {
		t.Fatalf("open reference dataset: %v", err)
	}
	defer f.Close()

	pts, err := csvio.ReadPoints(f, 2)
	if err != nil {
		t.Fatalf("ReadPoints: %v", err)
	}
	if pts.N != 1000 {
		t.Fatalf("N = %d, want 1000", pts.N)
	}

	store := buildStore(t, 2, pts.Coords, pts.Weights)
	d, err := New(Params{DC: 5.0, RhoC: 5.0, DeltaM: 10.0, DeltaSeed: 5.0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if err := d.MakeClusters(store, flatKernel(t, 0.5)); err != nil {
		t.Fatalf("MakeClusters: %v", err)
	}

	sizes := Sizes(store.ReadClusters())
	if len(sizes) != 4 {
		t.Fatalf("num clusters = %d, want 4 (sizes %v)", len(sizes), sizes)
	}
	for _, sz := range sizes {
		if sz != 250 {
			t.Errorf("cluster size = %d, want 250 (sizes %v)", sz, sizes)
		}
	}
	for _, c := range store.ReadClusters() {
		if c == points.Outlier {
			t.Errorf("unexpected outlier in reference dataset")
		}
	}
}

// S8: rename invariance vs reference. A relabeling of cluster ids is still
// the same partition, so the sorted multiset of cluster sizes must match a
// reference labeling even though the reference's id numbering (testdata/
// reference_labels.csv permutes ring 0..3 to labels 3,0,2,1) has nothing to
// do with the ids this run assigns.
func TestScenarioS8RenameInvarianceVsReference(t *testing.T) {
	f, err := os.Open("../testdata/reference.csv")
	if err != nil {
		t.Fatalf("open reference dataset: %v", err)
	}
	defer f.Close()

	pts, err := csvio.ReadPoints(f, 2)
	if err != nil {
		t.Fatalf("ReadPoints: %v", err)
	}

	store := buildStore(t, 2, pts.Coords, pts.Weights)
	d, err := New(Params{DC: 5.0, RhoC: 5.0, DeltaM: 10.0, DeltaSeed: 5.0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if err := d.MakeClusters(store, flatKernel(t, 0.5)); err != nil {
		t.Fatalf("MakeClusters: %v", err)
	}

	labelsFile, err := os.Open("../testdata/reference_labels.csv")
	if err != nil {
		t.Fatalf("open reference labels: %v", err)
	}
	defer labelsFile.Close()

	reference, err := csvio.ReadLabels(labelsFile)
	if err != nil {
		t.Fatalf("ReadLabels: %v", err)
	}

	got := Sizes(store.ReadClusters())
	want := Sizes(reference.ClusterIDs)
	sort.Ints(got)
	sort.Ints(want)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sorted cluster size multiset mismatch vs reference (-want +got):\n%s", diff)
	}
}

// Property 2: density monotonicity under a Flat kernel. Every point's own
// weight contributes exactly once to its density (the self term, fixed at
// weight*1 regardless of kernel shape), and every other term a Flat kernel
// adds is non-negative, so rho[i] >= w[i] for all i whenever every weight
// is non-negative.
func TestDensityMonotonicityUnderFlatKernel(t *testing.T) {
	coords := []float64{0, 0.3, 0.6, 5, 5.2, 9, 9.1, 9.9}
	weights := []float64{1, 2, 0, 3, 1, 0.5, 4, 2}
	store := buildStore(t, 1, coords, weights)

	d, err := New(Params{DC: 1.0, RhoC: 0.0, DeltaM: 2.0, DeltaSeed: 1.0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	if err := d.MakeClusters(store, flatKernel(t, 0.4)); err != nil {
		t.Fatalf("MakeClusters: %v", err)
	}

	rho := store.Rho()
	for i, w := range weights {
		if rho[i] < w {
			t.Errorf("rho[%d] = %v, want >= weight %v", i, rho[i], w)
		}
	}
}

// --- Cross-cutting pipeline properties ---

func TestDeterminism(t *testing.T) {
	coords := []float64{0, 1, 2, 10, 11, 12}
	weights := []float64{1, 1, 1, 1, 1, 1}

	run := func() []int32 {
		store := buildStore(t, 1, coords, weights)
		d, err := New(Params{DC: 1.5, RhoC: 1.5, DeltaM: 5.0, DeltaSeed: 3.0})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		defer d.Close()
		if err := d.MakeClusters(store, flatKernel(t, 0.5)); err != nil {
			t.Fatalf("MakeClusters: %v", err)
		}
		return store.ReadClusters()
	}

	first := run()
	for i := 0; i < 5; i++ {
		got := run()
		if len(got) != len(first) {
			t.Fatalf("length mismatch on run %d", i)
		}
		for j := range got {
			if got[j] != first[j] {
				t.Errorf("run %d: cluster[%d] = %d, want %d (determinism violated)", i, j, got[j], first[j])
			}
		}
	}
}

func TestNearestHigherWellFormedness(t *testing.T) {
	coords := []float64{0, 1, 2, 10, 11, 12}
	weights := []float64{1, 1, 1, 1, 1, 1}
	store := buildStore(t, 1, coords, weights)
	d, err := New(Params{DC: 1.5, RhoC: 1.5, DeltaM: 5.0, DeltaSeed: 3.0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	if err := d.MakeClusters(store, flatKernel(t, 0.5)); err != nil {
		t.Fatalf("MakeClusters: %v", err)
	}

	grid := buildGrid(t, store, nil)
	rho := store.Rho()
	nh := store.NH()
	delta := store.Delta()
	for i := 0; i < store.N(); i++ {
		if nh[i] == points.None {
			continue
		}
		j := int(nh[i])
		if !higher(rho, j, i) {
			t.Errorf("nh[%d]=%d is not higher-density", i, j)
		}
		want := grid.Distance(store, i, j)
		if math.Abs(delta[i]-want) > 1e-9 {
			t.Errorf("delta[%d] = %v, want dist(i, nh[i]) = %v", i, delta[i], want)
		}
	}
}

func TestSeedOutlierExclusivityAndClusterTreeCoverage(t *testing.T) {
	coords := []float64{0, 1, 2, 100}
	weights := []float64{1, 1, 1, 1}
	store := buildStore(t, 1, coords, weights)
	d, err := New(Params{DC: 1.5, RhoC: 1.5, DeltaM: 5.0, DeltaSeed: UseDc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	if err := d.MakeClusters(store, flatKernel(t, 0.5)); err != nil {
		t.Fatalf("MakeClusters: %v", err)
	}

	seeds := store.ReadSeeds()
	clusters := store.ReadClusters()
	nh := store.NH()

	for i := 0; i < store.N(); i++ {
		isOutlier := clusters[i] == points.Outlier && !seeds[i]
		if seeds[i] && isOutlier {
			t.Errorf("point %d is both seed and outlier", i)
		}
		if !seeds[i] && clusters[i] != points.Outlier {
			// non-seed, non-outlier: must reach a seed by following nh.
			cur := i
			steps := 0
			for !seeds[cur] {
				if nh[cur] == points.None {
					t.Fatalf("point %d: follower chain hit None before reaching a seed", i)
				}
				cur = int(nh[cur])
				steps++
				if steps > store.N() {
					t.Fatalf("point %d: follower chain did not terminate", i)
				}
			}
			if clusters[cur] != clusters[i] {
				t.Errorf("point %d cluster %d does not match its seed's cluster %d", i, clusters[i], clusters[cur])
			}
		}
	}
}

// buildGrid independently rebuilds the tile grid MakeClusters would have
// used for store, so tests can recompute dist(i, nh[i]) against delta[i]
// without reaching into Driver internals.
func buildGrid(t *testing.T, store *points.Store, wrapped []bool) *tiles.Grid {
	t.Helper()
	grid, err := tiles.New(store.D())
	if err != nil {
		t.Fatalf("tiles.New: %v", err)
	}
	if wrapped == nil {
		wrapped = make([]bool, store.D())
	}
	min, max := tiles.BoundingBox(store, store.N(), store.D())
	counts := tiles.ComputeTileCounts(store.N(), store.D(), DefaultPointsPerTile)
	if err := grid.Configure(min, max, counts, wrapped); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	pool := workerpool.New(0)
	defer pool.Close()
	if err := grid.Fill(store, store.N(), pool); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	return grid
}
