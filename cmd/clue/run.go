// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cms-patatrack/clue-go/cluster"
	"github.com/cms-patatrack/clue-go/internal/csvio"
	"github.com/cms-patatrack/clue-go/kernel"
	"github.com/cms-patatrack/clue-go/points"
)

var (
	flagDims      int
	flagDC        float64
	flagRhoC      float64
	flagDeltaM    float64
	flagDeltaSeed float64
	flagPPBin     int
	flagWrapped   []int
	flagKernel    string
	flagKernelH   float64
	flagKernelAvg float64
	flagKernelStd float64
	flagKernelAmp float64
	flagOutput    string
	flagProgress  bool
)

var runCmd = &cobra.Command{
	Use:   "run <points.csv>",
	Short: "Cluster a CSV point file",
	Args:  cobra.ExactArgs(1),
	RunE:  runClue,
}

func init() {
	runCmd.Flags().IntVar(&flagDims, "dims", 2, "number of coordinate columns D")
	runCmd.Flags().Float64Var(&flagDC, "dc", 0, "density-convolution radius (required, > 0)")
	runCmd.Flags().Float64Var(&flagRhoC, "rhoc", 0, "minimum density to be a seed or non-outlier")
	runCmd.Flags().Float64Var(&flagDeltaM, "deltam", 0, "maximum nearest-higher search radius / outlier delta threshold")
	runCmd.Flags().Float64Var(&flagDeltaSeed, "deltaseed", cluster.UseDc, "minimum delta to become a seed (default: dc)")
	runCmd.Flags().IntVar(&flagPPBin, "ppbin", 0, "target points per tile (default: cluster.DefaultPointsPerTile)")
	runCmd.Flags().IntSliceVar(&flagWrapped, "wrapped", nil, "comma-separated list of periodic dimension indices")
	runCmd.Flags().StringVar(&flagKernel, "kernel", "flat", "convolution kernel: flat, exponential, or gaussian")
	runCmd.Flags().Float64Var(&flagKernelH, "kernel-h", 1.0, "flat kernel weight")
	runCmd.Flags().Float64Var(&flagKernelAvg, "kernel-avg", 1.0, "exponential/gaussian kernel avg parameter")
	runCmd.Flags().Float64Var(&flagKernelStd, "kernel-std", 1.0, "gaussian kernel std parameter")
	runCmd.Flags().Float64Var(&flagKernelAmp, "kernel-amp", 1.0, "exponential/gaussian kernel amplitude")
	runCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output CSV path (default: stdout)")
	runCmd.Flags().BoolVarP(&flagProgress, "verbose", "v", false, "print pipeline progress to stderr")
}

func buildKernel() (kernel.Kernel, error) {
	switch flagKernel {
	case "flat":
		return kernel.NewFlat(flagKernelH)
	case "exponential":
		return kernel.NewExponential(flagKernelAvg, flagKernelAmp)
	case "gaussian":
		return kernel.NewGaussian(flagKernelAvg, flagKernelStd, flagKernelAmp)
	default:
		return nil, fmt.Errorf("unknown kernel %q: want flat, exponential, or gaussian", flagKernel)
	}
}

func buildWrapped(dims int, periodic []int) ([]bool, error) {
	wrapped := make([]bool, dims)
	for _, dim := range periodic {
		if dim < 0 || dim >= dims {
			return nil, fmt.Errorf("wrapped dimension %d out of range [0,%d)", dim, dims)
		}
		wrapped[dim] = true
	}
	return wrapped, nil
}

func runClue(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	data, err := csvio.ReadPoints(in, flagDims)
	if err != nil {
		return fmt.Errorf("reading points: %w", err)
	}

	store, err := points.New(data.N, data.D)
	if err != nil {
		return err
	}
	if err := store.Load(data.Coords, data.Weights); err != nil {
		return err
	}

	k, err := buildKernel()
	if err != nil {
		return err
	}

	wrapped, err := buildWrapped(data.D, flagWrapped)
	if err != nil {
		return err
	}

	driver, err := cluster.New(cluster.Params{
		DC:        flagDC,
		RhoC:      flagRhoC,
		DeltaM:    flagDeltaM,
		DeltaSeed: flagDeltaSeed,
		PPBin:     flagPPBin,
	})
	if err != nil {
		return err
	}
	defer driver.Close()
	driver.SetWrappedCoordinates(wrapped)
	if flagProgress {
		driver.Progress = os.Stderr
	}

	if err := driver.MakeClusters(store, k); err != nil {
		return fmt.Errorf("clustering: %w", err)
	}

	out := os.Stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return writeLabels(out, store)
}

func writeLabels(out *os.File, store *points.Store) error {
	if _, err := fmt.Fprintln(out, "cluster,is_seed"); err != nil {
		return err
	}
	clusters := store.ReadClusters()
	seeds := store.ReadSeeds()
	for i := range clusters {
		seed := 0
		if seeds[i] {
			seed = 1
		}
		if _, err := fmt.Fprintf(out, "%d,%d\n", clusters[i], seed); err != nil {
			return err
		}
	}
	return nil
}
