// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Command clue runs the density-based clusterer over a CSV point file and
// writes one cluster id / is_seed pair per input row.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "clue:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "clue",
	Short:   "Density-based point clustering",
	Long:    "clue clusters a set of weighted points by local density, following the CLUE algorithm: a density pass, a nearest-higher-density-neighbor search, seed/outlier classification, and cluster propagation.",
	Version: version,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("clue", version)
	},
}
