// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package csvio implements CSV ingestion: a non-core collaborator that
// reads points and reference labels into the dimension-major buffers the
// core pipeline expects.
//
// Grounded on CLUEstering/utility/read_csv.hpp's read_csv/read_output free
// functions, reimplemented over encoding/csv: no CSV library appears
// anywhere in the retrieved corpus (see DESIGN.md), so the standard library
// reader is the grounded choice here, unlike the rest of the ambient stack.
package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/cms-patatrack/clue-go/clueerr"
)

// Points holds the buffers read from a point CSV: Coords is dimension
// major (D*N), Weights has length N, matching points.Store.Load's input
// shape.
type Points struct {
	D, N    int
	Coords  []float64
	Weights []float64
}

// ReadPoints reads a header row followed by one row per point: D
// coordinate columns then a weight column, comma-separated. dims is the
// expected number of coordinate columns D.
func ReadPoints(r io.Reader, dims int) (*Points, error) {
	if dims <= 0 {
		return nil, clueerr.Newf(clueerr.InvalidParameter, "csvio.ReadPoints", "dims must be > 0, got %d", dims)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = dims + 1

	if _, err := reader.Read(); err != nil { // header
		if err == io.EOF {
			return nil, clueerr.New(clueerr.IOError, "csvio.ReadPoints", "empty input: missing header row")
		}
		return nil, clueerr.Newf(clueerr.IOError, "csvio.ReadPoints", "reading header: %v", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, clueerr.Newf(clueerr.IOError, "csvio.ReadPoints", "%v", err)
	}

	n := len(records)
	coords := make([]float64, dims*n)
	weights := make([]float64, n)

	for row, rec := range records {
		for dim := 0; dim < dims; dim++ {
			v, err := strconv.ParseFloat(rec[dim], 64)
			if err != nil {
				return nil, clueerr.Newf(clueerr.IOError, "csvio.ReadPoints", "row %d column %d: %v", row, dim, err)
			}
			coords[dim*n+row] = v
		}
		w, err := strconv.ParseFloat(rec[dims], 64)
		if err != nil {
			return nil, clueerr.Newf(clueerr.IOError, "csvio.ReadPoints", "row %d weight column: %v", row, err)
		}
		weights[row] = w
	}

	return &Points{D: dims, N: n, Coords: coords, Weights: weights}, nil
}

// Labels holds a reference labeling read by ReadLabels: one cluster id and
// is-seed flag per point, in row order.
type Labels struct {
	ClusterIDs []int32
	IsSeed     []bool
}

// ReadLabels reads a header row followed by one row per point with a
// cluster-id column and an is-seed column (1/0), mirroring
// CLUEstering/utility/read_csv.hpp's read_output, used to compare a run's
// output against a bundled reference labeling.
func ReadLabels(r io.Reader) (*Labels, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, clueerr.New(clueerr.IOError, "csvio.ReadLabels", "empty input: missing header row")
		}
		return nil, clueerr.Newf(clueerr.IOError, "csvio.ReadLabels", "reading header: %v", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, clueerr.Newf(clueerr.IOError, "csvio.ReadLabels", "%v", err)
	}

	ids := make([]int32, len(records))
	seeds := make([]bool, len(records))
	for row, rec := range records {
		id, err := strconv.ParseInt(rec[0], 10, 32)
		if err != nil {
			return nil, clueerr.Newf(clueerr.IOError, "csvio.ReadLabels", "row %d cluster id: %v", row, err)
		}
		seed, err := strconv.ParseInt(rec[1], 10, 32)
		if err != nil {
			return nil, clueerr.Newf(clueerr.IOError, "csvio.ReadLabels", "row %d is_seed: %v", row, err)
		}
		ids[row] = int32(id)
		seeds[row] = seed != 0
	}
	return &Labels{ClusterIDs: ids, IsSeed: seeds}, nil
}
