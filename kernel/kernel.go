// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package kernel implements the convolutional weight functions used by the
// density pass (C4) to turn pairwise distance into a contribution weight.
//
// Grounded on CLUEstering/core/ConvolutionalKernel.hpp: the three variants
// (Flat, Exponential, Gaussian) share a call signature of
// (distance, i, j) -> weight and are pure — no hidden state, safe to call
// from many goroutines at once inside the C4 inner loop.
package kernel

import (
	"math"

	"github.com/cms-patatrack/clue-go/clueerr"
)

// Kernel computes a non-negative convolution weight for a pair of points i
// and j separated by dist. By contract, Kernel(0, i, i) == 1 for all
// implementations: the self-term of the density sum is always the point's
// raw weight, independent of kernel shape and regardless of non-unit
// weight (this is deliberate, not a bug).
type Kernel interface {
	// Weight returns the kernel value for points i and j at distance dist.
	// Callers must pass dist == 0 and i == j for the self-term; Weight
	// returns exactly 1 in that case regardless of kernel parameters.
	Weight(dist float64, i, j int) float64
}

// Flat returns a constant weight h for every i != j.
type Flat struct {
	h float64
}

// NewFlat constructs a Flat kernel. Fails with InvalidParameter if h <= 0.
func NewFlat(h float64) (Flat, error) {
	if h <= 0 {
		return Flat{}, clueerr.Newf(clueerr.InvalidParameter, "kernel.NewFlat", "h must be > 0, got %v", h)
	}
	return Flat{h: h}, nil
}

// Weight implements Kernel.
func (f Flat) Weight(dist float64, i, j int) float64 {
	if i == j {
		return 1
	}
	return f.h
}

// Exponential returns amp * exp(-avg * dist) for i != j.
type Exponential struct {
	avg, amp float64
}

// NewExponential constructs an Exponential kernel. Fails with
// InvalidParameter if avg <= 0 or amp <= 0.
func NewExponential(avg, amp float64) (Exponential, error) {
	if avg <= 0 {
		return Exponential{}, clueerr.Newf(clueerr.InvalidParameter, "kernel.NewExponential", "avg must be > 0, got %v", avg)
	}
	if amp <= 0 {
		return Exponential{}, clueerr.Newf(clueerr.InvalidParameter, "kernel.NewExponential", "amp must be > 0, got %v", amp)
	}
	return Exponential{avg: avg, amp: amp}, nil
}

// Weight implements Kernel.
func (e Exponential) Weight(dist float64, i, j int) float64 {
	if i == j {
		return 1
	}
	return e.amp * math.Exp(-e.avg*dist)
}

// Gaussian returns amp * exp(-(dist-avg)^2 / (2*std^2)) for i != j.
type Gaussian struct {
	avg, std, amp float64
}

// NewGaussian constructs a Gaussian kernel. Fails with InvalidParameter if
// any of avg, std, amp are <= 0.
func NewGaussian(avg, std, amp float64) (Gaussian, error) {
	if avg <= 0 {
		return Gaussian{}, clueerr.Newf(clueerr.InvalidParameter, "kernel.NewGaussian", "avg must be > 0, got %v", avg)
	}
	if std <= 0 {
		return Gaussian{}, clueerr.Newf(clueerr.InvalidParameter, "kernel.NewGaussian", "std must be > 0, got %v", std)
	}
	if amp <= 0 {
		return Gaussian{}, clueerr.Newf(clueerr.InvalidParameter, "kernel.NewGaussian", "amp must be > 0, got %v", amp)
	}
	return Gaussian{avg: avg, std: std, amp: amp}, nil
}

// Weight implements Kernel.
func (g Gaussian) Weight(dist float64, i, j int) float64 {
	if i == j {
		return 1
	}
	d := dist - g.avg
	return g.amp * math.Exp(-(d*d)/(2*g.std*g.std))
}
