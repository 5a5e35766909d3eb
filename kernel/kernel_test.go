// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"math"
	"testing"

	"github.com/cms-patatrack/clue-go/clueerr"
)

func TestFlatSelfTerm(t *testing.T) {
	f, err := NewFlat(0.5)
	if err != nil {
		t.Fatalf("NewFlat: %v", err)
	}
	if got := f.Weight(0, 3, 3); got != 1 {
		t.Errorf("self term = %v, want 1", got)
	}
	if got := f.Weight(10, 3, 4); got != 0.5 {
		t.Errorf("Weight = %v, want 0.5", got)
	}
}

func TestFlatInvalidParameter(t *testing.T) {
	for _, h := range []float64{0, -1} {
		if _, err := NewFlat(h); !clueerr.Is(err, clueerr.InvalidParameter) {
			t.Errorf("NewFlat(%v) err = %v, want InvalidParameter", h, err)
		}
	}
}

func TestExponential(t *testing.T) {
	e, err := NewExponential(2, 3)
	if err != nil {
		t.Fatalf("NewExponential: %v", err)
	}
	if got := e.Weight(0, 1, 1); got != 1 {
		t.Errorf("self term = %v, want 1", got)
	}
	want := 3 * math.Exp(-2*1.5)
	if got := e.Weight(1.5, 1, 2); math.Abs(got-want) > 1e-12 {
		t.Errorf("Weight = %v, want %v", got, want)
	}
}

func TestExponentialInvalidParameter(t *testing.T) {
	cases := []struct{ avg, amp float64 }{{0, 1}, {-1, 1}, {1, 0}, {1, -1}}
	for _, c := range cases {
		if _, err := NewExponential(c.avg, c.amp); !clueerr.Is(err, clueerr.InvalidParameter) {
			t.Errorf("NewExponential(%v, %v) err = %v, want InvalidParameter", c.avg, c.amp, err)
		}
	}
}

func TestGaussian(t *testing.T) {
	g, err := NewGaussian(1, 2, 3)
	if err != nil {
		t.Fatalf("NewGaussian: %v", err)
	}
	if got := g.Weight(0, 5, 5); got != 1 {
		t.Errorf("self term = %v, want 1", got)
	}
	d := 1.5 - 1.0
	want := 3 * math.Exp(-(d*d)/(2*2*2))
	if got := g.Weight(1.5, 5, 6); math.Abs(got-want) > 1e-12 {
		t.Errorf("Weight = %v, want %v", got, want)
	}
}

func TestGaussianInvalidParameter(t *testing.T) {
	cases := []struct{ avg, std, amp float64 }{
		{0, 1, 1}, {1, 0, 1}, {1, 1, 0}, {-1, 1, 1}, {1, -1, 1}, {1, 1, -1},
	}
	for _, c := range cases {
		if _, err := NewGaussian(c.avg, c.std, c.amp); !clueerr.Is(err, clueerr.InvalidParameter) {
			t.Errorf("NewGaussian(%v, %v, %v) err = %v, want InvalidParameter", c.avg, c.std, c.amp, err)
		}
	}
}
