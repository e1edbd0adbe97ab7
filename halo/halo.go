// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package halo implements the MPI partitioning, bounding-box exchange,
// and migration/load-balance operations of spec 4.13.
//
// The teacher's only confirmed point of contact with gosl/mpi is the
// collective sum in fem's solve_linear_problem ("mpi.AllReduceSum(d.Fb,
// d.Wb) // this must be done here because there might be nodes sharing
// boundary conditions", present verbatim in every fork of the pack). No
// fork anywhere exercises a point-to-point Send/Recv call, so rather than
// invent an unconfirmed API this package builds every exchange -- the
// bounding-box advertisement, the per-step node-field exchange, and the
// back-exchange of shadow-MP force deltas -- on that same AllReduceSum
// primitive, using the "write into your own slot, zero elsewhere" trick:
// since every rank but the true owner of a slot contributes zero to it,
// summing across ranks reproduces an all-gather (for box advertisement)
// or an owner-wins overwrite (for kinematic fields) without needing
// anything beyond the one collective the corpus actually demonstrates.
package halo

import (
	"github.com/cpmech/gosl/mpi"
)

// Halo tracks this rank's identity within the MPI world (spec 4.13).
type Halo struct {
	Rank int
	Size int
}

// New queries mpi for the current rank/size; Active reports IsOn()
// (mirrors fem.go's "if mpi.IsOn() { o.Proc = mpi.Rank(); o.Nproc =
// mpi.Size() }" guard, since the same binary must run correctly both
// under mpirun and standalone).
func New() *Halo {
	h := &Halo{Rank: 0, Size: 1}
	if mpi.IsOn() {
		h.Rank = mpi.Rank()
		h.Size = mpi.Size()
	}
	return h
}

// Active reports whether this process is running under MPI.
func (h *Halo) Active() bool { return mpi.IsOn() && h.Size > 1 }

// Box is an axis-aligned bounding box advertised by a rank (spec 4.13:
// "each rank publishes its MP axis-aligned box").
type Box struct {
	Min, Max []float64
}

// Overlaps reports whether two boxes intersect along every axis.
func (b Box) Overlaps(o Box) bool {
	for i := range b.Min {
		if b.Max[i] < o.Min[i] || o.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// Expand returns a copy of b grown by margin on every side (the "extended
// box" of spec 4.13 step 1).
func (b Box) Expand(margin float64) Box {
	out := Box{Min: make([]float64, len(b.Min)), Max: make([]float64, len(b.Max))}
	for i := range b.Min {
		out.Min[i] = b.Min[i] - margin
		out.Max[i] = b.Max[i] + margin
	}
	return out
}

// GatherBoxes all-gathers every rank's box via the slot trick described
// in the package doc, returning one Box per rank indexed by rank number.
func (h *Halo) GatherBoxes(local Box) []Box {
	ndim := len(local.Min)
	width := 2 * ndim
	packed := make([]float64, h.Size*width)
	offset := h.Rank * width
	copy(packed[offset:offset+ndim], local.Min)
	copy(packed[offset+ndim:offset+width], local.Max)

	combined := packed
	if h.Active() {
		combined = make([]float64, len(packed))
		mpi.AllReduceSum(packed, combined)
	}

	boxes := make([]Box, h.Size)
	for r := 0; r < h.Size; r++ {
		o := r * width
		boxes[r] = Box{
			Min: append([]float64(nil), combined[o:o+ndim]...),
			Max: append([]float64(nil), combined[o+ndim:o+width]...),
		}
	}
	return boxes
}

// Neighbors returns the ranks (excluding this one) whose box overlaps
// this rank's extended box, i.e. the communication graph of spec 4.13
// ("_cm_recv").
func (h *Halo) Neighbors(boxes []Box, extended Box) []int {
	var out []int
	for r, b := range boxes {
		if r == h.Rank {
			continue
		}
		if extended.Overlaps(b) {
			out = append(out, r)
		}
	}
	return out
}
