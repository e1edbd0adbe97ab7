// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package halo

import (
	"github.com/cpmech/gosl/mpi"

	"github.com/cmhpcl/m4extreme-go/algebra"
)

// Exchange packs a fixed, domain-wide ordering of DOF ids into dense
// buffers so every per-step field exchange (spec 4.13 step 1: id,
// carrier, mass, position, velocity, acceleration, embedding) reduces to
// one AllReduceSum call per channel; channels are not packed together.
type Exchange struct {
	ids   []int64
	index map[int64]int
}

// NewExchange fixes the DOF ordering once, at createModel/reset time
// (spec 4.11's reset "after, e.g., an MPI migration").
func NewExchange(ids []int64) *Exchange {
	e := &Exchange{ids: append([]int64(nil), ids...), index: make(map[int64]int, len(ids))}
	for i, id := range ids {
		e.index[id] = i
	}
	return e
}

// ReduceScalar sums a scalar field (e.g. lumped mass, which spec 4.13
// step 2(a) says is additive across ranks) keyed by DOF id.
func (h *Halo) ReduceScalar(e *Exchange, local map[int64]float64) map[int64]float64 {
	buf := make([]float64, len(e.ids))
	for id, v := range local {
		if i, ok := e.index[id]; ok {
			buf[i] += v
		}
	}
	if h.Active() {
		out := make([]float64, len(buf))
		mpi.AllReduceSum(buf, out)
		buf = out
	}
	result := make(map[int64]float64, len(e.ids))
	for i, id := range e.ids {
		result[id] = buf[i]
	}
	return result
}

// ReduceVectors sums a vector field (accumulated force deltas, spec 4.13
// step 3) or, when only the owning rank contributes a nonzero entry,
// overwrites it (kinematic fields, spec 4.13 step 2(b): "kinematic fields
// overwritten if the sender is the owner" -- achieved by having exactly
// one rank, the owner, write a nonzero value for each id).
func (h *Halo) ReduceVectors(e *Exchange, local map[int64]algebra.Vector, ndim int) map[int64]algebra.Vector {
	buf := make([]float64, len(e.ids)*ndim)
	for id, v := range local {
		i, ok := e.index[id]
		if !ok {
			continue
		}
		for d := 0; d < ndim && d < len(v); d++ {
			buf[i*ndim+d] += v[d]
		}
	}
	if h.Active() {
		out := make([]float64, len(buf))
		mpi.AllReduceSum(buf, out)
		buf = out
	}
	result := make(map[int64]algebra.Vector, len(e.ids))
	for i, id := range e.ids {
		result[id] = algebra.Vector(append([]float64(nil), buf[i*ndim:(i+1)*ndim]...))
	}
	return result
}
