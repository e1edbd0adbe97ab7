// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package algebra implements the small, fixed-dimension containers (vectors,
// order-2 and order-3 tensors) and the affine embeddings shared by every
// other package in this module. Dimensions are expected to be 1..4; the
// dense operations here (inverse, determinant) are not meant for large
// systems -- those are delegated to la.Triplet/la.LinSol in propagate.
package algebra

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Vector is a small Cartesian vector (spatial coordinates, velocities, ...).
type Vector []float64

// NewVector allocates a zeroed vector of length n.
func NewVector(n int) Vector {
	return make(Vector, n)
}

// Clone returns a deep copy.
func (v Vector) Clone() Vector {
	return la.VecClone(v)
}

// Add returns v+w.
func (v Vector) Add(w Vector) Vector {
	chk.IntAssert(len(v), len(w))
	r := NewVector(len(v))
	for i := range v {
		r[i] = v[i] + w[i]
	}
	return r
}

// Sub returns v-w.
func (v Vector) Sub(w Vector) Vector {
	chk.IntAssert(len(v), len(w))
	r := NewVector(len(v))
	for i := range v {
		r[i] = v[i] - w[i]
	}
	return r
}

// Scale returns s*v.
func (v Vector) Scale(s float64) Vector {
	r := NewVector(len(v))
	for i := range v {
		r[i] = s * v[i]
	}
	return r
}

// AddScaled performs v += s*w in place and returns v.
func (v Vector) AddScaled(s float64, w Vector) Vector {
	chk.IntAssert(len(v), len(w))
	for i := range v {
		v[i] += s * w[i]
	}
	return v
}

// Dot returns the inner product v.w.
func (v Vector) Dot(w Vector) float64 {
	chk.IntAssert(len(v), len(w))
	var s float64
	for i := range v {
		s += v[i] * w[i]
	}
	return s
}

// Norm returns the Euclidean norm.
func (v Vector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Outer returns the order-2 tensor v⊗w (len(v) x len(w)).
func (v Vector) Outer(w Vector) Hom {
	h := NewHom(len(v), len(w))
	for i := range v {
		for j := range w {
			h[i][j] = v[i] * w[j]
		}
	}
	return h
}

// Fill sets every entry to x.
func (v Vector) Fill(x float64) {
	la.VecFill(v, x)
}
