// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package algebra

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// Embedding is the affine map from a DOF's reduced (possibly constrained,
// lower-dimensional) coordinates into ambient space: x = Origin + A·r.
// A free (unconstrained) DOF uses the identity embedding. A constrained
// DOF (e.g. a roller support, a rigid-body slave node) uses a non-trivial
// A whose linear part must have orthogonal rows (spec 3.1 invariant b).
type Embedding struct {
	Origin Vector // constant ambient offset
	A      Hom    // ambient x reduced linear part
}

// NewFreeEmbedding returns the identity embedding for an ndim-dimensional
// unconstrained DOF.
func NewFreeEmbedding(ndim int) *Embedding {
	return &Embedding{Origin: NewVector(ndim), A: Identity(ndim)}
}

// NewEmbedding builds a constrained embedding from an explicit origin and
// linear part. The caller is responsible for supplying row-orthogonal A;
// Validate checks this.
func NewEmbedding(origin Vector, a Hom) *Embedding {
	return &Embedding{Origin: origin, A: a}
}

// ReducedDim and AmbientDim return the domain and range dimensions.
func (e *Embedding) ReducedDim() int { _, n := e.A.Dims(); return n }
func (e *Embedding) AmbientDim() int { m, _ := e.A.Dims(); return m }

// Apply maps reduced coordinates r into ambient space.
func (e *Embedding) Apply(r Vector) Vector {
	return e.Origin.Add(e.A.MulVec(r))
}

// Validate checks the embedding contract: the linear part must have rank
// equal to the reduced dimension, and for constrained (non-identity, non-
// square) embeddings its rows must be mutually orthogonal within tol.
func (e *Embedding) Validate(tol float64) error {
	m, n := e.A.Dims()
	if m == 0 || n == 0 {
		return chk.Err("Embedding: degenerate linear part %dx%d", m, n)
	}
	if len(e.Origin) != m {
		return chk.Err("Embedding: origin dimension %d does not match ambient dimension %d", len(e.Origin), m)
	}
	// rank must equal the reduced dimension: the n x n Gram matrix AᵀA must
	// be non-singular
	if d, err := e.A.Transpose().Mul(e.A).Det(); err != nil || math.Abs(d) < tol {
		return chk.Err("Embedding: linear part %dx%d has rank below %d (det(AᵀA)=%g)", m, n, n, d)
	}
	// non-zero rows must be pairwise orthogonal
	for i := 0; i < m; i++ {
		for j := i + 1; j < m; j++ {
			ri, rj := Vector(e.A[i]), Vector(e.A[j])
			if ri.Norm() < tol || rj.Norm() < tol {
				continue
			}
			cos := ri.Dot(rj) / (ri.Norm() * rj.Norm())
			if math.Abs(cos) > tol {
				return chk.Err("Embedding: rows %d and %d of linear part are not orthogonal (cos=%g)", i, j, cos)
			}
		}
	}
	return nil
}

// Tangent returns the TMap that pulls ambient-space forces/stiffness back
// into reduced space via Aᵀ.
func (e *Embedding) Tangent() *TMap {
	return &TMap{At: e.A.Transpose()}
}

// TMap is the linearization (tangent) of an Embedding, used to pull back
// forces (Submerge, spec 4.8) from ambient space into the reduced space a
// DOF actually integrates in.
type TMap struct {
	At Hom // reduced x ambient (transpose of the embedding's linear part)
}

// PullBack maps an ambient-space force/residual into reduced space.
func (t *TMap) PullBack(fAmbient Vector) Vector {
	return t.At.MulVec(fAmbient)
}

// PullBackStiffness maps an ambient-space stiffness Kamb (ambient x ambient)
// into reduced space: Kred = Aᵀ · Kamb · A.
func (t *TMap) PullBackStiffness(kAmbient Hom, a Hom) Hom {
	return t.At.Mul(kAmbient).Mul(a)
}
