// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package algebra

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestHomDetInverse3x3(t *testing.T) {
	h := Hom{
		{2, 0, 0},
		{0, 3, 0},
		{0, 0, 4},
	}
	d, err := h.Det()
	if err != nil {
		t.Fatal(err)
	}
	chk.Scalar(t, "det", 1e-15, d, 24)

	inv, err := h.Inverse()
	if err != nil {
		t.Fatal(err)
	}
	prod := h.Mul(inv)
	id := Identity(3)
	for i := 0; i < 3; i++ {
		chk.Array(t, "row", 1e-12, prod[i], id[i])
	}
}

func TestHomSingularInverseFails(t *testing.T) {
	h := Hom{{1, 2}, {2, 4}}
	_, err := h.Inverse()
	if err == nil {
		t.Fatal("expected singular-matrix error")
	}
}

func TestVectorOuterAndContract(t *testing.T) {
	v := Vector{1, 2, 3}
	w := Vector{4, 5, 6}
	o := v.Outer(w)
	chk.Scalar(t, "o[0][0]", 1e-15, o[0][0], 4)
	chk.Scalar(t, "o[2][2]", 1e-15, o[2][2], 18)
	self := o.Contract(o)
	var want float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want += o[i][j] * o[i][j]
		}
	}
	chk.Scalar(t, "contract", 1e-12, self, want)
}

func TestEmbeddingFreeRoundtrip(t *testing.T) {
	e := NewFreeEmbedding(3)
	r := Vector{1, 2, 3}
	x := e.Apply(r)
	chk.Array(t, "x", 1e-15, x, r)
	tan := e.Tangent()
	back := tan.PullBack(x)
	chk.Array(t, "back", 1e-15, back, r)
}

func TestEmbeddingValidateOrthogonalRows(t *testing.T) {
	// a roller constraint: reduced 1-D tangential displacement embedded
	// into 2-D ambient space along a 45-degree direction
	s := 0.7071067811865476
	e := NewEmbedding(Vector{0, 0}, Hom{{s}, {s}})
	if err := e.Validate(1e-8); err != nil {
		t.Fatal(err)
	}
	bad := NewEmbedding(Vector{0, 0, 0}, Hom{{1, 0}, {1, 0}, {0, 1}})
	if err := bad.Validate(1e-8); err == nil {
		t.Fatal("expected non-orthogonal rows to fail validation")
	}
}
