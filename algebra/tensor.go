// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package algebra

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Hom is a dense order-2 tensor (shape m x n), row-major: Hom[i][j].
// Named after the source's Set::VectorSpace::Hom (homomorphism between
// two vector spaces).
type Hom [][]float64

// NewHom allocates an m x n zeroed tensor.
func NewHom(m, n int) Hom {
	h := make(Hom, m)
	for i := range h {
		h[i] = make([]float64, n)
	}
	return h
}

// Identity returns the n x n identity tensor.
func Identity(n int) Hom {
	h := NewHom(n, n)
	for i := 0; i < n; i++ {
		h[i][i] = 1
	}
	return h
}

// Dims returns (rows, cols).
func (h Hom) Dims() (m, n int) {
	m = len(h)
	if m > 0 {
		n = len(h[0])
	}
	return
}

// Clone returns a deep copy.
func (h Hom) Clone() Hom {
	m, n := h.Dims()
	r := NewHom(m, n)
	for i := 0; i < m; i++ {
		copy(r[i], h[i])
	}
	return r
}

// Add returns h+g.
func (h Hom) Add(g Hom) Hom {
	m, n := h.Dims()
	r := NewHom(m, n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			r[i][j] = h[i][j] + g[i][j]
		}
	}
	return r
}

// Sub returns h-g.
func (h Hom) Sub(g Hom) Hom {
	m, n := h.Dims()
	r := NewHom(m, n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			r[i][j] = h[i][j] - g[i][j]
		}
	}
	return r
}

// Scale returns s*h.
func (h Hom) Scale(s float64) Hom {
	m, n := h.Dims()
	r := NewHom(m, n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			r[i][j] = s * h[i][j]
		}
	}
	return r
}

// Transpose returns hᵀ.
func (h Hom) Transpose() Hom {
	m, n := h.Dims()
	r := NewHom(n, m)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			r[j][i] = h[i][j]
		}
	}
	return r
}

// MulVec returns h·v (m x n applied to n-vector, yielding m-vector).
func (h Hom) MulVec(v Vector) Vector {
	m, n := h.Dims()
	chk.IntAssert(n, len(v))
	r := NewVector(m)
	for i := 0; i < m; i++ {
		var s float64
		for j := 0; j < n; j++ {
			s += h[i][j] * v[j]
		}
		r[i] = s
	}
	return r
}

// Mul returns h·g (matrix product).
func (h Hom) Mul(g Hom) Hom {
	m, k := h.Dims()
	k2, n := g.Dims()
	chk.IntAssert(k, k2)
	r := NewHom(m, n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var s float64
			for p := 0; p < k; p++ {
				s += h[i][p] * g[p][j]
			}
			r[i][j] = s
		}
	}
	return r
}

// Trace returns the sum of diagonal entries (square tensors only).
func (h Hom) Trace() float64 {
	m, n := h.Dims()
	k := m
	if n < k {
		k = n
	}
	var s float64
	for i := 0; i < k; i++ {
		s += h[i][i]
	}
	return s
}

// Contract returns the double contraction h:g = Σ_ij h_ij g_ij.
func (h Hom) Contract(g Hom) float64 {
	m, n := h.Dims()
	m2, n2 := g.Dims()
	chk.IntAssert(m, m2)
	chk.IntAssert(n, n2)
	var s float64
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			s += h[i][j] * g[i][j]
		}
	}
	return s
}

// Det computes the determinant of a square tensor of dimension 1..4 using
// cofactor expansion (small, fixed sizes only -- not a general LU routine).
func (h Hom) Det() (float64, error) {
	m, n := h.Dims()
	if m != n {
		return 0, chk.Err("Det: tensor must be square, got %dx%d", m, n)
	}
	switch m {
	case 0:
		return 1, nil
	case 1:
		return h[0][0], nil
	case 2:
		return h[0][0]*h[1][1] - h[0][1]*h[1][0], nil
	case 3:
		return h[0][0]*(h[1][1]*h[2][2]-h[1][2]*h[2][1]) -
			h[0][1]*(h[1][0]*h[2][2]-h[1][2]*h[2][0]) +
			h[0][2]*(h[1][0]*h[2][1]-h[1][1]*h[2][0]), nil
	case 4:
		return det4(h), nil
	default:
		return 0, chk.Err("Det: dimension %d exceeds the supported range (1..4)", m)
	}
}

// det4 expands a 4x4 determinant by minors along the first row.
func det4(h Hom) float64 {
	var d float64
	for j := 0; j < 4; j++ {
		sub := NewHom(3, 3)
		for i := 1; i < 4; i++ {
			c := 0
			for k := 0; k < 4; k++ {
				if k == j {
					continue
				}
				sub[i-1][c] = h[i][k]
				c++
			}
		}
		minor, _ := sub.Det()
		sign := 1.0
		if j%2 == 1 {
			sign = -1.0
		}
		d += sign * h[0][j] * minor
	}
	return d
}

// Inverse computes h⁻¹ by Gauss-Jordan elimination with partial pivoting
// on the augmented [h | I] (no LU factorisation is formed or kept),
// restricted to square tensors of dimension 1..4 per the algebra-kernel
// contract.
func (h Hom) Inverse() (Hom, error) {
	m, n := h.Dims()
	if m != n {
		return nil, chk.Err("Inverse: tensor must be square, got %dx%d", m, n)
	}
	if m < 1 || m > 4 {
		return nil, chk.Err("Inverse: dimension %d exceeds the supported range (1..4)", m)
	}
	// augmented [A | I] Gauss-Jordan with partial pivoting
	aug := make([][]float64, m)
	for i := 0; i < m; i++ {
		aug[i] = make([]float64, 2*m)
		copy(aug[i], h[i])
		aug[i][m+i] = 1
	}
	for col := 0; col < m; col++ {
		piv := col
		best := aug[col][col]
		if best < 0 {
			best = -best
		}
		for r := col + 1; r < m; r++ {
			v := aug[r][col]
			if v < 0 {
				v = -v
			}
			if v > best {
				best, piv = v, r
			}
		}
		if best < 1e-300 {
			return nil, chk.Err("Inverse: tensor is singular (pivot %g at column %d)", best, col)
		}
		if piv != col {
			aug[col], aug[piv] = aug[piv], aug[col]
		}
		p := aug[col][col]
		for k := 0; k < 2*m; k++ {
			aug[col][k] /= p
		}
		for r := 0; r < m; r++ {
			if r == col {
				continue
			}
			f := aug[r][col]
			if f == 0 {
				continue
			}
			for k := 0; k < 2*m; k++ {
				aug[r][k] -= f * aug[col][k]
			}
		}
	}
	inv := NewHom(m, m)
	for i := 0; i < m; i++ {
		copy(inv[i], aug[i][m:])
	}
	return inv, nil
}

// PrincipalInvariants returns (I1, I2, I3) of a square tensor of dimension
// 2 or 3, i.e. trace, the sum of principal 2x2 minors, and the determinant.
func (h Hom) PrincipalInvariants() (i1, i2, i3 float64, err error) {
	m, n := h.Dims()
	if m != n || (m != 2 && m != 3) {
		err = chk.Err("PrincipalInvariants: requires a square 2x2 or 3x3 tensor, got %dx%d", m, n)
		return
	}
	i1 = h.Trace()
	i3, _ = h.Det()
	if m == 2 {
		i2 = i3 // the only principal 2x2 minor is the determinant itself
		return
	}
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			i2 += h[i][i]*h[j][j] - h[i][j]*h[j][i]
		}
	}
	return
}

// ToLaMatrix converts to the dense matrix shape consumed by gosl/la dense
// routines ([][]float64 is already the la convention; this exists purely
// as a documentation anchor at call sites).
func (h Hom) ToLaMatrix() [][]float64 {
	return [][]float64(h)
}

// MatMulInto writes h*g into a pre-allocated result via la.MatMul-style
// semantics, kept here so call sites that already hold a Hom target buffer
// do not need to re-allocate.
func MatMulInto(dst, h, g Hom) {
	la.MatMul(dst.ToLaMatrix(), 1, h.ToLaMatrix(), g.ToLaMatrix())
}

// Hom3 is a dense order-3 tensor stored as a sequence of Hom slices along
// the third index: Hom3[k] is the k-th "sheet" (an order-2 tensor).
type Hom3 []Hom

// NewHom3 allocates a p-sheet tensor of m x n sheets.
func NewHom3(p, m, n int) Hom3 {
	t := make(Hom3, p)
	for k := range t {
		t[k] = NewHom(m, n)
	}
	return t
}

// At returns element (i,j,k).
func (t Hom3) At(i, j, k int) float64 {
	return t[k][i][j]
}

// Set assigns element (i,j,k).
func (t Hom3) Set(i, j, k int, val float64) {
	t[k][i][j] = val
}

// Contract2 contracts the first two indices of t against an order-2 tensor g,
// returning the vector r_k = Σ_ij t_ijk g_ij (used for second-derivative
// corrections in the LME kernel, spec 4.3).
func (t Hom3) Contract2(g Hom) Vector {
	r := NewVector(len(t))
	for k := range t {
		r[k] = t[k].Contract(g)
	}
	return r
}
