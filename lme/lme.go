// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package lme implements the local max-entropy (LME) shape-function
// kernel (spec 4.3): given a material-point position, a candidate node
// list and a locality parameter beta, it solves the convex LME dual for
// the Lagrange multiplier lambda and returns the partition-of-unity
// weights, their gradients, and the Hessian needed for second-order
// sensitivities. The dual's unconstrained Newton solve is delegated to
// gosl/num.NlSolver with its built-in backtracking line search, the same
// way msolid/hyperelast1.go solves its own small Newton system.
package lme

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/num"

	"github.com/cmhpcl/m4extreme-go/algebra"
)

// ErrSupportDegenerate is returned when the dual Hessian fails the SPD
// check at the claimed solution (spec 6.4 failure code SupportDegenerate).
var ErrSupportDegenerate = chk.Err("SupportDegenerate: LME Hessian is not SPD at the claimed solution")

// Params bundles the tunables of one LME evaluation.
type Params struct {
	Beta    float64 // locality parameter (larger = more local)
	Tol     float64 // convergence tolerance factor (residual <= Tol*Spacing)
	Spacing float64 // local nodal spacing h used to scale Tol
	Cutoff  float64 // epsilon: weights below Cutoff*max(p) are dropped
	MaxIter int     // cap on residual evaluations; past it the result is marked not converged
}

// Result is one converged (or failed) LME evaluation.
type Result struct {
	NodeIDs    []int64          // support after cutoff pruning, same order as Weights
	Weights    []float64        // p_a
	Grad       []algebra.Vector // ∇p_a, aligned with Weights
	Hess       algebra.Hom      // H = Σ p_a (x_a-x)⊗(x_a-x) - r⊗r
	Lambda     algebra.Vector   // converged dual variable (warm start for next call)
	Iterations int
	Converged  bool
	Residual   float64
}

// Solve evaluates the LME partition of unity at point x against the
// candidate nodes (ids/positions, same length and order), warm-started
// from lambda0 (pass a zero vector on the first ever evaluation for this
// material point). It never panics on non-convergence; callers apply the
// spec 4.3 failure policy (grow support / deactivate / reduce beta).
func Solve(x algebra.Vector, ids []int64, positions []algebra.Vector, lambda0 algebra.Vector, p Params) (*Result, error) {
	ndim := len(x)
	if len(ids) != len(positions) {
		return nil, chk.Err("lme.Solve: ids and positions must have equal length (%d != %d)", len(ids), len(positions))
	}
	if len(ids) < ndim+1 {
		return nil, chk.Err("lme.Solve: support has %d nodes, need at least ndim+1=%d for first-moment consistency", len(ids), ndim+1)
	}

	diffs := make([]algebra.Vector, len(ids))
	for i, xa := range positions {
		diffs[i] = xa.Sub(x)
	}

	lambda := lambda0.Clone()
	if lambda == nil || len(lambda) != ndim {
		lambda = algebra.NewVector(ndim)
	}

	weights := make([]float64, len(ids))
	evalAt := func(lam algebra.Vector) (r algebra.Vector, h algebra.Hom) {
		var wsum float64
		for i, d := range diffs {
			e := -p.Beta*d.Dot(d) + lam.Dot(d)
			weights[i] = math.Exp(e)
			wsum += weights[i]
		}
		for i := range weights {
			weights[i] /= wsum
		}
		r = algebra.NewVector(ndim)
		h = algebra.NewHom(ndim, ndim)
		for i, d := range diffs {
			r.AddScaled(weights[i], d)
		}
		for i, d := range diffs {
			m := d.Outer(d).Scale(weights[i])
			h = h.Add(m)
		}
		h = h.Sub(r.Outer(r))
		return
	}

	var iters int
	var lastResidualNorm float64
	var nls num.NlSolver
	nls.Init(ndim, func(fx, lam []float64) error {
		r, _ := evalAt(lam)
		copy(fx, r)
		iters++
		return nil
	}, nil, func(J [][]float64, lam []float64) error {
		_, h := evalAt(lam)
		for i := 0; i < ndim; i++ {
			for j := 0; j < ndim; j++ {
				J[i][j] = h[i][j]
			}
		}
		return nil
	}, true, false, map[string]float64{"lSearch": 1})
	tol := p.Tol * p.Spacing
	if tol <= 0 {
		tol = 1e-10
	}
	nls.SetTols(tol, tol, 1e-14, num.EPS)

	lamSlice := []float64(lambda)
	err := nls.Solve(lamSlice, true)
	converged := err == nil

	r, h := evalAt(lambda)
	lastResidualNorm = r.Norm()

	res := &Result{
		Lambda:     lambda,
		Hess:       h,
		Iterations: iters,
		Converged:  converged && lastResidualNorm <= tol+1e-12,
		Residual:   lastResidualNorm,
	}
	if p.MaxIter > 0 && iters > p.MaxIter {
		res.Converged = false
	}

	if !isSPD(h) {
		res.Converged = false
		return res, ErrSupportDegenerate
	}

	hinv, invErr := h.Inverse()
	if invErr != nil {
		res.Converged = false
		return res, ErrSupportDegenerate
	}

	// prune weights below cutoff*max(p), then renormalize and build
	// gradients for the surviving support
	maxP := 0.0
	for _, w := range weights {
		if w > maxP {
			maxP = w
		}
	}
	thresh := p.Cutoff * maxP
	var keptIDs []int64
	var keptW []float64
	var keptD []algebra.Vector
	for i, w := range weights {
		if w >= thresh {
			keptIDs = append(keptIDs, ids[i])
			keptW = append(keptW, w)
			keptD = append(keptD, diffs[i])
		}
	}
	var sumKept float64
	for _, w := range keptW {
		sumKept += w
	}
	grads := make([]algebra.Vector, len(keptW))
	for i := range keptW {
		keptW[i] /= sumKept
		// ∇p_a = p_a . (H⁻¹ (x_a - x))ᵀ  (spec 4.3)
		grads[i] = hinv.MulVec(keptD[i]).Scale(keptW[i])
	}
	res.NodeIDs = keptIDs
	res.Weights = keptW
	res.Grad = grads
	return res, nil
}

// isSPD checks positive-definiteness via Sylvester's criterion (leading
// principal minors all positive), valid for the dimensions (1..4) the
// algebra kernels support.
func isSPD(h algebra.Hom) bool {
	n, _ := h.Dims()
	for k := 1; k <= n; k++ {
		sub := algebra.NewHom(k, k)
		for i := 0; i < k; i++ {
			for j := 0; j < k; j++ {
				sub[i][j] = h[i][j]
			}
		}
		d, err := sub.Det()
		if err != nil || d <= 0 {
			return false
		}
	}
	return true
}

// SecondDerivatives returns the second-order sensitivities ∂²p_a/∂x∂x
// used by callers needing curvature (spec 4.3: "second derivatives are
// derived from the same H⁻¹ plus a correction term"). This follows the
// standard LME second-derivative formula:
//
//	∂²p_a = p_a [ (H⁻¹(x_a-x))⊗(H⁻¹(x_a-x)) - H⁻¹ ] + ∇p_a ⊗ ∇p_a / p_a
//
// evaluated node-by-node against the already-converged Result.
func SecondDerivatives(res *Result, positions []algebra.Vector, x algebra.Vector) ([]algebra.Hom, error) {
	hinv, err := res.Hess.Inverse()
	if err != nil {
		return nil, ErrSupportDegenerate
	}
	out := make([]algebra.Hom, len(res.Weights))
	for a := range res.Weights {
		d := positions[a].Sub(x)
		u := hinv.MulVec(d)
		term := u.Outer(u).Sub(hinv)
		grad := res.Grad[a]
		corr := grad.Outer(grad).Scale(1.0 / res.Weights[a])
		out[a] = term.Scale(res.Weights[a]).Add(corr)
	}
	return out, nil
}
