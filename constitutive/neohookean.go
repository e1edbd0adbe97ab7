// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package constitutive

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"

	"github.com/cmhpcl/m4extreme-go/algebra"
)

// NeoHookean is a compressible large-deformation hyperelastic kernel,
// parameterized the way msolid.HyperElast1.Init reads its prms (a switch
// over p.N), used here as the reference "stateless kernel" example an
// Energy<1> element exercises end to end.
//
//	W(F) = G/2 (tr(FᵀF) - ndim - 2 ln J) + Lambda/2 (ln J)²
//	P    = G (F - F⁻ᵀ) + Lambda ln(J) F⁻ᵀ
type NeoHookean struct {
	ndim   int
	G      float64
	Lambda float64
}

func init() {
	Register("neo-hookean", func() Kernel { return new(NeoHookean) })
}

// Name implements Kernel.
func (o *NeoHookean) Name() string { return "neo-hookean" }

// Init implements Kernel.
func (o *NeoHookean) Init(ndim int, prms fun.Prms) error {
	o.ndim = ndim
	for _, p := range prms {
		switch p.N {
		case "G":
			o.G = p.V
		case "lambda":
			o.Lambda = p.V
		}
	}
	if o.G <= 0 {
		return chk.Err("NeoHookean.Init: shear modulus G=%g must be positive", o.G)
	}
	return nil
}

// InitState implements Kernel.
func (o *NeoHookean) InitState(density0 float64) *State {
	return &State{Density0: density0}
}

// detAndInvT returns J=det(F) and F⁻ᵀ, failing per the contract-violation
// rule (spec 7) when J is non-positive (MP should already be inactive).
func (o *NeoHookean) detAndInvT(F algebra.Hom) (j float64, invT algebra.Hom, err error) {
	j, err = F.Det()
	if err != nil {
		return
	}
	if j <= 0 {
		err = chk.Err("NeoHookean: det(F)=%g is non-positive", j)
		return
	}
	inv, err := F.Inverse()
	if err != nil {
		return
	}
	invT = inv.Transpose()
	return
}

// Energy implements Kernel.
func (o *NeoHookean) Energy(F algebra.Hom, s *State) (w float64, err error) {
	j, _, err := o.detAndInvT(F)
	if err != nil {
		return
	}
	c := F.Transpose().Mul(F)
	trC := c.Trace()
	lnJ := math.Log(j)
	w = 0.5*o.G*(trC-float64(o.ndim)-2*lnJ) + 0.5*o.Lambda*lnJ*lnJ
	return
}

// Stress implements Kernel.
func (o *NeoHookean) Stress(F algebra.Hom, s *State) (p algebra.Hom, err error) {
	j, invT, err := o.detAndInvT(F)
	if err != nil {
		return
	}
	lnJ := math.Log(j)
	p = F.Sub(invT).Scale(o.G).Add(invT.Scale(o.Lambda * lnJ))
	return
}

// Tangent implements Kernel; it returns a Hom3 of ndim identical sheets,
// each Lambda·F⁻ᵀ + G·I. This is not the 4th-order material tangent
// dP_iJ/dF_kL (an implicit solve needing it is out of scope per spec 1,
// Non-goals: implicit quasi-static global solvers), and no caller in this
// module uses Tangent.
func (o *NeoHookean) Tangent(F algebra.Hom, s *State) (a algebra.Hom3, err error) {
	_, invT, err := o.detAndInvT(F)
	if err != nil {
		return
	}
	a = algebra.NewHom3(o.ndim, o.ndim, o.ndim)
	for k := 0; k < o.ndim; k++ {
		a[k] = invT.Scale(o.Lambda).Add(algebra.Identity(o.ndim).Scale(o.G))
	}
	return
}
