// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package constitutive defines the stateless-kernel boundary the rest of
// the engine calls across (spec 1: "concrete constitutive models ... are
// out of scope. Each is a stateless kernel producing energy/stress/
// tangent from a deformation gradient and state"). It mirrors msolid's
// Model/GetModel registry (msolid/solid.go) but keyed on the large-
// deformation Piola-Kirchhoff interface the material-point element
// needs, rather than msolid's small-strain rate interface.
package constitutive

import (
	"github.com/cpmech/gosl/fun"

	"github.com/cmhpcl/m4extreme-go/algebra"
)

// State is the per-material-point bag of internal (secondary) variables
// a kernel reads and writes; the engine treats its contents as opaque.
type State struct {
	Density0 float64
	Internal []float64
}

// Clone returns a deep copy, used by LocalState.advance when committing a
// new internal-variable state (spec 4.4).
func (s *State) Clone() *State {
	c := &State{Density0: s.Density0}
	if s.Internal != nil {
		c.Internal = append([]float64(nil), s.Internal...)
	}
	return c
}

// Kernel is what every constitutive model must implement: given the
// current deformation gradient and state, produce strain energy density,
// first Piola-Kirchhoff stress, and (optionally) the tangent. Kernels
// never retry or recover internally (spec 7): a failure is reported to
// the caller, which decides.
type Kernel interface {
	Name() string
	Init(ndim int, prms fun.Prms) error
	InitState(density0 float64) *State
	Energy(F algebra.Hom, s *State) (w float64, err error)
	Stress(F algebra.Hom, s *State) (p algebra.Hom, err error)
	Tangent(F algebra.Hom, s *State) (a algebra.Hom3, err error)
}

// allocators mirrors msolid's package-level registry (msolid/solid.go
// GetModel/allocators), keyed by model name.
var allocators = map[string]func() Kernel{}

// Register adds a kernel constructor to the registry; kernels call this
// from an init() func the way msolid models register themselves.
func Register(name string, alloc func() Kernel) {
	allocators[name] = alloc
}

// New allocates a fresh kernel instance by registered name.
func New(name string) (Kernel, bool) {
	alloc, ok := allocators[name]
	if !ok {
		return nil, false
	}
	return alloc(), true
}
