// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package checkpoint implements the encode/decode operation of spec 6.2.
//
// The teacher's element Encode/Decode methods (e.g. fem/e_rod.go's
// "return enc.Encode(o.States)" / "err = dec.Decode(&o.States)") only
// ever show the consumer side of gosl's utl.Encoder/utl.Decoder
// interfaces; nothing in the retrieved pack shows how an Encoder/Decoder
// value is actually constructed (no utl.NewEncoder/utl.NewDecoder call
// site was found anywhere in the corpus). Rather than guess at that
// constructor, this package reproduces the same call shape
// (Encode(v)/Decode(&v)) against Go's own encoding/gob, which implements
// an identical interface and is the standard low-level choice gosl's own
// utl package is documented to wrap.
package checkpoint

import (
	"encoding/gob"
	"io"

	"github.com/cpmech/gosl/chk"

	"github.com/cmhpcl/m4extreme-go/algebra"
	"github.com/cmhpcl/m4extreme-go/clock"
	"github.com/cmhpcl/m4extreme-go/constitutive"
	"github.com/cmhpcl/m4extreme-go/mp"
	"github.com/cmhpcl/m4extreme-go/node"
)

// NodeState is the serializable projection of a node.Node.
type NodeState struct {
	ID           int64
	Carrier      int
	Reduced      []float64
	Mass         float64
	Velocity     []float64
	Acceleration []float64
	Detached     bool
}

// MPState is the serializable projection of a mp.MaterialPoint.
type MPState struct {
	ID           int64
	Carrier      int
	Position     []float64
	F, FOld      [][]float64
	Volume0      float64
	Volume       float64
	VolumeOld    float64
	Density0     float64
	Active       bool
	HasThermal   bool
	Temperature  float64
	HasReaction  bool
	Reaction     float64
	ReactionRate float64
	KernelName   string
	Internal     []float64
}

// Snapshot is the full checkpoint payload (spec 6.2: "implementation-
// defined, stable within major version").
type Snapshot struct {
	Time   float64
	Dt     float64
	Nodes  []NodeState
	Points []MPState
}

// BuildSnapshot projects the live engine state into a Snapshot.
func BuildSnapshot(clk *clock.Clock, nodes map[int64]*node.Node, points []*mp.MaterialPoint) *Snapshot {
	s := &Snapshot{Time: clk.T, Dt: clk.Dt}
	for id, n := range nodes {
		s.Nodes = append(s.Nodes, NodeState{
			ID:           id,
			Carrier:      n.Carrier,
			Reduced:      []float64(n.Reduced),
			Mass:         n.Mass,
			Velocity:     []float64(n.Velocity),
			Acceleration: []float64(n.Acceleration),
			Detached:     n.Detached,
		})
	}
	for _, m := range points {
		s.Points = append(s.Points, MPState{
			ID:           m.ID,
			Carrier:      m.Carrier,
			Position:     []float64(m.Position),
			F:            [][]float64(m.F),
			FOld:         [][]float64(m.FOld),
			Volume0:      m.Volume0,
			Volume:       m.Volume,
			VolumeOld:    m.VolumeOld,
			Density0:     m.Density0,
			Active:       m.Active,
			HasThermal:   m.HasThermal,
			Temperature:  m.Temperature,
			HasReaction:  m.HasReaction,
			Reaction:     m.Reaction,
			ReactionRate: m.ReactionRate,
			KernelName:   m.Kernel.Name(),
			Internal:     append([]float64(nil), m.State.Internal...),
		})
	}
	return s
}

// Encode writes the snapshot to w.
func Encode(w io.Writer, s *Snapshot) error {
	return gob.NewEncoder(w).Encode(s)
}

// Decode reads a snapshot from r.
func Decode(r io.Reader) (*Snapshot, error) {
	s := new(Snapshot)
	if err := gob.NewDecoder(r).Decode(s); err != nil {
		return nil, chk.Err("checkpoint.Decode: %v", err)
	}
	return s, nil
}

// Restore rebuilds live node and material-point state from a snapshot.
// kernels maps a kernel name (constitutive.Kernel.Name()) to an
// already-Init'd instance; the snapshot stores no material parameters of
// its own, since a Kernel carries no mutable state once initialized (all
// per-MP state lives in *constitutive.State) -- only the caller, which
// built those kernels at createModel time, can supply them. An unknown
// name is a hard failure (spec 6.2: the format is stable within a major
// version, not across kernel sets).
func Restore(s *Snapshot, ndim int, kernels map[string]constitutive.Kernel) (map[int64]*node.Node, []*mp.MaterialPoint, *clock.Clock, error) {
	clk := clock.New(s.Dt)
	clk.T = s.Time

	nodes := make(map[int64]*node.Node, len(s.Nodes))
	for _, ns := range s.Nodes {
		n := node.New(ns.ID, ns.Carrier, ndim)
		n.Reduced = algebra.Vector(ns.Reduced)
		n.Mass = ns.Mass
		n.Velocity = algebra.Vector(ns.Velocity)
		n.Acceleration = algebra.Vector(ns.Acceleration)
		n.Detached = ns.Detached
		nodes[ns.ID] = n
	}

	points := make([]*mp.MaterialPoint, 0, len(s.Points))
	for _, ps := range s.Points {
		kernel, ok := kernels[ps.KernelName]
		if !ok {
			return nil, nil, nil, chk.Err("checkpoint.Restore: unknown constitutive kernel %q for MP %d", ps.KernelName, ps.ID)
		}
		m := mp.New(ps.ID, ps.Carrier, ndim, ps.Volume0, ps.Density0, kernel)
		m.Position = algebra.Vector(ps.Position)
		m.F = algebra.Hom(ps.F)
		m.FOld = algebra.Hom(ps.FOld)
		m.Volume = ps.Volume
		m.VolumeOld = ps.VolumeOld
		m.Active = ps.Active
		m.HasThermal = ps.HasThermal
		m.Temperature = ps.Temperature
		m.HasReaction = ps.HasReaction
		m.Reaction = ps.Reaction
		m.ReactionRate = ps.ReactionRate
		m.State.Internal = append([]float64(nil), ps.Internal...)
		points = append(points, m)
	}
	return nodes, points, clk, nil
}
