// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node

import (
	"github.com/cmhpcl/m4extreme-go/algebra"
)

// GlobalState is the engine-wide map from DOF id to its Embedding and
// tangent (spec 4.8): Emb (DOF -> ambient embedding) and DEmb (DOF ->
// tangent). Embed and Submerge are the only two operations in the engine
// that cross the reduced/ambient boundary.
type GlobalState struct {
	nodes map[int64]*Node
}

// NewGlobalState wraps the given node set.
func NewGlobalState(nodes map[int64]*Node) *GlobalState {
	return &GlobalState{nodes: nodes}
}

// Node returns the node for a DOF id.
func (g *GlobalState) Node(id int64) *Node { return g.nodes[id] }

// IDs returns every DOF id known to this global state, in no particular
// order.
func (g *GlobalState) IDs() []int64 {
	ids := make([]int64, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	return ids
}

// Add registers a new node, used when a received halo message or a
// builder insert instantiates a node that didn't previously exist in this
// global state (spec 4.13 step 2(b)).
func (g *GlobalState) Add(n *Node) {
	if g.nodes == nil {
		g.nodes = make(map[int64]*Node)
	}
	g.nodes[n.ID] = n
}

// Embed maps a set of DOF ids into their current ambient-space positions;
// used by every element before it evaluates shape functions (spec 4.7).
func (g *GlobalState) Embed(ids []int64) map[int64]algebra.Vector {
	out := make(map[int64]algebra.Vector, len(ids))
	for _, id := range ids {
		n := g.nodes[id]
		out[id] = n.Emb.Apply(n.Reduced)
	}
	return out
}

// Submerge pulls an ambient-space force contribution on DOF id back into
// reduced space via that DOF's tangent map (spec 4.7 step 5, spec 4.8).
func (g *GlobalState) Submerge(id int64, ambientForce algebra.Vector) algebra.Vector {
	n := g.nodes[id]
	return n.Emb.Tangent().PullBack(ambientForce)
}

// SubmergeAll applies Submerge across an ambient-space force map, the
// shape the thread-local force accumulators of spec 4.7/5 hand to the
// propagator.
func (g *GlobalState) SubmergeAll(ambientForces map[int64]algebra.Vector) map[int64]algebra.Vector {
	out := make(map[int64]algebra.Vector, len(ambientForces))
	for id, f := range ambientForces {
		out[id] = g.Submerge(id, f)
	}
	return out
}
