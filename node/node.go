// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package node implements the Node (DOF) concept of spec 3.1 and the
// Global LocalState of spec 4.8, the only two places in the engine that
// know about constraints.
package node

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cmhpcl/m4extreme-go/algebra"
)

// Node represents one degree of freedom in physical or constrained space.
type Node struct {
	ID      int64
	Carrier int // carrier tag; never changes after creation (spec 3.1 invariant c)
	Emb     *algebra.Embedding

	Reduced      algebra.Vector // free coordinates (the propagator's actual state)
	Mass         float64
	Velocity     algebra.Vector // ambient-space velocity
	Acceleration algebra.Vector // ambient-space acceleration

	Detached bool // no active MP references this node (spec 4.12)
	Shadow   bool // replica whose home rank is elsewhere (spec 4.13)
	HomeRank int
}

// New allocates a node with a free (unconstrained) embedding.
func New(id int64, carrier, ndim int) *Node {
	return &Node{
		ID:           id,
		Carrier:      carrier,
		Emb:          algebra.NewFreeEmbedding(ndim),
		Reduced:      algebra.NewVector(ndim),
		Velocity:     algebra.NewVector(ndim),
		Acceleration: algebra.NewVector(ndim),
		HomeRank:     -1,
	}
}

// NewConstrained allocates a node whose reduced coordinates live in a
// lower-dimensional space than ambient, per the given embedding. Validate
// is run eagerly so a malformed embedding is rejected at construction
// (spec 3.1 invariant b).
func NewConstrained(id int64, carrier int, emb *algebra.Embedding, tol float64) (*Node, error) {
	if err := emb.Validate(tol); err != nil {
		return nil, chk.Err("node.NewConstrained: %v", err)
	}
	n := &Node{
		ID:           id,
		Carrier:      carrier,
		Emb:          emb,
		Reduced:      algebra.NewVector(emb.ReducedDim()),
		Velocity:     algebra.NewVector(emb.AmbientDim()),
		Acceleration: algebra.NewVector(emb.AmbientDim()),
		HomeRank:     -1,
	}
	return n, nil
}

// Position returns the current ambient-space position.
func (n *Node) Position() algebra.Vector {
	return n.Emb.Apply(n.Reduced)
}
