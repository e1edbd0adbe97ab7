// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package builder implements the Model Builder of spec 4.11: sole owner
// of materials, elements, local states and the node map (cells only seed
// material points in InsertBody; no MP->cell index is kept), mirroring fem.Domain's role as the single place that owns
// Nodes/Elems/Cells and wires them together in NewDomain before a solver
// ever touches them (fem/domain.go).
package builder

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cmhpcl/m4extreme-go/algebra"
	"github.com/cmhpcl/m4extreme-go/carrier"
	"github.com/cmhpcl/m4extreme-go/constitutive"
	"github.com/cmhpcl/m4extreme-go/element"
	"github.com/cmhpcl/m4extreme-go/lme"
	"github.com/cmhpcl/m4extreme-go/mp"
	"github.com/cmhpcl/m4extreme-go/node"
	"github.com/cmhpcl/m4extreme-go/search"
)

// Cell is one reference-configuration integration region: a set of node
// ids whose centroid seeds one material point (spec 4.11: "take a cell
// complex and a per-node point map").
type Cell struct {
	NodeIDs []int64
	Volume  float64
}

// CellComplex is the minimal mesh input this meshfree engine needs: just
// enough connectivity to seed initial MP positions/volumes and to
// identify boundary faces for traction generators, never a full
// isoparametric element (the engine has no elements in the FEM sense).
type CellComplex struct {
	Cells []Cell
}

// Builder is the sole owner of the model's nodes, material points,
// carriers and force generators, following fem.Domain's ownership
// pattern.
type Builder struct {
	Dim            int
	SearchRange    float64
	MultiBody      bool
	AdaptiveSearch bool

	lmeParams lme.Params

	nodes      map[int64]*node.Node
	points     []*mp.MaterialPoint
	carriers   map[int]*carrier.Carrier
	generators []element.Generator
	index      search.Index

	nextCarrierID int
	built         bool
}

// New allocates an empty builder (spec 6.1: "Model(clock, dim,
// search_range, [multi_body=true], [adaptive_search=false])" -- the
// clock itself is held by driver.Model, not the builder).
func New(dim int, searchRange float64, multiBody, adaptiveSearch bool, lmeParams lme.Params) *Builder {
	return &Builder{
		Dim:            dim,
		SearchRange:    searchRange,
		MultiBody:      multiBody,
		AdaptiveSearch: adaptiveSearch,
		lmeParams:      lmeParams,
		nodes:          make(map[int64]*node.Node),
		carriers:       make(map[int]*carrier.Carrier),
	}
}

// InsertBody registers every node referenced by the cell complex and one
// material point per cell, all under a freshly allocated carrier (spec
// 4.11 insertBody / spec 6.1 insert_body).
func (b *Builder) InsertBody(name string, cc *CellComplex, points map[int64]algebra.Vector, kernel constitutive.Kernel, density float64, initialF algebra.Hom) (int, error) {
	if b.built {
		return 0, chk.Err("builder.InsertBody: cannot insert after createModel")
	}
	carrierID := b.nextCarrierID
	b.nextCarrierID++
	c := carrier.New(name, carrierID)

	seen := make(map[int64]bool)
	for _, cell := range cc.Cells {
		for _, id := range cell.NodeIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if _, exists := b.nodes[id]; !exists {
				b.nodes[id] = node.New(id, carrierID, b.Dim)
			}
			c.AddNode(id)
		}
	}

	for _, cell := range cc.Cells {
		centroid := algebra.NewVector(b.Dim)
		for _, id := range cell.NodeIDs {
			centroid.AddScaled(1.0/float64(len(cell.NodeIDs)), points[id])
		}
		mpID := int64(len(b.points))
		m := mp.New(mpID, carrierID, b.Dim, cell.Volume, density, kernel)
		m.Position = centroid
		if initialF != nil {
			m.F = initialF.Clone()
			m.FOld = initialF.Clone()
		}
		b.points = append(b.points, m)
		c.AddMP(mpID)
	}

	b.carriers[carrierID] = c
	return carrierID, nil
}

// InsertTractionBoundary attaches a one-body traction generator (spec
// 4.11 insertTractionBoundary).
func (b *Builder) InsertTractionBoundary(g *element.TractionBoundary) {
	b.generators = append(b.generators, g)
}

// InsertPotentialField attaches a one-body potential/body-force generator
// (spec 4.11 insertPotentialField).
func (b *Builder) InsertPotentialField(g *element.BodyForceField) {
	b.generators = append(b.generators, g)
}

// InsertPotentialTwoBody / InsertContactField both attach the penalty
// two-body generator (spec 4.11 insertPotentialTwoBody /
// insertContactField); the distinction between a symmetric potential
// field and a contact constraint is purely the Symmetric flag and the
// sign convention already encoded in element.TwoBodyPotential.
func (b *Builder) InsertPotentialTwoBody(g *element.TwoBodyPotential) {
	b.generators = append(b.generators, g)
}

func (b *Builder) InsertContactField(g *element.TwoBodyPotential) {
	b.generators = append(b.generators, g)
}

// CreateModel must be called exactly once after all inserts, before
// stepping (spec 4.11 createModel / spec 6.1 create_model). It builds
// the initial spatial index, every MP's support and the lumped nodal
// masses.
func (b *Builder) CreateModel() error {
	if b.built {
		return chk.Err("builder.CreateModel: already called")
	}
	ids := make([]int64, 0, len(b.nodes))
	positions := make(map[int64]algebra.Vector, len(b.nodes))
	for id, n := range b.nodes {
		ids = append(ids, id)
		positions[id] = n.Position()
	}
	b.index = search.NewCellIndex(b.lmeParams.Spacing, b.Dim, 0.3)
	if err := b.index.Rebuild(ids, positions); err != nil {
		return err
	}
	for _, m := range b.points {
		if err := m.RebuildSupport(b.index, positions, b.SearchRange, b.lmeParams); err != nil {
			return err
		}
	}
	// lumped nodal mass m_a = Σ_p p_a(x_p) ρ0_p V0_p over the initial supports
	for _, m := range b.points {
		for i, id := range m.Support.NodeIDs {
			b.nodes[id].Mass += m.Support.Weights[i] * m.Density0 * m.Volume0
		}
	}
	b.built = true
	return nil
}

// Reset recomputes shape functions for the current configuration, used
// after an MPI migration changes which ranks own which nodes/MPs (spec
// 4.11 reset).
func (b *Builder) Reset() error {
	ids := make([]int64, 0, len(b.nodes))
	positions := make(map[int64]algebra.Vector, len(b.nodes))
	for id, n := range b.nodes {
		ids = append(ids, id)
		positions[id] = n.Position()
	}
	if err := b.index.Rebuild(ids, positions); err != nil {
		return err
	}
	for _, m := range b.points {
		if !m.Active {
			continue
		}
		if err := m.RebuildSupport(b.index, positions, b.SearchRange, b.lmeParams); err != nil {
			return err
		}
	}
	return nil
}

// Nodes returns the builder's node map (read-only use expected).
func (b *Builder) Nodes() map[int64]*node.Node { return b.nodes }

// Points returns the builder's material points.
func (b *Builder) Points() []*mp.MaterialPoint { return b.points }

// Generators returns the one-body and two-body force generators.
func (b *Builder) Generators() []element.Generator { return b.generators }

// Index returns the shared spatial index built by CreateModel.
func (b *Builder) Index() search.Index { return b.index }
