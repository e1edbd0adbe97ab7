// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package driver implements the external Model API of spec 6.1 consumed
// by the CLI/Python layer, the FieldTag enum and the failure codes of
// spec 6.4, mirroring the facade fem.Main presents over a Domain/Solver
// pair (fem/main.go): one object the caller constructs once, feeds
// inserts into, then steps.
package driver

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"

	"github.com/cmhpcl/m4extreme-go/algebra"
	"github.com/cmhpcl/m4extreme-go/builder"
	"github.com/cmhpcl/m4extreme-go/clock"
	"github.com/cmhpcl/m4extreme-go/constitutive"
	"github.com/cmhpcl/m4extreme-go/element"
	"github.com/cmhpcl/m4extreme-go/erosion"
	"github.com/cmhpcl/m4extreme-go/lme"
	"github.com/cmhpcl/m4extreme-go/mp"
	"github.com/cmhpcl/m4extreme-go/node"
	"github.com/cmhpcl/m4extreme-go/propagate"
	"github.com/cmhpcl/m4extreme-go/search"
	"github.com/cmhpcl/m4extreme-go/workerpool"
)

// FailureCode enumerates the outcomes surfaced to the driver (spec 6.4).
type FailureCode int

const (
	StepTaken FailureCode = iota
	EndOfSimulation
	StepCountExceeded
	TimeStepInvalid
	SearchStale
	SupportDegenerate
	ThermalSolverFailed
	MigrationMismatch
)

func (f FailureCode) String() string {
	switch f {
	case StepTaken:
		return "StepTaken"
	case EndOfSimulation:
		return "EndOfSimulation"
	case StepCountExceeded:
		return "StepCountExceeded"
	case TimeStepInvalid:
		return "TimeStepInvalid"
	case SearchStale:
		return "SearchStale"
	case SupportDegenerate:
		return "SupportDegenerate"
	case ThermalSolverFailed:
		return "ThermalSolverFailed"
	case MigrationMismatch:
		return "MigrationMismatch"
	default:
		return "Unknown"
	}
}

// FieldTag enumerates the queryable per-node/per-MP fields of spec 6.1.
type FieldTag int

const (
	FieldEffectiveStress FieldTag = iota
	FieldEffectiveStrain
	FieldTemperature
	FieldMeanStress
	FieldVelocity
	FieldDisplacement
	FieldStatus
	FieldJacobian
	FieldDeformationGradient
	FieldVoidFraction
	FieldRotation
	FieldOrientation
	FieldGamma
	FieldWeight
	FieldCauchyStress
	FieldTrueStrain
	FieldEnergyReleaseRate
	FieldDissipatedEnergy
	FieldVorticity
	FieldMass
	FieldAVStress
	FieldAVDeformation
)

// Model is the sole external entry point, construction, inserts,
// create_model(), step()/equilibrate(), and the query surface of spec
// 6.1.
type Model struct {
	Clock    *clock.Clock
	Builder  *builder.Builder
	Pool     *workerpool.Pool
	LMEParam lme.Params

	AVParams   []element.AVParams
	HGParams   []element.HourglassParams
	Erosion    erosion.Criterion
	CFLFrac    float64

	prop *propagate.Explicit

	dissipatedEnergy float64
	stepsTaken       int
	maxSteps         int
}

// NewModel implements spec 6.1's Model(clock, dim, search_range,
// multi_body, adaptive_search).
func NewModel(dt0 float64, dim int, searchRange float64, multiBody, adaptiveSearch bool, lmeParams lme.Params, workers int) *Model {
	return &Model{
		Clock:    clock.New(dt0),
		Builder:  builder.New(dim, searchRange, multiBody, adaptiveSearch, lmeParams),
		Pool:     workerpool.New(workers),
		LMEParam: lmeParams,
		prop:     propagate.NewExplicit(),
		CFLFrac:  0.5,
		maxSteps: math.MaxInt32,
	}
}

// InsertBody implements spec 6.1 insert_body, generalized from the FEM
// element_builder/num_quadrature_points signature to this meshfree
// engine's single-MP-per-cell scheme (element_builder and
// num_quadrature_points have no referent without isoparametric elements;
// material_builder becomes the already-constructed constitutive.Kernel).
func (m *Model) InsertBody(name string, cc *builder.CellComplex, points map[int64]algebra.Vector, kernel constitutive.Kernel, density float64, initialF algebra.Hom) (int, error) {
	return m.Builder.InsertBody(name, cc, points, kernel, density, initialF)
}

// InsertTraction implements spec 6.1 insert_traction.
func (m *Model) InsertTraction(nodeIDs []int64, normals []algebra.Vector, areas []float64, load dbf.T) {
	m.Builder.InsertTractionBoundary(&element.TractionBoundary{NodeIDs: nodeIDs, Normals: normals, Areas: areas, Load: load})
}

// InsertOneBodyField implements spec 6.1 insert_one_body_field.
func (m *Model) InsertOneBodyField(nodeIDs []int64, masses []float64, accel algebra.Vector, scale dbf.T) {
	m.Builder.InsertPotentialField(&element.BodyForceField{NodeIDs: nodeIDs, Masses: masses, Accel: accel, Scale: scale})
}

// InsertTwoBodyPotential implements spec 6.1 insert_two_body_potential.
func (m *Model) InsertTwoBodyPotential(a, b []int64, penalty, gap float64, symmetric bool) {
	m.Builder.InsertPotentialTwoBody(&element.TwoBodyPotential{
		A: a, B: b, Penalty: penalty, Gap: gap, Symmetric: symmetric,
		Positions: func(id int64) algebra.Vector { return m.Builder.Nodes()[id].Position() },
	})
}

// CreateModel implements spec 6.1 create_model(); must be called exactly
// once, after all inserts, before Step/Equilibrate.
func (m *Model) CreateModel() error {
	if err := m.Builder.CreateModel(); err != nil {
		return err
	}
	n := len(m.Builder.Points())
	if len(m.AVParams) != n {
		m.AVParams = make([]element.AVParams, n)
	}
	if len(m.HGParams) != n {
		m.HGParams = make([]element.HourglassParams, n)
	}
	return nil
}

func (m *Model) global() *node.GlobalState { return node.NewGlobalState(m.Builder.Nodes()) }

// Step advances the simulation by one timestep (spec 6.1 step(), spec
// 4.9): predict, assemble Energy<1> + AV + hourglass + generators,
// correct, advance MP local state, scan for erosion.
func (m *Model) Step() (FailureCode, error) {
	if err := m.Clock.Validate(); err != nil {
		return TimeStepInvalid, err
	}
	global := m.global()
	ids := global.IDs()
	points := m.Builder.Points()

	if err := m.prop.Predict(m.Clock, global, ids); err != nil {
		return TimeStepInvalid, err
	}

	positions := make(map[int64]algebra.Vector, len(ids))
	for _, id := range ids {
		positions[id] = global.Node(id).Position()
	}
	for _, p := range points {
		if !p.Active {
			continue
		}
		if err := p.UpdateShapeFunctions(positions, m.LMEParam); err != nil {
			return SupportDegenerate, err
		}
		if err := p.Reset(positions); err != nil {
			return SupportDegenerate, err
		}
	}

	forces, err := element.AssembleEnergy1(m.Pool, points, nil)
	if err != nil {
		return SupportDegenerate, err
	}
	velocity := func(id int64) algebra.Vector { return global.Node(id).Velocity }
	if err := element.AssembleArtificialViscosity(m.Pool, points, m.AVParams, velocity, forces); err != nil {
		return SupportDegenerate, err
	}
	if err := element.AssembleHourglassControl(m.Pool, points, m.HGParams, velocity, forces); err != nil {
		return SupportDegenerate, err
	}
	for _, g := range m.Builder.Generators() {
		if err := g.Contribute(m.Clock.T, forces); err != nil {
			return SupportDegenerate, err
		}
	}
	reduced := global.SubmergeAll(forces)

	if err := m.prop.Correct(m.Clock, global, ids, reduced); err != nil {
		return TimeStepInvalid, err
	}

	for _, p := range points {
		if !p.Active {
			continue
		}
		if err := p.Advance(m.Builder.Index(), positions, m.Clock.Dt, m.Builder.SearchRange, 0.3, m.LMEParam); err != nil {
			return SupportDegenerate, err
		}
	}

	if len(m.Erosion.Gc) > 0 {
		if err := m.scanErosion(); err != nil {
			return SupportDegenerate, err
		}
	}

	m.Clock.Advance(m.Clock.Dt)
	m.stepsTaken++
	if m.stepsTaken >= m.maxSteps {
		return StepCountExceeded, nil
	}
	return StepTaken, nil
}

func (m *Model) scanErosion() error {
	points := m.Builder.Points()
	perimeter := make([]float64, len(points))
	for i, p := range points {
		perimeter[i] = math.Pow(p.Volume, float64(m.Builder.Dim-1)/float64(m.Builder.Dim))
	}
	// erosion clustering (spec 4.12 step 1) needs an MP-neighborhood index
	// in current configuration, keyed by MP id -- not m.Builder.Index(),
	// which is a node index keyed by node id. MP ids are dense and
	// assigned in points-slice order by Builder.InsertBody, so this index's
	// ids double as positional indices into points/perimeter.
	mpIDs := make([]int64, len(points))
	mpPositions := make(map[int64][]float64, len(points))
	for i, p := range points {
		mpIDs[i] = p.ID
		mpPositions[p.ID] = []float64(p.Position)
	}
	mpIndex := search.NewCellIndex(m.Builder.SearchRange, m.Builder.Dim, 0.3)
	if err := mpIndex.Rebuild(mpIDs, mpPositions); err != nil {
		return err
	}
	rescan := func() ([]erosion.Candidate, error) {
		return erosion.ScanCandidates(m.Pool, points, mpIndex, m.Builder.SearchRange, perimeter, m.Erosion)
	}
	candidates, err := rescan()
	if err != nil {
		return err
	}
	_, dissipated, err := erosion.ApplyFailures(points, candidates, rescan)
	if err != nil {
		return err
	}
	m.dissipatedEnergy += dissipated
	erosion.DetachOrphanedNodes(m.global(), points)
	return nil
}

// Equilibrate implements spec 6.1 equilibrate(duration): step until the
// clock has advanced by at least duration or a non-StepTaken code occurs.
func (m *Model) Equilibrate(duration float64) (FailureCode, error) {
	target := m.Clock.T + duration
	for m.Clock.T < target {
		code, err := m.Step()
		if err != nil {
			return code, err
		}
		if code != StepTaken {
			return code, nil
		}
	}
	return EndOfSimulation, nil
}

// KineticEnergy implements spec 6.1 kinetic_energy().
func (m *Model) KineticEnergy() float64 {
	var ke float64
	for _, n := range m.Builder.Nodes() {
		if n.Mass <= 0 {
			continue
		}
		ke += 0.5 * n.Mass * n.Velocity.Dot(n.Velocity)
	}
	return ke
}

// StrainEnergy implements spec 6.1 strain_energy().
func (m *Model) StrainEnergy() (float64, error) {
	var se float64
	for _, p := range m.Builder.Points() {
		if !p.Active {
			continue
		}
		w, err := p.StrainEnergy()
		if err != nil {
			return 0, err
		}
		se += w
	}
	return se, nil
}

// Momentum implements spec 6.1 momentum().
func (m *Model) Momentum() algebra.Vector {
	total := algebra.NewVector(m.Builder.Dim)
	for _, n := range m.Builder.Nodes() {
		if n.Mass <= 0 {
			continue
		}
		total = total.AddScaled(n.Mass, n.Velocity)
	}
	return total
}

// Mass implements spec 6.1 mass().
func (m *Model) Mass() float64 {
	var total float64
	for _, n := range m.Builder.Nodes() {
		total += n.Mass
	}
	return total
}

// DissipatedEnergy returns the energy accumulated by eigen-erosion
// failures (spec 4.12 step "its dissipated energy is accumulated for the
// report"). It is a model-wide total; QpData does not serve
// FieldDissipatedEnergy.
func (m *Model) DissipatedEnergy() float64 { return m.dissipatedEnergy }

// QpData implements spec 6.1 qp_data(field_tag) for the subset of tags
// that map onto a single scalar per material point; vector/tensor tags
// (deformation gradient, orientation, Cauchy stress) are left to a richer
// caller-side adapter since FieldTag alone does not fix a flattening
// convention.
func (m *Model) QpData(tag FieldTag) (map[int64]float64, error) {
	out := make(map[int64]float64, len(m.Builder.Points()))
	for _, p := range m.Builder.Points() {
		switch tag {
		case FieldStatus:
			if p.Active {
				out[p.ID] = 1
			} else {
				out[p.ID] = 0
			}
		case FieldWeight:
			out[p.ID] = p.Volume
		case FieldTemperature:
			out[p.ID] = p.Temperature
		case FieldJacobian:
			if !p.Active {
				continue
			}
			j, err := p.F.Det()
			if err != nil {
				return nil, err
			}
			out[p.ID] = j
		case FieldMeanStress:
			if !p.Active {
				continue
			}
			sigma, err := p.Stress()
			if err != nil {
				return nil, err
			}
			out[p.ID] = sigma.Trace() / float64(m.Builder.Dim)
		case FieldMass:
			out[p.ID] = p.Density0 * p.Volume0
		default:
			return nil, chk.Err("driver.QpData: field tag %d is not a scalar field", tag)
		}
	}
	return out, nil
}

// NodeData implements spec 6.1 node_data(field_tag) for scalar/vector
// node fields.
func (m *Model) NodeData(tag FieldTag) (map[int64]algebra.Vector, error) {
	out := make(map[int64]algebra.Vector, len(m.Builder.Nodes()))
	for id, n := range m.Builder.Nodes() {
		switch tag {
		case FieldVelocity:
			out[id] = n.Velocity
		case FieldDisplacement:
			out[id] = n.Reduced
		case FieldMass:
			out[id] = algebra.Vector{n.Mass}
		case FieldStatus:
			if n.Detached {
				out[id] = algebra.Vector{0}
			} else {
				out[id] = algebra.Vector{1}
			}
		default:
			return nil, chk.Err("driver.NodeData: field tag %d is not a node field", tag)
		}
	}
	return out, nil
}
