// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// m4run is the CLI entry point, mirroring main.go's flag-parsing and
// mpi.Start/Stop bracketing but driving driver.Model instead of
// fem.Main/fem.Run.
package main

import (
	"flag"
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"

	"github.com/cmhpcl/m4extreme-go/algebra"
	"github.com/cmhpcl/m4extreme-go/builder"
	"github.com/cmhpcl/m4extreme-go/constitutive"
	"github.com/cmhpcl/m4extreme-go/driver"
	"github.com/cmhpcl/m4extreme-go/lme"
	"github.com/cpmech/gosl/fun"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			if mpi.Rank() == 0 {
				chk.Verbose = true
				io.PfRed("ERROR: %v\n", err)
			}
		}
		mpi.Stop(false)
	}()
	mpi.Start(false)

	dim := flag.Int("dim", 2, "spatial dimension")
	dt := flag.Float64("dt", 1e-3, "initial timestep")
	nsteps := flag.Int("nsteps", 100, "number of steps to run")
	searchRange := flag.Float64("search-range", 2.0, "LME support search radius")
	spacing := flag.Float64("spacing", 1.0, "nominal nodal spacing, sets the LME beta/tol scale")
	workers := flag.Int("workers", 4, "worker-pool size")
	flag.Parse()

	if mpi.Rank() == 0 {
		io.PfWhite("\nm4extreme-go -- meshfree optimal-transportation continuum engine\n\n")
	}

	lmeParams := lme.Params{Beta: 1.5 / (*spacing * *spacing), Tol: 1e-10, Spacing: *spacing, Cutoff: 1e-8, MaxIter: 50}
	model := driver.NewModel(*dt, *dim, *searchRange, false, false, lmeParams, *workers)

	kernel, ok := constitutive.New("neo-hookean")
	if !ok {
		chk.Panic("neo-hookean kernel not registered")
	}
	if err := kernel.Init(*dim, fun.Prms{{N: "G", V: 1.0}, {N: "lambda", V: 2.0}}); err != nil {
		chk.Panic("%v", err)
	}

	cc, points := demoLattice(*dim, *spacing)
	if _, err := model.InsertBody("demo", cc, points, kernel, 1000.0, nil); err != nil {
		chk.Panic("%v", err)
	}
	if err := model.CreateModel(); err != nil {
		chk.Panic("%v", err)
	}

	for i := 0; i < *nsteps; i++ {
		code, err := model.Step()
		if err != nil {
			chk.Panic("step %d: %v (%s)", i, err, code)
		}
		if code != driver.StepTaken {
			io.Pfcyan("stopped at step %d: %s\n", i, code)
			break
		}
	}

	ke := model.KineticEnergy()
	se, err := model.StrainEnergy()
	if err != nil {
		chk.Panic("%v", err)
	}
	io.Pf("kinetic energy = %g, strain energy = %g, dissipated = %g\n", ke, se, model.DissipatedEnergy())
	os.Exit(0)
}

// demoLattice builds a small regular lattice as a stand-in for a real
// mesh reader (out of scope here: no input-file cell-complex parser was
// retrieved for this meshfree engine, only fem's isoparametric inp
// package, which does not apply).
func demoLattice(dim int, spacing float64) (*builder.CellComplex, map[int64]algebra.Vector) {
	points := make(map[int64]algebra.Vector)
	var id int64
	n := 5
	coords := make([]int64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			points[id] = algebra.Vector{float64(i) * spacing, float64(j) * spacing}
			coords = append(coords, id)
			id++
		}
	}
	cc := &builder.CellComplex{}
	idx := func(i, j int) int64 { return coords[i*n+j] }
	for i := 0; i < n-1; i++ {
		for j := 0; j < n-1; j++ {
			cc.Cells = append(cc.Cells, builder.Cell{
				NodeIDs: []int64{idx(i, j), idx(i+1, j), idx(i+1, j+1), idx(i, j+1)},
				Volume:  spacing * spacing,
			})
		}
	}
	_ = dim
	return cc, points
}
