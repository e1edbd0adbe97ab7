// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package vtkio writes the legacy ASCII VTK format of spec 6.3, built the
// way tools/GenVtu.go assembles its XML .vtu output: formatted writes
// into a bytes.Buffer via io.Ff, flushed in one shot via io.WriteFileV.
// The legacy format (rather than GenVtu's XML .vtu) is used here since
// spec 6.3 asks for the simpler single-file ASCII variant, not a
// PVD-indexed time series.
package vtkio

import (
	"bytes"
	"sort"

	"github.com/cpmech/gosl/io"

	"github.com/cmhpcl/m4extreme-go/algebra"
)

// WritePoints writes every material point (or node) position as a VTK
// POLYDATA vertex set, with one scalar field per entry of scalars, keyed
// by the same ids as points.
func WritePoints(path string, ids []int64, points map[int64]algebra.Vector, scalars map[string]map[int64]float64) error {
	var buf bytes.Buffer
	n := len(ids)
	io.Ff(&buf, "# vtk DataFile Version 3.0\n")
	io.Ff(&buf, "m4extreme-go material point output\n")
	io.Ff(&buf, "ASCII\n")
	io.Ff(&buf, "DATASET POLYDATA\n")
	io.Ff(&buf, "POINTS %d float\n", n)
	for _, id := range ids {
		p := points[id]
		x, y, z := component(p, 0), component(p, 1), component(p, 2)
		io.Ff(&buf, "%23.15e %23.15e %23.15e\n", x, y, z)
	}
	io.Ff(&buf, "VERTICES %d %d\n", n, 2*n)
	for i := 0; i < n; i++ {
		io.Ff(&buf, "1 %d\n", i)
	}

	if len(scalars) > 0 {
		io.Ff(&buf, "POINT_DATA %d\n", n)
		keys := make([]string, 0, len(scalars))
		for k := range scalars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			field := scalars[key]
			io.Ff(&buf, "SCALARS %s float 1\n", key)
			io.Ff(&buf, "LOOKUP_TABLE default\n")
			for _, id := range ids {
				io.Ff(&buf, "%23.15e\n", field[id])
			}
		}
	}

	io.WriteFileV(path, &buf)
	return nil
}

func component(v algebra.Vector, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}
