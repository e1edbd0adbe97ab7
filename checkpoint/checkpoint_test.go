// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package checkpoint

import (
	"bytes"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"

	"github.com/cmhpcl/m4extreme-go/clock"
	"github.com/cmhpcl/m4extreme-go/constitutive"
	"github.com/cmhpcl/m4extreme-go/mp"
	"github.com/cmhpcl/m4extreme-go/node"
)

func TestRoundTrip(t *testing.T) {
	kernel, ok := constitutive.New("neo-hookean")
	if !ok {
		t.Fatal("neo-hookean not registered")
	}
	if err := kernel.Init(2, fun.Prms{{N: "G", V: 1.0}, {N: "lambda", V: 2.0}}); err != nil {
		t.Fatal(err)
	}

	n0 := node.New(0, 0, 2)
	n0.Mass = 1.5
	nodes := map[int64]*node.Node{0: n0}

	point := mp.New(7, 0, 2, 1.0, 1000.0, kernel)
	point.Volume = 1.2
	points := []*mp.MaterialPoint{point}

	clk := clock.New(0.01)
	clk.T = 0.05

	snap := BuildSnapshot(clk, nodes, points)

	var buf bytes.Buffer
	if err := Encode(&buf, snap); err != nil {
		t.Fatal(err)
	}
	restored, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}

	kernels := map[string]constitutive.Kernel{"neo-hookean": kernel}
	rn, rp, rc, err := Restore(restored, 2, kernels)
	if err != nil {
		t.Fatal(err)
	}
	chk.Scalar(t, "time", 1e-12, rc.T, 0.05)
	chk.Scalar(t, "mass", 1e-12, rn[0].Mass, 1.5)
	if len(rp) != 1 || rp[0].ID != 7 {
		t.Fatalf("expected one restored MP with id 7, got %+v", rp)
	}
	chk.Scalar(t, "volume", 1e-12, rp[0].Volume, 1.2)
}
