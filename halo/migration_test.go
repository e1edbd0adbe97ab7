// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package halo

import "testing"

func TestNeedsRebalanceThreshold(t *testing.T) {
	even := []float64{10, 10, 10, 10}
	if NeedsRebalance(even, 0.3) {
		t.Fatal("evenly loaded ranks must not need rebalancing")
	}
	skewed := []float64{1, 1, 1, 20}
	if !NeedsRebalance(skewed, 0.3) {
		t.Fatal("heavily skewed ranks must need rebalancing")
	}
}

func TestGreedyRebalanceConverges(t *testing.T) {
	costs := []float64{1, 1, 1, 20}
	graph := map[int][]int{0: {1, 2, 3}, 1: {0, 2, 3}, 2: {0, 1, 3}, 3: {0, 1, 2}}
	moves := GreedyRebalance(costs, graph, 0.3)
	if len(moves) == 0 {
		t.Fatal("expected at least one move for a heavily skewed load")
	}
	for _, m := range moves {
		if m.From == m.To {
			t.Fatalf("move %+v shifts cost to itself", m)
		}
	}
}

func TestBoxOverlaps(t *testing.T) {
	a := Box{Min: []float64{0, 0}, Max: []float64{1, 1}}
	b := Box{Min: []float64{0.5, 0.5}, Max: []float64{2, 2}}
	c := Box{Min: []float64{5, 5}, Max: []float64{6, 6}}
	if !a.Overlaps(b) {
		t.Fatal("expected overlap")
	}
	if a.Overlaps(c) {
		t.Fatal("expected no overlap")
	}
}
