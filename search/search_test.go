// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package search

import (
	"sort"
	"testing"
)

func samplePositions() ([]int64, map[int64][]float64) {
	ids := []int64{1, 2, 3, 4, 5}
	pos := map[int64][]float64{
		1: {0, 0},
		2: {0.5, 0},
		3: {2, 2},
		4: {0, 0.4},
		5: {5, 5},
	}
	return ids, pos
}

func TestCellIndexMatchesBrute(t *testing.T) {
	ids, pos := samplePositions()

	ci := NewCellIndex(1.0, 2, 0.3)
	if err := ci.Rebuild(ids, pos); err != nil {
		t.Fatal(err)
	}
	bi := NewBruteIndex()
	bi.Rebuild(ids, pos)

	query := []float64{0, 0}
	r := 1.0

	got := ci.Within(query, r)
	want := bi.Within(query, r)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	if len(got) != len(want) {
		t.Fatalf("cell index returned %v, brute returned %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: cell=%v brute=%v", i, got, want)
		}
	}
}

func TestCellIndexGoesStaleOnDrift(t *testing.T) {
	ids, pos := samplePositions()
	ci := NewCellIndex(1.0, 2, 0.1)
	if err := ci.Rebuild(ids, pos); err != nil {
		t.Fatal(err)
	}
	moved := map[int64][]float64{}
	for k, v := range pos {
		moved[k] = append([]float64(nil), v...)
	}
	moved[1][0] += 0.5 // large drift relative to 0.1*cellSize threshold
	ci.NotePositionsChanged(moved)
	if !ci.IsStale() {
		t.Fatal("expected index to become stale after large drift")
	}
	if ci.Within([]float64{0, 0}, 1.0) != nil {
		t.Fatal("expected stale index to return nil from Within")
	}
}
