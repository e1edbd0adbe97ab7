// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package search implements the neighbourhood-search component (spec 4.2):
// given a set of nodes with current positions and a query point with a
// cutoff radius, return the node ids within the ball. Two backends are
// provided: CellIndex (cell-bucket hash, O(1) average) and BruteIndex (a
// full scan used as a correctness oracle in tests, mirroring the role
// stlib's PlaceboCheck.h plays against the faster ORQ structures in the
// original engine).
package search

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/gm"
)

// ErrSearchStale names the SearchStale failure code (spec 6.4): node
// positions drifted past the rebuild threshold without a Rebuild. No
// function in this package returns it; a stale CellIndex answers Within
// with nil and reports its state through IsStale.
var ErrSearchStale = chk.Err("SearchStale: index queried after positions drifted past rebuild threshold")

// Index is the interface both backends satisfy.
type Index interface {
	// Within returns the ids of all points within radius r of x.
	Within(x []float64, r float64) []int64
	// Rebuild recomputes the index from the current set of positions.
	Rebuild(ids []int64, positions map[int64][]float64) error
}

// cellKey is a discretized 3-D bucket coordinate (z unused in 2-D).
type cellKey [3]int

// CellIndex is a cell-bucket spatial hash keyed on current position.
// Positions are also appended to an embedded gm.Bins the same way
// out.go's NodBins/IpsBins are populated, so the coordinate log stays
// consistent with the rest of the pack's output-side bucketing; the
// actual radius query below is performed against CellIndex's own bucket
// map because the retrieved pack only exercises gm.Bins.Init/Append and
// never shows the signature of its query method.
type CellIndex struct {
	cellSize float64
	origin   []float64
	ndim     int
	buckets  map[cellKey][]int64
	pos      map[int64][]float64
	bins     gm.Bins
	stale    bool
	maxDrift float64 // fraction of cellSize tolerated before the index is marked stale
	lastPos  map[int64][]float64
}

// NewCellIndex creates an empty index with the given bucket size (should
// be >= the largest cutoff radius expected, per spec 4.2's "preferred,
// O(1) average" backend) and the allowed position drift fraction before a
// stale query is rejected.
func NewCellIndex(cellSize float64, ndim int, maxDriftFraction float64) *CellIndex {
	return &CellIndex{
		cellSize: cellSize,
		ndim:     ndim,
		buckets:  make(map[cellKey][]int64),
		pos:      make(map[int64][]float64),
		maxDrift: maxDriftFraction,
	}
}

func (c *CellIndex) keyOf(x []float64) cellKey {
	var k cellKey
	for i := 0; i < c.ndim && i < 3; i++ {
		k[i] = int(math.Floor(x[i] / c.cellSize))
	}
	return k
}

// Rebuild discards the current bucket map and re-inserts every (id,
// position) pair. Also re-initializes the gm.Bins coordinate log.
func (c *CellIndex) Rebuild(ids []int64, positions map[int64][]float64) error {
	c.buckets = make(map[cellKey][]int64)
	c.pos = make(map[int64][]float64)
	c.lastPos = make(map[int64][]float64)

	xi := make([]float64, c.ndim)
	xf := make([]float64, c.ndim)
	for i := range xi {
		xi[i] = math.Inf(1)
		xf[i] = math.Inf(-1)
	}
	for _, id := range ids {
		x := positions[id]
		for i := 0; i < c.ndim; i++ {
			if x[i] < xi[i] {
				xi[i] = x[i]
			}
			if x[i] > xf[i] {
				xf[i] = x[i]
			}
		}
	}
	// guard against a degenerate (single-point or collinear) cloud, which
	// would otherwise make gm.Bins.Init reject a zero-volume box
	for i := range xi {
		if xf[i]-xi[i] < c.cellSize {
			mid := 0.5 * (xi[i] + xf[i])
			xi[i] = mid - c.cellSize
			xf[i] = mid + c.cellSize
		}
	}
	ndiv := 1
	if c.cellSize > 0 {
		span := 0.0
		for i := range xi {
			if xf[i]-xi[i] > span {
				span = xf[i] - xi[i]
			}
		}
		ndiv = int(math.Ceil(span/c.cellSize)) + 1
	}
	if err := c.bins.Init(xi, xf, ndiv); err != nil {
		return chk.Err("search: CellIndex.Rebuild: cannot initialise bins: %v", err)
	}

	for _, id := range ids {
		x := positions[id]
		c.pos[id] = x
		c.lastPos[id] = append([]float64(nil), x...)
		k := c.keyOf(x)
		c.buckets[k] = append(c.buckets[k], id)
		if err := c.bins.Append(x, int(id)); err != nil {
			return chk.Err("search: CellIndex.Rebuild: cannot append to bins: %v", err)
		}
	}
	c.stale = false
	return nil
}

// NotePositionsChanged must be called whenever the owner updates node
// positions in place (rather than calling Rebuild); it marks the index
// stale once any tracked point has drifted by more than maxDrift*cellSize,
// matching spec 4.2's "rebuilt ... when any node moves by more than a
// fraction of the cell size".
func (c *CellIndex) NotePositionsChanged(positions map[int64][]float64) {
	thresh := c.maxDrift * c.cellSize
	for id, last := range c.lastPos {
		cur, ok := positions[id]
		if !ok {
			continue
		}
		var d float64
		for i := 0; i < c.ndim; i++ {
			dx := cur[i] - last[i]
			d += dx * dx
		}
		if math.Sqrt(d) > thresh {
			c.stale = true
			return
		}
	}
}

// Within returns ids within radius r of x. If the index is stale and has
// not been rebuilt it returns nil (no error is reported; see IsStale).
func (c *CellIndex) Within(x []float64, r float64) []int64 {
	if c.stale {
		return nil
	}
	span := int(math.Ceil(r / c.cellSize))
	base := c.keyOf(x)
	var out []int64
	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			if c.ndim == 2 {
				k := cellKey{base[0] + dx, base[1] + dy, 0}
				out = appendWithin(out, c.buckets[k], c.pos, x, r)
				continue
			}
			for dz := -span; dz <= span; dz++ {
				k := cellKey{base[0] + dx, base[1] + dy, base[2] + dz}
				out = appendWithin(out, c.buckets[k], c.pos, x, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsStale reports whether NotePositionsChanged flagged this index.
func (c *CellIndex) IsStale() bool { return c.stale }

func appendWithin(out []int64, ids []int64, pos map[int64][]float64, x []float64, r float64) []int64 {
	r2 := r * r
	for _, id := range ids {
		p := pos[id]
		var d2 float64
		for i := range x {
			dx := p[i] - x[i]
			d2 += dx * dx
		}
		if d2 <= r2 {
			out = append(out, id)
		}
	}
	return out
}

// BruteIndex is the full-scan fallback / correctness oracle.
type BruteIndex struct {
	pos map[int64][]float64
}

// NewBruteIndex creates an empty brute-force index.
func NewBruteIndex() *BruteIndex {
	return &BruteIndex{pos: make(map[int64][]float64)}
}

// Rebuild stores the given positions verbatim.
func (b *BruteIndex) Rebuild(ids []int64, positions map[int64][]float64) error {
	b.pos = make(map[int64][]float64, len(ids))
	for _, id := range ids {
		b.pos[id] = positions[id]
	}
	return nil
}

// Within scans every point.
func (b *BruteIndex) Within(x []float64, r float64) []int64 {
	r2 := r * r
	var out []int64
	for id, p := range b.pos {
		var d2 float64
		for i := range x {
			dx := p[i] - x[i]
			d2 += dx * dx
		}
		if d2 <= r2 {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
