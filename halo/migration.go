// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package halo

import "math"

// CostStats reports the per-rank computational cost distribution used to
// decide whether to rebalance (spec 4.13: "when the standard deviation of
// per-rank computational cost exceeds a threshold (default 30%)").
func CostStats(costs []float64) (mean, stddev float64) {
	n := float64(len(costs))
	if n == 0 {
		return 0, 0
	}
	for _, c := range costs {
		mean += c
	}
	mean /= n
	var variance float64
	for _, c := range costs {
		d := c - mean
		variance += d * d
	}
	variance /= n
	return mean, math.Sqrt(variance)
}

// NeedsRebalance reports whether the relative standard deviation of costs
// exceeds threshold (default 0.3 per spec 4.13).
func NeedsRebalance(costs []float64, threshold float64) bool {
	if threshold <= 0 {
		threshold = 0.3
	}
	mean, sd := CostStats(costs)
	if mean <= 0 {
		return false
	}
	return sd/mean > threshold
}

// Move describes one MP migration: move Cost worth of MP cost (an
// approximation; callers translate Cost into actual MP ids) from From to
// To.
type Move struct {
	From, To int
	Cost     float64
}

// GreedyRebalance implements spec 4.13's Option I: repeatedly move cost
// from the highest-cost rank to its lowest-cost neighbor along the
// communication graph until within threshold or no improving move exists.
func GreedyRebalance(costs []float64, graph map[int][]int, threshold float64) []Move {
	costs = append([]float64(nil), costs...)
	var moves []Move
	for NeedsRebalance(costs, threshold) {
		hi := argmax(costs)
		neighbors := graph[hi]
		if len(neighbors) == 0 {
			break
		}
		lo := neighbors[0]
		for _, n := range neighbors[1:] {
			if costs[n] < costs[lo] {
				lo = n
			}
		}
		if costs[lo] >= costs[hi] {
			break
		}
		amount := (costs[hi] - costs[lo]) / 2
		costs[hi] -= amount
		costs[lo] += amount
		moves = append(moves, Move{From: hi, To: lo, Cost: amount})
	}
	return moves
}

// DiffusiveRebalance implements spec 4.13's Option II: every rank shifts a
// fraction of its excess-over-mean to each neighbor, proportional to the
// cost differential, in a single synchronized pass (diffusive iterations
// are driven by the caller re-invoking this per step).
func DiffusiveRebalance(costs []float64, graph map[int][]int) []Move {
	mean, _ := CostStats(costs)
	var moves []Move
	for r, c := range costs {
		if c <= mean {
			continue
		}
		neighbors := graph[r]
		if len(neighbors) == 0 {
			continue
		}
		excess := c - mean
		var totalDiff float64
		diffs := make([]float64, len(neighbors))
		for i, n := range neighbors {
			d := c - costs[n]
			if d < 0 {
				d = 0
			}
			diffs[i] = d
			totalDiff += d
		}
		if totalDiff == 0 {
			continue
		}
		for i, n := range neighbors {
			share := excess * diffs[i] / totalDiff
			if share <= 0 {
				continue
			}
			moves = append(moves, Move{From: r, To: n, Cost: share})
		}
	}
	return moves
}

func argmax(v []float64) int {
	best := 0
	for i, x := range v {
		if x > v[best] {
			best = i
		}
	}
	return best
}
