// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package clock implements the Time clock (spec 3.6): the pair (current
// time, dt). driver.Model.Step advances it once at the end of each step;
// the propagators read and validate dt but do not advance the clock.
package clock

import "github.com/cpmech/gosl/chk"

// Clock is the simulation's (t, dt) pair.
type Clock struct {
	T  float64
	Dt float64
}

// New returns a clock at t=0 with the given initial dt.
func New(dt0 float64) *Clock {
	return &Clock{T: 0, Dt: dt0}
}

// Validate checks dt is positive and finite, the only contract the
// propagator enforces on the clock (spec 4.9): it never selects dt
// itself.
func (c *Clock) Validate() error {
	if c.Dt <= 0 {
		return chk.Err("clock: dt=%g is not positive", c.Dt)
	}
	if c.Dt != c.Dt || c.Dt > 1e300 { // NaN or overflow guard
		return chk.Err("clock: dt=%g is not finite", c.Dt)
	}
	return nil
}

// Advance commits one step of size dt (which may differ from the
// previous step if the caller adapts dt externally; the clock itself
// never selects it).
func (c *Clock) Advance(dt float64) {
	c.T += dt
	c.Dt = dt
}
