// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package carrier implements the Carrier concept (spec 3.5): a named
// collection of nodes representing one body, used for multi-body contact
// admission, output grouping, and migration grouping.
package carrier

// Carrier is a named body. NodeIDs and MPIDs are maintained by the
// builder package as nodes/material points are registered; carrier
// membership never changes after creation (spec 3.1 invariant c).
type Carrier struct {
	Name    string
	ID      int
	NodeIDs []int64
	MPIDs   []int64
}

// New returns an empty carrier.
func New(name string, id int) *Carrier {
	return &Carrier{Name: name, ID: id}
}

// AddNode registers a node id with this carrier.
func (c *Carrier) AddNode(id int64) { c.NodeIDs = append(c.NodeIDs, id) }

// AddMP registers a material-point id with this carrier.
func (c *Carrier) AddMP(id int64) { c.MPIDs = append(c.MPIDs, id) }
