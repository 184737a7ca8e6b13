// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import "sync/atomic"

// Alternator hands out node types in a fixed fast, large, fast, ...
// rotation. The rotation is fleet-global: replacement launches continue
// the sequence rather than restarting it, so a fleet that keeps
// replacing nodes still trends toward an even type split.
//
// The zero value is ready to use and starts with fast.
type Alternator struct {
	counter atomic.Uint64
}

// Next returns the next node type in the rotation.
func (a *Alternator) Next() NodeType {
	if a.counter.Add(1)%2 == 1 {
		return TypeFast
	}
	return TypeLarge
}
