/*
Copyright © 2026 SUSE LLC
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cct

import "math"

// Normalize rebases the tree so that the earliest node starts at zero.  Nodes
// that were never closed are closed at the end of the trace, which is the
// latest known stop (or the latest start of an open node, if later).  The
// root is set to span the whole trace.  Normalizing twice has no further
// effect.
func (t *Tree) Normalize() {
	if len(t.nodes) == 1 {
		t.nodes[RootID].Start = 0
		t.nodes[RootID].Stop = math.MaxInt64
		return
	}

	shift := int64(math.MaxInt64)
	end := int64(math.MinInt64)
	for _, node := range t.nodes[1:] {
		shift = min(shift, node.Start)
		if node.Open {
			end = max(end, node.Start)
		} else {
			end = max(end, node.Stop)
		}
	}

	for i := 1; i < len(t.nodes); i++ {
		node := &t.nodes[i]
		node.Start -= shift
		if node.Open {
			node.Stop = end - shift
			node.Open = false
		} else {
			node.Stop -= shift
		}
	}
	t.nodes[RootID].Start = 0
	t.nodes[RootID].Stop = end - shift
}
