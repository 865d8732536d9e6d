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

// Package cct builds calling context trees: trees whose ancestor relation
// mirrors the temporal nesting of the events of a single task.
package cct

import (
	"math"
	"slices"

	"github.com/rancher-sandbox/tracecct/pkg/model"
)

const (
	// RootID is the id of the synthetic root node of every tree.
	RootID = 0
	// NoParent is the parent of the root node.
	NoParent = -1
)

// Node is one interval of a tree.  Nodes are stored in creation order, and a
// node's parent always has a smaller id.
type Node struct {
	ID     int
	Parent int
	Start  int64
	// Stop is only meaningful when Open is false.
	Stop int64
	// Open is set while the end of the interval is not known.
	Open  bool
	Event model.Event
}

// IsRoot reports whether this is the synthetic root node.
func (n Node) IsRoot() bool {
	return n.Parent == NoParent
}

// ZeroWidth reports whether the node is a closed, empty interval.
func (n Node) ZeroWidth() bool {
	return !n.Open && n.Start == n.Stop
}

// Meta holds the names given to a task by metadata events.
type Meta struct {
	ProcessName *string
	ThreadName  *string
}

// Tree is a calling context tree for one task.
type Tree struct {
	nodes []Node
	Meta  Meta
	// Orphans counts end events that had no open node to close.
	Orphans int
	// Ignored counts events whose phase does not contribute to the tree.
	Ignored int
}

// NewTree returns a tree that holds only the root, which spans all of time.
func NewTree() *Tree {
	return &Tree{
		nodes: []Node{{
			ID:     RootID,
			Parent: NoParent,
			Start:  math.MinInt64,
			Stop:   math.MaxInt64,
		}},
	}
}

func (t *Tree) add(node Node) int {
	node.ID = len(t.nodes)
	t.nodes = append(t.nodes, node)
	return node.ID
}

// Len returns the number of nodes, including the root.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given id.
func (t *Tree) Node(id int) Node {
	return t.nodes[id]
}

// Root returns the root node.
func (t *Tree) Root() Node {
	return t.nodes[RootID]
}

// Nodes returns a copy of all nodes, in id order.
func (t *Tree) Nodes() []Node {
	return slices.Clone(t.nodes)
}

// Children returns the ids of the direct children of a node, in id order.
func (t *Tree) Children(id int) []int {
	var result []int
	for _, node := range t.nodes[id+1:] {
		if node.Parent == id {
			result = append(result, node.ID)
		}
	}
	return result
}

// IsAncestor reports whether walking up from descendant reaches ancestor; a
// node is its own ancestor.
func (t *Tree) IsAncestor(ancestor, descendant int) bool {
	for id := descendant; id != NoParent; id = t.nodes[id].Parent {
		if id == ancestor {
			return true
		}
		if id < ancestor {
			return false
		}
	}
	return false
}

// Depth returns the number of edges between the node and the root.
func (t *Tree) Depth(id int) int {
	depth := 0
	for t.nodes[id].Parent != NoParent {
		id = t.nodes[id].Parent
		depth++
	}
	return depth
}

// childLists returns the children of every node, indexed by parent id.
func (t *Tree) childLists() [][]int {
	children := make([][]int, len(t.nodes))
	for _, node := range t.nodes[1:] {
		children[node.Parent] = append(children[node.Parent], node.ID)
	}
	return children
}
