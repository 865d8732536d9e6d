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

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// Violation reports a pair of nodes where the time intervals say one should
// contain the other, but the tree does not.
type Violation struct {
	Ancestor   Node
	Descendant Node
}

func (v *Violation) Error() string {
	return fmt.Sprintf("node #%d %q %s covers node #%d %q %s but is not its ancestor",
		v.Ancestor.ID, v.Ancestor.Event.Name, formatInterval(v.Ancestor),
		v.Descendant.ID, v.Descendant.Event.Name, formatInterval(v.Descendant))
}

// Covers reports whether the interval of a contains the interval of b, such
// that a must be an ancestor of b.  A zero-width node at the very start of a
// is not covered by it, since it may equally be a sibling.
func Covers(a, b Node) bool {
	if b.ZeroWidth() && a.Start == b.Start {
		return false
	}
	if a.Start > b.Start {
		return false
	}
	if a.Open {
		return true
	}
	if b.Open {
		return b.Start < a.Stop
	}
	return a.Stop >= b.Stop && b.Start < a.Stop
}

// Validate checks that every node whose interval covers another node is also
// its ancestor.  Nodes with identical intervals may nest either way.  The
// returned error is a *multierror.Error of *Violation, or nil.
func (t *Tree) Validate() error {
	enter, exit := t.tour()
	isAncestor := func(a, b int) bool {
		return enter[a] <= enter[b] && exit[b] <= exit[a]
	}

	byStart := make([]int, len(t.nodes))
	for i := range byStart {
		byStart[i] = i
	}
	slices.SortStableFunc(byStart, func(a, b int) int {
		return cmp.Compare(t.nodes[a].Start, t.nodes[b].Start)
	})

	var result *multierror.Error
	for _, a := range t.nodes {
		// Only nodes starting inside a can be covered by it.
		first := sort.Search(len(byStart), func(i int) bool {
			return t.nodes[byStart[i]].Start >= a.Start
		})
		for _, index := range byStart[first:] {
			b := t.nodes[index]
			if !a.Open && b.Start >= a.Stop {
				break
			}
			if a.ID == b.ID || !Covers(a, b) || isAncestor(a.ID, b.ID) {
				continue
			}
			if Covers(b, a) && isAncestor(b.ID, a.ID) {
				continue
			}
			result = multierror.Append(result, &Violation{Ancestor: a, Descendant: b})
		}
	}
	return result.ErrorOrNil()
}

// tour numbers the nodes in depth first order, so that a is an ancestor of b
// exactly when b's numbers fall within a's.
func (t *Tree) tour() (enter, exit []int) {
	children := t.childLists()
	enter = make([]int, len(t.nodes))
	exit = make([]int, len(t.nodes))
	counter := 0
	type frame struct {
		id   int
		next int
	}
	stack := []frame{{id: RootID}}
	enter[RootID] = counter
	counter++
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(children[top.id]) {
			child := children[top.id][top.next]
			top.next++
			enter[child] = counter
			counter++
			stack = append(stack, frame{id: child})
			continue
		}
		exit[top.id] = counter
		counter++
		stack = stack[:len(stack)-1]
	}
	return enter, exit
}
