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
	"fmt"
	"slices"

	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/model"
)

const (
	metadataProcessName = "process_name"
	metadataThreadName  = "thread_name"
)

// BuildOption customizes Build.
type BuildOption func(*builder)

// WithLogger sends the diagnostics of the build to logger.
func WithLogger(logger logging.Logger) BuildOption {
	return func(b *builder) {
		b.logger = logging.OrDefault(logger)
	}
}

type builder struct {
	tree *Tree
	// stack holds the ids of the nodes that may still receive children,
	// innermost last.  The root is always at the bottom.
	stack  []int
	logger logging.Logger
}

// Build constructs the tree for the events of a single task.  The events are
// expected to be in chronological order; if they are not, a sorted copy is
// used instead.
//
// Build panics if given an event whose phase has no tree semantics (context
// enter and leave).
func Build(events []model.Event, opts ...BuildOption) *Tree {
	b := &builder{
		tree:   NewTree(),
		stack:  []int{RootID},
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if !slices.IsSortedFunc(events, model.Compare) {
		b.logger.Debugf("sorting %d events that are not in chronological order", len(events))
		events = slices.Clone(events)
		slices.SortStableFunc(events, model.Compare)
	}
	for _, event := range events {
		b.add(event)
	}
	return b.tree
}

func (b *builder) add(event model.Event) {
	switch event.Phase.Group() {
	case model.GroupRangeOpen:
		parent := b.popUntilValidParent(event.Timestamp)
		b.push(b.tree.add(Node{Parent: parent, Start: event.Timestamp, Open: true, Event: event}))
	case model.GroupRangeClose:
		b.close(event)
	case model.GroupPoint:
		// Nothing can nest inside a zero-width interval, so this is never pushed.
		parent := b.popUntilValidParent(event.Timestamp)
		b.tree.add(Node{Parent: parent, Start: event.Timestamp, Stop: event.Timestamp, Event: event})
	case model.GroupComplete:
		parent := b.popUntilValidParent(event.Timestamp)
		b.push(b.tree.add(Node{Parent: parent, Start: event.Timestamp, Stop: event.End(), Event: event}))
	case model.GroupMetadata:
		b.metadata(event)
	case model.GroupIgnored:
		b.tree.Ignored++
		b.logger.Debugf("ignoring %s event %q at %d", event.Phase, event.Name, event.Timestamp)
	default:
		panic(fmt.Sprintf("cannot build a tree from phase %s: not supported (%s)", event.Phase, event))
	}
}

func (b *builder) push(id int) {
	b.stack = append(b.stack, id)
}

// popUntilValidParent discards the closed intervals on top of the stack that
// end no later than ts, and returns the node that should be the parent of an
// event at ts.
func (b *builder) popUntilValidParent(ts int64) int {
	for len(b.stack) > 1 {
		top := b.tree.nodes[b.stack[len(b.stack)-1]]
		if top.Open || top.Stop > ts {
			break
		}
		b.stack = b.stack[:len(b.stack)-1]
	}
	return b.stack[len(b.stack)-1]
}

// close ends the innermost open node.  Closed nodes above it on the stack are
// discarded along with it.  If there is no open node, the stack is left
// untouched.
func (b *builder) close(event model.Event) {
	for i := len(b.stack) - 1; i > 0; i-- {
		node := &b.tree.nodes[b.stack[i]]
		if !node.Open {
			continue
		}
		node.Stop = event.Timestamp
		node.Open = false
		node.Event.Merge(event)
		b.stack = b.stack[:i]
		return
	}
	b.tree.Orphans++
	b.logger.Warnf("dropping orphan %s event %q at %d: no open node to close", event.Phase, event.Name, event.Timestamp)
}

func (b *builder) metadata(event model.Event) {
	name := event.MetadataName()
	switch event.Name {
	case metadataProcessName:
		b.tree.Meta.ProcessName = &name
	case metadataThreadName:
		b.tree.Meta.ThreadName = &name
	default:
		b.logger.Debugf("ignoring metadata %q", event.Name)
	}
}
