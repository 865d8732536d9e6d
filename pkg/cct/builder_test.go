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

package cct_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/tracecct/pkg/cct"
	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/model"
)

func sync(phase model.Phase, ts int64, name string) model.Event {
	return model.Event{Name: name, Phase: phase, Timestamp: ts, PID: 1, TID: 1}
}

func complete(ts, dur int64, name string) model.Event {
	event := sync(model.PhaseComplete, ts, name)
	event.Duration = &dur
	return event
}

// shape is a node reduced to the fields that tests care about.
type shape struct {
	ID     int
	Parent int
	Name   string
	Start  int64
	Stop   int64
	Open   bool
}

func shapes(tree *cct.Tree) []shape {
	var result []shape
	for _, node := range tree.Nodes()[1:] {
		result = append(result, shape{
			ID:     node.ID,
			Parent: node.Parent,
			Name:   node.Event.Name,
			Start:  node.Start,
			Stop:   node.Stop,
			Open:   node.Open,
		})
	}
	return result
}

func build(t *testing.T, events ...model.Event) (*cct.Tree, *logging.Recorder) {
	t.Helper()
	recorder := &logging.Recorder{}
	tree := cct.Build(events, cct.WithLogger(recorder))
	require.NoError(t, tree.Validate())
	return tree, recorder
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()
	tree, _ := build(t)
	require.Equal(t, 1, tree.Len())
	root := tree.Root()
	assert.True(t, root.IsRoot())
	assert.Equal(t, int64(math.MinInt64), root.Start)
	assert.Equal(t, int64(math.MaxInt64), root.Stop)
	assert.False(t, root.Open)
}

func TestBuildNested(t *testing.T) {
	t.Parallel()
	tree, recorder := build(t,
		sync(model.PhaseSyncBegin, 0, "f"),
		sync(model.PhaseSyncBegin, 1, "g"),
		sync(model.PhaseSyncEnd, 2, ""),
		sync(model.PhaseSyncEnd, 3, ""),
	)
	expected := []shape{
		{ID: 1, Parent: cct.RootID, Name: "f", Start: 0, Stop: 3},
		{ID: 2, Parent: 1, Name: "g", Start: 1, Stop: 2},
	}
	if diff := cmp.Diff(expected, shapes(tree)); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{1}, tree.Children(cct.RootID))
	assert.Equal(t, []int{2}, tree.Children(1))
	assert.True(t, tree.IsAncestor(1, 2))
	assert.False(t, tree.IsAncestor(2, 1))
	assert.Equal(t, 2, tree.Depth(2))
	assert.Empty(t, recorder.Entries())
}

func TestBuildCompleteNesting(t *testing.T) {
	t.Parallel()
	tree, _ := build(t,
		complete(10, 5, "outer"),
		sync(model.PhaseSyncInstant, 12, "inside"),
		sync(model.PhaseSyncInstant, 15, "after"),
	)
	expected := []shape{
		{ID: 1, Parent: cct.RootID, Name: "outer", Start: 10, Stop: 15},
		{ID: 2, Parent: 1, Name: "inside", Start: 12, Stop: 12},
		{ID: 3, Parent: cct.RootID, Name: "after", Start: 15, Stop: 15},
	}
	if diff := cmp.Diff(expected, shapes(tree)); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestBuildCompleteWithoutDuration(t *testing.T) {
	t.Parallel()
	tree, _ := build(t,
		sync(model.PhaseComplete, 4, "empty"),
		sync(model.PhaseSyncInstant, 4, "same time"),
	)
	expected := []shape{
		{ID: 1, Parent: cct.RootID, Name: "empty", Start: 4, Stop: 4},
		{ID: 2, Parent: cct.RootID, Name: "same time", Start: 4, Stop: 4},
	}
	if diff := cmp.Diff(expected, shapes(tree)); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestBuildCloseSkipsCompletedNodes(t *testing.T) {
	t.Parallel()
	tree, _ := build(t,
		sync(model.PhaseSyncBegin, 0, "range"),
		complete(1, 2, "work"),
		sync(model.PhaseSyncEnd, 5, ""),
		sync(model.PhaseSyncInstant, 6, "later"),
	)
	expected := []shape{
		{ID: 1, Parent: cct.RootID, Name: "range", Start: 0, Stop: 5},
		{ID: 2, Parent: 1, Name: "work", Start: 1, Stop: 3},
		{ID: 3, Parent: cct.RootID, Name: "later", Start: 6, Stop: 6},
	}
	if diff := cmp.Diff(expected, shapes(tree)); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestBuildMergesEndEvent(t *testing.T) {
	t.Parallel()
	begin := sync(model.PhaseSyncBegin, 0, "A")
	end := sync(model.PhaseSyncEnd, 1, "")
	end.ID = 5
	end.Args = map[string]any{"result": "ok"}
	tree, _ := build(t, begin, end)
	require.Equal(t, 2, tree.Len())
	event := tree.Node(1).Event
	assert.Equal(t, "A", event.Name)
	assert.EqualValues(t, 5, event.ID)
	assert.Equal(t, model.PhaseSyncBegin, event.Phase)
	assert.Equal(t, map[string]any{"result": "ok"}, event.Args)
}

func TestBuildOrphan(t *testing.T) {
	t.Parallel()
	t.Run("empty stack", func(t *testing.T) {
		t.Parallel()
		tree, recorder := build(t, sync(model.PhaseSyncEnd, 1, "lost"))
		assert.Equal(t, 1, tree.Len())
		assert.Equal(t, 1, tree.Orphans)
		assert.Equal(t, 1, recorder.Count(logging.LevelWarn))
	})
	t.Run("only closed nodes", func(t *testing.T) {
		t.Parallel()
		events := []model.Event{
			complete(0, 10, "outer"),
			sync(model.PhaseSyncEnd, 2, "lost"),
			sync(model.PhaseSyncInstant, 3, "inside"),
		}
		before := cct.Build(events[:1], cct.WithLogger(logging.Discard))
		tree, recorder := build(t, events...)
		assert.Equal(t, 1, tree.Orphans)
		assert.Equal(t, 1, recorder.Count(logging.LevelWarn))
		// The orphan must not disturb the stack: the instant still nests.
		assert.Equal(t, before.Node(1), tree.Node(1))
		assert.Equal(t, 1, tree.Node(2).Parent)
	})
	t.Run("extra end", func(t *testing.T) {
		t.Parallel()
		tree, _ := build(t,
			sync(model.PhaseSyncBegin, 0, "a"),
			sync(model.PhaseSyncEnd, 1, ""),
			sync(model.PhaseSyncEnd, 2, ""),
		)
		assert.Equal(t, 2, tree.Len())
		assert.Equal(t, 1, tree.Orphans)
		assert.EqualValues(t, 1, tree.Node(1).Stop)
	})
}

func TestBuildOpenNodes(t *testing.T) {
	t.Parallel()
	tree, _ := build(t,
		sync(model.PhaseSyncBegin, 0, "never closed"),
		sync(model.PhaseSyncBegin, 1, "closed"),
		sync(model.PhaseSyncEnd, 2, ""),
		sync(model.PhaseSyncInstant, 3, "child"),
	)
	expected := []shape{
		{ID: 1, Parent: cct.RootID, Name: "never closed", Start: 0, Open: true},
		{ID: 2, Parent: 1, Name: "closed", Start: 1, Stop: 2},
		{ID: 3, Parent: 1, Name: "child", Start: 3, Stop: 3},
	}
	if diff := cmp.Diff(expected, shapes(tree)); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestBuildPointPhases(t *testing.T) {
	t.Parallel()
	phases := []model.Phase{
		model.PhaseSyncInstant, model.PhaseAsyncInstant, model.PhaseObjectSnapshot,
		model.PhaseMemoryDumpProcess, model.PhaseMemoryDumpGlobal, model.PhaseMark,
	}
	for _, phase := range phases {
		t.Run(phase.String(), func(t *testing.T) {
			t.Parallel()
			tree, _ := build(t,
				model.Event{Name: "open", Phase: model.PhaseObjectCreate, Timestamp: 0},
				model.Event{Name: "point", Phase: phase, Timestamp: 1},
				model.Event{Name: "sibling", Phase: phase, Timestamp: 1},
			)
			require.Equal(t, 4, tree.Len())
			assert.Equal(t, 1, tree.Node(2).Parent)
			assert.Equal(t, 1, tree.Node(3).Parent, "points are never parents")
			assert.True(t, tree.Node(2).ZeroWidth())
		})
	}
}

func TestBuildMetadata(t *testing.T) {
	t.Parallel()
	tree, _ := build(t,
		model.Event{Name: "process_name", Phase: model.PhaseMetadata, Args: map[string]any{"name": "browser"}},
		model.Event{Name: "thread_name", Phase: model.PhaseMetadata, Args: map[string]any{"name": 42.0}},
		model.Event{Name: "thread_sort_index", Phase: model.PhaseMetadata, Args: map[string]any{"sort_index": 1.0}},
	)
	assert.Equal(t, 1, tree.Len())
	require.NotNil(t, tree.Meta.ProcessName)
	assert.Equal(t, "browser", *tree.Meta.ProcessName)
	require.NotNil(t, tree.Meta.ThreadName)
	assert.Equal(t, "", *tree.Meta.ThreadName)
}

func TestBuildIgnored(t *testing.T) {
	t.Parallel()
	tree, recorder := build(t,
		sync(model.PhaseCounter, 0, "memory"),
		sync(model.PhaseFlowStart, 1, "flow"),
		sync(model.PhaseSample, 2, "sample"),
	)
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, 3, tree.Ignored)
	assert.Equal(t, 3, recorder.Count(logging.LevelDebug))
}

func TestBuildUnsupported(t *testing.T) {
	t.Parallel()
	for _, phase := range []model.Phase{model.PhaseContextEnter, model.PhaseContextLeave} {
		assert.Panics(t, func() {
			cct.Build([]model.Event{sync(phase, 0, "context")}, cct.WithLogger(logging.Discard))
		}, "phase %s", phase)
	}
}

func TestBuildSortsInput(t *testing.T) {
	t.Parallel()
	recorder := &logging.Recorder{}
	events := []model.Event{
		sync(model.PhaseSyncEnd, 3, ""),
		sync(model.PhaseSyncBegin, 0, "f"),
		sync(model.PhaseSyncEnd, 2, ""),
		sync(model.PhaseSyncBegin, 1, "g"),
	}
	tree := cct.Build(events, cct.WithLogger(recorder))
	expected := []shape{
		{ID: 1, Parent: cct.RootID, Name: "f", Start: 0, Stop: 3},
		{ID: 2, Parent: 1, Name: "g", Start: 1, Stop: 2},
	}
	if diff := cmp.Diff(expected, shapes(tree)); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}
	assert.Equal(t, model.PhaseSyncEnd, events[0].Phase, "input must not be reordered")
	assert.Equal(t, 1, recorder.Count(logging.LevelDebug))
}
