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

package tasks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/model"
	"github.com/rancher-sandbox/tracecct/pkg/tasks"
)

func names(events []model.Event) []string {
	result := make([]string, 0, len(events))
	for _, event := range events {
		result = append(result, event.Name)
	}
	return result
}

func TestAdd(t *testing.T) {
	t.Parallel()
	recorder := &logging.Recorder{}
	events := []model.Event{
		{Name: "b", Phase: model.PhaseSyncBegin, PID: 1, TID: 2, Timestamp: 1},
		{Name: "x", Phase: model.PhaseComplete, PID: 1, TID: 2, Timestamp: 2},
		{Name: "i", Phase: model.PhaseSyncInstant, PID: 1, TID: 3, Timestamp: 3},
		{Name: "ab", Phase: model.PhaseAsyncBegin, Scope: "s", ID: 5, Category: "net", Timestamp: 1},
		{Name: "an", Phase: model.PhaseAsyncInstant, Scope: "s", ID: 5, Category: "disk", Timestamp: 2},
		{Name: "on", Phase: model.PhaseObjectCreate, Scope: "s", ID: 5, Timestamp: 1},
		{Name: "os", Phase: model.PhaseObjectSnapshot, Scope: "s", ID: 5, Category: "ignored", Timestamp: 2},
		{Name: "counter", Phase: model.PhaseCounter, PID: 1, TID: 2, Timestamp: 4},
		{Name: "flow", Phase: model.PhaseFlowStart, PID: 1, TID: 2, Timestamp: 4},
		{Name: "mark", Phase: model.PhaseMark, PID: 1, TID: 2, Timestamp: 4},
		{Name: "context", Phase: model.PhaseContextEnter, PID: 1, TID: 2, Timestamp: 5},
		{Name: "thread_name", Phase: model.PhaseMetadata, PID: 1, TID: 2},
	}
	trace := tasks.Aggregate(events, recorder)

	assert.Equal(t, tasks.Counts{Sync: 2, Async: 2, Object: 1}, trace.Tasks())
	assert.Equal(t, []string{"b", "x"}, names(trace.Sync[model.SyncTaskID{PID: 1, TID: 2}]))
	assert.Equal(t, []string{"i"}, names(trace.Sync[model.SyncTaskID{PID: 1, TID: 3}]))
	assert.Equal(t, []string{"ab"}, names(trace.Async[model.AsyncTaskID{Scope: "s", ID: 5, Category: "net"}]))
	assert.Equal(t, []string{"an"}, names(trace.Async[model.AsyncTaskID{Scope: "s", ID: 5, Category: "disk"}]))
	assert.Equal(t, []string{"on", "os"}, names(trace.Object[model.ObjectTaskID{Scope: "s", ID: 5}]))
	assert.Equal(t, []string{"thread_name"}, names(trace.Metadata))
	assert.Equal(t, 7, trace.Len())

	assert.Equal(t, map[model.Phase]int{
		model.PhaseCounter:      1,
		model.PhaseFlowStart:    1,
		model.PhaseMark:         1,
		model.PhaseContextEnter: 1,
	}, trace.Skipped)
	assert.Equal(t, 4, trace.SkippedTotal())
	assert.Equal(t, 1, trace.Unsupported())
	assert.Equal(t, 1, recorder.Count(logging.LevelWarn), "context events are rejected loudly")
	assert.Equal(t, 3, recorder.Count(logging.LevelDebug))
}

func TestMerge(t *testing.T) {
	t.Parallel()
	key := model.SyncTaskID{PID: 1, TID: 1}
	first := tasks.Aggregate([]model.Event{
		{Name: "a", Phase: model.PhaseSyncBegin, PID: 1, TID: 1, Timestamp: 5},
		{Name: "c", Phase: model.PhaseCounter, Timestamp: 5},
	}, logging.Discard)
	second := tasks.Aggregate([]model.Event{
		{Name: "b", Phase: model.PhaseSyncEnd, PID: 1, TID: 1, Timestamp: 1},
		{Name: "o", Phase: model.PhaseObjectCreate, ID: 1, Timestamp: 1},
		{Name: "n", Phase: model.PhaseAsyncInstant, ID: 1, Timestamp: 1},
		{Name: "process_name", Phase: model.PhaseMetadata, PID: 9},
		{Name: "c", Phase: model.PhaseCounter, Timestamp: 6},
	}, logging.Discard)

	first.Merge(second)
	assert.Equal(t, []string{"a", "b"}, names(first.Sync[key]))
	assert.Equal(t, tasks.Counts{Sync: 1, Async: 1, Object: 1}, first.Tasks())
	assert.Len(t, first.Metadata, 1)
	assert.Equal(t, 2, first.Skipped[model.PhaseCounter])

	first.Prepare()
	assert.Equal(t, []string{"b", "a"}, names(first.Sync[key]), "merged buckets are sorted")
}

func TestMergeIsAssociative(t *testing.T) {
	t.Parallel()
	parts := [][]model.Event{
		{{Name: "1", Phase: model.PhaseSyncBegin, Timestamp: 4}, {Name: "2", Phase: model.PhaseAsyncBegin, Timestamp: 3}},
		{{Name: "3", Phase: model.PhaseSyncEnd, Timestamp: 9}, {Name: "4", Phase: model.PhaseSyncInstant, Timestamp: 1}},
		{{Name: "5", Phase: model.PhaseAsyncEnd, Timestamp: 7}, {Name: "6", Phase: model.PhaseSyncInstant, Timestamp: 6}},
	}
	aggregate := func(i int) *tasks.Trace {
		return tasks.Aggregate(parts[i], logging.Discard)
	}

	left := aggregate(0)
	left.Merge(aggregate(1))
	left.Merge(aggregate(2))
	left.Prepare()

	tail := aggregate(1)
	tail.Merge(aggregate(2))
	right := aggregate(0)
	right.Merge(tail)
	right.Prepare()

	var all []model.Event
	for _, part := range parts {
		all = append(all, part...)
	}
	whole := tasks.Aggregate(all, logging.Discard)
	whole.Prepare()

	assert.Equal(t, whole.Sync, left.Sync)
	assert.Equal(t, whole.Sync, right.Sync)
	assert.Equal(t, whole.Async, left.Async)
	assert.Equal(t, whole.Async, right.Async)
	assert.Equal(t, []string{"4", "1", "6", "3"}, names(whole.Sync[model.SyncTaskID{}]))
}

func TestPrepareMetadata(t *testing.T) {
	t.Parallel()
	trace := tasks.Aggregate([]model.Event{
		{Name: "work", Phase: model.PhaseSyncBegin, PID: 1, TID: 1, Timestamp: 10},
		{Name: "other", Phase: model.PhaseSyncInstant, PID: 1, TID: 2, Timestamp: 5},
		{Name: "elsewhere", Phase: model.PhaseSyncInstant, PID: 2, TID: 1, Timestamp: 5},
		{Name: "thread_name", Phase: model.PhaseMetadata, PID: 1, TID: 1, Timestamp: 100, Args: map[string]any{"name": "main"}},
		{Name: "process_name", Phase: model.PhaseMetadata, PID: 1, TID: 0, Args: map[string]any{"name": "browser"}},
		{Name: "thread_name", Phase: model.PhaseMetadata, PID: 3, TID: 7, Args: map[string]any{"name": "idle"}},
		{Name: "async", Phase: model.PhaseAsyncBegin, PID: 1, TID: 1, Timestamp: 1},
	}, logging.Discard)
	trace.Prepare()

	assert.Empty(t, trace.Metadata)
	assert.Equal(t, []string{"thread_name", "process_name", "work"}, names(trace.Sync[model.SyncTaskID{PID: 1, TID: 1}]))
	assert.Equal(t, []string{"process_name", "other"}, names(trace.Sync[model.SyncTaskID{PID: 1, TID: 2}]))
	assert.Equal(t, []string{"process_name"}, names(trace.Sync[model.SyncTaskID{PID: 1, TID: 0}]))
	assert.Equal(t, []string{"elsewhere"}, names(trace.Sync[model.SyncTaskID{PID: 2, TID: 1}]))
	assert.Equal(t, []string{"thread_name"}, names(trace.Sync[model.SyncTaskID{PID: 3, TID: 7}]))
	for _, events := range trace.Async {
		for _, event := range events {
			assert.NotEqual(t, model.PhaseMetadata, event.Phase)
		}
	}

	// Preparing again must not deliver anything twice.
	trace.Prepare()
	require.Len(t, trace.Sync[model.SyncTaskID{PID: 1, TID: 2}], 2)
}
