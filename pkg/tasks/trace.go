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

// Package tasks groups the events of a trace by the task they belong to.
package tasks

import (
	"slices"

	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/model"
)

const (
	metadataProcessName = "process_name"
)

// Trace holds the events of a trace bucketed by task.  A Trace is not safe for
// concurrent use; workers each fill their own and combine them with Merge.
type Trace struct {
	Sync   map[model.SyncTaskID][]model.Event
	Async  map[model.AsyncTaskID][]model.Event
	Object map[model.ObjectTaskID][]model.Event
	// Metadata holds metadata events until Prepare delivers them.
	Metadata []model.Event
	// Skipped counts the events that were not bucketed, per phase.
	Skipped map[model.Phase]int

	logger logging.Logger
}

// New returns an empty Trace.  A nil logger means logging.Default().
func New(logger logging.Logger) *Trace {
	return &Trace{
		Sync:    make(map[model.SyncTaskID][]model.Event),
		Async:   make(map[model.AsyncTaskID][]model.Event),
		Object:  make(map[model.ObjectTaskID][]model.Event),
		Skipped: make(map[model.Phase]int),
		logger:  logging.OrDefault(logger),
	}
}

// Aggregate buckets the given events into a new Trace.
func Aggregate(events []model.Event, logger logging.Logger) *Trace {
	trace := New(logger)
	for _, event := range events {
		trace.Add(event)
	}
	return trace
}

// Add places the event in the bucket of its task.  Events whose phase does not
// contribute to any tree are counted and dropped; context events are rejected
// because they have no defined tree semantics.
func (t *Trace) Add(event model.Event) {
	if kind, ok := event.Phase.TaskKind(); ok {
		switch kind {
		case model.TaskSync:
			key := model.SyncTaskOf(event)
			t.Sync[key] = append(t.Sync[key], event)
		case model.TaskAsync:
			key := model.AsyncTaskOf(event)
			t.Async[key] = append(t.Async[key], event)
		case model.TaskObject:
			key := model.ObjectTaskOf(event)
			t.Object[key] = append(t.Object[key], event)
		}
		return
	}

	switch event.Phase.Group() {
	case model.GroupMetadata:
		t.Metadata = append(t.Metadata, event)
		return
	case model.GroupUnsupported:
		t.logger.Warnf("rejecting %s event %q at %d: context events are not supported", event.Phase, event.Name, event.Timestamp)
	default:
		t.logger.Debugf("skipping %s event %q at %d", event.Phase, event.Name, event.Timestamp)
	}
	t.Skipped[event.Phase]++
}

// Merge appends the contents of other to this trace.  For each task, the
// events of other follow the events already present.  Prepare sorts every
// bucket, so the merge order only matters for events sharing a timestamp;
// merging partial traces in input order keeps those in input order too.
func (t *Trace) Merge(other *Trace) {
	for key, events := range other.Sync {
		t.Sync[key] = append(t.Sync[key], events...)
	}
	for key, events := range other.Async {
		t.Async[key] = append(t.Async[key], events...)
	}
	for key, events := range other.Object {
		t.Object[key] = append(t.Object[key], events...)
	}
	t.Metadata = append(t.Metadata, other.Metadata...)
	for phase, count := range other.Skipped {
		t.Skipped[phase] += count
	}
}

// Prepare makes the trace ready for building trees: metadata is delivered to
// the thread buckets it names, and every bucket is sorted chronologically.
// Preparing again after adding more events is allowed.
//
// A thread name (and any other metadata) goes to the bucket of its own
// thread, which is created if needed.  A process name goes to every thread of
// the process.  Metadata is placed ahead of the events of the bucket so that
// the names are known before any node is created.
func (t *Trace) Prepare() {
	if len(t.Metadata) > 0 {
		delivered := make(map[model.SyncTaskID][]model.Event)
		for _, event := range t.Metadata {
			key := model.SyncTaskOf(event)
			delivered[key] = append(delivered[key], event)
			if _, ok := t.Sync[key]; !ok {
				t.Sync[key] = nil
			}
		}
		for _, event := range t.Metadata {
			if event.Name != metadataProcessName {
				continue
			}
			own := model.SyncTaskOf(event)
			for key := range t.Sync {
				if key.PID == event.PID && key != own {
					delivered[key] = append(delivered[key], event)
				}
			}
		}
		for key, metadata := range delivered {
			t.Sync[key] = append(metadata, t.Sync[key]...)
		}
		t.logger.Debugf("delivered %d metadata events", len(t.Metadata))
		t.Metadata = nil
	}

	for _, events := range t.Sync {
		sortBucket(events)
	}
	for _, events := range t.Async {
		sortBucket(events)
	}
	for _, events := range t.Object {
		sortBucket(events)
	}
}

// sortBucket sorts chronologically; metadata events carry no meaningful time
// and always stay at the front.
func sortBucket(events []model.Event) {
	slices.SortStableFunc(events, func(a, b model.Event) int {
		aMeta, bMeta := a.Phase == model.PhaseMetadata, b.Phase == model.PhaseMetadata
		switch {
		case aMeta && bMeta:
			return 0
		case aMeta:
			return -1
		case bMeta:
			return 1
		}
		return model.Compare(a, b)
	})
}

// Counts is the number of tasks of each kind.
type Counts struct {
	Sync   int
	Async  int
	Object int
}

// Tasks returns the number of tasks of each kind.
func (t *Trace) Tasks() Counts {
	return Counts{Sync: len(t.Sync), Async: len(t.Async), Object: len(t.Object)}
}

// Len returns the number of bucketed events.
func (t *Trace) Len() int {
	count := 0
	for _, events := range t.Sync {
		count += len(events)
	}
	for _, events := range t.Async {
		count += len(events)
	}
	for _, events := range t.Object {
		count += len(events)
	}
	return count
}

// SkippedTotal returns how many events were not bucketed.
func (t *Trace) SkippedTotal() int {
	count := 0
	for _, n := range t.Skipped {
		count += n
	}
	return count
}

// Unsupported returns how many context events were rejected.
func (t *Trace) Unsupported() int {
	return t.Skipped[model.PhaseContextEnter] + t.Skipped[model.PhaseContextLeave]
}
