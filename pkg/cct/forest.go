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

	"github.com/hashicorp/go-multierror"

	"github.com/rancher-sandbox/tracecct/pkg/model"
)

// Forest holds the trees of every task of a trace.
type Forest struct {
	Sync   map[model.SyncTaskID]*Tree
	Async  map[model.AsyncTaskID]*Tree
	Object map[model.ObjectTaskID]*Tree
}

func NewForest() *Forest {
	return &Forest{
		Sync:   make(map[model.SyncTaskID]*Tree),
		Async:  make(map[model.AsyncTaskID]*Tree),
		Object: make(map[model.ObjectTaskID]*Tree),
	}
}

// Len returns the number of trees.
func (f *Forest) Len() int {
	return len(f.Sync) + len(f.Async) + len(f.Object)
}

// Task is a tree together with the task it was built for.
type Task struct {
	Kind model.TaskKind
	Key  fmt.Stringer
	Tree *Tree
}

func (t Task) String() string {
	return fmt.Sprintf("%s task %s", t.Kind, t.Key)
}

// Tasks lists the trees in a stable order: sync tasks first, then async, then
// object tasks, each sorted by key.
func (f *Forest) Tasks() []Task {
	result := make([]Task, 0, f.Len())
	for _, key := range model.SortedSyncTaskIDs(f.Sync) {
		result = append(result, Task{Kind: model.TaskSync, Key: key, Tree: f.Sync[key]})
	}
	for _, key := range model.SortedAsyncTaskIDs(f.Async) {
		result = append(result, Task{Kind: model.TaskAsync, Key: key, Tree: f.Async[key]})
	}
	for _, key := range model.SortedObjectTaskIDs(f.Object) {
		result = append(result, Task{Kind: model.TaskObject, Key: key, Tree: f.Object[key]})
	}
	return result
}

// Normalize normalizes every tree independently.
func (f *Forest) Normalize() {
	for _, task := range f.Tasks() {
		task.Tree.Normalize()
	}
}

// Validate validates every tree, and returns all violations labelled by task.
func (f *Forest) Validate() error {
	var result *multierror.Error
	for _, task := range f.Tasks() {
		if err := task.Tree.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", task, err))
		}
	}
	return result.ErrorOrNil()
}

// Nodes returns the total number of nodes, excluding the roots.
func (f *Forest) Nodes() int {
	count := 0
	for _, task := range f.Tasks() {
		count += task.Tree.Len() - 1
	}
	return count
}

// Orphans returns the number of orphan end events across all trees.
func (f *Forest) Orphans() int {
	count := 0
	for _, task := range f.Tasks() {
		count += task.Tree.Orphans
	}
	return count
}

// Ignored returns the number of events that did not contribute to any tree.
func (f *Forest) Ignored() int {
	count := 0
	for _, task := range f.Tasks() {
		count += task.Tree.Ignored
	}
	return count
}
