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

package model

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// SyncTaskID identifies a thread timeline.
type SyncTaskID struct {
	PID int64
	TID int64
}

// AsyncTaskID identifies a logical operation that may hop between threads.
type AsyncTaskID struct {
	Scope    string
	ID       uint64
	Category string
}

// ObjectTaskID identifies the lifetime of a tracked object.
type ObjectTaskID struct {
	Scope string
	ID    uint64
}

func SyncTaskOf(e Event) SyncTaskID {
	return SyncTaskID{PID: e.PID, TID: e.TID}
}

func AsyncTaskOf(e Event) AsyncTaskID {
	return AsyncTaskID{Scope: e.Scope, ID: e.ID, Category: e.Category}
}

func ObjectTaskOf(e Event) ObjectTaskID {
	return ObjectTaskID{Scope: e.Scope, ID: e.ID}
}

func (id SyncTaskID) String() string {
	return fmt.Sprintf("pid=%d tid=%d", id.PID, id.TID)
}

func (id AsyncTaskID) String() string {
	return fmt.Sprintf("scope=%q id=%#x cat=%q", id.Scope, id.ID, id.Category)
}

func (id ObjectTaskID) String() string {
	return fmt.Sprintf("scope=%q id=%#x", id.Scope, id.ID)
}

func compareSync(a, b SyncTaskID) int {
	return cmp.Or(cmp.Compare(a.PID, b.PID), cmp.Compare(a.TID, b.TID))
}

func compareAsync(a, b AsyncTaskID) int {
	return cmp.Or(cmp.Compare(a.Scope, b.Scope), cmp.Compare(a.ID, b.ID), cmp.Compare(a.Category, b.Category))
}

func compareObject(a, b ObjectTaskID) int {
	return cmp.Or(cmp.Compare(a.Scope, b.Scope), cmp.Compare(a.ID, b.ID))
}

// SortedSyncTaskIDs returns the keys of the map in a stable order.
func SortedSyncTaskIDs[V any](m map[SyncTaskID]V) []SyncTaskID {
	return slices.SortedFunc(maps.Keys(m), compareSync)
}

// SortedAsyncTaskIDs returns the keys of the map in a stable order.
func SortedAsyncTaskIDs[V any](m map[AsyncTaskID]V) []AsyncTaskID {
	return slices.SortedFunc(maps.Keys(m), compareAsync)
}

// SortedObjectTaskIDs returns the keys of the map in a stable order.
func SortedObjectTaskIDs[V any](m map[ObjectTaskID]V) []ObjectTaskID {
	return slices.SortedFunc(maps.Keys(m), compareObject)
}
