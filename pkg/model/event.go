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

// Package model describes the records of a Chrome trace, and how they are
// grouped into tasks.
package model

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	errMissingPhase     = errors.New(`missing "ph"`)
	errMissingTimestamp = errors.New(`missing "ts"`)
)

// Event describes something happening.  It is in Google's Trace Event Format,
// as described in https://docs.google.com/document/d/1CvAClvFfyA5R-PhYUmn5OOQtYMH4h6I0nSsKchNAySU/preview?tab=t.0#heading=h.uxpopqvbjezh
type Event struct {
	Name     string `json:"name,omitempty"`
	Category string `json:"cat,omitempty"`
	// ID is written either as a number, or as a hex string in the trace.
	ID        uint64 `json:"id,omitempty"`
	Scope     string `json:"scope,omitempty"`
	Phase     Phase  `json:"ph"`
	PID       int64  `json:"pid"`
	TID       int64  `json:"tid"`
	Timestamp int64  `json:"ts"`
	// Duration is only meaningful for complete events.
	Duration *int64 `json:"dur,omitempty"`
	// Args is nil when the record had no arguments.
	Args map[string]any `json:"args,omitempty"`
}

// wireEvent is the JSON shape of an event before validation.
type wireEvent struct {
	Name      string          `json:"name"`
	Category  string          `json:"cat"`
	ID        json.RawMessage `json:"id"`
	Scope     string          `json:"scope"`
	Phase     *Phase          `json:"ph"`
	PID       int64           `json:"pid"`
	TID       int64           `json:"tid"`
	Timestamp *int64          `json:"ts"`
	Duration  *int64          `json:"dur"`
	Args      map[string]any  `json:"args"`
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Phase == nil {
		return errMissingPhase
	}
	if wire.Timestamp == nil {
		return errMissingTimestamp
	}
	id, err := ParseID(wire.ID)
	if err != nil {
		return err
	}
	*e = Event{
		Name:      wire.Name,
		Category:  wire.Category,
		ID:        id,
		Scope:     wire.Scope,
		Phase:     *wire.Phase,
		PID:       wire.PID,
		TID:       wire.TID,
		Timestamp: *wire.Timestamp,
		Duration:  wire.Duration,
		Args:      wire.Args,
	}
	return nil
}

// ParseEvent decodes a single JSON record.
func ParseEvent(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("malformed event: %w", err)
	}
	return event, nil
}

// Compare orders events chronologically; it must be used with a stable sort
// so that events at the same time stay in input order.
func Compare(a, b Event) int {
	return cmp.Compare(a.Timestamp, b.Timestamp)
}

// End returns the time at which a complete event finishes; a missing duration
// counts as zero.
func (e Event) End() int64 {
	if e.Duration == nil {
		return e.Timestamp
	}
	return e.Timestamp + *e.Duration
}

// Merge copies the fields that are set on incoming over the receiver.  This is
// used when an end event completes a node: the end event usually omits the
// name and category, and those must not erase what the begin event recorded.
// The phase and times are never merged.
func (e *Event) Merge(incoming Event) {
	if incoming.Name != "" {
		e.Name = incoming.Name
	}
	if incoming.Category != "" {
		e.Category = incoming.Category
	}
	if incoming.ID != 0 {
		e.ID = incoming.ID
	}
	if incoming.Scope != "" {
		e.Scope = incoming.Scope
	}
	if incoming.PID != 0 {
		e.PID = incoming.PID
	}
	if incoming.TID != 0 {
		e.TID = incoming.TID
	}
	if incoming.Args != nil {
		e.Args = incoming.Args
	}
}

// MetadataName returns the "name" argument of a metadata event, or the empty
// string if there is none.
func (e Event) MetadataName() string {
	name, _ := e.Args["name"].(string)
	return name
}

func (e Event) String() string {
	return fmt.Sprintf("%s %q cat=%q ts=%d pid=%d tid=%d", e.Phase, e.Name, e.Category, e.Timestamp, e.PID, e.TID)
}
