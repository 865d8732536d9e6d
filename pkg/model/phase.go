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
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Phase is the role of an event, encoded in the trace as a single character.
type Phase uint8

const (
	PhaseUnknown Phase = iota
	PhaseSyncBegin
	PhaseSyncEnd
	PhaseSyncInstant
	PhaseAsyncBegin
	PhaseAsyncEnd
	PhaseAsyncInstant
	PhaseFlowStart
	PhaseFlowEnd
	PhaseFlowStep
	PhaseObjectCreate
	PhaseObjectDestroy
	PhaseObjectSnapshot
	PhaseMemoryDumpGlobal
	PhaseMemoryDumpProcess
	PhaseContextEnter
	PhaseContextLeave
	PhaseMetadata
	PhaseMark
	PhaseClock
	PhaseSample
	PhaseComplete
	PhaseCounter
)

var phaseCodes = map[Phase]string{
	PhaseSyncBegin:         "B",
	PhaseSyncEnd:           "E",
	PhaseSyncInstant:       "i",
	PhaseAsyncBegin:        "b",
	PhaseAsyncEnd:          "e",
	PhaseAsyncInstant:      "n",
	PhaseFlowStart:         "s",
	PhaseFlowEnd:           "f",
	PhaseFlowStep:          "t",
	PhaseObjectCreate:      "N",
	PhaseObjectDestroy:     "D",
	PhaseObjectSnapshot:    "O",
	PhaseMemoryDumpGlobal:  "V",
	PhaseMemoryDumpProcess: "v",
	PhaseContextEnter:      "(",
	PhaseContextLeave:      ")",
	PhaseMetadata:          "M",
	PhaseMark:              "R",
	PhaseClock:             "c",
	PhaseSample:            "P",
	PhaseComplete:          "X",
	PhaseCounter:           "C",
}

var phasesByCode = func() map[string]Phase {
	result := make(map[string]Phase, len(phaseCodes)+1)
	for phase, code := range phaseCodes {
		result[code] = phase
	}
	// Older producers emit upper case instant events.
	result["I"] = PhaseSyncInstant
	return result
}()

// ParsePhase converts a phase code from a trace into a Phase.
func ParsePhase(code string) (Phase, error) {
	if phase, ok := phasesByCode[code]; ok {
		return phase, nil
	}
	return PhaseUnknown, fmt.Errorf("unknown phase %q", code)
}

// Phases returns every known phase, in code table order.
func Phases() []Phase {
	result := make([]Phase, 0, len(phaseCodes))
	for phase := PhaseSyncBegin; phase <= PhaseCounter; phase++ {
		result = append(result, phase)
	}
	return result
}

func (p Phase) String() string {
	if code, ok := phaseCodes[p]; ok {
		return code
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	code, ok := phaseCodes[p]
	if !ok {
		return nil, fmt.Errorf("cannot marshal unknown phase %d", uint8(p))
	}
	return []byte(code), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	phase, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = phase
	return nil
}

// Group is the way the tree builder treats a phase.
type Group int

const (
	GroupUnknown Group = iota
	// GroupRangeOpen starts an interval that a later event closes.
	GroupRangeOpen
	// GroupRangeClose ends the innermost open interval.
	GroupRangeClose
	// GroupPoint is a zero-width event.
	GroupPoint
	// GroupComplete is an interval with an inline duration.
	GroupComplete
	GroupMetadata
	// GroupIgnored phases carry no interval for the tree.
	GroupIgnored
	// GroupUnsupported phases have no defined tree semantics.
	GroupUnsupported
)

var groupNames = map[Group]string{
	GroupUnknown:     "unknown",
	GroupRangeOpen:   "range-open",
	GroupRangeClose:  "range-close",
	GroupPoint:       "point",
	GroupComplete:    "complete",
	GroupMetadata:    "metadata",
	GroupIgnored:     "ignored",
	GroupUnsupported: "unsupported",
}

func (g Group) String() string {
	return groupNames[g]
}

var (
	rangeOpenPhases   = sets.New(PhaseSyncBegin, PhaseAsyncBegin, PhaseObjectCreate)
	rangeClosePhases  = sets.New(PhaseSyncEnd, PhaseAsyncEnd, PhaseObjectDestroy)
	pointPhases       = sets.New(PhaseSyncInstant, PhaseAsyncInstant, PhaseObjectSnapshot, PhaseMemoryDumpProcess, PhaseMemoryDumpGlobal, PhaseMark)
	ignoredPhases     = sets.New(PhaseCounter, PhaseSample, PhaseClock, PhaseFlowStart, PhaseFlowStep, PhaseFlowEnd)
	unsupportedPhases = sets.New(PhaseContextEnter, PhaseContextLeave)

	syncPhases   = sets.New(PhaseSyncBegin, PhaseSyncEnd, PhaseSyncInstant, PhaseComplete)
	asyncPhases  = sets.New(PhaseAsyncBegin, PhaseAsyncEnd, PhaseAsyncInstant)
	objectPhases = sets.New(PhaseObjectCreate, PhaseObjectDestroy, PhaseObjectSnapshot)
)

// Group returns the builder behaviour of the phase.
func (p Phase) Group() Group {
	switch {
	case rangeOpenPhases.Has(p):
		return GroupRangeOpen
	case rangeClosePhases.Has(p):
		return GroupRangeClose
	case pointPhases.Has(p):
		return GroupPoint
	case p == PhaseComplete:
		return GroupComplete
	case p == PhaseMetadata:
		return GroupMetadata
	case ignoredPhases.Has(p):
		return GroupIgnored
	case unsupportedPhases.Has(p):
		return GroupUnsupported
	}
	return GroupUnknown
}

// TaskKind is the family of task an event belongs to.
type TaskKind int

const (
	TaskSync TaskKind = iota
	TaskAsync
	TaskObject
)

func (k TaskKind) String() string {
	switch k {
	case TaskSync:
		return "sync"
	case TaskAsync:
		return "async"
	case TaskObject:
		return "object"
	}
	return fmt.Sprintf("TaskKind(%d)", int(k))
}

// TaskKind returns the kind of task the phase is bucketed under; the second
// return value is false for phases that are not bucketed at all.
func (p Phase) TaskKind() (TaskKind, bool) {
	switch {
	case syncPhases.Has(p):
		return TaskSync, true
	case asyncPhases.Has(p):
		return TaskAsync, true
	case objectPhases.Has(p):
		return TaskObject, true
	}
	return 0, false
}
