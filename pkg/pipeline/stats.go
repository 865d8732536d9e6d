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

package pipeline

import (
	"time"

	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/tasks"
)

// Stage names a step of the pipeline whose duration is recorded.
type Stage string

const (
	StageRead      = Stage("read")
	StageAggregate = Stage("aggregate")
	StageBuild     = Stage("build")
	StageNormalize = Stage("normalize")
	StageValidate  = Stage("validate")
)

// StageTime is the time spent in a stage.
type StageTime struct {
	Stage    Stage
	Duration time.Duration
}

// Stats describes a pipeline run.
type Stats struct {
	// Strategy is the strategy actually used, after any fallback.
	Strategy Strategy
	Workers  int
	Events   int
	// Dropped is the number of records that could not be parsed.
	Dropped int
	Bytes   int64
	Tasks   tasks.Counts
	// Skipped is the number of events not bucketed into any task, of which
	// Unsupported were rejected context events.
	Skipped     int
	Unsupported int
	Nodes       int
	Orphans     int
	Ignored     int
	// Stages holds the stage durations, in the order the stages ran.
	Stages []StageTime

	logger logging.Logger
}

// Track runs fn and records how long it took as the duration of stage.  The
// duration is recorded even if fn fails.
func (s *Stats) Track(stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	s.Stages = append(s.Stages, StageTime{Stage: stage, Duration: elapsed})
	logging.OrDefault(s.logger).Debugf("stage %s took %s", stage, elapsed)
	return err
}

// Duration returns the total time recorded for stage.
func (s *Stats) Duration(stage Stage) time.Duration {
	var total time.Duration
	for _, entry := range s.Stages {
		if entry.Stage == stage {
			total += entry.Duration
		}
	}
	return total
}

// Total returns the time spent in all stages.
func (s *Stats) Total() time.Duration {
	var total time.Duration
	for _, entry := range s.Stages {
		total += entry.Duration
	}
	return total
}
