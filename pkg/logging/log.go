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

// Package logging holds the logger abstraction used by the trace packages,
// and helpers for configuring the command line logger.
package logging

import (
	"fmt"
	"os"
	"sync"

	"github.com/Masterminds/log-go"
	"github.com/sirupsen/logrus"
)

const fileMode = 0o666

// Logger receives the diagnostics emitted while reading traces and building
// trees: dropped records, orphan end events, ignored phases.
// *logrus.Logger and *logrus.Entry both satisfy it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type currentLogger struct{}

func (currentLogger) Debugf(format string, args ...interface{}) { log.Debugf(format, args...) }
func (currentLogger) Infof(format string, args ...interface{})  { log.Infof(format, args...) }
func (currentLogger) Warnf(format string, args ...interface{})  { log.Warnf(format, args...) }

// Default returns a Logger that writes through log.Current, whatever it is
// set to at the time of the call.
func Default() Logger {
	return currentLogger{}
}

// OrDefault returns logger, or Default() if it is nil.
func OrDefault(logger Logger) Logger {
	if logger == nil {
		return Default()
	}
	return logger
}

type discard struct{}

func (discard) Debugf(string, ...interface{}) {}
func (discard) Infof(string, ...interface{})  {}
func (discard) Warnf(string, ...interface{})  {}

// Discard drops everything.
var Discard Logger = discard{}

// SetOutputFile sets the logger output with a given file
func SetOutputFile(filePath string, logger *logrus.Logger) error {
	logFile, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return err
	}
	logger.SetOutput(logFile)

	return nil
}

// Level is the severity of a recorded message.
type Level string

const (
	LevelDebug = Level("debug")
	LevelInfo  = Level("info")
	LevelWarn  = Level("warn")
)

// Entry is a message captured by a Recorder.
type Entry struct {
	Level   Level
	Message string
}

// Recorder is a Logger that keeps every message in memory; it is safe for
// concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) record(level Level, format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (r *Recorder) Debugf(format string, args ...interface{}) { r.record(LevelDebug, format, args...) }
func (r *Recorder) Infof(format string, args ...interface{})  { r.record(LevelInfo, format, args...) }
func (r *Recorder) Warnf(format string, args ...interface{})  { r.record(LevelWarn, format, args...) }

// Entries returns a copy of the recorded messages.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Count returns how many messages were recorded at the given level.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, entry := range r.entries {
		if entry.Level == level {
			count++
		}
	}
	return count
}
