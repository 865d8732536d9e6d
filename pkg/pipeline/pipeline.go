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

// Package pipeline turns a trace file into a forest of calling context trees.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/rancher-sandbox/tracecct/pkg/cct"
	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/reader"
	"github.com/rancher-sandbox/tracecct/pkg/tasks"
)

// Strategy selects how the trace is read and bucketed.
type Strategy string

const (
	// StrategySequential streams the trace with a single reader and builds
	// the trees with one worker.
	StrategySequential = Strategy("sequential")
	// StrategyReadThenBucket reads chunks in parallel, buckets all the events
	// at once, and builds the trees in parallel.
	StrategyReadThenBucket = Strategy("read-then-bucket")
	// StrategyBucketPerChunk buckets the events of each chunk in the worker
	// that read it, then merges the buckets and builds the trees in parallel.
	StrategyBucketPerChunk = Strategy("bucket-per-chunk")
)

// Strategies lists the known strategies.
func Strategies() []Strategy {
	return []Strategy{StrategySequential, StrategyReadThenBucket, StrategyBucketPerChunk}
}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return slices.Contains(Strategies(), s)
}

// Options controls a pipeline run.
type Options struct {
	// Workers is the number of chunks and trees processed at once; zero or
	// less means runtime.GOMAXPROCS(0).
	Workers  int
	Strategy Strategy
	Source   reader.SourceKind
	// TailWindow is how far back from the end of the file to look for the
	// end of the events.
	TailWindow int64
	Normalize  bool
	Validate   bool
	Logger     logging.Logger
}

func (o Options) readerOptions(logger logging.Logger) reader.Options {
	return reader.Options{Workers: o.Workers, TailWindow: o.TailWindow, Logger: logger}
}

// Result is the outcome of a pipeline run.
type Result struct {
	Forest *cct.Forest
	Stats  Stats
	// Violations holds the problems found by validation; it is nil if
	// validation passed or was not requested.
	Violations error
}

// Run reads the trace at path and builds its forest.
func Run(ctx context.Context, path string, opts Options) (*Result, error) {
	src, err := reader.Open(path, opts.Source)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return RunSource(ctx, src, opts)
}

// RunSource builds the forest of an already opened trace.
func RunSource(ctx context.Context, src reader.Source, opts Options) (*Result, error) {
	logger := logging.OrDefault(opts.Logger)
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyBucketPerChunk
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
	workers := opts.readerOptions(logger).EffectiveWorkers()
	result := &Result{Stats: Stats{Strategy: strategy, Workers: workers, logger: logger}}
	stats := &result.Stats

	trace, err := aggregate(ctx, src, opts, stats, logger)
	if err != nil {
		return nil, err
	}
	stats.Tasks = trace.Tasks()
	stats.Skipped = trace.SkippedTotal()
	stats.Unsupported = trace.Unsupported()

	buildWorkers := workers
	if stats.Strategy == StrategySequential {
		buildWorkers = 1
	}
	err = stats.Track(StageBuild, func() error {
		forest, err := BuildForest(ctx, trace, buildWorkers, logger)
		result.Forest = forest
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build trees: %w", err)
	}
	stats.Nodes = result.Forest.Nodes()
	stats.Orphans = result.Forest.Orphans()
	stats.Ignored = result.Forest.Ignored()

	if opts.Normalize {
		_ = stats.Track(StageNormalize, func() error {
			result.Forest.Normalize()
			return nil
		})
	}
	if opts.Validate {
		_ = stats.Track(StageValidate, func() error {
			result.Violations = result.Forest.Validate()
			return nil
		})
	}

	logger.Infof("built %s trees with %s nodes from %s events (%s) using %s",
		humanize.Comma(int64(result.Forest.Len())), humanize.Comma(int64(stats.Nodes)),
		humanize.Comma(int64(stats.Events)), humanize.IBytes(uint64(stats.Bytes)), stats.Strategy)
	return result, nil
}

// aggregate reads the events of src and buckets them by task, according to
// the strategy.  The returned trace is prepared.
func aggregate(ctx context.Context, src reader.Source, opts Options, stats *Stats, logger logging.Logger) (*tasks.Trace, error) {
	var trace *tasks.Trace
	var err error
	switch stats.Strategy {
	case StrategyReadThenBucket:
		trace, err = readThenBucket(ctx, src, opts, stats, logger)
	case StrategyBucketPerChunk:
		trace, err = bucketPerChunk(ctx, src, opts, stats, logger)
	}
	if errors.Is(err, reader.ErrNotLineDelimited) {
		logger.Infof("%s: %s; reading sequentially", src.Name(), err)
		stats.Strategy = StrategySequential
		stats.Stages = nil
	} else if err != nil {
		return nil, err
	}
	if stats.Strategy == StrategySequential {
		trace, err = sequential(ctx, src, opts, stats, logger)
		if err != nil {
			return nil, err
		}
	}
	return trace, nil
}

func sequential(ctx context.Context, src reader.Source, opts Options, stats *Stats, logger logging.Logger) (*tasks.Trace, error) {
	var batch *reader.Batch
	err := stats.Track(StageRead, func() error {
		var err error
		batch, err = reader.ReadSource(ctx, src, opts.readerOptions(logger))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Name(), err)
	}
	stats.recordBatch(batch)
	return bucket(batch, stats, logger), nil
}

func readThenBucket(ctx context.Context, src reader.Source, opts Options, stats *Stats, logger logging.Logger) (*tasks.Trace, error) {
	var batch *reader.Batch
	err := stats.Track(StageRead, func() error {
		var err error
		batch, err = reader.ReadParallel(ctx, src, opts.readerOptions(logger))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Name(), err)
	}
	stats.recordBatch(batch)
	return bucket(batch, stats, logger), nil
}

func bucket(batch *reader.Batch, stats *Stats, logger logging.Logger) *tasks.Trace {
	var trace *tasks.Trace
	_ = stats.Track(StageAggregate, func() error {
		trace = tasks.Aggregate(batch.Events, logger)
		trace.Prepare()
		return nil
	})
	return trace
}

// chunkTrace is what a chunk worker produces in the bucket-per-chunk
// strategy: the events are only kept in their buckets.
type chunkTrace struct {
	trace   *tasks.Trace
	events  int
	dropped int
	bytes   int64
}

func bucketPerChunk(ctx context.Context, src reader.Source, opts Options, stats *Stats, logger logging.Logger) (*tasks.Trace, error) {
	var parts []chunkTrace
	err := stats.Track(StageRead, func() error {
		var err error
		parts, err = reader.ReadChunks(ctx, src, opts.readerOptions(logger), func(batch *reader.Batch) chunkTrace {
			return chunkTrace{
				trace:   tasks.Aggregate(batch.Events, logger),
				events:  len(batch.Events),
				dropped: batch.Dropped,
				bytes:   batch.Bytes,
			}
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Name(), err)
	}

	trace := tasks.New(logger)
	_ = stats.Track(StageAggregate, func() error {
		// Chunks are merged in file order so that events sharing a timestamp
		// keep their order.
		for _, part := range parts {
			trace.Merge(part.trace)
			stats.Events += part.events
			stats.Dropped += part.dropped
			stats.Bytes += part.bytes
		}
		trace.Prepare()
		return nil
	})
	return trace, nil
}

func (s *Stats) recordBatch(batch *reader.Batch) {
	s.Events += len(batch.Events)
	s.Dropped += batch.Dropped
	s.Bytes += batch.Bytes
}
