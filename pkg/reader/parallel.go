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

package reader

import (
	"context"
	"fmt"
	"runtime"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/model"
)

// Options controls the parallel readers.
type Options struct {
	// Workers is the number of chunks read at once; zero or less means
	// runtime.GOMAXPROCS(0).
	Workers int
	// TailWindow is passed to FindEventsEnd.
	TailWindow int64
	Logger     logging.Logger
}

// EffectiveWorkers returns the number of workers to use.
func (o Options) EffectiveWorkers() int {
	if o.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// ReadChunks reads the events region of src in parallel, one goroutine per
// chunk, and calls fn on the batch of each chunk from the goroutine that read
// it.  The results are returned in chunk order.  The first error cancels the
// remaining chunks.
func ReadChunks[T any](ctx context.Context, src Source, opts Options, fn func(*Batch) T) ([]T, error) {
	logger := logging.OrDefault(opts.Logger)
	layout, err := Inspect(src, opts.TailWindow)
	if err != nil {
		return nil, err
	}
	chunks := Plan(layout.Header, layout.End, opts.EffectiveWorkers())
	logger.Debugf("reading %s of events from %s in %d chunks",
		humanize.IBytes(uint64(layout.Size())), src.Name(), len(chunks))

	results := make([]T, len(chunks))
	group, ctx := errgroup.WithContext(ctx)
	for _, chunk := range chunks {
		group.Go(func() error {
			batch, err := ReadChunk(ctx, src, layout, chunk, logger)
			if err != nil {
				return fmt.Errorf("failed to read chunk %d: %w", chunk.Index, err)
			}
			results[chunk.Index] = fn(batch)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ReadParallel reads all events of src in parallel.  The events are in the
// same order as in the file.
func ReadParallel(ctx context.Context, src Source, opts Options) (*Batch, error) {
	batches, err := ReadChunks(ctx, src, opts, func(batch *Batch) *Batch { return batch })
	if err != nil {
		return nil, err
	}
	total := 0
	for _, batch := range batches {
		total += len(batch.Events)
	}
	result := &Batch{Events: make([]model.Event, 0, total)}
	for _, batch := range batches {
		result.Append(batch)
	}
	return result, nil
}
