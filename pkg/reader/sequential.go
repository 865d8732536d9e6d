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
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/model"
)

const traceEventsKey = "traceEvents"

// ReadSource reads all events of src on the calling goroutine.  A
// line-delimited trace is read as a single chunk, so a malformed record only
// costs that record, exactly as with ReadParallel.  Any other layout is
// streamed through ReadSequential.  opts.Workers is not used.
func ReadSource(ctx context.Context, src Source, opts Options) (*Batch, error) {
	logger := logging.OrDefault(opts.Logger)
	layout, err := Inspect(src, opts.TailWindow)
	if errors.Is(err, ErrNotLineDelimited) {
		logger.Debugf("%s: %s; streaming events", src.Name(), err)
		input := bufio.NewReaderSize(io.NewSectionReader(src, 0, src.Size()), readBufferSize)
		return ReadSequential(ctx, input, logger)
	} else if err != nil {
		return nil, err
	}
	return ReadChunk(ctx, src, layout, Plan(layout.Header, layout.End, 1)[0], logger)
}

// ReadSequential streams all events from r.  It accepts both the object form
// of the trace, `{"traceEvents":[...], ...}`, and the bare array form.  The
// layout of the file does not matter.  Events that are valid JSON but not
// valid events are dropped; a trace that ends early (for example, because the
// traced program crashed) yields the events read so far.  Invalid JSON inside
// the array is an error, since the decoder cannot resynchronize after it.
func ReadSequential(ctx context.Context, r io.Reader, logger logging.Logger) (*Batch, error) {
	logger = logging.OrDefault(logger)
	decoder := json.NewDecoder(r)
	batch := &Batch{}
	defer func() {
		batch.Bytes = decoder.InputOffset()
	}()

	token, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	switch token {
	case json.Delim('['):
		return batch, readArray(ctx, decoder, batch, logger)
	case json.Delim('{'):
	default:
		return nil, fmt.Errorf("unexpected %v at start of trace", token)
	}

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read trace: %w", err)
		}
		if token != traceEventsKey {
			var skipped json.RawMessage
			if err := decoder.Decode(&skipped); err != nil {
				return nil, fmt.Errorf("failed to read %q: %w", token, err)
			}
			continue
		}
		token, err = decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", traceEventsKey, err)
		}
		if token != json.Delim('[') {
			return nil, fmt.Errorf("%s is not an array", traceEventsKey)
		}
		// Whatever follows the events is not needed.
		return batch, readArray(ctx, decoder, batch, logger)
	}
	return nil, fmt.Errorf("trace has no %s", traceEventsKey)
}

// readArray reads array elements as events, up to and including the closing
// bracket.
func readArray(ctx context.Context, decoder *json.Decoder, batch *Batch, logger logging.Logger) error {
	for index := 0; decoder.More(); index++ {
		if index%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if truncated(err) {
				logger.Warnf("trace ends early after %d events: %s", len(batch.Events), err)
				return nil
			}
			return fmt.Errorf("failed to read event %d: %w", index, err)
		}
		event, err := model.ParseEvent(raw)
		if err != nil {
			logger.Warnf("dropping event %d at byte %d: %s", index, decoder.InputOffset(), err)
			batch.Dropped++
			continue
		}
		batch.Events = append(batch.Events, event)
	}
	if _, err := decoder.Token(); err != nil {
		if truncated(err) {
			logger.Warnf("trace ends early after %d events: %s", len(batch.Events), err)
			return nil
		}
		return fmt.Errorf("failed to read end of events: %w", err)
	}
	return nil
}

func truncated(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
