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
	"io"

	"github.com/pkg/errors"

	"github.com/rancher-sandbox/tracecct/pkg/logging"
	"github.com/rancher-sandbox/tracecct/pkg/model"
)

const (
	readBufferSize = 256 * 1024
	// checkInterval is how many lines are read between context checks.
	checkInterval = 4096
)

// Chunk is a byte range of the events region read by one worker.  A line
// belongs to the chunk holding its first byte.
type Chunk struct {
	Index int
	Start int64
	End   int64
}

// Plan splits [begin, end) into n chunks of equal size; the last chunks may
// be shorter, or empty.
func Plan(begin, end int64, n int) []Chunk {
	n = max(n, 1)
	size := max(end-begin, 0)
	length := (size + int64(n) - 1) / int64(n)
	chunks := make([]Chunk, n)
	for i := range chunks {
		start := min(begin+int64(i)*length, begin+size)
		chunks[i] = Chunk{
			Index: i,
			Start: start,
			End:   min(start+length, begin+size),
		}
	}
	return chunks
}

// Batch is the result of reading some part of a trace.
type Batch struct {
	Events []model.Event
	// Dropped is the number of records that could not be parsed.
	Dropped int
	// Bytes is the number of bytes read.
	Bytes int64
}

// Append adds the contents of other after the contents of b.
func (b *Batch) Append(other *Batch) {
	b.Events = append(b.Events, other.Events...)
	b.Dropped += other.Dropped
	b.Bytes += other.Bytes
}

// ReadChunk parses the lines owned by chunk.  Reading never goes past the end
// of the events region, and stops at the line closing the events array.
func ReadChunk(ctx context.Context, src Source, layout Layout, chunk Chunk, logger logging.Logger) (*Batch, error) {
	logger = logging.OrDefault(logger)
	batch := &Batch{}
	if chunk.Start >= chunk.End {
		return batch, nil
	}

	offset := chunk.Start
	reader := bufio.NewReaderSize(io.NewSectionReader(src, offset, layout.End-offset), readBufferSize)
	if offset > layout.Header {
		var previous [1]byte
		if _, err := src.ReadAt(previous[:], offset-1); err != nil {
			return nil, errors.Wrapf(err, "failed to read %s at %d", src.Name(), offset-1)
		}
		if previous[0] != '\n' {
			// The line started in the previous chunk.
			partial, err := reader.ReadBytes('\n')
			offset += int64(len(partial))
			if err == io.EOF {
				return batch, nil
			}
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read %s at %d", src.Name(), offset)
			}
		}
	}

	for lines := 0; offset < chunk.End; lines++ {
		if lines%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		line, err := reader.ReadBytes('\n')
		lineOffset := offset
		offset += int64(len(line))
		batch.Bytes += int64(len(line))
		if err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, "failed to read %s at %d", src.Name(), lineOffset)
		}
		record, closing := TrimRecord(line)
		if len(record) > 0 {
			event, parseErr := model.ParseEvent(record)
			if parseErr != nil {
				logger.Warnf("dropping record at byte %d of %s: %s", lineOffset, src.Name(), parseErr)
				batch.Dropped++
			} else {
				batch.Events = append(batch.Events, event)
			}
		}
		if closing || err == io.EOF {
			break
		}
	}
	return batch, nil
}
