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
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// DefaultTailWindow is how far from the end of the file FindEventsEnd looks
// for the line that closes the events array.
const DefaultTailWindow = 64 * 1024

// maxHeaderLength bounds the header line, so that a trace written on a single
// line is rejected without reading all of it.
const maxHeaderLength = 64 * 1024

// ErrNotLineDelimited is returned for traces that do not keep one event per
// line after a header line ending in "[".  Such traces can only be read with
// ReadSequential.
var ErrNotLineDelimited = errors.New("trace is not line-delimited")

// Layout is the part of a trace file that holds event records.
type Layout struct {
	// Header is the offset of the first byte after the header line.
	Header int64
	// End is the offset just past the last event byte.
	End int64
}

// Size returns the number of bytes in the events region.
func (l Layout) Size() int64 {
	return max(l.End-l.Header, 0)
}

// Inspect locates the events region of src.  A window of zero or less means
// DefaultTailWindow.
func Inspect(src Source, window int64) (Layout, error) {
	header, err := HeaderEnd(src)
	if err != nil {
		return Layout{}, err
	}
	end, err := FindEventsEnd(src, header, window)
	if err != nil {
		return Layout{}, err
	}
	return Layout{Header: header, End: max(end, header)}, nil
}

// HeaderEnd returns the offset just after the first newline of src.  The
// header line must open the events array, as in `{"traceEvents":[`.
func HeaderEnd(src Source) (int64, error) {
	reader := bufio.NewReader(io.NewSectionReader(src, 0, min(src.Size(), maxHeaderLength)))
	line, err := reader.ReadBytes('\n')
	if err == io.EOF {
		return 0, fmt.Errorf("%s: no header line: %w", src.Name(), ErrNotLineDelimited)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read header of %s", src.Name())
	}
	if !bytes.HasSuffix(bytes.TrimSpace(line), []byte("[")) {
		return 0, fmt.Errorf("%s: header line does not open the events array: %w", src.Name(), ErrNotLineDelimited)
	}
	return int64(len(line)), nil
}

// FindEventsEnd searches backward from the end of src, through at most window
// bytes, for the line that closes the events array; it returns the offset just
// after the last event byte.  The closing line is either a line starting with
// "]", or the last record followed by "]" and whatever trails the array.
// Lines after the closing line are never records.  If the last record line has
// no closing marker, or none is found in the window, the file is assumed to be
// truncated and its size is returned; broken records are then dropped by the
// readers.
func FindEventsEnd(src Source, header, window int64) (int64, error) {
	if window <= 0 {
		window = DefaultTailWindow
	}
	size := src.Size()
	start := max(header, size-window)
	if start >= size {
		return size, nil
	}
	buf := make([]byte, size-start)
	if _, err := src.ReadAt(buf, start); err != nil && err != io.EOF {
		return 0, errors.Wrapf(err, "failed to read tail of %s", src.Name())
	}

	lineEnd := len(buf)
	for lineEnd > 0 {
		newline := bytes.LastIndexByte(buf[:lineEnd], '\n')
		lineStart := newline + 1
		if lineStart == 0 && start > header {
			// The window starts in the middle of this line.
			break
		}
		line := buf[lineStart:lineEnd]
		lead := len(line) - len(bytes.TrimLeft(line, " \t\r"))
		trimmed := bytes.TrimSpace(line)
		switch {
		case len(trimmed) == 0:
		case trimmed[0] == ']':
			return start + int64(lineStart), nil
		default:
			if end, ok := closingMarker(line[lead:]); ok {
				return start + int64(lineStart+lead+end), nil
			}
			if trimmed[0] == '{' {
				return size, nil
			}
		}
		if newline < 0 {
			break
		}
		lineEnd = newline
	}
	return size, nil
}

// closingMarker looks for the "]" that closes the events array after a record
// on the same line.  Candidates are tried right to left; one is accepted when
// everything before it is a single JSON object.  It returns the offset just
// after that object.
func closingMarker(line []byte) (int, bool) {
	for candidate := bytes.LastIndexByte(line, ']'); candidate > 0; candidate = bytes.LastIndexByte(line[:candidate], ']') {
		prefix := bytes.TrimRight(line[:candidate], " \t\r\n")
		if len(prefix) == 0 || prefix[0] != '{' || prefix[len(prefix)-1] != '}' {
			continue
		}
		if json.Valid(prefix) {
			return len(prefix), true
		}
	}
	return 0, false
}

// TrimRecord extracts the event record from a line of the events region.
// closing reports that the line ends the events array; record may still hold
// the last event in that case.  An empty record means the line holds no
// event.  Lines that are not records are returned as they are, and fail to
// parse.
func TrimRecord(line []byte) (record []byte, closing bool) {
	trimmed := bytes.TrimSpace(line)
	switch {
	case len(trimmed) == 0:
		return nil, false
	case trimmed[0] == ']':
		return nil, true
	case bytes.HasSuffix(trimmed, []byte("},")):
		return trimmed[:len(trimmed)-1], false
	case trimmed[len(trimmed)-1] == '}' && json.Valid(trimmed):
		return trimmed, false
	}
	if end, ok := closingMarker(trimmed); ok {
		return trimmed[:end], true
	}
	return trimmed, false
}
