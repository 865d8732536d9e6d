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
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// Source is a trace file that can be read at arbitrary offsets by several
// workers at once.
type Source interface {
	io.ReaderAt
	io.Closer
	Size() int64
	Name() string
}

// SourceKind selects how a trace file is accessed.
type SourceKind string

const (
	// SourceFile reads with positional reads on an open file.
	SourceFile = SourceKind("file")
	// SourceMmap maps the whole file into memory.
	SourceMmap = SourceKind("mmap")
)

// Open opens the trace at path as the given kind of source.
func Open(path string, kind SourceKind) (Source, error) {
	switch kind {
	case SourceFile, "":
		return OpenFile(path)
	case SourceMmap:
		return OpenMmap(path)
	}
	return nil, fmt.Errorf("unknown source kind %q", kind)
}

// FileSource is a Source backed by an *os.File.
type FileSource struct {
	file *os.File
	size int64
}

// OpenFile opens path for positional reads.
func OpenFile(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open trace %s", path)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "failed to stat trace %s", path)
	}
	// Each worker reads its chunk front to back; the hint only affects
	// read-ahead, so failures are not interesting.
	_ = adviseSequential(file)
	return &FileSource{file: file, size: info.Size()}, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

func (s *FileSource) Size() int64 {
	return s.size
}

func (s *FileSource) Name() string {
	return s.file.Name()
}

func (s *FileSource) Close() error {
	return s.file.Close()
}

// MmapSource is a Source backed by a read-only memory mapping.
type MmapSource struct {
	reader *mmap.ReaderAt
	name   string
}

// OpenMmap maps the file at path into memory.
func OpenMmap(path string) (*MmapSource, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to map trace %s", path)
	}
	return &MmapSource{reader: reader, name: path}, nil
}

func (s *MmapSource) ReadAt(p []byte, off int64) (int, error) {
	return s.reader.ReadAt(p, off)
}

func (s *MmapSource) Size() int64 {
	return int64(s.reader.Len())
}

func (s *MmapSource) Name() string {
	return s.name
}

func (s *MmapSource) Close() error {
	return s.reader.Close()
}

// BytesSource is a Source over a byte slice.
type BytesSource struct {
	*bytes.Reader
	name string
}

func NewBytesSource(name string, data []byte) *BytesSource {
	return &BytesSource{Reader: bytes.NewReader(data), name: name}
}

func (s *BytesSource) Name() string {
	return s.name
}

func (s *BytesSource) Close() error {
	return nil
}
