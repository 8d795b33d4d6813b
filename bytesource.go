/*
 * Copyright 2021 National Library of Norway.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package gowarc

import (
	"io"

	"github.com/warctools/gowarc/internal/countingreader"
)

// ByteSource is the uniform view over a possibly-seekable byte stream:
// Reader and RecordBody never touch *os.File or afero.File directly, only
// this interface, so the codec works identically over a network socket, a
// pipe, or a random-access file.
type ByteSource interface {
	io.Reader

	// Tell returns the current absolute read offset. Always available —
	// even a non-seekable source knows how many bytes have passed through
	// it — but only meaningful as an absolute file position when
	// IsSeekable is true.
	Tell() int64

	// Seek moves to an absolute offset. Returns ErrNotSeekable if
	// IsSeekable() is false.
	Seek(abs int64) error

	// Skip discards n bytes. On a non-seekable source this is implemented
	// as bounded forward reads into io.Discard.
	Skip(n int64) error

	// IsSeekable reports whether Seek is supported.
	IsSeekable() bool
}

// ReadSeekCloser is the minimal interface a seekable underlying file must
// satisfy; *os.File and afero.File both do.
type ReadSeekCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

// fileByteSource is the seekable ByteSource implementation: every other
// record's body handle can re-seek through it independently.
type fileByteSource struct {
	f   ReadSeekCloser
	pos int64
}

// NewFileByteSource wraps a seekable file (an *os.File or an afero.File) as
// a ByteSource.
func NewFileByteSource(f ReadSeekCloser) ByteSource {
	pos, _ := f.Seek(0, io.SeekCurrent)
	return &fileByteSource{f: f, pos: pos}
}

func (s *fileByteSource) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	s.pos += int64(n)
	return n, err
}

func (s *fileByteSource) Tell() int64 { return s.pos }

func (s *fileByteSource) Seek(abs int64) error {
	n, err := s.f.Seek(abs, io.SeekStart)
	if err != nil {
		return err
	}
	s.pos = n
	return nil
}

func (s *fileByteSource) Skip(n int64) error {
	return s.Seek(s.pos + n)
}

func (s *fileByteSource) IsSeekable() bool { return true }

// streamByteSource is the non-seekable ByteSource implementation: a single
// forward pass over an arbitrary io.Reader (a network connection, a pipe, an
// in-memory buffer explicitly wrapped to hide its seekability).
type streamByteSource struct {
	r *countingreader.Reader
}

// NewStreamByteSource wraps an arbitrary io.Reader as a non-seekable
// ByteSource.
func NewStreamByteSource(r io.Reader) ByteSource {
	return &streamByteSource{r: countingreader.New(r)}
}

func (s *streamByteSource) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *streamByteSource) Tell() int64 { return s.r.N() }

func (s *streamByteSource) Seek(abs int64) error {
	return newNotSeekable("stream source has no random access")
}

func (s *streamByteSource) Skip(n int64) error {
	_, err := io.CopyN(io.Discard, s.r, n)
	return err
}

func (s *streamByteSource) IsSeekable() bool { return false }

// ByteSink is the Writer-side counterpart of ByteSource: a plain byte
// destination that additionally reports how many bytes have been committed
// so far, used for truncate/append offset bookkeeping.
type ByteSink interface {
	io.Writer
	Tell() int64
}

type sinkWriter struct {
	w *countingreader.Writer
}

// NewByteSink wraps an arbitrary io.Writer (a file, a socket, an in-memory
// buffer) as a ByteSink.
func NewByteSink(w io.Writer) ByteSink {
	return &sinkWriter{w: countingreader.NewWriter(w)}
}

func (s *sinkWriter) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s *sinkWriter) Tell() int64                 { return s.w.N() }
