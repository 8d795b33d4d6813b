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
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/tsdb/fileutil"
	"github.com/spf13/afero"
	"github.com/warctools/gowarc/internal/timestamp"
)

// writerState is the Writer's Idle/InBody tagged state.
type writerState int8

const (
	stateIdle writerState = iota
	stateInBody
)

// Writer emits syntactically valid WARC records to a ByteSink: one-shot via
// WriteBlock, or chunked via StartBlock followed by repeated WriteBlockBody
// calls. The first record of any session is a lazily-emitted warcinfo
// record whose WARC-Record-ID every subsequent record carries as its
// WARC-Warcinfo-ID.
type Writer struct {
	opts writerOptions
	sink ByteSink

	warcinfoID string
	state      writerState
	remaining  int64
	bodyDst    io.Writer
	bodyFinish func() error

	// path-based construction bookkeeping; zero value for a Writer built
	// directly over a ByteSink.
	file       afero.File
	fs         afero.Fs
	tmpPath    string
	finalPath  string
	baseOffset int64
}

// NewWriter constructs a Writer over an arbitrary ByteSink.
func NewWriter(sink ByteSink, opts ...WriterOption) *Writer {
	o := defaultWriterOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return &Writer{opts: o, sink: sink}
}

// NewWriterFile opens path on fs for writing with a truncate/append
// contract: truncate=true starts a fresh
// archive segment (and fresh warcinfo); truncate=false preserves existing
// content and appends a new segment after it. Writes land in a
// "path.open" sibling file and are atomically published to path on Close
// via fileutil.Rename (on the OS filesystem) or fs.Rename (on any other fs).
func NewWriterFile(fs afero.Fs, path string, truncate bool, opts ...WriterOption) (*Writer, error) {
	tmpPath := path + ".open"
	f, err := fs.Create(tmpPath)
	if err != nil {
		return nil, err
	}

	var baseOffset int64
	if !truncate {
		existing, err := fs.Open(path)
		if err == nil {
			n, copyErr := io.Copy(f, existing)
			_ = existing.Close()
			if copyErr != nil {
				_ = f.Close()
				return nil, copyErr
			}
			baseOffset = n
		} else if !os.IsNotExist(err) {
			_ = f.Close()
			return nil, err
		}
	}

	w := NewWriter(NewByteSink(f), opts...)
	w.file = f
	w.fs = fs
	w.tmpPath = tmpPath
	w.finalPath = path
	w.baseOffset = baseOffset
	return w, nil
}

// Offset returns the total number of bytes committed to the archive segment
// so far, including any content preserved from a prior session by
// NewWriterFile(..., truncate=false, ...).
func (w *Writer) Offset() int64 {
	return w.baseOffset + w.sink.Tell()
}

// Close flushes and, for a path-based Writer, atomically publishes the
// "path.open" temp file to its final name. Closing while a block is open
// fails with ErrPreviousBlockNotTerminated: the caller must finish every
// StartBlock with matching WriteBlockBody calls first.
func (w *Writer) Close() error {
	if w.state == stateInBody {
		return newPreviousBlockNotTerminated("cannot close writer with an open block")
	}
	if w.file == nil {
		return nil
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	if _, ok := w.fs.(*afero.OsFs); ok {
		return fileutil.Rename(w.tmpPath, w.finalPath)
	}
	return w.fs.Rename(w.tmpPath, w.finalPath)
}

// WriteBlock writes a complete record in one call: header block, payload,
// and trailer. Requires Idle state; otherwise ErrPreviousBlockNotTerminated.
func (w *Writer) WriteBlock(recordType string, payload []byte, recordHeaders map[string]string) error {
	if w.state == stateInBody {
		return newPreviousBlockNotTerminated("cannot write a new record while a block is open")
	}
	if err := w.emitWarcinfoIfNeeded(); err != nil {
		return err
	}
	_, err := w.emit(recordType, payload, recordHeaders, w.warcinfoID)
	return err
}

// StartBlock begins a chunked record of declared length, writing its header
// block immediately and transitioning to InBody(length). Requires Idle
// state; otherwise ErrPreviousBlockNotTerminated.
func (w *Writer) StartBlock(recordType string, length int64, recordHeaders map[string]string) error {
	if w.state == stateInBody {
		return newPreviousBlockNotTerminated("cannot start a new block while one is open")
	}
	if err := w.emitWarcinfoIfNeeded(); err != nil {
		return err
	}

	headers, _ := w.buildHeaders(recordType, length, recordHeaders, w.warcinfoID)
	if err := validateForEmit(headers); err != nil {
		return err
	}

	dst, finish, err := w.openMemberWriter()
	if err != nil {
		return err
	}
	if err := writeFrame(dst, w.opts.warcVersion, headers); err != nil {
		return err
	}

	if length == 0 {
		if _, err := io.WriteString(dst, crlfcrlf); err != nil {
			return err
		}
		return finish()
	}

	w.state = stateInBody
	w.remaining = length
	w.bodyDst = dst
	w.bodyFinish = finish
	return nil
}

// WriteBlockBody appends chunk to the record started by StartBlock. A chunk
// longer than the remaining declared length fails with
// ErrCurrentBlockOverflow without writing any of chunk's bytes. Calling
// WriteBlockBody in Idle state also fails with ErrCurrentBlockOverflow:
// there is no block to append to.
func (w *Writer) WriteBlockBody(chunk []byte) error {
	if w.state != stateInBody {
		return newCurrentBlockOverflow("no block is open")
	}
	if int64(len(chunk)) > w.remaining {
		return newCurrentBlockOverflow(fmt.Sprintf("chunk of %d bytes exceeds %d bytes remaining", len(chunk), w.remaining))
	}
	if len(chunk) == 0 {
		return nil
	}
	if _, err := w.bodyDst.Write(chunk); err != nil {
		return err
	}
	w.remaining -= int64(len(chunk))
	if w.remaining == 0 {
		if _, err := io.WriteString(w.bodyDst, crlfcrlf); err != nil {
			return err
		}
		if err := w.bodyFinish(); err != nil {
			return err
		}
		w.state = stateIdle
		w.bodyDst = nil
		w.bodyFinish = nil
	}
	return nil
}

// emitWarcinfoIfNeeded writes the archive's opening warcinfo record on the
// first call of any session, lazily rather than at construction.
func (w *Writer) emitWarcinfoIfNeeded() error {
	if w.warcinfoID != "" {
		return nil
	}

	var fields WarcFields
	fields.Add("format", w.opts.warcVersion.String())
	fields.Add("software", fmt.Sprintf("%s/%s", w.opts.softwareName, w.opts.softwareVersion))
	for k, v := range w.opts.warcMeta {
		fields.Add(k, v)
	}

	var payload bytes.Buffer
	if _, err := fields.sortedCopy().WriteTo(&payload); err != nil {
		return err
	}

	id, err := w.emit(TypeWarcinfo, payload.Bytes(), nil, "")
	if err != nil {
		return err
	}
	w.warcinfoID = id
	pkgLog.WithField("warcinfo_id", id).Debug("wrote warcinfo bootstrap record")
	return nil
}

// emit performs a one-shot header+payload+trailer write and returns the
// generated record's id. It underlies both WriteBlock and the warcinfo
// bootstrap.
func (w *Writer) emit(recordType string, payload []byte, recordHeaders map[string]string, warcinfoID string) (string, error) {
	headers, id := w.buildHeaders(recordType, int64(len(payload)), recordHeaders, warcinfoID)
	if err := validateForEmit(headers); err != nil {
		return "", err
	}

	dst, finish, err := w.openMemberWriter()
	if err != nil {
		return "", err
	}
	if err := writeFrame(dst, w.opts.warcVersion, headers); err != nil {
		return "", err
	}
	if _, err := dst.Write(payload); err != nil {
		return "", err
	}
	if _, err := io.WriteString(dst, crlfcrlf); err != nil {
		return "", err
	}
	if err := finish(); err != nil {
		return "", err
	}
	return id, nil
}

// buildHeaders assembles the mandatory headers plus any caller-supplied
// ones, generating a fresh WARC-Record-ID.
func (w *Writer) buildHeaders(recordType string, length int64, recordHeaders map[string]string, warcinfoID string) (WarcFields, string) {
	id, err := w.opts.idFunc()
	if err != nil {
		id, _ = defaultIdGenerator()
	}

	var fields WarcFields
	fields.Set(WarcType, recordType)
	fields.Set(WarcRecordID, "<"+id+">")
	fields.Set(WarcDate, timestamp.UTCW3cIso8601(time.Now()))
	if warcinfoID != "" {
		fields.Set(WarcWarcinfoID, "<"+warcinfoID+">")
	}
	for k, v := range recordHeaders {
		fields.Set(k, v)
	}
	fields.Set(ContentLength, strconv.FormatInt(length, 10))
	return fields, id
}

// writeFrame writes the version line, header block, and blank line that
// precede a record's body.
func writeFrame(dst io.Writer, version *WarcVersion, headers WarcFields) error {
	if _, err := io.WriteString(dst, version.String()+crlf); err != nil {
		return err
	}
	if _, err := headers.WriteTo(dst); err != nil {
		return err
	}
	_, err := io.WriteString(dst, crlf)
	return err
}

// openMemberWriter returns the destination a record's bytes should be
// written to, plus a finish function that must be called exactly once the
// record is complete. In compressed mode dst is a fresh gzip.Writer so each
// record becomes its own member; finish flushes and closes it. Otherwise
// dst is the sink itself and finish is a no-op.
func (w *Writer) openMemberWriter() (io.Writer, func() error, error) {
	if !w.opts.compress {
		return w.sink, func() error { return nil }, nil
	}
	gz := gzip.NewWriter(w.sink)
	return gz, gz.Close, nil
}
