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
	"bufio"
	"compress/gzip"
	"io"

	"github.com/spf13/afero"
	"github.com/warctools/gowarc/internal/countingreader"
)

// Reader drives frame-by-frame decoding of a WARC byte stream, materializing
// each record's headers eagerly while leaving its body as a lazy RecordBody
// tied to this Reader's cursor.
type Reader struct {
	src        ByteSource
	compressed bool
	closer     io.Closer

	raw *bufio.Reader // raw bytes off src, compressed or not

	frame   *bufio.Reader // logical WARC bytes for the current record: raw, or a gzip member atop raw
	gz      *gzip.Reader
	gzCount *countingreader.Reader

	epoch       cursorEpoch
	prevBody    *RecordBody
	memberStart int64 // seekable+compressed: raw offset where the current member began
	bodyStart   int64 // seekable+!compressed: absolute offset where the current body began
}

// NewReader constructs a Reader over src. compressed declares that every
// record is independently gzip-framed; the framing is transparent to
// callers of Next.
func NewReader(src ByteSource, compressed bool) *Reader {
	return &Reader{src: src, compressed: compressed, raw: bufio.NewReader(src)}
}

// NewReaderFile opens path on fs and returns a Reader over it. The returned
// Reader's Close releases the underlying file.
func NewReaderFile(fs afero.Fs, path string, compressed bool) (*Reader, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewReader(NewFileByteSource(f), compressed)
	r.closer = f
	return r, nil
}

// Close releases the underlying file, if this Reader was constructed with
// NewReaderFile. It is a no-op otherwise.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Next returns the next record, or (nil, nil) at a clean end of stream.
func (r *Reader) Next() (*Record, error) {
	if err := r.advancePastPrevious(); err != nil {
		return nil, err
	}

	if _, err := r.raw.Peek(1); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, newInvalidWarc("probing for next record: %v", err)
	}

	if r.compressed {
		r.memberStart = r.rawPos()
		g, err := openGzipMember(r.raw)
		if err != nil {
			return nil, err
		}
		r.gz = g
		r.gzCount = countingreader.New(g)
		r.frame = bufio.NewReader(r.gzCount)
	} else {
		r.frame = r.raw
	}

	versionLine, err := readLine(r.frame, maxHeaderLineLen)
	if err != nil {
		return nil, newInvalidWarc("reading version line: %v", err)
	}
	version, err := parseVersionLine(versionLine)
	if err != nil {
		return nil, err
	}

	headers, err := parseHeaderBlock(r.frame, maxHeaderLineLen)
	if err != nil {
		return nil, err
	}

	size, err := parseContentLength(headers)
	if err != nil {
		return nil, err
	}

	if !r.compressed && r.src.IsSeekable() {
		r.bodyStart = r.rawPos()
	}

	body := r.makeBody(size)
	r.prevBody = body

	pkgLog.WithField("type", headers.Get(WarcType)).Debug("decoded record")

	return &Record{Version: version, Headers: headers, Body: body}, nil
}

// rawPos returns the absolute offset in src of the next byte raw will
// deliver, valid only when src.IsSeekable().
func (r *Reader) rawPos() int64 {
	return r.src.Tell() - int64(r.raw.Buffered())
}

// frameLogicalPos returns the number of decompressed bytes consumed from the
// current gzip member so far, used as the preSkip a seekable compressed body
// reopens from.
func (r *Reader) frameLogicalPos() int64 {
	return r.gzCount.N() - int64(r.frame.Buffered())
}

func (r *Reader) makeBody(size int64) *RecordBody {
	if !r.src.IsSeekable() {
		return newStreamRecordBody(r.frame, size, &r.epoch)
	}
	if r.compressed {
		preSkip := r.frameLogicalPos()
		return newSeekableRecordBody(r.src, size, &r.epoch, true, r.memberStart, 0, preSkip)
	}
	return newSeekableRecordBody(r.src, size, &r.epoch, false, 0, r.bodyStart, 0)
}

// advancePastPrevious drains or repositions past the previously-issued body
// (plus its trailing CRLFCRLF) before looking for the next record.
func (r *Reader) advancePastPrevious() error {
	prev := r.prevBody
	r.prevBody = nil
	if prev == nil {
		return nil
	}

	if !r.src.IsSeekable() {
		if _, err := prev.discard(); err != nil {
			return newInvalidWarc("draining previous record body: %v", err)
		}
		if err := consumeTrailer(r.frame); err != nil {
			return err
		}
		if r.compressed {
			if _, err := io.Copy(io.Discard, r.gz); err != nil {
				return newInvalidWarc("draining gzip member: %v", err)
			}
		}
		r.epoch.bump()
		return nil
	}

	// Seekable: previously-issued handles remain live and may have moved
	// src's cursor independently via their own reopen calls, so the next
	// record's position is re-derived from this record's known start
	// rather than trusted from whatever raw's buffer currently holds.
	if r.compressed {
		if err := r.src.Seek(r.memberStart); err != nil {
			return err
		}
		r.raw.Reset(r.src)
		g, err := openGzipMember(r.raw)
		if err != nil {
			return err
		}
		if skip := prev.preSkip + prev.size; skip > 0 {
			if _, err := io.CopyN(io.Discard, g, skip); err != nil {
				return newInvalidWarc("skipping gzip member body: %v", err)
			}
		}
		if err := consumeTrailer(g); err != nil {
			return err
		}
		if _, err := io.Copy(io.Discard, g); err != nil {
			return newInvalidWarc("draining gzip member: %v", err)
		}
	} else {
		target := r.bodyStart + prev.size + int64(len(crlfcrlf))
		if err := r.src.Seek(target); err != nil {
			return err
		}
		r.raw.Reset(r.src)
	}
	r.epoch.bump()
	return nil
}

// consumeTrailer reads and validates the CRLFCRLF that terminates every
// record body.
func consumeTrailer(r io.Reader) error {
	buf := make([]byte, len(crlfcrlf))
	if _, err := io.ReadFull(r, buf); err != nil {
		return newInvalidWarc("reading record trailer: %v", err)
	}
	if string(buf) != crlfcrlf {
		return newInvalidWarc("malformed record trailer %q", buf)
	}
	return nil
}
