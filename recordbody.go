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

import "io"

// cursorEpoch is shared between a Reader and every RecordBody it has handed
// out. The Reader bumps n every time Next moves past the previous record
// without going through a body handle. A stream-backed body compares its own
// syncedEpoch against this counter to tell whether the shared cursor has
// moved out from under it since it was handed out.
type cursorEpoch struct {
	n int
}

func (e *cursorEpoch) bump() { e.n++ }

// RecordBody is a lazy, bounded view over one record's payload: it never
// reads more than the declared Content-Length and, on a seekable source, can
// be read independently of (and interleaved with) the Reader that produced
// it and any sibling body handles.
type RecordBody struct {
	size int64
	read int64

	seekable bool
	src      ByteSource

	epoch       *cursorEpoch
	syncedEpoch int

	compressed  bool
	memberStart int64
	bodyStart   int64
	preSkip     int64

	cur io.Reader
}

// newSeekableRecordBody builds a body backed by a seekable ByteSource. Its
// read cursor is re-established with reopenGzipMember/reopenPlainRegion
// before every Read, since the Reader or a sibling body may have moved the
// source elsewhere.
func newSeekableRecordBody(src ByteSource, size int64, epoch *cursorEpoch, compressed bool, memberStart, bodyStart, preSkip int64) *RecordBody {
	return &RecordBody{
		size: size, seekable: true, src: src, epoch: epoch, syncedEpoch: epoch.n,
		compressed: compressed, memberStart: memberStart, bodyStart: bodyStart, preSkip: preSkip,
	}
}

// newStreamRecordBody builds a body backed by a single forward pass over cur
// (the decompressed record stream, or the raw source itself for a
// non-gzipped record). Once the epoch advances past this body's, it can
// never be read again: the bytes it would need have already been consumed
// or discarded by the parent Reader.
func newStreamRecordBody(cur io.Reader, size int64, epoch *cursorEpoch) *RecordBody {
	return &RecordBody{size: size, seekable: false, cur: cur, epoch: epoch, syncedEpoch: epoch.n}
}

// Size returns the record's declared Content-Length.
func (b *RecordBody) Size() int64 { return b.size }

// BytesRead returns how many body bytes have been consumed through Read so
// far.
func (b *RecordBody) BytesRead() int64 { return b.read }

func (b *RecordBody) Read(p []byte) (int, error) {
	if b.read >= b.size {
		return 0, io.EOF
	}
	if !b.seekable {
		if b.syncedEpoch != b.epoch.n {
			return 0, newNotSeekable("body handle is stale: the reader has advanced past this record")
		}
	} else {
		// A seekable source's cursor is shared with every sibling body
		// handle, so it may have moved since this body's last Read even
		// when this body's own epoch bookkeeping looks unchanged. Re-seek
		// unconditionally rather than trusting a cached reader.
		if err := b.reopen(); err != nil {
			return 0, err
		}
	}

	remaining := b.size - b.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := b.cur.Read(p)
	b.read += int64(n)
	return n, err
}

// reopen re-establishes b.cur at the current read position, either by
// re-opening the gzip member that contains the body or by re-seeking the
// plain source directly.
func (b *RecordBody) reopen() error {
	var r io.Reader
	var err error
	if b.compressed {
		r, err = reopenGzipMember(b.src, b.memberStart, b.preSkip+b.read)
	} else {
		r, err = reopenPlainRegion(b.src, b.bodyStart, b.read)
	}
	if err != nil {
		return err
	}
	b.cur = r
	b.syncedEpoch = b.epoch.n
	return nil
}

// discard consumes and throws away whatever body bytes remain unread, so the
// parent Reader can locate the next record. On a seekable source this is a
// no-op bookkeeping step, since the Reader seeks past the record directly
// instead of reading through it.
func (b *RecordBody) discard() (int64, error) {
	if b.read >= b.size {
		return 0, nil
	}
	if b.seekable {
		n := b.size - b.read
		b.read = b.size
		return n, nil
	}
	return io.CopyN(io.Discard, b, b.size-b.read)
}
