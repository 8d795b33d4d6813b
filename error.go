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

import "fmt"

// Sentinel error kinds. Every concrete error value returned by this package
// satisfies errors.Is against the matching sentinel below, so callers can
// write errors.Is(err, gowarc.ErrInvalidWarc) instead of type-asserting.
var (
	// ErrInvalidWarc is returned for framing that breaks the bytewise
	// structure of a record: a bad version line, a malformed header line,
	// a missing Content-Length, or a non-numeric length.
	ErrInvalidWarc = &kindError{"malformed WARC framing"}

	// ErrMissingWarcHeader is returned by a typed header accessor when the
	// underlying header was absent from a record that otherwise parsed
	// cleanly.
	ErrMissingWarcHeader = &kindError{"missing required WARC header"}

	// ErrWarcHeaderBadValue is returned by a typed header accessor when the
	// header was present but its value doesn't match the expected grammar
	// (not a UUID URN, not an RFC 3339 date, ...).
	ErrWarcHeaderBadValue = &kindError{"WARC header has an invalid value"}

	// ErrNotSeekable is returned when reading from a stale body handle
	// whose parent Reader has advanced past it on a non-seekable source,
	// or when Seek is attempted on a ByteSource that doesn't support it.
	ErrNotSeekable = &kindError{"source is not seekable"}

	// ErrCurrentBlockOverflow is returned when body bytes written to a
	// Writer exceed the declared Content-Length, or when body bytes are
	// written while no block is open.
	ErrCurrentBlockOverflow = &kindError{"current block overflow"}

	// ErrPreviousBlockNotTerminated is returned when starting a new block
	// while the previous one has not been fully written.
	ErrPreviousBlockNotTerminated = &kindError{"previous block not terminated"}
)

// kindError is a sentinel error kind. Concrete errors wrap one of these via
// *wrappedError so errors.Is(err, kind) succeeds while Error() still carries
// record-specific detail.
type kindError struct {
	msg string
}

func (e *kindError) Error() string {
	return "gowarc: " + e.msg
}

// wrappedError decorates a kindError sentinel with contextual detail (a
// header name, a line number, a byte count) while keeping errors.Is/As
// working against the sentinel.
type wrappedError struct {
	kind   *kindError
	detail string
}

func (e *wrappedError) Error() string {
	if e.detail == "" {
		return e.kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.kind.Error(), e.detail)
}

func (e *wrappedError) Unwrap() error {
	return e.kind
}

func newInvalidWarc(detail string, args ...interface{}) error {
	return &wrappedError{kind: ErrInvalidWarc, detail: fmt.Sprintf(detail, args...)}
}

func newMissingWarcHeader(header string) error {
	return &wrappedError{kind: ErrMissingWarcHeader, detail: header}
}

func newWarcHeaderBadValue(header, value string) error {
	return &wrappedError{kind: ErrWarcHeaderBadValue, detail: fmt.Sprintf("%s: %q", header, value)}
}

func newNotSeekable(detail string) error {
	return &wrappedError{kind: ErrNotSeekable, detail: detail}
}

func newCurrentBlockOverflow(detail string) error {
	return &wrappedError{kind: ErrCurrentBlockOverflow, detail: detail}
}

func newPreviousBlockNotTerminated(detail string) error {
	return &wrappedError{kind: ErrPreviousBlockNotTerminated, detail: detail}
}
