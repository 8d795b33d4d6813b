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
	"regexp"
	"strconv"
	"time"
)

const (
	crlf     = "\r\n"
	crlfcrlf = "\r\n\r\n"

	// maxHeaderLineLen bounds a single header (or version) line so a
	// source that never supplies a terminator can't exhaust memory.
	maxHeaderLineLen = 64 * 1024
)

var versionLineRe = regexp.MustCompile(`^WARC/(\d+)\.(\d+)$`)

// WarcVersion names a WARC/<major>.<minor> version line.
type WarcVersion struct {
	Major, Minor int
	txt          string
}

func (v *WarcVersion) String() string {
	return v.txt
}

var (
	V1_0 = &WarcVersion{Major: 1, Minor: 0, txt: "WARC/1.0"}
	V1_1 = &WarcVersion{Major: 1, Minor: 1, txt: "WARC/1.1"}
)

// parseVersionLine validates the literal version line every well-formed
// record must begin with, and resolves it to a *WarcVersion. Any ASCII
// "WARC/<major>.<minor>" line is accepted even if not 1.0/1.1, since the
// codec is strict on framing but not on which WARC revision a record
// claims.
func parseVersionLine(line string) (*WarcVersion, error) {
	m := versionLineRe.FindStringSubmatch(line)
	if m == nil {
		return nil, newInvalidWarc("not a WARC version line: %q", line)
	}
	switch line {
	case V1_0.txt:
		return V1_0, nil
	case V1_1.txt:
		return V1_1, nil
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	return &WarcVersion{Major: major, Minor: minor, txt: line}, nil
}

// Record is a decoded WARC record: an eagerly-materialized header multimap
// paired with a lazy Body.
type Record struct {
	Version *WarcVersion
	Headers WarcFields
	Body    *RecordBody
}

// Type returns the raw WARC-Type value, or ErrMissingWarcHeader if absent.
func (r *Record) Type() (string, error) {
	if !r.Headers.Has(WarcType) {
		return "", newMissingWarcHeader(WarcType)
	}
	return r.Headers.Get(WarcType), nil
}

// RecordID returns the record's WARC-Record-ID as a bare URN (without the
// surrounding '<' '>'), validating it against the UUID-v4 URN grammar.
func (r *Record) RecordID() (string, error) {
	if !r.Headers.Has(WarcRecordID) {
		return "", newMissingWarcHeader(WarcRecordID)
	}
	raw := trimAngleBrackets(r.Headers.Get(WarcRecordID))
	if !uuidURNRe.MatchString(raw) {
		return "", newWarcHeaderBadValue(WarcRecordID, raw)
	}
	return raw, nil
}

// Date returns the record's WARC-Date, parsed as RFC 3339 / ISO 8601 UTC.
func (r *Record) Date() (time.Time, error) {
	if !r.Headers.Has(WarcDate) {
		return time.Time{}, newMissingWarcHeader(WarcDate)
	}
	raw := r.Headers.Get(WarcDate)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, newWarcHeaderBadValue(WarcDate, raw)
	}
	return t, nil
}

// WarcinfoID returns the record's WARC-Warcinfo-ID, or ("", nil) if the
// header is absent — unlike Type/RecordID/Date, WarcinfoID is not one of
// the four mandatory-on-emit headers, so its absence is not an error.
func (r *Record) WarcinfoID() (string, error) {
	if !r.Headers.Has(WarcWarcinfoID) {
		return "", nil
	}
	raw := trimAngleBrackets(r.Headers.Get(WarcWarcinfoID))
	if !uuidURNRe.MatchString(raw) {
		return "", newWarcHeaderBadValue(WarcWarcinfoID, raw)
	}
	return raw, nil
}

// ContentType returns the record's Content-Type, or "" if absent (not an
// error: Content-Type is recognized but not mandatory).
func (r *Record) ContentType() string {
	return r.Headers.Get(ContentType)
}

// ContentLength returns the record's Content-Length. Unlike the typed
// accessors above, this never fails: parsing already guarantees a valid
// non-negative integer, so it's exposed as a plain value.
func (r *Record) ContentLength() int64 {
	n, _ := parseContentLength(r.Headers)
	return n
}

func trimAngleBrackets(s string) string {
	if len(s) >= 2 && s[0] == '<' && s[len(s)-1] == '>' {
		return s[1 : len(s)-1]
	}
	return s
}

var uuidURNRe = regexp.MustCompile(`^urn:uuid:[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[0-9a-f]{4}-[0-9a-f]{12}$`)
