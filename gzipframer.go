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
	"compress/gzip"
	"io"
)

// openGzipMember wraps r (assumed positioned exactly at the start of a gzip
// member) in a *gzip.Reader configured to stop at that member's boundary
// instead of transparently concatenating the next member: each WARC record
// is the sole payload of one gzip member.
func openGzipMember(r io.Reader) (*gzip.Reader, error) {
	g, err := gzip.NewReader(r)
	if err != nil {
		return nil, newInvalidWarc("invalid gzip member: %v", err)
	}
	g.Multistream(false)
	return g, nil
}

// reopenGzipMember re-establishes a read position inside a gzip member that
// started at memberStart in src, discarding skip decompressed bytes before
// returning: a seekable source backing a stale-but-live body handle is
// re-read by re-opening its member rather than trusting any cached reader.
func reopenGzipMember(src ByteSource, memberStart, skip int64) (io.Reader, error) {
	if err := src.Seek(memberStart); err != nil {
		return nil, err
	}
	g, err := openGzipMember(src)
	if err != nil {
		return nil, err
	}
	if skip > 0 {
		if _, err := io.CopyN(io.Discard, g, skip); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// reopenPlainRegion re-seeks a seekable, non-compressed ByteSource to an
// absolute body offset, the uncompressed counterpart of reopenGzipMember.
func reopenPlainRegion(src ByteSource, bodyStart, skip int64) (io.Reader, error) {
	if err := src.Seek(bodyStart + skip); err != nil {
		return nil, err
	}
	return src, nil
}
