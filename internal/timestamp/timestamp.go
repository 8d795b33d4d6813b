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

// Package timestamp converts between time.Time and the timestamp formats used
// in WARC headers (RFC 3339) and in generated WARC file names (14-digit UTC).
package timestamp

import "time"

// UTC normalizes t to UTC.
func UTC(t time.Time) time.Time {
	return t.In(time.UTC)
}

// UTC14 formats t as a 14-digit UTC timestamp, e.g. 20200105104425.
func UTC14(t time.Time) string {
	return t.In(time.UTC).Format("20060102150405")
}

// UTCW3cIso8601 formats t as the RFC 3339 / ISO 8601 UTC timestamp required
// for the WARC-Date header.
func UTCW3cIso8601(t time.Time) string {
	return t.In(time.UTC).Format(time.RFC3339)
}

// To14 reparses an RFC 3339 timestamp into the 14-digit UTC form.
func To14(s string) (string, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return "", err
	}
	return UTC14(t), nil
}

// From14ToTime parses a 14-digit UTC timestamp back into a time.Time.
func From14ToTime(s string) (time.Time, error) {
	return time.Parse("20060102150405", s)
}
