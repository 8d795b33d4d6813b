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

/*
Gowarc is a record codec and streaming I/O engine for WARC (Web ARChive,
ISO 28500) files: a Reader that lazily decodes a stream of records from an
arbitrary byte source, seekable or not, plain or gzip-member-framed, and a
Writer that emits syntactically valid records, including chunked body
emission and a mandatory opening warcinfo record.

WARC

The WARC format offers a standard way to structure, manage and store billions
of resources collected from the web and elsewhere. To learn more about the
WARC standard, read the specification at
https://iipc.github.io/warc-specifications/specifications/warc-format/warc-1.1/

Reading records

	r, err := gowarc.NewReaderFile(afero.NewOsFs(), "example.warc", false)
	if err != nil {
		return err
	}
	defer r.Close()
	for {
		rec, err := r.Next()
		if err != nil {
			return err
		}
		if rec == nil {
			break
		}
		// use rec.Headers and rec.Body
	}

Writing records

	w, err := gowarc.NewWriterFile(afero.NewOsFs(), "example.warc", true,
		gowarc.WithSoftware("myapp", "1.0"))
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.WriteBlock(gowarc.TypeResource, payload, nil); err != nil {
		return err
	}
*/
package gowarc
