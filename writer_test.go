package gowarc

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAllRecords(t *testing.T, data []byte, compressed bool) []*Record {
	t.Helper()
	r := NewReader(NewStreamByteSource(bytes.NewReader(data)), compressed)
	var recs []*Record
	for {
		rec, err := r.Next()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		rec.Body = newStreamRecordBody(bytes.NewReader(body), int64(len(body)), &cursorEpoch{})
		recs = append(recs, rec)
	}
	return recs
}

func TestWriterEmitsWarcinfoBootstrapAndPropagatesID(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(NewByteSink(&buf))

	require.NoError(t, w.WriteBlock(TypeResource, []byte("hello"), nil))
	require.NoError(t, w.Close())

	recs := readAllRecords(t, buf.Bytes(), false)
	require.Len(t, recs, 2)

	typ, err := recs[0].Type()
	require.NoError(t, err)
	assert.Equal(t, TypeWarcinfo, typ)
	warcinfoID, err := recs[0].RecordID()
	require.NoError(t, err)

	typ, err = recs[1].Type()
	require.NoError(t, err)
	assert.Equal(t, TypeResource, typ)
	propagated, err := recs[1].WarcinfoID()
	require.NoError(t, err)
	assert.Equal(t, warcinfoID, propagated)
}

func TestWriterWriteBlockRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(NewByteSink(&buf))

	require.NoError(t, w.WriteBlock(TypeResource, []byte("payload-bytes"), map[string]string{
		"X-Custom": "value",
	}))
	require.NoError(t, w.Close())

	recs := readAllRecords(t, buf.Bytes(), false)
	require.Len(t, recs, 2)
	rec := recs[1]

	assert.Equal(t, "value", rec.Headers.Get("X-Custom"))
	assert.Equal(t, int64(len("payload-bytes")), rec.ContentLength())

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload-bytes", string(body))
}

func TestWriterChunkedOverflowAndRecovery(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(NewByteSink(&buf))

	require.NoError(t, w.StartBlock(TypeResource, 10, nil))
	require.NoError(t, w.WriteBlockBody([]byte("12345")))

	err := w.WriteBlockBody([]byte("123456"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCurrentBlockOverflow)

	err = w.StartBlock(TypeResource, 10, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPreviousBlockNotTerminated)

	err = w.WriteBlock(TypeResource, []byte("x"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPreviousBlockNotTerminated)

	require.NoError(t, w.WriteBlockBody([]byte("67890")))
	require.NoError(t, w.Close())

	recs := readAllRecords(t, buf.Bytes(), false)
	require.Len(t, recs, 2)
	body, err := io.ReadAll(recs[1].Body)
	require.NoError(t, err)
	assert.Equal(t, "1234567890", string(body))
}

func TestWriterCloseWithOpenBlockFails(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(NewByteSink(&buf))
	require.NoError(t, w.StartBlock(TypeResource, 5, nil))

	err := w.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPreviousBlockNotTerminated)
}

func TestWriterTruncateThenAppendPreservesPriorContent(t *testing.T) {
	fs := afero.NewMemMapFs()

	w1, err := NewWriterFile(fs, "archive.warc", true)
	require.NoError(t, err)
	require.NoError(t, w1.WriteBlock(TypeResource, []byte("first"), nil))
	firstSessionOffset := w1.Offset()
	require.NoError(t, w1.Close())

	w2, err := NewWriterFile(fs, "archive.warc", false)
	require.NoError(t, err)
	assert.Equal(t, firstSessionOffset, w2.Offset())
	require.NoError(t, w2.WriteBlock(TypeResource, []byte("second"), nil))
	require.NoError(t, w2.Close())

	data, err := afero.ReadFile(fs, "archive.warc")
	require.NoError(t, err)

	recs := readAllRecords(t, data, false)
	require.Len(t, recs, 4)

	var bodies []string
	for _, rec := range recs {
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(body))
	}
	assert.Contains(t, bodies, "first")
	assert.Contains(t, bodies, "second")
}

func TestWriterGzipRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(NewByteSink(&buf), WithCompression(true))

	require.NoError(t, w.WriteBlock(TypeResource, []byte("compressed-payload"), nil))
	require.NoError(t, w.Close())

	recs := readAllRecords(t, buf.Bytes(), true)
	require.Len(t, recs, 2)
	body, err := io.ReadAll(recs[1].Body)
	require.NoError(t, err)
	assert.Equal(t, "compressed-payload", string(body))
}

func TestWriterGeneratesValidUUIDv4RecordID(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(NewByteSink(&buf))

	require.NoError(t, w.WriteBlock(TypeResource, []byte("x"), nil))
	require.NoError(t, w.Close())

	recs := readAllRecords(t, buf.Bytes(), false)
	for _, rec := range recs {
		_, err := rec.RecordID()
		assert.NoError(t, err)
	}
}

func TestWriterRoundTripRandomized(t *testing.T) {
	for _, compress := range []bool{false, true} {
		rng := rand.New(rand.NewSource(42))
		var buf bytes.Buffer
		w := NewWriter(NewByteSink(&buf), WithCompression(compress))

		var payloads [][]byte
		for i := 0; i < 10; i++ {
			size := rng.Intn(65536)
			payload := make([]byte, size)
			_, err := rng.Read(payload)
			require.NoError(t, err)
			payloads = append(payloads, payload)

			headers := map[string]string{}
			for h := 0; h < 5; h++ {
				headers[randHeaderName(rng, h)] = randHeaderName(rng, h+100)
			}

			if i%2 == 0 || size == 0 {
				require.NoError(t, w.WriteBlock(TypeResource, payload, headers))
				continue
			}

			require.NoError(t, w.StartBlock(TypeResource, int64(size), headers))
			offset := 0
			for offset < size {
				chunk := size/3 + 1
				if offset+chunk > size {
					chunk = size - offset
				}
				require.NoError(t, w.WriteBlockBody(payload[offset:offset+chunk]))
				offset += chunk
			}
		}
		require.NoError(t, w.Close())

		recs := readAllRecords(t, buf.Bytes(), compress)
		require.Len(t, recs, 11) // warcinfo + 10 records

		for i, payload := range payloads {
			rec := recs[i+1]
			body, err := io.ReadAll(rec.Body)
			require.NoError(t, err)
			assert.Equal(t, payload, body)
		}
	}
}

func randHeaderName(rng *rand.Rand, salt int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 6)
	for i := range b {
		b[i] = alphabet[(rng.Intn(len(alphabet))+salt)%len(alphabet)]
	}
	return "X-" + string(b)
}
