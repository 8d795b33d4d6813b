package gowarc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionLine(t *testing.T) {
	v, err := parseVersionLine("WARC/1.1")
	require.NoError(t, err)
	assert.Same(t, V1_1, v)

	v, err = parseVersionLine("WARC/1.0")
	require.NoError(t, err)
	assert.Same(t, V1_0, v)

	v, err = parseVersionLine("WARC/2.5")
	require.NoError(t, err)
	assert.Equal(t, 2, v.Major)
	assert.Equal(t, 5, v.Minor)
}

func TestParseVersionLineRejectsNonWarc(t *testing.T) {
	_, err := parseVersionLine("HTTP/1.1 200 OK")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWarc)
}

func TestRecordTypeMissing(t *testing.T) {
	rec := &Record{Headers: WarcFields{}}
	_, err := rec.Type()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingWarcHeader)
}

func TestRecordTypePresent(t *testing.T) {
	var wf WarcFields
	wf.Add(WarcType, "resource")
	rec := &Record{Headers: wf}

	typ, err := rec.Type()
	require.NoError(t, err)
	assert.Equal(t, "resource", typ)
}

func TestRecordIDBadValue(t *testing.T) {
	var wf WarcFields
	wf.Add(WarcRecordID, "<rthdfswf>")
	rec := &Record{Headers: wf}

	_, err := rec.RecordID()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWarcHeaderBadValue)
	assert.Equal(t, "<rthdfswf>", rec.Headers.Get(WarcRecordID))
}

func TestRecordIDValid(t *testing.T) {
	var wf WarcFields
	wf.Add(WarcRecordID, "<urn:uuid:e9a0ad50-6e40-4c2f-8c1d-1a2b3c4d5e6f>")
	rec := &Record{Headers: wf}

	id, err := rec.RecordID()
	require.NoError(t, err)
	assert.Equal(t, "urn:uuid:e9a0ad50-6e40-4c2f-8c1d-1a2b3c4d5e6f", id)
}

func TestRecordDateBadValue(t *testing.T) {
	var wf WarcFields
	wf.Add(WarcDate, "bonjour")
	rec := &Record{Headers: wf}

	_, err := rec.Date()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWarcHeaderBadValue)
}

func TestRecordWarcinfoIDAbsentIsNotAnError(t *testing.T) {
	rec := &Record{Headers: WarcFields{}}

	id, err := rec.WarcinfoID()
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestRecordContentLength(t *testing.T) {
	var wf WarcFields
	wf.Add(ContentLength, "42")
	rec := &Record{Headers: wf}

	assert.Equal(t, int64(42), rec.ContentLength())
}
