package stream

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func archive(t *testing.T, write func(zw *zip.Writer)) *zip.Reader {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write(zw)
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return zr
}

func TestWriterReader_RoundTrip(t *testing.T) {
	entities := []testEntity{
		{ID: "1", Name: "First"},
		{ID: "2", Name: "Second"},
		{ID: "3", Name: "Third"},
	}

	zr := archive(t, func(zw *zip.Writer) {
		w, err := NewWriter(zw, "entities/test.jsonl")
		require.NoError(t, err)
		for _, e := range entities {
			require.NoError(t, w.Write(e))
		}
		assert.Equal(t, 3, w.Count())
	})

	got, err := Collect[testEntity](zr, "entities/test.jsonl")
	require.NoError(t, err)
	assert.Equal(t, entities, got)
}

func TestReader_SkipsBlankLinesAndReportsBadOnes(t *testing.T) {
	rc := io.NopCloser(bytes.NewBufferString("{\"id\":\"1\"}\n\n{broken\n{\"id\":\"2\"}\n"))

	var ids []string
	var errs []error
	for e, err := range NewReader[testEntity](rc).All() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, e.ID)
	}

	assert.Equal(t, []string{"1", "2"}, ids)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "line 3")
}

func TestCollect_StopsAtFirstError(t *testing.T) {
	zr := archive(t, func(zw *zip.Writer) {
		w, err := zw.Create("bad.jsonl")
		require.NoError(t, err)
		_, err = w.Write([]byte("not json\n"))
		require.NoError(t, err)
	})

	_, err := Collect[testEntity](zr, "bad.jsonl")
	assert.ErrorContains(t, err, "bad.jsonl")
}

func TestOpenFile_Missing(t *testing.T) {
	zr := archive(t, func(*zip.Writer) {})

	_, err := OpenFile(zr, "nope.json")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestWriteFileReadFile(t *testing.T) {
	zr := archive(t, func(zw *zip.Writer) {
		require.NoError(t, WriteFile(zw, "doc.json", testEntity{ID: "x", Name: "doc"}))
	})

	var got testEntity
	require.NoError(t, ReadFile(zr, "doc.json", &got))
	assert.Equal(t, testEntity{ID: "x", Name: "doc"}, got)
}
