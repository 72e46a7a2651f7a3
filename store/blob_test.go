package store_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/fakedb/store"
)

func TestBlobStream_RoundTrip(t *testing.T) {
	s := newStorage(t)
	blobID := uuid.New()
	payload := []byte("binary content")

	require.NoError(t, s.SetBlobStream(blobID, bytes.NewReader(payload)))

	r := s.GetBlobStream(blobID)
	require.NotNil(t, r)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	again := s.GetBlobStream(blobID)
	assert.NotSame(t, r, again)
	assert.Equal(t, int64(len(payload)), again.Size())
	assert.Equal(t, len(payload), again.Len(), "fresh reader starts at position 0")
}

func TestBlobStream_IsACopy(t *testing.T) {
	s := newStorage(t)
	blobID := uuid.New()
	payload := []byte("abc")
	s.SetBlob(blobID, payload)
	payload[0] = 'x'

	data, ok := s.Blob(blobID)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), data)

	data[1] = 'y'
	again, _ := s.Blob(blobID)
	assert.Equal(t, []byte("abc"), again)
}

func TestBlobStream_Missing(t *testing.T) {
	s := newStorage(t)
	assert.Nil(t, s.GetBlobStream(uuid.New()))
	_, ok := s.Blob(uuid.New())
	assert.False(t, ok)
}

func TestBlobStream_NilRejected(t *testing.T) {
	s := newStorage(t)
	assert.ErrorIs(t, s.SetBlobStream(uuid.New(), nil), store.ErrInvalidArgument)
}

func TestBlobStream_KeepsSeekerPosition(t *testing.T) {
	s := newStorage(t)
	blobID := uuid.New()
	r := bytes.NewReader([]byte("0123456789"))
	_, err := r.Seek(4, io.SeekStart)
	require.NoError(t, err)

	require.NoError(t, s.SetBlobStream(blobID, r))

	pos, err := r.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)
	data, _ := s.Blob(blobID)
	assert.Equal(t, []byte("456789"), data)
}

func TestBlobStream_LastWriteWins(t *testing.T) {
	s := newStorage(t)
	blobID := uuid.New()
	require.NoError(t, s.SetBlobStream(blobID, strings.NewReader("first")))
	require.NoError(t, s.SetBlobStream(blobID, strings.NewReader("second")))

	data, _ := s.Blob(blobID)
	assert.Equal(t, "second", string(data))
	assert.Equal(t, []uuid.UUID{blobID}, s.BlobIDs())
}

func TestRemoveBlob(t *testing.T) {
	s := newStorage(t)
	blobID := uuid.New()
	s.SetBlob(blobID, []byte("x"))

	assert.True(t, s.RemoveBlob(blobID))
	assert.False(t, s.RemoveBlob(blobID))
	assert.Nil(t, s.GetBlobStream(blobID))
	assert.Empty(t, s.BlobIDs())
}
