package store

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
)

// GetBlobStream returns a reader over a copy of the blob, positioned at
// its start, or nil when no blob is stored under blobID.
func (s *Storage) GetBlobStream(blobID uuid.UUID) *bytes.Reader {
	data, ok := s.Blob(blobID)
	if !ok {
		return nil
	}
	return bytes.NewReader(data)
}

// SetBlobStream stores everything remaining in r under blobID. Readers
// that implement io.Seeker are returned to the position they had.
func (s *Storage) SetBlobStream(blobID uuid.UUID, r io.Reader) error {
	if r == nil {
		return fmt.Errorf("%w: blob stream is required", ErrInvalidArgument)
	}

	var (
		start  int64
		seeker io.Seeker
	)
	if sk, ok := r.(io.Seeker); ok {
		pos, err := sk.Seek(0, io.SeekCurrent)
		if err == nil {
			seeker, start = sk, pos
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read blob %s: %w", blobID, err)
	}
	if seeker != nil {
		if _, err := seeker.Seek(start, io.SeekStart); err != nil {
			return fmt.Errorf("rewind blob %s: %w", blobID, err)
		}
	}

	s.SetBlob(blobID, data)
	return nil
}

// SetBlob stores a copy of data under blobID, replacing any previous blob.
func (s *Storage) SetBlob(blobID uuid.UUID, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[blobID] = bytes.Clone(data)
}

// Blob returns a copy of the blob stored under blobID.
func (s *Storage) Blob(blobID uuid.UUID) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[blobID]
	if !ok {
		return nil, false
	}
	return bytes.Clone(data), true
}

// RemoveBlob deletes the blob stored under blobID. It reports whether a
// blob was stored.
func (s *Storage) RemoveBlob(blobID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[blobID]
	delete(s.blobs, blobID)
	return ok
}

// BlobIDs returns the identifiers of every stored blob, sorted.
func (s *Storage) BlobIDs() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(s.blobs))
	for bid := range s.blobs {
		out = append(out, bid)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
