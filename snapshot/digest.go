package snapshot

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 keyed hash of blob content.
type Digest [32]byte

// blobDomainKey is the ASCII domain name zero-padded to 32 bytes.
var blobDomainKey = [32]byte{
	'f', 'a', 'k', 'e', 'd', 'b', '.', 's', 'n', 'a', 'p', 's', 'h', 'o', 't', '.',
	'b', 'l', 'o', 'b', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// DigestOf hashes blob content.
func DigestOf(data []byte) Digest {
	hasher, err := blake3.NewKeyed(blobDomainKey[:])
	if err != nil {
		panic("snapshot: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d
}

// String returns the hex form of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
