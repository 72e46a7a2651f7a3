package snapshot

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding so equal snapshots encode to
// equal bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Identifiers serialize as their braced text form.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("snapshot: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("snapshot: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes snap to CBOR.
func Marshal(snap *Snapshot) ([]byte, error) {
	return encMode.Marshal(snap)
}

// Unmarshal decodes a snapshot. Malformed input yields ErrCorrupt.
func Unmarshal(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := decMode.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if snap.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, snap.Version)
	}
	return &snap, nil
}

// Encode writes snap to w.
func Encode(w io.Writer, snap *Snapshot) error {
	return encMode.NewEncoder(w).Encode(snap)
}

// Decode reads one snapshot from r.
func Decode(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := decMode.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if snap.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, snap.Version)
	}
	return &snap, nil
}
