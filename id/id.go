// Package id provides the 128-bit identifiers used for items, templates
// and fields, together with the platform's well-known identifiers.
//
// An [ID] renders as an upper-case GUID in braces:
//
//	{0DE95AE4-41AB-4D01-9EB0-67441B7C2450}
//
// The zero value is [Null] and means "not set".
package id

import (
	"strings"

	"github.com/google/uuid"
)

// ID is an opaque item, template or field identifier.
type ID uuid.UUID

// Null is the zero identifier.
var Null ID

// New returns a fresh random identifier.
func New() ID {
	return ID(uuid.New())
}

// Parse parses braced, plain or 32-digit hex GUID forms.
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return Null, err
	}
	return ID(u), nil
}

// MustParse is like Parse but panics on malformed input. Intended for
// package-level constants.
func MustParse(s string) ID {
	v, err := Parse(s)
	if err != nil {
		panic("id: " + err.Error())
	}
	return v
}

// IsID reports whether s parses as an identifier.
func IsID(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// IsNull reports whether the identifier is unset.
func (i ID) IsNull() bool {
	return i == Null
}

// String renders {XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX}.
func (i ID) String() string {
	return "{" + strings.ToUpper(uuid.UUID(i).String()) + "}"
}

// Short renders the 32 hex digits without separators.
func (i ID) Short() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.UUID(i).String(), "-", ""))
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields Null.
func (i *ID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*i = Null
		return nil
	}
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}
