// Package store provides an in-memory content tree with versioned fields
// and on-demand template synthesis.
//
// A [Storage] stands in for one named content database. It is seeded with
// the platform's default tree and keeps every registered [Item] in a
// single identifier index, so content items and templates share one
// identity space.
//
// # Items and fields
//
// Items are built detached and then registered:
//
//	home := store.NewItem("Home")
//	home.AddFieldValue("Title", "Welcome!")
//	if err := s.AddFakeItem(home); err != nil {
//	    return err
//	}
//
// Registration assigns the default parent (content root, or template
// root for templates), computes the lower-cased full path, registers
// declared children recursively and resolves a template.
//
// A [Field] stores values per language and version. Versions start at 1
// and are kept contiguous: adding version N back-fills the missing lower
// versions with empty strings. Shared fields hold one value across every
// language and version.
//
// # Templates
//
// Items registered without a template get a generated one whose shape
// matches their non-standard field names. Items with the same set of
// field names anywhere in the tree share one generated template.
//
// # Ambient storage
//
// [Enter] activates a storage for its database name until the returned
// exit func runs; [Current] returns the active one. [NewContext] and
// [FromContext] carry a storage explicitly.
//
// # Errors
//
// The package defines domain-specific errors:
//
//   - [ErrInvalidArgument] - missing or malformed parameter
//   - [ErrNotFound] - item, source or destination doesn't exist
//   - [ErrParentNotFound] - parent of an item being added doesn't exist; matches [ErrNotFound]
//   - [ErrAlreadyExists] - identifier already registered to another item
//   - [ErrAccessDenied] - item access flags forbid the operation
//   - [ErrNoStorage] - no storage active for a database
//
// Lookups that find nothing return nil, false or "" instead of an error.
package store
