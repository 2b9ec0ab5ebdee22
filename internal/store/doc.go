// Package store manages the directory of encrypted file copies.
//
// Stored names encode identity: {uuid}__{sanitizedOriginalName}.{ext}.jmn.
// Lookups run through an ordered list of match strategies so operations
// stay tolerant of users renaming the displayed or stored name.
//
// Best-effort side effects (removing plaintext originals, hiding stored
// files, registering temp files for cleanup, zero-overwriting before
// delete) are reported on the log channel and never escalated to callers.
//
// The store performs no internal locking; it assumes one vault operation
// at a time. Callers exposing concurrent access must serialize store,
// delete and list externally.
package store
