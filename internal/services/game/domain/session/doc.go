// Package session holds the reconciliation state machine for a match.
//
// A session observes the same facts from up to three unsynchronized sources:
// the in-process broadcast bus, the polled shared room record, and the polled
// ledger. Every producer normalizes what it saw into an Event and feeds it
// through the single Fold function, so duplicate and out-of-order delivery
// are handled in exactly one place. Fold is pure: it never performs I/O and
// returns a new State, which keeps the whole transition table unit-testable.
package session
