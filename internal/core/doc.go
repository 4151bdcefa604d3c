// Package core provides the business logic for ledger imports.
//
// The package ties the pipeline packages together and is independent of any
// transport. The web server, the ledgerctl command and the tests all drive
// the same [Service].
//
// # Import Pipeline
//
// [Service.Import] runs one file through these stages:
//
//  1. tabular: detect the encoding, strip the BOM, split lines and cells
//  2. columns: map header cells to canonical fields
//  3. validate: check each data row on its own
//  4. builder: turn valid rows into entries with a signature each
//  5. dedupe: drop entries whose signature the scope already holds
//  6. store: persist the remaining entries
//
// Unsupported and empty files fail the whole import. Invalid rows and
// duplicates are counted and reported and never fail it.
//
// # Degraded Mode
//
// When the store is unreachable Import still returns the parsed entries.
// The result has Degraded set and the error wraps
// ledger.ErrPersistenceUnavailable, so callers can show the data and ask the
// user to import again later. Duplicates are then checked against the last
// signatures the [SignatureCache] loaded for the scope.
//
// # Profiles
//
// A [Profile] names the canonical columns a kind of export is expected to
// carry. The [Registry] holds the built-in general ledger, trial balance and
// bank statement profiles; callers may register more.
//
// # Concurrency
//
// Imports of different clients run in parallel up to the [ImportLimiter]
// capacity. A Service holds no per-client state apart from the signature
// cache, which is safe for concurrent use.
//
// # Error Messages
//
// [MapError] converts any error returned here into a [UserMessage] with a
// support code. See error_messages.go for the code table.
package core
