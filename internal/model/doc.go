// Package model defines the core data structures for OS fingerprint
// reconciliation.
//
// This package contains the following main types:
//   - OSData: the decoded input snapshot handed over by the upstream
//     report decoder
//   - OSFingerprint: the reconciled per-host result and its query surface
//   - OSMatch / OSClass / CPE: the record types the result owns
//   - Report / Summary: presentation aggregates used by writers and the
//     history store
//
// Design decision: We keep all record types in one package to avoid
// circular dependencies. Multiple packages (decode, analyze, report,
// database, pipeline) need these types, so centralizing them prevents
// import cycles.
//
// OSFingerprint, OSMatch, OSClass and CPE are immutable once built and
// expose accessor methods instead of fields; everything a consumer reads
// has already been validated and normalized at construction time.
package model
