// Package session owns the lifecycle of the current identity (visitor,
// admin, or super-admin) for a festival-code context.
//
// A session is a locally persisted record keyed session:<festivalCode>,
// held in a primary and a fallback store composed through Resilient. The
// authority for whether a session is still honorable is re-derived on
// each validation pass by asking the backend whether the credential that
// created it is still active; there is no server-side session table.
//
// The pieces:
//
//   - Session: tagged-union record with a "type" discriminant.
//   - Store / CacheStore / Resilient: persistence with dual-store
//     redundancy.
//   - Manager: load/save/logout with a 30-second creation grace period
//     and daily expiry anchored to Indian Standard Time.
//   - Validator: the revocation policy table over a CredentialSource.
//   - Monitor: the 30-second revalidation loop with warning-then-forced
//     logout sequencing for soft revocations.
package session
