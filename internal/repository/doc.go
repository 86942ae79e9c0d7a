// Package repository holds the PostgreSQL data access layer: festivals,
// admins, visitor passwords, the donation ledger (collections and
// expenses), the activity log and media rows.
//
// Credentials answers the session revocation checks; its lookups are on
// the hot path of the 30-second revalidation loop and stay single-row.
// Monetary amounts are stored in paise to keep arithmetic exact.
package repository
