// Package repositories implements SQLite persistence for the directory and its accounts.
//
// Each repository handles create, read, update and list operations with atomic sequence generation.
// Nothing is ever deleted by the application, so there are no Delete methods.
//
// Key Implementations:
//   - [CategoryRepository] : Categories with slug lookups, like counting and prefix suggestions
//   - [PageRepository] : Pages per category with view counting and search
//   - [UserRepository] : Accounts with username lookups and activation
//   - [ProfileRepository] : One-to-one user profiles
//
// Sequence numbers provide stable ordering (category #3, page #12) independent of UUIDs and creation timestamps,
// and break ties when ranking by likes or views. The [NextSequence] function atomically increments per-table
// sequence counters in dedicated sequence tables.
package repositories
