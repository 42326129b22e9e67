// Package models defines domain entities and persistence interfaces for the rango directory.
//
// The package contains two categories of types:
//
// 1. Persistent Entities: Database-backed models with identity, sequence numbers and timestamps
//   - [Category] : Named grouping of pages with a likes counter and a slug derived from its name
//   - [Page] : Titled link owned by exactly one category, with a views counter
//   - [User] : Account with a bcrypt password hash and an active flag
//   - [UserProfile] : Optional website and picture reference for a user
//
// 2. Data Transfer Objects (DTOs): Serializable snapshots used by export and seed tooling
//   - [DirectoryExport], [CategoryExport], [PageExport]
//
// Counters (likes, views) are increment-only; entities expose setters for them only so repositories can load rows.
// The Repository[T] interface defines standard data access without a delete path.
package models
