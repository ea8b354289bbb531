// Package models defines domain entities and persistence interfaces for the Beatify backend.
//
// Persistent entities are database-backed models with full lifecycle management:
//   - [User] : Beatify accounts with password authentication and Spotify linkage state
//   - [AuthToken] : login session tokens, invalidated by stamping expired_at
//   - [SpotifyAccount] : one-to-one OAuth linkage holding per-user client credentials and the rotating refresh token
//   - [Widget] : embeddable now-playing widgets keyed by an opaque widget token, one per (username, platform)
//
// All persistent entities implement the Model interface providing ID generation, timestamps, and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
