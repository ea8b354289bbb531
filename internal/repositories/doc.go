// Package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type,
// handling CRUD operations, soft deletes, and sequence generation. Widget and
// auth token repositories add entity-specific lookups (by token value) and the
// upsert used for idempotent widget issuance.
package repositories
