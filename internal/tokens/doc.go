// Package tokens issues and validates widget access tokens.
//
// Two interchangeable issuers implement the [Issuer] interface:
//
//   - [SignedIssuer] mints HMAC-signed JWTs carrying the username and a config
//     snapshot. Validation is stateless; no database read is needed, but the
//     embedded config goes stale if the widget is reconfigured after issuance.
//   - [OpaqueIssuer] mints random identifiers stored on widget rows. Validation
//     is a database lookup and always sees the current config. This is the
//     default mode.
//
// Both issuers refuse to mint tokens for users without a linked Spotify
// account and report failures with shared.ErrInvalidToken / shared.ErrNotLinked
// so callers can map them to HTTP status codes without string matching.
package tokens
