// Package services implements the Spotify Web API client used by the widget backend.
//
// # Spotify Implementation
//
// [SpotifyService] handles the authorization code flow and authenticated API
// calls. Access tokens are held in an in-memory per-user cache and refreshed
// on demand from the refresh token stored on the user's linkage row.
//
// # Credentials
//
// Each linkage row carries the client credentials it was created with, so
// refreshes keep working for existing users if the server defaults change.
// Rows missing credentials fall back to the configured defaults.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotLinked] : user has no Spotify linkage row
//   - [shared.ErrMissingCredentials] : no client credentials available for refresh
//   - [shared.ErrRefreshFailed] : Spotify rejected the refresh token, relink needed
//   - [shared.ErrAPIRequest] : HTTP request to the Web API failed
package services
