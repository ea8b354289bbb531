// Package server provides HTTP routing, middleware, and handlers for the widget backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method-prefixed patterns.
//
// # Server
//
// [Server] wires the pieces together: account auth (bcrypt password login with
// database-backed session tokens), the Spotify OAuth linkage flow, widget
// token issuance/validation, widget config storage, and the embeddable
// now-playing page. Cross-cutting middleware covers panic recovery, request
// logging, Prometheus metrics, per-IP rate limiting, and cookie sessions.
//
// # OAuth Callback Handlers
//
// Two callback paths exist. The web flow ties the callback to the logged-in
// browser session: state lives in the session and the exchanged token is
// persisted as the user's linkage row. [OAuthHandler] serves the CLI link
// flow instead, where a temporary localhost server catches the redirect and
// hands the token back over a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
