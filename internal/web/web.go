// Package web implements an HTMX-based dashboard mirroring the TUI functionality.
//
// # HTMX Dashboard Implementation Plan
//
// # Architecture
//
// The dashboard replicates widget administration using server-side rendering
// with HTMX for dynamic updates. Each view corresponds to a template and handler:
//
//  1. Widget List: Server-rendered table with hx-get for config preview
//  2. Config Editor: HTMX partial swap with a JSON textarea + save button
//  3. Link Status: Spotify connection state with relink prompt
//  4. Live Preview: The embeddable widget rendered inline via iframe
//
// Core Components
//
//   - HTTP Server: reuses the server package's router and middleware stack
//   - Service Integration: uses the same services.Service and token issuer as the API
//   - Session Management: alexedwards/scs sessions already carried by the server
//
// Routes
//
//	GET  /dashboard                 → Widget list view (requires auth)
//	GET  /dashboard/widgets/{token} → HTMX partial: config editor
//	PUT  /dashboard/widgets/{token} → Save config, return refreshed partial
//	GET  /dashboard/account         → Spotify link status
//
// Templates
//
//   - base.html: Layout with navigation, auth status
//   - widgets.html: Table with hx-get on rows
//   - config.html: Partial template for the editor
//   - account.html: Link status and relink button
//
// # State Management
//
// All state already lives in the widget and account rows; the dashboard adds
// no storage of its own. Session cookies carry authentication only.
//
// Implementation Tasks
//
//  1. Template structure with HTMX integration
//  2. Widget list handler reusing repositories.WidgetRepository
//  3. Config editor partial with validation errors surfaced inline
//  4. Account status handler wrapping the existing unlink endpoint
//  5. Error handling and validation
//
// # Testing Strategy
//
// Use httptest:
//   - Mock services.Service for link status
//   - Validate HTMX headers and response structure
package web
