// Package server provides HTTP routing, middleware, and the handlers of the analysis service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns.
//
// # Routes
//
//   - GET /api/auth/login : sets the [StateCookie] and redirects to the provider
//   - GET /api/auth/callback : checks state, exchanges the code, redirects to the UI with tokens in the fragment
//   - GET /api/playlists : raw playlist collection of the bearer token's owner
//   - GET /api/playlist/{id} : mood profile of one playlist
//   - GET /health
//
// Errors are answered as {"error": "...", "kind": "..."} with the most specific status available.
//
// # Terminal Login
//
// [OAuthHandler] serves the callback of a login started by the CLI. It keeps the state in memory
// and sends the exchanged credentials through a channel. It only processes one callback.
//
// # Logging
//
// Requests are logged with method, path, status, duration and request ID. Tokens, codes and
// Authorization headers are never logged.
package server
