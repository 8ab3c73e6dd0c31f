// Package server implements the loopback HTTP server used during account
// authorization.
//
// The login flow opens the Google consent page in a browser and waits for the
// redirect to hit a local callback. [OAuthHandler] validates the state
// parameter, exchanges the authorization code, and hands the token back over
// a channel so the CLI can persist it.
//
// # Components
//
//   - [Router] / [BasicRouter] : minimal method-aware routing over
//     [net/http.ServeMux] with a middleware stack
//   - [Middleware] : handler decorators; [LoggingMiddleware] records every
//     request through the shared logger
//   - [OAuthHandler] : one-shot OAuth2 authorization-code callback handler
package server
