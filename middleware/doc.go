// Package middleware provides net/http adapters for the engine.
//
// Identity handling is split into two phases. [Resolve] runs on every
// request: it reads the Authorization bearer header, validates the
// token through the engine, and records an [Outcome] in the request
// context without ever rejecting. [RequireAuth] is the enforcement
// gate for protected routes; it returns 401 whenever the recorded
// outcome is not a resolved identity. Handlers on mixed routes read
// [OutcomeFromContext] directly and decide for themselves.
package middleware
