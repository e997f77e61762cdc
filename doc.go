// Package authcore is a self-issued bearer-token authentication engine:
// it mints, signs, validates, and rotates RSA-PSS-signed access and
// refresh tokens without delegating to an external identity provider.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder],
// [Config], the [UserStore] collaborator interface, and value types
// (TokenPair, Identity, MetricsSnapshot). Token encoding lives in
// token/ and b64/, key material handling in keys/, credential hashing in
// password/, and the external TTL store capability in refresh/. HTTP
// integration lives in middleware/ and imports this package, never the
// other way around.
//
// # Failure posture
//
// Every validation failure is a typed, local error; the engine never
// panics on untrusted input. The single fatal condition is key
// bootstrap: [Builder.Build] refuses to produce an Engine without a
// valid keypair, so a process that cannot sign or verify never starts
// serving.
package authcore
