package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authcore "github.com/tunevault/authcore"
)

// ErrNoAuthToken is the resolution outcome when the request carries no
// Authorization bearer credential at all.
var ErrNoAuthToken = errors.New("no authorization token")

// Outcome is the recorded result of identity resolution: either an
// Identity or the error that prevented one. Exactly one of the two
// fields is set.
type Outcome struct {
	Identity *authcore.Identity
	Err      error
}

type outcomeContextKey struct{}

// OutcomeFromContext returns the resolution outcome recorded by
// [Resolve]. ok is false when the request never passed through the
// resolver.
func OutcomeFromContext(ctx context.Context) (*Outcome, bool) {
	out, ok := ctx.Value(outcomeContextKey{}).(*Outcome)
	return out, ok
}

// IdentityFromContext is a convenience accessor for handlers behind
// [RequireAuth], where the outcome is known to carry an identity.
func IdentityFromContext(ctx context.Context) (*authcore.Identity, bool) {
	out, ok := OutcomeFromContext(ctx)
	if !ok || out.Identity == nil {
		return nil, false
	}
	return out.Identity, true
}

// Resolve records the identity resolution outcome for every request and
// always passes the request through. A missing header, a malformed
// header, and a failed validation all produce an error Outcome rather
// than a rejection, so mixed public/protected routing stays a handler
// decision. Enforcement belongs to [RequireAuth].
func Resolve(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out := resolve(r, engine)
			ctx := context.WithValue(r.Context(), outcomeContextKey{}, out)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolve(r *http.Request, engine *authcore.Engine) *Outcome {
	tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return &Outcome{Err: ErrNoAuthToken}
	}
	if engine == nil {
		return &Outcome{Err: authcore.ErrEngineNotReady}
	}

	identity, err := engine.Validate(r.Context(), tokenStr)
	if err != nil {
		return &Outcome{Err: err}
	}
	return &Outcome{Identity: identity}
}

// RequireAuth rejects any request whose recorded outcome is not a
// resolved identity with 401 and a static body. It must sit downstream
// of [Resolve]; a request that skipped resolution is rejected too.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out, ok := OutcomeFromContext(r.Context())
		if !ok || out.Err != nil || out.Identity == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the credential from an Authorization header
// value. Only the "Bearer " scheme is recognized, case-sensitively.
func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
