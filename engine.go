package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/tunevault/authcore/keys"
	"github.com/tunevault/authcore/password"
	"github.com/tunevault/authcore/refresh"
	"github.com/tunevault/authcore/token"
)

// Engine is the authentication facade. Construct it through
// [Builder.Build]; afterwards it is immutable and safe for concurrent
// use. Token validation, signing, and hashing are pure CPU work on the
// boot-time keypair; the refresh store is the only external collaborator
// touched per request.
type Engine struct {
	config       Config
	keypair      *keys.Keypair
	issuer       *token.Issuer
	refreshStore refresh.Store
	passwordHash *password.Hasher
	users        UserStore
	audit        *auditDispatcher
	metrics      *Metrics
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events lost to dispatcher backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine's metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Signup registers a new user: rejects taken usernames, hashes the
// password under the configured Argon2id parameters with a fresh salt,
// and hands the record to the user store.
func (e *Engine) Signup(ctx context.Context, username, passwd string) error {
	if e == nil || e.users == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}
	if username == "" || passwd == "" {
		e.emitAudit(ctx, auditEventSignupFailure, false, "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "empty_field"}
		})
		return ErrInvalidCredentials
	}

	existing, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		e.emitAudit(ctx, auditEventSignupFailure, false, "", "", err, func() map[string]string {
			return map[string]string{"identifier": username, "reason": "lookup_failed"}
		})
		return err
	}
	if existing != nil {
		e.metricInc(MetricSignupDuplicate)
		e.emitAudit(ctx, auditEventSignupDuplicate, false, existing.UserID, "", ErrAccountExists, func() map[string]string {
			return map[string]string{"identifier": username}
		})
		return ErrAccountExists
	}

	hash, err := e.passwordHash.Hash(passwd)
	if err != nil {
		e.emitAudit(ctx, auditEventSignupFailure, false, "", "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{"identifier": username, "reason": "hash_policy"}
		})
		return ErrPasswordPolicy
	}

	if err := e.users.Create(ctx, username, hash); err != nil {
		e.emitAudit(ctx, auditEventSignupFailure, false, "", "", err, func() map[string]string {
			return map[string]string{"identifier": username, "reason": "create_failed"}
		})
		return err
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignupSuccess, true, "", "", nil, func() map[string]string {
		return map[string]string{"identifier": username}
	})

	return nil
}

// Login verifies username and password and, on success, issues an
// access+refresh pair and records the refresh identifier in the store.
// Unknown usernames and wrong passwords are indistinguishable through
// [ErrInvalidCredentials]; the audit stream carries the distinction.
func (e *Engine) Login(ctx context.Context, username, passwd string) (*TokenPair, error) {
	if e == nil || e.users == nil || e.passwordHash == nil || e.issuer == nil {
		return nil, ErrEngineNotReady
	}
	if passwd == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"identifier": username, "reason": "empty_password"}
		})
		return nil, ErrInvalidCredentials
	}

	cred, err := e.users.FindByUsername(ctx, username)
	if err != nil || cred == nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, func() map[string]string {
			reason := "user_not_found"
			if err != nil {
				reason = "lookup_failed"
			}
			return map[string]string{"identifier": username, "reason": reason}
		})
		return nil, ErrInvalidCredentials
	}

	ok, err := e.passwordHash.Verify(passwd, cred.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, cred.UserID, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"identifier": username, "reason": "password_mismatch"}
		})
		return nil, ErrInvalidCredentials
	}

	if e.config.Password.UpgradeOnLogin {
		if needsUpgrade, err := e.passwordHash.NeedsUpgrade(cred.PasswordHash); err == nil && needsUpgrade {
			// Rehash is best-effort and must not block a successful login;
			// failures are reported on the audit stream only.
			if upgradedHash, err := e.passwordHash.Hash(passwd); err == nil {
				if err := e.users.UpdatePasswordHash(ctx, cred.UserID, upgradedHash); err != nil {
					e.emitAudit(ctx, auditEventHashUpgradeSkip, false, cred.UserID, "", err, func() map[string]string {
						return map[string]string{"identifier": username, "reason": "update_failed"}
					})
				}
			} else {
				e.emitAudit(ctx, auditEventHashUpgradeSkip, false, cred.UserID, "", err, func() map[string]string {
					return map[string]string{"identifier": username, "reason": "hash_failed"}
				})
			}
		}
	}
	passwd = ""

	pair, refreshID, err := e.issuePair(ctx, cred.UserID)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, cred.UserID, refreshID, err, func() map[string]string {
			return map[string]string{"identifier": username, "reason": "issue_pair_failed"}
		})
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, cred.UserID, refreshID, nil, func() map[string]string {
		return map[string]string{"identifier": username}
	})

	return pair, nil
}

// Refresh redeems a refresh token for a brand-new access+refresh pair.
// The old token is consumed atomically: under concurrent redemption of
// the same token exactly one caller succeeds. Every invalid outcome
// (malformed, forged, expired, wrong kind, unknown, or already consumed)
// collapses into [ErrRefreshInvalid] so callers learn nothing about
// which it was. Store transport failures surface separately as
// [ErrStoreUnavailable].
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.refreshStore == nil || e.issuer == nil {
		return nil, ErrEngineNotReady
	}

	tok, err := token.Parse(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", "", err, func() map[string]string {
			return map[string]string{"reason": "parse_failed"}
		})
		return nil, ErrRefreshInvalid
	}
	if err := tok.Validate(e.keypair, time.Now().UTC()); err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", tok.Identifier, err, func() map[string]string {
			return map[string]string{"reason": "validate_failed"}
		})
		return nil, ErrRefreshInvalid
	}
	if tok.Kind != token.KindRefresh {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, tok.Identifier, "", token.ErrKind, func() map[string]string {
			return map[string]string{"reason": "access_token_presented"}
		})
		return nil, ErrRefreshInvalid
	}

	userID, err := e.refreshStore.GetDel(ctx, tok.Identifier)
	if err != nil {
		if errors.Is(err, refresh.ErrNotFound) {
			e.metricInc(MetricRefreshFailure)
			e.metricInc(MetricRefreshReplay)
			e.emitAudit(ctx, auditEventRefreshReplay, false, "", tok.Identifier, ErrRefreshInvalid, nil)
			return nil, ErrRefreshInvalid
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", tok.Identifier, err, func() map[string]string {
			return map[string]string{"reason": "store_unavailable"}
		})
		return nil, ErrStoreUnavailable
	}

	pair, newRefreshID, err := e.issuePair(ctx, userID)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, userID, tok.Identifier, err, func() map[string]string {
			return map[string]string{"reason": "issue_pair_failed"}
		})
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, userID, newRefreshID, nil, nil)

	return pair, nil
}

// Validate checks an access token: parse, signature, expiry, and kind.
// All failures collapse into [ErrUnauthorized]. This is the hot path; it
// never touches the refresh store.
func (e *Engine) Validate(ctx context.Context, tokenStr string) (*Identity, error) {
	if e == nil || e.keypair == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	tok, err := token.Parse(tokenStr)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		e.emitAudit(ctx, auditEventValidateFailure, false, "", "", err, func() map[string]string {
			return map[string]string{"reason": "parse_failed"}
		})
		return nil, ErrUnauthorized
	}
	if err := tok.Validate(e.keypair, time.Now().UTC()); err != nil {
		e.metricInc(MetricValidateFailure)
		e.emitAudit(ctx, auditEventValidateFailure, false, "", "", err, func() map[string]string {
			return map[string]string{"reason": "validate_failed"}
		})
		return nil, ErrUnauthorized
	}
	if tok.Kind != token.KindAccess {
		e.metricInc(MetricValidateFailure)
		e.emitAudit(ctx, auditEventValidateFailure, false, "", tok.Identifier, token.ErrKind, func() map[string]string {
			return map[string]string{"reason": "refresh_token_presented"}
		})
		return nil, ErrUnauthorized
	}

	e.metricInc(MetricValidateSuccess)

	return &Identity{UserID: tok.Identifier}, nil
}

// issuePair mints an access+refresh pair for userID and records the
// refresh identifier in the store with a fresh TTL. The refresh
// identifier is returned for audit correlation.
func (e *Engine) issuePair(ctx context.Context, userID string) (*TokenPair, string, error) {
	access, err := e.issuer.AccessToken(userID)
	if err != nil {
		return nil, "", err
	}

	refreshTok, err := e.issuer.RefreshToken()
	if err != nil {
		return nil, "", err
	}

	if err := e.refreshStore.SetWithTTL(ctx, refreshTok.Identifier, userID, e.issuer.RefreshTTL()); err != nil {
		return nil, refreshTok.Identifier, ErrStoreUnavailable
	}

	return &TokenPair{
		AccessToken:  access.String(),
		RefreshToken: refreshTok.String(),
	}, refreshTok.Identifier, nil
}
