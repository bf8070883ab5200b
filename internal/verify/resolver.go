package verify

import (
	"context"
	"errors"
	"time"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
)

// ErrNoSession means the bounded retries ran out without a session
// materializing, typically an expired link or one opened on a different
// device.
var ErrNoSession = errors.New("verify: no session established")

// SessionSource is the resolver's view of provider-managed session state:
// a one-time code exchange plus a non-blocking snapshot.
type SessionSource interface {
	ExchangeCode(ctx context.Context, code string) (*identity.Session, error)

	// Snapshot returns the current session if one has materialized, nil
	// otherwise. It must never trigger an exchange.
	Snapshot(ctx context.Context) (*identity.Session, error)
}

// Policy bounds the resolver's waits. The provider's token processing is
// not synchronized with redirect landing, so an immediate check produces
// false negatives; the schedule trades a few seconds of latency for
// reliability without an unbounded hang.
type Policy struct {
	// SettleDelay runs once before polling when hash tokens are present.
	SettleDelay time.Duration
	// RetryWaits holds one wait per snapshot attempt; its length bounds
	// the attempt count.
	RetryWaits []time.Duration
	// QuickDelay runs before the single check taken when the URL carries
	// neither code nor tokens.
	QuickDelay time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		SettleDelay: 1500 * time.Millisecond,
		RetryWaits:  []time.Duration{time.Second, 2 * time.Second, 2 * time.Second},
		QuickDelay:  500 * time.Millisecond,
	}
}

// Resolver absorbs the race between "redirect has landed" and "provider
// has finished materializing the session".
type Resolver struct {
	source SessionSource
	policy Policy
}

func NewResolver(source SessionSource, policy Policy) *Resolver {
	if len(policy.RetryWaits) == 0 {
		policy.RetryWaits = DefaultPolicy().RetryWaits
	}
	return &Resolver{source: source, policy: policy}
}

// Resolve materializes the session for one redirect.
//
// With an exchange code present, the exchange result is authoritative
// either way: the code is consumed even on failure, so nothing is retried.
// With hash tokens, the provider processes them in the background and
// Resolve polls a bounded number of times. With neither, one short-delay
// check covers the session-already-exists case.
func (r *Resolver) Resolve(ctx context.Context, st State) (*identity.Session, error) {
	if st.HasCode() {
		return r.source.ExchangeCode(ctx, st.Code)
	}

	if st.HasHashTokens() {
		if err := wait(ctx, r.policy.SettleDelay); err != nil {
			return nil, err
		}
		for _, d := range r.policy.RetryWaits {
			if err := wait(ctx, d); err != nil {
				return nil, err
			}
			sess, err := r.source.Snapshot(ctx)
			if err != nil {
				return nil, err
			}
			if sess != nil {
				return sess, nil
			}
		}
		return nil, ErrNoSession
	}

	if err := wait(ctx, r.policy.QuickDelay); err != nil {
		return nil, err
	}
	sess, err := r.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
