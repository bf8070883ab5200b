package identity

import "context"

// Provider is the sole channel for credential operations against the
// external identity service. One instance is constructed at startup and
// injected into every component that needs it. All methods hit the
// network; transport failures surface as *TransientError and
// provider-level rejections as *AuthError.
type Provider interface {
	// SignInWithPassword trades credentials for a session. Fails with
	// CodeInvalidCredentials on mismatch.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// RequestMagicLink emails a one-time verification link. redirectTo is
	// embedded in the link as the post-verification destination. No
	// session is created by this call.
	RequestMagicLink(ctx context.Context, email, redirectTo string) error

	// RequestPasswordRecovery emails a one-time recovery link. redirectTo
	// is embedded in the link; the session it establishes carries a
	// recovery marker. No session is created by this call.
	RequestPasswordRecovery(ctx context.Context, email, redirectTo string) error

	// ExchangeCode redeems a one-time exchange code for a session. The
	// code is consumed whether or not the call succeeds, so callers must
	// invoke this at most once per code value.
	ExchangeCode(ctx context.Context, code string) (*Session, error)

	// GetUser fetches the identity behind a live access token.
	GetUser(ctx context.Context, accessToken string) (*Identity, error)

	// UpdatePassword sets a new password for the identity behind the
	// token. Requires a live session.
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error

	// SignOut revokes the session behind the token.
	SignOut(ctx context.Context, accessToken string) error
}
