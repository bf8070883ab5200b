package verify

import (
	"strings"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
)

// Reason is the user-facing category of a verification failure. Every
// reason pairs with a resend affordance somewhere; none is a dead end.
type Reason int

const (
	ReasonGeneric Reason = iota
	ReasonExpired
	ReasonWrongBrowser
	ReasonConsumed
)

// Tag is the machine-readable error tag forwarded to the sign-in screen.
func (r Reason) Tag() string {
	if r == ReasonExpired {
		return "link_expired"
	}
	return "verification_failed"
}

func (r Reason) Message() string {
	switch r {
	case ReasonExpired:
		return "This verification link has expired. Please request a new one."
	case ReasonWrongBrowser:
		return "This link must be opened in the same browser you signed up from. Please request a new one and open it here."
	case ReasonConsumed:
		return "This verification link has already been used. Please request a new one."
	default:
		return "Verification failed. Please try again."
	}
}

// Classify maps a link-carried provider error onto a reason. Link-carried
// errors cannot be retried; classification only decides what to tell the
// user.
func Classify(st State) Reason {
	desc := strings.ToLower(st.ErrorDescription)
	switch {
	case st.ErrorCode == identity.CodeOTPExpired, st.ErrorName == identity.CodeAccessDenied:
		return ReasonExpired
	case strings.Contains(desc, "code verifier"):
		return ReasonWrongBrowser
	case strings.Contains(desc, "already been used"):
		return ReasonConsumed
	default:
		return ReasonGeneric
	}
}

// ClassifyExchange maps a failed code exchange onto a reason.
func ClassifyExchange(err error) Reason {
	switch {
	case identity.IsWrongVerifier(err):
		return ReasonWrongBrowser
	case identity.IsCodeConsumed(err):
		return ReasonConsumed
	default:
		if ae, ok := identity.AsAuthError(err); ok && ae.Code == identity.CodeOTPExpired {
			return ReasonExpired
		}
		return ReasonGeneric
	}
}
