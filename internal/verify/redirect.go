package verify

import (
	"fmt"
	"net/url"
)

// State is the transient verification payload carried entirely in the URL
// a verification email opens. It exists for one flow instance and is never
// persisted.
type State struct {
	// Code is the one-time PKCE exchange token, when the provider uses
	// code delivery.
	Code string

	// Fragment-delivered tokens, when the provider uses implicit delivery.
	AccessToken  string
	RefreshToken string
	Type         string // "signup" | "recovery" | "magiclink"

	// Provider-reported failure, carried instead of tokens.
	ErrorName        string
	ErrorCode        string
	ErrorDescription string

	// Application hints embedded in the original outbound redirect target.
	Role  string
	Phone string
}

func (s State) HasError() bool {
	return s.ErrorName != "" || s.ErrorCode != ""
}

func (s State) HasCode() bool {
	return s.Code != ""
}

// HasHashTokens reports implicit-flow delivery: session tokens, or a
// signup/recovery marker, arrived in the fragment instead of an exchange
// code.
func (s State) HasHashTokens() bool {
	return s.AccessToken != "" || s.Type == "signup" || s.Type == "recovery"
}

// ParseURL extracts the redirect state from a full redirect URL, reading
// both the query (exchange code, forwarded hints) and the fragment
// (implicit tokens or provider error fields).
func ParseURL(raw string) (State, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return State{}, fmt.Errorf("verify: bad redirect url: %w", err)
	}
	st := fromValues(u.Query(), State{})
	if u.Fragment != "" {
		if frag, err := url.ParseQuery(u.Fragment); err == nil {
			st = fromValues(frag, st)
		}
	}
	return st, nil
}

func fromValues(v url.Values, st State) State {
	pick := func(cur, key string) string {
		if s := v.Get(key); s != "" {
			return s
		}
		return cur
	}
	st.Code = pick(st.Code, "code")
	st.AccessToken = pick(st.AccessToken, "access_token")
	st.RefreshToken = pick(st.RefreshToken, "refresh_token")
	st.Type = pick(st.Type, "type")
	st.ErrorName = pick(st.ErrorName, "error")
	st.ErrorCode = pick(st.ErrorCode, "error_code")
	st.ErrorDescription = pick(st.ErrorDescription, "error_description")
	st.Role = pick(st.Role, "role")
	st.Phone = pick(st.Phone, "phone")
	return st
}
