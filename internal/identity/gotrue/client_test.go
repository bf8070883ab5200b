package gotrue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, "anon-key", 2*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func writeSession(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(map[string]any{
		"access_token":  "at-1",
		"refresh_token": "rt-1",
		"token_type":    "bearer",
		"expires_in":    3600,
		"user": map[string]any{
			"id":                 "6f1f0a3e-8c2b-4c19-9f2e-5a4f2d1c0b9a",
			"email":              "sam@example.com",
			"email_confirmed_at": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func TestSignInWithPassword(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("apikey header = %q", r.Header.Get("apikey"))
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "sam@example.com" || body["password"] != "hunter22" {
			t.Errorf("body = %v", body)
		}
		writeSession(w)
	}))

	sess, err := c.SignInWithPassword(context.Background(), "sam@example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignInWithPassword: %v", err)
	}
	if sess.AccessToken != "at-1" || sess.Identity.Email != "sam@example.com" {
		t.Errorf("session = %+v", sess)
	}
	if !sess.Identity.Verified() {
		t.Error("identity should be verified")
	}
}

func TestSignInWithPasswordRejected(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error_code": "invalid_credentials",
			"msg":        "Invalid login credentials",
		})
	}))

	_, err := c.SignInWithPassword(context.Background(), "sam@example.com", "wrong")
	if !identity.IsInvalidCredentials(err) {
		t.Fatalf("err = %v, want invalid credentials", err)
	}
	if identity.IsTransient(err) {
		t.Error("a provider rejection must not classify as transient")
	}
}

func TestExchangeCodePostsAuthCodeOnce(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("grant_type") != "pkce" {
			t.Errorf("grant_type = %q", r.URL.Query().Get("grant_type"))
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["auth_code"] != "code-123" {
			t.Errorf("auth_code = %q", body["auth_code"])
		}
		writeSession(w)
	}))

	if _, err := c.ExchangeCode(context.Background(), "code-123"); err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestExchangeCodeFailureHasNoRetry(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "access_denied",
			"error_description": "Email link has already been used",
		})
	}))

	_, err := c.ExchangeCode(context.Background(), "code-123")
	if !identity.IsCodeConsumed(err) {
		t.Fatalf("err = %v, want code consumed", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("requests = %d, want exactly 1 even on failure", n)
	}
}

func TestExpiredLinkErrorDecoding(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{
			"code":       "403",
			"error_code": "otp_expired",
			"msg":        "Email link is invalid or has expired",
		})
	}))

	_, err := c.ExchangeCode(context.Background(), "code-123")
	ae, ok := identity.AsAuthError(err)
	if !ok {
		t.Fatalf("err = %v, want *AuthError", err)
	}
	if ae.Code != identity.CodeOTPExpired {
		t.Errorf("code = %q, want otp_expired", ae.Code)
	}
}

func TestRequestMagicLinkCarriesRedirect(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/otp" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("redirect_to"); got != "https://lplate.example/auth/verify?role=instructor" {
			t.Errorf("redirect_to = %q", got)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	}))

	err := c.RequestMagicLink(context.Background(), "sam@example.com",
		"https://lplate.example/auth/verify?role=instructor")
	if err != nil {
		t.Fatalf("RequestMagicLink: %v", err)
	}
}

func TestRequestPasswordRecovery(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recover" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("redirect_to"); got != "https://lplate.example/auth/verify" {
			t.Errorf("redirect_to = %q", got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "sam@example.com" {
			t.Errorf("email = %q", body["email"])
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	}))

	err := c.RequestPasswordRecovery(context.Background(), "sam@example.com",
		"https://lplate.example/auth/verify")
	if err != nil {
		t.Fatalf("RequestPasswordRecovery: %v", err)
	}
}

func TestGetUserRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "6f1f0a3e-8c2b-4c19-9f2e-5a4f2d1c0b9a",
			"email": "sam@example.com",
		})
	}))

	ident, err := c.GetUser(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if ident.Email != "sam@example.com" {
		t.Errorf("identity = %+v", ident)
	}
	if n := calls.Load(); n < 2 {
		t.Errorf("requests = %d, want a retry after the 502", n)
	}
}

func TestGetUserDoesNotRetryRejections(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"error_code": "bad_jwt",
			"msg":        "invalid JWT",
		})
	}))

	if _, err := c.GetUser(context.Background(), "stale-token"); err == nil {
		t.Fatal("expected an error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}

func TestTransportFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c, err := New(srv.URL, "anon-key", time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.SignInWithPassword(context.Background(), "sam@example.com", "pw")
	if !identity.IsTransient(err) {
		t.Fatalf("err = %v, want transient", err)
	}
}
