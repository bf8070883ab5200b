package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/identity"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/profile"
	"github.com/LPlateLtd/LPlateDemoBuild/internal/session"
)

func signedAccessToken(t *testing.T) string {
	t.Helper()
	claims := identity.Claims{
		Email: "sam@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testIdentityID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func seedAuthedSession(t *testing.T, sessions *memSessions) *http.Cookie {
	t.Helper()
	err := sessions.Create(context.Background(), session.Session{
		SessionID:   "sess-1",
		IdentityID:  testIdentityID,
		Email:       "sam@example.com",
		AccessToken: signedAccessToken(t),
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return &http.Cookie{Name: session.CookieName, Value: "sess-1"}
}

func postJSON(r http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestSignupEmbedsHintsInRedirect(t *testing.T) {
	p := &fakeProvider{}
	r, _ := newTestEnv(p, newMemProfiles())

	rec := postJSON(r, "/auth/signup", `{"email":"sam@example.com","role":"instructor","phone":"+447700900123"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if p.magicCalls != 1 {
		t.Errorf("magic link calls = %d, want 1", p.magicCalls)
	}
	if !strings.HasPrefix(p.lastRedirect, "https://lplate.example/auth/verify?") {
		t.Errorf("redirect = %q", p.lastRedirect)
	}
	if !strings.Contains(p.lastRedirect, "role=instructor") || !strings.Contains(p.lastRedirect, "phone=%2B447700900123") {
		t.Errorf("hints missing from redirect %q", p.lastRedirect)
	}
}

func TestSignupCoercesUnknownRole(t *testing.T) {
	p := &fakeProvider{}
	r, _ := newTestEnv(p, newMemProfiles())

	rec := postJSON(r, "/auth/signup", `{"email":"sam@example.com","role":"superuser"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if !strings.Contains(p.lastRedirect, "role=learner") {
		t.Errorf("redirect = %q, want the role coerced to learner", p.lastRedirect)
	}
}

func TestForgotPasswordSendsRecoveryLink(t *testing.T) {
	p := &fakeProvider{}
	r, _ := newTestEnv(p, newMemProfiles())

	rec := postJSON(r, "/auth/forgot-password", `{"email":"sam@example.com"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if p.recoverCalls != 1 {
		t.Errorf("recovery calls = %d, want 1", p.recoverCalls)
	}
	// The recovery link lands on the same verification flow as signup.
	if p.lastRedirect != "https://lplate.example/auth/verify" {
		t.Errorf("redirect = %q", p.lastRedirect)
	}
}

func TestForgotPasswordRequiresEmail(t *testing.T) {
	p := &fakeProvider{}
	r, _ := newTestEnv(p, newMemProfiles())

	rec := postJSON(r, "/auth/forgot-password", `{}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if p.recoverCalls != 0 {
		t.Errorf("recovery calls = %d, want 0", p.recoverCalls)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	p := &fakeProvider{signInErr: &identity.AuthError{
		Code:   identity.CodeInvalidCredentials,
		Status: http.StatusBadRequest,
	}}
	r, sessions := newTestEnv(p, newMemProfiles())

	rec := postJSON(r, "/auth/login", `{"email":"sam@example.com","password":"wrong"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if sessions.count() != 0 {
		t.Errorf("stored sessions = %d, want 0", sessions.count())
	}
}

func TestLoginProviderDown(t *testing.T) {
	p := &fakeProvider{signInErr: identity.NewTransient(context.DeadlineExceeded)}
	r, _ := newTestEnv(p, newMemProfiles())

	rec := postJSON(r, "/auth/login", `{"email":"sam@example.com","password":"pw"}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestLoginRoutesByProfile(t *testing.T) {
	p := &fakeProvider{signInSess: providerSession()}
	profs := newMemProfiles()
	profs.rows[uuid.MustParse(testIdentityID)] = &profile.Profile{
		ID:   uuid.MustParse(testIdentityID),
		Role: profile.RoleLearner,
	}
	r, sessions := newTestEnv(p, profs)

	rec := postJSON(r, "/auth/login", `{"email":"sam@example.com","password":"hunter22"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["route"] != "/dashboard" {
		t.Errorf("route = %v, want /dashboard", body["route"])
	}
	if sessions.count() != 1 {
		t.Errorf("stored sessions = %d, want 1", sessions.count())
	}
	if c := sessionCookie(t, rec); c == nil {
		t.Error("session cookie not set")
	}
}

func TestAccountGateUnauthenticated(t *testing.T) {
	r, _ := newTestEnv(&fakeProvider{}, newMemProfiles())

	req := httptest.NewRequest(http.MethodGet, "/auth/gate", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "unauthenticated" || body["route"] != "/sign-in" {
		t.Errorf("body = %v", body)
	}
}

func TestAccountGateOffersProvisioning(t *testing.T) {
	r, sessions := newTestEnv(&fakeProvider{}, newMemProfiles())
	cookie := seedAuthedSession(t, sessions)

	req := httptest.NewRequest(http.MethodGet, "/auth/gate?role=instructor&phone=%2B447700900123", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	body := decodeBody(t, rec)
	if body["status"] != "needs_profile" {
		t.Fatalf("status = %v, want needs_profile", body["status"])
	}
	route, _ := body["route"].(string)
	if !strings.HasPrefix(route, "/welcome?") || !strings.Contains(route, "role=instructor") {
		t.Errorf("route = %q", route)
	}
}

func TestAccountGateProvisioningWithoutHintsDefaultsToLearner(t *testing.T) {
	r, sessions := newTestEnv(&fakeProvider{}, newMemProfiles())
	cookie := seedAuthedSession(t, sessions)

	req := httptest.NewRequest(http.MethodGet, "/auth/gate", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	body := decodeBody(t, rec)
	route, _ := body["route"].(string)
	if !strings.Contains(route, "role=learner") {
		t.Errorf("route = %q, want the role defaulted to learner", route)
	}
	if strings.Contains(route, "role=&") || strings.HasSuffix(route, "role=") {
		t.Errorf("route = %q carries an empty role param", route)
	}
}

func TestAccountGateExistingProfile(t *testing.T) {
	profs := newMemProfiles()
	profs.rows[uuid.MustParse(testIdentityID)] = &profile.Profile{
		ID:   uuid.MustParse(testIdentityID),
		Role: profile.RoleInstructor,
	}
	r, sessions := newTestEnv(&fakeProvider{}, profs)
	cookie := seedAuthedSession(t, sessions)

	req := httptest.NewRequest(http.MethodGet, "/auth/gate", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["route"] != "/instructor" {
		t.Errorf("body = %v", body)
	}
}

func TestAccountGateLookupOutage(t *testing.T) {
	profs := newMemProfiles()
	profs.getErr = context.DeadlineExceeded
	r, sessions := newTestEnv(&fakeProvider{}, profs)
	cookie := seedAuthedSession(t, sessions)

	req := httptest.NewRequest(http.MethodGet, "/auth/gate", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503; an outage must not offer provisioning", rec.Code)
	}
}

func TestWelcomeProvisionsInstructor(t *testing.T) {
	ident := providerSession().Identity
	p := &fakeProvider{getUserIdent: &ident}
	profs := newMemProfiles()
	r, sessions := newTestEnv(p, profs)
	cookie := seedAuthedSession(t, sessions)

	rec := postJSON(r, "/auth/welcome",
		`{"password":"hunter22","role":"instructor","name":"Sam Field","phone":"+447700900123"}`, cookie)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["role"] != "instructor" || body["route"] != "/instructor/profile" {
		t.Errorf("body = %v", body)
	}
	prof, err := profs.GetByID(context.Background(), uuid.MustParse(testIdentityID))
	if err != nil {
		t.Fatalf("profile not created: %v", err)
	}
	if prof.Name != "Sam Field" || prof.Phone != "+447700900123" {
		t.Errorf("profile = %+v", prof)
	}
}

func TestWelcomeRequiresAuth(t *testing.T) {
	r, _ := newTestEnv(&fakeProvider{}, newMemProfiles())

	rec := postJSON(r, "/auth/welcome", `{"password":"hunter22"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestWelcomeRejectsShortPassword(t *testing.T) {
	r, sessions := newTestEnv(&fakeProvider{}, newMemProfiles())
	cookie := seedAuthedSession(t, sessions)

	rec := postJSON(r, "/auth/welcome", `{"password":"abc"}`, cookie)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestWelcomeProvisioningFailureKeepsPassword(t *testing.T) {
	ident := providerSession().Identity
	ident.ID = "not-a-uuid"
	p := &fakeProvider{getUserIdent: &ident}
	r, sessions := newTestEnv(p, newMemProfiles())
	cookie := seedAuthedSession(t, sessions)

	rec := postJSON(r, "/auth/welcome", `{"password":"hunter22"}`, cookie)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if sessions.count() != 1 {
		t.Errorf("session deleted on provisioning failure; the gate should retry instead")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	r, sessions := newTestEnv(&fakeProvider{}, newMemProfiles())
	cookie := seedAuthedSession(t, sessions)

	rec := postJSON(r, "/auth/logout", "", cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if sessions.count() != 0 {
		t.Errorf("stored sessions = %d, want 0", sessions.count())
	}

	// No cookie at all still answers 204.
	rec = postJSON(r, "/auth/logout", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("repeat status = %d, want 204", rec.Code)
	}
}
