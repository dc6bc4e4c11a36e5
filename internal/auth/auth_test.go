package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testAuthenticator(t *testing.T, ttl time.Duration) *Authenticator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("generate hash: %v", err)
	}
	return NewAuthenticator("admin", string(hash), NewSessionStore(ttl))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	a := testAuthenticator(t, time.Hour)

	sess, err := a.Login(ctx, "admin", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token == "" || sess.UserID != "admin" {
		t.Fatalf("session = %+v", sess)
	}

	got, err := a.Sessions().GetByToken(ctx, sess.Token)
	if err != nil || got.UserID != "admin" {
		t.Fatalf("GetByToken = %v, %v", got, err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	a := testAuthenticator(t, time.Hour)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "nope"},
		{"wrong username", "root", "secret"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := a.Login(ctx, tc.username, tc.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	ctx := context.Background()
	a := testAuthenticator(t, time.Hour)

	sess, err := a.Login(ctx, "admin", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := a.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := a.Sessions().GetByToken(ctx, sess.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("err after logout = %v, want ErrInvalidSession", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Hour)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	sess, err := store.Create(ctx, "admin")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, err := store.GetByToken(ctx, sess.Token); !errors.Is(err, ErrExpiredSession) {
		t.Fatalf("err = %v, want ErrExpiredSession", err)
	}
}

func TestMiddlewareInjectsUser(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Hour)
	sess, err := store.Create(ctx, "admin")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var gotUser string
	handler := Middleware(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: sess.Token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotUser != "admin" {
		t.Fatalf("user from context = %q, want admin", gotUser)
	}
}

func TestMiddlewareClearsBadCookie(t *testing.T) {
	store := NewSessionStore(time.Hour)

	handler := Middleware(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsAuthenticated(r.Context()) {
			t.Error("request with bogus token is authenticated")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "bogus"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected expired cookie, got %+v", cookies)
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/transactions", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req = req.WithContext(context.WithValue(req.Context(), UserIDKey, "admin"))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
