package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"inkwell/internal/middleware"
)

func loginForm(login, password, next string) url.Values {
	return url.Values{"login": {login}, "password": {password}, "next": {next}}
}

func TestLoginSubmit_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-login-bad")
	env.register(t, "h-login-bad")

	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, newRequest("POST", "/auth/login", loginForm("h-login-bad", "wrong", ""), nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid username, email or password.") {
		t.Error("error message missing")
	}
	if sessionCookie(rec) != nil {
		t.Error("failed login set a session cookie")
	}
}

func TestLoginSubmit_ByEmailRedirectsToNext(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-login-ok")
	u, _ := env.register(t, "h-login-ok")

	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, newRequest("POST", "/auth/login", loginForm(u.Email, "pw1", "/post/create"), nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/post/create" {
		t.Errorf("Location = %q, want /post/create", loc)
	}

	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("no session cookie")
	}
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	data, err := env.Sessions.Get(context.Background(), req)
	if err != nil || data == nil {
		t.Fatalf("session lookup: %v, %v", data, err)
	}
	if data.UserID != u.ID || data.Username != "h-login-ok" || !data.TwoFADone {
		t.Errorf("session = %+v", data)
	}
}

func TestLoginSubmit_UnsafeNextGoesHome(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-login-next")
	env.register(t, "h-login-next")

	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, newRequest("POST", "/auth/login", loginForm("h-login-next", "pw1", "//evil.example"), nil))

	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestLoginWithTwoFactor(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-login-2fa")
	u, sess := env.register(t, "h-login-2fa")

	ctx := ctxWithSession(context.Background(), sess)
	actor := middleware.ActorFromCtx(ctx)
	secret := "JBSWY3DPEHPK3PXP"
	if err := env.Blog.SaveTOTPSecret(ctx, actor, secret); err != nil {
		t.Fatalf("SaveTOTPSecret: %v", err)
	}
	if err := env.Blog.EnableTOTP(ctx, actor); err != nil {
		t.Fatalf("EnableTOTP: %v", err)
	}

	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, newRequest("POST", "/auth/login", loginForm(u.Username, "pw1", "/auth/profile"), nil))

	if loc := rec.Header().Get("Location"); loc != "/auth/2fa/verify?next=%2Fauth%2Fprofile" {
		t.Fatalf("Location = %q", loc)
	}
	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("no session cookie")
	}

	load := func() *http.Request {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(cookie)
		return req
	}
	pending, err := env.Sessions.Get(context.Background(), load())
	if err != nil || pending == nil {
		t.Fatalf("session lookup: %v", err)
	}
	if pending.TwoFADone {
		t.Fatal("session should wait for the second factor")
	}
	if middleware.ActorFromCtx(ctxWithSession(context.Background(), pending)).Authenticated() {
		t.Error("pending session must not act as the user")
	}

	submit := func(code string) *httptest.ResponseRecorder {
		req := newRequest("POST", "/auth/2fa/verify", url.Values{"code": {code}, "next": {"/auth/profile"}}, pending)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		env.Auth.TwoFAVerifySubmit(rec, req)
		return rec
	}

	if rec := submit("000000"); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("wrong code: status = %d, want 422", rec.Code)
	}

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	rec = submit(code)
	if loc := rec.Header().Get("Location"); loc != "/auth/profile" {
		t.Fatalf("Location = %q, want /auth/profile", loc)
	}

	done, err := env.Sessions.Get(context.Background(), load())
	if err != nil || done == nil || !done.TwoFADone {
		t.Errorf("session after verify = %+v, %v", done, err)
	}
}

func TestTwoFASetupAndConfirm(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-2fa-setup")
	u, sess := env.register(t, "h-2fa-setup")

	rec := httptest.NewRecorder()
	env.Auth.TwoFASetupPage(rec, newRequest("GET", "/auth/2fa/setup", nil, sess))
	if rec.Code != http.StatusOK {
		t.Fatalf("setup status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "data:image/png;base64,") {
		t.Error("QR code missing")
	}

	stored, err := env.Blog.User(context.Background(), u.ID)
	if err != nil || stored.TOTPSecret == nil {
		t.Fatalf("secret not stored: %v", err)
	}
	if stored.TOTPEnabled {
		t.Fatal("two-factor enabled before a code was confirmed")
	}

	code, _ := totp.GenerateCode(*stored.TOTPSecret, time.Now())
	rec = httptest.NewRecorder()
	env.Auth.TwoFAVerifySubmit(rec, newRequest("POST", "/auth/2fa/verify", url.Values{"code": {code}}, sess))
	if loc := rec.Header().Get("Location"); loc != "/auth/profile" {
		t.Fatalf("Location = %q, want /auth/profile", loc)
	}

	stored, _ = env.Blog.User(context.Background(), u.ID)
	if !stored.Requires2FA() {
		t.Error("two-factor should be enabled")
	}

	rec = httptest.NewRecorder()
	env.Auth.TwoFADisable(rec, newRequest("POST", "/auth/2fa/disable", url.Values{}, sess))
	stored, _ = env.Blog.User(context.Background(), u.ID)
	if stored.TOTPEnabled || stored.TOTPSecret != nil {
		t.Error("disable should clear two-factor")
	}
}

func TestRegisterSubmit(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-register")

	form := url.Values{
		"username": {"h-register"},
		"email":    {"h-register@handlers.local"},
		"password": {"pw1"},
		"confirm":  {"pw1"},
	}

	rec := httptest.NewRecorder()
	env.Auth.RegisterSubmit(rec, newRequest("POST", "/auth/register", form, nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth/login?registered=1" {
		t.Errorf("Location = %q", loc)
	}

	rec = httptest.NewRecorder()
	env.Auth.RegisterSubmit(rec, newRequest("POST", "/auth/register", form, nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("duplicate status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Username is already taken.") {
		t.Error("conflict message missing")
	}
	if !strings.Contains(body, `value="h-register"`) {
		t.Error("username not kept in the form")
	}
}

func TestProfileSubmit(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-profile")
	u, sess := env.register(t, "h-profile")

	rec := httptest.NewRecorder()
	env.Auth.ProfileSubmit(rec, newRequest("POST", "/auth/profile", url.Values{"avatar_url": {"ftp://nope"}, "bio": {"hi"}}, sess))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad url status = %d, want 422", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.Auth.ProfileSubmit(rec, newRequest("POST", "/auth/profile", url.Values{"avatar_url": {"https://img.example/a.png"}, "bio": {"Writer."}}, sess))
	if loc := rec.Header().Get("Location"); loc != "/auth/profile?saved=1" {
		t.Fatalf("Location = %q", loc)
	}

	stored, _ := env.Blog.User(context.Background(), u.ID)
	if stored.Bio == nil || *stored.Bio != "Writer." {
		t.Errorf("bio = %v", stored.Bio)
	}

	rec = httptest.NewRecorder()
	env.Auth.ProfilePage(rec, newRequest("GET", "/auth/profile?saved=1", nil, sess))
	if !strings.Contains(rec.Body.String(), "Profile saved.") {
		t.Error("saved notice missing")
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.resetUsers(t, "h-logout")
	u, _ := env.register(t, "h-logout")

	rec := httptest.NewRecorder()
	env.Auth.LoginSubmit(rec, newRequest("POST", "/auth/login", loginForm(u.Username, "pw1", ""), nil))
	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("no session cookie")
	}

	req := newRequest("POST", "/auth/logout", url.Values{}, nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	env.Auth.Logout(rec, req)

	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
	if c := sessionCookie(rec); c == nil || c.MaxAge >= 0 {
		t.Error("session cookie not cleared")
	}

	check := httptest.NewRequest("GET", "/", nil)
	check.AddCookie(cookie)
	if data, _ := env.Sessions.Get(context.Background(), check); data != nil {
		t.Error("session still stored after logout")
	}
}
