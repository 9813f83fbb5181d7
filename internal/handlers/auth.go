package handlers

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"inkwell/internal/blog"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/render"
	"inkwell/internal/session"
)

// totpIssuer is the account issuer shown in authenticator apps.
const totpIssuer = "Inkwell"

// Auth groups the identity handlers: login, registration, logout, the
// profile page and two-factor enrollment.
type Auth struct {
	renderer *render.Renderer
	sessions *session.Store
	blog     *blog.Service
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, svc *blog.Service) *Auth {
	return &Auth{
		renderer: renderer,
		sessions: sessions,
		blog:     svc,
	}
}

// nextOrHome returns target when it is a safe local path, "/" otherwise.
func nextOrHome(target string) string {
	if middleware.SafeRedirect(target) {
		return target
	}
	return "/"
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if middleware.ActorFromCtx(r.Context()).Authenticated() {
		http.Redirect(w, r, nextOrHome(q.Get("next")), http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Log in",
		Data: map[string]any{
			"Next":       q.Get("next"),
			"Registered": q.Get("registered") != "",
		},
	})
}

// LoginSubmit checks the credentials and starts a session. Accounts with
// two-factor login enabled get a pending session and are sent on to the
// code prompt.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		a.renderer.Error(w, r, http.StatusBadRequest)
		return
	}

	login := r.PostFormValue("login")
	next := r.PostFormValue("next")

	user, err := a.blog.Authenticate(r.Context(), login, r.PostFormValue("password"))
	if errors.Is(err, blog.ErrInvalidCredentials) {
		a.renderer.PageStatus(w, r, http.StatusUnauthorized, "login", &render.PageData{
			Title: "Log in",
			Data: map[string]any{
				"Error": "Invalid username, email or password.",
				"Login": login,
				"Next":  next,
			},
		})
		return
	}
	if err != nil {
		writeError(a.renderer, w, r, err)
		return
	}

	if err := a.startSession(w, r, user); err != nil {
		writeError(a.renderer, w, r, err)
		return
	}

	if user.Requires2FA() {
		target := "/auth/2fa/verify"
		if middleware.SafeRedirect(next) {
			target += "?next=" + url.QueryEscape(next)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, nextOrHome(next), http.StatusSeeOther)
}

// startSession replaces any existing session with a fresh one for user.
func (a *Auth) startSession(w http.ResponseWriter, r *http.Request, user *models.User) error {
	if middleware.SessionFromCtx(r.Context()) != nil {
		if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
			slog.Warn("destroy previous session failed", "error", err)
		}
	}

	_, err := a.sessions.Create(r.Context(), w, &session.Data{
		UserID:    user.ID,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
		TwoFADone: !user.Requires2FA(),
	})
	return err
}

// RegisterPage renders the registration form.
func (a *Auth) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if middleware.ActorFromCtx(r.Context()).Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "register", &render.PageData{
		Title: "Register",
		Data:  map[string]any{"Form": blog.RegisterInput{}},
	})
}

// RegisterSubmit creates an account and sends the user to the login page.
func (a *Auth) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		a.renderer.Error(w, r, http.StatusBadRequest)
		return
	}

	in := registerInputFromForm(r)
	if _, err := a.blog.Register(r.Context(), in); err != nil {
		if fields, ok := fieldErrors(err); ok {
			in.Password, in.Confirm = "", ""
			a.renderer.PageStatus(w, r, http.StatusUnprocessableEntity, "register", &render.PageData{
				Title:  "Register",
				Errors: fields,
				Data:   map[string]any{"Form": in},
			})
			return
		}
		writeError(a.renderer, w, r, err)
		return
	}

	http.Redirect(w, r, "/auth/login?registered=1", http.StatusSeeOther)
}

// Logout destroys the session and returns to the front page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ProfilePage renders the signed-in user's profile with their posts.
func (a *Auth) ProfilePage(w http.ResponseWriter, r *http.Request) {
	a.renderProfile(w, r, http.StatusOK, nil, nil, r.URL.Query().Get("saved") != "")
}

// ProfileSubmit saves the avatar URL and bio.
func (a *Auth) ProfileSubmit(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		a.renderer.Error(w, r, http.StatusBadRequest)
		return
	}

	in := profileInputFromForm(r)
	if err := a.blog.UpdateProfile(r.Context(), middleware.ActorFromCtx(r.Context()), in); err != nil {
		if fields, ok := fieldErrors(err); ok {
			a.renderProfile(w, r, http.StatusUnprocessableEntity, &in, fields, false)
			return
		}
		writeError(a.renderer, w, r, err)
		return
	}

	http.Redirect(w, r, "/auth/profile?saved=1", http.StatusSeeOther)
}

// renderProfile shows the profile page. A nil form is filled from the
// stored account.
func (a *Auth) renderProfile(w http.ResponseWriter, r *http.Request, status int, form *blog.ProfileInput, fields map[string]string, saved bool) {
	profile, err := a.blog.Profile(r.Context(), middleware.ActorFromCtx(r.Context()))
	if err != nil {
		writeError(a.renderer, w, r, err)
		return
	}

	if form == nil {
		form = &blog.ProfileInput{}
		if profile.User.AvatarURL != nil {
			form.AvatarURL = *profile.User.AvatarURL
		}
		if profile.User.Bio != nil {
			form.Bio = *profile.User.Bio
		}
	}

	a.renderer.PageStatus(w, r, status, "profile", &render.PageData{
		Title:   profile.User.Username,
		Section: "profile",
		Errors:  fields,
		Data: map[string]any{
			"Profile": profile,
			"Form":    form,
			"Saved":   saved,
		},
	})
}

// TwoFASetupPage generates a new TOTP secret and shows it as a QR code.
// Two-factor login stays off until a code is confirmed.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.ActorFromCtx(ctx)

	user, err := a.blog.User(ctx, actor.UserID)
	if err != nil {
		writeError(a.renderer, w, r, err)
		return
	}
	if user.TOTPEnabled {
		http.Redirect(w, r, "/auth/profile", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Username,
	})
	if err != nil {
		writeError(a.renderer, w, r, err)
		return
	}
	if err := a.blog.SaveTOTPSecret(ctx, actor, key.Secret()); err != nil {
		writeError(a.renderer, w, r, err)
		return
	}

	a.renderSetup(w, r, http.StatusOK, key, "")
}

func (a *Auth) renderSetup(w http.ResponseWriter, r *http.Request, status int, key *otp.Key, msg string) {
	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		writeError(a.renderer, w, r, err)
		return
	}

	a.renderer.PageStatus(w, r, status, "2fa_setup", &render.PageData{
		Title:   "Set up two-factor authentication",
		Section: "profile",
		Data: map[string]any{
			"QRCode": base64.StdEncoding.EncodeToString(qrPNG),
			"Secret": key.Secret(),
			"Error":  msg,
		},
	})
}

// totpURL rebuilds the otpauth URL of a stored secret so the QR code can
// be shown again after a wrong code.
func totpURL(u *models.User) string {
	v := url.Values{}
	v.Set("secret", *u.TOTPSecret)
	v.Set("issuer", totpIssuer)
	return (&url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + totpIssuer + ":" + u.Username,
		RawQuery: v.Encode(),
	}).String()
}

// TwoFAVerifyPage renders the code prompt for a pending login.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess.TwoFADone {
		http.Redirect(w, r, "/auth/2fa/setup", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-factor authentication",
		Data:  map[string]any{"Next": r.URL.Query().Get("next")},
	})
}

// TwoFAVerifySubmit validates a TOTP code. It both confirms a fresh
// enrollment and completes a pending login.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		a.renderer.Error(w, r, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	next := r.PostFormValue("next")

	user, err := a.blog.User(ctx, sess.UserID)
	if errors.Is(err, blog.ErrNotFound) {
		a.Logout(w, r)
		return
	}
	if err != nil {
		writeError(a.renderer, w, r, err)
		return
	}

	if user.TOTPSecret == nil {
		if sess.TwoFADone {
			http.Redirect(w, r, "/auth/2fa/setup", http.StatusSeeOther)
			return
		}
		// Two-factor login was switched off since this session started.
		a.completeLogin(w, r, sess, next)
		return
	}

	if !totp.Validate(r.PostFormValue("code"), *user.TOTPSecret) {
		const msg = "Invalid code. Please try again."
		if !user.TOTPEnabled {
			key, err := otp.NewKeyFromURL(totpURL(user))
			if err != nil {
				writeError(a.renderer, w, r, err)
				return
			}
			a.renderSetup(w, r, http.StatusUnprocessableEntity, key, msg)
			return
		}
		a.renderer.PageStatus(w, r, http.StatusUnprocessableEntity, "2fa_verify", &render.PageData{
			Title: "Two-factor authentication",
			Data:  map[string]any{"Error": msg, "Next": next},
		})
		return
	}

	if !user.TOTPEnabled {
		if err := a.blog.EnableTOTP(ctx, middleware.ActorFromCtx(ctx)); err != nil {
			writeError(a.renderer, w, r, err)
			return
		}
		http.Redirect(w, r, "/auth/profile", http.StatusSeeOther)
		return
	}

	a.completeLogin(w, r, sess, next)
}

// completeLogin marks the second factor as done and redirects to next.
func (a *Auth) completeLogin(w http.ResponseWriter, r *http.Request, sess *session.Data, next string) {
	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		writeError(a.renderer, w, r, err)
		return
	}
	http.Redirect(w, r, nextOrHome(next), http.StatusSeeOther)
}

// TwoFADisable turns two-factor login off for the signed-in user.
func (a *Auth) TwoFADisable(w http.ResponseWriter, r *http.Request) {
	if err := a.blog.DisableTOTP(r.Context(), middleware.ActorFromCtx(r.Context())); err != nil {
		writeError(a.renderer, w, r, err)
		return
	}
	http.Redirect(w, r, "/auth/profile", http.StatusSeeOther)
}
