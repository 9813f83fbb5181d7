package blog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/store"
)

// ProfileView is the signed-in user's own page.
type ProfileView struct {
	User      *models.User
	Posts     []models.Post
	PostCount int
}

// Register creates an account. A taken username or email comes back as a
// ValidationError on that field that also matches ErrConflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.normalize()
	if err := in.validate().Err(); err != nil {
		return nil, err
	}

	users := store.NewUserStore(s.db)

	existing, err := users.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conflictError("username", "Username is already taken.")
	}
	existing, err = users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conflictError("email", "Email is already registered.")
	}

	user, err := users.Create(ctx, in.Username, in.Email, in.Password)
	if constraint, ok := store.UniqueViolation(err); ok {
		if strings.Contains(constraint, "email") {
			return nil, conflictError("email", "Email is already registered.")
		}
		return nil, conflictError("username", "Username is already taken.")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username or email against its password.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	users := store.NewUserStore(s.db)
	user, err := users.FindByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil || !users.CheckPassword(user, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// User loads an account by id.
func (s *Service) User(ctx context.Context, id int64) (*models.User, error) {
	user, err := store.NewUserStore(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// Profile returns the actor's account with all of their posts.
func (s *Service) Profile(ctx context.Context, actor Actor) (*ProfileView, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	user, err := s.User(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	posts := store.NewPostStore(s.db)
	list, err := posts.ListByAuthor(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if err := posts.LoadTags(ctx, list); err != nil {
		return nil, err
	}
	count, err := posts.CountByAuthor(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{User: user, Posts: list, PostCount: count}, nil
}

// UpdateProfile replaces the actor's avatar URL and bio.
func (s *Service) UpdateProfile(ctx context.Context, actor Actor, in ProfileInput) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	in.normalize()
	if err := in.validate().Err(); err != nil {
		return err
	}
	return store.NewUserStore(s.db).UpdateProfile(ctx, actor.UserID, optional(in.AvatarURL), optional(in.Bio))
}

// SaveTOTPSecret stores a freshly generated secret. Two-factor login stays
// off until EnableTOTP confirms a code.
func (s *Service) SaveTOTPSecret(ctx context.Context, actor Actor, secret string) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	return store.NewUserStore(s.db).SetTOTPSecret(ctx, actor.UserID, secret)
}

// EnableTOTP turns two-factor login on for the actor.
func (s *Service) EnableTOTP(ctx context.Context, actor Actor) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	return store.NewUserStore(s.db).EnableTOTP(ctx, actor.UserID)
}

// DisableTOTP turns two-factor login off and forgets the secret.
func (s *Service) DisableTOTP(ctx context.Context, actor Actor) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	return store.NewUserStore(s.db).ResetTOTP(ctx, actor.UserID)
}

// ListUsers returns every account. Admin only.
func (s *Service) ListUsers(ctx context.Context, actor Actor) ([]models.User, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if !CanManageUsers(actor) {
		return nil, ErrForbidden
	}
	return store.NewUserStore(s.db).List(ctx)
}

// DeleteUser removes an account together with its posts and comments.
// Admin only; admins cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actor Actor, id int64) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	if !CanManageUsers(actor) || actor.UserID == id {
		return ErrForbidden
	}

	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := store.NewUserStore(tx).Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
}

// Promote grants admin rights to username. Used by the CLI.
func (s *Service) Promote(ctx context.Context, username string) error {
	ok, err := store.NewUserStore(s.db).SetAdmin(ctx, username, true)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("promote %q: %w", username, ErrNotFound)
	}
	return nil
}
