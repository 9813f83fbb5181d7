package blog

import "inkwell/internal/models"

// Actor is the identity a use case runs as. The zero value is anonymous.
type Actor struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

// Anonymous is the actor of a request without a session.
var Anonymous = Actor{}

// ActorFor builds the actor for an authenticated user.
func ActorFor(u *models.User) Actor {
	return Actor{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

// Authenticated reports whether the actor is a signed-in user.
func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

// owns reports whether the actor is the user with the given id.
func (a Actor) owns(userID int64) bool {
	return a.Authenticated() && a.UserID == userID
}

// CanEditPost reports whether a may change p. Authors may edit their own
// posts; admins may edit any post.
func CanEditPost(a Actor, p *models.Post) bool {
	return a.Authenticated() && (a.IsAdmin || a.owns(p.UserID))
}

// CanDeletePost follows the same rule as CanEditPost.
func CanDeletePost(a Actor, p *models.Post) bool {
	return CanEditPost(a, p)
}

// CanViewPost reports whether a may read p. Published posts are public;
// drafts are visible to their author and to admins.
func CanViewPost(a Actor, p *models.Post) bool {
	return p.IsPublished || CanEditPost(a, p)
}

// CanDeleteComment allows the comment's author, the author of the post it
// belongs to, and admins.
func CanDeleteComment(a Actor, c *models.Comment, p *models.Post) bool {
	if !a.Authenticated() {
		return false
	}
	return a.IsAdmin || a.owns(c.UserID) || a.owns(p.UserID)
}

// CanManageUsers reports whether a may list and delete accounts.
func CanManageUsers(a Actor) bool {
	return a.Authenticated() && a.IsAdmin
}

func requireAuth(a Actor) error {
	if !a.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}
