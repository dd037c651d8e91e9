package quill

import (
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	sessionName     = "quill_session"
	sessionAuthorID = "author_id"
	sessionFlash    = "flash"
)

// IdentityResolver reports the author making a request. Authentication
// itself happens elsewhere; quill only consumes its outcome.
type IdentityResolver interface {
	Resolve(c echo.Context) (Author, bool)
}

// IdentityFunc adapts a function to IdentityResolver.
type IdentityFunc func(c echo.Context) (Author, bool)

// Resolve calls f(c).
func (f IdentityFunc) Resolve(c echo.Context) (Author, bool) { return f(c) }

// sessionIdentity reads the author id stored in the cookie session and
// looks the author up.
type sessionIdentity struct {
	repo Repository
}

func (s sessionIdentity) Resolve(c echo.Context) (Author, bool) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return Author{}, false
	}
	id, ok := sess.Values[sessionAuthorID].(int64)
	if !ok || id <= 0 {
		return Author{}, false
	}
	a, err := s.repo.GetAuthor(c.Request().Context(), id)
	if err != nil {
		return Author{}, false
	}
	return a, true
}

const identityKey = "quill.identity"

// CurrentAuthor returns the author resolved for this request, if any.
func CurrentAuthor(c echo.Context) (Author, bool) {
	a, ok := c.Get(identityKey).(Author)
	return a, ok
}

// SetAuthorSession records authorID in the session. It is the hook the
// external login flow calls after authenticating a user.
func SetAuthorSession(c echo.Context, authorID int64) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[sessionAuthorID] = authorID
	return sess.Save(c.Request(), c.Response())
}

// ClearAuthorSession ends the session.
func ClearAuthorSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// addFlash queues a one-shot message for the next page render.
func addFlash(c echo.Context, msg string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.AddFlash(msg, sessionFlash)
	return sess.Save(c.Request(), c.Response())
}

// takeFlashes returns and clears pending flash messages.
func takeFlashes(c echo.Context) []string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return nil
	}
	raw := sess.Flashes(sessionFlash)
	if len(raw) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			msgs = append(msgs, s)
		}
	}
	_ = sess.Save(c.Request(), c.Response())
	return msgs
}
