package quill

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Post management for authenticated authors. The permission middleware on
// the API group has already rejected anonymous callers by the time these run.

func (a *App) apiCreatePost(c echo.Context) error {
	author, ok := CurrentAuthor(c)
	if !ok {
		return ErrForbidden
	}
	in, err := bindPostInput(c)
	if err != nil {
		return err
	}
	post, err := a.Repo.CreatePost(c.Request().Context(), author.ID, in)
	if err != nil {
		return err
	}
	a.Logger.Info("post created", "id", post.ID, "author", author.Username)
	return a.writePostDetail(c, http.StatusCreated, post)
}

func (a *App) apiUpdatePost(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	in, err := bindPostInput(c)
	if err != nil {
		return err
	}
	post, err := a.Repo.UpdatePost(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	a.Renders.Invalidate(id)
	return a.writePostDetail(c, http.StatusOK, post)
}

func (a *App) apiDeletePost(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	if err := a.Repo.DeletePost(c.Request().Context(), id); err != nil {
		return err
	}
	a.Renders.Invalidate(id)
	a.Logger.Info("post deleted", "id", id)
	return c.NoContent(http.StatusNoContent)
}

func (a *App) writePostDetail(c echo.Context, code int, post Post) error {
	rendered, err := a.Renders.Render(post)
	if err != nil {
		return err
	}
	body, err := Shape(ActionDetail, RenderedPost{Post: post, Rendered: rendered})
	if err != nil {
		return err
	}
	return c.JSON(code, body)
}

func bindPostInput(c echo.Context) (PostInput, error) {
	var in PostInput
	if err := c.Bind(&in); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if msg, ok := he.Message.(string); ok {
				return PostInput{}, NewValidationError("non_field_errors", msg)
			}
		}
		return PostInput{}, NewValidationError("non_field_errors", "malformed request body")
	}
	return in, nil
}
