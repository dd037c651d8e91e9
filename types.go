package quill

import (
	"strconv"
	"time"
)

// Post is the authored document: stored as raw markdown, rendered at read time.
type Post struct {
	ID         int64
	Title      string
	Body       string
	Excerpt    string
	Category   Category
	Tags       []Tag
	Author     Author
	CreatedAt  time.Time
	ModifiedAt time.Time
	Views      uint64
}

// Link is the page URL of the post.
func (p Post) Link() string {
	return "/posts/" + strconv.FormatInt(p.ID, 10) + "/"
}

// Category groups posts; each post has exactly one.
type Category struct {
	ID   int64
	Name string
}

// Tag labels posts; a post may carry any number of tags.
type Tag struct {
	ID   int64
	Name string
}

// Author is a registered user referenced by posts and comments.
type Author struct {
	ID       int64
	Username string
}

// Comment belongs to exactly one post. Author is nil for guest comments,
// which carry Name, Email and URL instead.
type Comment struct {
	ID        int64
	PostID    int64
	Author    *Author
	Name      string
	Email     string
	URL       string
	Text      string
	CreatedAt time.Time
}

// PostInput is the author-supplied part of a post, used for creates and updates.
type PostInput struct {
	Title      string  `json:"title" validate:"required,max=70"`
	Body       string  `json:"body" validate:"required"`
	Excerpt    string  `json:"excerpt" validate:"max=200"`
	CategoryID int64   `json:"category" validate:"required,gt=0"`
	TagIDs     []int64 `json:"tags" validate:"omitempty,dive,gt=0"`
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}
