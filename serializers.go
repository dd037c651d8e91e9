package quill

import (
	"fmt"
	"time"

	"github.com/eringen/quill/markdown"
)

// Action names the API operation a response is built for. Each action has
// its own response shape.
type Action int

const (
	ActionList Action = iota
	ActionDetail
	ActionComments
)

func (a Action) String() string {
	switch a {
	case ActionList:
		return "list"
	case ActionDetail:
		return "detail"
	case ActionComments:
		return "comments"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// CategoryRef is the nested category representation.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TagRef is the nested tag representation.
type TagRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AuthorRef is the nested author representation.
type AuthorRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// PostItem is the list shape: no body, no tags.
type PostItem struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	Excerpt      string      `json:"excerpt"`
	Category     CategoryRef `json:"category"`
	Author       AuthorRef   `json:"author"`
	CreatedTime  time.Time   `json:"created_time"`
	ModifiedTime time.Time   `json:"modified_time"`
	Views        uint64      `json:"views"`
}

// PostDetail is the detail shape: every list field plus the rendered body,
// its table of contents and the tags.
type PostDetail struct {
	PostItem
	Body string   `json:"body"`
	TOC  string   `json:"toc"`
	Tags []TagRef `json:"tags"`
}

// CommentItem is the comment shape.
type CommentItem struct {
	ID          int64      `json:"id"`
	Post        int64      `json:"post"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	URL         string     `json:"url"`
	Text        string     `json:"text"`
	Author      *AuthorRef `json:"author"`
	CreatedTime time.Time  `json:"created_time"`
}

// RenderedPost pairs a post with its rendered body for the detail shape.
type RenderedPost struct {
	Post     Post
	Rendered markdown.Rendered
}

// Shape builds the response for action from v: []Post for ActionList,
// RenderedPost for ActionDetail, []Comment for ActionComments.
func Shape(action Action, v any) (any, error) {
	switch action {
	case ActionList:
		if posts, ok := v.([]Post); ok {
			return postItems(posts), nil
		}
	case ActionDetail:
		if rp, ok := v.(RenderedPost); ok {
			return postDetail(rp.Post, rp.Rendered), nil
		}
	case ActionComments:
		if comments, ok := v.([]Comment); ok {
			return commentItems(comments), nil
		}
	}
	return nil, fmt.Errorf("shape %s: unsupported value %T", action, v)
}

func postItem(p Post) PostItem {
	return PostItem{
		ID:           p.ID,
		Title:        p.Title,
		Excerpt:      p.Excerpt,
		Category:     CategoryRef(p.Category),
		Author:       AuthorRef(p.Author),
		CreatedTime:  p.CreatedAt,
		ModifiedTime: p.ModifiedAt,
		Views:        p.Views,
	}
}

func postItems(posts []Post) []PostItem {
	out := make([]PostItem, 0, len(posts))
	for _, p := range posts {
		out = append(out, postItem(p))
	}
	return out
}

func postDetail(p Post, r markdown.Rendered) PostDetail {
	return PostDetail{
		PostItem: postItem(p),
		Body:     r.HTML,
		TOC:      r.TOC,
		Tags:     tagRefs(p.Tags),
	}
}

func tagRefs(tags []Tag) []TagRef {
	out := make([]TagRef, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagRef(t))
	}
	return out
}

func categoryRefs(cats []Category) []CategoryRef {
	out := make([]CategoryRef, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryRef(c))
	}
	return out
}

func commentItems(comments []Comment) []CommentItem {
	out := make([]CommentItem, 0, len(comments))
	for _, c := range comments {
		item := CommentItem{
			ID:          c.ID,
			Post:        c.PostID,
			Name:        c.Name,
			Email:       c.Email,
			URL:         c.URL,
			Text:        c.Text,
			CreatedTime: c.CreatedAt,
		}
		if c.Author != nil {
			ref := AuthorRef(*c.Author)
			item.Author = &ref
		}
		out = append(out, item)
	}
	return out
}
