package quill

import "context"

// Page is a window over a result set. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// Repository is the entity store used by the HTTP layer. *Store implements
// it on SQLite; handlers never see storage-library types.
type Repository interface {
	CreatePost(ctx context.Context, authorID int64, in PostInput) (Post, error)
	UpdatePost(ctx context.Context, id int64, in PostInput) (Post, error)
	DeletePost(ctx context.Context, id int64) error
	GetPost(ctx context.Context, id int64) (Post, error)
	ListPosts(ctx context.Context, f PostFilter, page Page) ([]Post, int, error)
	IncrementViews(ctx context.Context, id int64) error
	PostAggregates(ctx context.Context) (Aggregates, error)

	GetCategory(ctx context.Context, id int64) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetTag(ctx context.Context, id int64) (Tag, error)
	ListTags(ctx context.Context) ([]Tag, error)
	GetAuthor(ctx context.Context, id int64) (Author, error)

	ListComments(ctx context.Context, postID int64, page Page) ([]Comment, int, error)
}

var _ Repository = (*Store)(nil)
