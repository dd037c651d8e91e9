package quill

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/quill/markdown"
)

// Store wraps a SQLite database and implements Repository.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	// Pragmas in the DSN apply to every pooled connection, not only the
	// first one: WAL for concurrent readers, a busy timeout so racing view
	// increments wait instead of failing with SQLITE_BUSY, and foreign keys
	// for the delete cascades.
	dsn := "file:" + path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS authors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tags (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    body TEXT NOT NULL,
    excerpt TEXT NOT NULL DEFAULT '',
    category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    author_id INTEGER NOT NULL REFERENCES authors(id) ON DELETE CASCADE,
    created_at INTEGER NOT NULL,
    modified_at INTEGER NOT NULL,
    views INTEGER NOT NULL DEFAULT 0 CHECK (views >= 0)
);
CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at);
CREATE INDEX IF NOT EXISTS idx_posts_category ON posts(category_id);
CREATE TABLE IF NOT EXISTS post_tags (
    post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (post_id, tag_id)
);
CREATE INDEX IF NOT EXISTS idx_post_tags_tag ON post_tags(tag_id);
CREATE TABLE IF NOT EXISTS comments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    author_id INTEGER REFERENCES authors(id) ON DELETE CASCADE,
    name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    text TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id, created_at);
`)
	return err
}

// --- Posts ---

const postColumns = `p.id, p.title, p.body, p.excerpt, p.created_at, p.modified_at, p.views,
	c.id, c.name, a.id, a.username
FROM posts p
JOIN categories c ON c.id = p.category_id
JOIN authors a ON a.id = p.author_id`

// CreatePost stores a new post written by authorID. The excerpt is derived
// from the body when the input leaves it empty.
func (s *Store) CreatePost(ctx context.Context, authorID int64, in PostInput) (Post, error) {
	return s.ImportPost(ctx, authorID, in, s.now())
}

// ImportPost is CreatePost with an explicit creation time, used when loading
// existing content.
func (s *Store) ImportPost(ctx context.Context, authorID int64, in PostInput, created time.Time) (Post, error) {
	if err := validateStruct(in); err != nil {
		return Post{}, err
	}
	excerpt := markdown.Excerpt(in.Body, in.Excerpt)
	modified := s.now()
	if modified.Before(created) {
		modified = created
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Post{}, &PersistenceError{Op: "begin create post", Err: err}
	}
	defer tx.Rollback()

	if err := checkAuthor(ctx, tx, authorID); err != nil {
		return Post{}, err
	}
	if err := checkReferences(ctx, tx, in); err != nil {
		return Post{}, err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO posts (title, body, excerpt, category_id, author_id, created_at, modified_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Title, in.Body, excerpt, in.CategoryID, authorID, created.UnixNano(), modified.UnixNano())
	if err != nil {
		return Post{}, &PersistenceError{Op: "insert post", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Post{}, &PersistenceError{Op: "insert post", Err: err}
	}
	if err := replaceTags(ctx, tx, id, in.TagIDs); err != nil {
		return Post{}, err
	}
	if err := tx.Commit(); err != nil {
		return Post{}, &PersistenceError{Op: "commit create post", Err: err}
	}
	return s.GetPost(ctx, id)
}

// UpdatePost replaces the authored fields of a post. The view count is left
// untouched and modified_at always moves forward, even when the clock does not.
func (s *Store) UpdatePost(ctx context.Context, id int64, in PostInput) (Post, error) {
	if err := validateStruct(in); err != nil {
		return Post{}, err
	}
	excerpt := markdown.Excerpt(in.Body, in.Excerpt)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Post{}, &PersistenceError{Op: "begin update post", Err: err}
	}
	defer tx.Rollback()

	if err := checkReferences(ctx, tx, in); err != nil {
		return Post{}, err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE posts SET title = ?, body = ?, excerpt = ?, category_id = ?, modified_at = MAX(?, modified_at + 1) WHERE id = ?`,
		in.Title, in.Body, excerpt, in.CategoryID, s.now().UnixNano(), id)
	if err != nil {
		return Post{}, &PersistenceError{Op: "update post", Err: err}
	}
	if err := expectRow(res, "update post", "post", id); err != nil {
		return Post{}, err
	}
	if err := replaceTags(ctx, tx, id, in.TagIDs); err != nil {
		return Post{}, err
	}
	if err := tx.Commit(); err != nil {
		return Post{}, &PersistenceError{Op: "commit update post", Err: err}
	}
	return s.GetPost(ctx, id)
}

// DeletePost removes a post together with its comments and tag links.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return &PersistenceError{Op: "delete post", Err: err}
	}
	return expectRow(res, "delete post", "post", id)
}

// GetPost returns a single post with its tags.
func (s *Store) GetPost(ctx context.Context, id int64) (Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` WHERE p.id = ?`, id)
	p, err := scanPost(row)
	if err != nil {
		return Post{}, wrapDB("get post", "post", id, err)
	}
	tags, err := s.loadTags(ctx, []int64{id})
	if err != nil {
		return Post{}, err
	}
	p.Tags = tags[id]
	return p, nil
}

// ListPosts returns the posts matching f in the filter's order, windowed by
// page, along with the total number of matches.
func (s *Store) ListPosts(ctx context.Context, f PostFilter, page Page) ([]Post, int, error) {
	where, args := postWhere(f)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&total); err != nil {
		return nil, 0, &PersistenceError{Op: "count posts", Err: err}
	}
	if total == 0 {
		return nil, 0, nil
	}

	limit := page.Limit
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT ` + postColumns + where + ` ORDER BY ` + orderClause(f.Order) + ` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, page.Offset)...)
	if err != nil {
		return nil, 0, &PersistenceError{Op: "list posts", Err: err}
	}
	defer rows.Close()

	var posts []Post
	var ids []int64
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, &PersistenceError{Op: "scan post", Err: err}
		}
		posts = append(posts, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, &PersistenceError{Op: "list posts", Err: err}
	}
	tags, err := s.loadTags(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range posts {
		posts[i].Tags = tags[posts[i].ID]
	}
	return posts, total, nil
}

// IncrementViews adds one to the post's view count with a relative update,
// so concurrent increments never overwrite each other and no other column
// is written.
func (s *Store) IncrementViews(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE posts SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return &PersistenceError{Op: "increment views", Err: err}
	}
	return expectRow(res, "increment views", "post", id)
}

// PostAggregates counts posts per UTC creation month, per category and per
// tag.
func (s *Store) PostAggregates(ctx context.Context) (Aggregates, error) {
	var agg Aggregates
	err := s.collect(ctx, "archive counts", `
SELECT CAST(strftime('%Y', created_at / 1000000000, 'unixepoch') AS INTEGER) AS y,
       CAST(strftime('%m', created_at / 1000000000, 'unixepoch') AS INTEGER) AS m,
       COUNT(*)
FROM posts GROUP BY y, m ORDER BY y, m`, func(rows *sql.Rows) error {
		var m ArchiveMonth
		if err := rows.Scan(&m.Year, &m.Month, &m.Count); err != nil {
			return err
		}
		agg.Archives = append(agg.Archives, m)
		return nil
	})
	if err != nil {
		return Aggregates{}, err
	}
	err = s.collect(ctx, "category counts", `
SELECT c.id, c.name, COUNT(p.id) FROM categories c
JOIN posts p ON p.category_id = c.id
GROUP BY c.id, c.name ORDER BY c.name, c.id`, func(rows *sql.Rows) error {
		var cc CategoryCount
		if err := rows.Scan(&cc.ID, &cc.Name, &cc.Count); err != nil {
			return err
		}
		agg.Categories = append(agg.Categories, cc)
		return nil
	})
	if err != nil {
		return Aggregates{}, err
	}
	err = s.collect(ctx, "tag counts", `
SELECT t.id, t.name, COUNT(pt.post_id) FROM tags t
JOIN post_tags pt ON pt.tag_id = t.id
GROUP BY t.id, t.name ORDER BY t.name, t.id`, func(rows *sql.Rows) error {
		var tc TagCount
		if err := rows.Scan(&tc.ID, &tc.Name, &tc.Count); err != nil {
			return err
		}
		agg.Tags = append(agg.Tags, tc)
		return nil
	})
	if err != nil {
		return Aggregates{}, err
	}
	return agg, nil
}

func (s *Store) collect(ctx context.Context, op, query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return &PersistenceError{Op: op, Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

func postWhere(f PostFilter) (string, []any) {
	var conds []string
	var args []any
	if f.CategoryID != 0 {
		conds = append(conds, `p.category_id = ?`)
		args = append(args, f.CategoryID)
	}
	if len(f.TagIDs) > 0 {
		conds = append(conds, `p.id IN (SELECT post_id FROM post_tags WHERE tag_id IN (`+placeholders(len(f.TagIDs))+`))`)
		for _, id := range f.TagIDs {
			args = append(args, id)
		}
	}
	if f.Year != 0 {
		conds = append(conds, `CAST(strftime('%Y', p.created_at / 1000000000, 'unixepoch') AS INTEGER) = ?`)
		args = append(args, f.Year)
	}
	if f.Month != 0 {
		conds = append(conds, `CAST(strftime('%m', p.created_at / 1000000000, 'unixepoch') AS INTEGER) = ?`)
		args = append(args, f.Month)
	}
	if f.Query != "" {
		// instr is case-sensitive, LIKE is not.
		conds = append(conds, `(instr(p.title, ?) > 0 OR instr(p.body, ?) > 0)`)
		args = append(args, f.Query, f.Query)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(o Ordering) string {
	switch o {
	case OrderCreatedAsc:
		return "p.created_at ASC, p.id ASC"
	case OrderModifiedDesc:
		return "p.modified_at DESC, p.id DESC"
	case OrderViewsDesc:
		return "p.views DESC, p.created_at DESC, p.id DESC"
	default:
		return "p.created_at DESC, p.id DESC"
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (Post, error) {
	var p Post
	var created, modified, views int64
	err := row.Scan(&p.ID, &p.Title, &p.Body, &p.Excerpt, &created, &modified, &views,
		&p.Category.ID, &p.Category.Name, &p.Author.ID, &p.Author.Username)
	if err != nil {
		return Post{}, err
	}
	p.CreatedAt = fromNanos(created)
	p.ModifiedAt = fromNanos(modified)
	p.Views = uint64(views)
	return p, nil
}

func (s *Store) loadTags(ctx context.Context, postIDs []int64) (map[int64][]Tag, error) {
	out := make(map[int64][]Tag, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(postIDs))
	for i, id := range postIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT pt.post_id, t.id, t.name FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id IN (`+placeholders(len(postIDs))+`) ORDER BY t.id`, args...)
	if err != nil {
		return nil, &PersistenceError{Op: "load tags", Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		var postID int64
		var t Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name); err != nil {
			return nil, &PersistenceError{Op: "scan tag", Err: err}
		}
		out[postID] = append(out[postID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "load tags", Err: err}
	}
	return out, nil
}

func replaceTags(ctx context.Context, q querier, postID int64, tagIDs []int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ?`, postID); err != nil {
		return &PersistenceError{Op: "clear post tags", Err: err}
	}
	for _, tagID := range tagIDs {
		if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`, postID, tagID); err != nil {
			return &PersistenceError{Op: "insert post tag", Err: err}
		}
	}
	return nil
}

// checkReferences turns unknown category or tag ids into field errors
// before the insert would trip a foreign key.
func checkReferences(ctx context.Context, q querier, in PostInput) error {
	fields := map[string]string{}
	ok, err := exists(ctx, q, `SELECT 1 FROM categories WHERE id = ?`, in.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		fields["category"] = invalidPK(in.CategoryID)
	}
	for _, id := range in.TagIDs {
		ok, err := exists(ctx, q, `SELECT 1 FROM tags WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if !ok {
			fields["tags"] = invalidPK(id)
			break
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func checkAuthor(ctx context.Context, q querier, id int64) error {
	ok, err := exists(ctx, q, `SELECT 1 FROM authors WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if !ok {
		return NewValidationError("author", invalidPK(id))
	}
	return nil
}

func exists(ctx context.Context, q querier, query string, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Op: "check reference", Err: err}
	}
	return true, nil
}

func invalidPK(id int64) string {
	return fmt.Sprintf("invalid pk %q - object does not exist", fmt.Sprint(id))
}

// --- Categories, tags, authors ---

// CreateCategory inserts a category.
func (s *Store) CreateCategory(ctx context.Context, name string) (Category, error) {
	id, err := s.insertNamed(ctx, "categories", "name", name)
	if err != nil {
		return Category{}, err
	}
	return Category{ID: id, Name: name}, nil
}

// GetCategory returns a category by id.
func (s *Store) GetCategory(ctx context.Context, id int64) (Category, error) {
	c := Category{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = ?`, id).Scan(&c.Name)
	if err != nil {
		return Category{}, wrapDB("get category", "category", id, err)
	}
	return c, nil
}

// ListCategories returns every category ordered by id.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, &PersistenceError{Op: "list categories", Err: err}
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, &PersistenceError{Op: "scan category", Err: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list categories", Err: err}
	}
	return out, nil
}

// DeleteCategory removes a category and, through the cascade, its posts.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return &PersistenceError{Op: "delete category", Err: err}
	}
	return expectRow(res, "delete category", "category", id)
}

// CreateTag inserts a tag.
func (s *Store) CreateTag(ctx context.Context, name string) (Tag, error) {
	id, err := s.insertNamed(ctx, "tags", "name", name)
	if err != nil {
		return Tag{}, err
	}
	return Tag{ID: id, Name: name}, nil
}

// GetTag returns a tag by id.
func (s *Store) GetTag(ctx context.Context, id int64) (Tag, error) {
	t := Tag{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT name FROM tags WHERE id = ?`, id).Scan(&t.Name)
	if err != nil {
		return Tag{}, wrapDB("get tag", "tag", id, err)
	}
	return t, nil
}

// ListTags returns every tag ordered by id.
func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY id`)
	if err != nil {
		return nil, &PersistenceError{Op: "list tags", Err: err}
	}
	defer rows.Close()
	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, &PersistenceError{Op: "scan tag", Err: err}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list tags", Err: err}
	}
	return out, nil
}

// DeleteTag removes a tag; posts that carried it only lose the association.
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return &PersistenceError{Op: "delete tag", Err: err}
	}
	return expectRow(res, "delete tag", "tag", id)
}

// CreateAuthor inserts an author.
func (s *Store) CreateAuthor(ctx context.Context, username string) (Author, error) {
	id, err := s.insertNamed(ctx, "authors", "username", username)
	if err != nil {
		return Author{}, err
	}
	return Author{ID: id, Username: username}, nil
}

// GetAuthor returns an author by id.
func (s *Store) GetAuthor(ctx context.Context, id int64) (Author, error) {
	a := Author{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT username FROM authors WHERE id = ?`, id).Scan(&a.Username)
	if err != nil {
		return Author{}, wrapDB("get author", "author", id, err)
	}
	return a, nil
}

// DeleteAuthor removes an author along with their posts and comments.
func (s *Store) DeleteAuthor(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM authors WHERE id = ?`, id)
	if err != nil {
		return &PersistenceError{Op: "delete author", Err: err}
	}
	return expectRow(res, "delete author", "author", id)
}

func (s *Store) insertNamed(ctx context.Context, table, column, value string) (int64, error) {
	if strings.TrimSpace(value) == "" {
		return 0, NewValidationError(column, "this field is required")
	}
	if len([]rune(value)) > 100 {
		return 0, NewValidationError(column, "ensure this field has no more than 100 characters")
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO `+table+` (`+column+`) VALUES (?)`, value)
	if err != nil {
		return 0, &PersistenceError{Op: "insert " + table, Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &PersistenceError{Op: "insert " + table, Err: err}
	}
	return id, nil
}

// --- Comments ---

// AddComment stores a comment on behalf of the comment submission flow.
func (s *Store) AddComment(ctx context.Context, c Comment) (Comment, error) {
	if strings.TrimSpace(c.Text) == "" {
		return Comment{}, NewValidationError("text", "this field is required")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	var authorID sql.NullInt64
	if c.Author != nil {
		authorID = sql.NullInt64{Int64: c.Author.ID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (post_id, author_id, name, email, url, text, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.PostID, authorID, c.Name, c.Email, c.URL, c.Text, c.CreatedAt.UnixNano())
	if err != nil {
		return Comment{}, &PersistenceError{Op: "insert comment", Err: err}
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return Comment{}, &PersistenceError{Op: "insert comment", Err: err}
	}
	c.CreatedAt = fromNanos(c.CreatedAt.UnixNano())
	return c, nil
}

// ListComments returns a post's comments, newest first, plus their total count.
func (s *Store) ListComments(ctx context.Context, postID int64, page Page) ([]Comment, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&total); err != nil {
		return nil, 0, &PersistenceError{Op: "count comments", Err: err}
	}
	if total == 0 {
		return nil, 0, nil
	}
	limit := page.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.post_id, c.author_id, a.username, c.name, c.email, c.url, c.text, c.created_at
FROM comments c
LEFT JOIN authors a ON a.id = c.author_id
WHERE c.post_id = ?
ORDER BY c.created_at DESC, c.id DESC
LIMIT ? OFFSET ?`, postID, limit, page.Offset)
	if err != nil {
		return nil, 0, &PersistenceError{Op: "list comments", Err: err}
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		var authorID sql.NullInt64
		var username sql.NullString
		var created int64
		if err := rows.Scan(&c.ID, &c.PostID, &authorID, &username, &c.Name, &c.Email, &c.URL, &c.Text, &created); err != nil {
			return nil, 0, &PersistenceError{Op: "scan comment", Err: err}
		}
		if authorID.Valid {
			c.Author = &Author{ID: authorID.Int64, Username: username.String}
		}
		c.CreatedAt = fromNanos(created)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, &PersistenceError{Op: "list comments", Err: err}
	}
	return out, total, nil
}

// --- helpers ---

func expectRow(res sql.Result, op, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	if n == 0 {
		return NewNotFoundError(entity, id)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
