package quill

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/eringen/quill/markdown"
)

type fixture struct {
	store    *Store
	author   Author
	catA     Category
	catB     Category
	tagGo    Tag
	tagNotes Tag
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "quill.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := setupTestStore(t)
	f := &fixture{store: s}
	var err error
	if f.author, err = s.CreateAuthor(ctx, "admin"); err != nil {
		t.Fatalf("CreateAuthor: %v", err)
	}
	if f.catA, err = s.CreateCategory(ctx, "Go"); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if f.catB, err = s.CreateCategory(ctx, "Life"); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if f.tagGo, err = s.CreateTag(ctx, "golang"); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if f.tagNotes, err = s.CreateTag(ctx, "notes"); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	return f
}

func (f *fixture) post(t *testing.T, title, body string, cat Category, created time.Time, tags ...Tag) Post {
	t.Helper()
	in := PostInput{Title: title, Body: body, CategoryID: cat.ID}
	for _, tg := range tags {
		in.TagIDs = append(in.TagIDs, tg.ID)
	}
	p, err := f.store.ImportPost(context.Background(), f.author.ID, in, created)
	if err != nil {
		t.Fatalf("ImportPost(%q): %v", title, err)
	}
	return p
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestCreateAndGetPost(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	created, err := f.store.CreatePost(ctx, f.author.ID, PostInput{
		Title:      "Hello",
		Body:       "# Intro\n\nSome **bold** text.",
		CategoryID: f.catA.ID,
		TagIDs:     []int64{f.tagGo.ID, f.tagNotes.ID},
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected an assigned id")
	}

	got, err := f.store.GetPost(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Title != "Hello" {
		t.Errorf("expected title Hello, got %q", got.Title)
	}
	if got.Category != f.catA {
		t.Errorf("expected category %+v, got %+v", f.catA, got.Category)
	}
	if got.Author != f.author {
		t.Errorf("expected author %+v, got %+v", f.author, got.Author)
	}
	if len(got.Tags) != 2 || got.Tags[0] != f.tagGo || got.Tags[1] != f.tagNotes {
		t.Errorf("unexpected tags: %+v", got.Tags)
	}
	if got.Views != 0 {
		t.Errorf("expected 0 views, got %d", got.Views)
	}
	if got.ModifiedAt.Before(got.CreatedAt) {
		t.Errorf("modified %v before created %v", got.ModifiedAt, got.CreatedAt)
	}
	if got.CreatedAt.Location() != time.UTC {
		t.Errorf("expected UTC timestamps, got %v", got.CreatedAt.Location())
	}
}

func TestCreatePostDerivesExcerpt(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	body := "# Heading\n\n" + strings.Repeat("word ", 40)

	p, err := f.store.CreatePost(ctx, f.author.ID, PostInput{Title: "t", Body: body, CategoryID: f.catA.ID})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	want := markdown.Excerpt(body, "")
	if p.Excerpt != want {
		t.Errorf("expected excerpt %q, got %q", want, p.Excerpt)
	}
	if n := len([]rune(p.Excerpt)); n == 0 || n > markdown.ExcerptLength {
		t.Errorf("excerpt length %d out of range", n)
	}
	if strings.ContainsAny(p.Excerpt, "<#*") {
		t.Errorf("excerpt should be plain text, got %q", p.Excerpt)
	}

	explicit, err := f.store.CreatePost(ctx, f.author.ID, PostInput{Title: "t", Body: body, Excerpt: "mine", CategoryID: f.catA.ID})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if explicit.Excerpt != "mine" {
		t.Errorf("explicit excerpt should be kept, got %q", explicit.Excerpt)
	}
}

func TestCreatePostValidation(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    PostInput
		field string
	}{
		{"missing title", PostInput{Body: "b", CategoryID: f.catA.ID}, "title"},
		{"long title", PostInput{Title: strings.Repeat("x", 71), Body: "b", CategoryID: f.catA.ID}, "title"},
		{"missing body", PostInput{Title: "t", CategoryID: f.catA.ID}, "body"},
		{"missing category", PostInput{Title: "t", Body: "b"}, "category"},
		{"unknown category", PostInput{Title: "t", Body: "b", CategoryID: 999}, "category"},
		{"unknown tag", PostInput{Title: "t", Body: "b", CategoryID: f.catA.ID, TagIDs: []int64{999}}, "tags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.store.CreatePost(ctx, f.author.ID, tt.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := ve.Fields[tt.field]; !ok {
				t.Errorf("expected error on %q, got %v", tt.field, ve.Fields)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("expected errors.Is(err, ErrValidation)")
			}
		})
	}

	_, total, err := f.store.ListPosts(ctx, PostFilter{}, Page{})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if total != 0 {
		t.Errorf("rejected posts must not be stored, got %d", total)
	}
}

func TestUpdatePostModifiedStrictlyIncreases(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	fixed := day(2024, time.March, 1)
	f.store.now = func() time.Time { return fixed }

	p := f.post(t, "first", "body", f.catA, fixed)
	prev := p.ModifiedAt
	for i := 0; i < 3; i++ {
		up, err := f.store.UpdatePost(ctx, p.ID, PostInput{Title: "again", Body: "new body", CategoryID: f.catB.ID})
		if err != nil {
			t.Fatalf("UpdatePost: %v", err)
		}
		if !up.ModifiedAt.After(prev) {
			t.Fatalf("update %d: modified %v not after %v", i, up.ModifiedAt, prev)
		}
		if !up.CreatedAt.Equal(p.CreatedAt) {
			t.Errorf("created changed: %v -> %v", p.CreatedAt, up.CreatedAt)
		}
		prev = up.ModifiedAt
	}
}

func TestUpdatePostKeepsViewsAndReplacesTags(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.post(t, "t", "b", f.catA, day(2024, time.January, 1), f.tagGo)
	if err := f.store.IncrementViews(ctx, p.ID); err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}

	up, err := f.store.UpdatePost(ctx, p.ID, PostInput{Title: "t2", Body: "b2", CategoryID: f.catA.ID, TagIDs: []int64{f.tagNotes.ID}})
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if up.Views != 1 {
		t.Errorf("expected views preserved at 1, got %d", up.Views)
	}
	if len(up.Tags) != 1 || up.Tags[0] != f.tagNotes {
		t.Errorf("expected tags replaced, got %+v", up.Tags)
	}
	if up.Excerpt != "b2" {
		t.Errorf("expected excerpt re-derived, got %q", up.Excerpt)
	}
}

func TestUpdateMissingPost(t *testing.T) {
	f := setupFixture(t)
	_, err := f.store.UpdatePost(context.Background(), 42, PostInput{Title: "t", Body: "b", CategoryID: f.catA.ID})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetPostNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetPost(context.Background(), 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "post" {
		t.Errorf("expected post NotFoundError, got %v", err)
	}
}

func TestIncrementViewsSequential(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.post(t, "t", "b", f.catA, day(2024, time.January, 1))

	const n = 25
	for i := 0; i < n; i++ {
		if err := f.store.IncrementViews(ctx, p.ID); err != nil {
			t.Fatalf("IncrementViews: %v", err)
		}
	}
	got, err := f.store.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Views != n {
		t.Errorf("expected %d views, got %d", n, got.Views)
	}
	if !got.ModifiedAt.Equal(p.ModifiedAt) {
		t.Errorf("view increments must not touch modified: %v -> %v", p.ModifiedAt, got.ModifiedAt)
	}
	if got.Title != p.Title || got.Body != p.Body {
		t.Error("view increments must not touch other fields")
	}
}

func TestIncrementViewsConcurrent(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.post(t, "t", "b", f.catA, day(2024, time.January, 1))

	const workers, per = 8, 10
	var wg sync.WaitGroup
	errs := make(chan error, workers*per)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				if err := f.store.IncrementViews(ctx, p.ID); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("IncrementViews: %v", err)
	}

	got, err := f.store.GetPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Views != workers*per {
		t.Errorf("expected %d views, got %d", workers*per, got.Views)
	}
}

func TestIncrementViewsMissingPost(t *testing.T) {
	s := setupTestStore(t)
	if err := s.IncrementViews(context.Background(), 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPostsOrderAndPaging(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	oldest := f.post(t, "oldest", "b", f.catA, day(2023, time.May, 1))
	middle := f.post(t, "middle", "b", f.catA, day(2024, time.February, 1))
	newest := f.post(t, "newest", "b", f.catA, day(2024, time.June, 1))

	posts, total, err := f.store.ListPosts(ctx, PostFilter{}, Page{})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	wantIDs := []int64{newest.ID, middle.ID, oldest.ID}
	for i, p := range posts {
		if p.ID != wantIDs[i] {
			t.Errorf("position %d: expected %d, got %d", i, wantIDs[i], p.ID)
		}
	}

	page, total, err := f.store.ListPosts(ctx, PostFilter{}, Page{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if total != 3 || len(page) != 1 || page[0].ID != oldest.ID {
		t.Errorf("unexpected second page: total=%d posts=%+v", total, page)
	}

	asc, _, err := f.store.ListPosts(ctx, PostFilter{Order: OrderCreatedAsc}, Page{Limit: 1})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(asc) != 1 || asc[0].ID != oldest.ID {
		t.Errorf("expected oldest first in ascending order, got %+v", asc)
	}
}

func TestListPostsFilters(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p1 := f.post(t, "测试 one", "go body", f.catA, day(2024, time.March, 3), f.tagGo)
	p2 := f.post(t, "two", "contains 测试 here", f.catB, day(2024, time.March, 20), f.tagGo, f.tagNotes)
	p3 := f.post(t, "Three", "plain", f.catA, day(2023, time.March, 5), f.tagNotes)
	p4 := f.post(t, "four", "plain", f.catA, day(2024, time.April, 1))

	tests := []struct {
		name   string
		filter PostFilter
		want   []int64
	}{
		{"all", PostFilter{}, []int64{p4.ID, p2.ID, p1.ID, p3.ID}},
		{"category", PostFilter{CategoryID: f.catA.ID}, []int64{p4.ID, p1.ID, p3.ID}},
		{"year and month", PostFilter{Year: 2024, Month: 3}, []int64{p2.ID, p1.ID}},
		{"month only", PostFilter{Month: 3}, []int64{p2.ID, p1.ID, p3.ID}},
		{"year only", PostFilter{Year: 2023}, []int64{p3.ID}},
		{"single tag", PostFilter{TagIDs: []int64{f.tagNotes.ID}}, []int64{p2.ID, p3.ID}},
		{"any of tags without duplicates", PostFilter{TagIDs: []int64{f.tagGo.ID, f.tagNotes.ID}}, []int64{p2.ID, p1.ID, p3.ID}},
		{"query title or body", PostFilter{Query: "测试"}, []int64{p2.ID, p1.ID}},
		{"query is case sensitive", PostFilter{Query: "three"}, nil},
		{"combined", PostFilter{CategoryID: f.catA.ID, Year: 2024, TagIDs: []int64{f.tagGo.ID}}, []int64{p1.ID}},
		{"no match", PostFilter{Year: 1999}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, total, err := f.store.ListPosts(ctx, tt.filter, Page{})
			if err != nil {
				t.Fatalf("ListPosts: %v", err)
			}
			if total != len(tt.want) {
				t.Fatalf("expected total %d, got %d", len(tt.want), total)
			}
			for i, p := range posts {
				if p.ID != tt.want[i] {
					t.Errorf("position %d: expected %d, got %d", i, tt.want[i], p.ID)
				}
				if !tt.filter.Matches(p) {
					t.Errorf("post %d returned but Matches is false", p.ID)
				}
			}
		})
	}
}

func TestDeleteCascades(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p1 := f.post(t, "a", "b", f.catA, day(2024, time.January, 1), f.tagGo)
	p2 := f.post(t, "b", "b", f.catB, day(2024, time.January, 2), f.tagGo)
	if _, err := f.store.AddComment(ctx, Comment{PostID: p1.ID, Name: "x", Text: "hi"}); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	// Deleting a tag only removes the association.
	if err := f.store.DeleteTag(ctx, f.tagGo.ID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	got, err := f.store.GetPost(ctx, p1.ID)
	if err != nil {
		t.Fatalf("post should survive tag deletion: %v", err)
	}
	if len(got.Tags) != 0 {
		t.Errorf("expected no tags, got %+v", got.Tags)
	}

	// Deleting a category removes its posts and their comments.
	if err := f.store.DeleteCategory(ctx, f.catA.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	if _, err := f.store.GetPost(ctx, p1.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected post removed with its category, got %v", err)
	}
	if _, total, _ := f.store.ListComments(ctx, p1.ID, Page{}); total != 0 {
		t.Errorf("expected comments removed, got %d", total)
	}
	if _, err := f.store.GetPost(ctx, p2.ID); err != nil {
		t.Errorf("post in other category should survive: %v", err)
	}

	// Deleting the author removes the rest.
	if err := f.store.DeleteAuthor(ctx, f.author.ID); err != nil {
		t.Fatalf("DeleteAuthor: %v", err)
	}
	if _, total, _ := f.store.ListPosts(ctx, PostFilter{}, Page{}); total != 0 {
		t.Errorf("expected all posts removed, got %d", total)
	}
}

func TestDeletePost(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.post(t, "a", "b", f.catA, day(2024, time.January, 1))
	if err := f.store.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if err := f.store.DeletePost(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestComments(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	p := f.post(t, "a", "b", f.catA, day(2024, time.January, 1))

	first, err := f.store.AddComment(ctx, Comment{PostID: p.ID, Name: "anon", Email: "a@example.com", Text: "first", CreatedAt: day(2024, time.January, 2)})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	second, err := f.store.AddComment(ctx, Comment{PostID: p.ID, Author: &f.author, Text: "second", CreatedAt: day(2024, time.January, 3)})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if _, err := f.store.AddComment(ctx, Comment{PostID: p.ID, Text: "  "}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty text, got %v", err)
	}

	comments, total, err := f.store.ListComments(ctx, p.ID, Page{})
	if err != nil {
		t.Fatalf("ListComments: %v", err)
	}
	if total != 2 || len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", total)
	}
	if comments[0].ID != second.ID || comments[1].ID != first.ID {
		t.Errorf("expected newest first, got %d then %d", comments[0].ID, comments[1].ID)
	}
	if comments[0].Author == nil || comments[0].Author.Username != "admin" {
		t.Errorf("expected author on second comment, got %+v", comments[0].Author)
	}
	if comments[1].Author != nil {
		t.Errorf("expected anonymous first comment, got %+v", comments[1].Author)
	}
}

func TestCategoriesAndTags(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	cats, err := f.store.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 2 || cats[0] != f.catA || cats[1] != f.catB {
		t.Errorf("unexpected categories: %+v", cats)
	}
	tags, err := f.store.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 2 {
		t.Errorf("expected 2 tags, got %d", len(tags))
	}
	if _, err := f.store.GetCategory(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.store.GetTag(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.store.CreateCategory(ctx, " "); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for blank name, got %v", err)
	}
}

func TestPostAggregates(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	agg, err := f.store.PostAggregates(ctx)
	if err != nil {
		t.Fatalf("PostAggregates: %v", err)
	}
	if len(agg.Archives)+len(agg.Categories)+len(agg.Tags) != 0 {
		t.Errorf("expected no aggregates without posts, got %+v", agg)
	}

	f.post(t, "a", "x", f.catA, day(2023, 12, 31), f.tagGo)
	f.post(t, "b", "x", f.catB, day(2024, 1, 2), f.tagNotes)
	f.post(t, "c", "x", f.catA, day(2024, 1, 20), f.tagGo, f.tagNotes)
	f.post(t, "d", "x", f.catA, day(2024, 1, 21))

	agg, err = f.store.PostAggregates(ctx)
	if err != nil {
		t.Fatalf("PostAggregates: %v", err)
	}
	wantArchives := []ArchiveMonth{{Year: 2023, Month: 12, Count: 1}, {Year: 2024, Month: 1, Count: 3}}
	if !reflect.DeepEqual(agg.Archives, wantArchives) {
		t.Errorf("Archives = %+v, want %+v", agg.Archives, wantArchives)
	}
	wantCats := []CategoryCount{{Category: f.catA, Count: 3}, {Category: f.catB, Count: 1}}
	if !reflect.DeepEqual(agg.Categories, wantCats) {
		t.Errorf("Categories = %+v, want %+v", agg.Categories, wantCats)
	}
	wantTags := []TagCount{{Tag: f.tagGo, Count: 2}, {Tag: f.tagNotes, Count: 2}}
	if !reflect.DeepEqual(agg.Tags, wantTags) {
		t.Errorf("Tags = %+v, want %+v", agg.Tags, wantTags)
	}
}

func TestPersistenceFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	s := &Store{db: db, now: time.Now}

	mock.ExpectExec("UPDATE posts SET views = views \\+ 1").
		WithArgs(int64(5)).
		WillReturnError(errors.New("disk I/O error"))

	err = s.IncrementViews(context.Background(), 5)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("driver failure must not look like not found")
	}

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("database is locked"))
	if _, _, err := s.ListPosts(context.Background(), PostFilter{}, Page{}); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	mock.ExpectQuery("SELECT id, name FROM tags").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "golang").RowError(0, errors.New("short read")))
	if _, err := s.ListTags(context.Background()); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence from row error, got %v", err)
	}

	mock.ExpectQuery("SELECT id, name FROM categories").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Go").RowError(0, errors.New("short read")))
	if _, err := s.ListCategories(context.Background()); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence from row error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
