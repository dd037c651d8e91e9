package quill

import (
	"context"
	"testing"
	"time"
)

func TestSeed(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	res, err := Seed(ctx, s, SeedOptions{Posts: 12, Comments: 3, Seed: 42})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(res.Categories) != len(seedCategories) || len(res.Tags) != len(seedTags) {
		t.Fatalf("unexpected fixtures: %d categories, %d tags", len(res.Categories), len(res.Tags))
	}

	posts, total, err := s.ListPosts(ctx, PostFilter{}, Page{})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if total != 12 {
		t.Fatalf("expected 12 posts, got %d", total)
	}
	yearAgo := time.Now().AddDate(-1, 0, -1)
	for i, p := range posts {
		if p.Excerpt == "" {
			t.Errorf("post %d has no excerpt", p.ID)
		}
		if p.CreatedAt.Before(yearAgo) {
			t.Errorf("post %d created too early: %v", p.ID, p.CreatedAt)
		}
		if p.ModifiedAt.Before(p.CreatedAt) {
			t.Errorf("post %d modified before created", p.ID)
		}
		if i > 0 && p.CreatedAt.After(posts[i-1].CreatedAt) {
			t.Errorf("posts not in descending creation order at %d", i)
		}
	}

	var comments int
	for _, p := range posts {
		_, n, err := s.ListComments(ctx, p.ID, Page{})
		if err != nil {
			t.Fatalf("ListComments: %v", err)
		}
		comments += n
	}
	if comments != res.Comments {
		t.Errorf("expected %d comments, got %d", res.Comments, comments)
	}
}
