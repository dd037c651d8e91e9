package quill

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// SeedOptions controls the fixture generator.
type SeedOptions struct {
	Posts    int   // number of posts (default 20)
	Comments int   // maximum comments per post (default 5)
	Seed     int64 // faker seed; 0 uses the clock
	Username string
}

var (
	seedCategories = []string{"Go notes", "Open source", "Tools", "Life as a programmer", "测试分类"}
	seedTags       = []string{"golang", "sqlite", "echo", "docker", "nginx", "markdown", "testing", "deploy", "测试标签"}
)

// SeedResult reports what Seed created.
type SeedResult struct {
	Author     Author
	Categories []Category
	Tags       []Tag
	Posts      []Post
	Comments   int
}

// Seed fills s with generated authors, categories, tags, posts backdated
// over the past year, and guest comments.
func Seed(ctx context.Context, s *Store, opts SeedOptions) (SeedResult, error) {
	if opts.Posts <= 0 {
		opts.Posts = 20
	}
	if opts.Comments < 0 {
		opts.Comments = 0
	} else if opts.Comments == 0 {
		opts.Comments = 5
	}
	if opts.Username == "" {
		opts.Username = "admin"
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	fake := gofakeit.New(opts.Seed)

	var res SeedResult
	var err error
	if res.Author, err = s.CreateAuthor(ctx, opts.Username); err != nil {
		return res, fmt.Errorf("seed author: %w", err)
	}
	for _, name := range seedCategories {
		c, err := s.CreateCategory(ctx, name)
		if err != nil {
			return res, fmt.Errorf("seed category: %w", err)
		}
		res.Categories = append(res.Categories, c)
	}
	for _, name := range seedTags {
		t, err := s.CreateTag(ctx, name)
		if err != nil {
			return res, fmt.Errorf("seed tag: %w", err)
		}
		res.Tags = append(res.Tags, t)
	}

	now := time.Now().UTC()
	for i := 0; i < opts.Posts; i++ {
		cat := res.Categories[fake.Number(0, len(res.Categories)-1)]
		in := PostInput{
			Title:      truncateRunes(strings.TrimSuffix(fake.Sentence(fake.Number(3, 8)), "."), 70),
			Body:       fakeMarkdown(fake),
			CategoryID: cat.ID,
		}
		for _, t := range res.Tags {
			if fake.Number(0, 3) == 0 {
				in.TagIDs = append(in.TagIDs, t.ID)
			}
		}
		created := fake.DateRange(now.AddDate(-1, 0, 0), now).UTC()
		p, err := s.ImportPost(ctx, res.Author.ID, in, created)
		if err != nil {
			return res, fmt.Errorf("seed post %d: %w", i, err)
		}
		res.Posts = append(res.Posts, p)

		for j := fake.Number(0, opts.Comments); j > 0; j-- {
			_, err := s.AddComment(ctx, Comment{
				PostID:    p.ID,
				Name:      fake.Name(),
				Email:     fake.Email(),
				URL:       fake.URL(),
				Text:      fake.Paragraph(1, 2, 12, " "),
				CreatedAt: fake.DateRange(created, now).UTC(),
			})
			if err != nil {
				return res, fmt.Errorf("seed comment: %w", err)
			}
			res.Comments++
		}
	}
	return res, nil
}

func fakeMarkdown(fake *gofakeit.Faker) string {
	var b strings.Builder
	b.WriteString(fake.Paragraph(1, 3, 14, " "))
	b.WriteString("\n\n")
	for i, n := 0, fake.Number(1, 3); i < n; i++ {
		fmt.Fprintf(&b, "## %s\n\n", strings.TrimSuffix(fake.Sentence(3), "."))
		b.WriteString(fake.Paragraph(1, 4, 14, " "))
		b.WriteString("\n\n")
		if fake.Bool() {
			fmt.Fprintf(&b, "### %s\n\n", strings.TrimSuffix(fake.Sentence(2), "."))
			fmt.Fprintf(&b, "- %s\n- %s\n\n", fake.Sentence(4), fake.Sentence(4))
		}
	}
	if fake.Bool() {
		b.WriteString("```go\nfunc main() {\n\tfmt.Println(\"" + fake.Word() + "\")\n}\n```\n")
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return strings.TrimSpace(string(r[:n]))
	}
	return s
}
