package quill

import (
	"sort"
	"strconv"
	"time"
)

// DefaultRecentPosts is the number of posts in the recent-posts widget.
const DefaultRecentPosts = 5

// ArchiveMonth is one entry of the archive widget.
type ArchiveMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// Link is the archive page URL for the month.
func (m ArchiveMonth) Link() string {
	return BuildURL("/", "archive", strconv.Itoa(m.Year), strconv.Itoa(m.Month))
}

// CategoryCount is a category with the number of posts in it.
type CategoryCount struct {
	Category
	Count int
}

// TagCount is a tag with the number of posts carrying it.
type TagCount struct {
	Tag
	Count int
}

// Sidebar holds the widget aggregates shown next to every page.
type Sidebar struct {
	Recent     []Post
	Archives   []ArchiveMonth
	Categories []CategoryCount
	Tags       []TagCount
}

// RecentPosts returns the n most recently created posts.
func RecentPosts(posts []Post, n int) []Post {
	sorted := make([]Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Aggregates are the post counts behind the archive, category and tag
// widgets. Archives are oldest first; categories and tags are ordered by
// name and never include entries without posts.
type Aggregates struct {
	Archives   []ArchiveMonth
	Categories []CategoryCount
	Tags       []TagCount
}

// BuildSidebar composes every widget from the newest posts and the store's
// aggregates. recent may hold more than n posts; only the n newest are kept.
func BuildSidebar(recent []Post, agg Aggregates, n int) Sidebar {
	return Sidebar{
		Recent:     RecentPosts(recent, n),
		Archives:   agg.Archives,
		Categories: agg.Categories,
		Tags:       agg.Tags,
	}
}

// MonthName is the English month name, for archive labels.
func MonthName(m int) string {
	return time.Month(m).String()
}
