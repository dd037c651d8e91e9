package quill

import (
	"reflect"
	"testing"
)

func widgetPosts() []Post {
	goCat := Category{ID: 1, Name: "Go"}
	life := Category{ID: 2, Name: "Life"}
	golang := Tag{ID: 1, Name: "golang"}
	notes := Tag{ID: 2, Name: "notes"}
	return []Post{
		{ID: 1, Title: "a", Category: goCat, Tags: []Tag{golang}, CreatedAt: day(2023, 12, 31)},
		{ID: 2, Title: "b", Category: life, Tags: []Tag{notes}, CreatedAt: day(2024, 1, 2)},
		{ID: 3, Title: "c", Category: goCat, Tags: []Tag{golang, notes}, CreatedAt: day(2024, 1, 20)},
		{ID: 4, Title: "d", Category: goCat, CreatedAt: day(2024, 1, 20)},
	}
}

func TestRecentPosts(t *testing.T) {
	got := RecentPosts(widgetPosts(), 3)
	var ids []int64
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	if want := []int64{4, 3, 2}; !reflect.DeepEqual(ids, want) {
		t.Errorf("RecentPosts ids = %v, want %v", ids, want)
	}
	if n := len(RecentPosts(widgetPosts(), 10)); n != 4 {
		t.Errorf("expected all 4 posts, got %d", n)
	}
}

func TestBuildSidebar(t *testing.T) {
	agg := Aggregates{
		Archives:   []ArchiveMonth{{Year: 2023, Month: 12, Count: 1}, {Year: 2024, Month: 1, Count: 3}},
		Categories: []CategoryCount{{Category: Category{ID: 1, Name: "Go"}, Count: 3}},
	}
	sb := BuildSidebar(widgetPosts(), agg, 2)
	if len(sb.Recent) != 2 || sb.Recent[0].ID != 4 {
		t.Errorf("Recent = %+v", sb.Recent)
	}
	if !reflect.DeepEqual(sb.Archives, agg.Archives) || !reflect.DeepEqual(sb.Categories, agg.Categories) {
		t.Errorf("aggregates not carried over: %+v", sb)
	}
	if link := sb.Archives[1].Link(); link != "/archive/2024/1/" {
		t.Errorf("Link = %q", link)
	}
	if sb := BuildSidebar(nil, Aggregates{}, DefaultRecentPosts); len(sb.Recent)+len(sb.Archives)+len(sb.Categories)+len(sb.Tags) != 0 {
		t.Errorf("empty collection should give empty widgets: %+v", sb)
	}
}

func TestFilterMatches(t *testing.T) {
	p := widgetPosts()[2]
	p.Body = "Generics 测试"
	tests := []struct {
		name string
		f    PostFilter
		want bool
	}{
		{"empty", PostFilter{}, true},
		{"category", PostFilter{CategoryID: 1}, true},
		{"other category", PostFilter{CategoryID: 2}, false},
		{"year and month", PostFilter{Year: 2024, Month: 1}, true},
		{"month only", PostFilter{Month: 2}, false},
		{"any tag", PostFilter{TagIDs: []int64{9, 2}}, true},
		{"no tag", PostFilter{TagIDs: []int64{9}}, false},
		{"query in body", PostFilter{Query: "测试"}, true},
		{"query case sensitive", PostFilter{Query: "generics"}, false},
	}
	for _, tt := range tests {
		if got := tt.f.Matches(p); got != tt.want {
			t.Errorf("%s: Matches = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseOrdering(t *testing.T) {
	for _, s := range []string{"", "-created_time", "created_time", "-modified_time", "-views"} {
		o, err := ParseOrdering(s)
		if err != nil {
			t.Errorf("ParseOrdering(%q): %v", s, err)
			continue
		}
		if s != "" && o.String() != s {
			t.Errorf("round trip %q gave %q", s, o.String())
		}
	}
	if _, err := ParseOrdering("title"); err == nil {
		t.Error("expected error for unsupported ordering")
	}
}

func TestPageRequestWindow(t *testing.T) {
	pr := pageRequest{Number: 3, Size: 10}
	if w := pr.window(); w.Limit != 10 || w.Offset != 20 {
		t.Errorf("window = %+v", w)
	}
	if err := pr.check(21); err != nil {
		t.Errorf("page 3 of 21 items should exist: %v", err)
	}
	if err := pr.check(20); err == nil {
		t.Error("page 3 of 20 items should not exist")
	}
	if err := (pageRequest{Number: 1, Size: 10}).check(0); err != nil {
		t.Errorf("first page always exists: %v", err)
	}
	if got := paginateSlice([]int{1, 2, 3}, pageRequest{Number: 2, Size: 2}); !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("paginateSlice = %v", got)
	}
}

func TestShapeRejectsUnsupportedValue(t *testing.T) {
	if _, err := Shape(ActionDetail, []Post{}); err == nil {
		t.Error("expected error for list value with detail action")
	}
	items, err := Shape(ActionList, widgetPosts())
	if err != nil {
		t.Fatal(err)
	}
	if got := len(items.([]PostItem)); got != 4 {
		t.Errorf("expected 4 items, got %d", got)
	}
}

func TestRelatedPosts(t *testing.T) {
	posts := widgetPosts()
	got := RelatedPosts(posts[0], posts)
	if len(got) != 1 || got[0].ID != 3 {
		t.Errorf("RelatedPosts = %+v", got)
	}
}
