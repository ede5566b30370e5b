package briefing

import "github.com/go-go-golems/morning-news/pkg/api"

const (
	// AllCategories is the reserved category meaning "no filter".
	AllCategories = "all"
	// PreviewCount is the number of articles shown while the list is collapsed.
	PreviewCount = 5
)

// FilterByCategory returns the articles whose category equals cat, preserving order. The reserved
// AllCategories value returns the input unchanged. The input slice is never modified.
func FilterByCategory(articles []api.Article, cat string) []api.Article {
	if cat == AllCategories {
		return articles
	}
	out := make([]api.Article, 0, len(articles))
	for _, a := range articles {
		if a.Category == cat {
			out = append(out, a)
		}
	}
	return out
}

// Visible returns the slice of filtered that is displayed given the show-all flag.
func Visible(filtered []api.Article, showAll bool) []api.Article {
	if showAll || len(filtered) <= PreviewCount {
		return filtered
	}
	return filtered[:PreviewCount]
}

// CountByCategory counts articles per category over the full list.
func CountByCategory(articles []api.Article) map[string]int {
	counts := map[string]int{}
	for _, a := range articles {
		counts[a.Category]++
	}
	return counts
}
