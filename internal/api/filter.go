package api

import (
	"strings"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

// Filter narrows an article list by site name (exact), free-text query
// (case-insensitive substring over title, summary, and source), and a
// result cap. limit <= 0 means no cap.
func Filter(articles []types.Article, site, q string, limit int) []types.Article {
	ql := strings.ToLower(strings.TrimSpace(q))

	filtered := make([]types.Article, 0)
	for _, a := range articles {
		if site != "" && a.Site != site {
			continue
		}
		if ql != "" {
			hay := strings.ToLower(a.Title + " " + a.Summary + " " + a.Source)
			if !strings.Contains(hay, ql) {
				continue
			}
		}
		filtered = append(filtered, a)
		if limit > 0 && len(filtered) >= limit {
			break
		}
	}
	return filtered
}
