// Package feed turns RSS, Atom, and JSON feed documents into normalized
// articles.
package feed

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/fetcher"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

const maxSummaryLen = 500

// Parser fetches and normalizes feeds.
type Parser struct {
	fetcher fetcher.Fetcher
	logger  *slog.Logger
}

// NewParser creates a feed parser.
func NewParser(f fetcher.Fetcher, logger *slog.Logger) *Parser {
	return &Parser{
		fetcher: f,
		logger:  logger.With("component", "feed_parser"),
	}
}

// Parse fetches feedURL and returns its normalized articles plus the feed's
// own title. A dead or malformed feed yields an empty slice, never an error;
// the caller decides whether to fall back to another strategy.
func (p *Parser) Parse(ctx context.Context, feedURL string) ([]types.Article, string) {
	out := p.fetcher.Fetch(ctx, feedURL, fetcher.PurposeFeed)
	if !out.OK() {
		p.logger.Debug("feed unreachable", "url", feedURL, "error", out.Err)
		return nil, ""
	}
	return p.ParseContent(out.Body, feedURL)
}

// ParseContent normalizes an already-fetched feed document. Content that
// does not parse as any feed dialect yields an empty slice.
func (p *Parser) ParseContent(content, feedURL string) ([]types.Article, string) {
	parsed, err := gofeed.NewParser().ParseString(content)
	if err != nil || parsed == nil {
		p.logger.Debug("feed unparseable", "url", feedURL, "error", err)
		return nil, ""
	}

	sourceTitle := parsed.Title
	if sourceTitle == "" {
		sourceTitle = parsed.Link
	}

	articles := make([]types.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}

		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = types.UntitledSentinel
		}

		rawSummary := item.Description
		if rawSummary == "" {
			rawSummary = item.Content
		}

		articles = append(articles, types.Article{
			Title:     title,
			Link:      item.Link,
			Summary:   cleanSummary(rawSummary),
			Published: publishedTime(item),
			Image:     itemImage(item, rawSummary),
			Source:    sourceTitle,
			Feed:      feedURL,
		})
	}
	return articles, sourceTitle
}

// publishedTime resolves an item timestamp to RFC 3339, preferring the
// dates gofeed already parsed, then a loose parse of the raw strings.
// Unparseable dates come back empty; the article is kept either way.
func publishedTime(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.Format(time.RFC3339)
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.Format(time.RFC3339)
	}
	for _, raw := range []string{item.Published, item.Updated} {
		if t, ok := types.ParseTimeLoose(raw); ok {
			return t.Format(time.RFC3339)
		}
	}
	return ""
}

// itemImage hunts for a representative image: media extensions, the feed's
// own image element, an <img> inside the summary HTML, then enclosures.
func itemImage(item *gofeed.Item, rawSummary string) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, key := range []string{"content", "thumbnail"} {
			if exts := media[key]; len(exts) > 0 {
				if u := exts[0].Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	if src := firstImgSrc(rawSummary); src != "" {
		return src
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

// cleanSummary strips HTML markup, collapses whitespace, and truncates.
// The cap counts runes, not bytes, so a multibyte character is never split.
func cleanSummary(s string) string {
	if s == "" {
		return ""
	}
	text := stripHTML(s)
	if runes := []rune(text); len(runes) > maxSummaryLen {
		text = string(runes[:maxSummaryLen])
	}
	return text
}

// stripHTML extracts the text content of an HTML fragment with single
// spaces between text nodes. Input that is not HTML passes through as-is.
func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// firstImgSrc returns the src of the first <img> in an HTML fragment.
func firstImgSrc(s string) string {
	if s == "" || !strings.Contains(s, "<img") {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}
	var src string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if src != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "img" {
			for _, attr := range n.Attr {
				if attr.Key == "src" && attr.Val != "" {
					src = attr.Val
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return src
}
