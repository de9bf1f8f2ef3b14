package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/fetcher"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

// ArticleBody is the full text of a single article page.
type ArticleBody struct {
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	Authors   []string `json:"authors,omitempty"`
	Published string   `json:"published,omitempty"`
	Text      string   `json:"text"`
	Images    []string `json:"images,omitempty"`
	Site      string   `json:"site"`
	WordCount int      `json:"word_count"`
}

// XPath expressions tried for the article container, most specific first.
var bodyContainerExprs = []string{
	"//article",
	`//*[contains(@class,"article-content")]`,
	`//*[contains(@class,"article-body")]`,
	`//*[contains(@class,"post-content")]`,
	`//*[contains(@class,"entry-content")]`,
	`//*[contains(@class,"content-body")]`,
	`//*[contains(@class,"story-body")]`,
	`//*[@itemprop="articleBody"]`,
	`//*[contains(@class,"article__body")]`,
	`//*[contains(@class,"post-body")]`,
	"//main",
}

var authorExprs = []string{
	`//*[contains(@class,"author")]`,
	`//*[@rel="author"]`,
	`//*[@itemprop="author"]`,
	`//*[contains(@class,"byline")]`,
}

var dateExprs = []string{
	`//*[@itemprop="datePublished"]`,
	`//*[contains(@class,"publish")]`,
	`//*[contains(@class,"date")]`,
	"//time",
}

// Stripped before extraction so chrome text never leaks into the body.
var strippedTags = map[string]struct{}{
	"script": {}, "style": {}, "nav": {}, "header": {}, "footer": {},
	"aside": {}, "iframe": {}, "noscript": {}, "form": {},
}

// ArticleScraper extracts full article text from individual article pages.
type ArticleScraper struct {
	fetcher fetcher.Fetcher
	logger  *slog.Logger
}

// NewArticleScraper creates an article-page scraper.
func NewArticleScraper(f fetcher.Fetcher, logger *slog.Logger) *ArticleScraper {
	return &ArticleScraper{
		fetcher: f,
		logger:  logger.With("component", "article_scraper"),
	}
}

// Scrape fetches an article page and extracts its body. Returns nil when
// the page is unreachable or no text could be recovered.
func (s *ArticleScraper) Scrape(ctx context.Context, articleURL string) *ArticleBody {
	out := s.fetcher.Fetch(ctx, articleURL, fetcher.PurposePage)
	if !out.OK() {
		s.logger.Debug("article page unreachable", "url", articleURL, "error", out.Err)
		return nil
	}
	return ExtractArticleBody(out.Body, articleURL)
}

// ExtractArticleBody pulls the article text out of raw page HTML. The
// container is located by a selector cascade; when none matches, the parent
// element holding the most paragraph text wins.
func ExtractArticleBody(htmlBody, articleURL string) *ArticleBody {
	doc, err := htmlquery.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return nil
	}
	stripChrome(doc)

	title := ""
	if h1 := htmlquery.FindOne(doc, "//h1"); h1 != nil {
		title = strings.TrimSpace(htmlquery.InnerText(h1))
	}
	if title == "" {
		if t := htmlquery.FindOne(doc, "//title"); t != nil {
			title = strings.TrimSpace(htmlquery.InnerText(t))
		}
	}

	var container *html.Node
	for _, expr := range bodyContainerExprs {
		if container = htmlquery.FindOne(doc, expr); container != nil {
			break
		}
	}
	if container == nil {
		container = densestParagraphParent(doc)
	}
	if container == nil {
		return nil
	}

	var paragraphs []string
	for _, p := range htmlquery.Find(container, ".//p") {
		if text := strings.TrimSpace(htmlquery.InnerText(p)); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	text := strings.Join(paragraphs, "\n\n")
	if text == "" {
		return nil
	}

	return &ArticleBody{
		URL:       articleURL,
		Title:     title,
		Authors:   extractAuthors(doc),
		Published: extractPublished(doc),
		Text:      text,
		Images:    extractImages(container, articleURL),
		Site:      types.Hostname(articleURL),
		WordCount: len(strings.Fields(text)),
	}
}

// stripChrome removes non-content elements in place.
func stripChrome(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.ElementNode {
			if _, strip := strippedTags[c.Data]; strip {
				n.RemoveChild(c)
				continue
			}
		}
		stripChrome(c)
	}
}

// densestParagraphParent finds the parent element carrying the most
// paragraph text, for pages with no recognizable container.
func densestParagraphParent(doc *html.Node) *html.Node {
	weights := make(map[*html.Node]int)
	for _, p := range htmlquery.Find(doc, "//p") {
		if p.Parent != nil {
			weights[p.Parent] += len(htmlquery.InnerText(p))
		}
	}
	var best *html.Node
	bestWeight := 0
	for parent, w := range weights {
		if w > bestWeight {
			best, bestWeight = parent, w
		}
	}
	return best
}

func extractAuthors(doc *html.Node) []string {
	seen := make(map[string]struct{})
	var authors []string
	for _, expr := range authorExprs {
		for _, n := range htmlquery.Find(doc, expr) {
			text := strings.TrimSpace(htmlquery.InnerText(n))
			if text == "" || len(text) >= 100 {
				continue
			}
			if _, dup := seen[text]; dup {
				continue
			}
			seen[text] = struct{}{}
			authors = append(authors, text)
			if len(authors) == 3 {
				return authors
			}
		}
		if len(authors) > 0 {
			break
		}
	}
	return authors
}

func extractPublished(doc *html.Node) string {
	for _, expr := range dateExprs {
		n := htmlquery.FindOne(doc, expr)
		if n == nil {
			continue
		}
		val := htmlquery.SelectAttr(n, "datetime")
		if val == "" {
			val = strings.TrimSpace(htmlquery.InnerText(n))
		}
		if val != "" {
			return val
		}
	}
	return ""
}

func extractImages(container *html.Node, articleURL string) []string {
	base, err := url.Parse(articleURL)
	if err != nil {
		return nil
	}
	var images []string
	for _, img := range htmlquery.Find(container, ".//img") {
		src := htmlquery.SelectAttr(img, "src")
		if src == "" {
			src = htmlquery.SelectAttr(img, "data-src")
		}
		if src == "" {
			continue
		}
		if u, err := url.Parse(src); err == nil {
			images = append(images, base.ResolveReference(u).String())
		}
		if len(images) == 5 {
			break
		}
	}
	return images
}
