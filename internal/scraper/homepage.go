// Package scraper extracts article listings from homepages that expose no
// feed, and full article bodies from article pages.
package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/config"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/fetcher"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

const maxScrapedSummaryLen = 300

// Tier 1 is trusted enough to stop the cascade once it yields this many.
const articleTierSufficient = 5

// Substrings that mark a class/id as a likely news item container.
var itemClassKeywords = []string{"article", "news", "story", "post", "item", "card"}

// Substrings that mark a container as likely page content.
var contentLabelKeywords = []string{"content", "main", "article", "news", "story", "feed", "list", "posts"}

// Substrings that mark an anchor's parent as navigation chrome.
var noiseLabelKeywords = []string{"nav", "menu", "footer", "subscribe", "login", "cookie", "sidebar", "widget"}

// Link path fragments that are never articles.
var skipLinkKeywords = []string{"/tag/", "/category/", "/author/", "/page/", "javascript:", "#"}

var skipLinkKeywordsLoose = []string{"/tag/", "/category/", "/author/", "javascript:", "#", "mailto:", "tel:"}

// HomepageScraper pulls headline listings out of raw homepage HTML.
type HomepageScraper struct {
	fetcher fetcher.Fetcher
	cfg     *config.ScrapeConfig
	logger  *slog.Logger
}

// NewHomepageScraper creates a homepage scraper.
func NewHomepageScraper(f fetcher.Fetcher, cfg *config.Config, logger *slog.Logger) *HomepageScraper {
	return &HomepageScraper{
		fetcher: f,
		cfg:     &cfg.Scrape,
		logger:  logger.With("component", "homepage_scraper"),
	}
}

// Scrape fetches homepageURL and extracts article listings from it. An
// unreachable homepage yields an empty slice.
func (s *HomepageScraper) Scrape(ctx context.Context, homepageURL string) []types.Article {
	out := s.fetcher.Fetch(ctx, homepageURL, fetcher.PurposePage)
	if !out.OK() {
		s.logger.Debug("homepage unreachable", "url", homepageURL, "error", out.Err)
		return nil
	}
	return s.ScrapeContent(out.Body, homepageURL)
}

// ScrapeContent runs the extraction cascade over already-fetched HTML.
// Three tiers, strictest first: semantic <article> elements, then elements
// whose class or id suggests a news item, then bare anchors inside likely
// content containers. A tier that produces enough results stops the
// cascade; later tiers only top up what earlier ones found.
func (s *HomepageScraper) ScrapeContent(htmlBody, homepageURL string) []types.Article {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil
	}

	limit := s.cfg.MaxArticlesPerSite
	if limit <= 0 {
		limit = 50
	}
	source := types.Hostname(homepageURL)

	st := &scrapeState{
		baseURL: homepageURL,
		source:  source,
		limit:   limit,
		seen:    make(map[string]struct{}),
	}

	st.articleElements(doc)
	if len(st.articles) >= articleTierSufficient {
		return st.articles
	}
	st.classPatternElements(doc)
	if len(st.articles) >= limit {
		return st.articles
	}
	st.contentContainerAnchors(doc)
	return st.articles
}

// scrapeState accumulates articles across tiers with shared dedup and the
// shared per-site cap.
type scrapeState struct {
	baseURL  string
	source   string
	limit    int
	seen     map[string]struct{}
	articles []types.Article
}

func (st *scrapeState) full() bool {
	return len(st.articles) >= st.limit
}

func (st *scrapeState) add(a types.Article) {
	if st.full() {
		return
	}
	norm := types.NormalizeLink(a.Link)
	if _, dup := st.seen[norm]; dup {
		return
	}
	st.seen[norm] = struct{}{}
	st.articles = append(st.articles, a)
}

// articleElements extracts from semantic <article> blocks. The anchor text
// is the preferred title, then a heading, then any element classed "title".
func (st *scrapeState) articleElements(doc *goquery.Document) {
	doc.Find("article").EachWithBreak(func(_ int, art *goquery.Selection) bool {
		a := art.Find("a[href]").First()

		title := strings.TrimSpace(a.Text())
		if title == "" {
			h := art.Find("h1, h2, h3, h4").First()
			if h.Length() == 0 {
				h = art.Find(`[class*="title"]`).First()
			}
			title = strings.TrimSpace(h.Text())
		}

		link := resolveLink(st.baseURL, a.AttrOr("href", ""))
		if title == "" || link == "" || len(title) < 10 {
			return true
		}

		published := ""
		t := art.Find("time").First()
		if t.Length() > 0 {
			val := t.AttrOr("datetime", "")
			if val == "" {
				val = strings.TrimSpace(t.Text())
			}
			if ts, ok := types.ParseTimeLoose(val); ok {
				published = ts.Format(time.RFC3339)
			}
		}

		st.add(types.Article{
			Title:     title,
			Link:      link,
			Summary:   elementSummary(art),
			Published: published,
			Image:     elementImage(st.baseURL, art),
			Source:    st.source,
		})
		return !st.full()
	})
}

// classPatternElements extracts from divs, list items, and sections whose
// class/id names a news-item pattern, plus role="article" elements.
func (st *scrapeState) classPatternElements(doc *goquery.Document) {
	doc.Find(`div, li, section, [role="article"]`).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if el.AttrOr("role", "") != "article" && !matchesAny(elementLabel(el), itemClassKeywords) {
			return true
		}

		a := el.Find("a[href]").First()
		if a.Length() == 0 {
			return true
		}

		title := strings.TrimSpace(el.Find("h1, h2, h3, h4, h5").First().Text())
		if title == "" {
			title = strings.TrimSpace(a.Text())
		}
		if len(title) < 15 || len(title) > 200 {
			return true
		}

		link := resolveLink(st.baseURL, a.AttrOr("href", ""))
		if link == "" || matchesAny(strings.ToLower(link), skipLinkKeywords) {
			return true
		}

		st.add(types.Article{
			Title:   title,
			Link:    link,
			Summary: elementSummary(el),
			Image:   elementImage(st.baseURL, el),
			Source:  st.source,
		})
		return !st.full()
	})
}

// contentContainerAnchors is the loosest tier: any anchor with headline-like
// text inside a container labeled as content. Falls back to the whole body
// when no labeled container exists.
func (st *scrapeState) contentContainerAnchors(doc *goquery.Document) {
	containers := doc.Find("section, div, main, ul").FilterFunction(func(_ int, el *goquery.Selection) bool {
		return matchesAny(elementLabel(el), contentLabelKeywords)
	})
	if containers.Length() == 0 {
		containers = doc.Find("body")
		if containers.Length() == 0 {
			containers = doc.Selection
		}
	}

	containers.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strings.TrimSpace(a.Text())
		if len(text) < 25 || len(text) > 180 {
			return true
		}

		parent := a.Parent()
		if matchesAny(elementLabel(parent), noiseLabelKeywords) {
			return true
		}

		link := resolveLink(st.baseURL, a.AttrOr("href", ""))
		if link == "" || matchesAny(strings.ToLower(link), skipLinkKeywordsLoose) {
			return true
		}

		st.add(types.Article{
			Title:   text,
			Link:    link,
			Summary: elementSummary(parent),
			Source:  st.source,
		})
		return !st.full()
	})
}

// elementLabel joins an element's class and id for keyword matching.
func elementLabel(el *goquery.Selection) string {
	return strings.ToLower(el.AttrOr("class", "") + " " + el.AttrOr("id", ""))
}

// elementSummary pulls the first paragraph, truncated on a rune boundary.
func elementSummary(el *goquery.Selection) string {
	p := el.Find("p").First()
	if p.Length() == 0 {
		return ""
	}
	text := strings.TrimSpace(p.Text())
	if runes := []rune(text); len(runes) > maxScrapedSummaryLen {
		text = string(runes[:maxScrapedSummaryLen])
	}
	return text
}

// elementImage pulls the first image, preferring src over lazy data-src.
func elementImage(baseURL string, el *goquery.Selection) string {
	img := el.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	src := img.AttrOr("src", "")
	if src == "" {
		src = img.AttrOr("data-src", "")
	}
	return resolveLink(baseURL, src)
}

func matchesAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// resolveLink resolves href against base; "" when either does not parse.
func resolveLink(base, href string) string {
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}
