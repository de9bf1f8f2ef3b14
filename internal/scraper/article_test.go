package scraper

import (
	"strings"
	"testing"
)

const articlePageHTML = `<html>
<head><title>Fallback title | Site</title></head>
<body>
<nav><a href="/">Home</a><p>Navigation paragraph that must not leak.</p></nav>
<h1>Gene therapy clears phase three</h1>
<div class="byline">Dana Reyes</div>
<time datetime="2025-04-01T09:00:00Z">April 1</time>
<div class="article-body">
  <p>First paragraph of the body.</p>
  <p>Second paragraph with more detail.</p>
  <img src="/figures/fig1.png">
</div>
<footer><p>Copyright footer paragraph.</p></footer>
</body>
</html>`

func TestExtractArticleBody(t *testing.T) {
	body := ExtractArticleBody(articlePageHTML, "https://example.com/gene-therapy")
	if body == nil {
		t.Fatal("expected a body")
	}
	if body.Title != "Gene therapy clears phase three" {
		t.Errorf("title = %q", body.Title)
	}
	if body.Text != "First paragraph of the body.\n\nSecond paragraph with more detail." {
		t.Errorf("text = %q", body.Text)
	}
	if strings.Contains(body.Text, "Navigation") || strings.Contains(body.Text, "Copyright") {
		t.Errorf("chrome text leaked into body: %q", body.Text)
	}
	if len(body.Authors) != 1 || body.Authors[0] != "Dana Reyes" {
		t.Errorf("authors = %v", body.Authors)
	}
	if body.Published != "2025-04-01T09:00:00Z" {
		t.Errorf("published = %q", body.Published)
	}
	if len(body.Images) != 1 || body.Images[0] != "https://example.com/figures/fig1.png" {
		t.Errorf("images = %v", body.Images)
	}
	if body.Site != "example.com" {
		t.Errorf("site = %q", body.Site)
	}
	if body.WordCount != 10 {
		t.Errorf("word count = %d", body.WordCount)
	}
}

func TestExtractArticleBodyDensestFallback(t *testing.T) {
	html := `<html><body>
	<div><p>Lonely paragraph elsewhere.</p></div>
	<div id="unlabeled">
	  <p>The real body has several paragraphs and far more text than anything else.</p>
	  <p>A second substantial paragraph continues the piece at length here.</p>
	</div>
	</body></html>`

	body := ExtractArticleBody(html, "https://example.com/a")
	if body == nil {
		t.Fatal("expected a body")
	}
	if !strings.Contains(body.Text, "real body") {
		t.Errorf("fallback picked the wrong container: %q", body.Text)
	}
	if strings.Contains(body.Text, "Lonely") {
		t.Errorf("sparse container leaked in: %q", body.Text)
	}
}

func TestExtractArticleBodyNoText(t *testing.T) {
	if body := ExtractArticleBody("<html><body><div>no paragraphs</div></body></html>", "https://example.com/x"); body != nil {
		t.Errorf("expected nil for page without paragraphs, got %+v", body)
	}
}

func TestExtractArticleBodyTitleFallback(t *testing.T) {
	html := `<html><head><title>Only the head title</title></head>
	<body><article><p>Body text of the piece.</p></article></body></html>`

	body := ExtractArticleBody(html, "https://example.com/y")
	if body == nil {
		t.Fatal("expected a body")
	}
	if body.Title != "Only the head title" {
		t.Errorf("title = %q", body.Title)
	}
}
