package feed

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/fetcher"
	"github.com/Mustafabeshara/medical-news-feed-scraper/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
  <title>Cardiology Daily</title>
  <link>https://cardio.example.com</link>
  <item>
    <title>New stent trial results announced</title>
    <link>https://cardio.example.com/stent-trial</link>
    <description><![CDATA[<p>A <b>major</b> trial reported outcomes today.</p>]]></description>
    <pubDate>Mon, 02 Jun 2025 10:30:00 +0000</pubDate>
    <media:content url="https://cdn.example.com/stent.jpg" type="image/jpeg"/>
  </item>
  <item>
    <title></title>
    <link>https://cardio.example.com/untitled</link>
    <description>No headline on this one.</description>
  </item>
  <item>
    <title>Imaging update</title>
    <link>https://cardio.example.com/imaging</link>
    <description><![CDATA[Scan news. <img src="https://cdn.example.com/scan.png">]]></description>
  </item>
</channel>
</rss>`

func TestParseContentRSS(t *testing.T) {
	p := NewParser(nil, testLogger)
	articles, source := p.ParseContent(sampleRSS, "https://cardio.example.com/rss")

	if source != "Cardiology Daily" {
		t.Errorf("source = %q", source)
	}
	if len(articles) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(articles))
	}

	first := articles[0]
	if first.Title != "New stent trial results announced" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Summary != "A major trial reported outcomes today." {
		t.Errorf("summary = %q", first.Summary)
	}
	if !strings.HasPrefix(first.Published, "2025-06-02T10:30:00") {
		t.Errorf("published = %q", first.Published)
	}
	if first.Image != "https://cdn.example.com/stent.jpg" {
		t.Errorf("image = %q", first.Image)
	}
	if first.Source != "Cardiology Daily" {
		t.Errorf("per-article source = %q", first.Source)
	}
	if first.Feed != "https://cardio.example.com/rss" {
		t.Errorf("feed = %q", first.Feed)
	}

	if articles[1].Title != types.UntitledSentinel {
		t.Errorf("empty title should become sentinel, got %q", articles[1].Title)
	}

	// Image sniffed out of the summary HTML.
	if articles[2].Image != "https://cdn.example.com/scan.png" {
		t.Errorf("sniffed image = %q", articles[2].Image)
	}
}

func TestParseContentAtom(t *testing.T) {
	atom := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Radiology Watch</title>
  <entry>
    <title>AI flags missed fractures</title>
    <link href="https://rad.example.org/ai-fractures"/>
    <summary>Retrospective study covers 10k scans.</summary>
    <updated>2025-05-20T08:00:00Z</updated>
  </entry>
</feed>`

	p := NewParser(nil, testLogger)
	articles, source := p.ParseContent(atom, "https://rad.example.org/atom")
	if source != "Radiology Watch" {
		t.Errorf("source = %q", source)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Link != "https://rad.example.org/ai-fractures" {
		t.Errorf("link = %q", articles[0].Link)
	}
	if !strings.HasPrefix(articles[0].Published, "2025-05-20T08:00:00") {
		t.Errorf("published = %q", articles[0].Published)
	}
}

func TestParseContentGarbage(t *testing.T) {
	p := NewParser(nil, testLogger)

	for _, content := range []string{
		"",
		"this is not a feed",
		"<html><body>an html page</body></html>",
	} {
		articles, source := p.ParseContent(content, "https://example.com/feed")
		if len(articles) != 0 {
			t.Errorf("%.20q: expected no articles, got %d", content, len(articles))
		}
		if source != "" && content == "" {
			t.Errorf("%.20q: unexpected source %q", content, source)
		}
	}
}

func TestParseContentSummaryTruncated(t *testing.T) {
	long := strings.Repeat("word ", 200)
	rss := `<?xml version="1.0"?><rss version="2.0"><channel><title>T</title>
<item><title>x</title><link>https://e.com/x</link><description>` + long + `</description></item>
</channel></rss>`

	p := NewParser(nil, testLogger)
	articles, _ := p.ParseContent(rss, "https://e.com/rss")
	if len(articles) != 1 {
		t.Fatal("expected 1 article")
	}
	if len(articles[0].Summary) > maxSummaryLen {
		t.Errorf("summary length %d exceeds cap", len(articles[0].Summary))
	}
}

func TestCleanSummaryRuneBoundary(t *testing.T) {
	// A multibyte rune straddling the cap must not be split mid-sequence.
	in := strings.Repeat("a", maxSummaryLen-1) + "éé"
	got := cleanSummary(in)

	if !utf8.ValidString(got) {
		t.Fatalf("truncated summary is not valid UTF-8: %q", got[len(got)-4:])
	}
	if n := utf8.RuneCountInString(got); n != maxSummaryLen {
		t.Errorf("rune count = %d, want %d", n, maxSummaryLen)
	}
	if !strings.HasSuffix(got, "é") {
		t.Errorf("summary should end with the full rune, got %q", got[len(got)-4:])
	}
}

func TestParseContentEnclosureImage(t *testing.T) {
	rss := `<?xml version="1.0"?><rss version="2.0"><channel><title>T</title>
<item>
  <title>With enclosure</title>
  <link>https://e.com/a</link>
  <enclosure url="https://cdn.e.com/pic.jpg" type="image/jpeg" length="1000"/>
</item>
</channel></rss>`

	p := NewParser(nil, testLogger)
	articles, _ := p.ParseContent(rss, "https://e.com/rss")
	if len(articles) != 1 {
		t.Fatal("expected 1 article")
	}
	if articles[0].Image != "https://cdn.e.com/pic.jpg" {
		t.Errorf("image = %q", articles[0].Image)
	}
}

// stubFetcher serves a single canned body.
type stubFetcher struct {
	body string
	fail bool
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string, _ fetcher.Purpose) fetcher.Outcome {
	if s.fail {
		return fetcher.Outcome{URL: rawURL, Err: &types.FetchError{
			URL: rawURL, Kind: types.FailureNetwork,
		}}
	}
	return fetcher.Outcome{URL: rawURL, Body: s.body, StatusCode: 200}
}

func (s *stubFetcher) FetchOnce(ctx context.Context, rawURL string, p fetcher.Purpose) fetcher.Outcome {
	return s.Fetch(ctx, rawURL, p)
}

func TestParseFetches(t *testing.T) {
	p := NewParser(&stubFetcher{body: sampleRSS}, testLogger)
	articles, source := p.Parse(context.Background(), "https://cardio.example.com/rss")
	if source != "Cardiology Daily" {
		t.Errorf("source = %q", source)
	}
	if len(articles) != 3 {
		t.Errorf("expected 3 articles, got %d", len(articles))
	}
}

func TestParseUnreachableFeed(t *testing.T) {
	p := NewParser(&stubFetcher{fail: true}, testLogger)
	articles, source := p.Parse(context.Background(), "https://dead.example.com/rss")
	if len(articles) != 0 || source != "" {
		t.Errorf("expected empty result, got %d articles, source %q", len(articles), source)
	}
}
