package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/mlundberg/borsradar/internal/adapters/config"
	"github.com/mlundberg/borsradar/pkg/logger"
	"github.com/mlundberg/borsradar/pkg/models"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// listingSelectors are tried in order against the listing page. News
// sites shuffle their markup; the chain absorbs most redesigns.
var listingSelectors = []string{
	"article a[href]",
	".news-item a[href]",
	".teaser a[href]",
	"h2 a[href], h3 a[href]",
}

// Scraper collects articles from a financial news listing page and
// extracts their bodies.
type Scraper struct {
	client     *http.Client
	listURL    string
	sourceName string
	limit      int
}

// NewScraper creates the news scraper
func NewScraper(cfg *config.NewsConfig) *Scraper {
	return &Scraper{
		client:     &http.Client{Timeout: cfg.FetchTimeout},
		listURL:    cfg.ListURL,
		sourceName: cfg.SourceName,
		limit:      cfg.Limit,
	}
}

// Articles scrapes the listing and returns content items with the
// article body in Description. Items that fail body extraction keep
// the headline only.
func (s *Scraper) Articles(ctx context.Context) ([]models.ContentItem, error) {
	links, err := s.listArticleLinks(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]models.ContentItem, 0, len(links))
	for _, link := range links {
		if ctx.Err() != nil {
			break
		}

		body, err := s.fetchArticleBody(ctx, link.url)
		if err != nil {
			logger.Debug("article body extraction failed",
				zap.String("url", link.url),
				zap.Error(err),
			)
			body = link.title
		}

		// Listing pages expose no reliable publish timestamp, so
		// identity is the URL alone. The scan time is display-only
		// and must not leak into the id.
		items = append(items, models.ContentItem{
			ItemID:      models.ItemID(link.url, time.Time{}),
			ExternalID:  link.url,
			Kind:        models.KindArticle,
			Title:       link.title,
			SourceName:  s.sourceName,
			URL:         link.url,
			Description: body,
			PublishedAt: time.Now().UTC(),
		})
	}

	logger.Info("news listing scraped",
		zap.String("source", s.sourceName),
		zap.Int("articles", len(items)),
	)
	return items, nil
}

type articleLink struct {
	url   string
	title string
}

// listArticleLinks fetches the listing page and walks the selector
// chain until one yields links.
func (s *Scraper) listArticleLinks(ctx context.Context) ([]articleLink, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	base, err := url.Parse(s.listURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing url: %w", err)
	}

	for _, selector := range listingSelectors {
		links := s.collectLinks(doc, selector, base)
		if len(links) > 0 {
			return links, nil
		}
	}
	return nil, fmt.Errorf("no article links found on listing page")
}

func (s *Scraper) collectLinks(doc *goquery.Document, selector string, base *url.URL) []articleLink {
	var links []articleLink
	seen := make(map[string]bool)

	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref).String()

		title := strings.TrimSpace(sel.Text())
		if title == "" || seen[abs] {
			return true
		}
		if !strings.HasPrefix(abs, base.Scheme+"://"+base.Host) {
			return true
		}

		seen[abs] = true
		links = append(links, articleLink{url: abs, title: title})
		return len(links) < s.limit
	})
	return links
}

// fetchArticleBody extracts readable article text from the page
func (s *Scraper) fetchArticleBody(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article returned status %d", resp.StatusCode)
	}

	parsed, err := url.Parse(articleURL)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return "", fmt.Errorf("readability extraction failed: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("empty article body")
	}
	return text, nil
}
