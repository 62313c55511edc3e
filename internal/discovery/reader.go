package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	// MaxPageChars is how much page markdown is handed to the extraction model.
	MaxPageChars = 12000

	botUserAgent = "Mozilla/5.0 (compatible; CurriculaBot/1.0)"
	maxPageBytes = 4 << 20
)

// Reader fetches page content for extraction: markdown through a Jina-style reader
// proxy and the preview image from the page itself.
type Reader struct {
	baseURL    string
	httpClient *http.Client
}

// NewReader creates a page reader. baseURL is prefixed to the page URL, e.g. https://r.jina.ai/.
func NewReader(baseURL string, timeout time.Duration) *Reader {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Reader{baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}
}

// Markdown returns the page rendered as markdown.
func (r *Reader) Markdown(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create reader request: %w", err)
	}
	req.Header.Set("Accept", "text/markdown")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("Failed to fetch page: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	return string(body), nil
}

// PreviewImage returns the page's og:image, falling back to twitter:image, resolved
// against the page URL. Any failure yields "".
func (r *Reader) PreviewImage(ctx context.Context, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", botUserAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ""
	}
	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return ""
	}

	og, twitter := metaImages(doc)
	img := og
	if img == "" {
		img = twitter
	}
	if img == "" {
		return ""
	}
	ref, err := url.Parse(img)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// metaImages walks the document for the first og:image and twitter:image meta values.
func metaImages(doc *html.Node) (og, twitter string) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if og != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var key, content string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "property", "name":
					if key == "" {
						key = strings.ToLower(strings.TrimSpace(a.Val))
					}
				case "content":
					content = strings.TrimSpace(a.Val)
				}
			}
			switch {
			case content == "":
			case key == "og:image" && og == "":
				og = content
			case key == "twitter:image" && twitter == "":
				twitter = content
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return og, twitter
}
