package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html/charset"

	"github.com/pfrederiksen/park-fees/internal/logger"
)

const (
	UserAgent    = "Mozilla/5.0 (compatible; park-fees/1.0; +https://github.com/pfrederiksen/park-fees)"
	Timeout      = 12 * time.Second
	MaxBytes     = 2 << 20
	MaxTextChars = 400000
)

// ErrUnavailable is wrapped by every fetch failure: transport errors,
// timeouts and non-2xx responses.
var ErrUnavailable = errors.New("page unavailable")

// Client fetches pages over HTTP.
type Client struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxBytes  int64
	cache     *PageCache
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithMaxBytes caps how much of a response body is read.
func WithMaxBytes(n int64) Option {
	return func(c *Client) { c.maxBytes = n }
}

// WithCache shares extracted page text between lookups.
func WithCache(cache *PageCache) Option {
	return func(c *Client) { c.cache = cache }
}

// New creates a fetch client.
func New(opts ...Option) *Client {
	c := &Client{
		client:    &http.Client{},
		userAgent: UserAgent,
		timeout:   Timeout,
		maxBytes:  MaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type response struct {
	body        []byte
	contentType string
}

func (c *Client) get(ctx context.Context, rawURL string) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching page: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUnavailable, err)
	}

	return &response{
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
	}, nil
}

// FetchHTML returns the decoded HTML of a page.
func (c *Client) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	logger.IncrCounter("fetch.requests")
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		logger.IncrCounter("fetch.failures")
		return "", err
	}
	r, err := charset.NewReader(bytes.NewReader(resp.body), resp.contentType)
	if err != nil {
		return string(resp.body), nil
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return string(resp.body), nil
	}
	return string(decoded), nil
}

// PageText returns the visible text of a page, or "" when it cannot be
// fetched or parsed.
func (c *Client) PageText(ctx context.Context, rawURL string) string {
	if c.cache != nil {
		if text, ok := c.cache.Get(rawURL); ok {
			logger.IncrCounter("fetch.cache_hits")
			return text
		}
	}

	text, err := c.pageText(ctx, rawURL)
	if err != nil {
		logger.Debug("Page unavailable", logger.Fields{"url": rawURL, "error": err.Error()})
		text = ""
	}
	if c.cache != nil && ctx.Err() == nil {
		c.cache.Set(rawURL, text)
	}
	return text
}

func (c *Client) pageText(ctx context.Context, rawURL string) (string, error) {
	logger.IncrCounter("fetch.requests")
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		logger.IncrCounter("fetch.failures")
		return "", err
	}

	mediaType, _, _ := mime.ParseMediaType(resp.contentType)
	switch {
	case mediaType == "application/pdf" || bytes.HasPrefix(resp.body, []byte("%PDF-")):
		return PDFText(resp.body)
	case mediaType == "text/plain":
		r, err := charset.NewReader(bytes.NewReader(resp.body), resp.contentType)
		if err != nil {
			return capText(string(resp.body)), nil
		}
		raw, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("decoding text: %w", err)
		}
		return capText(collapse(string(raw))), nil
	default:
		r, err := charset.NewReader(bytes.NewReader(resp.body), resp.contentType)
		if err != nil {
			r = bytes.NewReader(resp.body)
		}
		return ExtractText(r)
	}
}

// blockSelector lists elements whose text must not run into the next element.
const blockSelector = "p, div, li, td, th, tr, br, h1, h2, h3, h4, h5, h6, section, article, header, footer, dd, dt, span, a"

// ExtractText parses HTML and returns its title and body text with scripts,
// styles and other non-visible elements removed, whitespace collapsed and
// the result capped at MaxTextChars.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find("script, style, noscript, svg, template, iframe").Remove()
	doc.Find(blockSelector).AppendHtml(" ")

	title := strings.TrimSpace(doc.Find("title").First().Text())
	body := doc.Find("body").Text()
	if strings.TrimSpace(body) == "" {
		body = doc.Text()
	}

	text := collapse(title + " " + body)
	return capText(text), nil
}

// PDFText extracts the plain text of every page of a PDF document.
func PDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
		if sb.Len() > MaxTextChars {
			break
		}
	}
	return capText(collapse(sb.String())), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capText(s string) string {
	if len(s) <= MaxTextChars {
		return s
	}
	s = s[:MaxTextChars]
	for len(s) > 0 {
		r, size := utf8.DecodeLastRuneInString(s)
		if r != utf8.RuneError || size != 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
