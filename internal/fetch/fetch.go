// Package fetch retrieves job postings from the web and reduces them to plain text
// for keyword extraction.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a plain HTTP fetch or a browser render.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent identifies requests to job boards.
	DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeBuilder/1.0)"
	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes = 5 << 20
)

// Result is a fetched page and the job description text taken from it.
type Result struct {
	URL         string
	HTML        string
	Text        string
	ContentType string
	StatusCode  int
	Platform    Platform
	// StructuredData is set when Text came from schema.org JobPosting markup.
	StructuredData bool
	UsedBrowser    bool
}

// Options configures fetching.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// UseBrowser renders the page in headless Chrome when the plain HTTP
	// response yields too little text.
	UseBrowser bool
	Logger     *slog.Logger
}

// DefaultOptions returns plain HTTP fetching with DefaultTimeout.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// URL downloads an http(s) page. On a non-200 status the partial Result is
// returned together with an *Error carrying the status code.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Err: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	client := &http.Client{Timeout: opts.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Err: err}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		Platform:    DetectPlatform(urlStr),
	}
	if resp.StatusCode != http.StatusOK {
		return result, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}
	return result, nil
}

// JobDescription fetches a posting and extracts its description. JobPosting
// structured data wins over page selectors. When the text is still too short and
// opts.UseBrowser is set, the page is rendered in a headless browser and extracted again.
func JobDescription(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	result, err := URL(ctx, urlStr, opts)
	if err != nil {
		return result, err
	}

	if err := result.extract(result.HTML); err != nil {
		return result, err
	}

	if opts.UseBrowser && ShouldUseBrowser(result.Text) {
		opts.logger().Info("job page text too short, rendering with browser",
			slog.String("url", urlStr),
			slog.Int("chars", len(result.Text)))

		html, err := WithBrowser(ctx, urlStr, result.Platform, opts.Timeout, opts.logger())
		if err != nil {
			return result, &Error{URL: urlStr, Message: "browser rendering failed", Err: err}
		}
		if err := result.extract(html); err != nil {
			return result, err
		}
		result.HTML = html
		result.UsedBrowser = true
	}

	if strings.TrimSpace(result.Text) == "" {
		return result, &Error{URL: urlStr, Message: "page has no readable text"}
	}
	return result, nil
}

func (r *Result) extract(html string) error {
	text, structured, err := extractJob(html, r.Platform)
	if err != nil {
		return &Error{URL: r.URL, Message: "failed to extract text", Err: err}
	}
	r.Text = text
	r.StructuredData = structured
	return nil
}
