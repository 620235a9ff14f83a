// Package article loads Chinese article text from the web or from local files.
package article

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/japaniel/tutor/pkg/chinese"
	"gopkg.in/yaml.v3"
)

// MaxBodySize limits how much HTML is read from one page.
const MaxBodySize = 10 * 1024 * 1024

// ErrTooLarge is returned when a page exceeds MaxBodySize.
var ErrTooLarge = errors.New("article body exceeds size limit")

// Article is readable article text.
type Article struct {
	// URL identifies the article for progress tracking. For local files it
	// is a file:// URL.
	URL   string
	Title string
	Text  string
}

// Fetcher downloads and extracts articles.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher. A nil client gets a 30 second timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client}
}

// Fetch downloads rawURL and extracts its main text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Article, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Article{}, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Article{}, fmt.Errorf("create request: %w", err)
	}
	// Look like a browser; many news sites block default clients.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,zh-TW;q=0.8,en;q=0.7")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > MaxBodySize {
		return Article{}, ErrTooLarge
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return Article{}, fmt.Errorf("read body: %w", err)
	}
	if len(body) > MaxBodySize {
		return Article{}, ErrTooLarge
	}

	art, err := extract(body, parsed)
	if err != nil {
		return Article{}, err
	}
	art.URL = rawURL
	return art, nil
}

func extract(body []byte, pageURL *url.URL) (Article, error) {
	// Pinyin and zhuyin ruby would be interleaved with the characters.
	body = chinese.SanitizeRuby(body)
	parsed, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("extract article: %w", err)
	}
	return Article{Title: strings.TrimSpace(parsed.Title), Text: strings.TrimSpace(parsed.TextContent)}, nil
}

type articleYAML struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

// FromFile loads an article from disk. YAML files hold title and content
// keys, HTML files go through the same extraction as fetched pages, and
// anything else is read as plain text titled after the file name.
func FromFile(path string) (Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Article{}, fmt.Errorf("read article: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Article{}, err
	}
	fileURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var art Article
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc articleYAML
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Article{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if strings.TrimSpace(doc.Content) == "" {
			return Article{}, fmt.Errorf("parse %s: content is empty", path)
		}
		art = Article{Title: strings.TrimSpace(doc.Title), Text: strings.TrimSpace(doc.Content)}
	case ".html", ".htm":
		art, err = extract(data, fileURL)
		if err != nil {
			return Article{}, err
		}
	default:
		art = Article{Text: strings.TrimSpace(string(data))}
	}
	if art.Title == "" {
		art.Title = base
	}
	art.URL = fileURL.String()
	return art, nil
}

// Load dispatches to Fetch for http(s) URLs and FromFile otherwise.
func (f *Fetcher) Load(ctx context.Context, location string) (Article, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return f.Fetch(ctx, location)
	}
	return FromFile(location)
}
