// Package content supplies the random article that seeds company, interview
// and ticket generation. Articles come from the Wikipedia random-summary
// endpoint; a canned pool is used when the endpoint is unavailable.
package content

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultURL is the Wikipedia REST endpoint returning one random page summary.
const DefaultURL = "https://en.wikipedia.org/api/rest_v1/page/random/summary"

// maxText bounds the article text handed to prompts.
const maxText = 1200

// Article is one piece of seed content.
type Article struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Client fetches random articles over HTTP.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates an article client. An empty url selects DefaultURL.
func NewClient(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Next returns a random article. Falls back to the canned pool when the
// endpoint fails; the only error returned is a cancelled context.
func (c *Client) Next(ctx context.Context) (Article, error) {
	if c == nil {
		return Canned(), nil
	}
	a, err := c.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Article{}, ctx.Err()
		}
		slog.Debug("article fetch failed, using canned pool", "error", err)
		return Canned(), nil
	}
	return a, nil
}

func (c *Client) fetch(ctx context.Context) (Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Article{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "overtime/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("fetch article: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Article{}, fmt.Errorf("read article: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("article endpoint returned %d", resp.StatusCode)
	}

	var summary struct {
		Title   string `json:"title"`
		Extract string `json:"extract"`
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		return Article{}, fmt.Errorf("parse article: %w", err)
	}

	a := Article{
		Title: strings.TrimSpace(summary.Title),
		Text:  strings.TrimSpace(summary.Extract),
	}
	if a.Title == "" || a.Text == "" {
		return Article{}, fmt.Errorf("article missing title or text")
	}
	a.Text = clip(a.Text, maxText)
	slog.Debug("article fetched", "title", a.Title)
	return a, nil
}

// clip cuts s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

var cannedPool = []Article{
	{Title: "Paperclip", Text: "A paperclip is a tool used to hold sheets of paper together, usually made of steel wire bent to a looped shape."},
	{Title: "Lighthouse", Text: "A lighthouse is a tower designed to emit light from a system of lamps and lenses to serve as a navigational aid for maritime pilots."},
	{Title: "Sourdough", Text: "Sourdough is bread made by the fermentation of dough using wild lactobacillaceae and yeast."},
	{Title: "Tardigrade", Text: "Tardigrades are microscopic eight-legged animals known for surviving extreme temperatures, pressures and radiation."},
	{Title: "Pneumatic tube", Text: "Pneumatic tubes are systems that propel cylindrical containers through networks of tubes by compressed air or by partial vacuum."},
	{Title: "Fax machine", Text: "Fax is the telephonic transmission of scanned printed material to a telephone number connected to a printer or other output device."},
}

// Canned returns an article from the built-in pool.
func Canned() Article {
	return cannedPool[cryptoIndex(len(cannedPool))]
}

// cryptoIndex picks an index in [0, n) using crypto/rand.
func cryptoIndex(n int) int {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return int(binary.LittleEndian.Uint64(buf[:]) % uint64(n))
}
