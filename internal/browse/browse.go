// Package browse implements the page actions the navigator exposes to the
// model: fetching a URL and pressing a button on fetched HTML.
package browse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	FetchFailedMessage = "Sorry, I couldn't fetch the website content."
	ClickFailedMessage = "Sorry, I couldn't simulate the button click."

	DefaultTimeout = 10 * time.Second
	maxPageBytes   = 2 << 20
)

type Browser struct {
	client *http.Client
}

// New returns a Browser whose fetches are bounded by timeout.
func New(timeout time.Duration) *Browser {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Browser{client: &http.Client{Timeout: timeout}}
}

// NewWithClient is New with a caller-supplied HTTP client.
func NewWithClient(client *http.Client) *Browser {
	if client == nil {
		return New(0)
	}
	return &Browser{client: client}
}

// OpenWebsite returns the page body. Failures are logged and reported to the
// model as FetchFailedMessage rather than returned.
func (b *Browser) OpenWebsite(ctx context.Context, url string) string {
	body, err := b.fetch(ctx, url)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("fetch website")
		return FetchFailedMessage
	}
	return body
}

func (b *Browser) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

// Click looks for a <button> whose text equals button. Nothing is executed;
// the result only tells the model whether the button exists.
func Click(page, button string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		log.Error().Err(err).Msg("parse html")
		return ClickFailedMessage
	}
	if findButton(doc, strings.TrimSpace(button)) == nil {
		return fmt.Sprintf("Button '%s' not found on the page.", button)
	}
	return fmt.Sprintf("Clicked on the button '%s'. Updated HTML content would be displayed here.", button)
}

func findButton(n *html.Node, label string) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Button && strings.TrimSpace(textContent(n)) == label {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findButton(c, label); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
