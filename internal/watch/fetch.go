package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Browser-looking user agent; the Discord API rejects obviously scripted
// clients on some endpoints.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher reads the current value of the watched attribute. Implementations
// must not retry internally -- retry cadence belongs to the poll loop.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// ChannelFetcher reads a channel's current name from the Discord REST API
// with a single bounded GET per call.
type ChannelFetcher struct {
	apiBase   string
	token     string
	channelID string
	client    *http.Client
}

func NewChannelFetcher(apiBase, token, channelID string, timeout time.Duration) *ChannelFetcher {
	return &ChannelFetcher{
		apiBase:   apiBase,
		token:     token,
		channelID: channelID,
		client:    &http.Client{Timeout: timeout},
	}
}

type channelBody struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Fetch performs one GET of the channel object and returns its name. Any
// transport error, non-2xx status, or malformed body is returned as an
// error; callers treat all of them as "no observation this cycle".
func (f *ChannelFetcher) Fetch(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%s/channels/%s", f.apiBase, f.channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building channel request: %w", err)
	}
	req.Header.Set("Authorization", f.token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching channel: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching channel: unexpected status %s", resp.Status)
	}

	var body channelBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding channel body: %w", err)
	}
	return body.Name, nil
}
