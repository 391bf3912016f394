package webcache

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/unkn0wn-root/replaycache"
)

// DefaultMaxBody caps how much of a response HTTPFetcher reads.
const DefaultMaxBody = 10 << 20

// HTTPFetcher fetches resources with a plain GET. Any non-2xx status is a
// *replaycache.FetchError carrying the status code.
type HTTPFetcher struct {
	Client  *http.Client // nil => http.DefaultClient
	MaxBody int64        // 0 => DefaultMaxBody
}

var _ Fetcher = HTTPFetcher{}

func (f HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	limit := f.MaxBody
	if limit <= 0 {
		limit = DefaultMaxBody
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &replaycache.FetchError{Resource: url, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &replaycache.FetchError{Resource: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return "", &replaycache.FetchError{Resource: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", &replaycache.FetchError{Resource: url, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > limit {
		return "", &replaycache.FetchError{
			Resource:   url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("body exceeds %d bytes", limit),
		}
	}
	return string(body), nil
}
