package routines

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/starford/dagaz/internal/apperr"
)

// Fetcher retrieves the routines document from its configured source.
// Remote HTTP(S) sources are fetched with bounded retries; a file:// URL or
// bare filesystem path reads from disk.
type Fetcher struct {
	client *retryablehttp.Client
}

// NewFetcher creates a Fetcher with sane retry defaults.
func NewFetcher() *Fetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = 15 * time.Second
	client.Logger = nil
	return &Fetcher{client: client}
}

// Fetch returns the raw document bytes for url. Failures surface as
// apperr.ErrDocumentFetch.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if path, ok := LocalPath(url); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrDocumentFetch, err)
		}
		return data, nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrDocumentFetch, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrDocumentFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", apperr.ErrDocumentFetch, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrDocumentFetch, err)
	}
	return data, nil
}

// LocalPath reports whether url names a local file and, if so, its path.
func LocalPath(url string) (string, bool) {
	if strings.HasPrefix(url, "file://") {
		return strings.TrimPrefix(url, "file://"), true
	}
	if strings.Contains(url, "://") {
		return "", false
	}
	return url, true
}
