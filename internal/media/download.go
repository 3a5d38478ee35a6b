package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultMaxBytes = 20 << 20

// Downloader fetches remote images with a single attempt.
type Downloader struct {
	httpClient *http.Client
	maxBytes   int64
}

func NewDownloader(timeout time.Duration) *Downloader {
	return &Downloader{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   defaultMaxBytes,
	}
}

func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "VideoImporter/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("image larger than %d bytes", d.maxBytes)
	}

	return data, nil
}
