package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
)

const (
	defaultRetries   = 3
	defaultRetryBase = 500 * time.Millisecond
)

// download fetches the dataset, retrying transport errors and 5xx responses
// with Fibonacci backoff.
func (s *CSVSource) download(ctx context.Context) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = resty.New().SetTimeout(30 * time.Second)
	}
	retries := s.Retries
	if retries == 0 {
		retries = defaultRetries
	}
	base := s.RetryBase
	if base <= 0 {
		base = defaultRetryBase
	}

	var body []byte
	b := retry.WithMaxRetries(retries, retry.NewFibonacci(base))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		resp, err := client.R().SetContext(ctx).Get(s.Path)
		if err != nil {
			slog.Warn("dataset download failed", "url", s.Path, "err", err)
			return retry.RetryableError(err)
		}
		switch code := resp.StatusCode(); {
		case code >= http.StatusInternalServerError:
			slog.Warn("dataset download failed", "url", s.Path, "status", code)
			return retry.RetryableError(fmt.Errorf("download dataset: status %d", code))
		case code != http.StatusOK:
			return fmt.Errorf("download dataset: status %d", code)
		}
		body = resp.Body()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
