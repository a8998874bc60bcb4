// Package netx holds the HTTP client used to reach remote data services.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HealthPath is probed on every remote data service.
const HealthPath = "/health"

// Probe calls GET {host}/health with the API key as a bearer token and
// returns nil on any 2xx answer. timeout bounds the whole request; zero
// leaves it to ctx.
func Probe(ctx context.Context, host, apiKey string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	url := strings.TrimRight(host, "/") + HealthPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("probe failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
