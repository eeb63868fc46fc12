// Package queue records network mutations made while the application is
// offline and replays them once connectivity returns.
package queue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tknelms/carkeeper/backend/internal/models"
)

// HTTPReplayer builds a ReplayFunc that re-issues queued mutations
// against the remote API. Relative operation URLs are resolved against
// baseURL; absolute ones are sent as recorded. Any non-2xx status keeps
// the operation queued.
func HTTPReplayer(client *http.Client, baseURL string) ReplayFunc {
	if client == nil {
		client = http.DefaultClient
	}
	base := strings.TrimSuffix(baseURL, "/")

	return func(ctx context.Context, op models.PendingOperation) error {
		url := op.URL
		if strings.HasPrefix(url, "/") {
			url = base + url
		}

		var body io.Reader
		if len(op.Data) > 0 {
			body = bytes.NewReader(op.Data)
		}
		req, err := http.NewRequestWithContext(ctx, op.Method, url, body)
		if err != nil {
			return fmt.Errorf("building replay request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("replaying %s %s: %w", op.Method, url, err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("replaying %s %s: unexpected status %d", op.Method, url, resp.StatusCode)
		}
		return nil
	}
}
