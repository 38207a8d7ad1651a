// Package transport moves bytes for the protocol engine: one blocking
// form-encoded POST per control-plane action, and one SFTP session per
// bulk-data operation. Neither side retries; callers own retry policy.
package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/veritomyx/peakinvestigator-go/pkg/actions"
)

// DefaultTimeout bounds a single control-plane round trip. The server can
// take minutes to answer PREP and INIT for large jobs.
const DefaultTimeout = 4 * time.Minute

// HTTPClient posts action queries to the single control-plane endpoint.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates a client for the given endpoint. A non-positive
// timeout selects DefaultTimeout.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Do posts one action and returns the raw reply body. Network trouble,
// timeouts, and non-200 statuses surface as *actions.TransportError; the
// body is never partially interpreted here.
func (c *HTTPClient) Do(ctx context.Context, req actions.Request, creds actions.Credentials) ([]byte, error) {
	query := req.Query(creds)
	slog.Debug("action_post", "action", req.Action(), "endpoint", c.endpoint)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(query))
	if err != nil {
		return nil, &actions.TransportError{Op: "post " + req.Action(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		slog.Error("action_post_failed", "action", req.Action(), "error", err)
		return nil, &actions.TransportError{Op: "post " + req.Action(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("action_read_failed", "action", req.Action(), "error", err)
		return nil, &actions.TransportError{Op: "read " + req.Action(), Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		slog.Error("action_bad_status", "action", req.Action(), "status", resp.StatusCode)
		return nil, &actions.TransportError{
			Op:  "post " + req.Action(),
			Err: fmt.Errorf("unexpected HTTP status %d", resp.StatusCode),
		}
	}

	slog.Debug("action_reply", "action", req.Action(), "bytes", len(body))
	return body, nil
}
