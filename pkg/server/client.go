package server

import (
    "context"
    "crypto/tls"
    "fmt"
    "io"
    "net/http"
    "time"
)

// Client fetches reports from a running server, retrying with backoff.
type Client struct {
    httpc     *http.Client
    transport *http.Transport
    isTLS     bool
}

// NewClient constructs a client with the given timeout (3s when zero).
func NewClient(timeout time.Duration) *Client {
    if timeout <= 0 { timeout = 3 * time.Second }
    tr := &http.Transport{}
    return &Client{httpc: &http.Client{Timeout: timeout, Transport: tr}, transport: tr}
}

// UseTLS sets the TLS config and switches the request scheme to https.
func (c *Client) UseTLS(cfg *tls.Config) *Client {
    c.transport.TLSClientConfig = cfg
    c.isTLS = cfg != nil
    return c
}

// GetReport returns the raw JSON report served at addr (host:port).
func (c *Client) GetReport(ctx context.Context, addr string) ([]byte, error) {
    scheme := "http"
    if c.isTLS { scheme = "https" }
    url := fmt.Sprintf("%s://%s/report", scheme, addr)
    var lastErr error
    for attempt := 0; attempt < 3; attempt++ {
        data, err := c.get(ctx, url)
        if err == nil { return data, nil }
        lastErr = err
        select {
        case <-ctx.Done():
            return nil, ctx.Err()
        case <-time.After(time.Duration(100*(1<<attempt)) * time.Millisecond):
        }
    }
    return nil, lastErr
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil { return nil, err }
    resp, err := c.httpc.Do(req)
    if err != nil { return nil, err }
    defer resp.Body.Close()
    b, err := io.ReadAll(resp.Body)
    if err != nil { return nil, err }
    if resp.StatusCode != http.StatusOK { return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b)) }
    return b, nil
}
