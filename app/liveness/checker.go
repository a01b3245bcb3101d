package liveness

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"log/slog"
)

const (
	checkTimeout = 5 * time.Second
	redirectCap  = 2
)

// CheckerInterface reports whether a URL currently resolves. Unreachable and
// ambiguous results both resolve to false; the check never errors.
type CheckerInterface interface {
	IsAlive(ctx context.Context, url string) bool
}

var _ CheckerInterface = (*Checker)(nil)

type Checker struct {
	httpClient *http.Client
	userAgent  string
}

func NewChecker(userAgent string) *Checker {
	return &Checker{
		httpClient: &http.Client{
			Timeout: checkTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= redirectCap {
					return fmt.Errorf("stopped after %d redirects", redirectCap)
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// IsAlive probes the URL with a HEAD request and falls back once to a full GET
// when the lightweight check fails. Some hosts reject HEAD outright, so the
// fallback is part of the contract, not an optimization.
func (c *Checker) IsAlive(ctx context.Context, url string) bool {
	if url == "" {
		return false
	}

	if ok := c.probe(ctx, http.MethodHead, url); ok {
		return true
	}

	alive := c.probe(ctx, http.MethodGet, url)
	if !alive {
		slog.Debug("Link unreachable", "url", url)
	}
	return alive
}

func (c *Checker) probe(ctx context.Context, method, url string) bool {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return false
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}
