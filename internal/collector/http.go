package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/domain"
)

const (
	httpMaxBodyBytes   = 8 << 20
	desktopUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 WebPulse/1.0"
	mobileUserAgent    = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (Version/17.0 Mobile/15E148 Safari/604.1) WebPulse/1.0"
	httpCollectTimeout = 15 * time.Second
)

// HTTPCollector fetches a page with a plain HTTP GET and derives all signals
// from the returned markup. It measures TTFB and transfer size but cannot
// observe rendering metrics or true DOM size; those stay unmeasured.
type HTTPCollector struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPCollector creates the reduced-cost collector.
func NewHTTPCollector(logger *zap.Logger) *HTTPCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPCollector{
		client: &http.Client{Timeout: httpCollectTimeout},
		logger: logger,
	}
}

// Collect fetches pageURL and parses its markup into a snapshot.
func (c *HTTPCollector) Collect(ctx context.Context, pageURL string, opts Options) (*Snapshot, error) {
	normalized, err := domain.NormalizeURL(pageURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalized, nil)
	if err != nil {
		return nil, domain.ValidationError("url", fmt.Sprintf("building request: %v", err))
	}
	ua := desktopUserAgent
	if opts.EmulateMobile {
		ua = mobileUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.UpstreamError("http-collector", err)
	}
	defer resp.Body.Close()
	ttfb := time.Since(start)

	body, err := io.ReadAll(io.LimitReader(resp.Body, httpMaxBodyBytes))
	if err != nil {
		return nil, domain.UpstreamError("http-collector", fmt.Errorf("reading body: %w", err))
	}
	loadTime := time.Since(start)

	if resp.StatusCode >= 400 {
		return nil, domain.UpstreamError("http-collector", fmt.Errorf("page returned status %d", resp.StatusCode))
	}

	snap := &Snapshot{
		URL:          pageURL,
		FinalURL:     resp.Request.URL.String(),
		StatusCode:   resp.StatusCode,
		TTFBMs:       float64(ttfb.Milliseconds()),
		PageWeightKB: float64(len(body)) / 1024,
		RequestCount: 1,
		Mobile:       opts.EmulateMobile,
		CollectedAt:  time.Now().UTC(),
		LoadTime:     loadTime,
	}
	parseHTML(snap, string(body), snap.FinalURL)

	if opts.CaptureArtifacts {
		snap.HTML = body
	}

	c.logger.Debug("http capture complete",
		zap.String("url", snap.FinalURL),
		zap.Int("status", snap.StatusCode),
		zap.Int("words", snap.WordCount),
		zap.Duration("load_time", loadTime))

	return snap, nil
}
