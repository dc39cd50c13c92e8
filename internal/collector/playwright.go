package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/domain"
)

// PlaywrightConfig tunes the browser collector.
type PlaywrightConfig struct {
	Headless    bool
	NavTimeout  time.Duration
	SettleDelay time.Duration
}

// PlaywrightCollector captures pages with a headless Chromium so rendering
// metrics (paint timings, layout shift, true DOM size) and a full-page
// screenshot are available. One collector owns one browser; contexts are
// created per capture.
type PlaywrightCollector struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	cfg     PlaywrightConfig
	logger  *zap.Logger
}

// NewPlaywrightCollector starts playwright and launches the browser.
func NewPlaywrightCollector(cfg PlaywrightConfig, logger *zap.Logger) (*PlaywrightCollector, error) {
	if cfg.NavTimeout == 0 {
		cfg.NavTimeout = 30 * time.Second
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 1500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	return &PlaywrightCollector{pw: pw, browser: browser, cfg: cfg, logger: logger}, nil
}

// Close shuts the browser and playwright down.
func (c *PlaywrightCollector) Close() error {
	if c.browser != nil {
		c.browser.Close()
	}
	if c.pw != nil {
		return c.pw.Stop()
	}
	return nil
}

// Collect renders pageURL and captures the full signal set.
func (c *PlaywrightCollector) Collect(ctx context.Context, pageURL string, opts Options) (*Snapshot, error) {
	normalized, err := domain.NormalizeURL(pageURL)
	if err != nil {
		return nil, err
	}

	ctxOpts := playwright.BrowserNewContextOptions{
		Viewport:  &playwright.Size{Width: 1920, Height: 1080},
		UserAgent: playwright.String(desktopUserAgent),
	}
	if opts.EmulateMobile {
		ctxOpts.Viewport = &playwright.Size{Width: 390, Height: 844}
		ctxOpts.UserAgent = playwright.String(mobileUserAgent)
		ctxOpts.IsMobile = playwright.Bool(true)
		ctxOpts.HasTouch = playwright.Bool(true)
	}

	browserCtx, err := c.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	defer browserCtx.Close()

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	defer page.Close()

	start := time.Now()
	resp, err := page.Goto(normalized, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(c.cfg.NavTimeout.Milliseconds())),
	})
	if err != nil {
		return nil, domain.UpstreamError("browser-collector", fmt.Errorf("navigating to %s: %w", normalized, err))
	}
	if resp != nil && resp.Status() >= 400 {
		return nil, domain.UpstreamError("browser-collector", fmt.Errorf("page returned status %d", resp.Status()))
	}

	// Late-rendering SPA components settle after networkidle.
	page.WaitForTimeout(float64(c.cfg.SettleDelay.Milliseconds()))
	loadTime := time.Since(start)

	snap := &Snapshot{
		URL:         pageURL,
		FinalURL:    page.URL(),
		Mobile:      opts.EmulateMobile,
		CollectedAt: time.Now().UTC(),
		LoadTime:    loadTime,
	}
	if resp != nil {
		snap.StatusCode = resp.Status()
	}

	html, err := page.Content()
	if err != nil {
		return nil, domain.UpstreamError("browser-collector", fmt.Errorf("getting page content: %w", err))
	}
	parseHTML(snap, html, snap.FinalURL)

	c.collectRenderMetrics(page, snap)

	if opts.CaptureArtifacts {
		snap.HTML = []byte(html)
		if shot, err := page.Screenshot(playwright.PageScreenshotOptions{
			FullPage: playwright.Bool(true),
			Type:     playwright.ScreenshotTypeJpeg,
			Quality:  playwright.Int(80),
		}); err == nil {
			snap.Screenshot = shot
		} else {
			c.logger.Warn("screenshot capture failed", zap.String("url", snap.FinalURL), zap.Error(err))
		}
	}

	c.logger.Debug("browser capture complete",
		zap.String("url", snap.FinalURL),
		zap.Int("dom_nodes", snap.DOMNodeCount),
		zap.Float64("lcp_ms", snap.LCPMs),
		zap.Duration("load_time", loadTime))

	return snap, nil
}

type renderMetrics struct {
	DOMNodes     int     `json:"domNodes"`
	CTAAboveFold int     `json:"ctaAboveFold"`
	TTFB         float64 `json:"ttfb"`
	FCP          float64 `json:"fcp"`
	LCP          float64 `json:"lcp"`
	CLS          float64 `json:"cls"`
	TransferKB   float64 `json:"transferKb"`
	Requests     int     `json:"requests"`
	LongTaskMs   float64 `json:"longTaskMs"`
	SmallTargets int     `json:"smallTargets"`
	SmallText    int     `json:"smallText"`
}

// collectRenderMetrics pulls browser-only signals out of the rendered page.
// Failures leave the affected metrics unmeasured rather than failing the
// capture.
func (c *PlaywrightCollector) collectRenderMetrics(page playwright.Page, snap *Snapshot) {
	raw, err := page.Evaluate(`() => {
		const nav = performance.getEntriesByType('navigation')[0];
		const paints = performance.getEntriesByType('paint');
		const fcp = paints.find(p => p.name === 'first-contentful-paint');
		const lcpEntries = performance.getEntriesByType('largest-contentful-paint');
		const resources = performance.getEntriesByType('resource');
		const longTasks = performance.getEntriesByType('longtask') || [];

		let cls = 0;
		for (const s of performance.getEntriesByType('layout-shift')) {
			if (!s.hadRecentInput) cls += s.value;
		}

		let transfer = nav ? (nav.transferSize || 0) : 0;
		for (const r of resources) transfer += (r.transferSize || 0);

		const fold = window.innerHeight;
		let cta = 0;
		for (const el of document.querySelectorAll('button, a, input[type=submit], input[type=button]')) {
			const rect = el.getBoundingClientRect();
			const klass = (el.className || '').toString().toLowerCase();
			const isCta = el.tagName !== 'A' || klass.includes('btn') || klass.includes('button') || klass.includes('cta');
			if (isCta && rect.top >= 0 && rect.top < fold && rect.width > 0) cta++;
		}

		let longTaskMs = 0;
		for (const t of longTasks) longTaskMs += Math.max(0, t.duration - 50);

		let smallTargets = 0;
		for (const el of document.querySelectorAll('a, button, input, select, textarea')) {
			const rect = el.getBoundingClientRect();
			if (rect.width > 0 && rect.height > 0 && (rect.width < 44 || rect.height < 44)) smallTargets++;
		}
		let smallText = 0;
		for (const el of document.querySelectorAll('p, span, li, a, td')) {
			const size = parseFloat(getComputedStyle(el).fontSize || '16');
			if (el.textContent.trim() && size < 12) smallText++;
		}

		return JSON.stringify({
			domNodes: document.getElementsByTagName('*').length,
			ctaAboveFold: cta,
			ttfb: nav ? nav.responseStart : 0,
			fcp: fcp ? fcp.startTime : 0,
			lcp: lcpEntries.length ? lcpEntries[lcpEntries.length - 1].startTime : 0,
			cls: cls,
			transferKb: transfer / 1024,
			requests: resources.length + 1,
			longTaskMs: longTaskMs,
			smallTargets: smallTargets,
			smallText: smallText,
		});
	}`)
	if err != nil {
		c.logger.Warn("render metrics evaluation failed", zap.String("url", snap.FinalURL), zap.Error(err))
		return
	}

	encoded, ok := raw.(string)
	if !ok {
		return
	}
	var m renderMetrics
	if err := json.Unmarshal([]byte(encoded), &m); err != nil {
		return
	}

	snap.DOMNodeCount = m.DOMNodes
	snap.CTAAboveFold = m.CTAAboveFold
	snap.TTFBMs = m.TTFB
	snap.FCPMs = m.FCP
	snap.LCPMs = m.LCP
	snap.TBTMs = m.LongTaskMs
	snap.CLS = m.CLS
	snap.PageWeightKB = m.TransferKB
	snap.RequestCount = m.Requests
	snap.TouchTargetViolations = m.SmallTargets
	snap.SmallTextViolations = m.SmallText
}
