package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webpulse/webpulse/internal/domain"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title> Acme Analytics - Dashboards for Small Teams </title>
<meta name="description" content="Build dashboards in minutes.">
<meta name="robots" content="index, follow">
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="canonical" href="https://acme.example/">
<script type="application/ld+json">{"@type": "Organization"}</script>
</head>
<body>
<h1>Acme Analytics</h1>
<h2>Why teams choose us</h2>
<h4>Skipped level</h4>
<a class="cta-button" href="/signup">Start free</a>
<a href="/pricing">Pricing</a>
<a href="https://other.example/blog">Partner blog</a>
<a href="#">broken</a>
<img src="/hero.png" alt="Dashboard screenshot">
<img src="/logo.png">
<ul><li>Fast</li><li>Simple</li></ul>
<p class="author">By the Acme team</p>
<time datetime="2026-08-01">August 2026</time>
<p>Acme Analytics turns raw numbers into dashboards your whole team can read. Was it built for engineers only? No.</p>
</body>
</html>`

func TestHTTPCollector_Collect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	snap, err := NewHTTPCollector(zap.NewNop()).Collect(context.Background(), srv.URL, Options{})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, snap.StatusCode)
	assert.Equal(t, "Acme Analytics - Dashboards for Small Teams", snap.Title)
	assert.Equal(t, "Build dashboards in minutes.", snap.MetaDescription)
	assert.True(t, snap.ViewportMeta)
	assert.True(t, snap.HasCanonical)
	assert.True(t, snap.StructuredData)
	assert.True(t, snap.HasRobotsMeta)
	assert.False(t, snap.RobotsNoIndex, "an index,follow directive is not a noindex")

	assert.Equal(t, 1, snap.H1Count)
	assert.Equal(t, 1, snap.HeadingSkips, "h2 followed by h4 skips a level")
	assert.Equal(t, 2, snap.InternalLinks)
	assert.Equal(t, 1, snap.ExternalLinks)
	assert.Equal(t, 1, snap.BrokenAnchors)

	assert.Equal(t, 2, snap.ImagesTotal)
	assert.Equal(t, 1, snap.ImagesMissingAlt)
	assert.GreaterOrEqual(t, snap.CTAAboveFold, 1)
	assert.Equal(t, 1, snap.ListCount)
	assert.True(t, snap.HasAuthorInfo)
	assert.True(t, snap.HasFreshDate)

	assert.Greater(t, snap.WordCount, 20)
	assert.Contains(t, snap.TextContent, "dashboards your whole team can read")
	assert.NotContains(t, snap.TextContent, "ld+json", "script contents are not visible text")

	assert.Greater(t, snap.TTFBMs, 0.0)
	assert.Greater(t, snap.PageWeightKB, 0.0)
	assert.Zero(t, snap.LCPMs, "rendering metrics stay unmeasured without a browser")
	assert.Empty(t, snap.HTML, "artifacts are not kept unless requested")
}

func TestHTTPCollector_CaptureArtifacts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	snap, err := NewHTTPCollector(nil).Collect(context.Background(), srv.URL, Options{CaptureArtifacts: true})
	require.NoError(t, err)
	assert.NotEmpty(t, snap.HTML)
}

func TestHTTPCollector_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	_, err := NewHTTPCollector(nil).Collect(context.Background(), srv.URL, Options{})
	require.Error(t, err)
	assert.True(t, domain.IsSentinelError(err, domain.ErrUpstreamVal))
}

func TestHTTPCollector_InvalidURL(t *testing.T) {
	_, err := NewHTTPCollector(nil).Collect(context.Background(), "", Options{})
	require.Error(t, err)
	assert.True(t, domain.IsSentinelError(err, domain.ErrInvalidInputVal))
}

func TestParseHTML_NoindexDetected(t *testing.T) {
	snap := &Snapshot{}
	parseHTML(snap, `<html><head><meta name="robots" content="noindex, nofollow"></head><body></body></html>`, "https://a.example/")
	assert.True(t, snap.RobotsNoIndex)
}
