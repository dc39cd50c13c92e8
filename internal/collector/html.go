package collector

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	titlePattern   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaTagPattern = regexp.MustCompile(`(?is)<meta\b[^>]*>`)
	headingPattern = regexp.MustCompile(`(?is)<h([1-6])\b`)
	anchorPattern  = regexp.MustCompile(`(?is)<a\b[^>]*href\s*=\s*["']([^"']*)["']`)
	imgPattern     = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	altAttrPattern = regexp.MustCompile(`(?i)\balt\s*=\s*["'][^"']+["']`)
	listPattern    = regexp.MustCompile(`(?is)<(?:ul|ol)\b`)
	scriptStyle    = regexp.MustCompile(`(?is)<(script|style|noscript)\b.*?</(script|style|noscript)>`)
	tagPattern     = regexp.MustCompile(`(?s)<[^>]*>`)
	ldJSONPattern  = regexp.MustCompile(`(?i)application/ld\+json`)
	ctaPattern     = regexp.MustCompile(`(?is)<(?:button\b|a\b[^>]*class\s*=\s*["'][^"']*(?:btn|button|cta)[^"']*["']|input\b[^>]*type\s*=\s*["'](?:submit|button)["'])`)
	authorPattern  = regexp.MustCompile(`(?i)(?:rel\s*=\s*["']author["']|class\s*=\s*["'][^"']*author[^"']*["']|itemprop\s*=\s*["']author["'])`)
	datePattern    = regexp.MustCompile(`(?i)(?:<time\b|datetime\s*=|property\s*=\s*["']article:(?:published|modified)_time["'])`)
	canonicalLink  = regexp.MustCompile(`(?is)<link\b[^>]*rel\s*=\s*["']canonical["'][^>]*>`)
	contentAttr    = regexp.MustCompile(`(?i)content\s*=\s*["']([^"']*)["']`)
	nameAttr       = regexp.MustCompile(`(?i)name\s*=\s*["']([^"']*)["']`)
)

// parseHTML fills the markup-derived snapshot fields from raw HTML. Both
// collectors share it so full and reduced-cost captures score the same page
// the same way.
func parseHTML(snap *Snapshot, html string, pageURL string) {
	if m := titlePattern.FindStringSubmatch(html); len(m) > 1 {
		snap.Title = collapseSpace(stripTags(m[1]))
	}

	for _, meta := range metaTagPattern.FindAllString(html, -1) {
		name := ""
		if m := nameAttr.FindStringSubmatch(meta); len(m) > 1 {
			name = strings.ToLower(m[1])
		}
		switch name {
		case "description":
			if m := contentAttr.FindStringSubmatch(meta); len(m) > 1 {
				snap.MetaDescription = strings.TrimSpace(m[1])
			}
		case "viewport":
			snap.ViewportMeta = true
		case "robots":
			snap.HasRobotsMeta = true
			if m := contentAttr.FindStringSubmatch(meta); len(m) > 1 &&
				strings.Contains(strings.ToLower(m[1]), "noindex") {
				snap.RobotsNoIndex = true
			}
		}
	}

	snap.HasCanonical = canonicalLink.MatchString(html)
	snap.StructuredData = ldJSONPattern.MatchString(html)

	snap.H1Count, snap.HeadingSkips = headingStats(html)
	snap.InternalLinks, snap.ExternalLinks, snap.BrokenAnchors = linkStats(html, pageURL)

	images := imgPattern.FindAllString(html, -1)
	snap.ImagesTotal = len(images)
	for _, img := range images {
		if !altAttrPattern.MatchString(img) {
			snap.ImagesMissingAlt++
		}
	}

	snap.CTAAboveFold = len(ctaPattern.FindAllString(firstFold(html), -1))
	snap.ListCount = len(listPattern.FindAllString(html, -1))
	snap.HasAuthorInfo = authorPattern.MatchString(html)
	snap.HasFreshDate = datePattern.MatchString(html)

	snap.TextContent = visibleText(html)
	snap.WordCount = len(strings.Fields(snap.TextContent))
}

// firstFold approximates above-the-fold markup as the leading slice of the
// document, since a plain HTTP capture has no layout information.
func firstFold(html string) string {
	const foldBytes = 20000
	if len(html) > foldBytes {
		return html[:foldBytes]
	}
	return html
}

func headingStats(html string) (h1Count, skips int) {
	prev := 0
	for _, m := range headingPattern.FindAllStringSubmatch(html, -1) {
		level := int(m[1][0] - '0')
		if level == 1 {
			h1Count++
		}
		if prev > 0 && level > prev+1 {
			skips++
		}
		prev = level
	}
	return h1Count, skips
}

func linkStats(html, pageURL string) (internal, external, broken int) {
	base, _ := url.Parse(pageURL)
	for _, m := range anchorPattern.FindAllStringSubmatch(html, -1) {
		href := strings.TrimSpace(m[1])
		switch {
		case href == "" || href == "#":
			broken++
		case strings.HasPrefix(href, "javascript:"):
			broken++
		case strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:"):
		case strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://"):
			u, err := url.Parse(href)
			if err != nil || base == nil || u.Host != base.Host {
				external++
			} else {
				internal++
			}
		default:
			internal++
		}
	}
	return internal, external, broken
}

// visibleText strips script, style, and markup, leaving whitespace-collapsed
// body text for the content scorer and NLP.
func visibleText(html string) string {
	text := scriptStyle.ReplaceAllString(html, " ")
	text = tagPattern.ReplaceAllString(text, " ")
	text = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'").Replace(text)
	return collapseSpace(text)
}

func stripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
