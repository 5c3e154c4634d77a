// Package report converts analysis markdown into sanitized HTML for display.
package report

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	gocache "github.com/patrickmn/go-cache"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	common "github.com/bobmcallan/tahlil-portal/internal/common"
)

// PlaceholderHTML replaces a report whose conversion failed.
const PlaceholderHTML = `<p class="report-error">تعذّر عرض التقرير.</p>`

// Rendered is the display form of a report.
type Rendered struct {
	HTML template.HTML
	// Empty is set when there was nothing to render.
	Empty bool
	// Failed is set when conversion failed and HTML holds PlaceholderHTML.
	Failed bool
}

// converter is the subset of goldmark.Markdown the renderer needs.
type converter interface {
	Convert(source []byte, w io.Writer, opts ...parser.ParseOption) error
}

// Renderer converts markdown to HTML and sanitizes the result.
// Render is deterministic, so results are memoized by content hash.
type Renderer struct {
	md     converter
	policy *bluemonday.Policy
	cache  *gocache.Cache
	logger *common.Logger
}

// NewRenderer creates a renderer. cacheTTL <= 0 disables memoization.
func NewRenderer(logger *common.Logger, cacheTTL time.Duration) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM, // tables, strikethrough, autolinks, task lists
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			// Raw HTML is passed through to the sanitizer rather than dropped.
			html.WithUnsafe(),
		),
	)

	r := &Renderer{
		md:     md,
		policy: newPolicy(),
		logger: logger,
	}
	if cacheTTL > 0 {
		r.cache = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return r
}

// newPolicy allows user-generated-content markup plus the dir attribute for
// right-to-left reports. Scripts, event handlers and javascript: URLs are removed.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("dir").Matching(bluemonday.Direction).Globally()
	p.AllowAttrs("align").Matching(bluemonday.CellAlign).OnElements("td", "th")
	return p
}

// Render converts text to sanitized HTML. It never returns an error: a failed
// conversion yields PlaceholderHTML with Failed set.
func (r *Renderer) Render(text string) Rendered {
	if strings.TrimSpace(text) == "" {
		return Rendered{Empty: true}
	}

	key := cacheKey(text)
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			return v.(Rendered)
		}
	}

	out, err := r.convert(text)
	if err != nil {
		if r.logger != nil {
			r.logger.Error().Int("input_len", len(text)).Str("error", err.Error()).Msg("failed to convert report markdown")
		}
		// Failures are not cached so a transient fault does not stick.
		return Rendered{HTML: template.HTML(PlaceholderHTML), Failed: true}
	}

	rendered := Rendered{HTML: template.HTML(out)}
	if r.cache != nil {
		r.cache.SetDefault(key, rendered)
	}
	return rendered
}

func (r *Renderer) convert(text string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("markdown conversion panicked: %v", rec)
		}
	}()

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(stripOuterFence(text)), &buf); err != nil {
		return "", err
	}
	return string(r.policy.SanitizeBytes(buf.Bytes())), nil
}

// stripOuterFence removes a single code fence wrapping the whole document
// (```markdown ... ```), which model-generated reports often carry.
func stripOuterFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return text
	}

	firstNL := strings.IndexByte(trimmed, '\n')
	if firstNL < 0 {
		return text
	}
	lang := strings.ToLower(strings.TrimSpace(trimmed[3:firstNL]))
	if lang != "" && lang != "markdown" && lang != "md" {
		return text
	}

	body := trimmed[firstNL+1 : len(trimmed)-3]
	// A fence inside the body means the outer backticks are not a wrapper.
	if strings.Contains(body, "```") {
		return text
	}
	return strings.TrimRight(body, "\n")
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
