package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/bobmcallan/tahlil-portal/internal/app"
	common "github.com/bobmcallan/tahlil-portal/internal/common"
	"github.com/bobmcallan/tahlil-portal/internal/config"
	"github.com/bobmcallan/tahlil-portal/internal/server"
)

// fakeAnalysis answers POST /api/analyze like the analysis backend.
// Symbol "XYZ" fails with a server message; anything else succeeds.
func fakeAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	w.Header().Set("Content-Type", "application/json")
	if req.Symbol == "XYZ" {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "حدث خطأ ما."})
		return
	}
	time.Sleep(300 * time.Millisecond) // long enough for the loading state to render
	json.NewEncoder(w).Encode(map[string]string{
		"analysis": fmt.Sprintf("# Report\n\nAnalysis for **%s**.", req.Symbol),
	})
}

// startPortal runs the full portal (middleware included) against a fake backend.
// Set TAHLIL_TEST_URL to test a running portal instead.
func startPortal(t *testing.T) string {
	t.Helper()

	if url := os.Getenv("TAHLIL_TEST_URL"); url != "" {
		return url
	}

	backend := httptest.NewServer(http.HandlerFunc(fakeAnalysis))
	t.Cleanup(backend.Close)

	cfg := config.NewDefaultConfig()
	cfg.API.URL = backend.URL

	application, err := app.New(cfg, common.NewSilentLogger())
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	t.Cleanup(func() { application.Close() })

	portal := httptest.NewServer(server.New(application).Handler())
	t.Cleanup(portal.Close)
	return portal.URL
}

// chromeAvailable reports whether a Chrome/Chromium binary chromedp can launch is on PATH.
func chromeAvailable() bool {
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable", "chrome"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// newBrowser creates a headless Chrome context with a 30s timeout.
func newBrowser(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()

	if !chromeAvailable() {
		t.Skip("no Chrome/Chromium binary found; skipping browser test")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)
	ctx, timeoutCancel := context.WithTimeout(ctx, 30*time.Second)

	cancel := func() {
		timeoutCancel()
		ctxCancel()
		allocCancel()
	}
	return ctx, cancel
}

// jsErrorCollector listens for JS exceptions and console.error calls.
// Call before chromedp.Navigate.
type jsErrorCollector struct {
	mu     sync.Mutex
	errors []string
}

func newJSErrorCollector(ctx context.Context) *jsErrorCollector {
	c := &jsErrorCollector{}

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		c.mu.Lock()
		defer c.mu.Unlock()

		switch e := ev.(type) {
		case *runtime.EventExceptionThrown:
			desc := e.ExceptionDetails.Text
			if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
				desc = e.ExceptionDetails.Exception.Description
			}
			c.errors = append(c.errors, fmt.Sprintf("EXCEPTION: %s", desc))

		case *runtime.EventConsoleAPICalled:
			if e.Type == runtime.APITypeError {
				var parts []string
				for _, arg := range e.Args {
					if arg.Value != nil {
						parts = append(parts, string(arg.Value))
					} else if arg.Description != "" {
						parts = append(parts, arg.Description)
					}
				}
				if len(parts) > 0 {
					msg := strings.Join(parts, " ")
					// favicon 404s are expected
					if !strings.Contains(msg, "favicon") {
						c.errors = append(c.errors, fmt.Sprintf("console.error: %s", msg))
					}
				}
			}
		}
	})

	return c
}

func (c *jsErrorCollector) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.errors))
	copy(out, c.errors)
	return out
}

// navigateAndWait navigates to a page and waits for the symbol form.
func navigateAndWait(ctx context.Context, url string) error {
	return chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("#symbol", chromedp.ByQuery),
	)
}

// textOf returns the trimmed text content of the first element matching selector.
func textOf(ctx context.Context, selector string) (string, error) {
	var text string
	err := chromedp.Run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery))
	return strings.TrimSpace(text), err
}

// takeScreenshot saves a PNG under tests/results/<dir>/ when TAHLIL_SCREENSHOTS is set.
func takeScreenshot(t *testing.T, ctx context.Context, dir, name string) {
	t.Helper()
	if os.Getenv("TAHLIL_SCREENSHOTS") == "" {
		return
	}

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		t.Logf("screenshot %s failed: %v", name, err)
		return
	}
	outDir := filepath.Join("..", "results", dir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Logf("screenshot dir: %v", err)
		return
	}
	if err := os.WriteFile(filepath.Join(outDir, name), buf, 0o644); err != nil {
		t.Logf("screenshot write: %v", err)
	}
}
