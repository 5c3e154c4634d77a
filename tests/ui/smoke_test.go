package tests

import (
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

func TestSmokeReportPageNoJSErrors(t *testing.T) {
	base := startPortal(t)
	ctx, cancel := newBrowser(t)
	defer cancel()

	errs := newJSErrorCollector(ctx)
	if err := navigateAndWait(ctx, base+"/"); err != nil {
		t.Fatal(err)
	}

	takeScreenshot(t, ctx, "smoke", "report-page.png")

	if jsErrs := errs.Errors(); len(jsErrs) > 0 {
		t.Errorf("JS errors on report page:\n  %s", strings.Join(jsErrs, "\n  "))
	}

	empty, err := textOf(ctx, "#report-empty")
	if err != nil {
		t.Fatal(err)
	}
	if empty != "لا يوجد تقرير بعد." {
		t.Errorf("expected empty placeholder, got %q", empty)
	}
}

func TestSmokeInputUppercases(t *testing.T) {
	base := startPortal(t)
	ctx, cancel := newBrowser(t)
	defer cancel()

	if err := navigateAndWait(ctx, base+"/"); err != nil {
		t.Fatal(err)
	}

	var value string
	if err := chromedp.Run(ctx,
		chromedp.SendKeys("#symbol", "aapl", chromedp.ByQuery),
		chromedp.Value("#symbol", &value, chromedp.ByQuery),
	); err != nil {
		t.Fatal(err)
	}
	if value != "AAPL" {
		t.Errorf("expected input to read AAPL, got %q", value)
	}
}

func TestSmokeGenerateRendersReport(t *testing.T) {
	base := startPortal(t)
	ctx, cancel := newBrowser(t)
	defer cancel()

	errs := newJSErrorCollector(ctx)
	if err := navigateAndWait(ctx, base+"/"); err != nil {
		t.Fatal(err)
	}

	if err := chromedp.Run(ctx,
		chromedp.SendKeys("#symbol", "aapl", chromedp.ByQuery),
		chromedp.Click("#generate", chromedp.ByQuery),
		chromedp.WaitVisible("#report h1", chromedp.ByQuery),
	); err != nil {
		t.Fatal(err)
	}

	takeScreenshot(t, ctx, "smoke", "report-success.png")

	heading, err := textOf(ctx, "#report h1")
	if err != nil {
		t.Fatal(err)
	}
	if heading != "Report" {
		t.Errorf("expected heading Report, got %q", heading)
	}

	body, err := textOf(ctx, "#report strong")
	if err != nil {
		t.Fatal(err)
	}
	if body != "AAPL" {
		t.Errorf("expected normalized symbol in report, got %q", body)
	}

	if jsErrs := errs.Errors(); len(jsErrs) > 0 {
		t.Errorf("JS errors during generation:\n  %s", strings.Join(jsErrs, "\n  "))
	}
}

func TestSmokeEmptySymbolShowsValidation(t *testing.T) {
	base := startPortal(t)
	ctx, cancel := newBrowser(t)
	defer cancel()

	if err := navigateAndWait(ctx, base+"/"); err != nil {
		t.Fatal(err)
	}

	if err := chromedp.Run(ctx,
		chromedp.Click("#generate", chromedp.ByQuery),
		chromedp.WaitVisible("#error-slot", chromedp.ByQuery),
	); err != nil {
		t.Fatal(err)
	}

	msg, err := textOf(ctx, "#error-slot")
	if err != nil {
		t.Fatal(err)
	}
	if msg != "الرجاء إدخال رمز السهم." {
		t.Errorf("expected validation message, got %q", msg)
	}
}

func TestSmokeServerErrorShowsMessage(t *testing.T) {
	base := startPortal(t)
	ctx, cancel := newBrowser(t)
	defer cancel()

	if err := navigateAndWait(ctx, base+"/"); err != nil {
		t.Fatal(err)
	}

	if err := chromedp.Run(ctx,
		chromedp.SendKeys("#symbol", "xyz", chromedp.ByQuery),
		chromedp.Click("#generate", chromedp.ByQuery),
		chromedp.WaitVisible("#error-slot", chromedp.ByQuery),
		chromedp.Sleep(100*time.Millisecond),
	); err != nil {
		t.Fatal(err)
	}

	takeScreenshot(t, ctx, "smoke", "report-failure.png")

	msg, err := textOf(ctx, "#error-slot")
	if err != nil {
		t.Fatal(err)
	}
	if msg != "حدث خطأ ما." {
		t.Errorf("expected server message, got %q", msg)
	}
}
