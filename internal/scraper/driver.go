package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"casetracker/internal/config"
	"casetracker/pkg/logger"
)

// Page markers the portal uses for the search form and its two outcomes.
const (
	searchFormSelector = "#case-search-form"
	resultsSelector    = "div.case-results"
	noResultsSelector  = "div.no-results"

	navTimeout  = 15 * time.Second
	formWait    = 10 * time.Second
	captchaWait = 3 * time.Second
)

// Driver owns one browser session for one search. It is not safe for
// concurrent use; the orchestrator builds a fresh Driver per call.
type Driver struct {
	cfg    *config.Config
	log    *logger.Logger
	solver *CaptchaSolver

	browser *rod.Browser
	page    *rod.Page
	closed  bool
}

func NewDriver(cfg *config.Config, log *logger.Logger, solver *CaptchaSolver) *Driver {
	return &Driver{cfg: cfg, log: log, solver: solver}
}

// Open launches and connects a browser session with the configured viewport
// and user agent. It returns false on any launch failure, leaving the driver
// unset so SubmitSearch and Close become no-ops.
func (d *Driver) Open() bool {
	l := launcher.New().
		Headless(d.cfg.HeadlessMode).
		Set("user-agent", d.cfg.UserAgent).
		Set("disable-blink-features", "AutomationControlled").
		Delete("enable-automation")

	if d.cfg.BrowserPath != "" {
		l = l.Bin(d.cfg.BrowserPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		d.log.Error("Failed to launch browser", "error", err)
		return false
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		d.log.Error("Failed to connect to browser", "error", err)
		return false
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		d.log.Error("Failed to open page", "error", err)
		browser.Close()
		return false
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	}); err != nil {
		d.log.Warn("Failed to set viewport", "error", err)
	}

	d.browser = browser
	d.page = page
	return true
}

// SubmitSearch drives the case-status form end to end and returns the
// rendered result markup. It returns ErrNotFound when the portal reports no
// matching case, and a typed failure when any step errors or times out.
func (d *Driver) SubmitSearch(ctx context.Context, caseType, caseNumber, filingYear string) (string, error) {
	if d.page == nil {
		return "", ErrLaunch
	}
	page := d.page.Context(ctx)

	d.log.Info("Navigating to case status page", "url", d.cfg.CaseStatusURL)
	if err := page.Timeout(navTimeout).Navigate(d.cfg.CaseStatusURL); err != nil {
		d.log.Error("Navigation failed", "url", d.cfg.CaseStatusURL, "error", err)
		return "", fmt.Errorf("navigate: %w", ErrNavigationTimeout)
	}

	form, err := page.Timeout(formWait).Element(searchFormSelector)
	if err != nil {
		d.log.Error("Search form never appeared", "error", err)
		return "", fmt.Errorf("search form: %w", ErrNavigationTimeout)
	}

	if err := d.fillForm(form, caseType, caseNumber, filingYear); err != nil {
		return "", err
	}

	if err := d.fillCaptcha(ctx, page); err != nil {
		return "", err
	}

	submit, err := form.Element("button[type=submit], input[type=submit]")
	if err != nil {
		d.log.Error("Submit control not found", "error", err)
		return "", fmt.Errorf("submit control: %w", ErrNavigationTimeout)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		d.log.Error("Failed to submit form", "error", err)
		return "", fmt.Errorf("submit: %w", ErrNavigationTimeout)
	}

	// Either marker ends the wait
	marker, err := page.Timeout(d.cfg.ResultWait).Race().
		Element(resultsSelector).
		Element(noResultsSelector).
		Do()
	if err != nil {
		d.log.Error("Timed out waiting for results", "error", err)
		return "", fmt.Errorf("results: %w", ErrNavigationTimeout)
	}
	if notFound, _ := marker.Matches(noResultsSelector); notFound {
		return "", ErrNotFound
	}

	markup, err := page.HTML()
	if err != nil {
		d.log.Error("Failed to capture result markup", "error", err)
		return "", fmt.Errorf("capture markup: %w", ErrExtraction)
	}
	return markup, nil
}

func (d *Driver) fillForm(form *rod.Element, caseType, caseNumber, filingYear string) error {
	typeSelect, err := form.Element("select[name=case_type]")
	if err != nil {
		d.log.Error("Case type select not found", "error", err)
		return fmt.Errorf("case type select: %w", ErrNavigationTimeout)
	}
	if err := typeSelect.Select([]string{caseType}, true, rod.SelectorTypeText); err != nil {
		d.log.Error("Failed to select case type", "type", caseType, "error", err)
		return fmt.Errorf("select case type: %w", ErrNavigationTimeout)
	}

	numberInput, err := form.Element("input[name=case_number]")
	if err != nil {
		d.log.Error("Case number input not found", "error", err)
		return fmt.Errorf("case number input: %w", ErrNavigationTimeout)
	}
	if err := numberInput.Input(caseNumber); err != nil {
		return fmt.Errorf("fill case number: %w", ErrNavigationTimeout)
	}

	yearInput, err := form.Element("input[name=filing_year]")
	if err != nil {
		d.log.Error("Filing year input not found", "error", err)
		return fmt.Errorf("filing year input: %w", ErrNavigationTimeout)
	}
	if err := yearInput.Input(filingYear); err != nil {
		return fmt.Errorf("fill filing year: %w", ErrNavigationTimeout)
	}

	return nil
}

// fillCaptcha resolves the visible challenge and types the solution. When no
// automated text is available it allows the configured grace period for an
// out-of-band manual solution before giving up; a challenge absent from the
// page is not an error.
func (d *Driver) fillCaptcha(ctx context.Context, page *rod.Page) error {
	img, err := page.Timeout(captchaWait).Element("div.captcha-container img")
	if err != nil {
		d.log.Debug("No CAPTCHA challenge on page")
		return nil
	}

	source := ""
	if attr, err := img.Attribute("src"); err == nil && attr != nil {
		source = d.absoluteURL(*attr)
	}

	text, challenge := d.solver.Resolve(ctx, source)
	if text == "" && challenge != "" && d.cfg.CaptchaManualWait > 0 {
		d.log.Info("Waiting for manual CAPTCHA completion", "challenge", challenge)
		text = d.solver.AwaitManual(ctx, challenge, d.cfg.CaptchaManualWait)
	}

	input, err := page.Timeout(captchaWait).Element("input[name=captcha]")
	if err != nil {
		d.log.Warn("CAPTCHA input not found", "error", err)
		return nil
	}

	if text != "" {
		if err := input.Input(text); err != nil {
			d.log.Error("Failed to enter CAPTCHA text", "error", err)
			return fmt.Errorf("enter captcha: %w", ErrCaptchaUnresolved)
		}
		return nil
	}

	// An operator driving a headful session may have typed it directly
	if value, err := input.Property("value"); err == nil && value.String() != "" {
		return nil
	}
	return ErrCaptchaUnresolved
}

func (d *Driver) absoluteURL(src string) string {
	if src == "" ||
		strings.HasPrefix(src, "data:") ||
		strings.HasPrefix(src, "http://") ||
		strings.HasPrefix(src, "https://") {
		return src
	}
	return d.cfg.CourtBaseURL + "/" + strings.TrimPrefix(src, "/")
}

// Close releases the browser session. It is safe to call on a never-opened
// or already-closed driver, and is invoked on every orchestrator exit path.
func (d *Driver) Close() {
	if d.closed || d.browser == nil {
		return
	}
	d.closed = true
	if err := d.browser.Close(); err != nil {
		d.log.Warn("Failed to close browser", "error", err)
	}
	d.browser = nil
	d.page = nil
}
