package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog/log"

	"github.com/watzon/uiproof/internal/locator"
	"github.com/watzon/uiproof/internal/metrics"
)

// playwrightSession is the production Session implementation. It owns one
// browser, one context and one page for its entire lifetime.
type playwrightSession struct {
	opts Options

	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

// NewSession creates an unstarted session for the given options.
func NewSession(opts Options) Session {
	return &playwrightSession{opts: opts}
}

func (s *playwrightSession) Start() error {
	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("starting driver: %w", err)
	}
	s.pw = pw

	var launcher playwright.BrowserType
	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.opts.Profile.Headless),
	}

	switch s.opts.Profile.Engine {
	case EngineFirefox:
		launcher = pw.Firefox
	case EngineWebKit:
		launcher = pw.WebKit
	default:
		launcher = pw.Chromium
		// Chromium refuses to run sandboxed as root inside containers.
		launchOpts.Args = []string{
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--disable-dev-shm-usage",
		}
	}

	browser, err := launcher.Launch(launchOpts)
	if err != nil {
		s.Close()
		return fmt.Errorf("launching %s: %w", s.opts.Profile.Engine, err)
	}
	s.browser = browser

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  s.opts.Profile.Viewport.Width,
			Height: s.opts.Profile.Viewport.Height,
		},
		IgnoreHttpsErrors: playwright.Bool(true),
		JavaScriptEnabled: playwright.Bool(true),
	})
	if err != nil {
		s.Close()
		return fmt.Errorf("creating context: %w", err)
	}
	s.context = context
	context.SetDefaultTimeout(s.stepTimeoutMs())
	context.SetDefaultNavigationTimeout(s.navigationTimeoutMs())

	page, err := context.NewPage()
	if err != nil {
		s.Close()
		return fmt.Errorf("creating page: %w", err)
	}
	s.page = page
	page.SetDefaultTimeout(s.stepTimeoutMs())
	page.SetDefaultNavigationTimeout(s.navigationTimeoutMs())

	metrics.SessionsStarted.WithLabelValues(string(s.opts.Profile.Engine)).Inc()

	log.Debug().
		Str("engine", string(s.opts.Profile.Engine)).
		Bool("headless", s.opts.Profile.Headless).
		Int("width", s.opts.Profile.Viewport.Width).
		Int("height", s.opts.Profile.Viewport.Height).
		Msg("Browser session started")

	return nil
}

// Close tears everything down in page, context, browser, driver order.
// Each stage failure is logged and the next stage still runs, so a stuck
// page can never leak a browser process.
func (s *playwrightSession) Close() {
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			log.Warn().Err(err).Msg("Closing page failed")
		}
		s.page = nil
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			log.Warn().Err(err).Msg("Closing context failed")
		}
		s.context = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			log.Warn().Err(err).Msg("Closing browser failed")
		}
		s.browser = nil
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			log.Warn().Err(err).Msg("Stopping driver failed")
		}
		s.pw = nil
	}
}

func (s *playwrightSession) NewPage() error {
	if s.context == nil {
		return ErrSessionNotReady
	}
	page, err := s.context.NewPage()
	if err != nil {
		return fmt.Errorf("creating page: %w", err)
	}
	s.page = page
	page.SetDefaultTimeout(s.stepTimeoutMs())
	page.SetDefaultNavigationTimeout(s.navigationTimeoutMs())
	return nil
}

func (s *playwrightSession) ClosePage() error {
	if s.page == nil {
		return ErrSessionNotReady
	}
	err := s.page.Close()
	s.page = nil
	if err != nil {
		return fmt.Errorf("closing page: %w", err)
	}
	return nil
}

func (s *playwrightSession) Navigate(url string) Result {
	if s.page == nil {
		return failed("navigation failed: "+url, ErrSessionNotReady)
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return failed("navigation failed: "+url, err)
	}
	return ok("navigated to " + url)
}

func (s *playwrightSession) Click(kind, value string) Result {
	el, res := s.locate(kind, value)
	if el == nil {
		return res
	}
	if err := el.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(s.stepTimeoutMs()),
	}); err != nil {
		return failed("click failed: "+value, err)
	}
	return ok("clicked " + value)
}

func (s *playwrightSession) Fill(kind, value, text string) Result {
	el, res := s.locate(kind, value)
	if el == nil {
		return res
	}
	// Fill replaces existing content; it is not an append.
	if err := el.Fill(text); err != nil {
		return failed("input failed: "+value, err)
	}
	return ok("filled " + value)
}

func (s *playwrightSession) Clear(kind, value string) Result {
	el, res := s.locate(kind, value)
	if el == nil {
		return res
	}
	if err := el.Clear(); err != nil {
		return failed("clear failed: "+value, err)
	}
	return ok("cleared " + value)
}

func (s *playwrightSession) WaitVisible(kind, value string, timeout time.Duration) Result {
	el, res := s.locate(kind, value)
	if el == nil {
		return res
	}
	if timeout <= 0 {
		timeout = s.opts.StepTimeout
	}
	if err := el.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return failed("wait for element timed out: "+value, err)
	}
	return ok("element visible: " + value)
}

func (s *playwrightSession) TextExists(text string) Result {
	if s.page == nil {
		return failed("text verification failed: "+text, ErrSessionNotReady)
	}
	_, err := s.page.WaitForSelector("text="+text, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(s.stepTimeoutMs()),
	})
	if err != nil {
		return failed("text verification failed: "+text, err)
	}
	return ok("text present: " + text)
}

func (s *playwrightSession) ElementExists(kind, value string) Result {
	el, res := s.locate(kind, value)
	if el == nil {
		return res
	}
	count, err := el.Count()
	if err != nil {
		return failed("element verification failed: "+value, err)
	}
	if count == 0 {
		return Result{Success: false, Message: "element not found: " + value}
	}
	return ok("element present: " + value)
}

func (s *playwrightSession) Screenshot(filename string) (string, error) {
	if s.page == nil {
		return "", ErrSessionNotReady
	}
	if filename == "" {
		filename = "screenshot_" + screenshotTimestamp(time.Now()) + ".png"
	}

	if err := os.MkdirAll(s.opts.ScreenshotsDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrScreenshotFailed, err)
	}

	path := filepath.Join(s.opts.ScreenshotsDir, filename)
	if _, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	}); err != nil {
		return "", fmt.Errorf("%w: %w", ErrScreenshotFailed, err)
	}
	return path, nil
}

func (s *playwrightSession) ScreenshotOnFailure() (string, error) {
	return s.Screenshot("error_" + screenshotTimestamp(time.Now()) + ".png")
}

// locate resolves a selector and returns the element, or a failed Result if
// resolution is impossible. Exactly one of the return values is set.
func (s *playwrightSession) locate(kind, value string) (playwright.Locator, Result) {
	if s.page == nil {
		return nil, failed("locator resolution failed: "+value, ErrSessionNotReady)
	}
	selector, err := locator.Resolve(locator.Kind(kind), value)
	if err != nil {
		return nil, failed("locator resolution failed: "+value, err)
	}
	return s.page.Locator(selector), Result{}
}

func (s *playwrightSession) stepTimeoutMs() float64 {
	return float64(s.opts.StepTimeout.Milliseconds())
}

func (s *playwrightSession) navigationTimeoutMs() float64 {
	return float64(s.opts.NavigationTimeout.Milliseconds())
}

// screenshotTimestamp renders YYYYMMDD_HHMMSS_ffffff, microsecond precision.
func screenshotTimestamp(t time.Time) string {
	return t.Format("20060102_150405") + fmt.Sprintf("_%06d", t.Nanosecond()/1000)
}
