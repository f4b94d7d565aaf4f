// Package browser owns the browser/context/page triple used by a running
// execution and exposes the primitive actions steps are built from.
package browser

import (
	"time"

	"github.com/watzon/uiproof/internal/config"
)

// Engine identifies a browser engine supported by the driver.
type Engine string

const (
	EngineChromium Engine = "chromium"
	EngineFirefox  Engine = "firefox"
	EngineWebKit   Engine = "webkit"
)

// Profile describes the browser an execution was requested with.
type Profile struct {
	Engine   Engine
	Headless bool
	Viewport config.Viewport
}

// Options configures a session beyond the browser profile.
type Options struct {
	Profile           Profile
	StepTimeout       time.Duration
	NavigationTimeout time.Duration
	ScreenshotsDir    string
}

// Result is the uniform outcome of every session primitive. Driver errors
// never escape the session boundary; they are stringified into Error.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func ok(message string) Result {
	return Result{Success: true, Message: message}
}

func failed(message string, err error) Result {
	r := Result{Success: false, Message: message}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Session drives one browser instance. Implementations must never let a
// driver error type cross this boundary: primitives report failure through
// Result, and Close always completes.
type Session interface {
	// Start launches the browser and prepares a context and page.
	Start() error

	// Close tears down page, context, browser and driver in order. Failures
	// at each stage are logged, never returned.
	Close()

	// NewPage replaces the active page with a fresh one in the same context.
	NewPage() error

	// ClosePage closes the active page.
	ClosePage() error

	Navigate(url string) Result
	Click(kind, value string) Result
	Fill(kind, value, text string) Result
	Clear(kind, value string) Result
	WaitVisible(kind, value string, timeout time.Duration) Result
	TextExists(text string) Result
	ElementExists(kind, value string) Result

	// Screenshot captures the current page under the screenshots directory
	// and returns the file path. An empty filename gets a timestamped one.
	Screenshot(filename string) (string, error)

	// ScreenshotOnFailure captures the page with an error_<timestamp>.png name.
	ScreenshotOnFailure() (string, error)
}

// Factory creates sessions; the orchestrator takes one so tests can inject
// fakes instead of launching real browsers.
type Factory func(opts Options) Session
