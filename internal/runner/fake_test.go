package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/watzon/uiproof/internal/browser"
)

// fakeSession records primitive calls and fails the ones listed in failOn.
type fakeSession struct {
	calls         []string
	failOn        map[string]bool
	panicOn       string
	screenshotErr error
	screenshots   int
}

func newFakeSession() *fakeSession {
	return &fakeSession{failOn: map[string]bool{}}
}

func (f *fakeSession) record(call string) browser.Result {
	if f.panicOn != "" && f.panicOn == call {
		panic("session exploded on " + call)
	}
	f.calls = append(f.calls, call)
	if f.failOn[call] {
		return browser.Result{Success: false, Message: "failed: " + call, Error: "driver error"}
	}
	return browser.Result{Success: true, Message: "ok: " + call}
}

func (f *fakeSession) Start() error     { return nil }
func (f *fakeSession) Close()           {}
func (f *fakeSession) NewPage() error   { return nil }
func (f *fakeSession) ClosePage() error { return nil }

func (f *fakeSession) Navigate(url string) browser.Result {
	return f.record("navigate:" + url)
}

func (f *fakeSession) Click(kind, value string) browser.Result {
	return f.record(fmt.Sprintf("click:%s:%s", kind, value))
}

func (f *fakeSession) Fill(kind, value, text string) browser.Result {
	return f.record(fmt.Sprintf("fill:%s:%s:%q", kind, value, text))
}

func (f *fakeSession) Clear(kind, value string) browser.Result {
	return f.record(fmt.Sprintf("clear:%s:%s", kind, value))
}

func (f *fakeSession) WaitVisible(kind, value string, timeout time.Duration) browser.Result {
	return f.record(fmt.Sprintf("wait:%s:%s:%s", kind, value, timeout))
}

func (f *fakeSession) TextExists(text string) browser.Result {
	return f.record("text:" + text)
}

func (f *fakeSession) ElementExists(kind, value string) browser.Result {
	return f.record(fmt.Sprintf("exists:%s:%s", kind, value))
}

func (f *fakeSession) Screenshot(filename string) (string, error) {
	if f.screenshotErr != nil {
		return "", f.screenshotErr
	}
	f.screenshots++
	return fmt.Sprintf("screenshots/%s", filename), nil
}

func (f *fakeSession) ScreenshotOnFailure() (string, error) {
	if f.screenshotErr != nil {
		return "", f.screenshotErr
	}
	f.screenshots++
	return fmt.Sprintf("screenshots/error_%d.png", f.screenshots), nil
}

var errShotFailed = errors.New("screenshot capture failed")
