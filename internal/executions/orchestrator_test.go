package executions

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/watzon/uiproof/internal/browser"
	"github.com/watzon/uiproof/internal/cases"
	"github.com/watzon/uiproof/internal/config"
)

// stubSession is a scriptable browser.Session for orchestrator tests.
type stubSession struct {
	mu       sync.Mutex
	startErr error
	failOn   map[string]bool
	closes   int
	calls    []string
}

func (s *stubSession) result(call string) browser.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	if s.failOn[call] {
		return browser.Result{Success: false, Message: "failed: " + call, Error: "driver error"}
	}
	return browser.Result{Success: true, Message: "ok: " + call}
}

func (s *stubSession) Start() error { return s.startErr }

func (s *stubSession) Close() {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
}

func (s *stubSession) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

func (s *stubSession) NewPage() error   { return nil }
func (s *stubSession) ClosePage() error { return nil }

func (s *stubSession) Navigate(url string) browser.Result { return s.result("navigate:" + url) }

func (s *stubSession) Click(kind, value string) browser.Result {
	return s.result(fmt.Sprintf("click:%s:%s", kind, value))
}

func (s *stubSession) Fill(kind, value, text string) browser.Result {
	return s.result(fmt.Sprintf("fill:%s:%s", kind, value))
}

func (s *stubSession) Clear(kind, value string) browser.Result {
	return s.result(fmt.Sprintf("clear:%s:%s", kind, value))
}

func (s *stubSession) WaitVisible(kind, value string, timeout time.Duration) browser.Result {
	return s.result(fmt.Sprintf("wait:%s:%s", kind, value))
}

func (s *stubSession) TextExists(text string) browser.Result { return s.result("text:" + text) }

func (s *stubSession) ElementExists(kind, value string) browser.Result {
	return s.result(fmt.Sprintf("exists:%s:%s", kind, value))
}

func (s *stubSession) Screenshot(filename string) (string, error) {
	return "screenshots/" + filename, nil
}

func (s *stubSession) ScreenshotOnFailure() (string, error) {
	return "screenshots/error_test.png", nil
}

// stubFactory hands out prepared sessions in order and records the options
// each one was built with.
type stubFactory struct {
	mu       sync.Mutex
	sessions []*stubSession
	opts     []browser.Options
	next     int
}

func (f *stubFactory) factory(opts browser.Options) browser.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = append(f.opts, opts)
	if f.next >= len(f.sessions) {
		f.sessions = append(f.sessions, &stubSession{failOn: map[string]bool{}})
	}
	s := f.sessions[f.next]
	f.next++
	return s
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *cases.Store, *stubFactory) {
	t.Helper()

	db := testDB(t)
	caseStore := cases.NewStore(db)
	factory := &stubFactory{}
	cfg := config.Default()

	o := NewOrchestrator(NewStore(db), caseStore, factory.factory, cfg)
	return o, caseStore, factory
}

func seedCase(t *testing.T, store *cases.Store, name string) *cases.TestCase {
	t.Helper()

	tc := &cases.TestCase{
		Name: name,
		Steps: []cases.TestStep{
			{Order: 1, ActionType: "navigate", Params: `{"url":"https://example.com"}`},
			{Order: 2, ActionType: "click", LocatorType: "css", Locator: "#go"},
			{Order: 3, ActionType: "verify_text", Params: `{"text":"Welcome"}`},
		},
	}
	require.NoError(t, store.Create(context.Background(), tc))
	return tc
}

func TestCreate_ExplicitIDs(t *testing.T) {
	o, caseStore, _ := newTestOrchestrator(t)
	ctx := context.Background()

	a := seedCase(t, caseStore, "a")

	e, err := o.Create(ctx, CreateRequest{Mode: ModeSingle, CaseIDs: []string{a.ID}})
	require.NoError(t, err)
	require.Equal(t, StatusPending, e.Status)
	require.Equal(t, []string{a.ID}, e.CaseIDs)
	require.Equal(t, 1, e.TotalCount)
	require.Equal(t, "chrome", e.Browser)
}

func TestCreate_SingleDefaultsToFirstCase(t *testing.T) {
	o, caseStore, _ := newTestOrchestrator(t)
	ctx := context.Background()

	a := seedCase(t, caseStore, "oldest")
	time.Sleep(5 * time.Millisecond)
	seedCase(t, caseStore, "newer")

	e, err := o.Create(ctx, CreateRequest{Mode: ModeSingle})
	require.NoError(t, err)
	require.Equal(t, []string{a.ID}, e.CaseIDs)
}

func TestCreate_BatchDefaultsToAllCases(t *testing.T) {
	o, caseStore, _ := newTestOrchestrator(t)
	ctx := context.Background()

	a := seedCase(t, caseStore, "a")
	b := seedCase(t, caseStore, "b")

	e, err := o.Create(ctx, CreateRequest{Mode: ModeBatch})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{a.ID, b.ID}, e.CaseIDs)
	require.Equal(t, 2, e.TotalCount)
}

func TestCreate_NoCases(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	_, err := o.Create(context.Background(), CreateRequest{Mode: ModeBatch})
	require.ErrorIs(t, err, ErrNoCases)
}

func TestCreate_Invalid(t *testing.T) {
	o, caseStore, _ := newTestOrchestrator(t)
	ctx := context.Background()
	seedCase(t, caseStore, "a")

	_, err := o.Create(ctx, CreateRequest{Mode: "parallel"})
	require.Error(t, err)

	_, err = o.Create(ctx, CreateRequest{Browser: "netscape"})
	require.Error(t, err)
}

func TestStart_NotFound(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	_, err := o.Start(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStartRun_Completes(t *testing.T) {
	o, caseStore, factory := newTestOrchestrator(t)
	ctx := context.Background()

	a := seedCase(t, caseStore, "a")
	b := seedCase(t, caseStore, "b")

	e, err := o.Create(ctx, CreateRequest{Mode: ModeBatch, Browser: "chrome", CaseIDs: []string{a.ID, b.ID}})
	require.NoError(t, err)

	started, err := o.Start(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRunning, started.Status)
	require.NotNil(t, started.StartTime)

	<-o.Wait(e.ID)

	got, err := o.Get(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got.Status)
	require.Equal(t, 2, got.SuccessCount)
	require.Zero(t, got.FailCount)
	require.Equal(t, 2, got.TotalCount)
	require.NotNil(t, got.EndTime)
	require.Equal(t, float64(100), got.PassRate())

	outcomes, err := o.ListCaseOutcomes(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.Equal(t, "a", outcomes[0].CaseName)
	require.Equal(t, "b", outcomes[1].CaseName)
	require.Equal(t, OutcomeSuccess, outcomes[0].Status)
	require.NotEmpty(t, outcomes[0].StepLogs)

	// The engine name mapped through the fixed table.
	require.Equal(t, browser.EngineChromium, factory.opts[0].Profile.Engine)

	// Session torn down exactly once.
	require.Equal(t, 1, factory.sessions[0].closeCount())
	require.Nil(t, o.GetRunningSession(e.ID))
}

func TestStartRun_CaseFailure(t *testing.T) {
	o, caseStore, factory := newTestOrchestrator(t)
	ctx := context.Background()

	a := seedCase(t, caseStore, "a")
	b := seedCase(t, caseStore, "b")

	session := &stubSession{failOn: map[string]bool{"click:css:#go": true}}
	factory.sessions = []*stubSession{session}

	e, err := o.Create(ctx, CreateRequest{Mode: ModeBatch, CaseIDs: []string{a.ID, b.ID}})
	require.NoError(t, err)
	_, err = o.Start(ctx, e.ID)
	require.NoError(t, err)

	<-o.Wait(e.ID)

	got, err := o.Get(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.Zero(t, got.SuccessCount)
	require.Equal(t, 2, got.FailCount)
	require.Equal(t, float64(0), got.PassRate())

	outcomes, err := o.ListCaseOutcomes(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		require.Equal(t, OutcomeFailed, outcome.Status)
		require.Equal(t, "screenshots/error_test.png", outcome.ScreenshotPath)
		require.Equal(t, "driver error", outcome.ErrorDetail)
	}
}

func TestStartRun_SessionStartError(t *testing.T) {
	o, caseStore, factory := newTestOrchestrator(t)
	ctx := context.Background()

	a := seedCase(t, caseStore, "a")

	session := &stubSession{startErr: fmt.Errorf("no browser installed"), failOn: map[string]bool{}}
	factory.sessions = []*stubSession{session}

	e, err := o.Create(ctx, CreateRequest{CaseIDs: []string{a.ID}})
	require.NoError(t, err)
	_, err = o.Start(ctx, e.ID)
	require.NoError(t, err)

	<-o.Wait(e.ID)

	got, err := o.Get(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.EndTime)

	// Teardown still ran.
	require.Equal(t, 1, session.closeCount())
	require.Nil(t, o.GetRunningSession(e.ID))

	// No cases were attempted.
	outcomes, err := o.ListCaseOutcomes(ctx, e.ID)
	require.NoError(t, err)
	require.Empty(t, outcomes)
}

func TestStart_AlreadyStarted(t *testing.T) {
	o, caseStore, _ := newTestOrchestrator(t)
	ctx := context.Background()

	a := seedCase(t, caseStore, "a")
	e, err := o.Create(ctx, CreateRequest{CaseIDs: []string{a.ID}})
	require.NoError(t, err)

	_, err = o.Start(ctx, e.ID)
	require.NoError(t, err)
	<-o.Wait(e.ID)

	_, err = o.Start(ctx, e.ID)
	require.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestStop(t *testing.T) {
	o, caseStore, _ := newTestOrchestrator(t)
	ctx := context.Background()

	a := seedCase(t, caseStore, "a")
	e, err := o.Create(ctx, CreateRequest{CaseIDs: []string{a.ID}})
	require.NoError(t, err)

	// Stopping a pending execution force-fails it.
	require.NoError(t, o.Stop(ctx, e.ID))

	got, err := o.Get(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.EndTime)

	// Stop is idempotent.
	require.NoError(t, o.Stop(ctx, e.ID))

	// Stopping a completed execution overwrites it to failed.
	done, err := o.Create(ctx, CreateRequest{CaseIDs: []string{a.ID}})
	require.NoError(t, err)
	_, err = o.Start(ctx, done.ID)
	require.NoError(t, err)
	<-o.Wait(done.ID)

	got, err = o.Get(ctx, done.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got.Status)

	require.NoError(t, o.Stop(ctx, done.ID))
	got, err = o.Get(ctx, done.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)

	require.ErrorIs(t, o.Stop(ctx, "nope"), ErrNotFound)
}

func TestConcurrentExecutionsAreIndependent(t *testing.T) {
	o, caseStore, factory := newTestOrchestrator(t)
	ctx := context.Background()

	a := seedCase(t, caseStore, "a")
	b := seedCase(t, caseStore, "b")

	failing := &stubSession{failOn: map[string]bool{"click:css:#go": true}}
	passing := &stubSession{failOn: map[string]bool{}}
	factory.sessions = []*stubSession{failing, passing}

	first, err := o.Create(ctx, CreateRequest{CaseIDs: []string{a.ID}})
	require.NoError(t, err)
	second, err := o.Create(ctx, CreateRequest{CaseIDs: []string{b.ID}})
	require.NoError(t, err)

	_, err = o.Start(ctx, first.ID)
	require.NoError(t, err)
	_, err = o.Start(ctx, second.ID)
	require.NoError(t, err)

	<-o.Wait(first.ID)
	<-o.Wait(second.ID)

	got, err := o.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)

	got, err = o.Get(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got.Status)
	require.Equal(t, 1, got.SuccessCount)
	require.Zero(t, got.FailCount)
}

func TestPassRate(t *testing.T) {
	e := &Execution{TotalCount: 3, SuccessCount: 1}
	require.Equal(t, 33.33, e.PassRate())

	require.Zero(t, (&Execution{}).PassRate())
}
