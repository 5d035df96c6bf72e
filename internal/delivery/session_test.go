package delivery

import (
	"context"
	"errors"
	"shikkha_backend/internal/model"
	"shikkha_backend/internal/result"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func samplePaper(minutes int) *model.Paper {
	return &model.Paper{
		ID:         "exam-1",
		Title:      "গণিত সাপ্তাহিক পরীক্ষা",
		Duration:   minutes,
		TotalMarks: 13,
		Questions: []model.PaperQuestion{
			{
				ID:           "q1",
				QuestionType: model.KindMCQ,
				QuestionText: "২ + ২ = ?",
				Options:      []model.PaperOption{{Label: "ক", Text: "৩"}, {Label: "খ", Text: "৪"}, {Label: "গ", Text: "৫"}},
				Points:       1,
			},
			{
				ID:           "q2",
				QuestionType: model.KindMCQ,
				QuestionText: "বাংলাদেশের রাজধানী?",
				Options:      []model.PaperOption{{Label: "ক", Text: "ঢাকা"}, {Label: "খ", Text: "খুলনা"}},
				Points:       2,
			},
			{
				ID:           "q3",
				QuestionType: model.KindCreative,
				QuestionText: "উদ্দীপকটি পড়ে প্রশ্নগুলোর উত্তর দাও",
				SubQuestions: []model.SubQuestion{
					{Label: "ক", Text: "জ্ঞানমূলক", Points: 1},
					{Label: "খ", Text: "অনুধাবনমূলক", Points: 2},
					{Label: "গ", Text: "প্রয়োগমূলক", Points: 3},
					{Label: "ঘ", Text: "উচ্চতর দক্ষতা", Points: 4},
				},
				Points: 10,
			},
		},
	}
}

type fakeLoader struct {
	paper *model.Paper
	err   error
}

func (f *fakeLoader) LoadPaper(ctx context.Context, examID string) (*model.Paper, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.paper, nil
}

type fakeStarter struct {
	at time.Time
}

func (f *fakeStarter) StartAttempt(ctx context.Context, examID, studentID string) (time.Time, error) {
	return f.at, nil
}

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   int32
	fail    int // number of leading calls that fail
	entered chan struct{}
	release chan struct{}
	last    SubmitRequest
}

func (f *fakeSubmitter) Submit(ctx context.Context, req SubmitRequest) (*model.ExamSubmission, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if int(n) <= f.fail {
		return nil, errors.New("network unreachable")
	}
	sub := &model.ExamSubmission{ExamID: req.ExamID, StudentID: req.StudentID}
	sub.ID = "sub-1"
	return sub, nil
}

func (f *fakeSubmitter) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

type memDrafts struct {
	mu     sync.Mutex
	drafts map[string]Draft
	saves  int
}

func newMemDrafts() *memDrafts {
	return &memDrafts{drafts: map[string]Draft{}}
}

func (m *memDrafts) SaveDraft(ctx context.Context, examID, studentID string, d Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[examID+":"+studentID] = d
	m.saves++
	return nil
}

func (m *memDrafts) LoadDraft(ctx context.Context, examID, studentID string) (*Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[examID+":"+studentID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

type fakeResults struct{}

func (fakeResults) FetchResult(ctx context.Context, submissionID string) (*result.Result, error) {
	return &result.Result{SubmissionID: submissionID, ExamTitle: "গণিত সাপ্তাহিক পরীক্ষা", TotalMarks: 13, ObtainedMarks: 3}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStartedSession(t *testing.T, minutes int, sub *fakeSubmitter, mutate func(*Options)) (*Session, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	opts := Options{
		StudentID:    "student-1",
		Loader:       &fakeLoader{paper: samplePaper(minutes)},
		Submitter:    sub,
		Results:      fakeResults{},
		TickInterval: -1,
		Clock:        clk.Now,
	}
	if mutate != nil {
		mutate(&opts)
	}
	s := NewSession(opts)
	ctx := context.Background()
	if err := s.Load(ctx, "exam-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s, clk
}

func TestLoadFailureStaysNotStarted(t *testing.T) {
	s := NewSession(Options{Loader: &fakeLoader{err: ErrNotFound}, TickInterval: -1})
	err := s.Load(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load err = %v, want ErrNotFound", err)
	}
	if s.State() != NotStarted {
		t.Fatalf("state = %s, want not_started", s.State())
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Start err = %v, want ErrInvalidState", err)
	}
}

func TestLoadShowsInstructionsWithoutTicking(t *testing.T) {
	s := NewSession(Options{Loader: &fakeLoader{paper: samplePaper(30)}, TickInterval: -1})
	if err := s.Load(context.Background(), "exam-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.State() != InstructionsShown {
		t.Fatalf("state = %s", s.State())
	}
	s.Tick(context.Background())
	if s.Remaining() != 1800 {
		t.Fatalf("remaining = %d, want 1800 before start", s.Remaining())
	}
	if err := s.AnswerOption("q1", 0); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("AnswerOption before start err = %v", err)
	}
}

func TestTimerExpirySubmitsExactlyOnce(t *testing.T) {
	sub := &fakeSubmitter{}
	var autoCalls int32
	s, clk := newStartedSession(t, 1, sub, func(o *Options) {
		o.OnAutoSubmit = func(*model.ExamSubmission, error) { atomic.AddInt32(&autoCalls, 1) }
	})
	if err := s.AnswerOption("q1", 1); err != nil {
		t.Fatalf("AnswerOption: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 75; i++ {
		clk.Advance(time.Second)
		s.Tick(ctx)
	}

	if sub.Calls() != 1 {
		t.Fatalf("submit calls = %d, want 1", sub.Calls())
	}
	if atomic.LoadInt32(&autoCalls) != 1 {
		t.Fatalf("auto submit callbacks = %d, want 1", autoCalls)
	}
	if s.State() != Submitted {
		t.Fatalf("state = %s, want submitted", s.State())
	}
	if sub.last.TimeSpent != 60 {
		t.Errorf("timeSpent = %d, want 60", sub.last.TimeSpent)
	}
	if got := sub.last.Answers["q1"]; got.Option == nil || *got.Option != 1 {
		t.Errorf("submitted answers = %+v", sub.last.Answers)
	}
	if _, err := s.Submit(ctx, TriggerManual); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("manual submit after timeout err = %v", err)
	}
	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed after submission")
	}
}

func TestManualSubmitRacingTimeoutSubmitsOnce(t *testing.T) {
	sub := &fakeSubmitter{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s, _ := newStartedSession(t, 1, sub, nil)
	ctx := context.Background()

	for s.Remaining() > 1 {
		s.Tick(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Submit(ctx, TriggerManual)
		errCh <- err
	}()
	<-sub.entered

	// 手动提交进行中，计时器归零不应再次提交
	s.Tick(ctx)
	if _, err := s.Submit(ctx, TriggerManual); !errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("second submit err = %v, want ErrSubmitInProgress", err)
	}
	if err := s.AnswerOption("q1", 0); !errors.Is(err, ErrSubmitInProgress) {
		t.Fatalf("edit during submit err = %v", err)
	}

	close(sub.release)
	if err := <-errCh; err != nil {
		t.Fatalf("manual submit: %v", err)
	}
	s.Tick(ctx)
	if sub.Calls() != 1 {
		t.Fatalf("submit calls = %d, want 1", sub.Calls())
	}
}

func TestConcurrentSubmitProducesOneSubmission(t *testing.T) {
	sub := &fakeSubmitter{}
	s, _ := newStartedSession(t, 10, sub, nil)

	var wg sync.WaitGroup
	var ok int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Submit(context.Background(), TriggerManual); err == nil {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || sub.Calls() != 1 {
		t.Fatalf("successes = %d, submit calls = %d, want 1 and 1", ok, sub.Calls())
	}
}

func TestSubmitFailureKeepsSessionOpen(t *testing.T) {
	sub := &fakeSubmitter{fail: 1}
	s, _ := newStartedSession(t, 10, sub, nil)
	ctx := context.Background()

	if _, err := s.Submit(ctx, TriggerManual); err == nil {
		t.Fatal("expected first submit to fail")
	}
	if s.State() != InProgress {
		t.Fatalf("state after failure = %s, want in_progress", s.State())
	}
	if s.LastError() == nil {
		t.Fatal("LastError not recorded")
	}
	if err := s.AnswerOption("q2", 0); err != nil {
		t.Fatalf("edit after failed submit: %v", err)
	}

	got, err := s.Submit(ctx, TriggerManual)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got.ID != "sub-1" || s.State() != Submitted {
		t.Fatalf("retry result = %+v, state %s", got, s.State())
	}
	if err := s.AnswerOption("q1", 0); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("edit after submit err = %v", err)
	}
}

func TestPauseStopsCountdown(t *testing.T) {
	s, _ := newStartedSession(t, 1, &fakeSubmitter{}, nil)
	ctx := context.Background()

	s.Tick(ctx)
	if err := s.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	for i := 0; i < 100; i++ {
		s.Tick(ctx)
	}
	if s.Remaining() != 59 {
		t.Fatalf("remaining while paused = %d, want 59", s.Remaining())
	}
	if err := s.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	s.Tick(ctx)
	if s.Remaining() != 58 {
		t.Fatalf("remaining after resume = %d, want 58", s.Remaining())
	}
}

func TestUntimedExamNeverExpires(t *testing.T) {
	sub := &fakeSubmitter{}
	s, _ := newStartedSession(t, 0, sub, nil)
	for i := 0; i < 10; i++ {
		s.Tick(context.Background())
	}
	if sub.Calls() != 0 || s.State() != InProgress {
		t.Fatalf("untimed exam submitted: calls %d state %s", sub.Calls(), s.State())
	}
}

func TestNavigationAndAnswers(t *testing.T) {
	s, _ := newStartedSession(t, 10, &fakeSubmitter{}, nil)

	if err := s.Prev(); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Prev at first question err = %v", err)
	}
	if err := s.Next(); err != nil || s.Current() != 1 {
		t.Fatalf("Next: err %v current %d", err, s.Current())
	}
	if err := s.Jump(2); err != nil || s.Current() != 2 {
		t.Fatalf("Jump: err %v current %d", err, s.Current())
	}
	if err := s.Jump(3); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Jump past end err = %v", err)
	}

	if err := s.AnswerOption("q3", 0); !errors.Is(err, ErrWrongQuestionKind) {
		t.Fatalf("option on creative err = %v", err)
	}
	if err := s.AnswerOption("q1", 3); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("option out of range err = %v", err)
	}
	if err := s.AnswerOption("nope", 0); !errors.Is(err, ErrUnknownQuestion) {
		t.Fatalf("unknown question err = %v", err)
	}
	if err := s.AnswerPart("q3", "ঙ", "x"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("unknown label err = %v", err)
	}

	if err := s.AnswerOption("q1", 1); err != nil {
		t.Fatal(err)
	}
	if err := s.AnswerPart("q3", "ক", "সংজ্ঞা"); err != nil {
		t.Fatal(err)
	}
	if err := s.AnswerPart("q3", "খ", "ব্যাখ্যা"); err != nil {
		t.Fatal(err)
	}
	if err := s.AnswerPart("q3", "খ", "  "); err != nil {
		t.Fatal(err)
	}
	if got := s.Answer("q3").Parts; len(got) != 1 || got["ক"] != "সংজ্ঞা" {
		t.Fatalf("parts = %v", got)
	}

	sum := s.Summary()
	if sum.Total != 3 || sum.Answered != 2 || sum.Unanswered != 1 {
		t.Fatalf("summary = %+v", sum)
	}

	if err := s.ClearAnswer("q1"); err != nil {
		t.Fatal(err)
	}
	if !s.Answer("q1").IsEmpty() {
		t.Fatal("q1 not cleared")
	}
	events := s.Events()
	if len(events) != 5 {
		t.Fatalf("events = %d, want 5", len(events))
	}
	if events[0].Kind != EventOption || events[4].Kind != EventClear {
		t.Errorf("event kinds = %s ... %s", events[0].Kind, events[4].Kind)
	}
}

func TestFlagsAreNotSubmitted(t *testing.T) {
	sub := &fakeSubmitter{}
	s, _ := newStartedSession(t, 10, sub, nil)

	flagged, err := s.ToggleFlag("q2")
	if err != nil || !flagged {
		t.Fatalf("ToggleFlag = %v, %v", flagged, err)
	}
	if s.Summary().Flagged != 1 {
		t.Fatal("flag not counted")
	}
	if _, err := s.Submit(context.Background(), TriggerManual); err != nil {
		t.Fatal(err)
	}
	if _, ok := sub.last.Answers["q2"]; ok {
		t.Fatal("flagged question appeared in submitted answers")
	}
}

func TestDraftFlushAndRestore(t *testing.T) {
	drafts := newMemDrafts()
	s, _ := newStartedSession(t, 10, &fakeSubmitter{}, func(o *Options) {
		o.Drafts = drafts
		o.DraftEvery = 2
	})
	ctx := context.Background()

	if err := s.AnswerOption("q2", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ToggleFlag("q1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Jump(2); err != nil {
		t.Fatal(err)
	}
	s.Tick(ctx)
	s.Tick(ctx)
	if drafts.saves != 1 {
		t.Fatalf("draft saves = %d, want 1", drafts.saves)
	}

	// 模拟页面重新加载
	restored, _ := newStartedSession(t, 10, &fakeSubmitter{}, func(o *Options) {
		o.Drafts = drafts
	})
	if a := restored.Answer("q2"); a.Option == nil || *a.Option != 0 {
		t.Fatalf("restored answer = %+v", a)
	}
	if !restored.IsFlagged("q1") || restored.Current() != 2 {
		t.Fatalf("restored flag %v current %d", restored.IsFlagged("q1"), restored.Current())
	}
	if restored.Remaining() != 598 {
		t.Fatalf("restored remaining = %d, want 598", restored.Remaining())
	}
}

func TestExpiredDraftRestoresToZero(t *testing.T) {
	drafts := newMemDrafts()
	_ = drafts.SaveDraft(context.Background(), "exam-1", "student-1", Draft{
		Answers:          model.Answers{"q1": model.OptionAnswer(1)},
		RemainingSeconds: 0,
	})
	sub := &fakeSubmitter{}
	s, _ := newStartedSession(t, 10, sub, func(o *Options) {
		o.Drafts = drafts
	})
	if s.Remaining() != 0 || !s.Expired() {
		t.Fatalf("remaining = %d expired = %v, want 0 and expired", s.Remaining(), s.Expired())
	}

	s.Tick(context.Background())
	if sub.Calls() != 1 || s.State() != Submitted {
		t.Fatalf("calls = %d state = %s", sub.Calls(), s.State())
	}
	if a, ok := sub.last.Answers["q1"]; !ok || *a.Option != 1 {
		t.Fatalf("submitted answers = %+v", sub.last.Answers)
	}
}

func TestServerStartTimeShortensCountdown(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 58, 0, 0, time.UTC)
	s, _ := newStartedSession(t, 10, &fakeSubmitter{}, func(o *Options) {
		o.Starter = &fakeStarter{at: start}
	})
	if s.Remaining() != 480 {
		t.Fatalf("remaining = %d, want 480", s.Remaining())
	}
}

func TestViewResultsAfterSubmit(t *testing.T) {
	s, _ := newStartedSession(t, 10, &fakeSubmitter{}, nil)
	ctx := context.Background()
	if _, err := s.ViewResults(ctx); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("ViewResults before submit err = %v", err)
	}
	if _, err := s.Submit(ctx, TriggerManual); err != nil {
		t.Fatal(err)
	}
	r, err := s.ViewResults(ctx)
	if err != nil {
		t.Fatalf("ViewResults: %v", err)
	}
	if r.SubmissionID != "sub-1" || s.State() != ResultsViewable {
		t.Fatalf("result %+v state %s", r, s.State())
	}
}

func TestTickerGoroutineStopsOnClose(t *testing.T) {
	sub := &fakeSubmitter{}
	s := NewSession(Options{
		StudentID:    "student-1",
		Loader:       &fakeLoader{paper: samplePaper(1)},
		Submitter:    sub,
		TickInterval: time.Millisecond,
	})
	ctx := context.Background()
	if err := s.Load(ctx, "exam-1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for s.Remaining() == 60 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	s.Close(ctx)
	after := s.Remaining()
	time.Sleep(20 * time.Millisecond)
	if s.Remaining() != after {
		t.Fatalf("countdown kept running after Close: %d -> %d", after, s.Remaining())
	}
	if after == 60 {
		t.Fatal("ticker never fired")
	}
}
