// Package delivery runs a student's timed exam attempt on the client side.
package delivery

import (
	"context"
	"shikkha_backend/internal/model"
	"shikkha_backend/internal/result"
	"shikkha_backend/pkg/logger"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTickInterval = time.Second
	defaultDraftEvery   = 30
)

type Options struct {
	StudentID string
	Loader    ExamLoader
	Starter   AttemptStarter // optional
	Submitter Submitter
	Drafts    DraftStore    // optional
	Results   ResultFetcher // optional

	// TickInterval is the countdown period. Zero means one second; a negative
	// value disables the internal ticker so the caller drives Tick.
	TickInterval time.Duration
	// DraftEvery flushes a draft every n ticks.
	DraftEvery int
	Clock      func() time.Time

	OnTick       func(remaining int)
	OnAutoSubmit func(sub *model.ExamSubmission, err error)
}

// Session is safe for concurrent use. Network calls are made without holding the lock.
type Session struct {
	opts Options

	mu            sync.Mutex
	state         State
	paper         *model.Paper
	questions     map[string]*model.PaperQuestion
	timed         bool
	remaining     int
	paused        bool
	current       int
	answers       model.Answers
	flagged       map[string]bool
	events        []AnswerEvent
	startedAt     time.Time
	serverStart   *time.Time
	ticks         int
	autoSubmitted bool
	submitting    bool
	submission    *model.ExamSubmission
	result        *result.Result
	lastErr       error

	cancel    context.CancelFunc
	done      chan struct{}
	submitted chan struct{}
}

func NewSession(opts Options) *Session {
	if opts.TickInterval == 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.DraftEvery <= 0 {
		opts.DraftEvery = defaultDraftEvery
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Session{
		opts:      opts,
		answers:   model.Answers{},
		flagged:   map[string]bool{},
		submitted: make(chan struct{}),
	}
}

// Load fetches the exam. On failure the session stays NotStarted.
func (s *Session) Load(ctx context.Context, examID string) error {
	s.mu.Lock()
	if s.state != NotStarted {
		s.mu.Unlock()
		return ErrInvalidState
	}
	s.mu.Unlock()

	paper, err := s.opts.Loader.LoadPaper(ctx, examID)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != NotStarted {
		return ErrInvalidState
	}
	s.paper = paper
	s.questions = make(map[string]*model.PaperQuestion, len(paper.Questions))
	for i := range paper.Questions {
		s.questions[paper.Questions[i].ID] = &paper.Questions[i]
	}
	s.timed = paper.Duration > 0
	s.remaining = paper.DurationSeconds()
	s.state = InstructionsShown
	s.lastErr = nil
	return nil
}

// Start begins answer tracking and the countdown. A failing attempt starter or
// draft store does not block the exam.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != InstructionsShown {
		s.mu.Unlock()
		return ErrInvalidState
	}
	examID := s.paper.ID
	s.mu.Unlock()

	var serverStart *time.Time
	if s.opts.Starter != nil {
		t, err := s.opts.Starter.StartAttempt(ctx, examID, s.opts.StudentID)
		if err != nil {
			logger.Log.Warn("attempt start not recorded", zap.String("exam_id", examID), zap.Error(err))
			s.setErr(err)
		} else {
			serverStart = &t
		}
	}

	var draft *Draft
	if s.opts.Drafts != nil {
		d, err := s.opts.Drafts.LoadDraft(ctx, examID, s.opts.StudentID)
		if err != nil {
			logger.Log.Warn("draft not restored", zap.String("exam_id", examID), zap.Error(err))
		}
		draft = d
	}

	s.mu.Lock()
	if s.state != InstructionsShown {
		s.mu.Unlock()
		return ErrInvalidState
	}
	now := s.opts.Clock()
	s.startedAt = now
	s.serverStart = serverStart
	if serverStart != nil && s.timed {
		// 重新打开页面时倒计时从服务端开始时间算起
		elapsed := int(now.Sub(*serverStart) / time.Second)
		if elapsed > 0 {
			s.startedAt = *serverStart
			s.remaining = max(s.paper.DurationSeconds()-elapsed, 0)
		}
	}
	if draft != nil {
		s.restore(draft)
	}
	s.state = InProgress

	if s.opts.TickInterval > 0 {
		loopCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		s.done = make(chan struct{})
		go s.run(loopCtx, s.done)
	}
	s.mu.Unlock()
	return nil
}

func (s *Session) restore(d *Draft) {
	for id, a := range d.Answers {
		if _, ok := s.questions[id]; ok && !a.IsEmpty() {
			s.answers[id] = a
		}
	}
	for _, id := range d.Flagged {
		if _, ok := s.questions[id]; ok {
			s.flagged[id] = true
		}
	}
	if d.CurrentIndex >= 0 && d.CurrentIndex < len(s.paper.Questions) {
		s.current = d.CurrentIndex
	}
	// 剩余 0 秒的草稿恢复后在下一次 Tick 自动提交
	if s.timed && s.serverStart == nil && d.RemainingSeconds >= 0 && d.RemainingSeconds < s.remaining {
		s.remaining = d.RemainingSeconds
	}
}

func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick advances the countdown by one second. Reaching zero submits exactly once.
func (s *Session) Tick(ctx context.Context) {
	s.mu.Lock()
	if s.state != InProgress || s.paused || s.submitting || !s.timed || s.autoSubmitted {
		s.mu.Unlock()
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
	s.ticks++
	remaining := s.remaining
	flush := s.opts.Drafts != nil && s.ticks%s.opts.DraftEvery == 0
	expired := remaining == 0
	if expired {
		s.autoSubmitted = true
	}
	s.mu.Unlock()

	if s.opts.OnTick != nil {
		s.opts.OnTick(remaining)
	}
	if expired {
		sub, err := s.Submit(ctx, TriggerTimeout)
		if s.opts.OnAutoSubmit != nil {
			s.opts.OnAutoSubmit(sub, err)
		}
		return
	}
	if flush {
		s.FlushDraft(ctx)
	}
}

// Submit posts the answers. A second call while a request is in flight gets
// ErrSubmitInProgress; after success it gets the stored submission and
// ErrAlreadySubmitted. On failure the session stays InProgress.
func (s *Session) Submit(ctx context.Context, trigger Trigger) (*model.ExamSubmission, error) {
	s.mu.Lock()
	switch {
	case s.state == Submitted || s.state == ResultsViewable:
		sub := s.submission
		s.mu.Unlock()
		return sub, ErrAlreadySubmitted
	case s.state != InProgress:
		s.mu.Unlock()
		return nil, ErrInvalidState
	case s.submitting:
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	s.submitting = true

	now := s.opts.Clock()
	started := s.startedAt
	req := SubmitRequest{
		ExamID:      s.paper.ID,
		StudentID:   s.opts.StudentID,
		Answers:     s.copyAnswers(),
		TimeSpent:   int(now.Sub(started) / time.Second),
		StartedAt:   &started,
		SubmittedAt: &now,
	}
	if s.timed && req.TimeSpent > s.paper.DurationSeconds() && trigger == TriggerTimeout {
		req.TimeSpent = s.paper.DurationSeconds()
	}
	s.mu.Unlock()

	sub, err := s.opts.Submitter.Submit(ctx, req)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		logger.Log.Warn("submission failed", zap.String("exam_id", req.ExamID), zap.String("trigger", string(trigger)), zap.Error(err))
		return nil, err
	}
	s.state = Submitted
	s.submission = sub
	s.lastErr = nil
	close(s.submitted)
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return sub, nil
}

// ViewResults moves Submitted to ResultsViewable once the result is fetched.
func (s *Session) ViewResults(ctx context.Context) (*result.Result, error) {
	s.mu.Lock()
	switch s.state {
	case ResultsViewable:
		r := s.result
		s.mu.Unlock()
		return r, nil
	case Submitted:
	default:
		s.mu.Unlock()
		return nil, ErrInvalidState
	}
	id := s.submission.ID
	s.mu.Unlock()

	if s.opts.Results == nil {
		return nil, ErrNoResultFetcher
	}
	r, err := s.opts.Results.FetchResult(ctx, id)
	if err != nil {
		s.setErr(err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = r
	s.state = ResultsViewable
	return r, nil
}

// FlushDraft saves the current answers. Failures are logged and kept in LastError.
func (s *Session) FlushDraft(ctx context.Context) {
	if s.opts.Drafts == nil {
		return
	}
	s.mu.Lock()
	if s.state != InProgress {
		s.mu.Unlock()
		return
	}
	examID := s.paper.ID
	d := Draft{
		Answers:          s.copyAnswers(),
		Flagged:          s.flaggedIDs(),
		CurrentIndex:     s.current,
		RemainingSeconds: s.remaining,
	}
	s.mu.Unlock()

	if err := s.opts.Drafts.SaveDraft(ctx, examID, s.opts.StudentID, d); err != nil {
		logger.Log.Warn("draft flush failed", zap.String("exam_id", examID), zap.Error(err))
		s.setErr(err)
	}
}

// Done is closed once the submission has been accepted.
func (s *Session) Done() <-chan struct{} {
	return s.submitted
}

// Close stops the countdown and flushes a final draft if the exam is still open.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.FlushDraft(ctx)
}

// 以下为本地同步操作，只在 InProgress 状态下有效

func (s *Session) Next() error {
	return s.Jump(s.Current() + 1)
}

func (s *Session) Prev() error {
	return s.Jump(s.Current() - 1)
}

func (s *Session) Jump(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if i < 0 || i >= len(s.paper.Questions) {
		return ErrOutOfRange
	}
	s.current = i
	return nil
}

func (s *Session) AnswerOption(questionID string, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.question(questionID)
	if err != nil {
		return err
	}
	if q.QuestionType != model.KindMCQ {
		return ErrWrongQuestionKind
	}
	if option < 0 || option >= len(q.Options) {
		return ErrOutOfRange
	}
	s.answers[questionID] = model.OptionAnswer(option)
	s.log(AnswerEvent{QuestionID: questionID, Kind: EventOption, Option: option})
	return nil
}

func (s *Session) AnswerPart(questionID, label, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.question(questionID)
	if err != nil {
		return err
	}
	if q.QuestionType != model.KindCreative {
		return ErrWrongQuestionKind
	}
	known := false
	for _, sq := range q.SubQuestions {
		if sq.Label == label {
			known = true
			break
		}
	}
	if !known {
		return ErrOutOfRange
	}

	parts := map[string]string{}
	for k, v := range s.answers[questionID].Parts {
		parts[k] = v
	}
	if strings.TrimSpace(text) == "" {
		delete(parts, label)
	} else {
		parts[label] = text
	}
	if len(parts) == 0 {
		delete(s.answers, questionID)
	} else {
		s.answers[questionID] = model.PartsAnswer(parts)
	}
	s.log(AnswerEvent{QuestionID: questionID, Kind: EventPart, Label: label, Text: text})
	return nil
}

func (s *Session) ClearAnswer(questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.question(questionID); err != nil {
		return err
	}
	delete(s.answers, questionID)
	s.log(AnswerEvent{QuestionID: questionID, Kind: EventClear})
	return nil
}

// ToggleFlag marks a question for review. Flags never affect scoring.
func (s *Session) ToggleFlag(questionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.question(questionID); err != nil {
		return false, err
	}
	if s.flagged[questionID] {
		delete(s.flagged, questionID)
		return false, nil
	}
	s.flagged[questionID] = true
	return true, nil
}

// Pause stops the visible countdown only; the server deadline keeps running.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return ErrInvalidState
	}
	s.paused = true
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != InProgress {
		return ErrInvalidState
	}
	s.paused = false
	return nil
}

func (s *Session) editable() error {
	if s.state != InProgress {
		return ErrInvalidState
	}
	if s.submitting {
		return ErrSubmitInProgress
	}
	return nil
}

func (s *Session) question(id string) (*model.PaperQuestion, error) {
	if err := s.editable(); err != nil {
		return nil, err
	}
	q, ok := s.questions[id]
	if !ok {
		return nil, ErrUnknownQuestion
	}
	return q, nil
}

func (s *Session) log(e AnswerEvent) {
	e.At = s.opts.Clock()
	s.events = append(s.events, e)
}

func (s *Session) copyAnswers() model.Answers {
	out := make(model.Answers, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

func (s *Session) flaggedIDs() []string {
	ids := make([]string, 0, len(s.flagged))
	for id := range s.flagged {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Session) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// 只读访问

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Paper() *model.Paper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paper
}

func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Expired reports a timed exam whose countdown reached zero without an accepted submission.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == InProgress && s.timed && s.remaining == 0
}

func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) Answer(questionID string) model.AnswerValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers[questionID]
}

func (s *Session) IsFlagged(questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flagged[questionID]
}

// Events returns a copy of the answer log.
func (s *Session) Events() []AnswerEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AnswerEvent(nil), s.events...)
}

func (s *Session) Submission() *model.ExamSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submission
}

func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := Summary{Flagged: len(s.flagged)}
	if s.paper == nil {
		return sum
	}
	sum.Total = len(s.paper.Questions)
	for _, q := range s.paper.Questions {
		if !s.answers[q.ID].IsEmpty() {
			sum.Answered++
		}
	}
	sum.Unanswered = sum.Total - sum.Answered
	return sum
}
