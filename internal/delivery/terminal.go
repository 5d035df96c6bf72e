package delivery

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"shikkha_backend/internal/i18n"
	"shikkha_backend/internal/model"
	"shikkha_backend/internal/result"
	"strconv"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
)

// Runner drives a Session from line based terminal input.
type Runner struct {
	Session *Session
	In      io.Reader
	Out     io.Writer
	Loc     *goi18n.Localizer

	manual bool
}

// Run loads the exam, takes the student through it and prints the result.
// Closing the input before submitting leaves the attempt in progress with its
// draft saved.
func (r *Runner) Run(ctx context.Context, examID string) error {
	if r.Loc == nil {
		r.Loc = i18n.NewLocalizer()
	}
	s := r.Session

	if err := s.Load(ctx, examID); err != nil {
		r.println(i18n.Td(r.Loc, "LoadFailed", map[string]any{"Error": err.Error()}))
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r.In)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	r.printIntro(s.Paper())
	r.readLine(ctx, lines, nil)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Close(context.WithoutCancel(ctx))

	r.println(i18n.T(r.Loc, "CommandsHelp"))
	r.printQuestion()

	for s.State() == InProgress {
		line, ok := r.readLine(ctx, lines, s.Done())
		if !ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			if s.State() == InProgress {
				return nil
			}
			break
		}
		r.handle(ctx, line, lines)
	}

	if !r.manual {
		r.println(i18n.T(r.Loc, "TimeUp"))
		r.println(i18n.T(r.Loc, "Submitted"))
	}

	r.println(i18n.T(r.Loc, "ViewResultsPrompt"))
	r.readLine(ctx, lines, nil)
	res, err := s.ViewResults(ctx)
	if err != nil {
		r.println(i18n.Td(r.Loc, "LoadFailed", map[string]any{"Error": err.Error()}))
		return err
	}
	return result.Render(r.Out, res, r.Loc)
}

// readLine returns false when input ends, ctx is cancelled or done is closed.
func (r *Runner) readLine(ctx context.Context, lines <-chan string, done <-chan struct{}) (string, bool) {
	select {
	case line, ok := <-lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	case <-done:
		return "", false
	}
}

func (r *Runner) handle(ctx context.Context, line string, lines <-chan string) {
	s := r.Session

	// 自动提交失败后由下一次输入重试
	if s.Expired() {
		r.println(i18n.T(r.Loc, "TimeUp"))
		r.submit(ctx, TriggerTimeout)
		return
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		r.printQuestion()
		return
	}
	q := r.currentQuestion()

	var err error
	switch strings.ToLower(fields[0]) {
	case "n":
		err = s.Next()
	case "p":
		err = s.Prev()
	case "g":
		if len(fields) < 2 {
			err = ErrOutOfRange
			break
		}
		n, convErr := strconv.Atoi(fields[1])
		if convErr != nil {
			err = ErrOutOfRange
			break
		}
		err = s.Jump(n - 1)
	case "a":
		if len(fields) < 2 {
			err = ErrOutOfRange
			break
		}
		idx, ok := model.ParseOptionLabel(fields[1])
		if !ok {
			err = ErrOutOfRange
			break
		}
		err = s.AnswerOption(q.ID, idx)
	case "w":
		if len(fields) < 2 {
			err = ErrOutOfRange
			break
		}
		err = s.AnswerPart(q.ID, fields[1], strings.Join(fields[2:], " "))
	case "c":
		err = s.ClearAnswer(q.ID)
	case "f":
		_, err = s.ToggleFlag(q.ID)
	case "q":
		if s.Paused() {
			err = s.Resume()
		} else {
			err = s.Pause()
		}
	case "s":
		r.confirmSubmit(ctx, lines)
		return
	case "h", "?":
		r.println(i18n.T(r.Loc, "CommandsHelp"))
		return
	default:
		r.println(i18n.T(r.Loc, "InvalidCommand"))
		return
	}

	if err != nil {
		r.printf("%s: %v\n", i18n.T(r.Loc, "InvalidCommand"), err)
		return
	}
	r.printQuestion()
}

func (r *Runner) confirmSubmit(ctx context.Context, lines <-chan string) {
	sum := r.Session.Summary()
	r.println(i18n.Td(r.Loc, "ConfirmSubmit", map[string]any{
		"Answered":   sum.Answered,
		"Unanswered": sum.Unanswered,
		"Flagged":    sum.Flagged,
	}))
	answer, ok := r.readLine(ctx, lines, r.Session.Done())
	if !ok || !isYes(answer) {
		return
	}
	r.submit(ctx, TriggerManual)
}

func (r *Runner) submit(ctx context.Context, trigger Trigger) {
	_, err := r.Session.Submit(ctx, trigger)
	switch {
	case err == nil:
		r.manual = true
		r.println(i18n.T(r.Loc, "Submitted"))
	case errors.Is(err, ErrAlreadySubmitted), errors.Is(err, ErrSubmitInProgress):
	default:
		r.println(i18n.Td(r.Loc, "SubmitFailed", map[string]any{"Error": err.Error()}))
	}
}

func isYes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes" || s == "হ্যাঁ" || s == "হ"
}

func (r *Runner) currentQuestion() *model.PaperQuestion {
	p := r.Session.Paper()
	return &p.Questions[r.Session.Current()]
}

func (r *Runner) printIntro(p *model.Paper) {
	r.println(p.Title)
	r.println(i18n.Td(r.Loc, "ExamDuration", map[string]any{"Minutes": p.Duration, "Total": p.TotalMarks}))
	r.println(i18n.Tp(r.Loc, "QuestionsCount", len(p.Questions)))
	if p.Instructions != "" {
		r.printf("%s: %s\n", i18n.T(r.Loc, "Instructions"), p.Instructions)
	}
	r.println(i18n.T(r.Loc, "StartPrompt"))
}

func (r *Runner) printQuestion() {
	s := r.Session
	p := s.Paper()
	idx := s.Current()
	q := &p.Questions[idx]

	r.println("")
	if p.Duration > 0 {
		status := i18n.Td(r.Loc, "TimeRemaining", map[string]any{"Time": result.FormatDuration(s.Remaining())})
		if s.Paused() {
			status += " [" + i18n.T(r.Loc, "Paused") + "]"
		}
		r.println(status)
	}
	header := i18n.Td(r.Loc, "QuestionHeader", map[string]any{"N": idx + 1, "Total": len(p.Questions), "Points": q.Points})
	if s.IsFlagged(q.ID) {
		header += " [" + i18n.T(r.Loc, "Flagged") + "]"
	}
	r.println(header)
	r.println(q.QuestionText)

	ans := s.Answer(q.ID)
	switch q.QuestionType {
	case model.KindMCQ:
		for i, o := range q.Options {
			mark := " "
			if ans.Option != nil && *ans.Option == i {
				mark = "*"
			}
			r.printf(" %s %s) %s\n", mark, o.Label, o.Text)
		}
	case model.KindCreative:
		for _, sq := range q.SubQuestions {
			r.printf("  %s) %s (%d)\n", sq.Label, sq.Text, sq.Points)
			if text := ans.Parts[sq.Label]; text != "" {
				r.printf("     > %s\n", text)
			}
		}
	}
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.Out, format, args...)
}

func (r *Runner) println(s string) {
	fmt.Fprintln(r.Out, s)
}
