package result

import (
	"bufio"
	"fmt"
	"io"
	"shikkha_backend/internal/i18n"
	"shikkha_backend/internal/model"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
)

func statusMessageID(s model.QuestionStatus) string {
	switch s {
	case model.StatusCorrect:
		return "StatusCorrect"
	case model.StatusIncorrect:
		return "StatusIncorrect"
	case model.StatusUnanswered:
		return "StatusUnanswered"
	case model.StatusNeedsManualGrading:
		return "StatusNeedsManualGrading"
	case StatusGraded:
		return "StatusGraded"
	}
	return string(s)
}

func statusMark(s model.QuestionStatus) string {
	switch s {
	case model.StatusCorrect:
		return "[✓]"
	case model.StatusIncorrect:
		return "[✗]"
	case model.StatusNeedsManualGrading:
		return "[…]"
	case StatusGraded:
		return "[✎]"
	}
	return "[ ]"
}

// FormatDuration prints seconds as mm:ss, or h:mm:ss past an hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Render writes a plain text view of the result in the localizer's language.
func Render(w io.Writer, r *Result, loc *goi18n.Localizer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, i18n.Td(loc, "ResultTitle", map[string]any{"Title": r.ExamTitle}))
	verdict := i18n.T(loc, "ResultFailed")
	if r.Passed {
		verdict = i18n.T(loc, "ResultPassed")
	}
	fmt.Fprintf(bw, "%s  %s\n", i18n.Td(loc, "ResultScore", map[string]any{
		"Obtained": r.ObtainedMarks,
		"Total":    r.TotalMarks,
		"Passing":  r.PassingMarks,
	}), verdict)
	fmt.Fprintln(bw, i18n.Td(loc, "ResultCounts", map[string]any{
		"Correct":    r.CorrectAnswers,
		"Incorrect":  r.IncorrectAnswers,
		"Unanswered": r.Unanswered,
		"Pending":    r.PendingManual,
	}))
	fmt.Fprintln(bw, i18n.Td(loc, "ResultTimeSpent", map[string]any{"Time": FormatDuration(r.TimeSpent)}))
	if r.IsLate {
		fmt.Fprintln(bw, i18n.T(loc, "ResultLate"))
	}

	for i, q := range r.Questions {
		fmt.Fprintln(bw)
		fmt.Fprintf(bw, "%s %s\n", statusMark(q.Status), i18n.Td(loc, "QuestionHeader", map[string]any{
			"N":      i + 1,
			"Total":  len(r.Questions),
			"Points": q.Points,
		}))
		fmt.Fprintln(bw, q.QuestionText)

		switch q.QuestionType {
		case model.KindMCQ:
			for _, o := range q.Options {
				fmt.Fprintf(bw, "  %s) %s\n", o.Label, o.Text)
			}
			fmt.Fprintf(bw, "%s: %s\n", i18n.T(loc, "YourAnswer"), answerText(q.Submitted, loc))
			if q.CorrectAnswer != nil {
				fmt.Fprintf(bw, "%s: %s) %s\n", i18n.T(loc, "CorrectAnswer"), q.CorrectAnswer.OptionLabel, q.CorrectAnswer.OptionText)
			}
		case model.KindCreative:
			for _, sq := range q.SubQuestions {
				fmt.Fprintf(bw, "  %s) %s (%d)\n", sq.Label, sq.Text, sq.Points)
				ans := ""
				if q.Submitted != nil {
					ans = strings.TrimSpace(q.Submitted.Parts[sq.Label])
				}
				if ans == "" {
					ans = i18n.T(loc, "NoAnswer")
				}
				fmt.Fprintf(bw, "     %s: %s\n", i18n.T(loc, "YourAnswer"), ans)
			}
		}

		fmt.Fprintf(bw, "%s, %s\n", i18n.T(loc, statusMessageID(q.Status)), i18n.Td(loc, "PointsEarned", map[string]any{
			"Earned": q.PointsEarned,
			"Points": q.Points,
		}))
		if q.GraderComment != "" {
			fmt.Fprintf(bw, "%s: %s\n", i18n.T(loc, "GraderComment"), q.GraderComment)
		}
		if q.Explanation != "" {
			fmt.Fprintf(bw, "%s: %s\n", i18n.T(loc, "Explanation"), q.Explanation)
		}
	}

	return bw.Flush()
}

func answerText(s *SubmittedAnswer, loc *goi18n.Localizer) string {
	if s == nil || s.OptionIndex == nil {
		return i18n.T(loc, "NoAnswer")
	}
	if s.OptionLabel == "" {
		return fmt.Sprintf("#%d", *s.OptionIndex)
	}
	return s.OptionLabel + ") " + s.OptionText
}
