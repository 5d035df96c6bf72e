// Package grading holds the scorer shared by submission handling and result display.
package grading

import (
	"shikkha_backend/internal/model"
	"strings"
)

// Outcome is the result of scoring one question.
type Outcome struct {
	Status        model.QuestionStatus
	PointsEarned  int
	Points        int
	CorrectAnswer *model.CorrectAnswer
}

func (o Outcome) IsCorrect() bool {
	return o.Status == model.StatusCorrect
}

// QuestionResult converts the outcome into the cached form stored on a submission.
func (o Outcome) QuestionResult(kind model.QuestionKind) model.QuestionResult {
	return model.QuestionResult{
		QuestionType:  kind,
		Status:        o.Status,
		IsCorrect:     o.IsCorrect(),
		PointsEarned:  o.PointsEarned,
		Points:        o.Points,
		CorrectAnswer: o.CorrectAnswer,
	}
}

// ScoreQuestion grades a single answer against the stored question definition.
// MCQ correctness comes from the isCorrect flag of the option at the answered index.
func ScoreQuestion(q *model.ExamQuestion, answer model.AnswerValue) Outcome {
	out := Outcome{Points: q.MaxPoints()}

	switch q.QuestionType {
	case model.KindMCQ:
		opts := q.OptionList()
		if ci := q.CorrectOptionIndex(); ci >= 0 {
			out.CorrectAnswer = &model.CorrectAnswer{
				OptionIndex: ci,
				OptionLabel: model.OptionLabel(ci),
				OptionText:  opts[ci].Text,
			}
		}
		if answer.IsEmpty() {
			out.Status = model.StatusUnanswered
			return out
		}
		// 非索引形式的作答（如对象）视为答错
		if answer.Option == nil {
			out.Status = model.StatusIncorrect
			return out
		}
		idx := *answer.Option
		if idx >= 0 && idx < len(opts) && opts[idx].IsCorrect {
			out.Status = model.StatusCorrect
			out.PointsEarned = q.Points
			return out
		}
		out.Status = model.StatusIncorrect
	case model.KindCreative:
		if answer.IsEmpty() || !hasLabelledPart(q, answer) {
			out.Status = model.StatusUnanswered
			return out
		}
		out.Status = model.StatusNeedsManualGrading
	default:
		out.Status = model.StatusUnanswered
	}
	return out
}

// hasLabelledPart ignores text submitted under labels the question does not have.
// An answer given as an option index to a creative question counts as empty.
func hasLabelledPart(q *model.ExamQuestion, answer model.AnswerValue) bool {
	for _, sq := range q.SubQuestionList() {
		if strings.TrimSpace(answer.Parts[sq.Label]) != "" {
			return true
		}
	}
	return false
}

// Report aggregates the outcomes of a whole exam.
type Report struct {
	Results          map[string]model.QuestionResult
	ObtainedMarks    int
	TotalMarks       int
	CorrectAnswers   int
	IncorrectAnswers int
	Unanswered       int
	PendingManual    int
}

// Grade scores every question of the exam. Answers for ids that are not part of
// the exam are ignored.
func Grade(questions []model.ExamQuestion, answers model.Answers) Report {
	r := Report{Results: make(map[string]model.QuestionResult, len(questions))}
	for i := range questions {
		q := &questions[i]
		out := ScoreQuestion(q, answers[q.ID])
		r.Results[q.ID] = out.QuestionResult(q.QuestionType)
		r.TotalMarks += out.Points
		r.ObtainedMarks += out.PointsEarned

		switch out.Status {
		case model.StatusCorrect:
			r.CorrectAnswers++
		case model.StatusIncorrect:
			r.IncorrectAnswers++
		case model.StatusUnanswered:
			r.Unanswered++
		case model.StatusNeedsManualGrading:
			r.PendingManual++
		}
	}
	return r
}
