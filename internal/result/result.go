// Package result turns a stored submission into the per-question comparison
// shown to students. Nothing here mutates its inputs.
package result

import (
	"shikkha_backend/internal/grading"
	"shikkha_backend/internal/model"
	"time"
)

// StatusGraded marks a creative question that a teacher has scored.
const StatusGraded model.QuestionStatus = "graded"

type SubmittedAnswer struct {
	OptionIndex *int              `json:"optionIndex,omitempty"`
	OptionLabel string            `json:"optionLabel,omitempty"`
	OptionText  string            `json:"optionText,omitempty"`
	Parts       map[string]string `json:"parts,omitempty"`
}

type QuestionView struct {
	QuestionID    string               `json:"questionId"`
	Order         int                  `json:"order"`
	QuestionType  model.QuestionKind   `json:"questionType"`
	QuestionText  string               `json:"questionText"`
	Options       []model.PaperOption  `json:"options,omitempty"`
	SubQuestions  []model.SubQuestion  `json:"subQuestions,omitempty"`
	Submitted     *SubmittedAnswer     `json:"submittedAnswer,omitempty"`
	CorrectAnswer *model.CorrectAnswer `json:"correctAnswer,omitempty"`
	Status        model.QuestionStatus `json:"status"`
	PointsEarned  int                  `json:"pointsEarned"`
	Points        int                  `json:"points"`
	Explanation   string               `json:"explanation,omitempty"`
	GraderComment string               `json:"graderComment,omitempty"`
}

// swagger:model Result
type Result struct {
	SubmissionID     string         `json:"submissionId"`
	ExamID           string         `json:"examId"`
	ExamTitle        string         `json:"examTitle"`
	StudentID        string         `json:"studentId"`
	ObtainedMarks    int            `json:"obtainedMarks"`
	TotalMarks       int            `json:"totalMarks"`
	PassingMarks     int            `json:"passingMarks"`
	Passed           bool           `json:"passed"`
	CorrectAnswers   int            `json:"correctAnswers"`
	IncorrectAnswers int            `json:"incorrectAnswers"`
	Unanswered       int            `json:"unanswered"`
	PendingManual    int            `json:"pendingManual"`
	Graded           int            `json:"graded"`
	TimeSpent        int            `json:"timeSpent"`
	IsLate           bool           `json:"isLate"`
	SubmittedAt      time.Time      `json:"submittedAt"`
	Questions        []QuestionView `json:"questions"`
}

// Build assembles the result view. Cached question results are used as stored;
// a question without a cached result is rescored with grading.ScoreQuestion.
// Manual grades only apply to questions awaiting manual grading.
func Build(exam *model.Exam, sub *model.ExamSubmission, grades []model.ExamSubmissionGrade) *Result {
	cached := sub.QuestionResults.Data()
	answers := sub.Answers.Data()

	byQuestion := make(map[string]model.ExamSubmissionGrade, len(grades))
	for _, g := range grades {
		byQuestion[g.QuestionID] = g
	}

	r := &Result{
		SubmissionID:     sub.ID,
		ExamID:           sub.ExamID,
		ExamTitle:        exam.Title,
		StudentID:        sub.StudentID,
		ObtainedMarks:    sub.ObtainedMarks,
		TotalMarks:       sub.TotalMarks,
		PassingMarks:     sub.PassingMarks,
		CorrectAnswers:   sub.CorrectAnswers,
		IncorrectAnswers: sub.IncorrectAnswers,
		Unanswered:       sub.Unanswered,
		TimeSpent:        sub.TimeSpent,
		IsLate:           sub.IsLate,
		SubmittedAt:      sub.SubmittedAt,
		Questions:        make([]QuestionView, 0, len(exam.Questions)),
	}

	for i := range exam.Questions {
		q := &exam.Questions[i]
		qr, ok := cached[q.ID]
		if !ok {
			qr = grading.ScoreQuestion(q, answers[q.ID]).QuestionResult(q.QuestionType)
		}

		v := QuestionView{
			QuestionID:    q.ID,
			Order:         q.Position,
			QuestionType:  q.QuestionType,
			QuestionText:  q.QuestionText,
			CorrectAnswer: qr.CorrectAnswer,
			Status:        qr.Status,
			PointsEarned:  qr.PointsEarned,
			Points:        qr.Points,
			Explanation:   q.Explanation,
			Submitted:     submitted(q, answers[q.ID]),
		}

		switch q.QuestionType {
		case model.KindMCQ:
			for j, o := range q.OptionList() {
				v.Options = append(v.Options, model.PaperOption{Label: model.OptionLabel(j), Text: o.Text})
			}
		case model.KindCreative:
			v.SubQuestions = q.SubQuestionList()
		}

		if qr.Status == model.StatusNeedsManualGrading {
			if g, ok := byQuestion[q.ID]; ok {
				v.Status = StatusGraded
				v.PointsEarned = g.PointsEarned
				v.GraderComment = g.Comment
				r.ObtainedMarks += g.PointsEarned
				r.Graded++
			} else {
				r.PendingManual++
			}
		}
		r.Questions = append(r.Questions, v)
	}

	r.Passed = r.ObtainedMarks >= r.PassingMarks
	return r
}

func submitted(q *model.ExamQuestion, a model.AnswerValue) *SubmittedAnswer {
	if a.IsEmpty() {
		return nil
	}
	switch q.QuestionType {
	case model.KindMCQ:
		if a.Option == nil {
			return nil
		}
		idx := *a.Option
		s := &SubmittedAnswer{OptionIndex: &idx}
		if opts := q.OptionList(); idx >= 0 && idx < len(opts) {
			s.OptionLabel = model.OptionLabel(idx)
			s.OptionText = opts[idx].Text
		}
		return s
	case model.KindCreative:
		return &SubmittedAnswer{Parts: a.Parts}
	}
	return nil
}
