package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrSubmissionImmutable = errors.New("submission is immutable")

// InvalidOption marks an answer that was supplied but does not name any option.
const InvalidOption = -1

// optionLetters maps the labels printed next to options to their index.
var optionLetters = map[string]int{
	"a": 0, "b": 1, "c": 2, "d": 3, "e": 4, "f": 5,
	"ক": 0, "খ": 1, "গ": 2, "ঘ": 3, "ঙ": 4, "চ": 5,
}

// OptionLabel returns the Bengali letter printed before option i.
func OptionLabel(i int) string {
	labels := []string{"ক", "খ", "গ", "ঘ", "ঙ", "চ"}
	if i < 0 || i >= len(labels) {
		return "?"
	}
	return labels[i]
}

// ParseOptionLabel accepts A-F or ক-চ.
func ParseOptionLabel(s string) (int, bool) {
	i, ok := optionLetters[strings.ToLower(strings.TrimSpace(s))]
	return i, ok
}

// AnswerValue is either an option index (MCQ) or free text per sub-question
// label (creative). The zero value means unanswered.
type AnswerValue struct {
	Option *int
	Parts  map[string]string
}

func OptionAnswer(i int) AnswerValue {
	return AnswerValue{Option: &i}
}

func PartsAnswer(parts map[string]string) AnswerValue {
	return AnswerValue{Parts: parts}
}

// IsEmpty reports whether nothing was answered.
func (a AnswerValue) IsEmpty() bool {
	if a.Option != nil {
		return false
	}
	for _, v := range a.Parts {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (a AnswerValue) MarshalJSON() ([]byte, error) {
	switch {
	case a.Option != nil:
		return json.Marshal(*a.Option)
	case a.Parts != nil:
		return json.Marshal(a.Parts)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, an option index, an option letter (A-F or ক-চ)
// or an object of sub-question answers.
func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	*a = AnswerValue{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '{':
		raw := map[string]any{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parts := make(map[string]string, len(raw))
		for k, v := range raw {
			switch t := v.(type) {
			case nil:
			case string:
				parts[k] = t
			default:
				parts[k] = fmt.Sprint(t)
			}
		}
		a.Parts = parts
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		idx := InvalidOption
		if i, ok := ParseOptionLabel(s); ok {
			idx = i
		} else if n, err := strconv.Atoi(s); err == nil {
			idx = n
		}
		a.Option = &idx
		return nil
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("answer must be an option index, letter or object: %w", err)
		}
		idx := int(f)
		if float64(idx) != f {
			idx = InvalidOption
		}
		a.Option = &idx
		return nil
	}
}

// Answers maps question id to the student's answer.
type Answers map[string]AnswerValue

// QuestionStatus classifies a graded answer.
type QuestionStatus string

const (
	StatusCorrect            QuestionStatus = "correct"
	StatusIncorrect          QuestionStatus = "incorrect"
	StatusUnanswered         QuestionStatus = "unanswered"
	StatusNeedsManualGrading QuestionStatus = "needs_manual_grading"
)

// swagger:model CorrectAnswer
type CorrectAnswer struct {
	OptionIndex int    `json:"optionIndex"`
	OptionLabel string `json:"optionLabel"`
	OptionText  string `json:"optionText"`
}

// swagger:model QuestionResult
type QuestionResult struct {
	QuestionType  QuestionKind   `json:"questionType"`
	Status        QuestionStatus `json:"status"`
	IsCorrect     bool           `json:"isCorrect"`
	PointsEarned  int            `json:"pointsEarned"`
	Points        int            `json:"points"`
	CorrectAnswer *CorrectAnswer `json:"correctAnswer,omitempty"`
}

// swagger:model ExamSubmission
type ExamSubmission struct {
	UUIDBase
	ExamID           string                                        `gorm:"index;type:varchar(36);not null" json:"examId"`
	StudentID        string                                        `gorm:"size:64;index;not null" json:"studentId"`
	AttemptKey       string                                        `gorm:"size:160;uniqueIndex" json:"-"`
	Answers          datatypes.JSONType[Answers]                   `json:"answers"`
	QuestionResults  datatypes.JSONType[map[string]QuestionResult] `json:"questionResults"`
	ObtainedMarks    int                                           `json:"obtainedMarks"`
	TotalMarks       int                                           `json:"totalMarks"`
	PassingMarks     int                                           `json:"passingMarks"`
	CorrectAnswers   int                                           `json:"correctAnswers"`
	IncorrectAnswers int                                           `json:"incorrectAnswers"`
	Unanswered       int                                           `json:"unanswered"`
	PendingManual    int                                           `json:"pendingManual"`
	TimeSpent        int                                           `json:"timeSpent"` // Seconds
	IsLate           bool                                          `gorm:"default:false" json:"isLate"`
	ExamSnapshotKey  string                                        `gorm:"size:255" json:"examSnapshotKey,omitempty"` // 提交时试卷的发布快照
	StartedAt        *time.Time                                    `json:"startedAt,omitempty"`
	SubmittedAt      time.Time                                     `gorm:"index" json:"submittedAt"`
}

func (ExamSubmission) TableName() string {
	return "exam_submissions"
}

// BeforeUpdate keeps submissions append-only.
func (s *ExamSubmission) BeforeUpdate(tx *gorm.DB) error {
	return ErrSubmissionImmutable
}

// Passed compares obtained marks against the passing threshold recorded at submission time.
func (s *ExamSubmission) Passed() bool {
	return s.ObtainedMarks >= s.PassingMarks
}

// ExamSubmissionGrade 教师对需人工评分题目的评分记录，不修改提交本身
type ExamSubmissionGrade struct {
	UUIDBase
	SubmissionID string    `gorm:"uniqueIndex:idx_submission_question;type:varchar(36);not null" json:"submissionId"`
	QuestionID   string    `gorm:"uniqueIndex:idx_submission_question;type:varchar(36);not null" json:"questionId"`
	PointsEarned int       `json:"pointsEarned"`
	GraderID     string    `gorm:"size:64;index" json:"graderId"`
	Comment      string    `gorm:"type:text" json:"comment"`
	GradedAt     time.Time `json:"gradedAt"`
}

func (ExamSubmissionGrade) TableName() string {
	return "exam_submission_grades"
}
