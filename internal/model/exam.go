package model

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// QuestionKind tags the two question variants.
type QuestionKind string

const (
	KindMCQ      QuestionKind = "mcq"
	KindCreative QuestionKind = "creative"
)

const (
	MinOptions = 2
	MaxOptions = 6
)

var kindAliases = map[string]QuestionKind{
	"mcq":             KindMCQ,
	"multiple_choice": KindMCQ,
	"single_choice":   KindMCQ,
	"creative":        KindCreative,
	"srijonshil":      KindCreative,
	"cq":              KindCreative,
	"structured":      KindCreative,
}

// ParseQuestionKind normalises the kind names used by the authoring UI.
func ParseQuestionKind(s string) (QuestionKind, error) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown question type %q", s)
	}
	return k, nil
}

func (k QuestionKind) Valid() bool {
	switch k {
	case KindMCQ, KindCreative:
		return true
	}
	return false
}

// swagger:model Option
type Option struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

// swagger:model SubQuestion
type SubQuestion struct {
	Label  string `json:"label" validate:"required"`
	Text   string `json:"text" validate:"required"`
	Points int    `json:"points" validate:"gte=0"`
}

// swagger:model Exam
type Exam struct {
	UUIDBase
	Title        string         `gorm:"size:255" json:"title"`
	Subject      string         `gorm:"size:100;index" json:"subject"`
	ClassLevel   string         `gorm:"size:50;index" json:"classLevel"`
	ExamType     string         `gorm:"size:50;index" json:"examType"`
	Duration     int            `gorm:"default:0" json:"duration"` // Minutes
	TotalMarks   int            `gorm:"default:0" json:"totalMarks"`
	PassingMarks int            `gorm:"default:0" json:"passingMarks"`
	Instructions string         `gorm:"type:text" json:"instructions"`
	TeacherID    string         `gorm:"size:64;index;not null" json:"teacherId"`
	TeacherEmail string         `gorm:"size:255" json:"teacherEmail,omitempty"`
	IsPublished  bool           `gorm:"default:false" json:"isPublished"`
	PublishedAt  *time.Time     `json:"publishedAt,omitempty"`
	SnapshotKey  string         `gorm:"size:255" json:"snapshotKey,omitempty"`
	Questions    []ExamQuestion `gorm:"foreignKey:ExamID" json:"questions"`
}

func (Exam) TableName() string {
	return "exams"
}

// DurationSeconds is the countdown a delivery session starts from.
func (e *Exam) DurationSeconds() int {
	return e.Duration * 60
}

// swagger:model ExamQuestion
type ExamQuestion struct {
	UUIDBase
	ExamID       string                            `gorm:"index;type:varchar(36)" json:"examId"`
	Position     int                               `gorm:"default:0" json:"order"`
	QuestionType QuestionKind                      `gorm:"size:20;not null" json:"questionType"`
	QuestionText string                            `gorm:"type:text" json:"questionText"`
	Options      datatypes.JSONType[[]Option]      `json:"options"`
	SubQuestions datatypes.JSONType[[]SubQuestion] `json:"subQuestions"`
	Points       int                               `gorm:"default:0" json:"points"`
	ImageURL     string                            `gorm:"size:512" json:"imageUrl,omitempty"`
	Explanation  string                            `gorm:"type:text" json:"explanation,omitempty"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}

func (q *ExamQuestion) OptionList() []Option {
	return q.Options.Data()
}

func (q *ExamQuestion) SubQuestionList() []SubQuestion {
	return q.SubQuestions.Data()
}

// CorrectOptionIndex returns -1 when no option is flagged correct.
func (q *ExamQuestion) CorrectOptionIndex() int {
	for i, o := range q.OptionList() {
		if o.IsCorrect {
			return i
		}
	}
	return -1
}

// MaxPoints is the authoritative value of a question: declared points for MCQ,
// the sum of sub-question points for creative questions.
func (q *ExamQuestion) MaxPoints() int {
	switch q.QuestionType {
	case KindMCQ:
		return q.Points
	case KindCreative:
		sum := 0
		for _, sq := range q.SubQuestionList() {
			sum += sq.Points
		}
		return sum
	}
	return 0
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the structural rules of a question. It does not mutate it.
func (q *ExamQuestion) Validate() error {
	var errs []error
	if strings.TrimSpace(q.QuestionText) == "" {
		errs = append(errs, errors.New("questionText is required"))
	}

	switch q.QuestionType {
	case KindMCQ:
		opts := q.OptionList()
		if len(opts) < MinOptions || len(opts) > MaxOptions {
			errs = append(errs, fmt.Errorf("options must have %d-%d entries, got %d", MinOptions, MaxOptions, len(opts)))
		}
		correct := 0
		for i, o := range opts {
			if err := validate.Struct(o); err != nil {
				errs = append(errs, fmt.Errorf("options[%d]: %w", i, err))
			}
			if o.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			errs = append(errs, fmt.Errorf("exactly one option must be correct, got %d", correct))
		}
		if q.Points < 1 {
			errs = append(errs, errors.New("points must be at least 1"))
		}
	case KindCreative:
		subs := q.SubQuestionList()
		if len(subs) == 0 {
			errs = append(errs, errors.New("subQuestions must not be empty"))
		}
		seen := make(map[string]bool, len(subs))
		for i, sq := range subs {
			if err := validate.Struct(sq); err != nil {
				errs = append(errs, fmt.Errorf("subQuestions[%d]: %w", i, err))
			}
			if seen[sq.Label] {
				errs = append(errs, fmt.Errorf("subQuestions[%d]: duplicate label %q", i, sq.Label))
			}
			seen[sq.Label] = true
		}
	default:
		errs = append(errs, fmt.Errorf("unknown question type %q", q.QuestionType))
	}

	return errors.Join(errs...)
}

// TotalMarks sums MaxPoints over the questions.
func TotalMarks(questions []ExamQuestion) int {
	total := 0
	for i := range questions {
		total += questions[i].MaxPoints()
	}
	return total
}

// PassingMarksFor rounds up so that a ratio never yields a pass below the threshold.
func PassingMarksFor(total int, ratio float64) int {
	return int(math.Ceil(float64(total)*ratio - 1e-9))
}
