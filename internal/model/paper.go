package model

// PaperOption hides isCorrect from the student view.
type PaperOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type PaperQuestion struct {
	ID           string        `json:"id"`
	Order        int           `json:"order"`
	QuestionType QuestionKind  `json:"questionType"`
	QuestionText string        `json:"questionText"`
	Options      []PaperOption `json:"options,omitempty"`
	SubQuestions []SubQuestion `json:"subQuestions,omitempty"`
	Points       int           `json:"points"`
	ImageURL     string        `json:"imageUrl,omitempty"`
}

// Paper is the exam as delivered to a student.
//
// swagger:model Paper
type Paper struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Subject      string          `json:"subject"`
	ClassLevel   string          `json:"classLevel"`
	ExamType     string          `json:"examType"`
	Duration     int             `json:"duration"`
	TotalMarks   int             `json:"totalMarks"`
	PassingMarks int             `json:"passingMarks"`
	Instructions string          `json:"instructions"`
	IsPublished  bool            `json:"isPublished"`
	Questions    []PaperQuestion `json:"questions"`
}

// DurationSeconds is the countdown a delivery session starts from.
func (p *Paper) DurationSeconds() int {
	return p.Duration * 60
}

// NewPaper strips correctness and explanations.
func NewPaper(e *Exam) *Paper {
	p := &Paper{
		ID:           e.ID,
		Title:        e.Title,
		Subject:      e.Subject,
		ClassLevel:   e.ClassLevel,
		ExamType:     e.ExamType,
		Duration:     e.Duration,
		TotalMarks:   e.TotalMarks,
		PassingMarks: e.PassingMarks,
		Instructions: e.Instructions,
		IsPublished:  e.IsPublished,
		Questions:    make([]PaperQuestion, 0, len(e.Questions)),
	}
	for i := range e.Questions {
		q := &e.Questions[i]
		pq := PaperQuestion{
			ID:           q.ID,
			Order:        q.Position,
			QuestionType: q.QuestionType,
			QuestionText: q.QuestionText,
			Points:       q.MaxPoints(),
			ImageURL:     q.ImageURL,
		}
		switch q.QuestionType {
		case KindMCQ:
			for j, o := range q.OptionList() {
				pq.Options = append(pq.Options, PaperOption{Label: OptionLabel(j), Text: o.Text})
			}
		case KindCreative:
			pq.SubQuestions = q.SubQuestionList()
		}
		p.Questions = append(p.Questions, pq)
	}
	return p
}
