package model

import "time"

// ExamDraft is the in-progress state of a delivery session kept in redis.
// It is never graded; the submission payload is authoritative.
//
// swagger:model ExamDraft
type ExamDraft struct {
	ExamID           string     `json:"examId"`
	StudentID        string     `json:"studentId"`
	Answers          Answers    `json:"answers"`
	Flagged          []string   `json:"flagged,omitempty"`
	CurrentIndex     int        `json:"currentIndex"`
	RemainingSeconds int        `json:"remainingSeconds"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
