package service

import (
	"context"
	"errors"
	"shikkha_backend/internal/model"
	"shikkha_backend/internal/repository"
	"shikkha_backend/internal/util"
	"strings"
	"time"
)

// DraftService 作答过程中的草稿与开始时间；Repo 为空时草稿功能关闭
type DraftService struct {
	Repo  *repository.DraftRepository
	Exams *repository.ExamRepository
	TTL   time.Duration
	now   func() time.Time
}

func NewDraftService(repo *repository.DraftRepository, exams *repository.ExamRepository, ttl time.Duration) *DraftService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DraftService{Repo: repo, Exams: exams, TTL: ttl, now: time.Now}
}

func (s *DraftService) enabled() bool {
	return s != nil && s.Repo != nil
}

type AttemptInfo struct {
	ExamID    string     `json:"examId"`
	StudentID string     `json:"studentId"`
	StartedAt time.Time  `json:"startedAt"`
	Deadline  *time.Time `json:"deadline,omitempty"`
}

type SaveDraftRequest struct {
	Answers          model.Answers `json:"answers"`
	Flagged          []string      `json:"flagged"`
	CurrentIndex     int           `json:"currentIndex"`
	RemainingSeconds int           `json:"remainingSeconds"`
}

func requireIDs(examID, studentID string) error {
	if strings.TrimSpace(examID) == "" {
		return util.NewValidationError("examId is required")
	}
	if strings.TrimSpace(studentID) == "" {
		return util.NewValidationError("studentId is required")
	}
	return nil
}

// StartAttempt 记录服务端开始时间，重复调用返回第一次的时间
func (s *DraftService) StartAttempt(ctx context.Context, examID, studentID string) (*AttemptInfo, error) {
	if !s.enabled() {
		return nil, util.ErrDraftsDisabled
	}
	if err := requireIDs(examID, studentID); err != nil {
		return nil, err
	}
	exam, err := s.Exams.FindByID(ctx, examID)
	if err != nil {
		return nil, notFoundOr(err, "Exam", examID)
	}

	started, err := s.Repo.MarkStarted(ctx, examID, studentID, s.now(), s.TTL)
	if err != nil {
		return nil, err
	}
	info := &AttemptInfo{ExamID: examID, StudentID: studentID, StartedAt: started}
	if exam.Duration > 0 {
		d := started.Add(time.Duration(exam.DurationSeconds()) * time.Second)
		info.Deadline = &d
	}
	return info, nil
}

// StartedAt 未开启草稿或未记录时返回 nil
func (s *DraftService) StartedAt(ctx context.Context, examID, studentID string) (*time.Time, error) {
	if !s.enabled() {
		return nil, nil
	}
	return s.Repo.StartedAt(ctx, examID, studentID)
}

func (s *DraftService) SaveDraft(ctx context.Context, examID, studentID string, req SaveDraftRequest) (*model.ExamDraft, error) {
	if !s.enabled() {
		return nil, util.ErrDraftsDisabled
	}
	if err := requireIDs(examID, studentID); err != nil {
		return nil, err
	}
	ok, err := s.Exams.Exists(ctx, examID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &util.NotFoundError{Entity: "Exam", ID: examID}
	}

	started, err := s.Repo.StartedAt(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}
	draft := &model.ExamDraft{
		ExamID:           examID,
		StudentID:        studentID,
		Answers:          req.Answers,
		Flagged:          req.Flagged,
		CurrentIndex:     req.CurrentIndex,
		RemainingSeconds: req.RemainingSeconds,
		StartedAt:        started,
		UpdatedAt:        s.now(),
	}
	if err := s.Repo.Save(ctx, draft, s.TTL); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *DraftService) GetDraft(ctx context.Context, examID, studentID string) (*model.ExamDraft, error) {
	if !s.enabled() {
		return nil, util.ErrDraftsDisabled
	}
	if err := requireIDs(examID, studentID); err != nil {
		return nil, err
	}
	draft, err := s.Repo.Get(ctx, examID, studentID)
	if errors.Is(err, repository.ErrDraftNotFound) {
		return nil, &util.NotFoundError{Entity: "Draft", ID: examID}
	}
	return draft, err
}

func (s *DraftService) DeleteDraft(ctx context.Context, examID, studentID string) error {
	if !s.enabled() {
		return util.ErrDraftsDisabled
	}
	if err := requireIDs(examID, studentID); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, examID, studentID)
}
