package service

import (
	"context"
	"errors"
	"shikkha_backend/internal/model"
	"shikkha_backend/internal/repository"
	"shikkha_backend/internal/result"
	"shikkha_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ResultService struct {
	Submissions *repository.SubmissionRepository
	Exams       *repository.ExamRepository
	Archive     *ArchiveService
}

func NewResultService(submissions *repository.SubmissionRepository, exams *repository.ExamRepository, archive *ArchiveService) *ResultService {
	return &ResultService{Submissions: submissions, Exams: exams, Archive: archive}
}

// GetResult 只读，组合提交记录、试卷与人工评分
func (s *ResultService) GetResult(ctx context.Context, submissionID string) (*result.Result, error) {
	sub, err := s.Submissions.FindByID(ctx, submissionID)
	if err != nil {
		return nil, notFoundOr(err, "Submission", submissionID)
	}
	exam, err := s.examFor(ctx, sub)
	if err != nil {
		return nil, err
	}
	grades, err := s.Submissions.FindGrades(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	return result.Build(exam, sub, grades), nil
}

// examFor 试卷行已不存在时读取提交时记录的发布快照
func (s *ResultService) examFor(ctx context.Context, sub *model.ExamSubmission) (*model.Exam, error) {
	exam, err := s.Exams.FindByID(ctx, sub.ExamID)
	if err == nil {
		return exam, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) || sub.ExamSnapshotKey == "" || s.Archive == nil {
		return nil, notFoundOr(err, "Exam", sub.ExamID)
	}

	var snapshot model.Exam
	if serr := s.Archive.GetJSON(ctx, sub.ExamSnapshotKey, &snapshot); serr != nil {
		logger.Log.Warn("exam snapshot unavailable",
			zap.String("submission_id", sub.ID),
			zap.String("key", sub.ExamSnapshotKey),
			zap.Error(serr))
		return nil, notFoundOr(err, "Exam", sub.ExamID)
	}
	return &snapshot, nil
}
