package service

import (
	"context"
	"errors"
	"fmt"
	"shikkha_backend/internal/config"
	"shikkha_backend/internal/grading"
	"shikkha_backend/internal/model"
	"shikkha_backend/internal/repository"
	"shikkha_backend/internal/util"
	"shikkha_backend/pkg/logger"
	"shikkha_backend/pkg/monitoring"
	"shikkha_backend/pkg/tracing"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmissionService struct {
	Repo    *repository.SubmissionRepository
	Exams   *repository.ExamRepository
	Drafts  *DraftService
	Archive *ArchiveService
	Policy  *PolicyStore
	now     func() time.Time
}

func NewSubmissionService(
	repo *repository.SubmissionRepository,
	exams *repository.ExamRepository,
	drafts *DraftService,
	archive *ArchiveService,
	policy *PolicyStore,
) *SubmissionService {
	return &SubmissionService{
		Repo:    repo,
		Exams:   exams,
		Drafts:  drafts,
		Archive: archive,
		Policy:  policy,
		now:     time.Now,
	}
}

type SubmitExamRequest struct {
	ExamID    string        `json:"examId"`
	StudentID string        `json:"studentId"`
	Answers   model.Answers `json:"answers"`
	TimeSpent int           `json:"timeSpent"` // 秒
	StartedAt *time.Time    `json:"startedAt"`
	// 客户端时间，仅用于日志；提交时间以服务端为准
	SubmittedAt *time.Time `json:"submittedAt"`
}

// SubmitExam 从存储中重新读取题目评分，绝不信任客户端的正确答案
func (s *SubmissionService) SubmitExam(ctx context.Context, req SubmitExamRequest) (sub *model.ExamSubmission, err error) {
	ctx, span := tracing.StartSpan(ctx, "SubmissionService.SubmitExam",
		"exam.id", req.ExamID, "student.id", req.StudentID)
	defer func() {
		tracing.EndSpan(span, err)
		monitoring.SubmissionCounter.WithLabelValues(submissionOutcome(sub, err)).Inc()
	}()

	if strings.TrimSpace(req.ExamID) == "" {
		return nil, util.NewValidationError("examId is required")
	}
	if strings.TrimSpace(req.StudentID) == "" {
		return nil, util.NewValidationError("studentId is required")
	}
	if req.TimeSpent < 0 {
		return nil, util.NewValidationError("timeSpent must not be negative")
	}

	exam, err := s.Exams.FindByID(ctx, req.ExamID)
	if err != nil {
		return nil, notFoundOr(err, "Exam", req.ExamID)
	}

	policy := s.Policy.Get()
	if policy.RequirePublished && !exam.IsPublished {
		return nil, &util.NotFoundError{Entity: "Exam", ID: req.ExamID}
	}

	attemptKey := exam.ID + ":" + req.StudentID
	if policy.AllowMultipleAttempts {
		attemptKey += ":" + model.GenerateUUID()
	} else {
		n, err := s.Repo.CountByExamAndStudent(ctx, exam.ID, req.StudentID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, util.ErrAttemptExists
		}
	}

	now := s.now()
	startedAt := req.StartedAt
	serverStart, err := s.Drafts.StartedAt(ctx, exam.ID, req.StudentID)
	if err != nil {
		// 草稿存储不可用时不阻塞提交，只放弃迟交校验
		logger.Log.Warn("attempt start lookup failed", zap.String("exam_id", exam.ID), zap.Error(err))
	} else if serverStart != nil {
		startedAt = serverStart
	}

	late := false
	if serverStart != nil && exam.Duration > 0 {
		late = IsLate(*serverStart, now, exam.DurationSeconds(), policy.GracePeriod)
	}
	if late {
		switch policy.LatePolicy {
		case config.LatePolicyReject:
			return nil, util.ErrLateSubmission
		case config.LatePolicyIgnore:
			late = false
		}
	}

	answers := make(model.Answers, len(req.Answers))
	for i := range exam.Questions {
		id := exam.Questions[i].ID
		if a, ok := req.Answers[id]; ok {
			answers[id] = a
		}
	}

	report := grading.Grade(exam.Questions, answers)
	sub = &model.ExamSubmission{
		ExamID:           exam.ID,
		StudentID:        req.StudentID,
		AttemptKey:       attemptKey,
		Answers:          datatypes.NewJSONType(answers),
		QuestionResults:  datatypes.NewJSONType(report.Results),
		ObtainedMarks:    report.ObtainedMarks,
		TotalMarks:       report.TotalMarks,
		PassingMarks:     passingMarks(exam, report.TotalMarks, policy),
		CorrectAnswers:   report.CorrectAnswers,
		IncorrectAnswers: report.IncorrectAnswers,
		Unanswered:       report.Unanswered,
		PendingManual:    report.PendingManual,
		TimeSpent:        req.TimeSpent,
		IsLate:           late,
		ExamSnapshotKey:  exam.SnapshotKey,
		StartedAt:        startedAt,
		SubmittedAt:      now,
	}

	if err := s.Repo.Create(ctx, sub); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrAttemptExists
		}
		return nil, err
	}

	for _, r := range report.Results {
		monitoring.QuestionResultCounter.WithLabelValues(string(r.Status)).Inc()
	}

	logger.Log.Info("exam submitted",
		zap.String("submission_id", sub.ID),
		zap.String("exam_id", sub.ExamID),
		zap.String("student_id", sub.StudentID),
		zap.Int("obtained", sub.ObtainedMarks),
		zap.Int("total", sub.TotalMarks),
		zap.Bool("late", sub.IsLate),
	)
	if req.SubmittedAt != nil {
		if skew := now.Sub(*req.SubmittedAt); skew > time.Minute || skew < -time.Minute {
			logger.Log.Debug("client clock skew", zap.String("submission_id", sub.ID), zap.Duration("skew", skew))
		}
	}

	s.afterSubmit(ctx, sub)
	return sub, nil
}

// afterSubmit 清理草稿并归档回执，失败只记录日志
func (s *SubmissionService) afterSubmit(ctx context.Context, sub *model.ExamSubmission) {
	if s.Drafts.enabled() {
		if err := s.Drafts.Repo.Clear(ctx, sub.ExamID, sub.StudentID); err != nil {
			logger.Log.Warn("failed to delete draft", zap.String("submission_id", sub.ID), zap.Error(err))
		}
	}
	if s.Archive != nil {
		if err := s.Archive.PutJSON(ctx, SubmissionReceiptKey(sub.ExamID, sub.ID), sub); err != nil {
			logger.Log.Warn("failed to archive submission receipt", zap.String("submission_id", sub.ID), zap.Error(err))
		}
	}
}

// IsLate 超过时长加宽限期即视为迟交
func IsLate(startedAt, submittedAt time.Time, durationSeconds int, grace time.Duration) bool {
	deadline := startedAt.Add(time.Duration(durationSeconds)*time.Second + grace)
	return submittedAt.After(deadline)
}

// passingMarks 题目未变时沿用创建时的及格线
func passingMarks(exam *model.Exam, total int, policy config.ExamPolicy) int {
	if exam.TotalMarks == total && exam.PassingMarks > 0 {
		return exam.PassingMarks
	}
	return model.PassingMarksFor(total, policy.PassingRatio)
}

func submissionOutcome(sub *model.ExamSubmission, err error) string {
	switch {
	case err == nil && sub != nil && sub.IsLate:
		return "late"
	case err == nil:
		return "accepted"
	case errors.Is(err, util.ErrAttemptExists):
		return "duplicate"
	case errors.Is(err, util.ErrLateSubmission):
		return "rejected_late"
	case util.IsNotFound(err):
		return "not_found"
	case util.IsValidation(err):
		return "invalid"
	}
	return "error"
}

func (s *SubmissionService) GetSubmission(ctx context.Context, id string) (*model.ExamSubmission, error) {
	sub, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Submission", id)
	}
	return sub, nil
}

func (s *SubmissionService) ListSubmissions(ctx context.Context, filter repository.SubmissionFilter) ([]model.ExamSubmission, int64, error) {
	return s.Repo.List(ctx, filter)
}

type QuestionGrade struct {
	QuestionID   string `json:"questionId" binding:"required"`
	PointsEarned int    `json:"pointsEarned"`
	Comment      string `json:"comment"`
}

type GradeSubmissionRequest struct {
	Grades []QuestionGrade `json:"grades" binding:"required,min=1,dive"`
}

// GradeSubmission 人工评分写入独立的表，提交记录本身保持不变。
// graderID 为空表示管理员，不校验试卷归属
func (s *SubmissionService) GradeSubmission(ctx context.Context, id, graderID string, req GradeSubmissionRequest) (grades []model.ExamSubmissionGrade, err error) {
	ctx, span := tracing.StartSpan(ctx, "SubmissionService.GradeSubmission", "submission.id", id)
	defer func() { tracing.EndSpan(span, err) }()

	if len(req.Grades) == 0 {
		return nil, util.NewValidationError("grades must not be empty")
	}

	sub, err := s.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if graderID != "" {
		exam, err := s.Exams.FindByID(ctx, sub.ExamID)
		if err != nil {
			return nil, notFoundOr(err, "Exam", sub.ExamID)
		}
		if exam.TeacherID != graderID {
			return nil, util.ErrPermissionDenied
		}
	}

	results := sub.QuestionResults.Data()
	now := s.now()
	seen := make(map[string]bool, len(req.Grades))
	for _, g := range req.Grades {
		if seen[g.QuestionID] {
			return nil, fmt.Errorf("%w: question %s graded twice", util.ErrInvalidGrade, g.QuestionID)
		}
		seen[g.QuestionID] = true
		qr, ok := results[g.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: question %s is not part of this submission", util.ErrInvalidGrade, g.QuestionID)
		}
		if qr.Status != model.StatusNeedsManualGrading {
			return nil, fmt.Errorf("%w: question %s is %s", util.ErrInvalidGrade, g.QuestionID, qr.Status)
		}
		if g.PointsEarned < 0 || g.PointsEarned > qr.Points {
			return nil, fmt.Errorf("%w: points for %s must be within 0..%d", util.ErrInvalidGrade, g.QuestionID, qr.Points)
		}
		grades = append(grades, model.ExamSubmissionGrade{
			SubmissionID: sub.ID,
			QuestionID:   g.QuestionID,
			PointsEarned: g.PointsEarned,
			GraderID:     graderID,
			Comment:      g.Comment,
			GradedAt:     now,
		})
	}

	if err := s.Repo.UpsertGrades(ctx, grades); err != nil {
		return nil, err
	}
	logger.Log.Info("submission graded", zap.String("submission_id", sub.ID), zap.Int("questions", len(grades)))
	return s.Repo.FindGrades(ctx, sub.ID)
}
