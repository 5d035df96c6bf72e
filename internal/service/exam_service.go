package service

import (
	"context"
	"errors"
	"fmt"
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
)

type ExamService struct {
	Repo    *repository.ExamRepository
	Archive *ArchiveService
	Policy  *PolicyStore
	now     func() time.Time
}

func NewExamService(repo *repository.ExamRepository, archive *ArchiveService, policy *PolicyStore) *ExamService {
	return &ExamService{Repo: repo, Archive: archive, Policy: policy, now: time.Now}
}

type QuestionRequest struct {
	QuestionType string              `json:"questionType" binding:"required"`
	QuestionText string              `json:"questionText"`
	Options      []model.Option      `json:"options"`
	SubQuestions []model.SubQuestion `json:"subQuestions"`
	Points       int                 `json:"points"`
	ImageURL     string              `json:"imageUrl"`
	Explanation  string              `json:"explanation"`
}

type CreateExamRequest struct {
	Title        string            `json:"title"`
	Subject      string            `json:"subject"`
	ClassLevel   string            `json:"classLevel"`
	ExamType     string            `json:"examType"`
	Duration     int               `json:"duration"`
	Instructions string            `json:"instructions"`
	TeacherID    string            `json:"teacherId"`
	TeacherEmail string            `json:"teacherEmail"`
	Questions    []QuestionRequest `json:"questions"`
}

// buildQuestions 校验并转换题目，创意题的分值以小题之和为准
func buildQuestions(reqs []QuestionRequest) ([]model.ExamQuestion, error) {
	var errs []error
	questions := make([]model.ExamQuestion, 0, len(reqs))
	for i, r := range reqs {
		kind, err := model.ParseQuestionKind(r.QuestionType)
		if err != nil {
			errs = append(errs, prefixErr(i, err))
			continue
		}
		q := model.ExamQuestion{
			QuestionType: kind,
			QuestionText: r.QuestionText,
			Points:       r.Points,
			ImageURL:     r.ImageURL,
			Explanation:  r.Explanation,
		}
		switch kind {
		case model.KindMCQ:
			q.Options = datatypes.NewJSONType(r.Options)
		case model.KindCreative:
			q.SubQuestions = datatypes.NewJSONType(r.SubQuestions)
			q.Points = q.MaxPoints()
		}
		if err := q.Validate(); err != nil {
			errs = append(errs, prefixErr(i, err))
			continue
		}
		questions = append(questions, q)
	}
	if len(errs) > 0 {
		return nil, &util.ValidationError{Err: errors.Join(errs...)}
	}
	return questions, nil
}

func prefixErr(i int, err error) error {
	return fmt.Errorf("questions[%d]: %s", i, strings.ReplaceAll(err.Error(), "\n", "; "))
}

func (s *ExamService) CreateExam(ctx context.Context, req CreateExamRequest) (exam *model.Exam, err error) {
	ctx, span := tracing.StartSpan(ctx, "ExamService.CreateExam", "teacher.id", req.TeacherID)
	defer func() { tracing.EndSpan(span, err) }()

	if strings.TrimSpace(req.TeacherID) == "" {
		return nil, util.NewValidationError("teacherId is required")
	}
	if len(req.Questions) == 0 {
		return nil, util.NewValidationError("questions must not be empty")
	}
	if req.Duration < 0 {
		return nil, util.NewValidationError("duration must not be negative")
	}

	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	total := model.TotalMarks(questions)
	exam = &model.Exam{
		Title:        req.Title,
		Subject:      req.Subject,
		ClassLevel:   req.ClassLevel,
		ExamType:     req.ExamType,
		Duration:     req.Duration,
		TotalMarks:   total,
		PassingMarks: model.PassingMarksFor(total, s.Policy.Get().PassingRatio),
		Instructions: req.Instructions,
		TeacherID:    req.TeacherID,
		TeacherEmail: req.TeacherEmail,
		IsPublished:  false,
		Questions:    questions,
	}

	if err := s.Repo.Create(ctx, exam); err != nil {
		return nil, err
	}

	monitoring.ExamsCreated.Inc()
	logger.Log.Info("exam created",
		zap.String("exam_id", exam.ID),
		zap.String("teacher_id", exam.TeacherID),
		zap.Int("questions", len(exam.Questions)),
		zap.Int("total_marks", exam.TotalMarks),
	)
	return exam, nil
}

func (s *ExamService) GetExam(ctx context.Context, id string) (*model.Exam, error) {
	exam, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Exam", id)
	}
	return exam, nil
}

// ListExams 返回不含题目的试卷列表
func (s *ExamService) ListExams(ctx context.Context, filter repository.ExamFilter) ([]model.Exam, int64, error) {
	return s.Repo.List(ctx, filter)
}

// GetPaper 学生作答使用的试卷视图
func (s *ExamService) GetPaper(ctx context.Context, id string) (*model.Paper, error) {
	exam, err := s.GetExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Policy.Get().RequirePublished && !exam.IsPublished {
		return nil, &util.NotFoundError{Entity: "Exam", ID: id}
	}
	return model.NewPaper(exam), nil
}

// PublishExam 发布后归档一份试卷快照，已发布则直接返回
func (s *ExamService) PublishExam(ctx context.Context, id, actorID string) (exam *model.Exam, err error) {
	ctx, span := tracing.StartSpan(ctx, "ExamService.PublishExam", "exam.id", id)
	defer func() { tracing.EndSpan(span, err) }()

	exam, err = s.GetExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID != "" && exam.TeacherID != actorID {
		return nil, util.ErrPermissionDenied
	}
	if exam.IsPublished {
		return exam, nil
	}

	now := s.now()
	key := ExamSnapshotKey(exam.ID, now.Unix())
	exam.IsPublished = true
	exam.PublishedAt = &now
	exam.SnapshotKey = key

	if s.Archive != nil {
		if err := s.Archive.PutJSON(ctx, key, exam); err != nil {
			return nil, err
		}
	} else {
		exam.SnapshotKey = ""
	}

	if err := s.Repo.MarkPublished(ctx, exam.ID, now, exam.SnapshotKey); err != nil {
		// 发布失败时删除已上传的快照
		if exam.SnapshotKey != "" {
			if derr := s.Archive.Delete(ctx, exam.SnapshotKey); derr != nil {
				logger.Log.Warn("failed to remove orphan snapshot", zap.String("key", exam.SnapshotKey), zap.Error(derr))
			}
		}
		return nil, err
	}
	logger.Log.Info("exam published", zap.String("exam_id", exam.ID), zap.String("snapshot", exam.SnapshotKey))
	return exam, nil
}
