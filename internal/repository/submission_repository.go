package repository

import (
	"context"
	"shikkha_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionRepository 提交记录只追加，不提供更新
type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

type SubmissionFilter struct {
	ExamID    string
	StudentID string
	Page      int
	Limit     int
}

// Create 唯一键冲突时返回 gorm.ErrDuplicatedKey（需开启 TranslateError）
func (r *SubmissionRepository) Create(ctx context.Context, s *model.ExamSubmission) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*model.ExamSubmission, error) {
	var s model.ExamSubmission
	if err := r.DB.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmissionRepository) CountByExamAndStudent(ctx context.Context, examID, studentID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ExamSubmission{}).
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		Count(&count).Error
	return count, err
}

func (r *SubmissionRepository) List(ctx context.Context, f SubmissionFilter) ([]model.ExamSubmission, int64, error) {
	var ss []model.ExamSubmission
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.ExamSubmission{})
	if f.ExamID != "" {
		query = query.Where("exam_id = ?", f.ExamID)
	}
	if f.StudentID != "" {
		query = query.Where("student_id = ?", f.StudentID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	offset := (page - 1) * limit
	err := query.Order("submitted_at desc").Offset(offset).Limit(limit).Find(&ss).Error
	return ss, total, err
}

func (r *SubmissionRepository) FindGrades(ctx context.Context, submissionID string) ([]model.ExamSubmissionGrade, error) {
	var grades []model.ExamSubmissionGrade
	err := r.DB.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at asc").
		Find(&grades).Error
	return grades, err
}

// UpsertGrades 同一题目重复评分时覆盖上一次的分数
func (r *SubmissionRepository) UpsertGrades(ctx context.Context, grades []model.ExamSubmissionGrade) error {
	if len(grades) == 0 {
		return nil
	}
	now := time.Now()
	for i := range grades {
		grades[i].UpdatedAt = now
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"points_earned", "grader_id", "comment", "graded_at", "updated_at"}),
	}).Create(&grades).Error
}
