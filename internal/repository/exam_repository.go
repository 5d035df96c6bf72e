package repository

import (
	"context"
	"shikkha_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

// ExamFilter 列表筛选条件，零值表示不过滤
type ExamFilter struct {
	TeacherID  string
	Subject    string
	ClassLevel string
	ExamType   string
	Published  *bool
	Page       int
	Limit      int
}

// Create 在一个事务内写入试卷及其题目，题目按 Position 排序
func (r *ExamRepository) Create(ctx context.Context, exam *model.Exam) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Questions").Create(exam).Error; err != nil {
			return err
		}
		if len(exam.Questions) == 0 {
			return nil
		}
		for i := range exam.Questions {
			exam.Questions[i].ExamID = exam.ID
			exam.Questions[i].Position = i + 1
		}
		return tx.Create(&exam.Questions).Error
	})
}

func (r *ExamRepository) FindByID(ctx context.Context, id string) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		First(&exam, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *ExamRepository) List(ctx context.Context, f ExamFilter) ([]model.Exam, int64, error) {
	var exams []model.Exam
	var total int64

	query := r.DB.WithContext(ctx).Model(&model.Exam{})
	if f.TeacherID != "" {
		query = query.Where("teacher_id = ?", f.TeacherID)
	}
	if f.Subject != "" {
		query = query.Where("subject = ?", f.Subject)
	}
	if f.ClassLevel != "" {
		query = query.Where("class_level = ?", f.ClassLevel)
	}
	if f.ExamType != "" {
		query = query.Where("exam_type = ?", f.ExamType)
	}
	if f.Published != nil {
		query = query.Where("is_published = ?", *f.Published)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(f.Page, f.Limit)
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&exams).Error
	return exams, total, err
}

// MarkPublished 只更新发布相关字段
func (r *ExamRepository) MarkPublished(ctx context.Context, id string, at time.Time, snapshotKey string) error {
	res := r.DB.WithContext(ctx).Model(&model.Exam{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_published": true,
			"published_at": at,
			"snapshot_key": snapshotKey,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ExamRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Exam{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
