package repository

import (
	"context"

	"gorm.io/gorm"

	"student-records/backend/internal/model"
	pkgerrors "student-records/backend/pkg/errors"
)

// StudentFilter 学生列表查询条件
type StudentFilter struct {
	Type    string // engineering | management，空表示不过滤
	Keyword string // 匹配学号、姓名或专业
	Offset  int
	Limit   int
}

// StudentRepository 学生档案数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByUserID(ctx context.Context, userID string) (*model.Student, error)
	GetByNumber(ctx context.Context, number string) (*model.Student, error)
	List(ctx context.Context, filter StudentFilter) ([]model.Student, int64, error)
	// Update 乐观锁更新：以 student.Version 为旧版本，成功后版本号 +1
	Update(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, id string) error
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	return r.first(ctx, "students.student_id = ?", id)
}

func (r *studentRepo) GetByUserID(ctx context.Context, userID string) (*model.Student, error) {
	return r.first(ctx, "students.user_id = ?", userID)
}

func (r *studentRepo) GetByNumber(ctx context.Context, number string) (*model.Student, error) {
	return r.first(ctx, "students.student_number = ?", number)
}

func (r *studentRepo) first(ctx context.Context, query string, arg string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("User").
		Where(query, arg).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) List(ctx context.Context, filter StudentFilter) ([]model.Student, int64, error) {
	var students []model.Student
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Joins("JOIN users ON users.user_id = students.user_id")

	if filter.Type != "" {
		db = db.Where("students.type = ?", filter.Type)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		db = db.Where("students.student_number ILIKE ? OR users.name ILIKE ? OR students.major ILIKE ?", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("students.student_number ASC").
		Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	oldVersion := student.Version
	result := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ? AND version = ?", student.StudentID, oldVersion).
		Updates(map[string]interface{}{
			"student_number":  student.StudentNumber,
			"type":            student.Type,
			"enrollment_year": student.EnrollmentYear,
			"major":           student.Major,
			"updated_by":      student.UpdatedBy,
			"updated_at":      gorm.Expr("NOW()"),
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	student.Version = oldVersion + 1
	return nil
}

// Delete 硬删除，选课与成绩由外键级联删除
func (r *studentRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("student_id = ?", id).
		Delete(&model.Student{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
