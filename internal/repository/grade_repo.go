package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"student-records/backend/internal/model"
)

// GradeRepository 成绩数据访问接口
type GradeRepository interface {
	// Upsert 按 enrollment_id 插入或覆盖成绩
	Upsert(ctx context.Context, grade *model.Grade) error
	GetByEnrollment(ctx context.Context, enrollmentID string) (*model.Grade, error)
	// ListByStudent 成绩联表课程，按课程代码排序
	ListByStudent(ctx context.Context, studentID string) ([]model.GradeRow, error)
}

type gradeRepo struct {
	db *gorm.DB
}

// NewGradeRepo 创建 GradeRepository 实例
func NewGradeRepo(db *gorm.DB) GradeRepository {
	return &gradeRepo{db: db}
}

func (r *gradeRepo) Upsert(ctx context.Context, grade *model.Grade) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "enrollment_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"grade":      grade.Grade,
				"gpa_scale":  grade.GPAScale,
				"updated_by": grade.UpdatedBy,
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(grade).Error
}

func (r *gradeRepo) GetByEnrollment(ctx context.Context, enrollmentID string) (*model.Grade, error) {
	var grade model.Grade
	err := r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		First(&grade).Error
	if err != nil {
		return nil, err
	}
	return &grade, nil
}

func (r *gradeRepo) ListByStudent(ctx context.Context, studentID string) ([]model.GradeRow, error) {
	var rows []model.GradeRow
	err := r.db.WithContext(ctx).
		Table("grades g").
		Select(`g.grade_id, g.enrollment_id, g.course_id,
			c.course_code, c.course_name, c.credits, g.grade, g.gpa_scale`).
		Joins("JOIN enrollments e ON e.enrollment_id = g.enrollment_id").
		Joins("JOIN courses c ON c.course_id = g.course_id").
		Where("g.student_id = ?", studentID).
		Order("c.course_code ASC").
		Scan(&rows).Error
	return rows, err
}
