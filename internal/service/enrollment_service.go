package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"student-records/backend/internal/dto"
	"student-records/backend/internal/model"
	"student-records/backend/internal/repository"
)

// ── 选课模块业务错误 ──

var (
	ErrEnrollmentNotFound = errors.New("选课记录不存在")
	ErrAlreadyEnrolled    = errors.New("已选修该课程")
)

// EnrollmentService 选课业务接口
type EnrollmentService interface {
	ListByStudent(ctx context.Context, studentID string, caller Caller) ([]dto.EnrollmentResponse, error)
	Enroll(ctx context.Context, req *dto.EnrollRequest, caller Caller) (*dto.EnrollmentResponse, error)
	Unenroll(ctx context.Context, id string, caller Caller) error
}

type enrollmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEnrollmentService 创建 EnrollmentService 实例
func NewEnrollmentService(repo *repository.Repository, logger *zap.Logger) EnrollmentService {
	return &enrollmentService{repo: repo, logger: logger}
}

// ────────────────────── ListByStudent ──────────────────────

func (s *enrollmentService) ListByStudent(ctx context.Context, studentID string, caller Caller) ([]dto.EnrollmentResponse, error) {
	if _, err := loadStudentFor(ctx, s.repo, s.logger, studentID, caller); err != nil {
		return nil, err
	}

	enrollments, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("列出选课记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		result = append(result, dto.NewEnrollmentResponse(&enrollments[i]))
	}
	return result, nil
}

// ────────────────────── Enroll ──────────────────────

func (s *enrollmentService) Enroll(ctx context.Context, req *dto.EnrollRequest, caller Caller) (*dto.EnrollmentResponse, error) {
	if _, err := loadStudentFor(ctx, s.repo, s.logger, req.StudentID, caller); err != nil {
		return nil, err
	}

	course, err := s.repo.Course.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, err
	}

	if _, err := s.repo.Enrollment.GetByStudentAndCourse(ctx, req.StudentID, req.CourseID); err == nil {
		return nil, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询选课记录失败", zap.Error(err))
		return nil, err
	}

	enrollment := &model.Enrollment{
		StudentID: req.StudentID,
		CourseID:  course.CourseID,
		Course:    course,
	}
	enrollment.CreatedBy = &caller.UserID
	enrollment.UpdatedBy = &caller.UserID

	if err := s.repo.Enrollment.Create(ctx, enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyEnrolled
		}
		s.logger.Error("创建选课记录失败",
			zap.String("student_id", req.StudentID),
			zap.String("course_id", req.CourseID),
			zap.Error(err),
		)
		return nil, err
	}

	resp := dto.NewEnrollmentResponse(enrollment)
	return &resp, nil
}

// ────────────────────── Unenroll ──────────────────────

func (s *enrollmentService) Unenroll(ctx context.Context, id string, caller Caller) error {
	enrollment, err := s.repo.Enrollment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		s.logger.Error("查询选课记录失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if _, err := loadStudentFor(ctx, s.repo, s.logger, enrollment.StudentID, caller); err != nil {
		return err
	}

	if err := s.repo.Enrollment.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		s.logger.Error("删除选课记录失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
