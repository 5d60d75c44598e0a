package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"student-records/backend/internal/dto"
	"student-records/backend/internal/gpa"
	"student-records/backend/internal/model"
	"student-records/backend/internal/repository"
)

// errEnrollmentCourseMissing 选课记录未带出课程，属于数据损坏，按内部错误处理
var errEnrollmentCourseMissing = errors.New("选课记录缺少课程信息")

// GradeService 成绩、GPA 与成绩单业务接口
type GradeService interface {
	// SetGrade 按选课记录录入或覆盖成绩，学生与课程由选课记录推导
	SetGrade(ctx context.Context, req *dto.SetGradeRequest, callerID string) (*dto.GradeResponse, error)
	ListGrades(ctx context.Context, studentID string, caller Caller) ([]dto.GradeResponse, error)
	CalculateGPA(ctx context.Context, studentID string, caller Caller) (*dto.GPAResponse, error)
	Transcript(ctx context.Context, studentID string, caller Caller) (*dto.TranscriptResponse, error)
}

type gradeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewGradeService 创建 GradeService 实例
func NewGradeService(repo *repository.Repository, logger *zap.Logger) GradeService {
	return &gradeService{repo: repo, logger: logger}
}

// ────────────────────── SetGrade ──────────────────────

func (s *gradeService) SetGrade(ctx context.Context, req *dto.SetGradeRequest, callerID string) (*dto.GradeResponse, error) {
	if req.Grade == nil {
		return nil, fmt.Errorf("%w: 缺少成绩", gpa.ErrInvalidGradeInput)
	}
	score := *req.Grade

	var saved *model.Grade
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		enrollment, err := tx.Enrollment.GetByID(ctx, req.EnrollmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEnrollmentNotFound
			}
			return err
		}

		if enrollment.Course == nil {
			return fmt.Errorf("%w: enrollment_id=%s", errEnrollmentCourseMissing, enrollment.EnrollmentID)
		}
		if err := gpa.Validate([]gpa.CourseGrade{{Grade: score, Credits: enrollment.Course.Credits}}); err != nil {
			return err
		}

		label := gpa.ScaleLabel(score)
		saved = &model.Grade{
			EnrollmentID: enrollment.EnrollmentID,
			StudentID:    enrollment.StudentID,
			CourseID:     enrollment.CourseID,
			Grade:        score,
			GPAScale:     &label,
		}
		saved.CreatedBy = &callerID
		saved.UpdatedBy = &callerID

		return tx.Grade.Upsert(ctx, saved)
	})
	if err != nil {
		if errors.Is(err, ErrEnrollmentNotFound) || errors.Is(err, gpa.ErrInvalidGradeInput) {
			return nil, err
		}
		s.logger.Error("录入成绩失败", zap.String("enrollment_id", req.EnrollmentID), zap.Error(err))
		return nil, err
	}

	resp := dto.NewGradeResponse(saved)
	return &resp, nil
}

// ────────────────────── ListGrades ──────────────────────

func (s *gradeService) ListGrades(ctx context.Context, studentID string, caller Caller) ([]dto.GradeResponse, error) {
	if _, err := loadStudentFor(ctx, s.repo, s.logger, studentID, caller); err != nil {
		return nil, err
	}

	rows, err := s.repo.Grade.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询成绩失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.GradeResponse, 0, len(rows))
	for i := range rows {
		result = append(result, dto.NewGradeRowResponse(&rows[i]))
	}
	return result, nil
}

// ────────────────────── CalculateGPA ──────────────────────

func (s *gradeService) CalculateGPA(ctx context.Context, studentID string, caller Caller) (*dto.GPAResponse, error) {
	student, err := loadStudentFor(ctx, s.repo, s.logger, studentID, caller)
	if err != nil {
		return nil, err
	}

	category, rows, err := loadGradeRows(ctx, s.repo, s.logger, student)
	if err != nil {
		return nil, err
	}

	grades := make([]gpa.CourseGrade, 0, len(rows))
	for _, r := range rows {
		grades = append(grades, gpa.CourseGrade{Grade: r.Grade, Credits: r.Credits})
	}

	result, err := gpa.Calculate(category, grades)
	if err != nil {
		s.logger.Error("GPA 计算输入越界", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	resp := dto.NewGPAResponse(result)
	return &resp, nil
}

// ────────────────────── Transcript ──────────────────────

func (s *gradeService) Transcript(ctx context.Context, studentID string, caller Caller) (*dto.TranscriptResponse, error) {
	student, err := loadStudentFor(ctx, s.repo, s.logger, studentID, caller)
	if err != nil {
		return nil, err
	}

	transcript, err := assembleTranscript(ctx, s.repo, s.logger, student)
	if err != nil {
		return nil, err
	}

	resp := dto.NewTranscriptResponse(transcript)
	return &resp, nil
}

// ── 内部辅助方法 ──

// loadGradeRows 解析学生类别并读取成绩联表行
func loadGradeRows(ctx context.Context, repo *repository.Repository, logger *zap.Logger, student *model.Student) (gpa.Category, []model.GradeRow, error) {
	category, err := student.Category()
	if err != nil {
		logger.Error("学生类别无法识别",
			zap.String("student_id", student.StudentID),
			zap.String("type", student.Type),
			zap.Error(err),
		)
		return 0, nil, err
	}

	rows, err := repo.Grade.ListByStudent(ctx, student.StudentID)
	if err != nil {
		logger.Error("查询成绩失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return 0, nil, err
	}
	return category, rows, nil
}

// assembleTranscript 读取成绩并组装成绩单；存储的绩点文本与重新换算结果不一致时记录告警
func assembleTranscript(ctx context.Context, repo *repository.Repository, logger *zap.Logger, student *model.Student) (*gpa.Transcript, error) {
	category, rows, err := loadGradeRows(ctx, repo, logger, student)
	if err != nil {
		return nil, err
	}

	info := gpa.StudentInfo{
		ID:             student.StudentID,
		StudentNumber:  student.StudentNumber,
		Category:       category,
		EnrollmentYear: student.EnrollmentYear,
	}
	if student.User != nil {
		info.Name = student.User.Name
	}
	if student.Major != nil {
		info.Major = *student.Major
	}

	transcriptRows := make([]gpa.TranscriptRow, 0, len(rows))
	for _, r := range rows {
		transcriptRows = append(transcriptRows, gpa.TranscriptRow{
			CourseCode:    r.CourseCode,
			CourseName:    r.CourseName,
			Credits:       r.Credits,
			Grade:         r.Grade,
			GPAScaleLabel: r.GPAScale,
		})
	}

	transcript, err := gpa.BuildTranscript(info, transcriptRows)
	if err != nil {
		logger.Error("组装成绩单失败", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}

	for _, c := range transcript.Courses {
		if c.ScaleDrifted() {
			logger.Warn("存储的绩点与重新换算结果不一致",
				zap.String("student_id", student.StudentID),
				zap.String("course_code", c.CourseCode),
				zap.String("stored", *c.StoredScaleLabel),
				zap.String("computed", c.ScaleLabel()),
			)
		}
	}
	return transcript, nil
}
