package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"student-records/backend/internal/dto"
	"student-records/backend/internal/gpa"
	"student-records/backend/internal/model"
	"student-records/backend/internal/repository"
	pkgerrors "student-records/backend/pkg/errors"
)

// ── 学生模块业务错误 ──

var (
	ErrStudentNotFound        = errors.New("学生档案不存在")
	ErrStudentNumberExists    = errors.New("学号已存在")
	ErrStudentForbidden       = errors.New("无权访问该学生档案")
	ErrStudentVersionConflict = errors.New("学生档案已被修改，请刷新后重试")
	ErrStudentProfileExists   = errors.New("该用户已有学生档案")
	ErrStudentTypeImmutable   = errors.New("学生类别建立后不可修改")
)

// StudentService 学生档案业务接口
type StudentService interface {
	GetMine(ctx context.Context, userID string) (*dto.StudentResponse, error)
	List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
	Get(ctx context.Context, id string, caller Caller) (*dto.StudentResponse, error)
	Create(ctx context.Context, req *dto.CreateStudentRequest, callerID string) (*dto.StudentResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateStudentRequest, caller Caller) (*dto.StudentResponse, error)
	Delete(ctx context.Context, id string) error
}

type studentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, logger: logger}
}

// ────────────────────── GetMine ──────────────────────

func (s *studentService) GetMine(ctx context.Context, userID string) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *studentService) List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	filter := repository.StudentFilter{
		Keyword: strings.TrimSpace(req.Keyword),
		Offset:  req.GetOffset(),
		Limit:   req.GetPageSize(),
	}
	if req.Type != "" {
		c, err := gpa.ParseCategory(req.Type)
		if err != nil {
			return nil, 0, err
		}
		filter.Type = c.String()
	}

	students, total, err := s.repo.Student.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出学生失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, dto.NewStudentResponse(&students[i]))
	}
	return result, total, nil
}

// ────────────────────── Get ──────────────────────

func (s *studentService) Get(ctx context.Context, id string, caller Caller) (*dto.StudentResponse, error) {
	student, err := loadStudentFor(ctx, s.repo, s.logger, id, caller)
	if err != nil {
		return nil, err
	}

	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *studentService) Create(ctx context.Context, req *dto.CreateStudentRequest, callerID string) (*dto.StudentResponse, error) {
	category, err := gpa.ParseCategory(req.Type)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	if _, err := s.repo.Student.GetByUserID(ctx, req.UserID); err == nil {
		return nil, ErrStudentProfileExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询学生档案失败", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	number := strings.TrimSpace(req.StudentNumber)
	if err := s.ensureNumberFree(ctx, number, ""); err != nil {
		return nil, err
	}

	student := &model.Student{
		UserID:         user.UserID,
		StudentNumber:  number,
		Type:           category.String(),
		EnrollmentYear: req.EnrollmentYear,
		Major:          req.Major,
		User:           user,
	}
	student.CreatedBy = &callerID
	student.UpdatedBy = &callerID

	if err := s.repo.Student.Create(ctx, student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrStudentNumberExists
		}
		s.logger.Error("创建学生档案失败", zap.String("student_number", number), zap.Error(err))
		return nil, err
	}

	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *studentService) Update(ctx context.Context, id string, req *dto.UpdateStudentRequest, caller Caller) (*dto.StudentResponse, error) {
	student, err := loadStudentFor(ctx, s.repo, s.logger, id, caller)
	if err != nil {
		return nil, err
	}

	if req.Version != nil && *req.Version != student.Version {
		return nil, ErrStudentVersionConflict
	}

	if req.Type != nil {
		category, err := gpa.ParseCategory(*req.Type)
		if err != nil {
			return nil, err
		}
		// 类别决定已有成绩的 GPA 计算方式，档案建立后不可更改
		if category.String() != student.Type {
			return nil, ErrStudentTypeImmutable
		}
	}
	if req.StudentNumber != nil {
		number := strings.TrimSpace(*req.StudentNumber)
		if number != student.StudentNumber {
			if err := s.ensureNumberFree(ctx, number, student.StudentID); err != nil {
				return nil, err
			}
			student.StudentNumber = number
		}
	}
	if req.EnrollmentYear != nil {
		student.EnrollmentYear = *req.EnrollmentYear
	}
	if req.Major != nil {
		student.Major = req.Major
	}
	student.UpdatedBy = &caller.UserID

	if err := s.repo.Student.Update(ctx, student); err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			return nil, ErrStudentVersionConflict
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrStudentNumberExists
		}
		s.logger.Error("更新学生档案失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *studentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Student.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		s.logger.Error("删除学生档案失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

// ensureNumberFree 学号未被其他档案占用；selfID 为当前档案 ID（更新时）
func (s *studentService) ensureNumberFree(ctx context.Context, number, selfID string) error {
	existing, err := s.repo.Student.GetByNumber(ctx, number)
	if err == nil && existing.StudentID != selfID {
		return ErrStudentNumberExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询学号失败", zap.String("student_number", number), zap.Error(err))
		return err
	}
	return nil
}

// loadStudentFor 加载学生档案并校验访问权限：管理员或档案本人
func loadStudentFor(ctx context.Context, repo *repository.Repository, logger *zap.Logger, id string, caller Caller) (*model.Student, error) {
	student, err := repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		logger.Error("查询学生档案失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if !caller.IsAdmin() && student.UserID != caller.UserID {
		return nil, ErrStudentForbidden
	}
	return student, nil
}
