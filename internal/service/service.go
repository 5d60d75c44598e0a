package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"student-records/backend/internal/model"
	"student-records/backend/internal/repository"
	"student-records/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Student    StudentService
	Course     CourseService
	Enrollment EnrollmentService
	Grade      GradeService
	Export     ExportService
}

// TokenBlacklist Token 黑名单存储，由 pkg/redis.Client 实现
// 为 nil 时登出与刷新不写黑名单（降级）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Caller 发起请求的当前用户
type Caller struct {
	UserID string
	Role   string
}

// IsAdmin 是否管理员
func (c Caller) IsAdmin() bool { return c.Role == model.RoleAdmin }

// NewService 创建 Service 聚合
func NewService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:       NewAuthService(repo, jwtMgr, blacklist, logger),
		Student:    NewStudentService(repo, logger),
		Course:     NewCourseService(repo, logger),
		Enrollment: NewEnrollmentService(repo, logger),
		Grade:      NewGradeService(repo, logger),
		Export:     NewExportService(repo, logger),
	}
}
