package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"student-records/backend/internal/dto"
	"student-records/backend/internal/model"
	"student-records/backend/internal/repository"
	"student-records/backend/pkg/jwt"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials  = errors.New("邮箱或密码错误")
	ErrUserNotFound        = errors.New("用户不存在")
	ErrRefreshTokenInvalid = errors.New("Refresh Token 无效或已过期")
	ErrWeakPassword        = errors.New("密码长度不能少于 8 位")
)

const minPasswordLen = 8

// comparePassword 校验密码哈希，测试中可替换
var comparePassword = bcrypt.CompareHashAndPassword

// dummyPasswordHash 邮箱不存在时参与比对的哈希，使两条分支耗时一致
var dummyPasswordHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("records-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return hash
})

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 将当前 Access Token（及可选的 Refresh Token）加入黑名单
	Logout(ctx context.Context, jti string, exp time.Time, refreshToken string) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.MeResponse, error)
	// ProvisionUser 按邮箱创建或更新账号（管理命令使用），created 表示是否新建
	ProvisionUser(ctx context.Context, email, name, password string, admin bool) (user *dto.UserResponse, created bool, err error)
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = comparePassword(dummyPasswordHash(), []byte(req.Password))
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := comparePassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 最近登录时间，失败不影响登录
	if err := s.repo.User.TouchLastSignedIn(ctx, user.UserID, time.Now()); err != nil {
		s.logger.Warn("更新最近登录时间失败", zap.String("user_id", user.UserID), zap.Error(err))
	}

	return s.issueTokens(user, req.RememberMe)
}

// ────────────────────── RefreshToken ──────────────────────

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenInvalid
	}

	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrRefreshTokenInvalid
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("查询 Token 黑名单失败，降级放行", zap.Error(err))
		} else if revoked {
			return nil, ErrRefreshTokenInvalid
		}
	}

	// 角色以数据库为准，避免沿用旧 Token 中的角色
	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenInvalid
		}
		s.logger.Error("查询用户失败", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}

	// 轮换：旧 Refresh Token 作废
	s.revoke(ctx, claims.ID, claims.RemainingTTL())

	return s.issueTokens(user, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, exp time.Time, refreshToken string) error {
	s.revoke(ctx, jti, time.Until(exp))

	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil && claims.TokenType == jwt.TokenTypeRefresh {
			s.revoke(ctx, claims.ID, claims.RemainingTTL())
		}
	}
	return nil
}

// ────────────────────── GetCurrentUser ──────────────────────

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.MeResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := &dto.MeResponse{UserResponse: dto.NewUserResponse(user)}
	if user.LastSignedInAt != nil {
		resp.LastSignedInAt = user.LastSignedInAt.Format(time.RFC3339)
	}

	student, err := s.repo.Student.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		sr := dto.NewStudentResponse(student)
		resp.Student = &sr
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 未建档（如管理员）
	default:
		s.logger.Error("查询学生档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	return resp, nil
}

// ────────────────────── ProvisionUser ──────────────────────

func (s *authService) ProvisionUser(ctx context.Context, email, name, password string, admin bool) (*dto.UserResponse, bool, error) {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return nil, false, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}

	role := model.RoleUser
	if admin {
		role = model.RoleAdmin
	}
	email = normalizeEmail(email)

	user, err := s.repo.User.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		user = &model.User{Email: email, Name: name, PasswordHash: string(hash), Role: role}
		if err := s.repo.User.Create(ctx, user); err != nil {
			s.logger.Error("创建用户失败", zap.String("email", email), zap.Error(err))
			return nil, false, err
		}
		resp := dto.NewUserResponse(user)
		return &resp, true, nil
	case err != nil:
		s.logger.Error("查询用户失败", zap.String("email", email), zap.Error(err))
		return nil, false, err
	}

	if name != "" {
		user.Name = name
	}
	user.PasswordHash = string(hash)
	user.Role = role
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.String("email", email), zap.Error(err))
		return nil, false, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, false, nil
}

// ── 内部辅助方法 ──

func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         dto.NewUserResponse(user),
		RefreshTTL:   int(s.jwtMgr.RefreshTokenTTL(rememberMe).Seconds()),
	}, nil
}

// revoke 写入黑名单；Redis 不可用时只记录日志
func (s *authService) revoke(ctx context.Context, jti string, ttl time.Duration) {
	if s.blacklist == nil || jti == "" {
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Warn("写入 Token 黑名单失败", zap.String("jti", jti), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
