package dto

import "student-records/backend/internal/model"

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email      string `json:"email"    binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"` // 非 Cookie 模式时使用
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`

	// RefreshTTL 供 handler 设置 Cookie 有效期，不序列化
	RefreshTTL int `json:"-"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// MeResponse 当前用户信息（GET /auth/me），已建档时附带学生档案
type MeResponse struct {
	UserResponse
	LastSignedInAt string           `json:"last_signed_in_at,omitempty"`
	Student        *StudentResponse `json:"student,omitempty"`
}

// NewUserResponse 模型转换为脱敏的用户响应
func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:    u.UserID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}
