package model

import "time"

// 用户角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 用户表 — 对应 users
type User struct {
	UserID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email          string     `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Name           string     `gorm:"type:varchar(100);not null"                     json:"name"`
	PasswordHash   string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Role           string     `gorm:"type:varchar(20);not null;default:'user'"       json:"role"`
	LastSignedInAt *time.Time `gorm:""                                               json:"last_signed_in_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
