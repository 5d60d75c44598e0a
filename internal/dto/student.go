package dto

import "student-records/backend/internal/model"

// ── 学生模块 DTO ──

// CreateStudentRequest 建立学生档案请求
type CreateStudentRequest struct {
	UserID         string  `json:"user_id"         binding:"required,uuid"`
	StudentNumber  string  `json:"student_number"  binding:"required,min=1,max=50"`
	Type           string  `json:"type"            binding:"required,student_category"`
	EnrollmentYear int     `json:"enrollment_year" binding:"required,min=1900,max=2200"`
	Major          *string `json:"major"           binding:"omitempty,max=255"`
}

// UpdateStudentRequest 更新学生档案请求，Version 用于乐观锁
type UpdateStudentRequest struct {
	StudentNumber  *string `json:"student_number"  binding:"omitempty,min=1,max=50"`
	Type           *string `json:"type"            binding:"omitempty,student_category"`
	EnrollmentYear *int    `json:"enrollment_year" binding:"omitempty,min=1900,max=2200"`
	Major          *string `json:"major"           binding:"omitempty,max=255"`
	Version        *int    `json:"version"         binding:"omitempty,min=1"`
}

// StudentListRequest 学生列表查询参数
type StudentListRequest struct {
	PaginationRequest
	Type    string `form:"type"    binding:"omitempty,student_category"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// StudentResponse 学生档案响应
type StudentResponse struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	Name           string  `json:"name,omitempty"`
	Email          string  `json:"email,omitempty"`
	StudentNumber  string  `json:"student_number"`
	Type           string  `json:"type"`
	EnrollmentYear int     `json:"enrollment_year"`
	Major          *string `json:"major,omitempty"`
	Version        int     `json:"version"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// NewStudentResponse 模型转换为响应，User 已预加载时带出姓名与邮箱
func NewStudentResponse(s *model.Student) StudentResponse {
	resp := StudentResponse{
		ID:             s.StudentID,
		UserID:         s.UserID,
		StudentNumber:  s.StudentNumber,
		Type:           s.Type,
		EnrollmentYear: s.EnrollmentYear,
		Major:          s.Major,
		Version:        s.Version,
		CreatedAt:      s.CreatedAt.Format(timeLayout),
		UpdatedAt:      s.UpdatedAt.Format(timeLayout),
	}
	if s.User != nil {
		resp.Name = s.User.Name
		resp.Email = s.User.Email
	}
	return resp
}
