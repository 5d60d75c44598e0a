package dto

import "student-records/backend/internal/model"

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	CourseCode  string  `json:"course_code" binding:"required,min=1,max=50"`
	CourseName  string  `json:"course_name" binding:"required,min=1,max=255"`
	Credits     int     `json:"credits"     binding:"required,min=1,max=30"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// UpdateCourseRequest 更新课程请求
type UpdateCourseRequest struct {
	CourseCode  *string `json:"course_code" binding:"omitempty,min=1,max=50"`
	CourseName  *string `json:"course_name" binding:"omitempty,min=1,max=255"`
	Credits     *int    `json:"credits"     binding:"omitempty,min=1,max=30"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// CourseListRequest 课程列表查询参数
type CourseListRequest struct {
	PaginationRequest
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// CourseResponse 课程信息响应
type CourseResponse struct {
	ID          string  `json:"id"`
	CourseCode  string  `json:"course_code"`
	CourseName  string  `json:"course_name"`
	Credits     int     `json:"credits"`
	Description *string `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// NewCourseResponse 模型转换为响应
func NewCourseResponse(c *model.Course) CourseResponse {
	return CourseResponse{
		ID:          c.CourseID,
		CourseCode:  c.CourseCode,
		CourseName:  c.CourseName,
		Credits:     c.Credits,
		Description: c.Description,
		CreatedAt:   c.CreatedAt.Format(timeLayout),
		UpdatedAt:   c.UpdatedAt.Format(timeLayout),
	}
}
