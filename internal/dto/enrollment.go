package dto

import "student-records/backend/internal/model"

// ── 选课模块 DTO ──

// EnrollRequest 选课请求
type EnrollRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	CourseID  string `json:"course_id"  binding:"required,uuid"`
}

// EnrollmentResponse 选课记录响应，已录入成绩时附带成绩
type EnrollmentResponse struct {
	ID         string          `json:"id"`
	StudentID  string          `json:"student_id"`
	EnrolledAt string          `json:"enrolled_at"`
	Course     *CourseResponse `json:"course,omitempty"`
	Grade      *int            `json:"grade,omitempty"`
	GPAScale   *string         `json:"gpa_scale,omitempty"`
}

// NewEnrollmentResponse 模型转换为响应
func NewEnrollmentResponse(e *model.Enrollment) EnrollmentResponse {
	resp := EnrollmentResponse{
		ID:         e.EnrollmentID,
		StudentID:  e.StudentID,
		EnrolledAt: e.EnrolledAt.Format(timeLayout),
	}
	if e.Course != nil {
		c := NewCourseResponse(e.Course)
		resp.Course = &c
	}
	if e.Grade != nil {
		g := e.Grade.Grade
		resp.Grade = &g
		resp.GPAScale = e.Grade.GPAScale
	}
	return resp
}
