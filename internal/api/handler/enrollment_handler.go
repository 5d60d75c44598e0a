package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"student-records/backend/internal/dto"
	"student-records/backend/internal/service"
	"student-records/backend/pkg/response"
)

// EnrollmentHandler 选课模块 HTTP 处理器
type EnrollmentHandler struct {
	enrollmentSvc service.EnrollmentService
}

// NewEnrollmentHandler 创建 EnrollmentHandler
func NewEnrollmentHandler(enrollmentSvc service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentSvc: enrollmentSvc}
}

// ListByStudent 学生的选课记录
// GET /api/v1/students/:id/enrollments
func (h *EnrollmentHandler) ListByStudent(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.enrollmentSvc.ListByStudent(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Enroll 选课（管理员或本人）
// POST /api/v1/enrollments
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req dto.EnrollRequest
	if !bindJSON(c, &req) {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollmentSvc.Enroll(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.Created(c, enrollment)
}

// Unenroll 退课（管理员或本人），已录入的成绩一并删除
// DELETE /api/v1/enrollments/:id
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.enrollmentSvc.Unenroll(c.Request.Context(), c.Param("id"), caller); err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *EnrollmentHandler) handleEnrollmentError(c *gin.Context, err error) {
	if handleStudentAccessError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 14001, "选课记录不存在")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		response.Conflict(c, 14002, "已选修该课程")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 13001, "课程不存在")
	default:
		response.InternalError(c)
	}
}
