package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"student-records/backend/internal/dto"
	"student-records/backend/internal/gpa"
	"student-records/backend/internal/service"
	"student-records/backend/pkg/response"
)

// GradeHandler 成绩 / GPA / 成绩单 HTTP 处理器
type GradeHandler struct {
	gradeSvc service.GradeService
}

// NewGradeHandler 创建 GradeHandler
func NewGradeHandler(gradeSvc service.GradeService) *GradeHandler {
	return &GradeHandler{gradeSvc: gradeSvc}
}

// SetGrade 录入或覆盖成绩（管理员）
// PUT /api/v1/grades
func (h *GradeHandler) SetGrade(c *gin.Context) {
	var req dto.SetGradeRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	grade, err := h.gradeSvc.SetGrade(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleGradeError(c, err)
		return
	}

	response.OK(c, grade)
}

// ListGrades 学生成绩列表
// GET /api/v1/students/:id/grades
func (h *GradeHandler) ListGrades(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	grades, err := h.gradeSvc.ListGrades(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleGradeError(c, err)
		return
	}

	response.OK(c, gin.H{"list": grades})
}

// GetGPA 按学生类别计算 GPA，每次请求实时计算
// GET /api/v1/students/:id/gpa
func (h *GradeHandler) GetGPA(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.gradeSvc.CalculateGPA(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleGradeError(c, err)
		return
	}

	response.OK(c, result)
}

// GetTranscript 成绩单
// GET /api/v1/students/:id/transcript
func (h *GradeHandler) GetTranscript(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	transcript, err := h.gradeSvc.Transcript(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleGradeError(c, err)
		return
	}

	response.OK(c, transcript)
}

func (h *GradeHandler) handleGradeError(c *gin.Context, err error) {
	if handleStudentAccessError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 14001, "选课记录不存在")
	case errors.Is(err, gpa.ErrInvalidGradeInput):
		response.UnprocessableEntity(c, 15002, "成绩或学分不在有效范围内")
	case errors.Is(err, gpa.ErrUnknownCategory):
		response.UnprocessableEntity(c, 15003, "未知的学生类别")
	default:
		response.InternalError(c)
	}
}
