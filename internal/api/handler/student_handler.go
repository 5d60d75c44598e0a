package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"student-records/backend/internal/dto"
	"student-records/backend/internal/gpa"
	"student-records/backend/internal/service"
	"student-records/backend/pkg/response"
)

// StudentHandler 学生档案模块 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// GetMine 获取本人学生档案
// GET /api/v1/students/me
func (h *StudentHandler) GetMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.GetMine(c.Request.Context(), userID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// ListStudents 学生列表（管理员）
// GET /api/v1/students
func (h *StudentHandler) ListStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if !bindQuery(c, &req) {
		return
	}

	students, total, err := h.studentSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OKPage(c, students, total, req.GetPage(), req.GetPageSize())
}

// GetStudent 获取学生档案详情（管理员或本人）
// GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.Get(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// CreateStudent 建立学生档案（管理员）
// POST /api/v1/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.Created(c, student)
}

// UpdateStudent 更新学生档案（管理员或本人；本人不能修改类别）
// PUT /api/v1/students/:id
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	var req dto.UpdateStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.Update(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// DeleteStudent 删除学生档案（管理员），选课与成绩级联删除
// DELETE /api/v1/students/:id
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	if err := h.studentSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	if handleStudentAccessError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrStudentNumberExists):
		response.Conflict(c, 12002, "学号已存在")
	case errors.Is(err, service.ErrStudentVersionConflict):
		response.Conflict(c, 12004, "学生档案已被修改，请刷新后重试")
	case errors.Is(err, service.ErrStudentProfileExists):
		response.Conflict(c, 12005, "该用户已有学生档案")
	case errors.Is(err, service.ErrStudentTypeImmutable):
		response.Forbidden(c, 12007, "学生类别建立后不可修改")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11003, "用户不存在")
	case errors.Is(err, gpa.ErrUnknownCategory):
		response.BadRequest(c, 15003, "未知的学生类别")
	default:
		response.InternalError(c)
	}
}
