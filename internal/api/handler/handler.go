package handler

import (
	"student-records/backend/config"
	"student-records/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Student    *StudentHandler
	Course     *CourseHandler
	Enrollment *EnrollmentHandler
	Grade      *GradeHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, &cfg.Auth.Cookie),
		Student:    NewStudentHandler(svc.Student),
		Course:     NewCourseHandler(svc.Course),
		Enrollment: NewEnrollmentHandler(svc.Enrollment),
		Grade:      NewGradeHandler(svc.Grade),
		Export:     NewExportHandler(svc.Export),
	}
}
