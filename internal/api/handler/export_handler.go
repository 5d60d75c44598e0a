package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"student-records/backend/internal/gpa"
	"student-records/backend/internal/service"
	"student-records/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportTranscript 导出成绩单 Excel
// GET /api/v1/students/:id/transcript/export
func (h *ExportHandler) ExportTranscript(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportTranscript(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	response.Attachment(c, filename, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if handleStudentAccessError(c, err) {
		return
	}
	switch {
	case errors.Is(err, gpa.ErrInvalidGradeInput), errors.Is(err, gpa.ErrUnknownCategory):
		response.UnprocessableEntity(c, 15002, "成绩数据无效，无法生成成绩单")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 16001, "生成 Excel 文件失败")
	default:
		response.InternalError(c)
	}
}
