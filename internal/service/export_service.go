package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"student-records/backend/internal/gpa"
	"student-records/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

const transcriptSheet = "成绩单"

// ExportService 导出业务接口
// 导出以 bytes.Buffer 返回，由 Handler 层设置下载响应头
type ExportService interface {
	// ExportTranscript 导出成绩单为 Excel，返回内容与建议文件名
	ExportTranscript(ctx context.Context, studentID string, caller Caller) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportTranscript — 导出成绩单为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式（单个 Sheet "成绩单"）：
//   - 第 1 行：标题
//   - 第 2-8 行：学号 / 姓名 / 类别 / 专业 / 入学年份 / 计算方式 / GPA / 总学分
//   - 空一行后为课程表头与每门课程一行，按课程代码排序

func (s *exportService) ExportTranscript(ctx context.Context, studentID string, caller Caller) (*bytes.Buffer, string, error) {
	student, err := loadStudentFor(ctx, s.repo, s.logger, studentID, caller)
	if err != nil {
		return nil, "", err
	}

	transcript, err := assembleTranscript(ctx, s.repo, s.logger, student)
	if err != nil {
		return nil, "", err
	}

	buf, err := renderTranscript(transcript)
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("成绩单_%s.xlsx", transcript.Student.StudentNumber)
	return buf, filename, nil
}

func renderTranscript(t *gpa.Transcript) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transcriptSheet); err != nil {
		return nil, err
	}

	f.SetColWidth(transcriptSheet, "A", "A", 14)
	f.SetColWidth(transcriptSheet, "B", "B", 28)
	f.SetColWidth(transcriptSheet, "C", "E", 10)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	// 标题行
	f.SetCellValue(transcriptSheet, "A1", "学生成绩单")
	f.MergeCell(transcriptSheet, "A1", "E1")
	f.SetCellStyle(transcriptSheet, "A1", "E1", headerStyle)

	// 学生信息与汇总
	info := [][2]interface{}{
		{"学号", t.Student.StudentNumber},
		{"姓名", t.Student.Name},
		{"学生类别", t.Student.Category.String()},
		{"专业", t.Student.Major},
		{"入学年份", t.Student.EnrollmentYear},
		{"计算方式", t.CalculationMethod},
		{"GPA", t.GPA.StringFixed(2)},
		{"总学分", t.TotalCredits},
	}
	row := 2
	for _, kv := range info {
		f.SetCellValue(transcriptSheet, cell("A", row), kv[0])
		f.SetCellValue(transcriptSheet, cell("B", row), kv[1])
		f.SetCellStyle(transcriptSheet, cell("A", row), cell("A", row), labelStyle)
		row++
	}

	// 课程明细
	row++
	for i, h := range []string{"课程代码", "课程名称", "学分", "成绩", "绩点"} {
		f.SetCellValue(transcriptSheet, cell(colName(i), row), h)
	}
	f.SetCellStyle(transcriptSheet, cell("A", row), cell("E", row), headerStyle)
	row++

	for _, c := range t.Courses {
		f.SetCellValue(transcriptSheet, cell("A", row), c.CourseCode)
		f.SetCellValue(transcriptSheet, cell("B", row), c.CourseName)
		f.SetCellValue(transcriptSheet, cell("C", row), c.Credits)
		f.SetCellValue(transcriptSheet, cell("D", row), c.Grade)
		f.SetCellValue(transcriptSheet, cell("E", row), c.ScaleLabel())
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
