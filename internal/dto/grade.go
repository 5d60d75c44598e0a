package dto

import (
	"student-records/backend/internal/gpa"
	"student-records/backend/internal/model"
)

// ── 成绩 / GPA / 成绩单 DTO ──

// SetGradeRequest 录入成绩请求，学生与课程由选课记录推导
// Grade 为指针以区分 0 分与缺省
type SetGradeRequest struct {
	EnrollmentID string `json:"enrollment_id" binding:"required,uuid"`
	Grade        *int   `json:"grade"         binding:"required,min=0,max=100"`
}

// GradeResponse 成绩响应
type GradeResponse struct {
	ID           string  `json:"id"`
	EnrollmentID string  `json:"enrollment_id"`
	CourseID     string  `json:"course_id"`
	CourseCode   string  `json:"course_code,omitempty"`
	CourseName   string  `json:"course_name,omitempty"`
	Credits      int     `json:"credits,omitempty"`
	Grade        int     `json:"grade"`
	GPAScale     *string `json:"gpa_scale,omitempty"`
}

// NewGradeResponse 由成绩模型转换
func NewGradeResponse(g *model.Grade) GradeResponse {
	return GradeResponse{
		ID:           g.GradeID,
		EnrollmentID: g.EnrollmentID,
		CourseID:     g.CourseID,
		Grade:        g.Grade,
		GPAScale:     g.GPAScale,
	}
}

// NewGradeRowResponse 由联表行转换
func NewGradeRowResponse(r *model.GradeRow) GradeResponse {
	return GradeResponse{
		ID:           r.GradeID,
		EnrollmentID: r.EnrollmentID,
		CourseID:     r.CourseID,
		CourseCode:   r.CourseCode,
		CourseName:   r.CourseName,
		Credits:      r.Credits,
		Grade:        r.Grade,
		GPAScale:     r.GPAScale,
	}
}

// GPAResponse GPA 计算结果；GPA 以两位小数文本输出，避免浮点误差
type GPAResponse struct {
	GPA               string `json:"gpa"`
	StudentType       string `json:"student_type"`
	CourseCount       int    `json:"course_count"`
	TotalCredits      int    `json:"total_credits"`
	CalculationMethod string `json:"calculation_method"`
}

// NewGPAResponse 由引擎结果转换
func NewGPAResponse(r gpa.Result) GPAResponse {
	return GPAResponse{
		GPA:               r.GPA.StringFixed(2),
		StudentType:       r.Category.String(),
		CourseCount:       r.CourseCount,
		TotalCredits:      r.TotalCredits,
		CalculationMethod: r.Method(),
	}
}

// TranscriptStudent 成绩单中的学生信息
type TranscriptStudent struct {
	ID             string `json:"id"`
	StudentNumber  string `json:"student_number"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	Major          string `json:"major,omitempty"`
	EnrollmentYear int    `json:"enrollment_year"`
}

// TranscriptCourse 成绩单中的单门课程，gpa_scale 为本门课程的绩点
type TranscriptCourse struct {
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	Credits    int    `json:"credits"`
	Grade      int    `json:"grade"`
	GPAScale   string `json:"gpa_scale"`
}

// TranscriptResponse 成绩单响应
type TranscriptResponse struct {
	Student           TranscriptStudent  `json:"student"`
	Courses           []TranscriptCourse `json:"courses"`
	GPA               string             `json:"gpa"`
	TotalCredits      int                `json:"total_credits"`
	CalculationMethod string             `json:"calculation_method"`
}

// NewTranscriptResponse 由组装好的成绩单转换，courses 始终为数组
func NewTranscriptResponse(t *gpa.Transcript) TranscriptResponse {
	courses := make([]TranscriptCourse, 0, len(t.Courses))
	for _, c := range t.Courses {
		courses = append(courses, TranscriptCourse{
			CourseCode: c.CourseCode,
			CourseName: c.CourseName,
			Credits:    c.Credits,
			Grade:      c.Grade,
			GPAScale:   c.ScaleLabel(),
		})
	}
	return TranscriptResponse{
		Student: TranscriptStudent{
			ID:             t.Student.ID,
			StudentNumber:  t.Student.StudentNumber,
			Name:           t.Student.Name,
			Type:           t.Student.Category.String(),
			Major:          t.Student.Major,
			EnrollmentYear: t.Student.EnrollmentYear,
		},
		Courses:           courses,
		GPA:               t.GPA.StringFixed(2),
		TotalCredits:      t.TotalCredits,
		CalculationMethod: t.CalculationMethod,
	}
}
