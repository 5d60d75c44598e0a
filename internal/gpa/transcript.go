package gpa

import "github.com/shopspring/decimal"

// StudentInfo 成绩单中的学生身份信息
type StudentInfo struct {
	ID             string
	StudentNumber  string
	Name           string
	Category       Category
	Major          string
	EnrollmentYear int
}

// TranscriptRow 存储层提供的一行：课程信息 + 该课程的百分制成绩
type TranscriptRow struct {
	CourseCode    string
	CourseName    string
	Credits       int
	Grade         int
	GPAScaleLabel *string // 录入成绩时保存的绩点文本，可能为空
}

// TranscriptCourse 成绩单中的单门课程
type TranscriptCourse struct {
	CourseCode string
	CourseName string
	Credits    int
	Grade      int
	// GPAScale 由本门课程自身的百分制成绩换算得到，而非总 GPA
	GPAScale decimal.Decimal
	// StoredScaleLabel 存储层保存的绩点文本，仅用于比对
	StoredScaleLabel *string
}

// ScaleLabel 本门课程绩点的展示文本
func (c TranscriptCourse) ScaleLabel() string {
	return c.GPAScale.StringFixed(2)
}

// ScaleDrifted 存储的绩点文本与重新换算的结果不一致
func (c TranscriptCourse) ScaleDrifted() bool {
	return c.StoredScaleLabel != nil && *c.StoredScaleLabel != c.ScaleLabel()
}

// Transcript 组装完成的成绩单，构造后只读
type Transcript struct {
	Student           StudentInfo
	Courses           []TranscriptCourse
	GPA               decimal.Decimal
	TotalCredits      int
	CalculationMethod string
}

// BuildTranscript 将学生信息与课程成绩行组装为成绩单。
// 无任何成绩行时仍返回成绩单：Courses 为空切片，GPA 与总学分为 0。
func BuildTranscript(student StudentInfo, rows []TranscriptRow) (*Transcript, error) {
	grades := make([]CourseGrade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, CourseGrade{Grade: row.Grade, Credits: row.Credits})
	}

	result, err := Calculate(student.Category, grades)
	if err != nil {
		return nil, err
	}

	courses := make([]TranscriptCourse, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, TranscriptCourse{
			CourseCode:       row.CourseCode,
			CourseName:       row.CourseName,
			Credits:          row.Credits,
			Grade:            row.Grade,
			GPAScale:         PercentageToGPA(row.Grade),
			StoredScaleLabel: row.GPAScaleLabel,
		})
	}

	return &Transcript{
		Student:           student,
		Courses:           courses,
		GPA:               result.GPA,
		TotalCredits:      result.TotalCredits,
		CalculationMethod: result.Method(),
	}, nil
}
