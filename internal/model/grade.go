package model

// Grade 成绩表 — 对应 grades，每个选课记录至多一条
type Grade struct {
	GradeID      string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"grade_id"`
	EnrollmentID string  `gorm:"type:uuid;not null;uniqueIndex"                 json:"enrollment_id"`
	StudentID    string  `gorm:"type:uuid;not null"                             json:"student_id"`
	CourseID     string  `gorm:"type:uuid;not null"                             json:"course_id"`
	Grade        int     `gorm:"not null"                                       json:"grade"`
	GPAScale     *string `gorm:"column:gpa_scale;type:varchar(10)"              json:"gpa_scale,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Grade) TableName() string { return "grades" }

// GradeRow 成绩与课程的联表查询结果
type GradeRow struct {
	GradeID      string  `json:"grade_id"`
	EnrollmentID string  `json:"enrollment_id"`
	CourseID     string  `json:"course_id"`
	CourseCode   string  `json:"course_code"`
	CourseName   string  `json:"course_name"`
	Credits      int     `json:"credits"`
	Grade        int     `json:"grade"`
	GPAScale     *string `gorm:"column:gpa_scale" json:"gpa_scale,omitempty"`
}
