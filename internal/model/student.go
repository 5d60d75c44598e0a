package model

import "student-records/backend/internal/gpa"

// Student 学生档案表 — 对应 students
// Type 为数据库中的类别文本，进入计算前经 gpa.ParseCategory 解析
type Student struct {
	StudentID      string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	UserID         string  `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	StudentNumber  string  `gorm:"type:varchar(50);not null;uniqueIndex"          json:"student_number"`
	Type           string  `gorm:"type:varchar(20);not null"                      json:"type"`
	EnrollmentYear int     `gorm:"not null"                                       json:"enrollment_year"`
	Major          *string `gorm:"type:varchar(255)"                              json:"major,omitempty"`
	VersionedModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// Category 解析学生类别
func (s *Student) Category() (gpa.Category, error) {
	return gpa.ParseCategory(s.Type)
}
