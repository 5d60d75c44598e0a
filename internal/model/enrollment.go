package model

import "time"

// Enrollment 选课记录表 — 对应 enrollments
type Enrollment struct {
	EnrollmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_id"`
	StudentID    string    `gorm:"type:uuid;not null"                             json:"student_id"`
	CourseID     string    `gorm:"type:uuid;not null"                             json:"course_id"`
	EnrolledAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"enrolled_at"`
	BaseModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
	Grade  *Grade  `gorm:"foreignKey:EnrollmentID;references:EnrollmentID" json:"grade,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }
