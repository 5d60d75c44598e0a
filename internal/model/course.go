package model

// Course 课程表 — 对应 courses
type Course struct {
	CourseID    string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	CourseCode  string  `gorm:"type:varchar(50);not null;uniqueIndex"          json:"course_code"`
	CourseName  string  `gorm:"type:varchar(255);not null"                     json:"course_name"`
	Credits     int     `gorm:"not null"                                       json:"credits"`
	Description *string `gorm:"type:text"                                      json:"description,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
