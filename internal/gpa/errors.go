package gpa

import "errors"

var (
	// ErrInvalidGradeInput 成绩或学分超出定义域（成绩 0–100，学分 ≥ 1）
	ErrInvalidGradeInput = errors.New("成绩输入无效")
	// ErrUnknownCategory 无法识别的学生类别
	ErrUnknownCategory = errors.New("未知的学生类别")
)
