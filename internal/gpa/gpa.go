// Package gpa 百分制成绩与 4.0 制绩点换算、按学生类别聚合 GPA，以及成绩单组装。
// 包内均为无状态纯函数，可并发调用。
package gpa

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CourseGrade 单门课程的计算输入：百分制成绩 + 学分
type CourseGrade struct {
	Grade   int `json:"grade"`
	Credits int `json:"credits"`
}

// Result 一次 GPA 计算的结果，每次请求重新生成，不缓存
type Result struct {
	GPA          decimal.Decimal `json:"gpa"`
	Category     Category        `json:"student_type"`
	CourseCount  int             `json:"course_count"`
	TotalCredits int             `json:"total_credits"`
}

// Method 本次结果采用的计算方式说明
func (r Result) Method() string {
	return r.Category.Method()
}

// roundRatio 计算 num/den 并四舍五入（half-up）到两位小数。
// 以整数商余判断进位，不经过浮点数；den <= 0 时返回 0。
func roundRatio(num, den int64) decimal.Decimal {
	if den <= 0 {
		return decimal.Zero
	}
	d := decimal.NewFromInt(den)
	q, r := decimal.NewFromInt(num).Shift(2).QuoRem(d, 0)
	if r.Add(r).GreaterThanOrEqual(d) {
		q = q.Add(decimal.NewFromInt(1))
	}
	return q.Shift(-2)
}

// EngineeringGPA 工科 GPA：各课程绩点的简单平均，忽略学分。
// 空输入返回 0。
func EngineeringGPA(grades []CourseGrade) decimal.Decimal {
	if len(grades) == 0 {
		return decimal.Zero
	}
	var sum int64
	for _, g := range grades {
		sum += points(g.Grade)
	}
	return roundRatio(sum, int64(len(grades)))
}

// ManagementGPA 管理类 GPA：Σ(绩点×学分) / Σ学分。
// 空输入或总学分为 0 时返回 0。
func ManagementGPA(grades []CourseGrade) decimal.Decimal {
	if len(grades) == 0 {
		return decimal.Zero
	}
	var weighted, credits int64
	for _, g := range grades {
		weighted += points(g.Grade) * int64(g.Credits)
		credits += int64(g.Credits)
	}
	return roundRatio(weighted, credits)
}

// StudentGPA 按学生类别分发到对应的计算方式
func StudentGPA(category Category, grades []CourseGrade) decimal.Decimal {
	return strategyOf(category).aggregate(grades)
}

// Validate 校验输入是否在定义域内，返回第一个越界项的错误
func Validate(grades []CourseGrade) error {
	for i, g := range grades {
		if g.Grade < MinGrade || g.Grade > MaxGrade {
			return fmt.Errorf("%w: 第 %d 项成绩 %d 不在 %d-%d 之间", ErrInvalidGradeInput, i+1, g.Grade, MinGrade, MaxGrade)
		}
		if g.Credits < 1 {
			return fmt.Errorf("%w: 第 %d 项学分 %d 小于 1", ErrInvalidGradeInput, i+1, g.Credits)
		}
	}
	return nil
}

// Calculate 校验输入后计算 GPA，并附带课程数与总学分
func Calculate(category Category, grades []CourseGrade) (Result, error) {
	if !category.Valid() {
		return Result{}, fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(category))
	}
	if err := Validate(grades); err != nil {
		return Result{}, err
	}
	return Result{
		GPA:          StudentGPA(category, grades),
		Category:     category,
		CourseCount:  len(grades),
		TotalCredits: totalCredits(grades),
	}, nil
}

func totalCredits(grades []CourseGrade) int {
	total := 0
	for _, g := range grades {
		total += g.Credits
	}
	return total
}
