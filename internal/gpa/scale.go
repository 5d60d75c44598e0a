package gpa

import "github.com/shopspring/decimal"

// band 百分制下限（含）与对应的 4.0 制绩点
type band struct {
	min    int
	points int64
}

// scale 百分制 → 4.0 制换算表，按下限从高到低排列，区间互不重叠
var scale = [...]band{
	{min: 90, points: 4},
	{min: 80, points: 3},
	{min: 70, points: 2},
	{min: 60, points: 1},
}

// MinGrade / MaxGrade 百分制成绩合法范围
const (
	MinGrade = 0
	MaxGrade = 100
)

// points 返回百分制成绩对应的整数绩点；60 分以下为 0
func points(percentage int) int64 {
	for _, b := range scale {
		if percentage >= b.min {
			return b.points
		}
	}
	return 0
}

// PercentageToGPA 百分制成绩换算为 4.0 制绩点（阶梯函数，无插值）。
// 不对 0–100 以外的输入做截断，调用方负责先校验范围。
func PercentageToGPA(percentage int) decimal.Decimal {
	return decimal.NewFromInt(points(percentage))
}

// ScaleLabel 单门课程绩点的展示文本，保留两位小数（如 "3.00"）
func ScaleLabel(percentage int) string {
	return PercentageToGPA(percentage).StringFixed(2)
}

// Breakpoints 返回换算表的各档下限（从高到低）
func Breakpoints() []int {
	mins := make([]int, 0, len(scale))
	for _, b := range scale {
		mins = append(mins, b.min)
	}
	return mins
}
