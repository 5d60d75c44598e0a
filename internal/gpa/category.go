package gpa

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category 学生类别（封闭枚举）：决定 GPA 的聚合方式
type Category uint8

const (
	// Engineering 工科：各课程 GPA 简单平均，与学分无关
	Engineering Category = iota + 1
	// Management 管理类：按学分加权平均
	Management
)

// AllCategories 全部合法类别，按声明顺序
func AllCategories() []Category {
	return []Category{Engineering, Management}
}

// strategy 类别对应的聚合函数与计算方式说明。
// 说明文案与聚合函数放在同一条目上，二者只能一起变更。
type strategy struct {
	name      string
	method    string
	aggregate func([]CourseGrade) decimal.Decimal
}

// strategyOf 穷举分发；出现未知类别属于编程错误
func strategyOf(c Category) strategy {
	switch c {
	case Engineering:
		return strategy{name: "engineering", method: "Simple Average", aggregate: EngineeringGPA}
	case Management:
		return strategy{name: "management", method: "Credit-Weighted Average", aggregate: ManagementGPA}
	}
	panic(fmt.Sprintf("gpa: 未知的学生类别 %d", uint8(c)))
}

// ParseCategory 将存储/请求中的字符串解析为类别，大小写不敏感
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "engineering":
		return Engineering, nil
	case "management":
		return Management, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// String 返回类别的存储值（engineering / management）
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
	return strategyOf(c).name
}

// Valid 是否为合法类别（零值非法）
func (c Category) Valid() bool {
	return c == Engineering || c == Management
}

// Method 计算方式的可读说明，非法类别返回空串
func (c Category) Method() string {
	if !c.Valid() {
		return ""
	}
	return strategyOf(c).method
}

// MarshalText 实现 encoding.TextMarshaler
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
