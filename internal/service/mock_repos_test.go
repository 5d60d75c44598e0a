package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"student-records/backend/internal/model"
	"student-records/backend/internal/repository"
	pkgerrors "student-records/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) TouchLastSignedIn(_ context.Context, id string, at time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastSignedInAt = &at
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
	users    *mockUserRepo
}

func newMockStudentRepo(users *mockUserRepo) *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student), users: users}
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	for _, s := range m.students {
		if s.StudentNumber == student.StudentNumber || s.UserID == student.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	if student.StudentID == "" {
		student.StudentID = fmt.Sprintf("stu-%d", len(m.students)+1)
	}
	if student.Version == 0 {
		student.Version = 1
	}
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) withUser(s *model.Student) *model.Student {
	cp := *s
	if u, ok := m.users.users[s.UserID]; ok {
		cp.User = u
	}
	return &cp
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return m.withUser(s), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByUserID(_ context.Context, userID string) (*model.Student, error) {
	for _, s := range m.students {
		if s.UserID == userID {
			return m.withUser(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByNumber(_ context.Context, number string) (*model.Student, error) {
	for _, s := range m.students {
		if s.StudentNumber == number {
			return m.withUser(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) List(_ context.Context, filter repository.StudentFilter) ([]model.Student, int64, error) {
	var result []model.Student
	for _, s := range m.students {
		if filter.Type != "" && s.Type != filter.Type {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(s.StudentNumber, filter.Keyword) {
			continue
		}
		result = append(result, *m.withUser(s))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentNumber < result[j].StudentNumber })

	total := int64(len(result))
	if filter.Offset >= len(result) {
		return []model.Student{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > len(result) {
		end = len(result)
	}
	return result[filter.Offset:end], total, nil
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	stored, ok := m.students[student.StudentID]
	if !ok || stored.Version != student.Version {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *student
	cp.User = nil
	cp.Version++
	m.students[student.StudentID] = &cp
	student.Version = cp.Version
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.students[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.students, id)
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	for _, c := range m.courses {
		if c.CourseCode == course.CourseCode {
			return gorm.ErrDuplicatedKey
		}
	}
	if course.CourseID == "" {
		course.CourseID = "course-" + course.CourseCode
	}
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	for _, c := range m.courses {
		if c.CourseCode == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context, keyword string, offset, limit int) ([]model.Course, int64, error) {
	var result []model.Course
	for _, c := range m.courses {
		if keyword == "" || strings.Contains(c.CourseCode, keyword) || strings.Contains(c.CourseName, keyword) {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CourseCode < result[j].CourseCode })
	return result, int64(len(result)), nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.courses, id)
	return nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct {
	enrollments map[string]*model.Enrollment
	courses     *mockCourseRepo
}

func newMockEnrollmentRepo(courses *mockCourseRepo) *mockEnrollmentRepo {
	return &mockEnrollmentRepo{enrollments: make(map[string]*model.Enrollment), courses: courses}
}

func (m *mockEnrollmentRepo) Create(_ context.Context, e *model.Enrollment) error {
	for _, existing := range m.enrollments {
		if existing.StudentID == e.StudentID && existing.CourseID == e.CourseID {
			return gorm.ErrDuplicatedKey
		}
	}
	if e.EnrollmentID == "" {
		e.EnrollmentID = fmt.Sprintf("enr-%d", len(m.enrollments)+1)
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now()
	}
	m.enrollments[e.EnrollmentID] = e
	return nil
}

func (m *mockEnrollmentRepo) withCourse(e *model.Enrollment) *model.Enrollment {
	cp := *e
	if c, ok := m.courses.courses[e.CourseID]; ok {
		cp.Course = c
	}
	return &cp
}

func (m *mockEnrollmentRepo) GetByID(_ context.Context, id string) (*model.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return m.withCourse(e), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) GetByStudentAndCourse(_ context.Context, studentID, courseID string) (*model.Enrollment, error) {
	for _, e := range m.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return m.withCourse(e), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			result = append(result, *m.withCourse(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CourseID < result[j].CourseID })
	return result, nil
}

func (m *mockEnrollmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.enrollments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.enrollments, id)
	return nil
}

// ── Mock GradeRepository ──

type mockGradeRepo struct {
	grades  map[string]*model.Grade // key: enrollment_id
	courses *mockCourseRepo
}

func newMockGradeRepo(courses *mockCourseRepo) *mockGradeRepo {
	return &mockGradeRepo{grades: make(map[string]*model.Grade), courses: courses}
}

func (m *mockGradeRepo) Upsert(_ context.Context, g *model.Grade) error {
	if existing, ok := m.grades[g.EnrollmentID]; ok {
		g.GradeID = existing.GradeID
	} else if g.GradeID == "" {
		g.GradeID = "grade-" + g.EnrollmentID
	}
	m.grades[g.EnrollmentID] = g
	return nil
}

func (m *mockGradeRepo) GetByEnrollment(_ context.Context, enrollmentID string) (*model.Grade, error) {
	if g, ok := m.grades[enrollmentID]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGradeRepo) ListByStudent(_ context.Context, studentID string) ([]model.GradeRow, error) {
	var rows []model.GradeRow
	for _, g := range m.grades {
		if g.StudentID != studentID {
			continue
		}
		c := m.courses.courses[g.CourseID]
		rows = append(rows, model.GradeRow{
			GradeID:      g.GradeID,
			EnrollmentID: g.EnrollmentID,
			CourseID:     g.CourseID,
			CourseCode:   c.CourseCode,
			CourseName:   c.CourseName,
			Credits:      c.Credits,
			Grade:        g.Grade,
			GPAScale:     g.GPAScale,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CourseCode < rows[j].CourseCode })
	return rows, nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	entries map[string]time.Duration
	err     error
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{entries: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	if ttl > 0 {
		m.entries[jti] = ttl
	}
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.entries[jti]
	return ok, nil
}

// ── 测试仓储聚合 ──

type mockRepos struct {
	users       *mockUserRepo
	students    *mockStudentRepo
	courses     *mockCourseRepo
	enrollments *mockEnrollmentRepo
	grades      *mockGradeRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	users := newMockUserRepo()
	courses := newMockCourseRepo()
	m := &mockRepos{
		users:       users,
		students:    newMockStudentRepo(users),
		courses:     courses,
		enrollments: newMockEnrollmentRepo(courses),
		grades:      newMockGradeRepo(courses),
	}
	repo := &repository.Repository{
		User:       m.users,
		Student:    m.students,
		Course:     m.courses,
		Enrollment: m.enrollments,
		Grade:      m.grades,
	}
	return repo, m
}

// seedStudent 写入一个用户及其学生档案
func (m *mockRepos) seedStudent(id, userID, number, category string) *model.Student {
	m.users.users[userID] = &model.User{UserID: userID, Name: "学生" + number, Email: userID + "@edu.cn", Role: model.RoleUser}
	s := &model.Student{StudentID: id, UserID: userID, StudentNumber: number, Type: category, EnrollmentYear: 2024}
	s.Version = 1
	m.students.students[id] = s
	return s
}

func (m *mockRepos) seedCourse(code, name string, credits int) *model.Course {
	c := &model.Course{CourseID: "course-" + code, CourseCode: code, CourseName: name, Credits: credits}
	m.courses.courses[c.CourseID] = c
	return c
}

// seedGrade 写入选课记录与成绩，label 为 nil 时不保存绩点文本
func (m *mockRepos) seedGrade(studentID string, course *model.Course, grade int, label *string) *model.Enrollment {
	e := &model.Enrollment{
		EnrollmentID: "enr-" + studentID + "-" + course.CourseCode,
		StudentID:    studentID,
		CourseID:     course.CourseID,
		EnrolledAt:   time.Now(),
	}
	m.enrollments.enrollments[e.EnrollmentID] = e
	m.grades.grades[e.EnrollmentID] = &model.Grade{
		GradeID:      "grade-" + e.EnrollmentID,
		EnrollmentID: e.EnrollmentID,
		StudentID:    studentID,
		CourseID:     course.CourseID,
		Grade:        grade,
		GPAScale:     label,
	}
	return e
}

var (
	adminCaller = Caller{UserID: "admin-001", Role: model.RoleAdmin}
)

func studentCaller(userID string) Caller {
	return Caller{UserID: userID, Role: model.RoleUser}
}
