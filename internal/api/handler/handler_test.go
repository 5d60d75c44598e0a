package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"student-records/backend/internal/dto"
	"student-records/backend/internal/gpa"
	"student-records/backend/internal/service"
	"student-records/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	dto.RegisterValidators()
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult      *dto.TokenResponse
	loginErr         error
	refreshResult    *dto.TokenResponse
	refreshErr       error
	refreshToken     string
	logoutErr        error
	logoutJTI        string
	logoutRefresh    string
	getCurrentResult *dto.MeResponse
	getCurrentErr    error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) RefreshToken(_ context.Context, token string) (*dto.TokenResponse, error) {
	m.refreshToken = token
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time, refresh string) error {
	m.logoutJTI = jti
	m.logoutRefresh = refresh
	return m.logoutErr
}
func (m *mockAuthService) GetCurrentUser(_ context.Context, _ string) (*dto.MeResponse, error) {
	return m.getCurrentResult, m.getCurrentErr
}
func (m *mockAuthService) ProvisionUser(_ context.Context, _, _, _ string, _ bool) (*dto.UserResponse, bool, error) {
	return nil, false, nil
}

// ── Mock StudentService ──

type mockStudentService struct {
	result     *dto.StudentResponse
	list       []dto.StudentResponse
	total      int64
	err        error
	lastCaller service.Caller
}

func (m *mockStudentService) GetMine(_ context.Context, _ string) (*dto.StudentResponse, error) {
	return m.result, m.err
}
func (m *mockStudentService) List(_ context.Context, _ *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	return m.list, m.total, m.err
}
func (m *mockStudentService) Get(_ context.Context, _ string, caller service.Caller) (*dto.StudentResponse, error) {
	m.lastCaller = caller
	return m.result, m.err
}
func (m *mockStudentService) Create(_ context.Context, _ *dto.CreateStudentRequest, _ string) (*dto.StudentResponse, error) {
	return m.result, m.err
}
func (m *mockStudentService) Update(_ context.Context, _ string, _ *dto.UpdateStudentRequest, caller service.Caller) (*dto.StudentResponse, error) {
	m.lastCaller = caller
	return m.result, m.err
}
func (m *mockStudentService) Delete(_ context.Context, _ string) error {
	return m.err
}

// ── Mock CourseService ──

type mockCourseService struct {
	result *dto.CourseResponse
	list   []dto.CourseResponse
	total  int64
	err    error
}

func (m *mockCourseService) Create(_ context.Context, _ *dto.CreateCourseRequest, _ string) (*dto.CourseResponse, error) {
	return m.result, m.err
}
func (m *mockCourseService) GetByID(_ context.Context, _ string) (*dto.CourseResponse, error) {
	return m.result, m.err
}
func (m *mockCourseService) List(_ context.Context, _ *dto.CourseListRequest) ([]dto.CourseResponse, int64, error) {
	return m.list, m.total, m.err
}
func (m *mockCourseService) Update(_ context.Context, _ string, _ *dto.UpdateCourseRequest, _ string) (*dto.CourseResponse, error) {
	return m.result, m.err
}
func (m *mockCourseService) Delete(_ context.Context, _ string) error {
	return m.err
}

// ── Mock EnrollmentService ──

type mockEnrollmentService struct {
	result *dto.EnrollmentResponse
	list   []dto.EnrollmentResponse
	err    error
}

func (m *mockEnrollmentService) ListByStudent(_ context.Context, _ string, _ service.Caller) ([]dto.EnrollmentResponse, error) {
	return m.list, m.err
}
func (m *mockEnrollmentService) Enroll(_ context.Context, _ *dto.EnrollRequest, _ service.Caller) (*dto.EnrollmentResponse, error) {
	return m.result, m.err
}
func (m *mockEnrollmentService) Unenroll(_ context.Context, _ string, _ service.Caller) error {
	return m.err
}

// ── Mock GradeService ──

type mockGradeService struct {
	grade      *dto.GradeResponse
	grades     []dto.GradeResponse
	gpa        *dto.GPAResponse
	transcript *dto.TranscriptResponse
	err        error
}

func (m *mockGradeService) SetGrade(_ context.Context, _ *dto.SetGradeRequest, _ string) (*dto.GradeResponse, error) {
	return m.grade, m.err
}
func (m *mockGradeService) ListGrades(_ context.Context, _ string, _ service.Caller) ([]dto.GradeResponse, error) {
	return m.grades, m.err
}
func (m *mockGradeService) CalculateGPA(_ context.Context, _ string, _ service.Caller) (*dto.GPAResponse, error) {
	return m.gpa, m.err
}
func (m *mockGradeService) Transcript(_ context.Context, _ string, _ service.Caller) (*dto.TranscriptResponse, error) {
	return m.transcript, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportTranscript(_ context.Context, _ string, _ service.Caller) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

const testUUID = "5f0c7a1e-2b6d-4c8e-9a3f-1d2e3f4a5b6c"

func setAuth(c *gin.Context) {
	setAuthAs(c, "test-user-id", "admin")
}

func setAuthAs(c *gin.Context, userID, role string) {
	c.Set("user_id", userID)
	c.Set("role", role)
	c.Set("token_jti", "test-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// serve 注册单个路由并执行请求；auth 为 nil 时不注入认证信息
func serve(method, route, target string, body io.Reader, auth func(*gin.Context), h gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r := gin.New()
	r.Handle(method, route, func(c *gin.Context) {
		if auth != nil {
			auth(c)
		}
		h(c)
	})
	r.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status, code int) {
	t.Helper()
	if w.Code != status {
		t.Errorf("expected %d, got %d (body=%s)", status, w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp.Code != code {
		t.Errorf("expected code %d, got %d", code, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
			RefreshTTL:   86400,
		},
	}
	h := NewAuthHandler(mock, nil)

	w := serve("POST", "/auth/login", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "zhang@edu.cn",
		Password: "Test1234",
	}), nil, h.Login)

	expectStatus(t, w, http.StatusOK, 0)
	// 验证 Set-Cookie 头
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" {
			found = true
			if c.Value != "test-refresh-token" {
				t.Errorf("expected cookie value test-refresh-token, got %s", c.Value)
			}
			if !c.HttpOnly || c.MaxAge != 86400 {
				t.Errorf("expected HttpOnly cookie with max-age 86400, got %+v", c)
			}
		}
	}
	if !found {
		t.Error("expected refresh_token cookie to be set")
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	w := serve("POST", "/auth/login", "/auth/login", bytes.NewReader([]byte("invalid json")), nil, h.Login)

	expectStatus(t, w, http.StatusBadRequest, 10001)
}

func TestAuthHandler_Login_InvalidEmail(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	w := serve("POST", "/auth/login", "/auth/login", jsonBody(map[string]string{
		"email": "not-an-email", "password": "x",
	}), nil, h.Login)

	expectStatus(t, w, http.StatusBadRequest, 10001)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials}, nil)

	w := serve("POST", "/auth/login", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "zhang@edu.cn",
		Password: "wrong",
	}), nil, h.Login)

	expectStatus(t, w, http.StatusUnauthorized, 11001)
}

func TestAuthHandler_RefreshToken_FromBody(t *testing.T) {
	mock := &mockAuthService{
		refreshResult: &dto.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 900},
	}
	h := NewAuthHandler(mock, nil)

	w := serve("POST", "/auth/refresh", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{
		RefreshToken: "old-refresh",
	}), nil, h.RefreshToken)

	expectStatus(t, w, http.StatusOK, 0)
	if mock.refreshToken != "old-refresh" {
		t.Errorf("expected old-refresh to be forwarded, got %q", mock.refreshToken)
	}
}

func TestAuthHandler_RefreshToken_FromCookie(t *testing.T) {
	mock := &mockAuthService{
		refreshResult: &dto.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 900},
	}
	h := NewAuthHandler(mock, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "cookie-refresh"})

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.refreshToken != "cookie-refresh" {
		t.Errorf("expected cookie token to be used, got %q", mock.refreshToken)
	}
}

func TestAuthHandler_RefreshToken_MissingToken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	w := serve("POST", "/auth/refresh", "/auth/refresh", jsonBody(map[string]string{}), nil, h.RefreshToken)

	expectStatus(t, w, http.StatusBadRequest, 10001)
}

func TestAuthHandler_RefreshToken_Invalid(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{refreshErr: service.ErrRefreshTokenInvalid}, nil)

	w := serve("POST", "/auth/refresh", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{RefreshToken: "revoked"}), nil, h.RefreshToken)

	expectStatus(t, w, http.StatusUnauthorized, 11002)
}

func TestAuthHandler_GetCurrentUser_Success(t *testing.T) {
	mock := &mockAuthService{
		getCurrentResult: &dto.MeResponse{UserResponse: dto.UserResponse{ID: "test-user-id", Name: "Test User"}},
	}
	h := NewAuthHandler(mock, nil)

	w := serve("GET", "/auth/me", "/auth/me", nil, setAuth, h.GetCurrentUser)

	expectStatus(t, w, http.StatusOK, 0)
}

func TestAuthHandler_GetCurrentUser_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nil)

	w := serve("GET", "/auth/me", "/auth/me", nil, nil, h.GetCurrentUser)

	expectStatus(t, w, http.StatusUnauthorized, 10002)
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "cookie-refresh"})

	r := gin.New()
	r.POST("/auth/logout", func(c *gin.Context) {
		setAuth(c)
		h.Logout(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.logoutJTI != "test-jti" || mock.logoutRefresh != "cookie-refresh" {
		t.Errorf("expected jti and refresh cookie forwarded, got %q / %q", mock.logoutJTI, mock.logoutRefresh)
	}
	// 验证 Cookie 被清除（max-age = -1）
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" && c.MaxAge >= 0 {
			t.Error("expected refresh_token cookie to be cleared")
		}
	}
}

// ═══════════════════════════════════════════════════════════
// StudentHandler Tests
// ═══════════════════════════════════════════════════════════

func TestStudentHandler_GetStudent_PassesCaller(t *testing.T) {
	mock := &mockStudentService{result: &dto.StudentResponse{ID: "stu-1"}}
	h := NewStudentHandler(mock)

	w := serve("GET", "/students/:id", "/students/stu-1", nil, func(c *gin.Context) {
		setAuthAs(c, "user-1", "user")
	}, h.GetStudent)

	expectStatus(t, w, http.StatusOK, 0)
	if mock.lastCaller.UserID != "user-1" || mock.lastCaller.IsAdmin() {
		t.Errorf("unexpected caller: %+v", mock.lastCaller)
	}
}

func TestStudentHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"not found", service.ErrStudentNotFound, http.StatusNotFound, 12001},
		{"forbidden", service.ErrStudentForbidden, http.StatusForbidden, 12003},
		{"version conflict", service.ErrStudentVersionConflict, http.StatusConflict, 12004},
		{"type immutable", service.ErrStudentTypeImmutable, http.StatusForbidden, 12007},
		{"duplicate number", service.ErrStudentNumberExists, http.StatusConflict, 12002},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewStudentHandler(&mockStudentService{err: tc.err})

			w := serve("PUT", "/students/:id", "/students/stu-1", jsonBody(map[string]interface{}{"major": "软件工程"}), setAuth, h.UpdateStudent)

			expectStatus(t, w, tc.status, tc.code)
		})
	}
}

func TestStudentHandler_CreateStudent_Validation(t *testing.T) {
	h := NewStudentHandler(&mockStudentService{result: &dto.StudentResponse{ID: "stu-1"}})

	bad := map[string]interface{}{
		"user_id": testUUID, "student_number": "E2024001", "type": "arts", "enrollment_year": 2024,
	}
	w := serve("POST", "/students", "/students", jsonBody(bad), setAuth, h.CreateStudent)
	expectStatus(t, w, http.StatusBadRequest, 10001)

	good := map[string]interface{}{
		"user_id": testUUID, "student_number": "E2024001", "type": "engineering", "enrollment_year": 2024,
	}
	w = serve("POST", "/students", "/students", jsonBody(good), setAuth, h.CreateStudent)
	expectStatus(t, w, http.StatusCreated, 0)
}

func TestStudentHandler_ListStudents_Paged(t *testing.T) {
	mock := &mockStudentService{list: []dto.StudentResponse{{ID: "stu-1"}}, total: 41}
	h := NewStudentHandler(mock)

	w := serve("GET", "/students", "/students?page=3&page_size=20&type=management", nil, setAuth, h.ListStudents)

	expectStatus(t, w, http.StatusOK, 0)
	var body struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.Total != 41 || body.Data.Pagination.Page != 3 {
		t.Errorf("unexpected pagination: %+v", body.Data.Pagination)
	}
}

// ═══════════════════════════════════════════════════════════
// CourseHandler / EnrollmentHandler Tests
// ═══════════════════════════════════════════════════════════

func TestCourseHandler_CreateCourse_ZeroCredits(t *testing.T) {
	h := NewCourseHandler(&mockCourseService{})

	w := serve("POST", "/courses", "/courses", jsonBody(map[string]interface{}{
		"course_code": "CS101", "course_name": "程序设计基础", "credits": 0,
	}), setAuth, h.CreateCourse)

	expectStatus(t, w, http.StatusBadRequest, 10001)
}

func TestCourseHandler_CreateCourse_Duplicate(t *testing.T) {
	h := NewCourseHandler(&mockCourseService{err: service.ErrCourseCodeExists})

	w := serve("POST", "/courses", "/courses", jsonBody(dto.CreateCourseRequest{
		CourseCode: "CS101", CourseName: "程序设计基础", Credits: 3,
	}), setAuth, h.CreateCourse)

	expectStatus(t, w, http.StatusConflict, 13002)
}

func TestEnrollmentHandler_Enroll_Duplicate(t *testing.T) {
	h := NewEnrollmentHandler(&mockEnrollmentService{err: service.ErrAlreadyEnrolled})

	w := serve("POST", "/enrollments", "/enrollments", jsonBody(dto.EnrollRequest{
		StudentID: testUUID, CourseID: testUUID,
	}), setAuth, h.Enroll)

	expectStatus(t, w, http.StatusConflict, 14002)
}

func TestEnrollmentHandler_Unenroll_Forbidden(t *testing.T) {
	h := NewEnrollmentHandler(&mockEnrollmentService{err: service.ErrStudentForbidden})

	w := serve("DELETE", "/enrollments/:id", "/enrollments/enr-1", nil, setAuth, h.Unenroll)

	expectStatus(t, w, http.StatusForbidden, 12003)
}

// ═══════════════════════════════════════════════════════════
// GradeHandler Tests
// ═══════════════════════════════════════════════════════════

func TestGradeHandler_SetGrade_Success(t *testing.T) {
	label := "3.00"
	h := NewGradeHandler(&mockGradeService{grade: &dto.GradeResponse{ID: "g-1", Grade: 85, GPAScale: &label}})

	w := serve("PUT", "/grades", "/grades", jsonBody(map[string]interface{}{
		"enrollment_id": testUUID, "grade": 85,
	}), setAuth, h.SetGrade)

	expectStatus(t, w, http.StatusOK, 0)
}

func TestGradeHandler_SetGrade_ZeroIsValid(t *testing.T) {
	h := NewGradeHandler(&mockGradeService{grade: &dto.GradeResponse{ID: "g-1"}})

	w := serve("PUT", "/grades", "/grades", jsonBody(map[string]interface{}{
		"enrollment_id": testUUID, "grade": 0,
	}), setAuth, h.SetGrade)

	expectStatus(t, w, http.StatusOK, 0)
}

func TestGradeHandler_SetGrade_OutOfRange(t *testing.T) {
	h := NewGradeHandler(&mockGradeService{})

	for _, body := range []string{
		`{"enrollment_id":"` + testUUID + `","grade":101}`,
		`{"enrollment_id":"` + testUUID + `","grade":-1}`,
		`{"enrollment_id":"` + testUUID + `"}`,
	} {
		w := serve("PUT", "/grades", "/grades", strings.NewReader(body), setAuth, h.SetGrade)
		expectStatus(t, w, http.StatusBadRequest, 10001)
	}
}

func TestGradeHandler_ErrorMapping(t *testing.T) {
	h := NewGradeHandler(&mockGradeService{err: gpa.ErrInvalidGradeInput})
	w := serve("GET", "/students/:id/gpa", "/students/stu-1/gpa", nil, setAuth, h.GetGPA)
	expectStatus(t, w, http.StatusUnprocessableEntity, 15002)

	h = NewGradeHandler(&mockGradeService{err: service.ErrEnrollmentNotFound})
	w = serve("PUT", "/grades", "/grades", jsonBody(map[string]interface{}{"enrollment_id": testUUID, "grade": 70}), setAuth, h.SetGrade)
	expectStatus(t, w, http.StatusNotFound, 14001)
}

func TestGradeHandler_GetGPA(t *testing.T) {
	h := NewGradeHandler(&mockGradeService{gpa: &dto.GPAResponse{
		GPA: "3.57", StudentType: "management", CourseCount: 2, TotalCredits: 7, CalculationMethod: "Credit-Weighted Average",
	}})

	w := serve("GET", "/students/:id/gpa", "/students/stu-1/gpa", nil, setAuth, h.GetGPA)

	expectStatus(t, w, http.StatusOK, 0)
	if !strings.Contains(w.Body.String(), `"gpa":"3.57"`) {
		t.Errorf("expected gpa as two-decimal string, body=%s", w.Body.String())
	}
}

func TestGradeHandler_GetTranscript_EmptyCourses(t *testing.T) {
	h := NewGradeHandler(&mockGradeService{transcript: &dto.TranscriptResponse{Courses: []dto.TranscriptCourse{}, GPA: "0.00"}})

	w := serve("GET", "/students/:id/transcript", "/students/stu-1/transcript", nil, setAuth, h.GetTranscript)

	expectStatus(t, w, http.StatusOK, 0)
	if !strings.Contains(w.Body.String(), `"courses":[]`) {
		t.Errorf("expected empty courses array, body=%s", w.Body.String())
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportTranscript_Success(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("xlsx-bytes"), filename: "成绩单_E2024001.xlsx"})

	w := serve("GET", "/students/:id/transcript/export", "/students/stu-1/transcript/export", nil, setAuth, h.ExportTranscript)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, "E2024001.xlsx") {
		t.Errorf("unexpected content disposition: %s", cd)
	}
	if w.Body.String() != "xlsx-bytes" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestExportHandler_ExportTranscript_Errors(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrStudentNotFound})
	w := serve("GET", "/students/:id/transcript/export", "/students/x/transcript/export", nil, setAuth, h.ExportTranscript)
	expectStatus(t, w, http.StatusNotFound, 12001)

	h = NewExportHandler(&mockExportService{err: service.ErrExportGenerateFail})
	w = serve("GET", "/students/:id/transcript/export", "/students/x/transcript/export", nil, setAuth, h.ExportTranscript)
	expectStatus(t, w, http.StatusInternalServerError, 16001)
}
