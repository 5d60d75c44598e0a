package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"student-records/backend/config"
	"student-records/backend/internal/api/handler"
	"student-records/backend/internal/api/middleware"
	"student-records/backend/internal/model"
	"student-records/backend/pkg/jwt"
	"student-records/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时黑名单检查与登录限流降级放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 避免把 nil *redis.Client 装进非 nil 接口
	var (
		blacklist middleware.BlacklistChecker
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(db))

	admin := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", middleware.RateLimit(limiter, cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow), h.Auth.Login)
			authGroup.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 学生档案模块
			students := authorized.Group("/students")
			{
				students.GET("/me", h.Student.GetMine)
				students.GET("", admin, h.Student.ListStudents)
				students.POST("", admin, h.Student.CreateStudent)
				students.GET("/:id", h.Student.GetStudent)    // admin 或本人（Service 层鉴权）
				students.PUT("/:id", h.Student.UpdateStudent) // admin 或本人
				students.DELETE("/:id", admin, h.Student.DeleteStudent)

				students.GET("/:id/enrollments", h.Enrollment.ListByStudent)
				students.GET("/:id/grades", h.Grade.ListGrades)
				students.GET("/:id/gpa", h.Grade.GetGPA)
				students.GET("/:id/transcript", h.Grade.GetTranscript)
				students.GET("/:id/transcript/export", h.Export.ExportTranscript)
			}

			// 课程模块
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Course.ListCourses)
				courses.GET("/:id", h.Course.GetCourse)
				courses.POST("", admin, h.Course.CreateCourse)
				courses.PUT("/:id", admin, h.Course.UpdateCourse)
				courses.DELETE("/:id", admin, h.Course.DeleteCourse)
			}

			// 选课模块
			enrollments := authorized.Group("/enrollments")
			{
				enrollments.POST("", h.Enrollment.Enroll)
				enrollments.DELETE("/:id", h.Enrollment.Unenroll)
			}

			// 成绩模块
			authorized.PUT("/grades", admin, h.Grade.SetGrade)
		}
	}

	return r
}

// healthCheck 数据库可达时返回 ok；db 为 nil（测试）时只报告进程存活
func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
				err = sqlDB.PingContext(ctx)
				cancel()
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "db": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
