package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"box-schedule/backend/config"
	"box-schedule/backend/internal/api/handler"
	"box-schedule/backend/internal/api/middleware"
	"box-schedule/backend/pkg/jwt"
	"box-schedule/backend/pkg/redis"
)

// 预约接口限流：每个用户每分钟最多 30 次
const (
	reserveRateLimit  = 30
	reserveRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	handler.RegisterValidators()

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		staff := middleware.RoleAuth("admin", "coach")

		// 课程模块
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/seed", middleware.RoleAuth("admin"), h.Session.SeedSessions)
			sessions.GET("", h.Session.ListSessions)
			sessions.GET("/:id", h.Session.GetSession)

			// 预约
			sessions.POST("/:id/reservations", middleware.RateLimit(rdb, reserveRateLimit, reserveRateWindow), h.Reservation.Reserve)
			sessions.DELETE("/:id/reservations", h.Reservation.Cancel)
			sessions.GET("/:id/roster", staff, h.Reservation.ListRoster)

			// 点名与课程状态
			sessions.PUT("/:id/attendance/:user_id", staff, h.Attendance.MarkAttendance)
			sessions.DELETE("/:id/attendance", staff, h.Attendance.ResetAttendance)
			sessions.POST("/:id/close", staff, h.Attendance.CloseSession)
			sessions.POST("/:id/reopen", staff, h.Attendance.ReopenSession)
		}

		v1.GET("/history", h.History.ListHistory)
		v1.GET("/reservations/me.ics", h.Reservation.ExportCalendar)

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/attendance", staff, h.Export.ExportAttendance)
		}
	}

	return r
}
