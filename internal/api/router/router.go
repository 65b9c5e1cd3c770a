package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"classroom-reservation/config"
	"classroom-reservation/internal/api/handler"
	"classroom-reservation/internal/api/middleware"
	"classroom-reservation/internal/model"
	"classroom-reservation/pkg/jwt"
	"classroom-reservation/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时不启用 Token 黑名单与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	handler.RegisterValidators()

	r := gin.New()

	// 避免把 nil *redis.Client 装进非 nil 接口
	var checker middleware.TokenChecker
	if rdb != nil {
		checker = rdb
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	if cfg.Server.EnableMetrics {
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	if rdb != nil && cfg.Server.RateLimit > 0 {
		r.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit, cfg.Server.RateWindowDuration(), logger))
	}

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if cfg.Server.EnableMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login", h.Auth.Login)
		v1.POST("/auth/refresh", h.Auth.RefreshToken)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, checker, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 学期模块
			terms := authorized.Group("/terms")
			{
				terms.GET("", h.Term.ListTerms)
				terms.GET("/active", h.Term.GetActiveTerm)
				terms.GET("/:id", h.Term.GetTerm)
				terms.POST("", adminOnly, h.Term.CreateTerm)
				terms.PUT("/:id", adminOnly, h.Term.UpdateTerm)
				terms.POST("/:id/activate", adminOnly, h.Term.ActivateTerm)
				terms.DELETE("/:id", adminOnly, h.Term.DeleteTerm)
			}

			// 教室模块
			classrooms := authorized.Group("/classrooms")
			{
				classrooms.GET("", h.Classroom.ListClassrooms)
				classrooms.GET("/:id", h.Classroom.GetClassroom)
				classrooms.POST("", adminOnly, h.Classroom.CreateClassroom)
			}

			// 预约模块（教师）
			reservations := authorized.Group("/reservations")
			{
				reservations.POST("", middleware.RoleAuth(model.RoleInstructor), h.Reservation.Submit)
				reservations.GET("/mine", h.Reservation.ListMine)
				reservations.GET("/calendar", h.Reservation.Calendar)
				reservations.GET("/:id", h.Reservation.GetReservation)
				reservations.POST("/:id/modification", h.Reservation.RequestModification)
				reservations.POST("/:id/cancellation", h.Reservation.RequestCancellation)
			}

			// 审批模块（管理员）
			admin := authorized.Group("/admin/reservations", adminOnly)
			{
				admin.GET("", h.Admin.Queue)
				admin.POST("/:id/approve", h.Admin.Approve)
				admin.POST("/:id/reject", h.Admin.Reject)
				admin.POST("/:id/modification/approve", h.Admin.ApproveModification)
				admin.POST("/:id/modification/reject", h.Admin.RejectModification)
				admin.POST("/:id/cancellation/approve", h.Admin.ApproveCancellation)
				admin.POST("/:id/cancellation/reject", h.Admin.RejectCancellation)
			}

			// 评价模块
			authorized.POST("/feedbacks", h.Feedback.CreateFeedback)

			// 导出模块
			authorized.GET("/export/terms/:id", adminOnly, h.Export.ExportTerm)
		}
	}

	return r
}
