package api

import (
	"strings"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/rental-chat/config"
	"github.com/d60-Lab/rental-chat/internal/api/handler"
	"github.com/d60-Lab/rental-chat/internal/api/middleware"
)

// NewRouter 组装 HTTP 路由与中间件链。
func NewRouter(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	registerValidators()

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Trace.Enabled {
		r.Use(otelgin.Middleware("rental-chat"))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RateLimit(cfg.Server.RateLimitQPS, cfg.Server.RateLimitBurst))

	r.GET("/healthz", h.Health)
	if cfg.Server.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1", middleware.Auth(cfg.Auth.JWTSecret))
	{
		threads := v1.Group("/threads")
		{
			threads.POST("", h.CreateOrOpenThread)
			threads.GET("", h.ListThreads)
			threads.GET("/:id/messages", h.GetMessages)
			threads.POST("/:id/messages", h.SendMessage)
			threads.POST("/:id/read", h.MarkRead)
			threads.PATCH("/:id", h.PatchThread)
		}
		likes := v1.Group("/likes")
		{
			likes.POST("", h.Like)
			likes.GET("/matches", h.ListMatches)
			likes.DELETE("/:to", h.Unlike)
		}
	}
	return r
}

// registerValidators 注册参与者 id 的格式校验：非空、无空白、长度受限。
// 真正的身份校验由 JWT 完成，这里只拦明显的脏输入。
func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("participant", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" || len(s) > 64 {
			return false
		}
		return !strings.ContainsAny(s, " \t\n")
	})
}
