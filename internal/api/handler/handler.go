package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/rental-chat/internal/service"
	"github.com/d60-Lab/rental-chat/pkg/response"
)

// Handler 聚合所有 HTTP 处理器的依赖。
type Handler struct {
	threadSvc   service.ThreadService
	interestSvc service.InterestService
	db          *gorm.DB
	rdb         *redis.Client
}

func NewHandler(threadSvc service.ThreadService, interestSvc service.InterestService, db *gorm.DB, rdb *redis.Client) *Handler {
	return &Handler{threadSvc: threadSvc, interestSvc: interestSvc, db: db, rdb: rdb}
}

// Health 健康检查：数据库必须可达，Redis 可选。
// @Summary 健康检查
// @Tags 运维
// @Success 200 {object} response.Response
// @Router /healthz [get]
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	redisOK := true
	if h.rdb != nil {
		redisOK = h.rdb.Ping(c.Request.Context()).Err() == nil
	}
	response.Success(c, gin.H{"database": "up", "redis_ok": redisOK})
}
