package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/rental-chat/pkg/apperr"
	"github.com/d60-Lab/rental-chat/pkg/logger"
)

// Response 统一响应结构。成功时 code=0；失败时 error 为稳定错误码，
// message 为可读描述，绝不透出存储层原始报错。
type Response struct {
	Code    int         `json:"code"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Success bool        `json:"success"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "ok", Data: data, Success: true})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "ok", Data: data, Success: true})
}

func BadRequest(c *gin.Context, msg string) {
	abort(c, http.StatusBadRequest, apperr.CodeInvalidArgument, msg)
}

func NotFound(c *gin.Context, msg string) {
	abort(c, http.StatusNotFound, apperr.CodeNotFound, msg)
}

func Unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Code: http.StatusUnauthorized, Error: "UNAUTHORIZED", Message: msg,
	})
}

func InternalError(c *gin.Context, err error) {
	logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
	abort(c, http.StatusInternalServerError, apperr.CodeInternal, "internal server error")
}

// Fail 按错误码映射 HTTP 状态；CONFLICT 在仓储层内部消化，走到这里按内部错误处理。
func Fail(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	switch code {
	case apperr.CodeInvalidArgument:
		abort(c, http.StatusBadRequest, code, err.Error())
	case apperr.CodeNotFound:
		abort(c, http.StatusNotFound, code, err.Error())
	case apperr.CodeAccessDenied:
		// 存储层权限被拒是配置问题，不能降级成 NOT_FOUND 掩盖
		logger.Error("storage access denied", zap.String("path", c.FullPath()), zap.Error(err))
		abort(c, http.StatusForbidden, code, "storage access denied, check service configuration")
	case apperr.CodeNoSchemaMatched:
		logger.Error("no conversation schema matched", zap.Error(err))
		abort(c, http.StatusServiceUnavailable, code, "messaging storage is not configured")
	case apperr.CodeTransient:
		abort(c, http.StatusServiceUnavailable, code, "temporary storage failure, retry later")
	default:
		InternalError(c, err)
	}
}

func abort(c *gin.Context, status int, code apperr.Code, msg string) {
	c.AbortWithStatusJSON(status, Response{Code: status, Error: string(code), Message: msg})
}
