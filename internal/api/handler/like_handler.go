package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/rental-chat/internal/api/middleware"
	"github.com/d60-Lab/rental-chat/pkg/response"
)

type likeRequest struct {
	To string `json:"to" binding:"required,participant"`
}

// Like 表达意向（重复点赞幂等）；双向成立时返回匹配与会话
// @Summary 点赞
// @Tags 匹配
// @Accept json
// @Produce json
// @Param request body likeRequest true "被点赞的参与者"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/likes [post]
func (h *Handler) Like(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	viewer := middleware.ParticipantFrom(c)
	matched, threadID, err := h.interestSvc.RecordLike(c.Request.Context(), viewer, req.To)
	if err != nil {
		response.Fail(c, err)
		return
	}
	data := gin.H{"matched": matched}
	if matched {
		data["thread_id"] = threadID
	}
	response.Success(c, data)
}

// Unlike 撤回意向；已形成的匹配与会话保留
// @Summary 撤回点赞
// @Tags 匹配
// @Param to path string true "被撤回的参与者"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/likes/{to} [delete]
func (h *Handler) Unlike(c *gin.Context) {
	viewer := middleware.ParticipantFrom(c)
	if err := h.interestSvc.WithdrawLike(c.Request.Context(), viewer, c.Param("to")); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// ListMatches 当前用户的匹配列表
// @Summary 匹配列表
// @Tags 匹配
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/likes/matches [get]
func (h *Handler) ListMatches(c *gin.Context) {
	viewer := middleware.ParticipantFrom(c)
	list, err := h.interestSvc.ListMatches(c.Request.Context(), viewer)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": list, "count": len(list)})
}
