package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/rental-chat/internal/api/middleware"
	"github.com/d60-Lab/rental-chat/pkg/response"
)

type createThreadRequest struct {
	To    string `json:"to" binding:"required,participant"`
	Scope string `json:"scope" binding:"omitempty,max=64"`
}

type sendMessageRequest struct {
	Body string `json:"body" binding:"required,max=4096"`
}

type patchThreadRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// CreateOrOpenThread 找到或创建与对方的会话（幂等）
// @Summary 打开会话（不存在则创建）
// @Tags 会话
// @Accept json
// @Produce json
// @Param request body createThreadRequest true "对方参与者与可选业务范围"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/threads [post]
func (h *Handler) CreateOrOpenThread(c *gin.Context) {
	var req createThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	viewer := middleware.ParticipantFrom(c)
	threadID, existing, err := h.threadSvc.CreateOrOpen(c.Request.Context(), viewer, req.To, req.Scope)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if existing {
		response.Success(c, gin.H{"thread_id": threadID, "existing": true})
		return
	}
	response.Created(c, gin.H{"thread_id": threadID, "existing": false})
}

// ListThreads 当前用户的会话列表
// @Summary 会话列表（含对方展示名、最后一条消息、未读数）
// @Tags 会话
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 503 {object} response.Response
// @Router /api/v1/threads [get]
func (h *Handler) ListThreads(c *gin.Context) {
	viewer := middleware.ParticipantFrom(c)
	list, err := h.threadSvc.List(c.Request.Context(), viewer)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": list, "count": len(list)})
}

// GetMessages 会话消息（按时间升序分页）
// @Summary 拉取会话消息
// @Tags 会话
// @Param id path string true "会话ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(50)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/threads/{id}/messages [get]
func (h *Handler) GetMessages(c *gin.Context) {
	viewer := middleware.ParticipantFrom(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	msgs, err := h.threadSvc.Messages(c.Request.Context(), viewer, c.Param("id"), page, pageSize)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": msgs})
}

// SendMessage 在会话里发消息
// @Summary 发送消息
// @Tags 会话
// @Accept json
// @Produce json
// @Param id path string true "会话ID"
// @Param request body sendMessageRequest true "消息内容"
// @Success 201 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/threads/{id}/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	viewer := middleware.ParticipantFrom(c)
	msg, err := h.threadSvc.Send(c.Request.Context(), viewer, c.Param("id"), req.Body)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, gin.H{"message_id": msg.ID, "created_at": msg.CreatedAt})
}

// MarkRead 把对方发来的未读消息全部置为已读
// @Summary 标记会话已读
// @Tags 会话
// @Param id path string true "会话ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/threads/{id}/read [post]
func (h *Handler) MarkRead(c *gin.Context) {
	viewer := middleware.ParticipantFrom(c)
	n, err := h.threadSvc.MarkRead(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"marked": n})
}

// PatchThread 软关闭 / 重新打开会话
// @Summary 更新会话激活状态
// @Tags 会话
// @Accept json
// @Produce json
// @Param id path string true "会话ID"
// @Param request body patchThreadRequest true "目标状态"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/threads/{id} [patch]
func (h *Handler) PatchThread(c *gin.Context) {
	var req patchThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	viewer := middleware.ParticipantFrom(c)
	if err := h.threadSvc.SetActive(c.Request.Context(), viewer, c.Param("id"), *req.Active); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}
